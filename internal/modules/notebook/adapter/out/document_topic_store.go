package out

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	hclog "github.com/hashicorp/go-hclog"

	"notebook/internal/modules/notebook/domain"
	notebookout "notebook/internal/modules/notebook/port/out"
	apperrors "notebook/internal/platform/errors"
	"notebook/internal/platform/logging"
	"notebook/internal/platform/tx"
)

const corruptSuffix = ".corrupt"

// documentCodec converts a whole collection to and from its on-disk document.
type documentCodec interface {
	Name() string
	Encode(c domain.Collection) ([]byte, error)
	Decode(raw []byte) (domain.Collection, error)
}

// DocumentTopicStore keeps the collection in a single file that is re-read and rewritten in
// full on every mutation.
type DocumentTopicStore struct {
	path   string
	codec  documentCodec
	policy domain.UpsertPolicy
	serial tx.Serial
	logger hclog.Logger

	// ready is false until the document has been initialized, and again after any storage failure.
	ready bool
}

func NewXMLTopicStore(path string, policy domain.UpsertPolicy, logger hclog.Logger) (notebookout.TopicStore, error) {
	return newDocumentTopicStore(path, xmlCodec{}, policy, logger)
}

func NewYAMLTopicStore(path string, policy domain.UpsertPolicy, logger hclog.Logger) (notebookout.TopicStore, error) {
	return newDocumentTopicStore(path, yamlCodec{}, policy, logger)
}

func newDocumentTopicStore(path string, codec documentCodec, policy domain.UpsertPolicy, logger hclog.Logger) (*DocumentTopicStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: store path is required", apperrors.ErrInvalidInput)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &DocumentTopicStore{
		path:   path,
		codec:  codec,
		policy: policy,
		logger: logging.OrDiscard(logger).Named("store").With("backend", codec.Name(), "path", path),
	}, nil
}

func (s *DocumentTopicStore) Initialize(ctx context.Context) error {
	return s.serial.Within(ctx, func(context.Context) error {
		return s.initializeLocked()
	})
}

func (s *DocumentTopicStore) Upsert(ctx context.Context, name, link string) (domain.UpsertResult, error) {
	if err := domain.ValidateUpsert(name, link); err != nil {
		return domain.UpsertResult{}, err
	}
	result := domain.UpsertResult{}
	err := s.serial.Within(ctx, func(context.Context) error {
		if !s.ready {
			if err := s.initializeLocked(); err != nil {
				return err
			}
		}
		collection, err := s.load()
		if err != nil {
			s.ready = false
			return err
		}
		var mutated bool
		result, mutated = collection.Upsert(name, link, s.policy)
		if !mutated {
			return nil
		}
		if err := s.save(collection); err != nil {
			s.ready = false
			return err
		}
		return nil
	})
	if err != nil {
		return domain.UpsertResult{}, err
	}
	return result, nil
}

func (s *DocumentTopicStore) Find(ctx context.Context, name string) (domain.Topic, error) {
	var (
		topic domain.Topic
		found bool
	)
	err := s.serial.Within(ctx, func(context.Context) error {
		collection, err := s.load()
		if err != nil {
			return err
		}
		topic, found = collection.Find(name)
		return nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	if !found {
		return domain.Topic{}, fmt.Errorf("topic %q: %w", name, apperrors.ErrNotFound)
	}
	return topic, nil
}

func (s *DocumentTopicStore) List(ctx context.Context) ([]domain.Topic, error) {
	var topics []domain.Topic
	err := s.serial.Within(ctx, func(context.Context) error {
		collection, err := s.load()
		if err != nil {
			return err
		}
		topics = collection.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return topics, nil
}

func (s *DocumentTopicStore) Close() error {
	return nil
}

func (s *DocumentTopicStore) initializeLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.NewStorageError("create store dir", filepath.Dir(s.path), err)
	}
	raw, err := os.ReadFile(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("creating empty topic document")
	case err != nil:
		return domain.NewStorageError("read", s.path, err)
	default:
		_, decodeErr := s.codec.Decode(raw)
		if decodeErr == nil {
			s.ready = true
			return nil
		}
		backup := s.path + corruptSuffix
		s.logger.Warn("topic document is corrupt, starting fresh", "error", decodeErr, "backup", backup)
		if err := os.Rename(s.path, backup); err != nil {
			return domain.NewStorageError("move corrupt document", s.path, err)
		}
	}
	if err := s.save(domain.NewCollection()); err != nil {
		return err
	}
	s.ready = true
	return nil
}

func (s *DocumentTopicStore) load() (domain.Collection, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewCollection(), nil
		}
		return domain.Collection{}, domain.NewStorageError("read", s.path, err)
	}
	collection, err := s.codec.Decode(raw)
	if err != nil {
		return domain.Collection{}, domain.NewStorageError("decode", s.path, err)
	}
	return collection, nil
}

func (s *DocumentTopicStore) save(collection domain.Collection) error {
	payload, err := s.codec.Encode(collection)
	if err != nil {
		return domain.NewStorageError("encode", s.path, err)
	}
	if err := writeFileAtomic(s.path, payload, 0o644); err != nil {
		return domain.NewStorageError("write", s.path, err)
	}
	return nil
}

// writeFileAtomic replaces path with data so readers see either the old or the new document.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}
