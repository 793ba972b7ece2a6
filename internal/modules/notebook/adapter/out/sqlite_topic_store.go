package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"notebook/internal/modules/notebook/domain"
	notebookout "notebook/internal/modules/notebook/port/out"
	apperrors "notebook/internal/platform/errors"
	"notebook/internal/platform/clock"
	"notebook/internal/platform/logging"
	"notebook/internal/platform/tx"

	_ "modernc.org/sqlite"
)

// SQLiteTopicStore keeps one row per topic; the name column is unique and position preserves
// insertion order.
type SQLiteTopicStore struct {
	path   string
	policy domain.UpsertPolicy
	clock  clock.Clock
	logger hclog.Logger
	serial tx.Serial

	db    *sql.DB
	ready bool
}

func NewSQLiteTopicStore(path string, policy domain.UpsertPolicy, clk clock.Clock, logger hclog.Logger) (notebookout.TopicStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: store path is required", apperrors.ErrInvalidInput)
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	s := &SQLiteTopicStore{
		path:   path,
		policy: policy,
		clock:  clk,
		logger: logging.OrDiscard(logger).Named("store").With("backend", "sqlite", "path", path),
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteTopicStore) open() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return domain.NewStorageError("create store dir", filepath.Dir(s.path), err)
	}
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return domain.NewStorageError("open sqlite", s.path, err)
	}
	db.SetMaxOpenConns(1)
	s.db = db
	return nil
}

func (s *SQLiteTopicStore) Initialize(ctx context.Context) error {
	return s.serial.Within(ctx, s.initializeLocked)
}

func (s *SQLiteTopicStore) initializeLocked(ctx context.Context) error {
	err := s.ensureSchema(ctx)
	if err == nil {
		s.ready = true
		return nil
	}
	if !isCorruptDatabase(err) {
		return domain.NewStorageError("create schema", s.path, err)
	}
	backup := s.path + corruptSuffix
	s.logger.Warn("sqlite database is corrupt, starting fresh", "error", err, "backup", backup)
	_ = s.db.Close()
	if err := os.Rename(s.path, backup); err != nil {
		return domain.NewStorageError("move corrupt database", s.path, err)
	}
	if err := s.open(); err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return domain.NewStorageError("create schema", s.path, err)
	}
	s.ready = true
	return nil
}

func (s *SQLiteTopicStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS topics (
  position INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE,
  link TEXT NOT NULL DEFAULT '',
  updated_at TEXT NOT NULL
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create topics table: %w", err)
	}
	return nil
}

func (s *SQLiteTopicStore) Upsert(ctx context.Context, name, link string) (domain.UpsertResult, error) {
	if err := domain.ValidateUpsert(name, link); err != nil {
		return domain.UpsertResult{}, err
	}
	result := domain.UpsertResult{}
	err := s.serial.Within(ctx, func(ctx context.Context) error {
		if !s.ready {
			if err := s.initializeLocked(ctx); err != nil {
				return err
			}
		}
		var err error
		result, err = s.upsertTx(ctx, name, link)
		if err != nil {
			s.ready = false
			return domain.NewStorageError("upsert", s.path, err)
		}
		return nil
	})
	if err != nil {
		return domain.UpsertResult{}, err
	}
	return result, nil
}

func (s *SQLiteTopicStore) upsertTx(ctx context.Context, name, link string) (domain.UpsertResult, error) {
	txn, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = txn.Rollback() }()

	existing := domain.Topic{Name: name}
	found := true
	if err := txn.QueryRowContext(ctx, `SELECT link FROM topics WHERE name = ?`, name).Scan(&existing.Link); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return domain.UpsertResult{}, fmt.Errorf("select topic: %w", err)
		}
		found = false
	}
	result, mutated := domain.Decide(existing, found, link, s.policy)
	if !mutated {
		return result, nil
	}
	now := s.clock.Now().UTC().Format(time.RFC3339Nano)
	if found {
		_, err = txn.ExecContext(ctx, `UPDATE topics SET link = ?, updated_at = ? WHERE name = ?`, result.Link, now, name)
	} else {
		_, err = txn.ExecContext(ctx, `INSERT INTO topics (name, link, updated_at) VALUES (?, ?, ?)`, name, result.Link, now)
	}
	if err != nil {
		return domain.UpsertResult{}, fmt.Errorf("write topic: %w", err)
	}
	if err := txn.Commit(); err != nil {
		return domain.UpsertResult{}, fmt.Errorf("commit: %w", err)
	}
	return result, nil
}

func (s *SQLiteTopicStore) Find(ctx context.Context, name string) (domain.Topic, error) {
	topic := domain.Topic{Name: name}
	err := s.serial.Within(ctx, func(ctx context.Context) error {
		if err := s.ensureReadyLocked(ctx); err != nil {
			return err
		}
		if err := s.db.QueryRowContext(ctx, `SELECT link FROM topics WHERE name = ?`, name).Scan(&topic.Link); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("topic %q: %w", name, apperrors.ErrNotFound)
			}
			return domain.NewStorageError("find", s.path, err)
		}
		return nil
	})
	if err != nil {
		return domain.Topic{}, err
	}
	return topic, nil
}

func (s *SQLiteTopicStore) List(ctx context.Context) ([]domain.Topic, error) {
	out := []domain.Topic{}
	err := s.serial.Within(ctx, func(ctx context.Context) error {
		if err := s.ensureReadyLocked(ctx); err != nil {
			return err
		}
		rows, err := s.db.QueryContext(ctx, `SELECT name, link FROM topics ORDER BY position ASC`)
		if err != nil {
			return domain.NewStorageError("list", s.path, err)
		}
		defer rows.Close()
		for rows.Next() {
			item := domain.Topic{}
			if err := rows.Scan(&item.Name, &item.Link); err != nil {
				return domain.NewStorageError("scan topic", s.path, err)
			}
			out = append(out, item)
		}
		if err := rows.Err(); err != nil {
			return domain.NewStorageError("iterate topics", s.path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteTopicStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteTopicStore) ensureReadyLocked(ctx context.Context) error {
	if s.ready {
		return nil
	}
	return s.initializeLocked(ctx)
}

func isCorruptDatabase(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not a database") || strings.Contains(msg, "malformed")
}
