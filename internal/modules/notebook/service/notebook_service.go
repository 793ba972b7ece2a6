package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	hclog "github.com/hashicorp/go-hclog"

	"notebook/internal/modules/notebook/domain"
	notebookout "notebook/internal/modules/notebook/port/out"
	apperrors "notebook/internal/platform/errors"
	"notebook/internal/platform/id"
	"notebook/internal/platform/logging"
)

type NotebookService struct {
	store    notebookout.TopicStore
	resolver notebookout.LinkResolver
	server   notebookout.RPCServer
	ids      id.Generator
	logger   hclog.Logger
}

func NewNotebookService(store notebookout.TopicStore, resolver notebookout.LinkResolver, server notebookout.RPCServer, ids id.Generator, logger hclog.Logger) *NotebookService {
	if ids == nil {
		ids = id.UUID{}
	}
	return &NotebookService{
		store:    store,
		resolver: resolver,
		server:   server,
		ids:      ids,
		logger:   logging.OrDiscard(logger).Named("notebook"),
	}
}

func (s *NotebookService) Initialize(ctx context.Context) error {
	return s.store.Initialize(ctx)
}

// AddTopicWithWikiLink resolves topic and records the link. Every outcome, including failures,
// is reported as a non-empty message.
func (s *NotebookService) AddTopicWithWikiLink(ctx context.Context, topic string) string {
	log := s.logger.With("request_id", s.ids.New())

	name, err := domain.NormalizeName(topic)
	if err != nil {
		log.Debug("rejected topic", "topic", topic, "error", err)
		if strings.TrimSpace(topic) == "" {
			return "Invalid topic: topic name must not be empty."
		}
		return fmt.Sprintf("Invalid topic: %v.", err)
	}
	log = log.With("topic", name)

	link, found := s.resolver.Resolve(ctx, name)
	if !found {
		log.Info("no article found")
		return fmt.Sprintf("No article found for topic '%s'.", name)
	}

	result, err := s.store.Upsert(ctx, name, link)
	if err != nil {
		log.Error("upsert topic", "error", err)
		return storageMessage(err)
	}
	log.Info("topic stored", "outcome", string(result.Outcome), "link", result.Link)
	return outcomeMessage(name, result)
}

func (s *NotebookService) ListTopics(ctx context.Context) ([]domain.Topic, error) {
	return s.store.List(ctx)
}

func (s *NotebookService) GetTopic(ctx context.Context, name string) (domain.Topic, error) {
	name, err := domain.NormalizeName(name)
	if err != nil {
		return domain.Topic{}, err
	}
	return s.store.Find(ctx, name)
}

// Serve initializes the store and blocks serving remote calls until ctx is cancelled.
func (s *NotebookService) Serve(ctx context.Context, addr string) error {
	if s.server == nil {
		return fmt.Errorf("rpc server is not configured")
	}
	if err := s.store.Initialize(ctx); err != nil {
		return err
	}
	s.logger.Info("serving", "addr", addr)
	defer s.logger.Info("server stopped", "addr", addr)
	return s.server.Serve(ctx, addr, s)
}

func outcomeMessage(name string, result domain.UpsertResult) string {
	switch result.Outcome {
	case domain.OutcomeCreated:
		return fmt.Sprintf("Wikipedia link added for topic '%s': %s", name, result.Link)
	case domain.OutcomeUpdated:
		return fmt.Sprintf("Wikipedia link updated for topic '%s': %s", name, result.Link)
	default:
		return fmt.Sprintf("Wikipedia link already present for topic '%s': %s", name, result.Link)
	}
}

func storageMessage(err error) string {
	if errors.Is(err, apperrors.ErrInvalidInput) {
		return fmt.Sprintf("Invalid topic: %v.", err)
	}
	return fmt.Sprintf("An error occurred while updating the topic store: %v", err)
}
