package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	hclog "github.com/hashicorp/go-hclog"

	notebookinadapter "notebook/internal/modules/notebook/adapter/in"
	notebookoutadapter "notebook/internal/modules/notebook/adapter/out"
	notebookdomain "notebook/internal/modules/notebook/domain"
	notebookout "notebook/internal/modules/notebook/port/out"
	notebookservice "notebook/internal/modules/notebook/service"
	notebookusecase "notebook/internal/modules/notebook/usecase"
	resolveroutadapter "notebook/internal/modules/resolver/adapter/out"
	resolverout "notebook/internal/modules/resolver/port/out"
	resolverservice "notebook/internal/modules/resolver/service"
	resolverusecase "notebook/internal/modules/resolver/usecase"
	"notebook/internal/platform/clock"
	"notebook/internal/platform/config"
	"notebook/internal/platform/id"
	"notebook/internal/platform/logging"
)

type App struct {
	NotebookCLI notebookinadapter.CLIHandler
	RPCClient   notebookout.RPCClient
	Config      config.Config
	Logger      hclog.Logger

	store notebookout.TopicStore
}

func New(ctx context.Context, cfg config.Config, logger hclog.Logger) (*App, error) {
	logger = logging.OrDiscard(logger)
	clk := clock.SystemClock{}

	store, err := newTopicStore(ctx, cfg, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("new topic store: %w", err)
	}
	backend, err := newLookupBackend(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("new lookup backend: %w", err)
	}
	server, client, err := newTransport(cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("new transport: %w", err)
	}

	resolverUC := resolverusecase.NewInteractor(resolverservice.NewResolverService(backend, resolverservice.Options{
		Timeout:       cfg.Lookup.Timeout,
		RatePerSecond: cfg.Lookup.RatePerSecond,
		Burst:         cfg.Lookup.Burst,
	}, logger))
	notebookUC := notebookusecase.NewInteractor(notebookservice.NewNotebookService(
		store,
		notebookoutadapter.NewResolverBridge(resolverUC),
		server,
		id.UUID{},
		logger,
	))

	return &App{
		NotebookCLI: notebookinadapter.NewCLIHandler(notebookUC),
		RPCClient:   client,
		Config:      cfg,
		Logger:      logger,
		store:       store,
	}, nil
}

// Close releases the topic store.
func (a *App) Close() error {
	if a == nil || a.store == nil {
		return nil
	}
	return a.store.Close()
}

func newTopicStore(ctx context.Context, cfg config.Config, clk clock.Clock, logger hclog.Logger) (notebookout.TopicStore, error) {
	policy := notebookdomain.UpsertPolicy(cfg.Store.Policy)
	switch cfg.Store.Backend {
	case config.BackendXML:
		return notebookoutadapter.NewXMLTopicStore(cfg.Store.Path, policy, logger)
	case config.BackendYAML:
		return notebookoutadapter.NewYAMLTopicStore(cfg.Store.Path, policy, logger)
	case config.BackendSQLite:
		return notebookoutadapter.NewSQLiteTopicStore(cfg.Store.Path, policy, clk, logger)
	case config.BackendMongo:
		return notebookoutadapter.NewMongoTopicStore(ctx, notebookoutadapter.MongoConfig{
			URI:        cfg.Store.MongoURI,
			Database:   cfg.Store.MongoDatabase,
			Collection: cfg.Store.MongoCollection,
		}, policy, clk, logger)
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.Store.Backend)
	}
}

func newLookupBackend(cfg config.Config, logger hclog.Logger) (resolverout.Backend, error) {
	switch cfg.Lookup.Backend {
	case config.LookupWikipedia:
		return resolveroutadapter.NewWikipediaBackend(resolveroutadapter.WikipediaConfig{
			Endpoint:    cfg.Lookup.Endpoint,
			ArticleBase: cfg.Lookup.ArticleBase,
			UserAgent:   cfg.Lookup.UserAgent,
			HTTPClient:  &http.Client{Timeout: cfg.Lookup.Timeout},
		}), nil
	case config.LookupStatic:
		return resolveroutadapter.NewStaticBackend(cfg.Lookup.Static), nil
	case config.LookupPlugin:
		return resolveroutadapter.NewPluginBackend(cfg.Lookup.PluginBinary, logger)
	default:
		return nil, fmt.Errorf("unsupported lookup backend %q", cfg.Lookup.Backend)
	}
}

func newTransport(cfg config.Config, logger hclog.Logger) (notebookout.RPCServer, notebookout.RPCClient, error) {
	switch cfg.Server.Transport {
	case config.TransportJSONRPC:
		return notebookoutadapter.NewJSONRPCServer(logger), notebookoutadapter.NewJSONRPCClient(cfg.Server.CallTimeout), nil
	case config.TransportGRPC:
		return notebookoutadapter.NewGRPCServer(logger), notebookoutadapter.NewGRPCClient(cfg.Server.CallTimeout), nil
	default:
		return nil, nil, errors.New("unsupported transport " + cfg.Server.Transport)
	}
}
