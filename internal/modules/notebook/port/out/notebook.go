package out

import (
	"context"

	"notebook/internal/modules/notebook/domain"
)

// TopicStore owns the persisted topic collection. Initialize and Upsert are serialized per store.
type TopicStore interface {
	Initialize(ctx context.Context) error
	Upsert(ctx context.Context, name, link string) (domain.UpsertResult, error)
	Find(ctx context.Context, name string) (domain.Topic, error)
	List(ctx context.Context) ([]domain.Topic, error)
	Close() error
}

// LinkResolver maps a topic to an external link. A false result means no usable link was found.
type LinkResolver interface {
	Resolve(ctx context.Context, topic string) (string, bool)
}

// RPCHandler is the surface exposed to remote callers.
type RPCHandler interface {
	AddTopicWithWikiLink(ctx context.Context, topic string) string
	ListTopics(ctx context.Context) ([]domain.Topic, error)
	GetTopic(ctx context.Context, name string) (domain.Topic, error)
}

// RPCServer serves an RPCHandler on addr until ctx is cancelled.
type RPCServer interface {
	Serve(ctx context.Context, addr string, handler RPCHandler) error
}

// RPCClient calls a remote RPCHandler.
type RPCClient interface {
	AddTopicWithWikiLink(ctx context.Context, addr, topic string) (string, error)
	ListTopics(ctx context.Context, addr string) ([]domain.Topic, error)
	GetTopic(ctx context.Context, addr, name string) (domain.Topic, error)
}
