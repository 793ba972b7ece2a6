package out

import "context"

// Backend looks a topic up in one external source. A miss is reported as domain.ErrNoResult.
type Backend interface {
	Name() string
	Lookup(ctx context.Context, topic string) (string, error)
}
