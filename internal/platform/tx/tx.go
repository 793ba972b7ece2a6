package tx

import (
	"context"
	"sync"
)

// Manager wraps a critical section around a unit of work.
type Manager interface {
	Within(ctx context.Context, fn func(context.Context) error) error
}

// Serial runs at most one unit of work at a time. The zero value is ready to use.
type Serial struct {
	mu sync.Mutex
}

var _ Manager = (*Serial)(nil)

func (s *Serial) Within(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx)
}
