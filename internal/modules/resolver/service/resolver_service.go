package service

import (
	"context"
	"errors"
	"time"

	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"notebook/internal/modules/resolver/domain"
	resolverout "notebook/internal/modules/resolver/port/out"
	"notebook/internal/platform/logging"
)

const defaultTimeout = 10 * time.Second

type Options struct {
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

type ResolverService struct {
	backend resolverout.Backend
	limiter *rate.Limiter
	timeout time.Duration
	logger  hclog.Logger
}

func NewResolverService(backend resolverout.Backend, opts Options, logger hclog.Logger) *ResolverService {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &ResolverService{
		backend: backend,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
		logger:  logging.OrDiscard(logger).Named("resolver").With("backend", backend.Name()),
	}
}

// Resolve never fails: backend errors, timeouts and empty answers all come back as a miss.
func (s *ResolverService) Resolve(ctx context.Context, topic string) domain.Lookup {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.limiter.Wait(ctx); err != nil {
		s.logger.Warn("lookup throttled", "topic", topic, "error", err)
		return domain.Miss(topic)
	}
	started := time.Now()
	link, err := s.backend.Lookup(ctx, topic)
	elapsed := time.Since(started)
	switch {
	case errors.Is(err, domain.ErrNoResult):
		s.logger.Debug("no result", "topic", topic, "elapsed", elapsed)
		return domain.Miss(topic)
	case err != nil:
		s.logger.Warn("lookup failed", "topic", topic, "elapsed", elapsed, "error", err)
		return domain.Miss(topic)
	}
	result := domain.Hit(topic, link)
	s.logger.Debug("resolved", "topic", topic, "found", result.Found, "elapsed", elapsed)
	return result
}
