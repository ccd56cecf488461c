package stats

import (
	"context"
	"fmt"

	"study/internal/cache"
	"study/internal/clock"
	"study/internal/remote"
)

// Service is the read and write path for study statistics. Reads go through
// the cache; writes go to the backend, invalidate the user's cached windows,
// then re-fetch so the caller sees the updated total immediately.
type Service struct {
	resolver *clock.Resolver
	cache    *cache.Cache
	client   *remote.Client
}

// New wires the service. The resolver here, the one inside the cache, and
// the one used by every handler must be the same instance.
func New(resolver *clock.Resolver, c *cache.Cache, client *remote.Client) *Service {
	return &Service{
		resolver: resolver,
		cache:    c,
		client:   client,
	}
}

// Aggregate returns the user's statistics for the window anchored at the
// current local boundary, serving from cache when possible.
func (s *Service) Aggregate(ctx context.Context, w clock.Window, user string) (remote.Aggregate, error) {
	boundary := s.resolver.Boundary(w)

	if agg, ok := s.cache.Get(w, boundary, user); ok {
		return agg, nil
	}

	agg, err := s.client.FetchAggregate(ctx, w, boundary, user)
	if err != nil {
		return remote.Aggregate{}, fmt.Errorf("failed to fetch %s aggregate: %w", w, err)
	}

	s.cache.Put(w, boundary, user, agg)
	return agg, nil
}

// AddFocusTime logs focus seconds for the user's local today, then returns
// the refreshed daily aggregate.
func (s *Service) AddFocusTime(ctx context.Context, user string, seconds int) (remote.Aggregate, error) {
	if seconds <= 0 {
		return remote.Aggregate{}, fmt.Errorf("focus seconds must be positive, got %d", seconds)
	}
	if err := s.client.LogFocusTime(ctx, user, s.resolver.Today(), seconds); err != nil {
		return remote.Aggregate{}, err
	}
	return s.refresh(ctx, user)
}

// CompleteSession records a finished study session and returns the
// refreshed daily aggregate.
func (s *Service) CompleteSession(ctx context.Context, user string) (remote.Aggregate, error) {
	if err := s.client.CompleteSession(ctx, user, s.resolver.Today()); err != nil {
		return remote.Aggregate{}, err
	}
	return s.refresh(ctx, user)
}

// CompleteTask records a finished task and returns the refreshed daily
// aggregate.
func (s *Service) CompleteTask(ctx context.Context, user string) (remote.Aggregate, error) {
	if err := s.client.CompleteTask(ctx, user, s.resolver.Today()); err != nil {
		return remote.Aggregate{}, err
	}
	return s.refresh(ctx, user)
}

// refresh drops the user's cached windows and re-reads the daily aggregate.
// Invalidation happens before the read returns, so no caller can observe a
// pre-write total after a write.
func (s *Service) refresh(ctx context.Context, user string) (remote.Aggregate, error) {
	s.cache.Invalidate(user)
	return s.Aggregate(ctx, clock.Daily, user)
}
