package middleware

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrBusy is returned when a tenant already has the maximum number of
// validator runs in flight.
var ErrBusy = errors.New("too many checks running for this tenant")

// RunLimiter caps concurrent EPUBCheck runs per tenant. Each run starts a
// JVM, so the cap is on processes, not on requests.
type RunLimiter struct {
	mu   sync.Mutex
	max  int64
	sems map[string]*semaphore.Weighted
}

func NewRunLimiter(maxPerTenant int) *RunLimiter {
	if maxPerTenant <= 0 {
		maxPerTenant = 1
	}
	return &RunLimiter{max: int64(maxPerTenant), sems: map[string]*semaphore.Weighted{}}
}

func (l *RunLimiter) sem(tenant string) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sems[tenant]
	if !ok {
		s = semaphore.NewWeighted(l.max)
		l.sems[tenant] = s
	}
	return s
}

// TryAcquire takes a slot without waiting. The returned release must be
// called exactly once when the run ends.
func (l *RunLimiter) TryAcquire(tenant string) (release func(), err error) {
	s := l.sem(tenant)
	if !s.TryAcquire(1) {
		return nil, ErrBusy
	}
	return l.releaser(s), nil
}

// Acquire waits for a slot until ctx is done.
func (l *RunLimiter) Acquire(ctx context.Context, tenant string) (release func(), err error) {
	s := l.sem(tenant)
	if err := s.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return l.releaser(s), nil
}

func (l *RunLimiter) releaser(s *semaphore.Weighted) func() {
	var once sync.Once
	return func() { once.Do(func() { s.Release(1) }) }
}
