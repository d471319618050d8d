package providers

import (
	"context"
	"sync"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// Throttle keeps one outbound quota per provider name across resolutions.
type Throttle struct {
	mu     sync.Mutex
	quotas map[string]*Quota
}

func NewThrottle() *Throttle {
	return &Throttle{quotas: make(map[string]*Quota)}
}

// For returns the quota of a provider, rebuilding it when its limit changed.
// A non-positive limit means unlimited and yields a nil quota.
func (t *Throttle) For(name string, requestsPerMinute int) *Quota {
	if requestsPerMinute <= 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if q, ok := t.quotas[name]; ok && q.limit == requestsPerMinute {
		return q
	}
	q := &Quota{
		key:   name,
		limit: requestsPerMinute,
		limiter: limiter.New(memory.NewStore(), limiter.Rate{
			Period: time.Minute,
			Limit:  int64(requestsPerMinute),
		}),
	}
	t.quotas[name] = q
	return q
}

// Quota is the outbound request budget of one provider.
type Quota struct {
	key     string
	limit   int
	limiter *limiter.Limiter
}

// Take consumes one request from the budget. A reached quota is ErrProviderUnavailable.
func (q *Quota) Take(ctx context.Context) error {
	if q == nil {
		return nil
	}
	lctx, err := q.limiter.Get(ctx, q.key)
	if err != nil {
		return unavailable("remote", "rate limit check failed: %v", err)
	}
	if lctx.Reached {
		return unavailable("remote", "quota of %d requests per minute reached for %s", lctx.Limit, q.key)
	}
	return nil
}
