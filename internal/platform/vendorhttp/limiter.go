package vendorhttp

import (
	"sync"

	"golang.org/x/time/rate"
)

// LimiterPool hands out one token bucket per key so that every adapter built
// for the same platform credentials shares the outbound budget.
type LimiterPool struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// NewLimiterPool returns nil when perSecond is not positive, which disables limiting.
func NewLimiterPool(perSecond float64, burst int) *LimiterPool {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return &LimiterPool{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: map[string]*rate.Limiter{},
	}
}

func (p *LimiterPool) Get(key string) *rate.Limiter {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	limiter, ok := p.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(p.limit, p.burst)
		p.limiters[key] = limiter
	}
	return limiter
}
