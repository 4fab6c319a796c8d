package middleware

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// idleLimiterTTL is how long an unused tenant limiter is kept.
const idleLimiterTTL = 10 * time.Minute

// TenantRateLimiter keeps one token bucket per tenant.
type TenantRateLimiter struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	limiters  map[string]*tenantLimiter
	lastSweep time.Time
	now       func() time.Time
}

type tenantLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewTenantRateLimiter allows rps questions per second per tenant with the
// given burst. A non-positive rps returns nil, which allows everything.
func NewTenantRateLimiter(rps float64, burst int) *TenantRateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &TenantRateLimiter{
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*tenantLimiter),
		now:      time.Now,
	}
}

// Allow reports whether tenantID may ask another question now.
func (l *TenantRateLimiter) Allow(tenantID string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweep(now)

	tl, ok := l.limiters[tenantID]
	if !ok {
		tl = &tenantLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[tenantID] = tl
	}
	tl.lastSeen = now
	return tl.limiter.AllowN(now, 1)
}

// sweep drops idle limiters at most once per TTL. Caller holds mu.
func (l *TenantRateLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < idleLimiterTTL {
		return
	}
	l.lastSweep = now
	for tenant, tl := range l.limiters {
		if now.Sub(tl.lastSeen) > idleLimiterTTL {
			delete(l.limiters, tenant)
		}
	}
}

// Len returns the number of tracked tenants.
func (l *TenantRateLimiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}
