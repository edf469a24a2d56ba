package otp

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/loanmesh/core"
)

// Throttle limits how often a code may be sent to the same phone. Checks are
// passed through unchanged.
type Throttle struct {
	next     core.CodeProvider
	every    time.Duration
	burst    int
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ core.CodeProvider = (*Throttle)(nil)

// NewThrottle wraps next allowing burst sends per phone, refilled once per
// every.
func NewThrottle(next core.CodeProvider, every time.Duration, burst int) *Throttle {
	if burst < 1 {
		burst = 1
	}
	return &Throttle{next: next, every: every, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

// SendCode implements core.CodeProvider. It returns core.ErrCodeThrottled
// when the phone exceeded its allowance.
func (t *Throttle) SendCode(ctx context.Context, phone string) (core.CodeDelivery, error) {
	if !t.limiter(phone).Allow() {
		return core.CodeDelivery{}, core.ErrCodeThrottled
	}
	if t.next == nil {
		return core.CodeDelivery{}, core.ErrProviderUnavailable
	}
	return t.next.SendCode(ctx, phone)
}

// CheckCode implements core.CodeProvider.
func (t *Throttle) CheckCode(ctx context.Context, phone, code string) (core.CodeCheck, error) {
	if t.next == nil {
		return core.CodeCheck{}, core.ErrProviderUnavailable
	}
	return t.next.CheckCode(ctx, phone, code)
}

func (t *Throttle) limiter(phone string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()
	l, ok := t.limiters[phone]
	if !ok {
		limit := rate.Inf
		if t.every > 0 {
			limit = rate.Every(t.every)
		}
		l = rate.NewLimiter(limit, t.burst)
		t.limiters[phone] = l
	}
	return l
}
