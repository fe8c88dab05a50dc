package mailbox

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces IMAP commands with one token bucket per command kind
// (search, fetch, move, select).
type Limiter struct {
	mu sync.Mutex
	m  map[string]*rate.Limiter
	r  rate.Limit
	b  int
}

// NewLimiter returns a limiter allowing perSec commands of each kind per
// second. perSec <= 0 disables limiting.
func NewLimiter(perSec float64, burst int) *Limiter {
	r := rate.Limit(perSec)
	if perSec <= 0 {
		r = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{m: make(map[string]*rate.Limiter), r: r, b: burst}
}

func (l *Limiter) limiterFor(kind string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lim, ok := l.m[kind]; ok {
		return lim
	}
	lim := rate.NewLimiter(l.r, l.b)
	l.m[kind] = lim
	return lim
}

func (l *Limiter) Wait(ctx context.Context, kind string) error {
	if l == nil {
		return ctx.Err()
	}
	return l.limiterFor(kind).Wait(ctx)
}
