package util

import (
	"context"
	"math/rand"
	"time"

	"golang.org/x/time/rate"
)

// Pacer bounds the request rate against the scraped service and adds a random
// extra delay so fetches don't land on a fixed cadence.
type Pacer struct {
	lim      *rate.Limiter
	minExtra time.Duration
	maxExtra time.Duration
}

func NewPacer(reqPerSec float64, burst int, minExtra, maxExtra time.Duration) *Pacer {
	if maxExtra < minExtra {
		maxExtra = minExtra
	}
	return &Pacer{
		lim:      rate.NewLimiter(rate.Limit(reqPerSec), burst),
		minExtra: minExtra,
		maxExtra: maxExtra,
	}
}

// Wait blocks until the next request is allowed, then sleeps the jitter.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := p.lim.Wait(ctx); err != nil {
		return err
	}
	extra := p.minExtra
	if span := p.maxExtra - p.minExtra; span > 0 {
		extra += time.Duration(rand.Int63n(int64(span)))
	}
	if extra <= 0 {
		return nil
	}
	t := time.NewTimer(extra)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
