// Package pacing holds the unconditional delays inserted between network steps.
package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Policy computes the pauses of a run.
type Policy interface {
	AfterSearch() time.Duration
	BetweenPages() time.Duration
}

// Range is an inclusive-exclusive duration interval.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// RandomPolicy draws each pause uniformly from its range.
type RandomPolicy struct {
	Search Range
	Pages  Range

	mu  sync.Mutex
	rnd *rand.Rand
}

// DefaultPolicy pauses 2–3s after the search and 1–3s between pages.
func DefaultPolicy() *RandomPolicy {
	return NewRandomPolicy(
		Range{Min: 2 * time.Second, Max: 3 * time.Second},
		Range{Min: time.Second, Max: 3 * time.Second},
		nil,
	)
}

// NewRandomPolicy builds a policy; a nil rnd uses a time-seeded source.
func NewRandomPolicy(search, pages Range, rnd *rand.Rand) *RandomPolicy {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RandomPolicy{Search: search, Pages: pages, rnd: rnd}
}

func (p *RandomPolicy) AfterSearch() time.Duration { return p.pick(p.Search) }
func (p *RandomPolicy) BetweenPages() time.Duration { return p.pick(p.Pages) }

func (p *RandomPolicy) pick(r Range) time.Duration {
	span := r.Max - r.Min
	if span <= 0 {
		return r.Min
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return r.Min + time.Duration(p.rnd.Int63n(int64(span)))
}

// Fixed returns the same pauses every time.
type Fixed struct {
	Search time.Duration
	Pages  time.Duration
}

func (f Fixed) AfterSearch() time.Duration  { return f.Search }
func (f Fixed) BetweenPages() time.Duration { return f.Pages }

// Wait blocks for d or until ctx is done.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
