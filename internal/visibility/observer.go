// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package visibility

import (
	"sync"
)

// Entry is one intersection observation of the widget.
type Entry struct {
	IsIntersecting    bool    `json:"isIntersecting"`
	IntersectionRatio float64 `json:"intersectionRatio"`
}

// Options configures an intersection subscription.
type Options struct {
	Thresholds []float64
	RootMargin string
}

// DefaultOptions are the thresholds and margin the controller subscribes with.
func DefaultOptions() Options {
	return Options{
		Thresholds: []float64{0, 0.1, 0.5, 1.0},
		RootMargin: "0px",
	}
}

// Subscription is a live intersection subscription.
type Subscription interface {
	// Close unsubscribes. Calling it more than once is a no-op.
	Close() error
}

// Observer delivers intersection observations for one target.
type Observer interface {
	Observe(opts Options, fn func([]Entry)) (Subscription, error)
}

// Feed is an Observer whose observations are pushed by the caller, e.g. the
// host API relaying a browser IntersectionObserver.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]feedSub
}

type feedSub struct {
	opts Options
	fn   func([]Entry)
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{subs: make(map[int]feedSub)}
}

var _ Observer = (*Feed)(nil)

func (f *Feed) Observe(opts Options, fn func([]Entry)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = feedSub{opts: opts, fn: fn}
	return &feedSubscription{feed: f, id: id}, nil
}

// Deliver hands entries to every live subscriber and reports how many
// received them.
func (f *Feed) Deliver(entries []Entry) int {
	f.mu.Lock()
	fns := make([]func([]Entry), 0, len(f.subs))
	for _, s := range f.subs {
		fns = append(fns, s.fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn(entries)
	}
	return len(fns)
}

// Active returns the number of live subscriptions.
func (f *Feed) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

// Options returns the options of the live subscriptions.
func (f *Feed) Options() []Options {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Options, 0, len(f.subs))
	for _, s := range f.subs {
		out = append(out, s.opts)
	}
	return out
}

type feedSubscription struct {
	feed *Feed
	id   int
	once sync.Once
}

func (s *feedSubscription) Close() error {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s.id)
		s.feed.mu.Unlock()
	})
	return nil
}
