// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package bus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ManuGH/smartplayer/internal/log"
	"github.com/ManuGH/smartplayer/internal/metrics"
)

// MemoryBus is an in-memory pub/sub. It is not durable and provides
// at-least-once in-process delivery while publish contexts remain active.
type MemoryBus struct {
	mu     sync.RWMutex
	subs   map[string][]*memSub
	buffer int
}

const (
	dropLogEvery  = 100
	defaultBuffer = 64
)

var dropCount atomic.Uint64

func NewMemoryBus() *MemoryBus {
	return NewMemoryBusWithBuffer(defaultBuffer)
}

// NewMemoryBusWithBuffer sets the per-subscriber channel capacity.
func NewMemoryBusWithBuffer(buffer int) *MemoryBus {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &MemoryBus{subs: make(map[string][]*memSub), buffer: buffer}
}

func publishDropReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.DropTimeout
	case errors.Is(err, context.Canceled):
		return metrics.DropCanceled
	default:
		return "context_done"
	}
}

// Publish blocks until every subscriber of topic accepted msg or ctx ends.
func (b *MemoryBus) Publish(ctx context.Context, topic string, msg Message) error {
	if ctx == nil {
		return fmt.Errorf("publish context is nil")
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, s := range b.subs[topic] {
		select {
		case s.ch <- msg:
		case <-s.done:
		case <-ctx.Done():
			reason := publishDropReason(ctx.Err())
			metrics.IncBusDrop(topic, reason)
			count := dropCount.Add(1)
			if count%dropLogEvery == 0 {
				log.L().Warn().
					Str(log.FieldTopic, topic).
					Str("reason", reason).
					Uint64("dropped", count).
					Msg("memory bus failed to publish due to context cancellation")
			}
			return fmt.Errorf("publish topic %q: %w", topic, ctx.Err())
		}
	}
	return nil
}

// Offer delivers msg to every subscriber with free buffer space and drops it
// for the rest. It returns the number of drops.
func (b *MemoryBus) Offer(topic string, msg Message) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	dropped := 0
	for _, s := range b.subs[topic] {
		select {
		case s.ch <- msg:
		default:
			dropped++
			metrics.IncBusDrop(topic, metrics.DropFull)
		}
	}
	return dropped
}

func (b *MemoryBus) Subscribe(_ context.Context, topic string) (Subscriber, error) {
	s := &memSub{
		b:     b,
		topic: topic,
		ch:    make(chan Message, b.buffer),
		done:  make(chan struct{}),
	}

	b.mu.Lock()
	b.subs[topic] = append(b.subs[topic], s)
	b.mu.Unlock()

	return s, nil
}

// Subscribers returns the number of live subscribers of topic.
func (b *MemoryBus) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

type memSub struct {
	b     *MemoryBus
	topic string
	ch    chan Message
	done  chan struct{}
	once  sync.Once
}

func (s *memSub) C() <-chan Message {
	return s.ch
}

func (s *memSub) Close() error {
	s.once.Do(func() {
		// Unblock publishers waiting on this subscriber before taking the write lock.
		close(s.done)

		s.b.mu.Lock()
		defer s.b.mu.Unlock()

		lst := s.b.subs[s.topic]
		out := lst[:0]
		for _, c := range lst {
			if c != s {
				out = append(out, c)
			}
		}
		if len(out) == 0 {
			delete(s.b.subs, s.topic)
		} else {
			s.b.subs[s.topic] = out
		}
		close(s.ch)
	})
	return nil
}

var _ Bus = (*MemoryBus)(nil)
