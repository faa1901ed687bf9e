// Package store provides SessionStore implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/promotion-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory sessions with TTL
// =============================================================================

type Memory[T any] struct {
	mu       sync.RWMutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[generic.SessionID]entry[T]
}

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Option configures a Memory store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// NewMemory creates a store whose sessions live for ttl after Put.
func NewMemory[T any](ttl time.Duration, opts ...Option) *Memory[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Memory[T]{
		ttl:      ttl,
		now:      o.now,
		sessions: make(map[generic.SessionID]entry[T]),
	}
}

var _ generic.SessionStore[int] = (*Memory[int])(nil)

// Put stores v under a new random id.
func (m *Memory[T]) Put(_ context.Context, v T) (generic.SessionID, error) {
	id := generic.SessionID(uuid.NewString())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = entry[T]{value: v, expiresAt: m.now().Add(m.ttl)}
	return id, nil
}

func (m *Memory[T]) Get(_ context.Context, id generic.SessionID) (T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok || !m.now().Before(e.expiresAt) {
		var zero T
		return zero, generic.ErrSessionNotFound
	}
	return e.value, nil
}

func (m *Memory[T]) Delete(_ context.Context, id generic.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return generic.ErrSessionNotFound
	}
	delete(m.sessions, id)
	if !m.now().Before(e.expiresAt) {
		return generic.ErrSessionNotFound
	}
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *Memory[T]) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for id, e := range m.sessions {
		if !now.Before(e.expiresAt) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored sessions, expired or not.
func (m *Memory[T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Memory[T]) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
