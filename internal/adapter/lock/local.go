// Package lock provides usecase.Locker implementations. Both acquire keys in
// sorted order and release them in reverse, so any two callers that share a
// key are serialized and callers with disjoint keys never wait on each other.
package lock

import (
	"context"
	"sort"
	"sync"

	"github.com/iho/finledger/internal/domain"
)

// Local is an in-process Locker built from one-slot channel semaphores.
// A slot lives only while someone holds or waits for it.
type Local struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

// NewLocal creates a new Local locker.
func NewLocal() *Local {
	return &Local{slots: make(map[string]*slot)}
}

// Acquire locks every key or none. It gives up when ctx is done and returns a
// Timeout error, releasing whatever it already held.
func (l *Local) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = normalize(keys)

	if err := ctx.Err(); err != nil {
		return nil, domain.Errorf(domain.Timeout, "%w: %v", domain.ErrLockTimeout, err)
	}

	held := make([]string, 0, len(keys))
	for _, key := range keys {
		if err := l.lock(ctx, key); err != nil {
			l.release(held)
			return nil, domain.Errorf(domain.Timeout, "%w: %s: %v", domain.ErrLockTimeout, key, err)
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(func() { l.release(held) }) }, nil
}

func (l *Local) lock(ctx context.Context, key string) error {
	s := l.ref(key)

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.unref(key)
		return ctx.Err()
	}
}

// release unlocks keys in reverse acquisition order.
func (l *Local) release(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.mu.Lock()
		s := l.slots[keys[i]]
		l.mu.Unlock()

		<-s.ch
		l.unref(keys[i])
	}
}

func (l *Local) ref(key string) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++

	return s
}

func (l *Local) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.slots[key]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// size reports how many keys are held or awaited.
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.slots)
}

func normalize(keys []string) []string {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	out := make([]string, 0, len(sorted))
	for i, k := range sorted {
		if k == "" || (i > 0 && k == sorted[i-1]) {
			continue
		}
		out = append(out, k)
	}

	return out
}
