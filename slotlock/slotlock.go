// Package slotlock serializes check-and-reserve on a single booking slot.
package slotlock

import (
	"context"
	"fmt"
	"sync"
)

// Locker grants exclusive access to a key until the returned release runs.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// SlotKey names a table slot: table number, date and time of day.
func SlotKey(tableNumber int, date, timeOfDay string) string {
	return fmt.Sprintf("slot:%d:%s:%s", tableNumber, date, timeOfDay)
}

// LocalLocker is an in-process keyed mutex. It only protects a single
// instance; use RedisLocker when several replicas share a database.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: make(map[string]*slot)}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	s, ok := l.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[key] = s
	}
	s.refs++
	l.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			l.unref(key, s)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, s *slot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(l.slots, key)
	}
}

// held reports how many callers hold or wait on key.
func (l *LocalLocker) held(key string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.slots[key]; ok {
		return s.refs
	}
	return 0
}
