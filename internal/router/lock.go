package router

import "sync"

// convLocks serializes turns per conversation id. Turns on different
// conversations run concurrently; two turns on the same conversation are
// applied one at a time so state reads and writes never interleave.
type convLocks struct {
	mu    sync.Mutex
	locks map[string]*convLock
}

type convLock struct {
	mu   sync.Mutex
	refs int
}

func newConvLocks() *convLocks {
	return &convLocks{locks: make(map[string]*convLock)}
}

// Lock acquires the lock for id and returns its unlock function. Entries
// are reference-counted and removed when the last holder releases, so the
// map does not grow with conversation count.
func (c *convLocks) Lock(id string) func() {
	c.mu.Lock()
	l, ok := c.locks[id]
	if !ok {
		l = &convLock{}
		c.locks[id] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, id)
		}
		c.mu.Unlock()
	}
}
