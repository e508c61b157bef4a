package registry

import "sync"

// Allocator hands out monotonically increasing ids per collection.
// An id is never issued twice, deletes do not give ids back, and explicitly
// supplied ids push the counter past them.
type Allocator struct {
	mu   sync.Mutex
	last map[Collection]ID
}

func NewAllocator() *Allocator {
	return &Allocator{last: make(map[Collection]ID)}
}

// Next returns a fresh id for c.
func (a *Allocator) Next(c Collection) ID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.last[c]++
	return a.last[c]
}

// Observe records an id that was assigned elsewhere (explicit ids, restores).
func (a *Allocator) Observe(c Collection, id ID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id > a.last[c] {
		a.last[c] = id
	}
}
