package bridge

import (
	"sort"
	"sync"
)

// Tracker keeps the keys of operations that are still waiting for the
// partner. It holds keys only, never the operations themselves.
type Tracker struct {
	mu       sync.Mutex
	nextID   uint64
	inflight map[uint64]string
	onChange func(inflight int)
}

// NewTracker creates an empty tracker. onChange, when set, is called with the
// new in-flight count after every change.
func NewTracker(onChange func(inflight int)) *Tracker {
	return &Tracker{
		inflight: make(map[uint64]string),
		onChange: onChange,
	}
}

func (t *Tracker) add(key string) uint64 {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.inflight[id] = key
	t.notify(len(t.inflight))
	t.mu.Unlock()
	return id
}

func (t *Tracker) remove(id uint64) {
	t.mu.Lock()
	if _, ok := t.inflight[id]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.inflight, id)
	t.notify(len(t.inflight))
	t.mu.Unlock()
}

// notify runs under t.mu so counts reach onChange in order. onChange must not
// call back into the tracker.
func (t *Tracker) notify(n int) {
	if t.onChange != nil {
		t.onChange(n)
	}
}

// Len returns the number of in-flight operations.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// Keys returns the sorted correlation keys of in-flight operations. A key
// appears once per operation using it.
func (t *Tracker) Keys() []string {
	t.mu.Lock()
	keys := make([]string, 0, len(t.inflight))
	for _, key := range t.inflight {
		keys = append(keys, key)
	}
	t.mu.Unlock()

	sort.Strings(keys)
	return keys
}
