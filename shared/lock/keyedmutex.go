package lock

import (
	"slices"
	"sync"
)

// KeyedMutex provides mutual exclusion scoped to a string key. Two Lock
// calls with the same key serialize; calls with different keys proceed
// concurrently. Entries are reference counted and removed once the last
// holder unlocks, so the key space never grows unboundedly.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: map[string]*entry{},
	}
}

func (k *KeyedMutex) Lock(key string) {
	k.mu.Lock()

	e, ok := k.entries[key]
	if !ok {
		e = &entry{}
		k.entries[key] = e
	}

	e.refs++

	k.mu.Unlock()

	e.mu.Lock()
}

func (k *KeyedMutex) Unlock(key string) {
	k.mu.Lock()

	e, ok := k.entries[key]
	if !ok {
		k.mu.Unlock()

		panic("lock: unlock of unheld key " + key)
	}

	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}

	k.mu.Unlock()

	e.mu.Unlock()
}

// LockKeys locks every given key in sorted order, so that two callers
// locking overlapping key sets cannot deadlock. Duplicate keys are
// locked once.
func (k *KeyedMutex) LockKeys(keys ...string) (unlock func()) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	for _, key := range sorted {
		k.Lock(key)
	}

	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			k.Unlock(sorted[i])
		}
	}
}
