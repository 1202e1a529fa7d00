package app

import "sync"

// keyedMutex serializes all posting decisions for a given obligation, closing
// the check-then-insert race between the periodic tick, ad-hoc triggers and
// reminder actions. The storage-level unique index remains the authoritative
// guard; this lock keeps the cache update ordered with the insert it belongs
// to. Mutexes are never released from the map: the obligation set is small
// and long-lived.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[int64]*sync.Mutex)}
}

// lock acquires the mutex for the key and returns its unlock func.
func (k *keyedMutex) lock(key int64) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
