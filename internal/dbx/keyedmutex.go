package dbx

import "sync"

// KeyedMutex hands out one mutex per key, creating them on demand. Used to
// serialize multi-step writes per owner without a global lock.
type KeyedMutex struct {
	m sync.Map // key -> *sync.Mutex
}

// Get returns the mutex for key, allocating it on first use. The same key
// always yields the same mutex.
func (k *KeyedMutex) Get(key string) *sync.Mutex {
	v, _ := k.m.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}
