package viewstate

import (
	"sync"

	"github.com/google/uuid"
)

// keyedLocks hands out one mutex per id. Entries live only while someone
// holds or waits on them. The zero value is ready to use.
type keyedLocks struct {
	mu sync.Mutex
	m  map[uuid.UUID]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedLocks) lock(id uuid.UUID) func() {
	k.mu.Lock()
	if k.m == nil {
		k.m = map[uuid.UUID]*keyedLock{}
	}
	l, ok := k.m[id]
	if !ok {
		l = &keyedLock{}
		k.m[id] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.m, id)
		}
		k.mu.Unlock()
	}
}

func (k *keyedLocks) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.m)
}
