package viewstate

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestKeyedLocksExcludeSameID(t *testing.T) {
	var locks keyedLocks
	id := uuid.New()

	unlock := locks.lock(id)
	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		locks.lock(id)()
	}()

	select {
	case <-acquired:
		t.Fatal("expected second lock to wait")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	<-acquired

	if n := locks.size(); n != 0 {
		t.Errorf("expected entry dropped, got %d", n)
	}
}

func TestKeyedLocksIndependentIDs(t *testing.T) {
	var locks keyedLocks
	unlockA := locks.lock(uuid.New())
	defer unlockA()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		locks.lock(uuid.New())()
	}()
	wg.Wait()

	if n := locks.size(); n != 1 {
		t.Errorf("expected one held entry, got %d", n)
	}
}
