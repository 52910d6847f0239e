package service

import (
	"sync"
	"testing"
)

func TestKeyedLocksSerializePerKey(t *testing.T) {
	locks := NewKeyedLocks()

	const workers = 16
	const rounds = 50

	var counter int
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				locks.Lock("conv-1")
				counter++
				locks.Unlock("conv-1")
			}
		}()
	}
	wg.Wait()

	if counter != workers*rounds {
		t.Fatalf("counter = %d, want %d", counter, workers*rounds)
	}
}

func TestKeyedLocksIndependentKeys(t *testing.T) {
	locks := NewKeyedLocks()

	locks.Lock("conv-1")

	acquired := make(chan struct{})
	go func() {
		locks.Lock("conv-2")
		close(acquired)
		locks.Unlock("conv-2")
	}()

	// A different key must not wait on conv-1.
	<-acquired
	locks.Unlock("conv-1")
}

func TestKeyedLocksEntriesAreReleased(t *testing.T) {
	locks := NewKeyedLocks()

	locks.Lock("conv-1")
	locks.Unlock("conv-1")

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Fatalf("lock table holds %d stale entries", len(locks.locks))
	}
}
