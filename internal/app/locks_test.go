package app

import (
	"sync"
	"testing"
	"time"
)

func TestRoomLocksSerializeAndRelease(t *testing.T) {
	locks := newRoomLocks()

	release := locks.lock("r1")
	acquired := make(chan struct{})
	go func() {
		defer close(acquired)
		locks.lock("r1")()
	}()

	// A different room is never blocked.
	locks.lock("r2")()

	select {
	case <-acquired:
		t.Fatalf("second holder acquired r1 while it was held")
	case <-time.After(20 * time.Millisecond):
	}
	release()
	<-acquired

	locks.mu.Lock()
	defer locks.mu.Unlock()
	if len(locks.locks) != 0 {
		t.Fatalf("expected idle locks to be dropped, got %d", len(locks.locks))
	}
}

func TestRoomLocksCounter(t *testing.T) {
	locks := newRoomLocks()
	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := locks.lock("r")
			counter++
			release()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("expected 50 increments, got %d", counter)
	}
}
