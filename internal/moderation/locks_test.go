package moderation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTargetLocksSerialiseSameTarget(t *testing.T) {
	locks := NewTargetLocks()

	const workers = 16
	var counter, max int
	var track sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("recipe:abc")
			defer unlock()

			track.Lock()
			counter++
			if counter > max {
				max = counter
			}
			track.Unlock()

			track.Lock()
			counter--
			track.Unlock()
		}()
	}
	wg.Wait()

	require.Equal(t, 1, max, "at most one holder per target at a time")
}

func TestTargetLocksIndependentTargets(t *testing.T) {
	locks := NewTargetLocks()

	unlockA := locks.Lock("recipe:a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("user:b")
		unlockB()
		close(done)
	}()

	<-done // a different target must not block
}

func TestTargetLocksCleanUpEntries(t *testing.T) {
	locks := NewTargetLocks()

	unlock := locks.Lock("recipe:gone")
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	require.Empty(t, locks.locks)
}

func TestTargetLocksUnlockIsIdempotent(t *testing.T) {
	locks := NewTargetLocks()

	unlock := locks.Lock("recipe:x")
	unlock()
	unlock() // second call must be a no-op, not a panic

	again := locks.Lock("recipe:x")
	again()
}
