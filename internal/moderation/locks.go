package moderation

import "sync"

// TargetLocks serialises moderation decisions per report target. Review,
// batch review, and auto-moderation on the same target must run one at a
// time so the "has this target already been actioned" check and the action
// itself form one critical section.
type TargetLocks struct {
	mu    sync.Mutex
	locks map[string]*targetLock
}

type targetLock struct {
	mu   sync.Mutex
	refs int
}

// NewTargetLocks constructs an empty lock registry.
func NewTargetLocks() *TargetLocks {
	return &TargetLocks{locks: make(map[string]*targetLock)}
}

// Lock acquires the mutex for the supplied target key and returns the release
// function. Entries are reference counted and removed once unused, so the
// registry does not grow with the number of distinct targets ever seen.
func (l *TargetLocks) Lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &targetLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()

			l.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(l.locks, key)
			}
			l.mu.Unlock()
		})
	}
}
