package session

import "sync"

// Locker hands out one mutex per user id. Entries are dropped once nobody holds or waits on them.
type Locker struct {
	mu    sync.Mutex
	locks map[int64]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// NewLocker returns an empty Locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[int64]*userLock)}
}

// Lock blocks until the caller owns userID and returns the matching unlock func.
func (l *Locker) Lock(userID int64) func() {
	l.mu.Lock()
	ul, ok := l.locks[userID]
	if !ok {
		ul = &userLock{}
		l.locks[userID] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ul.mu.Unlock()
			l.mu.Lock()
			ul.refs--
			if ul.refs == 0 {
				delete(l.locks, userID)
			}
			l.mu.Unlock()
		})
	}
}

// Len reports how many users currently hold or wait for a lock.
func (l *Locker) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
