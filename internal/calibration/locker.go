package calibration

import (
	"context"
	"sync"
	"time"
)

// keyedLocker serialises writers per registry id. Waiting is bounded so a
// stuck writer surfaces as Conflict instead of piling up requests.
type keyedLocker struct {
	mu    sync.Mutex
	slots map[int64]*lockSlot
}

type lockSlot struct {
	sem  chan struct{}
	refs int
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{slots: make(map[int64]*lockSlot)}
}

// Lock acquires the lock for key, waiting at most timeout.
func (l *keyedLocker) Lock(ctx context.Context, key int64, timeout time.Duration) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{sem: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case slot.sem <- struct{}{}:
	case <-timer.C:
		l.release(key, slot)
		return nil, newError(KindConflict, "instrument %d is being modified by another request", key)
	case <-ctx.Done():
		l.release(key, slot)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-slot.sem
			l.release(key, slot)
		})
	}, nil
}

func (l *keyedLocker) release(key int64, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
