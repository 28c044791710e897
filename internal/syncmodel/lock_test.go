package syncmodel

import (
	"testing"

	"github.com/mariobadr/rhythm/internal/common"
)

func newTestState(t *testing.T, tids ...common.Tid) *State {
	t.Helper()
	s := NewState(nil)
	for _, tid := range tids {
		s.AddThread(tid)
	}
	return s
}

func TestLockAcquireReleaseRoundTrip(t *testing.T) {
	s := newTestState(t, 0, 1)
	s.AddLock(100)

	trans := s.Synchronize(common.Event{ThreadID: 0, Kind: common.LockAcquire, Object: 100})
	if len(trans.ToSleep) != 0 {
		t.Fatalf("uncontended acquire should not sleep, got %v", trans)
	}
	if s.Locks[100].HeldBy != 0 {
		t.Fatalf("lock should be held by 0")
	}

	trans = s.Synchronize(common.Event{ThreadID: 0, Kind: common.LockRelease, Object: 100})
	if len(trans.ToWake) != 0 {
		t.Fatalf("release with no waiters should wake nobody, got %v", trans)
	}
	if s.Locks[100].HeldBy != common.InvalidTid {
		t.Fatalf("lock should be free after release with no waiters")
	}
}

func TestLockContentionFIFO(t *testing.T) {
	s := newTestState(t, 0, 1, 2)
	s.AddLock(100)

	s.Synchronize(common.Event{ThreadID: 0, Kind: common.LockAcquire, Object: 100})

	trans1 := s.Synchronize(common.Event{ThreadID: 1, Kind: common.LockAcquire, Object: 100})
	if len(trans1.ToSleep) != 1 || trans1.ToSleep[0] != 1 {
		t.Fatalf("contended acquire by 1 should sleep, got %v", trans1)
	}

	trans2 := s.Synchronize(common.Event{ThreadID: 2, Kind: common.LockAcquire, Object: 100})
	if len(trans2.ToSleep) != 1 || trans2.ToSleep[0] != 2 {
		t.Fatalf("contended acquire by 2 should sleep, got %v", trans2)
	}

	release1 := s.Synchronize(common.Event{ThreadID: 0, Kind: common.LockRelease, Object: 100})
	if len(release1.ToWake) != 1 || release1.ToWake[0] != 1 {
		t.Fatalf("release should wake the oldest waiter (1), got %v", release1)
	}
	if s.Locks[100].HeldBy != 1 {
		t.Fatalf("lock should now be held by 1")
	}

	release2 := s.Synchronize(common.Event{ThreadID: 1, Kind: common.LockRelease, Object: 100})
	if len(release2.ToWake) != 1 || release2.ToWake[0] != 2 {
		t.Fatalf("release should wake the next waiter (2), got %v", release2)
	}
}

func TestLockAutoRegistersOnFirstUse(t *testing.T) {
	s := newTestState(t, 0)
	// No AddLock call: the lock is encountered directly via the event.
	trans := s.Synchronize(common.Event{ThreadID: 0, Kind: common.LockAcquire, Object: 42})
	if len(trans.ToSleep) != 0 {
		t.Fatalf("auto-registered lock should grant immediately, got %v", trans)
	}
	if _, ok := s.Locks[42]; !ok {
		t.Fatal("lock should have been auto-registered")
	}
}

func TestReleaseByNonHolderPanics(t *testing.T) {
	s := newTestState(t, 0, 1)
	s.AddLock(100)
	s.Synchronize(common.Event{ThreadID: 0, Kind: common.LockAcquire, Object: 100})

	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic releasing a lock not held by thread 1")
		}
	}()
	s.Synchronize(common.Event{ThreadID: 1, Kind: common.LockRelease, Object: 100})
}
