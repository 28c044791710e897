package syncmodel

import (
	"testing"

	"github.com/mariobadr/rhythm/internal/common"
)

func TestSynchronizeTracksBlockedThreads(t *testing.T) {
	s := newTestState(t, 0, 1)
	s.AddLock(100)

	s.Synchronize(common.Event{ThreadID: 0, Kind: common.LockAcquire, Object: 100})
	s.Synchronize(common.Event{ThreadID: 1, Kind: common.LockAcquire, Object: 100})
	if !s.BlockedThreads[1] {
		t.Fatal("thread 1 should be recorded as blocked after sleeping on the lock")
	}

	s.Synchronize(common.Event{ThreadID: 0, Kind: common.LockRelease, Object: 100})
	if s.BlockedThreads[1] {
		t.Fatal("thread 1 should no longer be blocked once woken")
	}
}

func TestSynchronizeUnknownKindWarnsWithoutPanic(t *testing.T) {
	s := newTestState(t, 0)
	trans := s.Synchronize(common.Event{ThreadID: 0, Kind: common.Unknown})
	if len(trans.ToSleep) != 0 || len(trans.ToWake) != 0 || len(trans.ToKill) != 0 {
		t.Fatalf("an unknown event kind should produce an empty transition, got %v", trans)
	}
}

func TestSynchronizeKillRemovesFromBlocked(t *testing.T) {
	s := newTestState(t, 0, 1)
	s.Synchronize(common.Event{ThreadID: 1, Kind: common.ThreadStart})

	joinTrans := s.Synchronize(common.Event{ThreadID: 0, Kind: common.ThreadJoin, TargetThread: 1})
	if len(joinTrans.ToSleep) != 1 {
		t.Fatalf("joiner should block, got %v", joinTrans)
	}
	if !s.BlockedThreads[0] {
		t.Fatal("joiner should be tracked as blocked")
	}

	finishTrans := s.Synchronize(common.Event{ThreadID: 1, Kind: common.ThreadFinish})
	if len(finishTrans.ToKill) != 1 || finishTrans.ToKill[0] != 1 {
		t.Fatalf("finish should kill thread 1, got %v", finishTrans)
	}
	if s.BlockedThreads[1] {
		t.Fatal("a killed thread should not remain in BlockedThreads")
	}
	if s.BlockedThreads[0] {
		t.Fatal("the joiner woken by finish should no longer be blocked")
	}
}
