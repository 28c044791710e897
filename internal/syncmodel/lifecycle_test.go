package syncmodel

import (
	"testing"

	"github.com/mariobadr/rhythm/internal/common"
)

func TestThreadCreateWakesTarget(t *testing.T) {
	s := newTestState(t, 0, 1)

	trans := s.Synchronize(common.Event{ThreadID: 0, Kind: common.ThreadCreate, TargetThread: 1})
	if len(trans.ToWake) != 1 || trans.ToWake[0] != 1 {
		t.Fatalf("create should wake the target, got %v", trans)
	}
	if s.Thread(1).Status != Runnable {
		t.Fatal("target thread should become runnable")
	}
}

func TestThreadStartMarksLive(t *testing.T) {
	s := newTestState(t, 1)
	s.Synchronize(common.Event{ThreadID: 1, Kind: common.ThreadStart})
	if !s.LiveThreads[1] {
		t.Fatal("thread should be live after start")
	}
}

func TestJoinBlocksUntilFinish(t *testing.T) {
	s := newTestState(t, 0, 1)
	s.Synchronize(common.Event{ThreadID: 1, Kind: common.ThreadStart})

	joinTrans := s.Synchronize(common.Event{ThreadID: 0, Kind: common.ThreadJoin, TargetThread: 1})
	if len(joinTrans.ToSleep) != 1 || joinTrans.ToSleep[0] != 0 {
		t.Fatalf("joiner should sleep while target is live, got %v", joinTrans)
	}

	finishTrans := s.Synchronize(common.Event{ThreadID: 1, Kind: common.ThreadFinish})
	if len(finishTrans.ToWake) != 1 || finishTrans.ToWake[0] != 0 {
		t.Fatalf("finish should wake the joiner, got %v", finishTrans)
	}
	if len(finishTrans.ToKill) != 1 || finishTrans.ToKill[0] != 1 {
		t.Fatalf("finish should kill the finishing thread, got %v", finishTrans)
	}
}

func TestJoinOnAlreadyFinishedIsNoop(t *testing.T) {
	s := newTestState(t, 0, 1)
	s.Synchronize(common.Event{ThreadID: 1, Kind: common.ThreadStart})
	s.Synchronize(common.Event{ThreadID: 1, Kind: common.ThreadFinish})

	joinTrans := s.Synchronize(common.Event{ThreadID: 0, Kind: common.ThreadJoin, TargetThread: 1})
	if len(joinTrans.ToSleep) != 0 {
		t.Fatalf("joining an already-finished thread should not sleep, got %v", joinTrans)
	}
}

func TestFinishWhileHoldingLockReleasesIt(t *testing.T) {
	s := newTestState(t, 0, 1)
	s.AddLock(100)
	s.Synchronize(common.Event{ThreadID: 0, Kind: common.LockAcquire, Object: 100})

	waiterTrans := s.Synchronize(common.Event{ThreadID: 1, Kind: common.LockAcquire, Object: 100})
	if len(waiterTrans.ToSleep) != 1 {
		t.Fatalf("thread 1 should block on the held lock, got %v", waiterTrans)
	}

	finishTrans := s.Synchronize(common.Event{ThreadID: 0, Kind: common.ThreadFinish})
	found := false
	for _, tid := range finishTrans.ToWake {
		if tid == 1 {
			found = true
		}
	}
	if !found {
		t.Fatalf("finishing while holding a lock should wake the waiter, got %v", finishTrans)
	}
	if s.Locks[100].HeldBy != 1 {
		t.Fatal("lock should have transferred to the waiter")
	}
}
