package syncmodel

import (
	"testing"

	"github.com/mariobadr/rhythm/internal/common"
)

func TestBarrierReleasesAtThreshold(t *testing.T) {
	s := newTestState(t, 0, 1, 2)
	s.AddBarrier(200, 3)

	trans0 := s.Synchronize(common.Event{ThreadID: 0, Kind: common.BarrierWait, Object: 200})
	if len(trans0.ToSleep) != 1 || trans0.ToSleep[0] != 0 {
		t.Fatalf("first arrival should sleep, got %v", trans0)
	}

	trans1 := s.Synchronize(common.Event{ThreadID: 1, Kind: common.BarrierWait, Object: 200})
	if len(trans1.ToSleep) != 1 || trans1.ToSleep[0] != 1 {
		t.Fatalf("second arrival should sleep, got %v", trans1)
	}

	trans2 := s.Synchronize(common.Event{ThreadID: 2, Kind: common.BarrierWait, Object: 200})
	if len(trans2.ToSleep) != 0 {
		t.Fatalf("the arrival that completes the barrier should not sleep, got %v", trans2)
	}
	if len(trans2.ToWake) != 2 {
		t.Fatalf("completing arrival should wake the other two waiters, got %v", trans2)
	}

	woken := map[common.Tid]bool{trans2.ToWake[0]: true, trans2.ToWake[1]: true}
	if !woken[0] || !woken[1] {
		t.Fatalf("expected threads 0 and 1 to be woken, got %v", trans2.ToWake)
	}

	if len(s.Barriers[200].Waiters) != 0 {
		t.Fatal("barrier waiters should be cleared after release")
	}
}

func TestBarrierReusable(t *testing.T) {
	s := newTestState(t, 0, 1)
	s.AddBarrier(200, 2)

	s.Synchronize(common.Event{ThreadID: 0, Kind: common.BarrierWait, Object: 200})
	s.Synchronize(common.Event{ThreadID: 1, Kind: common.BarrierWait, Object: 200})

	// A second round at the same barrier address should behave identically.
	trans0 := s.Synchronize(common.Event{ThreadID: 0, Kind: common.BarrierWait, Object: 200})
	if len(trans0.ToSleep) != 1 {
		t.Fatalf("first arrival of second round should sleep, got %v", trans0)
	}
	trans1 := s.Synchronize(common.Event{ThreadID: 1, Kind: common.BarrierWait, Object: 200})
	if len(trans1.ToWake) != 1 || trans1.ToWake[0] != 0 {
		t.Fatalf("second round should release thread 0 again, got %v", trans1)
	}
}

func TestBarrierUnregisteredPanics(t *testing.T) {
	s := newTestState(t, 0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic on an unregistered barrier")
		}
	}()
	s.Synchronize(common.Event{ThreadID: 0, Kind: common.BarrierWait, Object: 999})
}
