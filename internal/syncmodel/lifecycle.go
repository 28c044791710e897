package syncmodel

import "github.com/mariobadr/rhythm/internal/common"

// threadCreate implements create semantics, driven
// by the parent: the target thread (pre-registered during trace ingestion)
// becomes runnable.
func threadCreate(s *State, target common.Tid) common.Transition {
	s.Thread(target).Status = Runnable
	return common.Transition{ToWake: []common.Tid{target}}
}

// threadStart implements start semantics, driven by
// the thread itself: it becomes live. No scheduling change results — the
// thread is already running (it just dispatched onto a core to reach this
// event).
func threadStart(s *State, self common.Tid) common.Transition {
	s.LiveThreads[self] = true
	return common.Transition{}
}

// threadJoin implements join semantics: if the
// target has already finished, joining is a no-op; otherwise the current
// thread sleeps until the target's ThreadFinish wakes it.
func threadJoin(s *State, current, target common.Tid) common.Transition {
	if s.FinishedThreads[target] {
		return common.Transition{}
	}

	s.JoinQueue[target] = current
	return common.Transition{ToSleep: []common.Tid{current}}
}

// threadFinish wakes any
// joiner waiting on this thread, synthesize a release for every lock still
// held (with a warning — a thread should normally release before
// finishing), and retire the thread.
func threadFinish(s *State, self common.Tid) common.Transition {
	var t common.Transition

	if waiter, ok := s.JoinQueue[self]; ok {
		t.ToWake = append(t.ToWake, waiter)
		delete(s.JoinQueue, self)
	}

	thread := s.Thread(self)
	for addr := range thread.LocksHeld {
		s.log.Warningf("thread %d finished while holding a lock (%d)", self, addr)
		t.Merge(release(s, self, addr))
	}

	s.FinishedThreads[self] = true
	thread.Status = Finished
	delete(s.LiveThreads, self)

	t.ToKill = append(t.ToKill, self)
	return t
}
