package syncmodel

import "github.com/mariobadr/rhythm/internal/common"

// Synchronize is the single dispatcher: given the
// event a thread is currently stalled on, it mutates the state and returns
// the Transition the scheduler must apply. Dispatch is an exhaustive switch
// over the closed Kind enum, not dynamic dispatch.
func (s *State) Synchronize(event common.Event) common.Transition {
	var t common.Transition

	switch event.Kind {
	case common.ThreadCreate:
		t = threadCreate(s, event.TargetThread)
	case common.ThreadStart:
		t = threadStart(s, event.ThreadID)
	case common.ThreadJoin:
		t = threadJoin(s, event.ThreadID, event.TargetThread)
	case common.ThreadFinish:
		t = threadFinish(s, event.ThreadID)
	case common.LockAcquire:
		t = acquire(s, event.ThreadID, event.Object)
	case common.LockRelease:
		t = release(s, event.ThreadID, event.Object)
	case common.BarrierWait:
		t = barrierWait(s, event.ThreadID, event.Object)
	case common.CondBroadcast:
		t = conditionBroadcast(s, event.ThreadID, event.Object)
	case common.CondSignal:
		t = conditionSignal(s, event.Object)
	case common.CondWait:
		t = conditionWait(s, event.ThreadID, event.Object, event.Object2)
	default:
		s.log.Warningf("unknown synchronization event for thread %d", event.ThreadID)
	}

	for _, tid := range t.ToSleep {
		s.BlockedThreads[tid] = true
	}
	for _, tid := range t.ToWake {
		delete(s.BlockedThreads, tid)
	}
	for _, tid := range t.ToKill {
		delete(s.BlockedThreads, tid)
	}

	return t
}

// BreakDeadlock handles the case where a step leaves no thread
// running while threads remain live, the approximation (production/
// signal_count/broadcast_count counters standing in for real application
// state) may have caused an artificial deadlock. The last thread to have
// been running is asked for the first still-live entry in its safety net
// (insertion order), and that substitute event is replayed through
// Synchronize. If no such entry exists, this is a genuine deadlock and a
// fatal error is raised by the caller (internal/controller).
func (s *State) BreakDeadlock(lastRunning common.Tid) (common.Transition, bool) {
	thread := s.Thread(lastRunning)

	for _, entry := range thread.SafetyNet {
		if s.LiveThreads[entry.Consumer] {
			return s.Synchronize(entry.Event), true
		}
	}

	return common.Transition{}, false
}
