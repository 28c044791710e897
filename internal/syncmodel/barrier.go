package syncmodel

import "github.com/mariobadr/rhythm/internal/common"

// barrierWait has the arriving thread join the waiters queue; once the
// threshold is reached, every other waiter wakes
// (the arriving caller itself is left Running — it never sleeps on the
// call that completes the barrier) and the queue is cleared.
func barrierWait(s *State, tid common.Tid, addr common.Address) common.Transition {
	barrier, ok := s.Barriers[addr]
	if !ok {
		panic("syncmodel: barrier_wait on an unregistered barrier")
	}

	barrier.Waiters = append(barrier.Waiters, tid)

	if len(barrier.Waiters) == barrier.Count {
		var t common.Transition
		for _, waiter := range barrier.Waiters {
			if waiter != tid {
				t.ToWake = append(t.ToWake, waiter)
			}
		}
		barrier.Waiters = nil
		return t
	}

	return common.Transition{ToSleep: []common.Tid{tid}}
}
