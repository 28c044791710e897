package syncmodel

import "github.com/mariobadr/rhythm/internal/common"

// acquire grants the lock immediately if free, otherwise enqueues the
// caller as a waiter and puts it
// to sleep. Returns the Transition the caller must apply; as a side
// effect, toSleep reports (via the returned transition) whether the
// acquire actually blocked, which condvar.go needs to distinguish a
// successful re-acquire from a blocked one.
func acquire(s *State, tid common.Tid, addr common.Address) common.Transition {
	lock := s.lockOrAutoRegister(addr)

	if lock.HeldBy == common.InvalidTid {
		grantLock(s, tid, addr, lock)
		return common.Transition{}
	}

	lock.Waiters = append(lock.Waiters, tid)
	return common.Transition{ToSleep: []common.Tid{tid}}
}

func grantLock(s *State, tid common.Tid, addr common.Address, lock *Lock) {
	lock.HeldBy = tid
	s.Thread(tid).LocksHeld[addr] = true
}

// release hands the lock to the oldest waiter (FIFO), or marks it free if
// none are waiting.
//
// Precondition: lock.HeldBy == tid.
func release(s *State, tid common.Tid, addr common.Address) common.Transition {
	lock, ok := s.Locks[addr]
	if !ok {
		panic("syncmodel: release of an unregistered lock")
	}
	if lock.HeldBy != tid {
		panic("syncmodel: release by a thread that does not hold the lock")
	}

	delete(s.Thread(tid).LocksHeld, addr)

	if len(lock.Waiters) == 0 {
		lock.HeldBy = common.InvalidTid
		return common.Transition{}
	}

	next := lock.Waiters[0]
	lock.Waiters = lock.Waiters[1:]
	grantLock(s, next, addr, lock)

	return common.Transition{ToWake: []common.Tid{next}}
}

// acquireBlocked reports whether a Transition returned by acquire actually
// put the given thread to sleep (used by the condition-variable logic to
// tell a successful re-acquire from a blocked one without duplicating
// acquire's lock-state mutation).
func acquireBlocked(t common.Transition, tid common.Tid) bool {
	for _, waiting := range t.ToSleep {
		if waiting == tid {
			return true
		}
	}
	return false
}
