package syncmodel

import "github.com/mariobadr/rhythm/internal/common"

// UpdateConditionVariable runs a pre-scan pass: it
// is invoked once per condition-variable event during trace ingestion
// (before the event ever reaches Synchronize at simulation time), and
// builds both the signaller/broadcaster/consumer sets used by can-wait
// liveness checks and each producer's safety net of substitute events used
// to recover from approximation-induced deadlock.
func (s *State) UpdateConditionVariable(event common.Event) {
	cv := s.condVarOrAutoRegister(event.Object)

	switch event.Kind {
	case common.CondWait:
		cv.Consumers[event.ThreadID] = true
	case common.CondSignal:
		cv.Signallers[event.ThreadID] = true
		cv.SignalCount++
		s.updateSafetyNet(s.Thread(event.ThreadID), event, cv.Consumers)
	case common.CondBroadcast:
		cv.Broadcasters[event.ThreadID] = true
		cv.BroadcastCount++
		s.updateSafetyNet(s.Thread(event.ThreadID), event, cv.Consumers)
	default:
		panic("syncmodel: UpdateConditionVariable called with a non-cv event kind")
	}
}

// updateSafetyNet records, for each existing consumer, a substitute event
// that replays this production on that consumer's behalf — the mechanism
// break_deadlock uses to recover liveness when the simulator's
// counter-based approximation of application state causes every consumer
// to block despite a real producer being alive.
func (s *State) updateSafetyNet(producer *KernelThread, event common.Event, consumers map[common.Tid]bool) {
	for consumer := range consumers {
		silent := common.Event{
			ThreadID: producer.ID,
			Kind:     event.Kind,
			Object:   event.Object,
		}
		producer.SafetyNet = append(producer.SafetyNet, safetyNetEntry{Consumer: consumer, Event: silent})
	}
}

// liveSubset returns the Tids in ids that are currently live.
func (s *State) liveSubset(ids map[common.Tid]bool) map[common.Tid]bool {
	out := make(map[common.Tid]bool)
	for tid := range ids {
		if s.LiveThreads[tid] {
			out[tid] = true
		}
	}
	return out
}

// canWait reports whether a waiter may actually block: only if some live
// producer other than itself exists, and at least
// one pre-scanned signal or broadcast has not yet been performed.
func canWait(s *State, cv *CondVar, tid common.Tid) bool {
	liveBroadcasters := s.liveSubset(cv.Broadcasters)
	liveSignallers := s.liveSubset(cv.Signallers)
	delete(liveBroadcasters, tid)
	delete(liveSignallers, tid)

	if len(liveBroadcasters) == 0 && len(liveSignallers) == 0 {
		return false
	}
	if cv.BroadcastCount == 0 && cv.SignalCount == 0 {
		return false
	}
	return true
}

// conditionWait implements condition_wait semantics.
func conditionWait(s *State, tid common.Tid, addr, mutex common.Address) common.Transition {
	cv := s.condVarOrAutoRegister(addr)

	if cv.Production > 0 {
		cv.Production--
		return common.Transition{}
	}

	if !canWait(s, cv, tid) {
		return common.Transition{}
	}

	cv.Waiters = append(cv.Waiters, tid)
	cv.Mutexes = append(cv.Mutexes, mutex)

	t := release(s, tid, mutex)
	t.ToSleep = append(t.ToSleep, tid)
	return t
}

// conditionSignal implements condition_signal semantics.
func conditionSignal(s *State, addr common.Address) common.Transition {
	cv, ok := s.ConditionVariables[addr]
	if !ok {
		panic("syncmodel: condition_signal on an unregistered condition variable")
	}

	var t common.Transition
	if len(cv.Consumers) == 0 {
		return t
	}

	if cv.SignalCount == 0 {
		panic("syncmodel: signal_count underflow")
	}
	cv.SignalCount--

	if len(cv.Waiters) == 0 {
		cv.Production = saturatingIncrement(cv.Production, len(cv.Consumers))
	} else {
		waiter := cv.Waiters[0]
		mutex := cv.Mutexes[0]
		cv.Waiters = cv.Waiters[1:]
		cv.Mutexes = cv.Mutexes[1:]

		checkAcquire := acquire(s, waiter, mutex)
		if !acquireBlocked(checkAcquire, waiter) {
			t.ToWake = append(t.ToWake, waiter)
		}
	}

	if cv.SignalCount == 0 {
		flushRemainingWaiters(s, cv)
	}

	return t
}

// conditionBroadcast implements condition_broadcast semantics.
func conditionBroadcast(s *State, tid common.Tid, addr common.Address) common.Transition {
	cv, ok := s.ConditionVariables[addr]
	if !ok {
		panic("syncmodel: condition_broadcast on an unregistered condition variable")
	}

	var t common.Transition
	if len(cv.Consumers) == 0 {
		return t
	}

	if cv.BroadcastCount == 0 {
		panic("syncmodel: broadcast_count underflow")
	}
	cv.BroadcastCount--
	cv.LastBroadcaster = tid

	liveConsumers := s.liveSubset(cv.Consumers)
	if len(liveConsumers) < len(cv.Waiters) {
		panic("syncmodel: more cv waiters than live consumers")
	}
	productionEstimate := len(liveConsumers) - len(cv.Waiters)
	cv.Production = saturatingIncrementBy(cv.Production, productionEstimate, len(cv.Consumers))

	if len(cv.Waiters) > 0 {
		priority := cv.Waiters[0]
		mutex := cv.Mutexes[0]
		cv.Waiters = cv.Waiters[1:]
		cv.Mutexes = cv.Mutexes[1:]

		checkAcquire := acquire(s, priority, mutex)
		if !acquireBlocked(checkAcquire, priority) {
			t.ToWake = append(t.ToWake, priority)
		}

		flushRemainingWaiters(s, cv)
	}

	return t
}

// flushRemainingWaiters drains any waiters still parallel-queued in
// cv.Waiters/cv.Mutexes by attempting to acquire each one's mutex. This
// reproduces a deliberately preserved oddity: the returned transitions
// from these acquire calls
// are discarded, so a waiter left blocked on its mutex here gains no
// scheduler wake from this flush — it depends on a later, ordinary
// lock-release to eventually free it. This is replicated deliberately, not
// corrected.
func flushRemainingWaiters(s *State, cv *CondVar) {
	if len(cv.Waiters) != len(cv.Mutexes) {
		panic("syncmodel: cv waiters/mutexes length mismatch")
	}
	for i := range cv.Waiters {
		acquire(s, cv.Waiters[i], cv.Mutexes[i])
	}
	cv.Waiters = nil
	cv.Mutexes = nil
}

func saturatingIncrement(production uint64, cap int) uint64 {
	return saturatingIncrementBy(production, 1, cap)
}

func saturatingIncrementBy(production uint64, delta int, cap int) uint64 {
	next := production + uint64(delta)
	if next > uint64(cap) {
		return uint64(cap)
	}
	return next
}
