// Package syncmodel is Rhythm's synchronization model: the
// state machines for locks, barriers, and condition variables, thread
// lifecycle tracking, and the Synchronize dispatcher that turns one trace
// event into a Transition the scheduler applies.
package syncmodel

import (
	"github.com/mariobadr/rhythm/internal/common"
	"github.com/mariobadr/rhythm/internal/rlog"
)

// ThreadStatus mirrors the kernel-level state of a simulated thread.
type ThreadStatus int

const (
	Unknown ThreadStatus = iota
	Runnable
	Running
	Blocked
	Finished
)

func (s ThreadStatus) String() string {
	switch s {
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

// KernelThread is the synchronization-level view of a thread: its status,
// the locks it currently holds, and its safety net of substitute events
// used to recover from approximation-induced deadlock.
type KernelThread struct {
	ID         common.Tid
	Status     ThreadStatus
	LocksHeld  map[common.Address]bool
	SafetyNet  []safetyNetEntry // insertion-ordered, keyed by target consumer Tid
}

type safetyNetEntry struct {
	Consumer common.Tid
	Event    common.Event
}

func newKernelThread(id common.Tid) *KernelThread {
	return &KernelThread{ID: id, LocksHeld: make(map[common.Address]bool)}
}

// Lock is the state of a single mutex/rwlock/spinlock.
type Lock struct {
	HeldBy  common.Tid
	Waiters []common.Tid
}

// Barrier is the state of a single barrier: the arrival threshold and the
// threads currently waiting at it.
type Barrier struct {
	Count   int
	Waiters []common.Tid
}

// CondVar is the state of a single condition variable, including the
// counters that approximate application-level production the simulator
// cannot otherwise observe directly.
type CondVar struct {
	Signallers    map[common.Tid]bool
	Broadcasters  map[common.Tid]bool
	Consumers     map[common.Tid]bool
	SignalCount   uint64
	BroadcastCount uint64
	// Production is a saturating counter of pending wakeups not yet
	// consumed by a wait, capped at len(Consumers).
	Production     uint64
	Waiters        []common.Tid
	Mutexes        []common.Address // parallel to Waiters
	LastBroadcaster common.Tid
}

func newCondVar() *CondVar {
	return &CondVar{
		Signallers:      make(map[common.Tid]bool),
		Broadcasters:    make(map[common.Tid]bool),
		Consumers:       make(map[common.Tid]bool),
		LastBroadcaster: common.InvalidTid,
	}
}

// State is the full synchronization model: every thread, lock, barrier, and
// condition variable registered so far, plus the live/finished/blocked
// thread sets and the join dependency queue.
type State struct {
	log rlog.Logger

	Threads map[common.Tid]*KernelThread

	LiveThreads     map[common.Tid]bool
	FinishedThreads map[common.Tid]bool
	BlockedThreads  map[common.Tid]bool

	Barriers          map[common.Address]*Barrier
	ConditionVariables map[common.Address]*CondVar
	Locks             map[common.Address]*Lock

	// JoinQueue maps a target thread to the single waiter blocked on its
	// completion.
	JoinQueue map[common.Tid]common.Tid

	warnedMissingLock    map[common.Address]bool
	warnedMissingCondVar map[common.Address]bool
}

// NewState creates an empty synchronization model.
func NewState(log rlog.Logger) *State {
	if log == nil {
		log = rlog.Nop{}
	}
	return &State{
		log:                  log,
		Threads:              make(map[common.Tid]*KernelThread),
		LiveThreads:          make(map[common.Tid]bool),
		FinishedThreads:      make(map[common.Tid]bool),
		BlockedThreads:       make(map[common.Tid]bool),
		Barriers:             make(map[common.Address]*Barrier),
		ConditionVariables:   make(map[common.Address]*CondVar),
		Locks:                make(map[common.Address]*Lock),
		JoinQueue:            make(map[common.Tid]common.Tid),
		warnedMissingLock:    make(map[common.Address]bool),
		warnedMissingCondVar: make(map[common.Address]bool),
	}
}

// AddThread registers a new kernel thread, initially Unknown status.
//
// Precondition: id has not already been registered.
func (s *State) AddThread(id common.Tid) {
	if _, exists := s.Threads[id]; exists {
		panic("syncmodel: thread already registered")
	}
	s.Threads[id] = newKernelThread(id)
}

// Thread returns the kernel thread for id.
//
// Precondition: id has been registered via AddThread.
func (s *State) Thread(id common.Tid) *KernelThread {
	th, ok := s.Threads[id]
	if !ok {
		panic("syncmodel: unregistered thread")
	}
	return th
}

// AddBarrier registers a barrier with the given arrival threshold. A second
// registration at the same address replaces the prior state rather than
// rejecting a live re-init.
func (s *State) AddBarrier(addr common.Address, count int) {
	s.Barriers[addr] = &Barrier{Count: count}
}

// AddLock registers an empty (unheld) lock.
func (s *State) AddLock(addr common.Address) {
	s.Locks[addr] = &Lock{HeldBy: common.InvalidTid}
}

// AddConditionVariable registers a fresh condition variable.
func (s *State) AddConditionVariable(addr common.Address) {
	s.ConditionVariables[addr] = newCondVar()
}

// lockOrAutoRegister returns the lock at addr, auto-registering (and
// warning once) if a trace skipped its init call.
func (s *State) lockOrAutoRegister(addr common.Address) *Lock {
	if l, ok := s.Locks[addr]; ok {
		return l
	}
	if !s.warnedMissingLock[addr] {
		s.log.Warningf("encountered a lock that was not initialized: %d", addr)
		s.warnedMissingLock[addr] = true
	}
	s.AddLock(addr)
	return s.Locks[addr]
}

// condVarOrAutoRegister returns the condition variable at addr,
// auto-registering (and warning once) if a trace skipped its init call.
func (s *State) condVarOrAutoRegister(addr common.Address) *CondVar {
	if cv, ok := s.ConditionVariables[addr]; ok {
		return cv
	}
	if !s.warnedMissingCondVar[addr] {
		s.log.Warningf("encountered a condition variable that was not initialized: %d", addr)
		s.warnedMissingCondVar[addr] = true
	}
	s.AddConditionVariable(addr)
	return s.ConditionVariables[addr]
}
