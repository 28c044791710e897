// Package scheduler is Rhythm's scheduler: it tracks which
// threads are running, runnable, blocked, or finished, assigns runnable
// threads to idle cores in strict FIFO order, and exposes the
// thread-to-core mapping that internal/archmodel needs to resolve a
// thread's CPI and frequency.
package scheduler

import (
	"github.com/mariobadr/rhythm/internal/common"
	"github.com/mariobadr/rhythm/internal/syncmodel"
)

// Scheduler holds the live scheduling state: the set of running threads,
// the FIFO queue of runnable-but-undispatched threads, the thread->core
// mapping, and the FIFO queue of idle core indices.
type Scheduler struct {
	running   map[common.Tid]bool
	runnable  []common.Tid
	mapping   map[common.Tid]int
	idleCores []int
}

// New creates a scheduler with numCores idle cores and nothing running.
func New(numCores int) *Scheduler {
	s := &Scheduler{
		running: make(map[common.Tid]bool),
		mapping: make(map[common.Tid]int),
	}
	for i := 0; i < numCores; i++ {
		s.idleCores = append(s.idleCores, i)
	}
	return s
}

// CoreIndex returns the core index a running thread is mapped to. It
// implements archmodel.CoreMapping.
func (s *Scheduler) CoreIndex(tid common.Tid) (int, bool) {
	idx, ok := s.mapping[tid]
	return idx, ok
}

// Running reports whether tid is currently assigned to a core.
func (s *Scheduler) Running(tid common.Tid) bool {
	return s.running[tid]
}

// RunningThreads returns the current set of running Tids. The returned
// slice is a fresh copy in deterministic ascending order so that callers
// (notably the controller's critical-path selection) iterate
// deterministically given deterministic input.
func (s *Scheduler) RunningThreads() []common.Tid {
	out := make([]common.Tid, 0, len(s.running))
	for tid := range s.running {
		out = append(out, tid)
	}
	sortTids(out)
	return out
}

func sortTids(tids []common.Tid) {
	for i := 1; i < len(tids); i++ {
		for j := i; j > 0 && tids[j-1] > tids[j]; j-- {
			tids[j-1], tids[j] = tids[j], tids[j-1]
		}
	}
}

// NumRunning returns how many threads are currently running.
func (s *Scheduler) NumRunning() int {
	return len(s.running)
}

// NumIdleCores returns how many cores are currently idle.
func (s *Scheduler) NumIdleCores() int {
	return len(s.idleCores)
}

// BootstrapMaster forces the master thread directly onto core 0, bypassing
// the normal runnable->dispatch path (mirrors
// original_source/src/rhythm.cpp's create_master_thread, which does the
// same direct assignment rather than routing the master thread through a
// ThreadCreate transition).
//
// Precondition: at least one idle core exists, and this is called exactly
// once, before any step() call.
func (s *Scheduler) BootstrapMaster(tid common.Tid) {
	if len(s.idleCores) == 0 {
		panic("scheduler: no cores available to bootstrap the master thread")
	}
	core := s.idleCores[0]
	s.idleCores = s.idleCores[1:]
	s.mapping[tid] = core
	s.running[tid] = true
}

// Schedule applies a transition returned by the synchronization model:
// first every wake, then every sleep, then every kill, and finally
// dispatches idle cores to runnable threads in strict FIFO order. Waking
// before sleeping/killing matters for the rare case where a transition both
// wakes and sleeps/kills within the same call: applying sleep/kill first could
// transiently violate |running| <= |cores| when a just-woken thread hasn't
// yet been dispatched to the core a concurrent sleep/kill is about to free.
//
// sm's KernelThread.Status is kept in lock-step with these transitions
// (Runnable on wake, Blocked on sleep, Running on dispatch) since it is the
// classification internal/stats keys its accumulation off of; a kill leaves
// Status untouched because internal/syncmodel already set it to Finished
// before returning the transition that kills the thread.
func (s *Scheduler) Schedule(t common.Transition, sm *syncmodel.State) {
	for _, tid := range t.ToWake {
		if s.running[tid] {
			panic("scheduler: cannot wake a thread that is already running")
		}
		s.runnable = append(s.runnable, tid)
		sm.Thread(tid).Status = syncmodel.Runnable
	}

	for _, tid := range t.ToSleep {
		s.sleep(tid)
		sm.Thread(tid).Status = syncmodel.Blocked
	}

	for _, tid := range t.ToKill {
		s.kill(tid)
	}

	s.dispatch(sm)
}

func (s *Scheduler) sleep(tid common.Tid) {
	if !s.running[tid] {
		panic("scheduler: cannot sleep a thread that is not running")
	}
	delete(s.running, tid)
	s.freeCore(tid)
}

func (s *Scheduler) kill(tid common.Tid) {
	if !s.running[tid] {
		panic("scheduler: cannot kill a thread that is not running")
	}
	delete(s.running, tid)
	s.freeCore(tid)
}

func (s *Scheduler) freeCore(tid common.Tid) {
	core, ok := s.mapping[tid]
	if !ok {
		panic("scheduler: thread has no core mapping to free")
	}
	delete(s.mapping, tid)
	s.idleCores = append(s.idleCores, core)
}

func (s *Scheduler) dispatch(sm *syncmodel.State) {
	for len(s.idleCores) > 0 && len(s.runnable) > 0 {
		core := s.idleCores[0]
		s.idleCores = s.idleCores[1:]
		tid := s.runnable[0]
		s.runnable = s.runnable[1:]

		s.mapping[tid] = core
		s.running[tid] = true
		sm.Thread(tid).Status = syncmodel.Running
	}
}
