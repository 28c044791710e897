// Package controller drives one simulation step at a time: picking the
// critical-path thread, advancing every running thread by the same
// duration, synchronizing on the chosen event, rescheduling, and handling
// approximation-induced deadlock.
package controller

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mariobadr/rhythm/internal/appmodel"
	"github.com/mariobadr/rhythm/internal/archmodel"
	"github.com/mariobadr/rhythm/internal/common"
	"github.com/mariobadr/rhythm/internal/rlog"
	"github.com/mariobadr/rhythm/internal/scheduler"
	"github.com/mariobadr/rhythm/internal/stats"
	"github.com/mariobadr/rhythm/internal/syncmodel"
	"github.com/mariobadr/rhythm/internal/timing"
)

// Controller owns references to the four collaborating models and runs the
// per-step loop described by the simulator's design: critical-path pick,
// advance, stats tick, synchronize, reschedule, deadlock recovery, pop.
type Controller struct {
	arch  *archmodel.Architecture
	sched *scheduler.Scheduler
	sm    *syncmodel.State
	app   *appmodel.Model
	stat  *stats.Statistics
	log   rlog.Logger
}

// New creates a Controller wiring together an already-populated
// architecture, scheduler, synchronization state, application model, and
// statistics accumulator.
func New(arch *archmodel.Architecture, sched *scheduler.Scheduler, sm *syncmodel.State, app *appmodel.Model, stat *stats.Statistics, log rlog.Logger) *Controller {
	if log == nil {
		log = rlog.Nop{}
	}
	return &Controller{arch: arch, sched: sched, sm: sm, app: app, stat: stat, log: log}
}

// Step runs a single iteration and returns the simulated nanoseconds that
// elapsed. It returns a codes.FailedPrecondition status error if the
// deadlock breaker finds no viable recovery.
//
// Precondition: at least one thread is currently running.
func (c *Controller) Step() (uint64, error) {
	running := c.sched.RunningThreads()
	if len(running) == 0 {
		return 0, status.Error(codes.Internal, "controller: Step called with no running threads")
	}

	critical, deltaNs := c.pickCriticalPath(running)

	for _, tid := range running {
		thread := c.app.ThreadOrCreate(tid)
		n := timing.Instructions(deltaNs, c.arch.CPI(c.sched, tid), c.arch.Freq(c.sched, tid))
		thread.Execute(n)
	}

	criticalThread := c.app.ThreadOrCreate(critical)
	event := criticalThread.Peek()
	if event.Distance > 1 {
		return 0, status.Error(codes.Internal,
			fmt.Sprintf("controller: thread %d still has %d instructions before its event", critical, event.Distance))
	}
	if c.log.V(2) {
		c.log.Infof("%s after %d ns", event, deltaNs)
	}

	c.stat.Tick(deltaNs, critical, event, c.sm)

	trans := c.sm.Synchronize(event)
	c.sched.Schedule(trans, c.sm)

	if c.sched.NumRunning() == 0 && len(c.sm.LiveThreads) > 0 {
		recovered, ok := c.sm.BreakDeadlock(critical)
		if !ok {
			return 0, status.Error(codes.FailedPrecondition,
				fmt.Sprintf("controller: fatal deadlock, no live safety-net entry for thread %d", critical))
		}
		c.sched.Schedule(recovered, c.sm)
	}

	criticalThread.PopCurrent()

	return deltaNs, nil
}

// pickCriticalPath finds the running thread whose front event fires
// soonest, returning its Tid and that minimal Δt. Ties are broken by the
// order running already yields (RunningThreads' deterministic ascending
// order), matching first-iteration-order tie-breaking.
func (c *Controller) pickCriticalPath(running []common.Tid) (common.Tid, uint64) {
	var (
		best      common.Tid
		bestDelta uint64
		found     bool
	)

	for _, tid := range running {
		thread := c.app.ThreadOrCreate(tid)
		front := thread.Peek()
		deltaNs := timing.Time(front.Distance, c.arch.CPI(c.sched, tid), c.arch.Freq(c.sched, tid))

		if !found || deltaNs < bestDelta {
			best = tid
			bestDelta = deltaNs
			found = true
		}
	}

	return best, bestDelta
}
