// Package stats accumulates the per-thread timing breakdown a simulation
// run produces, and renders it to the two CSV outputs the driver emits.
package stats

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	"github.com/mariobadr/rhythm/internal/common"
	"github.com/mariobadr/rhythm/internal/syncmodel"
)

// threadStats is the accumulated time breakdown for a single thread.
type threadStats struct {
	runTime    float64
	statusTime map[syncmodel.ThreadStatus]float64
	lastEvent  common.Event
}

func newThreadStats() *threadStats {
	return &threadStats{statusTime: make(map[syncmodel.ThreadStatus]float64)}
}

// waitKey identifies a single thread's accumulated wait time against a
// single synchronization object.
type waitKey struct {
	tid  common.Tid
	addr common.Address
}

// Statistics accumulates run-time, per-status time, and per-(thread,
// object) wait time across every thread in a run.
type Statistics struct {
	threads map[common.Tid]*threadStats

	lockWaitTimes      map[waitKey]float64
	barrierWaitTimes   map[waitKey]float64
	conditionWaitTimes map[waitKey]float64

	totalTime float64
}

// New creates an empty Statistics accumulator.
func New() *Statistics {
	return &Statistics{
		threads:            make(map[common.Tid]*threadStats),
		lockWaitTimes:      make(map[waitKey]float64),
		barrierWaitTimes:   make(map[waitKey]float64),
		conditionWaitTimes: make(map[waitKey]float64),
	}
}

func (s *Statistics) thread(tid common.Tid) *threadStats {
	t, ok := s.threads[tid]
	if !ok {
		t = newThreadStats()
		s.threads[tid] = t
	}
	return t
}

// deltaSeconds converts a duration in nanoseconds to seconds.
func deltaSeconds(deltaNs uint64) float64 {
	return float64(deltaNs) / 1e9
}

// Tick records one step's worth of elapsed time against every live thread,
// per the accumulation rule: every live thread earns run_time and
// status_time for this step; a thread currently Blocked also earns
// object-keyed wait time under its last recorded event. The stepped
// thread's event becomes its new last_event regardless of status.
func (s *Statistics) Tick(deltaNs uint64, stepped common.Tid, event common.Event, sm *syncmodel.State) {
	delta := deltaSeconds(deltaNs)
	s.totalTime += delta

	for tid := range sm.LiveThreads {
		thread := s.thread(tid)
		thread.runTime += delta

		status := sm.Thread(tid).Status
		thread.statusTime[status] += delta

		if status == syncmodel.Blocked {
			s.accrueObjectWait(tid, thread.lastEvent, delta)
		}
	}

	s.thread(stepped).lastEvent = event
}

func (s *Statistics) accrueObjectWait(tid common.Tid, event common.Event, delta float64) {
	key := waitKey{tid: tid, addr: event.Object}
	switch event.Kind {
	case common.LockAcquire:
		s.lockWaitTimes[key] += delta
	case common.BarrierWait:
		s.barrierWaitTimes[key] += delta
	case common.CondWait:
		s.conditionWaitTimes[key] += delta
	}
}

// TotalTime returns the sum of every step's Δt, in seconds.
func (s *Statistics) TotalTime() float64 {
	return s.totalTime
}

var statusOrder = []syncmodel.ThreadStatus{
	syncmodel.Running,
	syncmodel.Runnable,
	syncmodel.Blocked,
	syncmodel.Finished,
	syncmodel.Unknown,
}

func sortedTids(m map[common.Tid]*threadStats) []common.Tid {
	tids := make([]common.Tid, 0, len(m))
	for tid := range m {
		tids = append(tids, tid)
	}
	sort.Slice(tids, func(i, j int) bool { return tids[i] < tids[j] })
	return tids
}

// TimeStackRow is one (thread, status, time) breakdown entry, or a
// (thread, "total", time) summary entry.
type TimeStackRow struct {
	TID    common.Tid `json:"tid"`
	Status string     `json:"status"`
	Time   float64    `json:"time"`
}

// TimeStackRows builds the rows rhythm-time-stacks.csv and the results
// server's JSON endpoint both render, in the same deterministic order.
func (s *Statistics) TimeStackRows() []TimeStackRow {
	var rows []TimeStackRow
	for _, tid := range sortedTids(s.threads) {
		thread := s.threads[tid]
		for _, status := range statusOrder {
			rows = append(rows, TimeStackRow{TID: tid, Status: status.String(), Time: thread.statusTime[status]})
		}
		rows = append(rows, TimeStackRow{TID: tid, Status: "total", Time: thread.runTime})
	}
	return rows
}

// WriteTimeStacks emits rhythm-time-stacks.csv: one row per (tid, status,
// time) plus one (tid, total, time) row per thread.
func (s *Statistics) WriteTimeStacks(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"TID", "status", "time"}); err != nil {
		return err
	}

	for _, row := range s.TimeStackRows() {
		record := []string{fmt.Sprintf("%d", row.TID), row.Status, fmt.Sprintf("%f", row.Time)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SyncStackRow is one (thread, synchronization kind, object address, time)
// wait-time entry.
type SyncStackRow struct {
	TID             common.Tid     `json:"tid"`
	Synchronization string         `json:"synchronization"`
	Address         common.Address `json:"address"`
	Time            float64        `json:"time"`
}

// SyncStackRows builds the rows rhythm-sync-stacks.csv and the results
// server's JSON endpoint both render, in the same deterministic order.
func (s *Statistics) SyncStackRows() []SyncStackRow {
	var rows []SyncStackRow
	rows = append(rows, waitRows("lock", s.lockWaitTimes)...)
	rows = append(rows, waitRows("barrier-wait", s.barrierWaitTimes)...)
	rows = append(rows, waitRows("condition-wait", s.conditionWaitTimes)...)
	return rows
}

// WriteSyncStacks emits rhythm-sync-stacks.csv: one row per (tid,
// synchronization kind, address, time) that actually accumulated wait time.
func (s *Statistics) WriteSyncStacks(w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"TID", "synchronization", "address", "time"}); err != nil {
		return err
	}

	for _, row := range s.SyncStackRows() {
		record := []string{
			fmt.Sprintf("%d", row.TID),
			row.Synchronization,
			fmt.Sprintf("%d", row.Address),
			fmt.Sprintf("%f", row.Time),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func waitRows(kind string, times map[waitKey]float64) []SyncStackRow {
	keys := make([]waitKey, 0, len(times))
	for k := range times {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].tid != keys[j].tid {
			return keys[i].tid < keys[j].tid
		}
		return keys[i].addr < keys[j].addr
	})

	rows := make([]SyncStackRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, SyncStackRow{TID: k.tid, Synchronization: kind, Address: k.addr, Time: times[k]})
	}
	return rows
}

// LockWaitTime returns the accumulated wait time a single thread spent
// blocked on a single lock address, in seconds. Exposed for tests and for
// the results server.
func (s *Statistics) LockWaitTime(tid common.Tid, addr common.Address) float64 {
	return s.lockWaitTimes[waitKey{tid: tid, addr: addr}]
}

// BarrierWaitTime returns the accumulated wait time a single thread spent
// blocked on a single barrier address, in seconds.
func (s *Statistics) BarrierWaitTime(tid common.Tid, addr common.Address) float64 {
	return s.barrierWaitTimes[waitKey{tid: tid, addr: addr}]
}

// ConditionWaitTime returns the accumulated wait time a single thread spent
// blocked on a single condition variable address, in seconds.
func (s *Statistics) ConditionWaitTime(tid common.Tid, addr common.Address) float64 {
	return s.conditionWaitTimes[waitKey{tid: tid, addr: addr}]
}

// RunTime returns a single thread's total accumulated run time, in seconds.
func (s *Statistics) RunTime(tid common.Tid) float64 {
	t, ok := s.threads[tid]
	if !ok {
		return 0
	}
	return t.runTime
}
