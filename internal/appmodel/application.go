// Package appmodel is Rhythm's application model: a per-thread,
// in-order queue of the pending synchronization events a trace recorded,
// each carrying the dynamic instruction distance remaining until it fires.
package appmodel

import (
	"github.com/mariobadr/rhythm/internal/common"
)

// Thread is a single simulated thread's pending event queue. Events are
// only ever appended at the back and consumed from the front, so a
// slice-backed queue with a head index is sufficient (see DESIGN.md).
type Thread struct {
	ID     common.Tid
	events []common.Event
	head   int
}

// NewThread creates an empty thread model for the given Tid.
func NewThread(id common.Tid) *Thread {
	return &Thread{ID: id}
}

// AddEvent appends a recorded event to the thread's queue.
//
// Precondition: event.Kind != common.Unknown.
func (t *Thread) AddEvent(event common.Event) {
	if event.Kind == common.Unknown {
		panic("appmodel: refusing to add an Unknown-kind event")
	}
	t.events = append(t.events, event)
}

// Empty reports whether the thread has no more pending events.
func (t *Thread) Empty() bool {
	return t.head >= len(t.events)
}

// Peek returns the front of the queue without removing it.
//
// Precondition: the queue is non-empty.
func (t *Thread) Peek() common.Event {
	if t.Empty() {
		panic("appmodel: Peek on empty thread queue")
	}
	return t.events[t.head]
}

// PopCurrent drops the front event.
//
// Precondition: the queue is non-empty. Callers should additionally only
// pop once the front event's Distance has reached zero (with up to 1 unit
// of floating-point slack allowed), though this is not enforced here; the
// controller is responsible for that invariant.
func (t *Thread) PopCurrent() {
	if t.Empty() {
		panic("appmodel: PopCurrent on empty thread queue")
	}
	t.head++
	// Release the backing array's head once it's grown enough to matter, so
	// long traces don't keep retired events alive indefinitely.
	if t.head > 1024 && t.head*2 > len(t.events) {
		t.events = append([]common.Event(nil), t.events[t.head:]...)
		t.head = 0
	}
}

// Execute advances the thread by n instructions: if the front event's
// remaining distance is at least n, it is decremented; otherwise it's
// clamped to zero rather than allowed to go negative (instruction
// estimation from elapsed time can overshoot slightly due to floating-point
// rounding; see internal/timing).
func (t *Thread) Execute(n uint64) {
	if t.Empty() {
		panic("appmodel: Execute on empty thread queue")
	}
	front := &t.events[t.head]
	if front.Distance >= n {
		front.Distance -= n
	} else {
		front.Distance = 0
	}
}

// Model is the full application: every thread's event queue, keyed by Tid.
type Model struct {
	Threads map[common.Tid]*Thread
}

// NewModel creates an empty application model.
func NewModel() *Model {
	return &Model{Threads: make(map[common.Tid]*Thread)}
}

// ThreadOrCreate returns the thread model for id, creating an empty one if
// this is the first event seen for that Tid.
func (m *Model) ThreadOrCreate(id common.Tid) *Thread {
	if th, ok := m.Threads[id]; ok {
		return th
	}
	th := NewThread(id)
	m.Threads[id] = th
	return th
}
