// Package archmodel is Rhythm's architecture/system model: the
// set of core types (each with per-thread CPI rates and available
// frequency levels) and the ordered list of physical cores built from them.
//
// Cores refer to their type by a small integer index into the
// Architecture's own CoreTypes slice rather than holding a pointer/reference
// to it, so that Architecture can be copied or held by value without
// aliasing concerns.
package archmodel

import (
	"github.com/mariobadr/rhythm/internal/common"
)

// CoreType describes a kind of core available in the architecture: the CPI
// rate it runs each thread at, and the frequency levels it can operate at.
type CoreType struct {
	Name        string
	CPIRates    map[common.Tid]float64
	Frequencies []int64 // Frequencies[0] is a core's initial frequency.
}

// Core is one physical or virtual core in the architecture.
type Core struct {
	TypeIndex int   // index into Architecture.CoreTypes
	Frequency int64 // the frequency this core currently runs at
}

// Architecture is a multicore system: a catalog of core types, and the
// ordered list of cores built from them.
type Architecture struct {
	CoreTypes     []CoreType
	coreTypeIndex map[string]int
	Cores         []Core
}

// New creates an empty architecture ready to have core types and cores
// added to it.
func New() *Architecture {
	return &Architecture{coreTypeIndex: make(map[string]int)}
}

// AddCoreType registers a new core type under the given name, returning its
// index. Re-registering the same name overwrites the previous definition,
// analogous to how synchronization objects tolerate a live re-init.
func (a *Architecture) AddCoreType(name string, ct CoreType) int {
	ct.Name = name
	if idx, ok := a.coreTypeIndex[name]; ok {
		a.CoreTypes[idx] = ct
		return idx
	}
	idx := len(a.CoreTypes)
	a.CoreTypes = append(a.CoreTypes, ct)
	a.coreTypeIndex[name] = idx
	return idx
}

// AddCore appends a new core of the named type, whose initial frequency is
// that type's first frequency level.
//
// Precondition: typeName must have been registered with AddCoreType.
func (a *Architecture) AddCore(typeName string) {
	idx, ok := a.coreTypeIndex[typeName]
	if !ok {
		panic("archmodel: unknown core type " + typeName)
	}
	ct := a.CoreTypes[idx]
	if len(ct.Frequencies) == 0 {
		panic("archmodel: core type " + typeName + " has no frequency levels")
	}
	a.Cores = append(a.Cores, Core{TypeIndex: idx, Frequency: ct.Frequencies[0]})
}

// CoreMapping is the minimal interface archmodel needs from the scheduler:
// which core index a running thread is mapped onto. internal/scheduler
// implements this.
type CoreMapping interface {
	CoreIndex(tid common.Tid) (int, bool)
}

// Core returns the core a running thread is mapped onto.
//
// Precondition: tid is currently mapped to a core (i.e. running).
func (a *Architecture) Core(mapping CoreMapping, tid common.Tid) Core {
	idx, ok := mapping.CoreIndex(tid)
	if !ok {
		panic("archmodel: no core mapping for running thread")
	}
	return a.Cores[idx]
}

// CPI returns the CPI rate a running thread executes at, given the core
// type it is mapped onto. A missing rate entry is a configuration/programmer
// error, not a recoverable condition.
func (a *Architecture) CPI(mapping CoreMapping, tid common.Tid) float64 {
	core := a.Core(mapping, tid)
	rate, ok := a.CoreTypes[core.TypeIndex].CPIRates[tid]
	if !ok {
		panic("archmodel: no CPI rate configured for thread on this core type")
	}
	return rate
}

// Freq returns the frequency of the core a running thread is mapped onto.
func (a *Architecture) Freq(mapping CoreMapping, tid common.Tid) int64 {
	return a.Core(mapping, tid).Frequency
}
