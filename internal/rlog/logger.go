// Package rlog defines the logging abstraction threaded through Rhythm's
// simulation components. Unlike the original C++ program's pair of
// process-wide spdlog loggers ("log" and "rhythm-trace"), no component below
// cmd/rhythm reaches for a package-level logger: every constructor that logs
// takes a Logger explicitly.
package rlog

// Logger is the minimal surface the simulation engine needs. V reports
// whether verbose logging at the given level is enabled, gating the
// per-step controller trace line the way the original's #ifndef NDEBUG
// build flag gated its debug log.
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	V(level int) bool
}

// Nop discards everything. Useful in tests that don't care about log output.
type Nop struct{}

func (Nop) Infof(string, ...interface{})    {}
func (Nop) Warningf(string, ...interface{}) {}
func (Nop) Errorf(string, ...interface{})   {}
func (Nop) V(int) bool                      { return false }
