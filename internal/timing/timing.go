// Package timing converts between dynamic instruction counts and wall-clock
// nanoseconds, given a thread's CPI rate and the frequency of the core it is
// running on. See original_source/src/common.hpp's estimate_time and
// estimate_instructions, which this package replicates exactly.
package timing

import "math"

// Time converts an instruction count to elapsed nanoseconds, rounding up so
// that any positive instruction count advances time by at least one
// nanosecond.
func Time(instructions uint64, cpi float64, freqHz int64) uint64 {
	cycles := float64(instructions) * cpi

	return uint64(math.Ceil(1e9 * cycles / float64(freqHz)))
}

// Instructions converts an elapsed nanosecond duration back to an
// instruction count, rounding down. Because of the inverse rounding
// direction from Time, repeated round-tripping can make the estimate
// slightly larger than the true remaining distance; callers must clamp to
// zero rather than let the subtraction go negative (see
// internal/appmodel.Thread.Execute).
func Instructions(elapsedNs uint64, cpi float64, freqHz int64) uint64 {
	cycles := float64(elapsedNs) * float64(freqHz) * 1e-9

	return uint64(cycles / cpi)
}
