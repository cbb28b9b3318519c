package agg

import "math"

// Scale is the fixed-point multiplier applied to secrets before rounding to
// integers, spec.md §6's "Fixed-point scale: 10⁴".
const Scale = 10000.0

// ToFixedPoint rounds secret*Scale to the nearest integer and returns its
// bit pattern as an unsigned 32-bit accumulator value, so that subsequent
// mask addition/subtraction wraps modulo 2^32 exactly as spec.md §4.2's
// "signed 32-bit modular addition" requires, without relying on the host
// language's default integer widening (§9).
func ToFixedPoint(secret float64) uint32 {
	return uint32(int32(math.Round(secret * Scale)))
}

// FromFixedPoint reinterprets an accumulator value as a signed 32-bit
// integer and divides out the fixed-point scale and survivor count,
// producing the aggregator's final mean (spec.md §4.3's final step).
func FromFixedPoint(acc uint32, survivors int) float64 {
	return float64(int32(acc)) / Scale / float64(survivors)
}
