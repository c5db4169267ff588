// Package procedural generates deterministic synthetic chain history so any
// block index can be served on demand without materializing the chain.
package procedural

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidArgument is returned when a generator is asked for something it
// can't produce, like a negative index or a choice from an empty set.
var ErrInvalidArgument = errors.New("invalid argument")

// Random is a Mulberry32 pseudo-random source. It is NOT suitable for any
// cryptographic use and a value must not be shared between goroutines.
type Random struct {
	seed uint32
}

// NewRandom constructs a Random for the specified seed. The same seed always
// produces the same sequence.
func NewRandom(seed uint32) *Random {
	return &Random{seed: seed}
}

// Next returns the next value in the range [0, 1).
func (r *Random) Next() float64 {
	r.seed += 0x6D2B79F5

	t := r.seed
	t = (t ^ t>>15) * (t | 1)
	t ^= t + (t^t>>7)*(t|61)

	return float64(t^t>>14) / 4294967296
}

// NextInt returns a value in the inclusive range [min, max]. The bounds are
// swapped if max is less than min.
func (r *Random) NextInt(min int, max int) int {
	if max < min {
		min, max = max, min
	}

	return int(math.Floor(r.Next()*float64(max-min+1))) + min
}

// NextFloat returns a value in the range [min, max).
func (r *Random) NextFloat(min float64, max float64) float64 {
	return r.Next()*(max-min) + min
}

// Choice returns a pseudo-random element of the specified slice. No value is
// drawn from the source when the slice is empty.
func Choice[T any](r *Random, s []T) (T, error) {
	if len(s) == 0 {
		var zero T
		return zero, fmt.Errorf("%w: choice from an empty set", ErrInvalidArgument)
	}

	return s[r.NextInt(0, len(s)-1)], nil
}
