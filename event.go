// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shieldsim

import "strconv"

// Time is the logical time of the simulation, in microseconds elapsed since
// startup. It is monotonic non-decreasing across all observed events.
//
type Time uint64

// Millisecond and Second are convenience multipliers for Time values.
//
const (
	Millisecond Time = 1000
	Second      Time = 1000 * Millisecond
)

// Digital pin levels and modes. Undefined marks a pin value or mode that has
// not been established yet.
//
const (
	Low  = 0
	High = 1

	Input  = 0
	Output = 1

	Undefined = -1
)

// A PinState records one change of the value of a pin, either written by the
// tested program or received as input.
//
type PinState struct {
	Pin   uint8
	Value int
}

func (s PinState) String() string {
	return strconv.Itoa(int(s.Pin)) + ":" + strconv.Itoa(s.Value)
}

// An Event is a value stamped with the logical time at which it was
// observed.
//
type Event[V any] struct {
	Time  Time
	Value V
}
