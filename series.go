// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shieldsim

import (
	"math"

	"github.com/pkg/errors"
)

// A Range is a half-open interval [Start, End) of time series indices.
//
type Range struct {
	Start, End int
}

// NewRange returns a Range, swapping the bounds if given in reverse order.
//
func NewRange(start, end int) Range {
	if start > end {
		start, end = end, start
	}
	return Range{Start: start, End: end}
}

// Length returns the number of indices covered by the range.
//
func (r Range) Length() int { return r.End - r.Start }

// IsEmpty reports whether the range covers no indices.
//
func (r Range) IsEmpty() bool { return r.Length() == 0 }

// Overlap reports whether r and o share at least one index.
//
func (r Range) Overlap(o Range) bool {
	return r.Start < o.End && r.End > o.Start
}

// A TimeSeries is an append-only log of timed events with strictly
// non-decreasing times. It implements Consumer: events flowing in are
// recorded and passed along, which lets a series sit at the end of a filter
// chain and collect the reconstructed trace. It additionally offers the
// analytical queries used by behavioral assertions.
//
type TimeSeries[V any] struct {
	Hub[V]
	last   Time
	events []Event[V]
	eq     func(a, b V) bool
}

// NewTimeSeries returns an empty series for a comparable value type.
//
func NewTimeSeries[V comparable]() *TimeSeries[V] {
	return NewTimeSeriesFunc[V](func(a, b V) bool { return a == b })
}

// NewTimeSeriesFunc returns an empty series using eq as the value equality
// for the analytical queries. Use it for value types that are not
// comparable, like bitvec.Array.
//
func NewTimeSeriesFunc[V any](eq func(a, b V) bool) *TimeSeries[V] {
	return &TimeSeries[V]{eq: eq}
}

// Len returns the number of recorded events.
//
func (s *TimeSeries[V]) Len() int { return len(s.events) }

// IsEmpty reports whether the series holds no events.
//
func (s *TimeSeries[V]) IsEmpty() bool { return len(s.events) == 0 }

// At returns the i-th event. It panics if i is out of range.
//
func (s *TimeSeries[V]) At(i int) Event[V] { return s.events[i] }

// Front returns the first event. It panics on an empty series.
//
func (s *TimeSeries[V]) Front() Event[V] { return s.events[0] }

// Back returns the last event. It panics on an empty series.
//
func (s *TimeSeries[V]) Back() Event[V] { return s.events[len(s.events)-1] }

// FullRange returns the index range covering the whole series.
//
func (s *TimeSeries[V]) FullRange() Range { return Range{0, len(s.events)} }

// LastTime returns the series' causality watermark: the time of the most
// recent event or notification.
//
func (s *TimeSeries[V]) LastTime() Time { return s.last }

// AddEvent implements Consumer. The event is recorded and forwarded.
//
func (s *TimeSeries[V]) AddEvent(t Time, v V) error {
	if t < s.last || (len(s.events) > 0 && s.events[len(s.events)-1].Time > t) {
		return errCausality
	}
	s.events = append(s.events, Event[V]{Time: t, Value: v})
	if err := s.Emit(t, v); err != nil {
		return err
	}
	s.last = t
	return nil
}

// AdvanceTime implements Consumer.
//
func (s *TimeSeries[V]) AdvanceTime(t Time) error {
	if t < s.last {
		return errCausality
	}
	if err := s.Advance(t); err != nil {
		return err
	}
	s.last = t
	return nil
}

// Clear implements Consumer. Recorded events are dropped; the time
// watermark is kept.
//
func (s *TimeSeries[V]) Clear() {
	s.events = s.events[:0]
	s.ClearNext()
}

// InsertRaw inserts an event without the append-only restriction, bubbling
// it toward the front until total order is restored. The event is neither
// forwarded nor causality checked; it returns the index the event settled
// at.
//
func (s *TimeSeries[V]) InsertRaw(t Time, v V) int {
	s.events = append(s.events, Event[V]{Time: t, Value: v})
	i := len(s.events) - 1
	for i > 0 && s.events[i-1].Time > s.events[i].Time {
		s.events[i-1], s.events[i] = s.events[i], s.events[i-1]
		i--
	}
	return i
}

// clamp crops r to the series bounds.
//
func (s *TimeSeries[V]) clamp(r Range) Range {
	if r.End > len(s.events) {
		r.End = len(s.events)
	}
	if r.Start > r.End {
		r.Start = r.End
	}
	return r
}

// DeltasMean returns the arithmetic mean of the time deltas between
// subsequent events in the given index range. Ranges shorter than two
// events yield zero.
//
func (s *TimeSeries[V]) DeltasMean(r Range) float64 {
	r = s.clamp(r)
	if r.Length() < 2 {
		return 0
	}
	deltas := s.events[r.End-1].Time - s.events[r.Start].Time
	return float64(deltas) / float64(r.Length()-1)
}

// DeltasVariance returns the population variance of the time deltas between
// subsequent events in the given index range.
//
func (s *TimeSeries[V]) DeltasVariance(r Range) float64 {
	r = s.clamp(r)
	if r.Length() < 2 {
		return 0
	}
	var deltas, squares Time
	last := s.events[r.Start].Time
	for i := r.Start + 1; i < r.End; i++ {
		dt := s.events[i].Time - last
		deltas += dt
		squares += dt * dt
		last = s.events[i].Time
	}
	count := float64(r.Length() - 1)
	mean := float64(deltas) / count
	return float64(squares)/count - mean*mean
}

// DeltasDeviation returns the population standard deviation of the time
// deltas between subsequent events in the given index range.
//
func (s *TimeSeries[V]) DeltasDeviation(r Range) float64 {
	return math.Sqrt(s.DeltasVariance(r))
}

// FindSubsequence finds the first occurrence of needle as a contiguous run
// of event values. If no full match exists, it returns the earliest range
// holding the longest matching prefix; an empty range means not even the
// first value occurs. An empty needle is an error.
//
func (s *TimeSeries[V]) FindSubsequence(needle []V) (Range, error) {
	if len(needle) == 0 {
		return Range{}, errors.New("empty sequence given as needle for search")
	}
	var best Range
	for start := 0; start < len(s.events)-best.Length(); start++ {
		n := 0
		for n < len(needle) && start+n < len(s.events) && s.eq(needle[n], s.events[start+n].Value) {
			n++
		}
		if n > best.Length() {
			best = Range{start, start + n}
		}
	}
	return best, nil
}

// FindRepetitiveSubsequence finds the longest contiguous range composed of
// whole, consecutive copies of needle, returning the earliest such range of
// maximum length. An empty needle is an error.
//
func (s *TimeSeries[V]) FindRepetitiveSubsequence(needle []V) (Range, error) {
	if len(needle) == 0 {
		return Range{}, errors.New("empty sequence given as needle for search")
	}
	if len(needle) > len(s.events) {
		return Range{}, nil
	}
	starts := make([]bool, len(s.events))
	var points []int
	for start := 0; start+len(needle) <= len(s.events); start++ {
		n := 0
		for n < len(needle) && s.eq(needle[n], s.events[start+n].Value) {
			n++
		}
		if n == len(needle) {
			starts[start] = true
			points = append(points, start)
		}
	}
	var best Range
	for _, start := range points {
		n := 0
		for start+n < len(s.events) && starts[start+n] {
			n += len(needle)
		}
		if n > best.Length() {
			best = Range{start, start + n}
		}
	}
	return best, nil
}

// FindSelectedSubsequence greedily matches the values of needle in order
// against this series: for each needle value the scan advances until an
// equal value is found. It returns the indices matched so far and whether
// all needle values were consumed.
//
func (s *TimeSeries[V]) FindSelectedSubsequence(needle *TimeSeries[V]) ([]int, bool) {
	mapping := make([]int, 0, needle.Len())
	pos := 0
	for i := 0; i < needle.Len(); i++ {
		v := needle.events[i].Value
		for pos < len(s.events) && !s.eq(s.events[pos].Value, v) {
			pos++
		}
		if pos >= len(s.events) {
			return mapping, false
		}
		mapping = append(mapping, pos)
		pos++
	}
	return mapping, true
}

// Compare measures the divergence of two series over the time interval
// [from, to): the total number of discrete microseconds during which their
// current values differ. The current value of a series at instant t is the
// value of its most recent event with time ≤ t, or initial before any
// event. Compare is symmetric in its operands.
//
func (s *TimeSeries[V]) Compare(o *TimeSeries[V], from, to Time, initial V) Time {
	a, b := initial, initial
	i, j := 0, 0
	for i < len(s.events) && s.events[i].Time <= from {
		a = s.events[i].Value
		i++
	}
	for j < len(o.events) && o.events[j].Time <= from {
		b = o.events[j].Value
		j++
	}
	var diff Time
	now := from
	for now < to {
		next := to
		if i < len(s.events) && s.events[i].Time < next {
			next = s.events[i].Time
		}
		if j < len(o.events) && o.events[j].Time < next {
			next = o.events[j].Time
		}
		if !s.eq(a, b) {
			diff += next - now
		}
		for i < len(s.events) && s.events[i].Time == next {
			a = s.events[i].Value
			i++
		}
		for j < len(o.events) && o.events[j].Time == next {
			b = o.events[j].Value
			j++
		}
		now = next
	}
	return diff
}
