// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shieldsim

import "github.com/pkg/errors"

// A FutureTimeSeries holds scheduled events that have not happened yet.
// Future events are recorded but not passed down the chain until time
// advances far enough; this is how pre-scheduled button presses and serial
// input reach an input pin as the simulation runs.
//
type FutureTimeSeries[V any] struct {
	TimeSeries[V]
	consumed int // index just past the last event already released
}

// NewFutureTimeSeries returns an empty future series for a comparable value
// type.
//
func NewFutureTimeSeries[V comparable]() *FutureTimeSeries[V] {
	f := &FutureTimeSeries[V]{}
	f.eq = func(a, b V) bool { return a == b }
	return f
}

// NewFutureTimeSeriesFunc returns an empty future series using eq as value
// equality.
//
func NewFutureTimeSeriesFunc[V any](eq func(a, b V) bool) *FutureTimeSeries[V] {
	f := &FutureTimeSeries[V]{}
	f.eq = eq
	return f
}

// release emits all not-yet-released events with time ≤ t, in order.
//
func (f *FutureTimeSeries[V]) release(t Time) error {
	for f.consumed < len(f.events) && f.events[f.consumed].Time <= t {
		e := f.events[f.consumed]
		f.consumed++
		if err := f.Emit(e.Time, e.Value); err != nil {
			return err
		}
	}
	return nil
}

// AddFutureEvent schedules an event. Future events may be inserted out of
// order as long as none of them is older than the last released event.
//
func (f *FutureTimeSeries[V]) AddFutureEvent(t Time, v V) error {
	if t < f.last {
		return errCausality
	}
	if f.InsertRaw(t, v) < f.consumed {
		return errors.New("scheduled event sorted before an already released one")
	}
	return nil
}

// AddEvent implements Consumer: the event is scheduled and everything due
// at or before t, including the new event, is released exactly once.
//
func (f *FutureTimeSeries[V]) AddEvent(t Time, v V) error {
	if err := f.AddFutureEvent(t, v); err != nil {
		return err
	}
	if err := f.release(t); err != nil {
		return err
	}
	f.last = t
	return nil
}

// AdvanceTime implements Consumer, releasing all events due at or before t.
//
func (f *FutureTimeSeries[V]) AdvanceTime(t Time) error {
	if t < f.last {
		return errCausality
	}
	if err := f.release(t); err != nil {
		return err
	}
	if err := f.Advance(t); err != nil {
		return err
	}
	f.last = t
	return nil
}

// Clear implements Consumer.
//
func (f *FutureTimeSeries[V]) Clear() {
	f.consumed = 0
	f.TimeSeries.Clear()
}

// Pending returns the number of scheduled events not released yet.
//
func (f *FutureTimeSeries[V]) Pending() int {
	return len(f.events) - f.consumed
}
