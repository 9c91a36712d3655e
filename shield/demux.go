// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shield

import (
	"github.com/pkg/errors"

	sim "github.com/db47h/shieldsim"
	"github.com/db47h/shieldsim/bitvec"
)

// A Demultiplexer recovers the logical LED state from multiplexed traffic.
// It slices time into fixed windows and accumulates, per LED, how long the
// raw state kept it lit inside the current window. When the window closes,
// an LED is considered lit iff its accumulated time reaches the threshold;
// the demultiplexed state is emitted downstream only when it changed.
//
// Windows are only opened by incoming events. While the demultiplexed state
// lags behind the raw state the window keeps sliding, so a pending change is
// resolved even when several windows pass between events. Idle time
// notifications close the open window but never slide it: the raw state is
// integrated only while events keep arriving.
//
type Demultiplexer struct {
	sim.Hub[bitvec.Array]
	last      sim.Time
	window    sim.Time
	threshold sim.Time
	marker    sim.Time // closing time of the open window
	raw       bitvec.Array
	demuxed   bitvec.Array
	active    []sim.Time
}

// NewDemultiplexer returns a demultiplexer over n-bit states with the given
// window and threshold. The threshold must fall within (0, window]; a
// typical choice is window/10.
//
func NewDemultiplexer(n int, window, threshold sim.Time) (*Demultiplexer, error) {
	if window == 0 {
		return nil, errors.New("demultiplexing time window must be greater than 0")
	}
	if threshold == 0 || threshold > window {
		return nil, errors.New("threshold is out of range of the time window")
	}
	return &Demultiplexer{
		window:    window,
		threshold: threshold,
		raw:       bitvec.Filled(n, true),
		demuxed:   bitvec.Filled(n, true),
		active:    make([]sim.Time, n),
	}, nil
}

func (d *Demultiplexer) windowOpen() bool { return d.last < d.marker }

// accumulate credits dt to every LED the raw state keeps lit.
func (d *Demultiplexer) accumulate(dt sim.Time) {
	for i := range d.active {
		if !d.raw.Bit(i) {
			d.active[i] += dt
		}
	}
}

// demuxState thresholds the accumulators into a fresh state and resets them.
func (d *Demultiplexer) demuxState() bitvec.Array {
	st := bitvec.Filled(len(d.active), true)
	for i := range d.active {
		if d.active[i] >= d.threshold {
			st.SetBit(i, false)
		}
		d.active[i] = 0
	}
	return st
}

// update closes every window that t has passed and accumulates the trailing
// fragment into the window still open, if any. The event flag marks updates
// triggered by a raw event: only those may slide an unchanged window, so
// that pure time advances never convert a stale raw state into an emission.
//
func (d *Demultiplexer) update(t sim.Time, event bool) error {
	for d.windowOpen() && t >= d.marker {
		d.accumulate(d.marker - d.last)
		d.last = d.marker
		st := d.demuxState()
		if !st.Equal(d.demuxed) {
			d.demuxed = st
			if err := d.Emit(d.marker, st); err != nil {
				return err
			}
			d.marker += d.window
		} else {
			if err := d.Advance(d.marker); err != nil {
				return err
			}
			// while the raw state differs from the demuxed one a change may
			// still be pending; keep the window sliding
			if event && !d.raw.Equal(d.demuxed) {
				d.marker += d.window
			}
		}
	}
	if d.windowOpen() && t < d.marker {
		d.accumulate(t - d.last)
	}
	return nil
}

// AddEvent implements sim.Consumer.
//
func (d *Demultiplexer) AddEvent(t sim.Time, state bitvec.Array) error {
	if t < d.last {
		return errCausality
	}
	if state.Len() != len(d.active) {
		return errors.Errorf("state width mismatch: got %d bits, expected %d", state.Len(), len(d.active))
	}
	if err := d.update(t, true); err != nil {
		return err
	}
	d.raw = state
	if !d.windowOpen() {
		// the event opens a new window
		d.marker = t + d.window
	}
	d.last = t
	return nil
}

// AdvanceTime implements sim.Consumer.
//
func (d *Demultiplexer) AdvanceTime(t sim.Time) error {
	if t < d.last {
		return errCausality
	}
	if err := d.update(t, false); err != nil {
		return err
	}
	if !d.windowOpen() {
		if err := d.Advance(t); err != nil {
			return err
		}
	}
	d.last = t
	return nil
}

// Clear implements sim.Consumer. The time watermark survives; the raw and
// demultiplexed states revert to all-unlit.
//
func (d *Demultiplexer) Clear() {
	d.marker = d.last
	d.raw = bitvec.Filled(len(d.active), true)
	d.demuxed = bitvec.Filled(len(d.active), true)
	for i := range d.active {
		d.active[i] = 0
	}
	d.ClearNext()
}

// An Aggregator suppresses state changes in rapid succession. It buffers the
// latest state over a fixed window and emits it at the window close only
// when it differs from the last emitted one. The recommended setup is a
// demultiplexer with a small window followed by an aggregator with a larger
// one.
//
type Aggregator struct {
	sim.Hub[bitvec.Array]
	last    sim.Time
	window  sim.Time
	marker  sim.Time
	latest  bitvec.Array
	emitted bitvec.Array
}

// NewAggregator returns an aggregator over n-bit states with the given
// window.
//
func NewAggregator(n int, window sim.Time) (*Aggregator, error) {
	if window == 0 {
		return nil, errors.New("aggregator time window must be greater than 0")
	}
	return &Aggregator{
		window:  window,
		latest:  bitvec.Filled(n, true),
		emitted: bitvec.Filled(n, true),
	}, nil
}

func (a *Aggregator) windowOpen() bool { return a.last < a.marker }

// update closes the open window if t has passed its marker.
func (a *Aggregator) update(t sim.Time) error {
	if !a.windowOpen() || t < a.marker {
		return nil
	}
	a.last = a.marker
	if !a.latest.Equal(a.emitted) {
		a.emitted = a.latest
		if err := a.Emit(a.marker, a.emitted.Clone()); err != nil {
			return err
		}
		a.marker += a.window
	} else {
		if err := a.Advance(a.marker); err != nil {
			return err
		}
	}
	return nil
}

// AddEvent implements sim.Consumer.
//
func (a *Aggregator) AddEvent(t sim.Time, state bitvec.Array) error {
	if t < a.last {
		return errCausality
	}
	if state.Len() != a.latest.Len() {
		return errors.Errorf("state width mismatch: got %d bits, expected %d", state.Len(), a.latest.Len())
	}
	if err := a.update(t); err != nil {
		return err
	}
	a.latest = state
	if !a.windowOpen() {
		a.marker = t + a.window
	}
	a.last = t
	return nil
}

// AdvanceTime implements sim.Consumer.
//
func (a *Aggregator) AdvanceTime(t sim.Time) error {
	if t < a.last {
		return errCausality
	}
	if err := a.update(t); err != nil {
		return err
	}
	if !a.windowOpen() {
		if err := a.Advance(t); err != nil {
			return err
		}
	}
	a.last = t
	return nil
}

// Clear implements sim.Consumer.
//
func (a *Aggregator) Clear() {
	a.marker = a.last
	a.latest = bitvec.Filled(a.latest.Len(), true)
	a.emitted = bitvec.Filled(a.emitted.Len(), true)
	a.ClearNext()
}
