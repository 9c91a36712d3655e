// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shield

import (
	"github.com/pkg/errors"

	sim "github.com/db47h/shieldsim"
	"github.com/db47h/shieldsim/bitvec"
)

// A LedDisplay groups independently wired LEDs into one bit-array state. It
// consumes pin-state events from all its pins and forks a state event off
// the sprout whenever a pin change actually flips an LED. Pin events keep
// flowing down the regular chain untouched.
//
type LedDisplay struct {
	sim.Hub[sim.PinState]
	sim.Sprout[bitvec.Array]
	last  sim.Time
	state bitvec.Array
	pins  map[uint8]int // pin id to LED index
}

// NewLedDisplay returns a display over the given pins, leftmost LED first.
//
func NewLedDisplay(wiring []uint8) (*LedDisplay, error) {
	d := &LedDisplay{
		state: bitvec.Filled(len(wiring), true),
		pins:  make(map[uint8]int, len(wiring)),
	}
	for i, pin := range wiring {
		if _, ok := d.pins[pin]; ok {
			return nil, errors.Errorf("pin %d is attached to multiple LEDs", pin)
		}
		d.pins[pin] = i
	}
	return d, nil
}

// Attach connects the display as a consumer of every wired pin.
//
func (d *LedDisplay) Attach(c *sim.Controller) error {
	for pin := range d.pins {
		if err := c.AttachPinConsumer(pin, d); err != nil {
			return err
		}
	}
	return nil
}

// State returns a snapshot of the LED state.
//
func (d *LedDisplay) State() bitvec.Array { return d.state.Clone() }

// AddEvent implements sim.Consumer. Events of unrelated pins are ignored
// but still advance time on both branches.
//
func (d *LedDisplay) AddEvent(t sim.Time, st sim.PinState) error {
	if t < d.last {
		return errCausality
	}
	idx, ok := d.pins[st.Pin]
	if !ok {
		if err := d.Advance(t); err != nil {
			return err
		}
		if err := d.AdvanceSprout(t); err != nil {
			return err
		}
		d.last = t
		return nil
	}
	bit := st.Value != sim.Low
	if d.state.Bit(idx) != bit {
		d.state.SetBit(idx, bit)
		if err := d.EmitSprout(t, d.state.Clone()); err != nil {
			return err
		}
	}
	if err := d.Emit(t, st); err != nil {
		return err
	}
	d.last = t
	return nil
}

// AdvanceTime implements sim.Consumer.
//
func (d *LedDisplay) AdvanceTime(t sim.Time) error {
	if t < d.last {
		return errCausality
	}
	if err := d.Advance(t); err != nil {
		return err
	}
	if err := d.AdvanceSprout(t); err != nil {
		return err
	}
	d.last = t
	return nil
}

// Clear implements sim.Consumer.
//
func (d *LedDisplay) Clear() {
	d.ClearNext()
	d.ClearSprout()
}

// SegDigits is the number of digits of the 7-segment display.
//
const SegDigits = 4

// A SegDisplay models the four-digit 7-segment display driven through a
// 16-bit serial shift register. It consumes pin-state events of the data,
// clock and latch pins: a falling clock edge shifts the current data sample
// into the register, a rising latch edge decodes the register into the
// display state. The low byte of the register selects the digits, the high
// byte carries the active-low glyph; unselected digits go blank.
//
// Decoded display states are forked off the sprout as 32-bit arrays, one
// byte per digit, leftmost digit first.
//
type SegDisplay struct {
	sim.Hub[sim.PinState]
	sim.Sprout[bitvec.Array]
	last  sim.Time
	state bitvec.Array
	reg   *bitvec.ShiftRegister

	dataPin  uint8
	clockPin uint8
	latchPin uint8

	data  bool
	clock bool
	latch bool
}

// NewSegDisplay returns a display listening on the given pins.
//
func NewSegDisplay(dataPin, clockPin, latchPin uint8) *SegDisplay {
	return &SegDisplay{
		state:    bitvec.Filled(SegDigits*8, true),
		reg:      bitvec.NewShiftRegister(16),
		dataPin:  dataPin,
		clockPin: clockPin,
		latchPin: latchPin,
	}
}

// Attach connects the display as a consumer of its three pins.
//
func (d *SegDisplay) Attach(c *sim.Controller) error {
	for _, pin := range []uint8{d.dataPin, d.clockPin, d.latchPin} {
		if err := c.AttachPinConsumer(pin, d); err != nil {
			return err
		}
	}
	return nil
}

// State returns a snapshot of the display state.
//
func (d *SegDisplay) State() bitvec.Array { return d.state.Clone() }

// decode rebuilds the display state from the shift register and emits it on
// the sprout when it changed.
func (d *SegDisplay) decode(t sim.Time) error {
	selected := bitvec.RegWord[uint8](d.reg, 0)
	glyph := bitvec.RegWord[uint8](d.reg, 1)

	st := bitvec.Filled(SegDigits*8, true)
	for i := 0; i < SegDigits; i++ {
		if selected>>uint(i)&1 != 0 {
			st.SetByte(i, glyph)
		}
	}
	if st.Equal(d.state) {
		return nil
	}
	d.state = st
	return d.EmitSprout(t, st.Clone())
}

// AddEvent implements sim.Consumer. Events of pins the display is not wired
// to are a configuration error.
//
func (d *SegDisplay) AddEvent(t sim.Time, st sim.PinState) error {
	if t < d.last {
		return errCausality
	}
	v := st.Value == sim.High
	switch st.Pin {
	case d.clockPin:
		if d.clock && !v {
			// falling clock edge confirms the data sample
			d.reg.Push(d.data)
		}
		d.clock = v
	case d.dataPin:
		d.data = v
	case d.latchPin:
		if !d.latch && v {
			// rising latch edge updates the outputs
			if err := d.decode(t); err != nil {
				return err
			}
		}
		d.latch = v
	default:
		return errors.Errorf("unknown pin number %d", st.Pin)
	}
	if err := d.Emit(t, st); err != nil {
		return err
	}
	// new state events are emitted in decode; the sprout still follows time
	if err := d.AdvanceSprout(t); err != nil {
		return err
	}
	d.last = t
	return nil
}

// AdvanceTime implements sim.Consumer.
//
func (d *SegDisplay) AdvanceTime(t sim.Time) error {
	if t < d.last {
		return errCausality
	}
	if err := d.Advance(t); err != nil {
		return err
	}
	if err := d.AdvanceSprout(t); err != nil {
		return err
	}
	d.last = t
	return nil
}

// Clear implements sim.Consumer.
//
func (d *SegDisplay) Clear() {
	d.ClearNext()
	d.ClearSprout()
}
