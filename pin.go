// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shieldsim

import "github.com/pkg/errors"

// A Pin is one digital pin of the emulated board. An output pin is the head
// of a consumer chain carrying its own state events; an input pin is also
// the terminal consumer of an externally scheduled input stream.
//
// The wiring (how the pin is physically connected on the shield) is fixed
// at registration; the mode is set once by the tested program and must
// match the wiring.
//
type Pin struct {
	Hub[PinState]
	last   Time
	id     uint8
	wiring int
	mode   int
	value  int
}

// NewPin returns a pin with the given identifier and wiring. Wiring may be
// Input, Output or Undefined.
//
func NewPin(id uint8, wiring int) *Pin {
	return &Pin{id: id, wiring: wiring, mode: Undefined, value: Undefined}
}

// ID returns the pin identifier.
//
func (p *Pin) ID() uint8 { return p.id }

// Mode returns the pin's current mode (Input, Output or Undefined).
//
func (p *Pin) Mode() int { return p.mode }

// Value returns the pin's current value without the mode checks of Read.
//
func (p *Pin) Value() int { return p.value }

// reset reverts the mode and value, keeping wiring and chain links.
//
func (p *Pin) reset() {
	p.mode = Undefined
	p.value = Undefined
}

// SetMode switches the pin into input or output mode. The mode can be
// established only once and may not contradict the wiring. An input pin
// with no value yet reads High once its mode is set (pull-up).
//
func (p *Pin) SetMode(mode int) error {
	if mode != Input && mode != Output {
		return errors.New("emulator violation: trying to set pin into invalid mode")
	}
	if p.mode != Undefined && p.mode != mode {
		return errors.New("emulator violation: unable to change I/O mode of a pin at runtime")
	}
	if p.wiring == Input && mode == Output {
		return errors.New("emulator violation: switching an input pin into output mode might short circuit")
	}
	p.mode = mode
	if p.mode == Input && p.value == Undefined {
		p.value = High
	}
	return nil
}

// Read returns the current binary value of the pin. Valid on input pins
// only.
//
func (p *Pin) Read() (int, error) {
	if p.mode == Undefined {
		return Undefined, errors.New("emulator violation: pin mode has to be set before the pin is used")
	}
	if p.mode != Input {
		return Undefined, errors.New("emulator violation: unable to read data from an output pin")
	}
	return p.value, nil
}

// Write records a new pin state at the given time. Valid on output pins
// only; every successful write appends exactly one event to the pin's
// chain.
//
func (p *Pin) Write(value int, t Time) error {
	if p.mode == Undefined {
		return errors.New("emulator violation: pin mode has to be set before the pin is used")
	}
	if p.mode != Output {
		return errors.New("emulator violation: unable to write data to an input pin")
	}
	p.value = value
	return p.AddEvent(t, PinState{Pin: p.id, Value: value})
}

// AddEvent implements Consumer. Events addressed to this pin update its
// value; everything is forwarded down the chain.
//
func (p *Pin) AddEvent(t Time, st PinState) error {
	if t < p.last {
		return errCausality
	}
	if st.Pin == p.id {
		p.value = st.Value
	}
	if err := p.Emit(t, st); err != nil {
		return err
	}
	p.last = t
	return nil
}

// AdvanceTime implements Consumer.
//
func (p *Pin) AdvanceTime(t Time) error {
	if t < p.last {
		return errCausality
	}
	if err := p.Advance(t); err != nil {
		return err
	}
	p.last = t
	return nil
}

// Clear implements Consumer.
//
func (p *Pin) Clear() { p.ClearNext() }
