// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shieldsim

import (
	"sort"

	"github.com/pkg/errors"
)

// Default virtual-time costs of the pin operations, in microseconds.
//
const (
	DefaultReadDelay    Time = 20
	DefaultWriteDelay   Time = 20
	DefaultSetModeDelay Time = 100
)

// Bit orders for ShiftOut and ShiftIn.
//
const (
	LSBFirst = 0
	MSBFirst = 1
)

// serialInput is one scheduled chunk of serial line input.
type serialInput struct {
	at   Time
	data string
}

// methodFlags gates every entry point of the Arduino-style API. A disabled
// method reports an emulator violation when called.
//
type methodFlags struct {
	pinMode           bool
	digitalWrite      bool
	digitalRead       bool
	analogRead        bool
	analogReference   bool
	analogWrite       bool
	millis            bool
	micros            bool
	delay             bool
	delayMicroseconds bool
	pulseIn           bool
	pulseInLong       bool
	shiftOut          bool
	shiftIn           bool
	tone              bool
	noTone            bool
	serial            bool
}

// An Emulator holds the virtual clock, the pin registry and the Arduino
// style API surface exposed to the tested program. All mutable state
// belongs to exactly one simulation; the Controller façade resets it at the
// start of each test.
//
type Emulator struct {
	now    Time
	pins   map[uint8]*Pin
	order  []uint8 // pin ids, ascending; fixes the event release order
	inputs map[uint8]Consumer[PinState]
	rx     []byte        // serial receive buffer
	serial []serialInput // scheduled input, ordered by time
	flags  methodFlags

	readDelay    Time
	writeDelay   Time
	setModeDelay Time
}

// NewEmulator returns an emulator with no pins registered, all API methods
// enabled except serial, and the default pin timings.
//
func NewEmulator() *Emulator {
	return &Emulator{
		pins:   make(map[uint8]*Pin),
		inputs: make(map[uint8]Consumer[PinState]),
		flags: methodFlags{
			pinMode:           true,
			digitalWrite:      true,
			digitalRead:       true,
			analogRead:        true,
			analogReference:   true,
			analogWrite:       true,
			millis:            true,
			micros:            true,
			delay:             true,
			delayMicroseconds: true,
			pulseIn:           true,
			pulseInLong:       true,
			shiftOut:          true,
			shiftIn:           true,
			tone:              true,
			noTone:            true,
			serial:            false,
		},
		readDelay:    DefaultReadDelay,
		writeDelay:   DefaultWriteDelay,
		setModeDelay: DefaultSetModeDelay,
	}
}

// methodFlag maps an API method name to its gate. Unknown names are
// configuration errors.
//
func (e *Emulator) methodFlag(name string) (*bool, error) {
	f := &e.flags
	m := map[string]*bool{
		"pinMode":           &f.pinMode,
		"digitalWrite":      &f.digitalWrite,
		"digitalRead":       &f.digitalRead,
		"analogRead":        &f.analogRead,
		"analogReference":   &f.analogReference,
		"analogWrite":       &f.analogWrite,
		"millis":            &f.millis,
		"micros":            &f.micros,
		"delay":             &f.delay,
		"delayMicroseconds": &f.delayMicroseconds,
		"pulseIn":           &f.pulseIn,
		"pulseInLong":       &f.pulseInLong,
		"shiftOut":          &f.shiftOut,
		"shiftIn":           &f.shiftIn,
		"tone":              &f.tone,
		"noTone":            &f.noTone,
		"serial":            &f.serial,
	}
	p, ok := m[name]
	if !ok {
		return nil, errors.Errorf("invalid API function name %q", name)
	}
	return p, nil
}

func disabled(name string) error {
	return errors.Errorf("emulator violation: the %s() function is disabled in the emulator", name)
}

// Now returns the current virtual time.
//
func (e *Emulator) Now() Time { return e.now }

// SetTimings overrides the virtual-time cost of pin reads, writes and mode
// changes.
//
func (e *Emulator) SetTimings(read, write, setMode Time) {
	e.readDelay, e.writeDelay, e.setModeDelay = read, write, setMode
}

// reset rewinds the clock and reverts every pin's mode and value. Pin
// registrations and consumer chains are kept.
//
func (e *Emulator) reset() {
	e.now = 0
	e.rx = e.rx[:0]
	e.serial = e.serial[:0]
	for _, id := range e.order {
		if in, ok := e.inputs[id]; ok {
			in.Clear()
		}
		e.pins[id].reset()
	}
}

// advanceBy moves the virtual clock forward by us microseconds, releasing
// every scheduled pin input event that falls due, in chronological order,
// and moving due serial input into the receive buffer.
//
func (e *Emulator) advanceBy(us Time) (Time, error) {
	e.now += us
	for _, id := range e.order {
		if in, ok := e.inputs[id]; ok {
			if err := in.AdvanceTime(e.now); err != nil {
				return e.now, err
			}
		}
	}
	for _, id := range e.order {
		if err := e.pins[id].AdvanceTime(e.now); err != nil {
			return e.now, err
		}
	}
	for len(e.serial) > 0 && e.serial[0].at <= e.now {
		e.rx = append(e.rx, e.serial[0].data...)
		e.serial = e.serial[1:]
	}
	return e.now, nil
}

// getPin returns the registered pin or an error if no such pin exists.
//
func (e *Emulator) getPin(pin uint8) (*Pin, error) {
	p, ok := e.pins[pin]
	if !ok {
		return nil, errors.Errorf("emulator violation: pin %d is not defined in the emulator", pin)
	}
	return p, nil
}

// removeAllPins drops every pin registration and input upstream.
//
func (e *Emulator) removeAllPins() {
	e.pins = make(map[uint8]*Pin)
	e.inputs = make(map[uint8]Consumer[PinState])
	e.order = e.order[:0]
}

// registerPin adds a pin with the given wiring. Registering the same pin
// twice is a configuration error.
//
func (e *Emulator) registerPin(pin uint8, wiring int) error {
	if _, ok := e.pins[pin]; ok {
		return errors.Errorf("pin %d already exists", pin)
	}
	e.pins[pin] = NewPin(pin, wiring)
	i := sort.Search(len(e.order), func(i int) bool { return e.order[i] >= pin })
	e.order = append(e.order, 0)
	copy(e.order[i+1:], e.order[i:])
	e.order[i] = pin
	return nil
}

// registerPinInput installs the head of an input chain as the upstream of
// an input-wired pin. The pin itself is attached at the end of the chain; a
// previously registered upstream is detached first.
//
func (e *Emulator) registerPinInput(pin uint8, input Consumer[PinState]) error {
	p, err := e.getPin(pin)
	if err != nil {
		return err
	}
	if p.wiring != Input {
		return errors.Errorf("pin %d is not wired as input", pin)
	}
	if old, ok := e.inputs[pin]; ok {
		if err := LastConsumer(old).DetachNext(); err != nil {
			return err
		}
	}
	if err := LastConsumer(input).AttachNext(p); err != nil {
		return err
	}
	e.inputs[pin] = input
	return nil
}

// AddSerialData appends bytes to the serial receive buffer of the board.
//
func (e *Emulator) AddSerialData(s string) {
	e.rx = append(e.rx, s...)
}

// scheduleSerial queues a chunk of serial input to become readable at time
// t. Schedules must be inserted in order.
//
func (e *Emulator) scheduleSerial(t Time, data string) error {
	if n := len(e.serial); n > 0 && e.serial[n-1].at > t {
		return errors.Errorf(
			"causality violated: serial input at %d scheduled before the last event at %d",
			t, e.serial[n-1].at)
	}
	e.serial = append(e.serial, serialInput{at: t, data: data})
	return nil
}

// clearSerialSchedule drops all scheduled serial input.
//
func (e *Emulator) clearSerialSchedule() {
	e.serial = e.serial[:0]
}

// SerialEnabled reports whether the serial interface gate is open.
//
func (e *Emulator) SerialEnabled() bool { return e.flags.serial }

// SerialAvailable returns the number of bytes waiting in the receive
// buffer.
//
func (e *Emulator) SerialAvailable() (int, error) {
	if !e.flags.serial {
		return 0, disabled("Serial")
	}
	return len(e.rx), nil
}

// SerialRead pops one byte from the receive buffer, or -1 when it is
// empty.
//
func (e *Emulator) SerialRead() (int, error) {
	if !e.flags.serial {
		return -1, disabled("Serial")
	}
	if len(e.rx) == 0 {
		return -1, nil
	}
	b := e.rx[0]
	e.rx = e.rx[1:]
	return int(b), nil
}

// PinMode configures the given pin as an input or an output. Costs the
// set-mode delay.
//
func (e *Emulator) PinMode(pin uint8, mode int) error {
	if !e.flags.pinMode {
		return disabled("pinMode")
	}
	p, err := e.getPin(pin)
	if err != nil {
		return err
	}
	if err := p.SetMode(mode); err != nil {
		return err
	}
	_, err = e.advanceBy(e.setModeDelay)
	return err
}

// DigitalWrite writes a High or Low value to an output pin, recording one
// pin-state event. Costs the write delay.
//
func (e *Emulator) DigitalWrite(pin uint8, value int) error {
	if !e.flags.digitalWrite {
		return disabled("digitalWrite")
	}
	p, err := e.getPin(pin)
	if err != nil {
		return err
	}
	if err := p.Write(value, e.now); err != nil {
		return err
	}
	_, err = e.advanceBy(e.writeDelay)
	return err
}

// DigitalRead reads the value of an input pin. Costs the read delay.
//
func (e *Emulator) DigitalRead(pin uint8) (int, error) {
	if !e.flags.digitalRead {
		return Undefined, disabled("digitalRead")
	}
	p, err := e.getPin(pin)
	if err != nil {
		return Undefined, err
	}
	v, err := p.Read()
	if err != nil {
		return Undefined, err
	}
	if _, err := e.advanceBy(e.readDelay); err != nil {
		return Undefined, err
	}
	return v, nil
}

// AnalogRead reads an input pin and scales its binary value to the 10-bit
// ADC range: 0 reads as 0 and 1 as 1023. There is no voltage model behind
// it. Costs the read delay.
//
func (e *Emulator) AnalogRead(pin uint8) (int, error) {
	if !e.flags.analogRead {
		return Undefined, disabled("analogRead")
	}
	p, err := e.getPin(pin)
	if err != nil {
		return Undefined, err
	}
	v, err := p.Read()
	if err != nil {
		return Undefined, err
	}
	if _, err := e.advanceBy(e.readDelay); err != nil {
		return Undefined, err
	}
	return v * 1023, nil
}

// AnalogReference is gate-checked but not implemented.
//
func (e *Emulator) AnalogReference(mode int) error {
	if !e.flags.analogReference {
		return disabled("analogReference")
	}
	return errors.New("emulator violation: analogReference() is not implemented in the emulator yet")
}

// PinHasPWM reports whether the pin supports PWM output on the emulated
// board.
//
func PinHasPWM(pin uint8) bool {
	switch pin {
	case 3, 5, 6, 9, 10, 11:
		return true
	}
	return false
}

// AnalogWrite is gate-checked and validates the pin, but PWM waveforms are
// not emulated.
//
func (e *Emulator) AnalogWrite(pin uint8, value int) error {
	if !e.flags.analogWrite {
		return disabled("analogWrite")
	}
	if !PinHasPWM(pin) {
		return errors.New("emulator violation: only pins that support PWM can be used in analogWrite()")
	}
	return errors.New("emulator violation: analogWrite() is not implemented in the emulator yet")
}

// Millis returns the number of milliseconds elapsed since startup. Timing
// queries cost no virtual time.
//
func (e *Emulator) Millis() (uint32, error) {
	if !e.flags.millis {
		return 0, disabled("millis")
	}
	return uint32(e.now / 1000), nil
}

// Micros returns the number of microseconds elapsed since startup.
//
func (e *Emulator) Micros() (uint32, error) {
	if !e.flags.micros {
		return 0, disabled("micros")
	}
	return uint32(e.now), nil
}

// Delay advances the virtual clock by ms milliseconds.
//
func (e *Emulator) Delay(ms uint32) error {
	if !e.flags.delay {
		return disabled("delay")
	}
	_, err := e.advanceBy(Time(ms) * 1000)
	return err
}

// DelayMicroseconds advances the virtual clock by us microseconds.
//
func (e *Emulator) DelayMicroseconds(us uint32) error {
	if !e.flags.delayMicroseconds {
		return disabled("delayMicroseconds")
	}
	_, err := e.advanceBy(Time(us))
	return err
}

// PulseIn is gate-checked but not implemented.
//
func (e *Emulator) PulseIn(pin uint8, state int, timeout uint32) (uint32, error) {
	if !e.flags.pulseIn {
		return 0, disabled("pulseIn")
	}
	return 0, errors.New("emulator violation: pulseIn() is not implemented in the emulator yet")
}

// PulseInLong is gate-checked but not implemented.
//
func (e *Emulator) PulseInLong(pin uint8, state int, timeout uint32) (uint32, error) {
	if !e.flags.pulseInLong {
		return 0, disabled("pulseInLong")
	}
	return 0, errors.New("emulator violation: pulseInLong() is not implemented in the emulator yet")
}

// ShiftOut shifts a byte out one bit at a time: for every bit, a data pin
// write followed by a clock pulse. It is defined in terms of eight digital
// writes and charged no further virtual time.
//
func (e *Emulator) ShiftOut(dataPin, clockPin uint8, bitOrder int, val uint8) error {
	if !e.flags.shiftOut {
		return disabled("shiftOut")
	}
	for i := 0; i < 8; i++ {
		var bit int
		if bitOrder == LSBFirst {
			bit = int(val & 1)
			val >>= 1
		} else {
			bit = int(val >> 7 & 1)
			val <<= 1
		}
		if err := e.DigitalWrite(dataPin, bit); err != nil {
			return err
		}
		if err := e.DigitalWrite(clockPin, High); err != nil {
			return err
		}
		if err := e.DigitalWrite(clockPin, Low); err != nil {
			return err
		}
	}
	return nil
}

// ShiftIn shifts a byte in one bit at a time, reading the data pin between
// a rising and a falling clock edge.
//
func (e *Emulator) ShiftIn(dataPin, clockPin uint8, bitOrder int) (uint8, error) {
	if !e.flags.shiftIn {
		return 0, disabled("shiftIn")
	}
	var value uint8
	for i := 0; i < 8; i++ {
		if err := e.DigitalWrite(clockPin, High); err != nil {
			return 0, err
		}
		v, err := e.DigitalRead(dataPin)
		if err != nil {
			return 0, err
		}
		if bitOrder == LSBFirst {
			value |= uint8(v&1) << uint(i)
		} else {
			value |= uint8(v&1) << uint(7-i)
		}
		if err := e.DigitalWrite(clockPin, Low); err != nil {
			return 0, err
		}
	}
	return value, nil
}

// Tone is gate-checked but not implemented.
//
func (e *Emulator) Tone(pin uint8, frequency uint32, duration uint32) error {
	if !e.flags.tone {
		return disabled("tone")
	}
	return errors.New("emulator violation: tone() is not implemented in the emulator yet")
}

// NoTone is gate-checked but not implemented.
//
func (e *Emulator) NoTone(pin uint8) error {
	if !e.flags.noTone {
		return disabled("noTone")
	}
	return errors.New("emulator violation: noTone() is not implemented in the emulator yet")
}
