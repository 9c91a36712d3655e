// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package ino exposes the emulated board through the plain Arduino vocabulary,
so that sketches read like their C++ counterparts: free functions, a Serial
object and the usual ALL_CAPS pin constants. The unidiomatic names are kept
on purpose.

All functions in this package drive a single package-level emulator. Test
harnesses claim it once through EmulatorInstance and wrap it in a
shieldsim.Controller; the controller converts the API-violation panics
raised here back into error returns.
*/
package ino

import (
	"math/rand"

	"github.com/pkg/errors"

	sim "github.com/db47h/shieldsim"
)

// Arduino core constants.
//
const (
	LOW  = sim.Low
	HIGH = sim.High

	INPUT        = sim.Input
	OUTPUT       = sim.Output
	INPUT_PULLUP = 2

	LSBFIRST = sim.LSBFirst
	MSBFIRST = sim.MSBFirst

	LED_BUILTIN uint8 = 13
)

// Analog pin aliases.
//
const (
	A0 uint8 = 14 + iota
	A1
	A2
	A3
	A4
	A5
	A6
	A7
)

var (
	emu     = sim.NewEmulator()
	claimed bool
)

// EmulatorInstance hands out the package-level emulator that backs every
// function below. It can be claimed exactly once per process; a second call
// is a sign of two harnesses fighting over the board and fails.
//
func EmulatorInstance() (*sim.Emulator, error) {
	if claimed {
		return nil, errors.New("the emulator instance has already been claimed")
	}
	claimed = true
	return emu, nil
}

// check panics with err so that the controller's sketch driver can recover
// it into an error return. A sketch has no error channel of its own.
func check(err error) {
	if err != nil {
		panic(err)
	}
}

// PinMode configures the specified pin to behave as an input or an output.
// INPUT_PULLUP maps to INPUT; all inputs of the emulated board pull up.
//
func PinMode(pin uint8, mode int) {
	if mode == INPUT_PULLUP {
		mode = INPUT
	}
	check(emu.PinMode(pin, mode))
}

// DigitalWrite sets an output pin HIGH or LOW.
//
func DigitalWrite(pin uint8, value int) {
	check(emu.DigitalWrite(pin, value))
}

// DigitalRead returns the value of an input pin, HIGH or LOW.
//
func DigitalRead(pin uint8) int {
	v, err := emu.DigitalRead(pin)
	check(err)
	return v
}

// AnalogRead returns the 10-bit reading of an input pin.
//
func AnalogRead(pin uint8) int {
	v, err := emu.AnalogRead(pin)
	check(err)
	return v
}

func AnalogReference(mode int) {
	check(emu.AnalogReference(mode))
}

func AnalogWrite(pin uint8, value int) {
	check(emu.AnalogWrite(pin, value))
}

// Millis returns the number of milliseconds since the sketch started.
//
func Millis() uint32 {
	v, err := emu.Millis()
	check(err)
	return v
}

// Micros returns the number of microseconds since the sketch started.
//
func Micros() uint32 {
	v, err := emu.Micros()
	check(err)
	return v
}

// Delay pauses the sketch for ms milliseconds.
//
func Delay(ms uint32) {
	check(emu.Delay(ms))
}

// DelayMicroseconds pauses the sketch for us microseconds.
//
func DelayMicroseconds(us uint32) {
	check(emu.DelayMicroseconds(us))
}

func PulseIn(pin uint8, state int, timeout uint32) uint32 {
	v, err := emu.PulseIn(pin, state, timeout)
	check(err)
	return v
}

func PulseInLong(pin uint8, state int, timeout uint32) uint32 {
	v, err := emu.PulseInLong(pin, state, timeout)
	check(err)
	return v
}

// ShiftOut shifts a byte out on dataPin, one bit per clockPin pulse.
//
func ShiftOut(dataPin, clockPin uint8, bitOrder int, value uint8) {
	check(emu.ShiftOut(dataPin, clockPin, bitOrder, value))
}

// ShiftIn shifts a byte in from dataPin, one bit per clockPin pulse.
//
func ShiftIn(dataPin, clockPin uint8, bitOrder int) uint8 {
	v, err := emu.ShiftIn(dataPin, clockPin, bitOrder)
	check(err)
	return v
}

func Tone(pin uint8, frequency, duration uint32) {
	check(emu.Tone(pin, frequency, duration))
}

func NoTone(pin uint8) {
	check(emu.NoTone(pin))
}

var rng = rand.New(rand.NewSource(1))

// RandomSeed reseeds the pseudo-random generator. The generator is
// deterministic so that simulations replay bit for bit.
//
func RandomSeed(seed uint32) {
	rng = rand.New(rand.NewSource(int64(seed)))
}

// Random returns a pseudo-random number in [min, max).
//
func Random(min, max int32) int32 {
	if max <= min {
		return min
	}
	return min + rng.Int31n(max-min)
}

// Map re-maps x from the range [inMin, inMax] to [outMin, outMax].
//
func Map(x, inMin, inMax, outMin, outMax int32) int32 {
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// Constrain limits x to the range [lo, hi].
//
func Constrain(x, lo, hi int32) int32 {
	switch {
	case x < lo:
		return lo
	case x > hi:
		return hi
	}
	return x
}
