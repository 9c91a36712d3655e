// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package sketches holds small Arduino-style programs written against the ino
API. They serve as built-in test subjects for the simulation harness and the
command line tester.
*/
package sketches

import (
	sim "github.com/db47h/shieldsim"
	"github.com/db47h/shieldsim/ino"
	"github.com/db47h/shieldsim/shield"
)

// Blink toggles the built-in LED once per second using delay.
//
type Blink struct {
	on bool
}

func (b *Blink) Setup() {
	ino.PinMode(ino.LED_BUILTIN, ino.OUTPUT)
	b.on = true
}

func (b *Blink) Loop() {
	v := ino.LOW
	if b.on {
		v = ino.HIGH
	}
	ino.DigitalWrite(ino.LED_BUILTIN, v)
	b.on = !b.on
	ino.Delay(1000)
}

// LedRotator lights exactly one of the four LEDs. The first button rotates
// the lit LED by one position, the second by three.
//
type LedRotator struct {
	active int
	prev   [2]int
}

func (r *LedRotator) Setup() {
	for _, pin := range shield.LedPins {
		ino.PinMode(pin, ino.OUTPUT)
	}
	for i := range r.prev {
		ino.PinMode(shield.ButtonPins[i], ino.INPUT)
		r.prev[i] = ino.HIGH
	}
}

func (r *LedRotator) Loop() {
	for i := range r.prev {
		v := ino.DigitalRead(shield.ButtonPins[i])
		if v == ino.LOW && r.prev[i] == ino.HIGH {
			// buttons are active low; this is a press edge
			if i == 0 {
				r.active = (r.active + 1) % 4
			} else {
				r.active = (r.active + 3) % 4
			}
		}
		r.prev[i] = v
	}
	for i, pin := range shield.LedPins {
		v := ino.HIGH // active low, HIGH turns the LED off
		if i == r.active {
			v = ino.LOW
		}
		ino.DigitalWrite(pin, v)
	}
}

// segLabels are the texts SegLabel shows, one per button.
var segLabels = [3]string{"abcd", "efgh", "ijkl"}

// SegLabel shows a four-letter label on the 7-segment display, selected by
// the last button pressed. The display starts blank; one digit is refreshed
// per loop iteration.
//
type SegLabel struct {
	selected int
	digit    int
	prev     [3]int
}

func (s *SegLabel) Setup() {
	for _, pin := range []uint8{shield.LatchPin, shield.ClockPin, shield.DataPin} {
		ino.PinMode(pin, ino.OUTPUT)
	}
	for i := range s.prev {
		ino.PinMode(shield.ButtonPins[i], ino.INPUT)
		s.prev[i] = ino.HIGH
	}
	s.selected = -1
}

func (s *SegLabel) Loop() {
	for i := range s.prev {
		v := ino.DigitalRead(shield.ButtonPins[i])
		if v == ino.LOW && s.prev[i] == ino.HIGH {
			s.selected = i
		}
		s.prev[i] = v
	}

	glyph := shield.BlankGlyph
	if s.selected >= 0 {
		glyph = shield.LetterGlyph(segLabels[s.selected][s.digit])
	}
	ino.DigitalWrite(shield.LatchPin, ino.LOW)
	ino.ShiftOut(shield.DataPin, shield.ClockPin, ino.MSBFIRST, glyph)
	ino.ShiftOut(shield.DataPin, shield.ClockPin, ino.MSBFIRST, uint8(1)<<uint(s.digit))
	ino.DigitalWrite(shield.LatchPin, ino.HIGH)
	s.digit = (s.digit + 1) % shield.SegDigits
}

// ByName returns a built-in sketch by its name, or nil.
//
func ByName(name string) sim.Sketch {
	switch name {
	case "blink":
		return &Blink{}
	case "rotator":
		return &LedRotator{}
	case "seglabel":
		return &SegLabel{}
	}
	return nil
}
