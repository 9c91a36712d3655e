// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package shield models the funshield: three buttons, four independent LEDs
and a four-digit 7-segment display driven through a serial shift register.

The package consumes raw pin-state events produced by the emulator and
refines them in stages. Display adapters fork pin events into bit-array
state events, a demultiplexer recovers the logical state from multiplexed
traffic by thresholding per-LED duty cycles over fixed windows, and an
aggregator debounces what remains. All LEDs are wired active-low: a false
bit means lit.
*/
package shield

import (
	"github.com/pkg/errors"

	sim "github.com/db47h/shieldsim"
)

// Funshield pin assignments.
//
const (
	BeepPin    uint8 = 3
	LatchPin   uint8 = 4
	ClockPin   uint8 = 7
	DataPin    uint8 = 8
	TrimmerPin uint8 = 14
)

// LedPins holds the pins of the four independent LEDs, leftmost first.
//
var LedPins = []uint8{13, 12, 11, 10}

// ButtonPins holds the pins of the three buttons.
//
var ButtonPins = []uint8{15, 16, 17}

// Default filter windows. Multiplexed shield traffic cycles digits at about
// 1kHz with a 25% duty cycle per digit, so a demultiplexing window of a few
// milliseconds with a 10% threshold separates lit from unlit reliably.
//
const (
	DefaultLedDemuxWindow sim.Time = 10 * sim.Millisecond
	DefaultLedAggWindow   sim.Time = 50 * sim.Millisecond
	DefaultSegDemuxWindow sim.Time = 15 * sim.Millisecond
	DefaultSegAggWindow   sim.Time = 30 * sim.Millisecond
)

var errCausality = errors.New("causality violated: time moved backward")
