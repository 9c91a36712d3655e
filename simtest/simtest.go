// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package simtest is the end-to-end test harness: it claims the process-wide
emulator, wires a funshield with the usual demultiplexer and aggregator
chains behind both displays, and records the refined state events for
inspection.
*/
package simtest

import (
	"sync"
	"testing"

	sim "github.com/db47h/shieldsim"
	"github.com/db47h/shieldsim/bitvec"
	"github.com/db47h/shieldsim/ino"
	"github.com/db47h/shieldsim/shield"
)

var (
	emuOnce sync.Once
	emu     *sim.Emulator
	emuErr  error
)

// Emulator returns the process-wide emulator driving the ino API. All
// harnesses share it; the controller resets it between tests.
//
func Emulator(t *testing.T) *sim.Emulator {
	t.Helper()
	emuOnce.Do(func() {
		emu, emuErr = ino.EmulatorInstance()
	})
	if emuErr != nil {
		t.Fatal(emuErr)
	}
	return emu
}

// Config selects the filter windows of a harness. Zero values pick the
// shield defaults; Raw* bypasses the filters of the corresponding display.
//
type Config struct {
	LedDemuxWindow sim.Time
	LedAggWindow   sim.Time
	SegDemuxWindow sim.Time
	SegAggWindow   sim.Time
	RawLeds        bool
	RawSeg         bool
}

func (c *Config) defaults() {
	if c.LedDemuxWindow == 0 {
		c.LedDemuxWindow = shield.DefaultLedDemuxWindow
	}
	if c.LedAggWindow == 0 {
		c.LedAggWindow = shield.DefaultLedAggWindow
	}
	if c.SegDemuxWindow == 0 {
		c.SegDemuxWindow = shield.DefaultSegDemuxWindow
	}
	if c.SegAggWindow == 0 {
		c.SegAggWindow = shield.DefaultSegAggWindow
	}
}

// A Harness runs one sketch against a fully wired funshield.
//
type Harness struct {
	Controller *sim.Controller
	Shield     *shield.Funshield

	// LedEvents and SegEvents record the refined display states.
	LedEvents *sim.TimeSeries[bitvec.Array]
	SegEvents *sim.TimeSeries[bitvec.Array]
}

// filterChain wires sprout -> demultiplexer -> aggregator -> sink, or the
// sprout straight to the sink when raw.
func filterChain(t *testing.T, n int, demuxWindow, aggWindow sim.Time, raw bool,
	attach func(sim.Consumer[bitvec.Array]) error) *sim.TimeSeries[bitvec.Array] {
	t.Helper()
	sink := sim.NewTimeSeriesFunc(bitvec.Array.Equal)
	if raw {
		if err := attach(sink); err != nil {
			t.Fatal(err)
		}
		return sink
	}
	demux, err := shield.NewDemultiplexer(n, demuxWindow, demuxWindow/10)
	if err != nil {
		t.Fatal(err)
	}
	agg, err := shield.NewAggregator(n, aggWindow)
	if err != nil {
		t.Fatal(err)
	}
	if err := demux.AttachNext(agg); err != nil {
		t.Fatal(err)
	}
	if err := agg.AttachNext(sink); err != nil {
		t.Fatal(err)
	}
	if err := attach(demux); err != nil {
		t.Fatal(err)
	}
	return sink
}

// NewHarness wires a funshield for the given sketch. The shared emulator is
// reset in the process, so harnesses must be used sequentially.
//
func NewHarness(t *testing.T, sketch sim.Sketch, cfg Config) *Harness {
	t.Helper()
	cfg.defaults()

	ctl := sim.NewController(Emulator(t), sketch)
	fs, err := shield.NewFunshield(ctl)
	if err != nil {
		t.Fatal(err)
	}
	h := &Harness{Controller: ctl, Shield: fs}
	h.LedEvents = filterChain(t, len(shield.LedPins), cfg.LedDemuxWindow, cfg.LedAggWindow,
		cfg.RawLeds, fs.Leds().AttachSprout)
	h.SegEvents = filterChain(t, shield.SegDigits*8, cfg.SegDemuxWindow, cfg.SegAggWindow,
		cfg.RawSeg, fs.SegDisplay().AttachSprout)
	return h
}

// Run invokes the sketch's setup and then loops until the clock has
// advanced by period, waiting loopDelay between iterations.
//
func (h *Harness) Run(t *testing.T, period, loopDelay sim.Time) {
	t.Helper()
	if err := h.Controller.RunSetup(loopDelay); err != nil {
		t.Fatal(err)
	}
	if err := h.Controller.RunLoopsForPeriod(period, loopDelay, nil); err != nil {
		t.Fatal(err)
	}
}

// AlmostEqual reports whether a and b differ by at most tolerance.
//
func AlmostEqual(a, b, tolerance sim.Time) bool {
	if a > b {
		a, b = b, a
	}
	return b-a <= tolerance
}
