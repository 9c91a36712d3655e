// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command shieldtester runs a built-in sketch against a simulated funshield
// driven by a scenario file and logs the observed events as CSV.
//
// Exit codes: 0 on success, 1 on scenario or configuration errors, 2 when
// the one-latch-per-loop rule is enabled and violated, 100 on internal
// errors.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/k0kubun/pp/v3"
	"github.com/pkg/profile"

	sim "github.com/db47h/shieldsim"
	"github.com/db47h/shieldsim/bitvec"
	"github.com/db47h/shieldsim/dataio"
	"github.com/db47h/shieldsim/ino"
	"github.com/db47h/shieldsim/shield"
	"github.com/db47h/shieldsim/sketches"
)

var cli struct {
	Scenario string `arg:"" optional:"" help:"Input file with button events (- for stdin)."`

	Sketch string `default:"seglabel" enum:"blink,rotator,seglabel" help:"Built-in sketch to run."`
	Save   string `help:"File to which the simulation log (as CSV) is saved (stdout if not given)." type:"path"`

	SimulationLength uint64 `help:"Length of the simulation [us] (overrides the value from the input file, required if no input file is given)."`
	LoopDelay        uint64 `default:"100" help:"Delay between two loop invocations [us]."`

	LogButtons bool `help:"Add button events to the output log."`
	LogLeds    bool `help:"Add LED events to the output log."`
	Log7seg    bool `name:"log-7seg" help:"Add events of the 7-segment display to the output log."`

	RawLeds              bool   `help:"Deactivate LED event smoothing by demultiplexer and aggregator."`
	LedsDemuxerWindow    uint64 `default:"10" help:"Size of the LED demultiplexing window [ms]."`
	LedsAggregatorWindow uint64 `default:"50" help:"Size of the LED aggregation window [ms]."`

	Raw7seg              bool   `name:"raw-7seg" help:"Deactivate 7-segment event smoothing by demultiplexer and aggregator."`
	Seg7DemuxerWindow    uint64 `name:"7seg-demuxer-window" default:"15" help:"Size of the 7-segment demultiplexing window [ms]."`
	Seg7AggregatorWindow uint64 `name:"7seg-aggregator-window" default:"30" help:"Size of the 7-segment aggregation window [ms]."`

	EnableDelay  bool   `help:"Enable the builtin delay() and delayMicroseconds() functions."`
	OneLatchLoop bool   `help:"Allow only one 7-segment latch activation per loop."`
	ButtonBounce uint64 `help:"Simulated button contact bounce delay [us] (0 disables bouncing)."`

	Profile bool `help:"Write a CPU profile to the current directory."`
	Dump    bool `help:"Dump a simulation summary to stderr."`
}

func main() {
	kong.Parse(&cli,
		kong.Name("shieldtester"),
		kong.Description("Generic funshield sketch tester over an emulated Arduino."))
	os.Exit(run())
}

func fail(code int, format string, args ...interface{}) int {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	return code
}

// filterChain builds sprout -> demultiplexer -> aggregator -> sink, or
// attaches the sink directly when raw.
func filterChain(n int, demuxWindow, aggWindow sim.Time, raw bool,
	attach func(sim.Consumer[bitvec.Array]) error) (*sim.TimeSeries[bitvec.Array], error) {
	sink := sim.NewTimeSeriesFunc(bitvec.Array.Equal)
	if raw {
		return sink, attach(sink)
	}
	demux, err := shield.NewDemultiplexer(n, demuxWindow, demuxWindow/10)
	if err != nil {
		return nil, err
	}
	agg, err := shield.NewAggregator(n, aggWindow)
	if err != nil {
		return nil, err
	}
	if err := demux.AttachNext(agg); err != nil {
		return nil, err
	}
	if err := agg.AttachNext(sink); err != nil {
		return nil, err
	}
	return sink, attach(demux)
}

func run() int {
	if cli.Profile {
		defer profile.Start(profile.ProfilePath(".")).Stop()
	}

	sketch := sketches.ByName(cli.Sketch)
	if sketch == nil {
		return fail(1, "unknown sketch %q", cli.Sketch)
	}

	em, err := ino.EmulatorInstance()
	if err != nil {
		return fail(100, "error: %v", err)
	}
	ctl := sim.NewController(em, sketch)
	if !cli.EnableDelay {
		_ = ctl.DisableMethod("delay")
		_ = ctl.DisableMethod("delayMicroseconds")
	}
	fs, err := shield.NewFunshield(ctl)
	if err != nil {
		return fail(100, "error: %v", err)
	}
	fs.SetButtonBounce(sim.Time(cli.ButtonBounce))

	var record []*sim.TimeSeries[bool]
	if cli.LogButtons {
		record = []*sim.TimeSeries[bool]{
			sim.NewTimeSeries[bool](), sim.NewTimeSeries[bool](), sim.NewTimeSeries[bool](),
		}
	}

	var end sim.Time
	if cli.Scenario != "" {
		var r io.Reader = os.Stdin
		if cli.Scenario != "-" {
			f, err := os.Open(cli.Scenario)
			if err != nil {
				return fail(1, "failed to open input file %s: %v", cli.Scenario, err)
			}
			defer f.Close()
			r = f
		}
		scn, err := dataio.Parse(r)
		if err != nil {
			return fail(1, "%v", err)
		}
		if err := scn.Apply(fs, record); err != nil {
			return fail(100, "error: %v", err)
		}
		end = scn.End
	} else if cli.SimulationLength == 0 {
		return fail(1, "the --simulation-length flag is required when no input file is given")
	}
	if cli.SimulationLength > 0 {
		end = sim.Time(cli.SimulationLength)
	}

	var columns []dataio.Column
	if cli.LogButtons {
		for i, s := range record {
			columns = append(columns, dataio.BoolColumn(fmt.Sprintf("b%d", i+1), s))
		}
	}
	var ledEvents, segEvents *sim.TimeSeries[bitvec.Array]
	if cli.LogLeds {
		ledEvents, err = filterChain(len(shield.LedPins),
			sim.Time(cli.LedsDemuxerWindow)*sim.Millisecond,
			sim.Time(cli.LedsAggregatorWindow)*sim.Millisecond,
			cli.RawLeds, fs.Leds().AttachSprout)
		if err != nil {
			return fail(1, "%v", err)
		}
		columns = append(columns, dataio.StateColumn("leds", ledEvents))
	}
	if cli.Log7seg {
		segEvents, err = filterChain(shield.SegDigits*8,
			sim.Time(cli.Seg7DemuxerWindow)*sim.Millisecond,
			sim.Time(cli.Seg7AggregatorWindow)*sim.Millisecond,
			cli.Raw7seg, fs.SegDisplay().AttachSprout)
		if err != nil {
			return fail(1, "%v", err)
		}
		columns = append(columns, dataio.StateColumn("7seg", segEvents))
	}

	// count latch rising edges per loop iteration
	var (
		latchHigh   = true
		activations int
		loops       int
		violated    int
	)
	latchAnalyzer := sim.NewAnalyzer[sim.PinState](func(_ sim.Time, st sim.PinState) {
		if st.Pin != shield.LatchPin {
			return
		}
		high := st.Value == sim.High
		if !latchHigh && high {
			activations++
		}
		latchHigh = high
	})
	if err := sim.LastConsumer[sim.PinState](fs.SegDisplay()).AttachNext(latchAnalyzer); err != nil {
		return fail(100, "error: %v", err)
	}

	loopDelay := sim.Time(cli.LoopDelay)
	if err := ctl.RunSetup(loopDelay); err != nil {
		return fail(100, "error: %v", err)
	}
	err = ctl.RunLoopsForPeriod(end, loopDelay, func(sim.Time) bool {
		if activations > 1 {
			violated++
		}
		activations = 0
		loops++
		return true
	})
	if err != nil {
		return fail(100, "error: %v", err)
	}

	if cli.OneLatchLoop && violated > 0 {
		fmt.Printf("the single-latch-activation rule was violated in %d loop() invocations\n", violated)
		return 2
	}

	if cli.Dump {
		summary := struct {
			Duration  sim.Time
			Loops     int
			Violated  int
			LedEvents int
			SegEvents int
		}{Duration: ctl.CurrentTime(), Loops: loops, Violated: violated}
		if ledEvents != nil {
			summary.LedEvents = ledEvents.Len()
		}
		if segEvents != nil {
			summary.SegEvents = segEvents.Len()
		}
		pp.Fprintln(os.Stderr, summary)
	}

	if len(columns) == 0 {
		fmt.Println("simulation ended successfully, but no event logging was selected")
		return 0
	}
	out := os.Stdout
	if cli.Save != "" {
		f, err := os.Create(cli.Save)
		if err != nil {
			return fail(100, "error: %v", err)
		}
		defer f.Close()
		out = f
	}
	if err := dataio.WriteEvents(out, ',', columns...); err != nil {
		return fail(100, "error: %v", err)
	}
	return 0
}
