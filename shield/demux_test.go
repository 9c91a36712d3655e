package shield_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sim "github.com/db47h/shieldsim"
	"github.com/db47h/shieldsim/bitvec"
	"github.com/db47h/shieldsim/shield"
)

// litState returns an n-bit LED state with the LEDs in onMask lit. The
// shield is active-low, so a lit LED is a cleared bit.
func litState(n int, onMask uint) bitvec.Array {
	st := bitvec.Filled(n, true)
	for i := 0; i < n; i++ {
		if onMask>>uint(i)&1 != 0 {
			st.SetBit(i, false)
		}
	}
	return st
}

func stateSink() *sim.TimeSeries[bitvec.Array] {
	return sim.NewTimeSeriesFunc(bitvec.Array.Equal)
}

func TestNewDemultiplexer_validation(t *testing.T) {
	_, err := shield.NewDemultiplexer(4, 0, 0)
	assert.Error(t, err, "zero window")
	_, err = shield.NewDemultiplexer(4, 100, 0)
	assert.Error(t, err, "zero threshold")
	_, err = shield.NewDemultiplexer(4, 100, 101)
	assert.Error(t, err, "threshold above window")
	_, err = shield.NewDemultiplexer(4, 100, 100)
	assert.NoError(t, err, "threshold equal to window is legal")
}

func TestDemultiplexer_multiplexedPattern(t *testing.T) {
	d, err := shield.NewDemultiplexer(4, 20, 2)
	require.NoError(t, err)
	out := stateSink()
	require.NoError(t, d.AttachNext(out))

	// LEDs 1 and 2 multiplexed at 1us alternation, then LEDs 0 and 3
	for ts := sim.Time(1); ts < 1000; ts++ {
		mask := uint(0b0010)
		if ts%2 == 0 {
			mask = 0b0100
		}
		require.NoError(t, d.AddEvent(ts, litState(4, mask)))
	}
	for ts := sim.Time(1000); ts < 2000; ts++ {
		mask := uint(0b0001)
		if ts%2 == 0 {
			mask = 0b1000
		}
		require.NoError(t, d.AddEvent(ts, litState(4, mask)))
	}
	require.NoError(t, d.AdvanceTime(2100))

	require.Equal(t, 2, out.Len(), "exactly one demuxed change per pattern switch")
	first, second := out.At(0), out.At(1)
	assert.True(t, first.Value.Equal(litState(4, 0b0110)), "got %v", first.Value)
	assert.Less(t, uint64(first.Time), uint64(22))
	assert.True(t, second.Value.Equal(litState(4, 0b1001)), "got %v", second.Value)
	assert.Greater(t, uint64(second.Time), uint64(1000))
	assert.Less(t, uint64(second.Time), uint64(1022))
}

func TestDemultiplexer_idleTailIsSilent(t *testing.T) {
	d, err := shield.NewDemultiplexer(4, 100, 10)
	require.NoError(t, err)
	out := stateSink()
	require.NoError(t, d.AttachNext(out))

	// multiplex LEDs 0 and 1, then stop driving the pins altogether
	for ts := sim.Time(1); ts < 200; ts++ {
		mask := uint(0b0001)
		if ts%2 == 0 {
			mask = 0b0010
		}
		require.NoError(t, d.AddEvent(ts, litState(4, mask)))
	}
	require.NoError(t, d.AdvanceTime(10000))

	// the raw state left over by the last event must not keep integrating
	// into fresh windows during the idle gap
	require.Equal(t, 1, out.Len(), "no emission after the input stops")
	assert.True(t, out.At(0).Value.Equal(litState(4, 0b0011)), "got %v", out.At(0).Value)
	assert.Equal(t, sim.Time(101), out.At(0).Time)
}

func TestDemultiplexer_steadyState(t *testing.T) {
	d, err := shield.NewDemultiplexer(4, 100, 10)
	require.NoError(t, err)
	out := stateSink()
	require.NoError(t, d.AttachNext(out))

	require.NoError(t, d.AddEvent(0, litState(4, 0b0001)))
	require.NoError(t, d.AdvanceTime(1000))
	require.Equal(t, 1, out.Len(), "a steady state emits exactly once")
	assert.Equal(t, sim.Time(100), out.At(0).Time)
	assert.True(t, out.At(0).Value.Equal(litState(4, 0b0001)))
}

func TestDemultiplexer_belowThreshold(t *testing.T) {
	d, err := shield.NewDemultiplexer(4, 100, 50)
	require.NoError(t, err)
	out := stateSink()
	require.NoError(t, d.AttachNext(out))

	// LED 0 lit for 10us out of every 100us window: never reaches the
	// 50us threshold
	for ts := sim.Time(0); ts < 1000; ts += 100 {
		require.NoError(t, d.AddEvent(ts, litState(4, 0b0001)))
		require.NoError(t, d.AddEvent(ts+10, litState(4, 0)))
	}
	require.NoError(t, d.AdvanceTime(2000))
	assert.Equal(t, 0, out.Len())
}

func TestDemultiplexer_widthMismatch(t *testing.T) {
	d, err := shield.NewDemultiplexer(4, 100, 10)
	require.NoError(t, err)
	assert.Error(t, d.AddEvent(0, litState(8, 0)))
}

func TestDemultiplexer_causality(t *testing.T) {
	d, err := shield.NewDemultiplexer(4, 100, 10)
	require.NoError(t, err)
	require.NoError(t, d.AddEvent(500, litState(4, 0)))
	assert.Error(t, d.AddEvent(400, litState(4, 0)))
	assert.Error(t, d.AdvanceTime(400))
}

func TestAggregator_debounce(t *testing.T) {
	a, err := shield.NewAggregator(4, 50)
	require.NoError(t, err)
	out := stateSink()
	require.NoError(t, a.AttachNext(out))

	// rapid flicker within one window collapses into the final state
	require.NoError(t, a.AddEvent(0, litState(4, 0b0001)))
	require.NoError(t, a.AddEvent(10, litState(4, 0b0010)))
	require.NoError(t, a.AddEvent(20, litState(4, 0b0001)))
	require.NoError(t, a.AdvanceTime(200))

	require.Equal(t, 1, out.Len())
	assert.Equal(t, sim.Time(50), out.At(0).Time)
	assert.True(t, out.At(0).Value.Equal(litState(4, 0b0001)))
}

func TestAggregator_minimumSpacing(t *testing.T) {
	const window = sim.Time(50)
	a, err := shield.NewAggregator(4, window)
	require.NoError(t, err)
	out := stateSink()
	require.NoError(t, a.AttachNext(out))

	mask := uint(1)
	for ts := sim.Time(0); ts < 1000; ts += 7 {
		require.NoError(t, a.AddEvent(ts, litState(4, mask)))
		mask = mask%8 + 1
	}
	require.NoError(t, a.AdvanceTime(2000))

	require.True(t, out.Len() > 1)
	for i := 1; i < out.Len(); i++ {
		assert.True(t, out.At(i).Time-out.At(i-1).Time >= window,
			"events %d and %d closer than the window", i-1, i)
	}
}

func TestAggregator_suppressesNoChange(t *testing.T) {
	a, err := shield.NewAggregator(4, 50)
	require.NoError(t, err)
	out := stateSink()
	require.NoError(t, a.AttachNext(out))

	require.NoError(t, a.AddEvent(0, litState(4, 0b0001)))
	require.NoError(t, a.AdvanceTime(100))
	require.NoError(t, a.AddEvent(200, litState(4, 0b0001)))
	require.NoError(t, a.AdvanceTime(400))
	assert.Equal(t, 1, out.Len(), "re-asserting the emitted state is silent")
}
