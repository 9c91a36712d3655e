package shieldsim_test

import (
	"testing"

	sim "github.com/db47h/shieldsim"
)

func TestChain_attachDetach(t *testing.T) {
	a := sim.NewRelay[int]()
	b := sim.NewRelay[int]()
	c := sim.NewRelay[int]()

	if err := a.AttachNext(b); err != nil {
		t.Fatal(err)
	}
	if err := a.AttachNext(c); err == nil {
		t.Fatal("attaching to an occupied slot should fail")
	}
	if err := b.AttachNext(c); err != nil {
		t.Fatal(err)
	}
	if last := sim.LastConsumer[int](a); last != sim.Consumer[int](c) {
		t.Fatal("LastConsumer should walk to the end of the chain")
	}
	if err := b.DetachNext(); err != nil {
		t.Fatal(err)
	}
	if err := b.DetachNext(); err == nil {
		t.Fatal("detaching an empty slot should fail")
	}
	if last := sim.LastConsumer[int](a); last != sim.Consumer[int](b) {
		t.Fatal("chain should end at b after detach")
	}
}

func TestChain_causality(t *testing.T) {
	r := sim.NewRelay[int]()
	if err := r.AddEvent(100, 1); err != nil {
		t.Fatal(err)
	}
	if err := r.AddEvent(50, 2); err == nil {
		t.Fatal("events must not move time backward")
	}
	if err := r.AdvanceTime(50); err == nil {
		t.Fatal("time notifications must not move backward")
	}
	if err := r.AdvanceTime(100); err != nil {
		t.Fatal("advancing to the same instant is legal:", err)
	}
}

func TestChain_propagation(t *testing.T) {
	r := sim.NewRelay[int]()
	ts := sim.NewTimeSeries[int]()
	if err := r.AttachNext(ts); err != nil {
		t.Fatal(err)
	}
	for i, ev := range []struct {
		t sim.Time
		v int
	}{{10, 1}, {20, 2}, {30, 3}} {
		if err := r.AddEvent(ev.t, ev.v); err != nil {
			t.Fatalf("event %d: %v", i, err)
		}
	}
	if ts.Len() != 3 {
		t.Fatalf("series recorded %d events, expected 3", ts.Len())
	}
	r.Clear()
	if ts.Len() != 0 {
		t.Fatal("clear should propagate down the chain")
	}
}

func TestAnalyzer(t *testing.T) {
	var seen []int
	a := sim.NewAnalyzer[int](func(_ sim.Time, v int) { seen = append(seen, v) })
	ts := sim.NewTimeSeries[int]()
	if err := a.AttachNext(ts); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= 3; i++ {
		if err := a.AddEvent(sim.Time(i*10), i); err != nil {
			t.Fatal(err)
		}
	}
	if len(seen) != 3 || seen[0] != 1 || seen[2] != 3 {
		t.Fatalf("callback saw %v, expected [1 2 3]", seen)
	}
	if ts.Len() != 3 {
		t.Fatal("analyzer must forward the stream unchanged")
	}
}

type intFork struct {
	sim.Hub[int]
	sim.Sprout[string]
}

func (f *intFork) AddEvent(t sim.Time, v int) error { return f.Emit(t, v) }
func (f *intFork) AdvanceTime(t sim.Time) error     { return f.Advance(t) }
func (f *intFork) Clear()                           { f.ClearNext(); f.ClearSprout() }

func TestSprout_attachDetach(t *testing.T) {
	f := &intFork{}
	s := sim.NewTimeSeries[string]()
	if err := f.AttachSprout(s); err != nil {
		t.Fatal(err)
	}
	if err := f.AttachSprout(s); err == nil {
		t.Fatal("attaching to an occupied sprout should fail")
	}
	if f.SproutConsumer() == nil {
		t.Fatal("sprout consumer should be set")
	}
	if err := f.DetachSprout(); err != nil {
		t.Fatal(err)
	}
	if err := f.DetachSprout(); err == nil {
		t.Fatal("detaching an empty sprout should fail")
	}
}

func TestSprout_isNotFedAutomatically(t *testing.T) {
	f := &intFork{}
	spr := sim.NewTimeSeries[string]()
	next := sim.NewTimeSeries[int]()
	if err := f.AttachSprout(spr); err != nil {
		t.Fatal(err)
	}
	if err := f.AttachNext(next); err != nil {
		t.Fatal(err)
	}
	if err := f.AddEvent(10, 42); err != nil {
		t.Fatal(err)
	}
	if next.Len() != 1 {
		t.Fatal("event should flow to next")
	}
	if spr.Len() != 0 {
		t.Fatal("sprout emission is the filter's responsibility, not automatic")
	}
}
