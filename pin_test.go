package shieldsim_test

import (
	"testing"

	sim "github.com/db47h/shieldsim"
)

func TestPin_modeRules(t *testing.T) {
	p := sim.NewPin(13, sim.Output)
	if _, err := p.Read(); err == nil {
		t.Fatal("reading before pinMode should fail")
	}
	if err := p.SetMode(42); err == nil {
		t.Fatal("invalid mode should fail")
	}
	if err := p.SetMode(sim.Output); err != nil {
		t.Fatal(err)
	}
	if err := p.SetMode(sim.Input); err == nil {
		t.Fatal("mode changes at runtime should fail")
	}
	if err := p.SetMode(sim.Output); err != nil {
		t.Fatal("re-asserting the same mode is legal:", err)
	}
	if _, err := p.Read(); err == nil {
		t.Fatal("reading an output pin should fail")
	}
}

func TestPin_inputWiring(t *testing.T) {
	p := sim.NewPin(15, sim.Input)
	if err := p.SetMode(sim.Output); err == nil {
		t.Fatal("an input-wired pin must not become an output")
	}
	if err := p.SetMode(sim.Input); err != nil {
		t.Fatal(err)
	}
	if v, err := p.Read(); err != nil || v != sim.High {
		t.Fatalf("a fresh input pin should read High (pull-up), got %d, %v", v, err)
	}
	if err := p.Write(sim.Low, 0); err == nil {
		t.Fatal("writing an input pin should fail")
	}
}

func TestPin_writeRecordsEvents(t *testing.T) {
	p := sim.NewPin(13, sim.Output)
	ts := sim.NewTimeSeries[sim.PinState]()
	if err := p.AttachNext(ts); err != nil {
		t.Fatal(err)
	}
	if err := p.SetMode(sim.Output); err != nil {
		t.Fatal(err)
	}
	if err := p.Write(sim.High, 100); err != nil {
		t.Fatal(err)
	}
	if err := p.Write(sim.Low, 200); err != nil {
		t.Fatal(err)
	}
	if ts.Len() != 2 {
		t.Fatalf("expected 2 recorded events, got %d", ts.Len())
	}
	if e := ts.At(0); e.Time != 100 || e.Value.Pin != 13 || e.Value.Value != sim.High {
		t.Fatalf("unexpected first event %v at %d", e.Value, e.Time)
	}
	if p.Value() != sim.Low {
		t.Fatalf("pin value should track the last write, got %d", p.Value())
	}
}

func TestPin_addEventUpdatesValue(t *testing.T) {
	p := sim.NewPin(15, sim.Input)
	if err := p.SetMode(sim.Input); err != nil {
		t.Fatal(err)
	}
	if err := p.AddEvent(10, sim.PinState{Pin: 15, Value: sim.Low}); err != nil {
		t.Fatal(err)
	}
	if v, _ := p.Read(); v != sim.Low {
		t.Fatalf("incoming event should update the pin value, got %d", v)
	}
	// events addressed to another pin pass through without touching the value
	if err := p.AddEvent(20, sim.PinState{Pin: 16, Value: sim.High}); err != nil {
		t.Fatal(err)
	}
	if v, _ := p.Read(); v != sim.Low {
		t.Fatalf("foreign event should not update the pin value, got %d", v)
	}
	if err := p.AddEvent(5, sim.PinState{Pin: 15, Value: sim.High}); err == nil {
		t.Fatal("events must not move time backward")
	}
}
