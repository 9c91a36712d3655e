// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shield

import (
	"github.com/pkg/errors"

	sim "github.com/db47h/shieldsim"
)

// DefaultClickDuration is how long a button stays down during a click.
//
const DefaultClickDuration sim.Time = 100 * sim.Millisecond

// A Funshield wires the whole shield onto a simulation controller: buttons
// as input pins, LEDs and the display's serial line as output pins, with
// both display adapters attached as pin consumers. It also schedules button
// gestures, optionally with contact bounce.
//
type Funshield struct {
	ctl    *sim.Controller
	leds   *LedDisplay
	seg    *SegDisplay
	bounce sim.Time // delay between bounce transitions, 0 disables bouncing
}

// NewFunshield registers the shield's pins with the controller and attaches
// the display adapters.
//
func NewFunshield(ctl *sim.Controller) (*Funshield, error) {
	for _, pin := range ButtonPins {
		if err := ctl.RegisterPin(pin, sim.Input); err != nil {
			return nil, err
		}
	}
	for _, pin := range LedPins {
		if err := ctl.RegisterPin(pin, sim.Output); err != nil {
			return nil, err
		}
	}
	for _, pin := range []uint8{LatchPin, ClockPin, DataPin} {
		if err := ctl.RegisterPin(pin, sim.Output); err != nil {
			return nil, err
		}
	}

	leds, err := NewLedDisplay(LedPins)
	if err != nil {
		return nil, err
	}
	if err := leds.Attach(ctl); err != nil {
		return nil, err
	}
	seg := NewSegDisplay(DataPin, ClockPin, LatchPin)
	if err := seg.Attach(ctl); err != nil {
		return nil, err
	}
	return &Funshield{ctl: ctl, leds: leds, seg: seg}, nil
}

// Controller returns the underlying simulation controller.
//
func (f *Funshield) Controller() *sim.Controller { return f.ctl }

// Leds returns the display grouping the four independent LEDs.
//
func (f *Funshield) Leds() *LedDisplay { return f.leds }

// SegDisplay returns the 7-segment display adapter.
//
func (f *Funshield) SegDisplay() *SegDisplay { return f.seg }

// SetButtonBounce sets the delay between the extra contact transitions
// simulated on every button press and release. Zero disables bouncing.
//
func (f *Funshield) SetButtonBounce(delay sim.Time) { f.bounce = delay }

func (f *Funshield) buttonPin(button int) (uint8, error) {
	if button < 0 || button >= len(ButtonPins) {
		return 0, errors.Errorf("no button %d on the shield", button)
	}
	return ButtonPins[button], nil
}

// down schedules the press transition, with three extra release/press pairs
// when bouncing.
func (f *Funshield) down(button int, after sim.Time, bouncing bool) error {
	pin, err := f.buttonPin(button)
	if err != nil {
		return err
	}
	if err := f.ctl.EnqueuePinChange(pin, sim.Low, after); err != nil {
		return err
	}
	if bouncing && f.bounce > 0 {
		delay := after
		for i := 0; i < 3; i++ {
			delay += f.bounce
			if err := f.up(button, delay, false); err != nil {
				return err
			}
			delay += f.bounce
			if err := f.down(button, delay, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// up schedules the release transition, with three extra press/release pairs
// when bouncing.
func (f *Funshield) up(button int, after sim.Time, bouncing bool) error {
	pin, err := f.buttonPin(button)
	if err != nil {
		return err
	}
	if err := f.ctl.EnqueuePinChange(pin, sim.High, after); err != nil {
		return err
	}
	if bouncing && f.bounce > 0 {
		delay := after
		for i := 0; i < 3; i++ {
			delay += f.bounce
			if err := f.down(button, delay, false); err != nil {
				return err
			}
			delay += f.bounce
			if err := f.up(button, delay, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// ButtonDown schedules a button press after the given delay.
//
func (f *Funshield) ButtonDown(button int, after sim.Time) error {
	return f.down(button, after, true)
}

// ButtonUp schedules a button release after the given delay.
//
func (f *Funshield) ButtonUp(button int, after sim.Time) error {
	return f.up(button, after, true)
}

// ButtonClick schedules a press and a release, the release following the
// press by duration. Bouncing is applied only when the bounce transitions
// fit comfortably within the press duration.
//
func (f *Funshield) ButtonClick(button int, duration, after sim.Time) error {
	bouncing := f.bounce > 0 && f.bounce*10 <= duration
	if err := f.down(button, after, bouncing); err != nil {
		return err
	}
	return f.up(button, after+duration, bouncing)
}
