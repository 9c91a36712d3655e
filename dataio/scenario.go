// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package dataio reads scenario files driving a simulated funshield and writes
simulation logs as CSV.

A scenario is a line based text stream, one input event per line, blank
lines ignored:

	<timestamp_us>
	<timestamp_us>  <button 1..3>  <u|d>
	<timestamp_us>  S  <free-form text to end of line>

Timestamps are microseconds and must be monotonic. A line holding only a
timestamp terminates the scenario and sets its end time; without it the end
time is the last event time plus 100ms.
*/
package dataio

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	sim "github.com/db47h/shieldsim"
	"github.com/db47h/shieldsim/shield"
)

// DefaultTrailTime pads the scenario end when no explicit end marker is
// present.
//
const DefaultTrailTime sim.Time = 100 * sim.Millisecond

// An Event is one scheduled scenario input: a button transition, or a chunk
// of serial input when Serial is set.
//
type Event struct {
	Time   sim.Time
	Button int // zero-based; ignored for serial events
	Down   bool
	Serial string
	serial bool
}

// IsSerial reports whether the event carries serial input.
//
func (e Event) IsSerial() bool { return e.serial }

// A Scenario is a parsed input stream: the events to schedule and the
// simulation end time.
//
type Scenario struct {
	Events []Event
	End    sim.Time
}

// Parse reads a scenario from r.
//
func Parse(r io.Reader) (*Scenario, error) {
	sc := bufio.NewScanner(r)
	s := &Scenario{}
	var last sim.Time
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		ts, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid timestamp on line %d", line)
		}
		t := sim.Time(ts)
		if t < last {
			return nil, errors.Errorf(
				"timestamps are not ordered on line %d: timestamp %d is lower than the previous %d",
				line, t, last)
		}
		last = t

		if len(fields) == 1 {
			// a bare timestamp is the end marker
			s.End = t
			return s, sc.Err()
		}

		if fields[1] == "S" {
			rest := strings.TrimSpace(text[len(fields[0]):])
			s.Events = append(s.Events, Event{
				Time:   t,
				Serial: strings.TrimLeft(rest[1:], " \t"),
				serial: true,
			})
			continue
		}

		if len(fields) != 3 {
			return nil, errors.Errorf("malformed input on line %d", line)
		}
		button, err := strconv.Atoi(fields[1])
		if err != nil || button < 1 || button > 3 || (fields[2] != "u" && fields[2] != "d") {
			return nil, errors.Errorf("invalid operation (button #%s action %s) found at line %d",
				fields[1], fields[2], line)
		}
		s.Events = append(s.Events, Event{
			Time:   t,
			Button: button - 1,
			Down:   fields[2] == "d",
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	s.End = last + DefaultTrailTime
	return s, nil
}

// Apply schedules the scenario's events on the shield. Button transitions
// that do not change the button's state are dropped. When record is not
// empty, the button transitions are also recorded into the given series, one
// per button, true meaning pressed.
//
func (s *Scenario) Apply(fs *shield.Funshield, record []*sim.TimeSeries[bool]) error {
	var states [3]bool
	for _, e := range s.Events {
		if e.serial {
			if err := fs.Controller().EnqueueSerialInput(e.Serial, e.Time); err != nil {
				return err
			}
			continue
		}
		if states[e.Button] == e.Down {
			continue
		}
		states[e.Button] = e.Down
		var err error
		if e.Down {
			err = fs.ButtonDown(e.Button, e.Time)
		} else {
			err = fs.ButtonUp(e.Button, e.Time)
		}
		if err != nil {
			return err
		}
		if e.Button < len(record) {
			if err := record[e.Button].AddEvent(e.Time, e.Down); err != nil {
				return err
			}
		}
	}
	return nil
}
