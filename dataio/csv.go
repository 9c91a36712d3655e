// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package dataio

import (
	"encoding/csv"
	"io"
	"strconv"

	sim "github.com/db47h/shieldsim"
	"github.com/db47h/shieldsim/bitvec"
)

// A Column names one recorded time-series for CSV output and stringifies
// its values.
//
type Column interface {
	Name() string
	Len() int
	Time(i int) sim.Time
	Value(i int) string
}

type column[V any] struct {
	name   string
	events *sim.TimeSeries[V]
	format func(V) string
}

func (c column[V]) Name() string        { return c.name }
func (c column[V]) Len() int            { return c.events.Len() }
func (c column[V]) Time(i int) sim.Time { return c.events.At(i).Time }
func (c column[V]) Value(i int) string  { return c.format(c.events.At(i).Value) }

// NewColumn adapts a time-series into a named CSV column using format to
// stringify the values.
//
func NewColumn[V any](name string, events *sim.TimeSeries[V], format func(V) string) Column {
	return column[V]{name: name, events: events, format: format}
}

// BoolColumn adapts a series of booleans; values serialize as 0 and 1.
//
func BoolColumn(name string, events *sim.TimeSeries[bool]) Column {
	return NewColumn(name, events, func(v bool) string {
		if v {
			return "1"
		}
		return "0"
	})
}

// StateColumn adapts a series of LED states; values serialize as their bit
// strings, low bit first.
//
func StateColumn(name string, events *sim.TimeSeries[bitvec.Array]) Column {
	return NewColumn(name, events, bitvec.Array.String)
}

// WriteEvents merges the columns into one CSV table on w. The first column
// is always the timestamp; the remaining ones appear in the given order. One
// row is emitted per distinct event timestamp, with empty cells for columns
// that have no event there.
//
func WriteEvents(w io.Writer, delimiter rune, columns ...Column) error {
	cw := csv.NewWriter(w)
	if delimiter != 0 {
		cw.Comma = delimiter
	}

	header := make([]string, 1, len(columns)+1)
	header[0] = "timestamp"
	for _, c := range columns {
		header = append(header, c.Name())
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	idx := make([]int, len(columns))
	row := make([]string, len(columns)+1)
	for {
		// find the earliest unprocessed timestamp across all columns
		ts, done := sim.Time(0), true
		for i, c := range columns {
			if idx[i] < c.Len() {
				if t := c.Time(idx[i]); done || t < ts {
					ts = t
				}
				done = false
			}
		}
		if done {
			break
		}

		row[0] = strconv.FormatUint(uint64(ts), 10)
		for i, c := range columns {
			row[i+1] = ""
			if idx[i] < c.Len() && c.Time(idx[i]) == ts {
				row[i+1] = c.Value(idx[i])
				idx[i]++
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
