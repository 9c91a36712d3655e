// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package ino

import (
	"fmt"

	"github.com/pkg/errors"
)

// Serial is the board's serial line, mirroring the Arduino Serial object.
// Reads come from the emulator's receive buffer, filled by the test harness;
// writes are collected in a transcript the harness can inspect.
//
var Serial SerialPort

// SerialPort implements the Serial mock. The zero value is ready to use once
// the serial gate is open.
//
type SerialPort struct {
	baud uint32
	tx   []byte
}

// Begin records the baud rate. The emulated line needs no actual setup.
//
func (s *SerialPort) Begin(baud uint32) {
	s.baud = baud
}

// Available returns the number of bytes waiting to be read.
//
func (s *SerialPort) Available() int {
	n, err := emu.SerialAvailable()
	check(err)
	return n
}

// Read pops the next byte from the receive buffer, or -1 when it is empty.
//
func (s *SerialPort) Read() int {
	b, err := emu.SerialRead()
	check(err)
	return b
}

// Print appends the textual form of v to the transcript.
//
func (s *SerialPort) Print(v interface{}) {
	if !emu.SerialEnabled() {
		check(errors.New("emulator violation: the Serial() function is disabled in the emulator"))
	}
	s.tx = append(s.tx, fmt.Sprint(v)...)
}

// Println appends the textual form of v and a newline to the transcript.
//
func (s *SerialPort) Println(v interface{}) {
	s.Print(v)
	s.tx = append(s.tx, '\n')
}

// Transcript returns everything the sketch has printed so far.
//
func (s *SerialPort) Transcript() string { return string(s.tx) }

// ClearTranscript drops the collected output.
//
func (s *SerialPort) ClearTranscript() { s.tx = s.tx[:0] }
