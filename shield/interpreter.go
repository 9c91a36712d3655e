// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package shield

import (
	sim "github.com/db47h/shieldsim"
	"github.com/db47h/shieldsim/bitvec"
)

// 7-segment glyph constants. Segments are active-low; bit 7 is the decimal
// dot.
//
const (
	BlankGlyph uint8 = 0b11111111
	DashGlyph  uint8 = 0b10111111
	DotMask    uint8 = 0b01111111
)

// digitGlyphs maps '0'..'9' to their glyph patterns.
var digitGlyphs = [10]uint8{
	0b11000000, // 0
	0b11111001, // 1
	0b10100100, // 2
	0b10110000, // 3
	0b10011001, // 4
	0b10010010, // 5
	0b10000010, // 6
	0b11111000, // 7
	0b10000000, // 8
	0b10010000, // 9
}

// letterGlyphs maps 'a'..'z' to their glyph patterns.
var letterGlyphs = [26]uint8{
	0b10001000, // a
	0b10000011, // b
	0b11000110, // c
	0b10100001, // d
	0b10000110, // e
	0b10001110, // f
	0b10000010, // g
	0b10001001, // h
	0b11111001, // i
	0b11100001, // j
	0b10000101, // k
	0b11000111, // l
	0b11001000, // m
	0b10101011, // n
	0b10100011, // o
	0b10001100, // p
	0b10011000, // q
	0b10101111, // r
	0b10010010, // s
	0b10000111, // t
	0b11000001, // u
	0b11100011, // v
	0b10000001, // w
	0b10110110, // x
	0b10010001, // y
	0b10100100, // z
}

// Reverse lookup tables, glyph pattern to character.
var (
	lookupDigits = make(map[uint8]byte, len(digitGlyphs))
	lookupOthers = make(map[uint8]byte, len(letterGlyphs)+2)
)

func init() {
	for i, g := range digitGlyphs {
		lookupDigits[g] = '0' + byte(i)
	}
	for i, g := range letterGlyphs {
		lookupOthers[g] = 'a' + byte(i)
	}
	lookupOthers[BlankGlyph] = ' '
	lookupOthers[DashGlyph] = '-'
}

// DigitGlyph returns the glyph pattern showing digit d (0..9).
//
func DigitGlyph(d int) uint8 { return digitGlyphs[d] }

// LetterGlyph returns the glyph pattern showing the lowercase letter ch.
//
func LetterGlyph(ch byte) uint8 { return letterGlyphs[ch-'a'] }

// Interpreter sentinels. Unrecognized glyphs decode in-band rather than
// through errors; testing code inspects the result.
//
const (
	InvalidNumber      = -1
	InvalidChar   byte = 0x7f
)

// An Interpreter reads digits, characters and numbers out of a decoded
// display state (one glyph byte per digit, leftmost first). It is a pure
// wrapper; the underlying array is not modified.
//
type Interpreter struct {
	state bitvec.Array
}

// NewInterpreter wraps a display state snapshot.
//
func NewInterpreter(state bitvec.Array) Interpreter {
	return Interpreter{state: state}
}

// InterpretEvent is shorthand for interpreting the state of a display event.
//
func InterpretEvent(e sim.Event[bitvec.Array]) Interpreter {
	return NewInterpreter(e.Value)
}

// RawDigit returns the raw glyph byte of the digit at idx (0 is leftmost),
// optionally with the decimal dot masked out.
//
func (p Interpreter) RawDigit(idx int, maskDot bool) uint8 {
	g := p.state.Byte(idx)
	if maskDot {
		g |= ^DotMask
	}
	return g
}

// HasDot reports whether the decimal dot of the digit at idx is lit.
//
func (p Interpreter) HasDot(idx int) bool {
	return p.state.Byte(idx)&^DotMask == 0
}

// DotAmbiguous reports whether more than one decimal dot is lit.
//
func (p Interpreter) DotAmbiguous() bool {
	count := 0
	for i := 0; i < SegDigits; i++ {
		if p.HasDot(i) {
			count++
		}
	}
	return count > 1
}

// DotPosition returns the index of the leftmost lit decimal dot. With no dot
// lit it returns the last position, which is the implicit decimal position.
//
func (p Interpreter) DotPosition() int {
	for i := 0; i < SegDigits; i++ {
		if p.HasDot(i) {
			return i
		}
	}
	return SegDigits - 1
}

// Digit returns the numeric value 0-9 shown at idx, or InvalidNumber when
// the glyph is not a digit. A blank reads as 0 iff blankAsZero is set.
//
func (p Interpreter) Digit(idx int, blankAsZero bool) int {
	ch := p.Character(idx, true)
	if blankAsZero && ch == ' ' {
		return 0
	}
	if ch >= '0' && ch <= '9' {
		return int(ch - '0')
	}
	return InvalidNumber
}

// Character returns the character shown at idx: a digit, a lowercase letter,
// a space or a dash, or InvalidChar when the glyph is not recognized. Some
// glyphs read both ways ('s' and '5' share a pattern); preferDigits picks
// which interpretation wins.
//
func (p Interpreter) Character(idx int, preferDigits bool) byte {
	g := p.RawDigit(idx, true)
	d, isDigit := lookupDigits[g]
	o, isOther := lookupOthers[g]
	switch {
	case isDigit && isOther:
		if preferDigits {
			return d
		}
		return o
	case isDigit:
		return d
	case isOther:
		return o
	}
	return InvalidChar
}

// Number decodes the whole display as a signed integer: leading blanks are
// skipped, an optional dash reads as the minus sign, and every remaining
// position must be a digit. Decimal dots are ignored. Returns InvalidNumber
// when the display does not show a number.
//
func (p Interpreter) Number() int {
	idx := 0
	for idx < SegDigits && p.RawDigit(idx, true) == BlankGlyph {
		idx++
	}
	negative := false
	if idx < SegDigits && p.RawDigit(idx, true) == DashGlyph {
		negative = true
		idx++
	}
	if idx >= SegDigits {
		return InvalidNumber
	}
	res := 0
	for ; idx < SegDigits; idx++ {
		d := p.Digit(idx, false)
		if d == InvalidNumber {
			return InvalidNumber
		}
		res = res*10 + d
	}
	if negative {
		return -res
	}
	return res
}

// Text returns the display content as a string. An unrecognized glyph is
// substituted with repl when repl is not zero; otherwise it makes the whole
// result empty.
//
func (p Interpreter) Text(repl byte) string {
	buf := make([]byte, 0, SegDigits)
	for i := 0; i < SegDigits; i++ {
		ch := p.Character(i, false)
		if ch == InvalidChar {
			if repl == 0 {
				return ""
			}
			ch = repl
		}
		buf = append(buf, ch)
	}
	return string(buf)
}
