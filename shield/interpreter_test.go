package shield_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/db47h/shieldsim/bitvec"
	"github.com/db47h/shieldsim/shield"
)

// display builds a 4-digit display state from glyph bytes, leftmost first.
func display(glyphs ...uint8) bitvec.Array {
	st := bitvec.Filled(shield.SegDigits*8, true)
	for i, g := range glyphs {
		st.SetByte(i, g)
	}
	return st
}

func TestInterpreter_digitsAndCharacters(t *testing.T) {
	// " 42 "
	p := shield.NewInterpreter(display(0xff, 0x99, 0xa4, 0xff))
	assert.Equal(t, shield.InvalidNumber, p.Digit(0, false))
	assert.Equal(t, 0, p.Digit(0, true), "blank reads as zero on request")
	assert.Equal(t, 4, p.Digit(1, false))
	assert.Equal(t, 2, p.Digit(2, false))
	assert.Equal(t, byte(' '), p.Character(0, false))
	assert.Equal(t, byte('4'), p.Character(1, false))
	assert.Equal(t, byte('z'), p.Character(2, false), "2 and z share a glyph")
	assert.Equal(t, byte('2'), p.Character(2, true))
}

func TestInterpreter_ambiguousGlyphs(t *testing.T) {
	// 0x92 is both '5' and 's', 0x82 both '6' and 'g'
	p := shield.NewInterpreter(display(0x92, 0x82, 0xf9, 0xff))
	assert.Equal(t, byte('s'), p.Character(0, false))
	assert.Equal(t, byte('5'), p.Character(0, true))
	assert.Equal(t, byte('g'), p.Character(1, false))
	assert.Equal(t, byte('6'), p.Character(1, true))
	assert.Equal(t, byte('i'), p.Character(2, false), "1 and i share a glyph")
}

func TestInterpreter_number(t *testing.T) {
	td := []struct {
		name   string
		glyphs []uint8
		want   int
	}{
		{"plain", []uint8{0xf9, 0xa4, 0xb0, 0x99}, 1234},
		{"leading blanks", []uint8{0xff, 0xff, 0x99, 0xa4}, 42},
		{"negative", []uint8{0xff, 0xbf, 0xf9, 0x92}, -15},
		{"all blank", []uint8{0xff, 0xff, 0xff, 0xff}, shield.InvalidNumber},
		{"lone dash", []uint8{0xff, 0xff, 0xff, 0xbf}, shield.InvalidNumber},
		{"letter inside", []uint8{0xf9, 0x88, 0xb0, 0x99}, shield.InvalidNumber},
		{"blank inside", []uint8{0xf9, 0xff, 0xb0, 0x99}, shield.InvalidNumber},
	}
	for _, tt := range td {
		t.Run(tt.name, func(t *testing.T) {
			p := shield.NewInterpreter(display(tt.glyphs...))
			assert.Equal(t, tt.want, p.Number())
		})
	}
}

func TestInterpreter_numberIgnoresDots(t *testing.T) {
	// "12.34" with the dot on the second digit
	p := shield.NewInterpreter(display(0xf9, 0xa4&0x7f, 0xb0, 0x99))
	assert.Equal(t, 1234, p.Number())
	assert.True(t, p.HasDot(1))
	assert.Equal(t, 1, p.DotPosition())
	assert.False(t, p.DotAmbiguous())
}

func TestInterpreter_dots(t *testing.T) {
	p := shield.NewInterpreter(display(0xff, 0xff, 0xff, 0xff))
	assert.False(t, p.HasDot(0))
	assert.Equal(t, shield.SegDigits-1, p.DotPosition(), "no dot means implicit last position")
	assert.False(t, p.DotAmbiguous())

	p = shield.NewInterpreter(display(0xff&0x7f, 0xff, 0xff&0x7f, 0xff))
	assert.True(t, p.DotAmbiguous())
	assert.Equal(t, 0, p.DotPosition())
}

func TestInterpreter_text(t *testing.T) {
	// "abcd"
	p := shield.NewInterpreter(display(0x88, 0x83, 0xc6, 0xa1))
	assert.Equal(t, "abcd", p.Text(0))

	// unrecognized glyph
	p = shield.NewInterpreter(display(0x88, 0xaa, 0xc6, 0xa1))
	assert.Equal(t, "", p.Text(0))
	assert.Equal(t, "a?cd", p.Text('?'))

	// "-1 5" reads as text too
	p = shield.NewInterpreter(display(0xbf, 0xf9, 0xff, 0x92))
	assert.Equal(t, "-i s", p.Text(0), "letters win without the digit preference")
}

func TestInterpreter_rawDigit(t *testing.T) {
	p := shield.NewInterpreter(display(0x99&0x7f, 0xff, 0xff, 0xff))
	assert.Equal(t, uint8(0x99&0x7f), p.RawDigit(0, false))
	assert.Equal(t, uint8(0x99), p.RawDigit(0, true), "masking hides the dot")
}
