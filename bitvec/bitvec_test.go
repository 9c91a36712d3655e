package bitvec_test

import (
	"testing"

	"github.com/db47h/shieldsim/bitvec"
)

func TestArray_fillAndIndex(t *testing.T) {
	a := bitvec.New(12)
	for i := 0; i < 12; i++ {
		if a.Bit(i) {
			t.Fatalf("bit %d of a new array should be clear", i)
		}
	}
	a.Fill(true)
	for i := 0; i < 12; i++ {
		if !a.Bit(i) {
			t.Fatalf("bit %d should be set after Fill(true)", i)
		}
	}
	a.SetBit(3, false)
	if a.Bit(3) {
		t.Fatal("bit 3 should be clear")
	}
	if a.Bit(2) != true || a.Bit(4) != true {
		t.Fatal("neighboring bits clobbered by SetBit")
	}
}

func TestArray_indexOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on out of range index")
		}
	}()
	a := bitvec.New(8)
	_ = a.Bit(8)
}

func TestArray_equalMasksSpareBits(t *testing.T) {
	// 12-bit arrays share a 16-bit backing store; the spare high bits must
	// not take part in equality.
	a := bitvec.New(12)
	b := bitvec.New(12)
	bitvec.SetWord(a, uint16(0xfff), 0, 12)
	bitvec.SetWord(b, uint16(0xffff), 0, 16) // cropped at 12
	if !a.Equal(b) {
		t.Fatal("arrays differing only in spare bits should be equal")
	}
	b.SetBit(11, false)
	if a.Equal(b) {
		t.Fatal("arrays differing in bit 11 should not be equal")
	}
	if a.Equal(bitvec.New(16)) {
		t.Fatal("arrays of different widths should not be equal")
	}
}

func TestArray_words(t *testing.T) {
	td := []struct {
		name   string
		n      int
		v      uint32
		off    int
		cnt    int
		expect uint32
	}{
		{"whole byte", 32, 0xa5, 8, 8, 0xa5},
		{"cropped by count", 32, 0xffff, 0, 4, 0xf},
		{"cropped by width", 12, 0xffffffff, 0, 32, 0xfff},
		{"cropped at end", 16, 0xffff, 12, 8, 0xf},
		{"offset past end", 8, 0xff, 8, 8, 0},
	}
	for _, tt := range td {
		t.Run(tt.name, func(t *testing.T) {
			a := bitvec.New(tt.n)
			bitvec.SetWord(a, tt.v, tt.off, tt.cnt)
			if got := bitvec.Word[uint32](a, tt.off, tt.cnt); got != tt.expect {
				t.Errorf("Word = %#x, expected %#x", got, tt.expect)
			}
		})
	}
}

// set(get(off,cnt),off,cnt) must be an identity on the covered range.
func TestArray_wordRoundTrip(t *testing.T) {
	a := bitvec.New(32)
	bitvec.SetWord(a, uint32(0xdeadbeef), 0, 32)
	for off := 0; off < 32; off += 4 {
		for cnt := 1; cnt <= 16; cnt *= 2 {
			v := bitvec.Word[uint16](a, off, cnt)
			b := a.Clone()
			bitvec.SetWord(b, v, off, cnt)
			if !a.Equal(b) {
				t.Fatalf("round trip at offset %d count %d changed the array", off, cnt)
			}
		}
	}
}

func TestArray_bytes(t *testing.T) {
	a := bitvec.New(32)
	a.SetByte(2, 0xc0)
	if got := a.Byte(2); got != 0xc0 {
		t.Fatalf("Byte(2) = %#x, expected 0xc0", got)
	}
	if got := a.Byte(1); got != 0 {
		t.Fatalf("Byte(1) = %#x, expected 0", got)
	}
}

func TestArray_string(t *testing.T) {
	a := bitvec.New(8)
	a.SetBit(0, true)
	a.SetBit(5, true)
	if got := a.String(); got != "10000100" {
		t.Fatalf("String = %q, expected bits low to high", got)
	}
}

func TestArray_cloneIsIndependent(t *testing.T) {
	a := bitvec.Filled(8, true)
	c := a.Clone()
	a.SetBit(0, false)
	if !c.Bit(0) {
		t.Fatal("mutating the original must not change the clone")
	}
}

func TestShiftRegister_pushCarry(t *testing.T) {
	r := bitvec.NewShiftRegister(4)
	for i, bit := range []bool{true, false, true, true} {
		if r.Push(bit) {
			t.Fatalf("push %d: carry out of a zeroed register should be false", i)
		}
	}
	// register now holds (front to back): 1 1 0 1
	if !r.Push(false) {
		t.Fatal("carry should return the oldest bit (true)")
	}
	if r.Bit(0) {
		t.Fatal("bit 0 should be the last pushed bit (false)")
	}
}

func TestShiftRegister_words(t *testing.T) {
	r := bitvec.NewShiftRegister(16)
	// Shift in two bytes MSB first, glyph then selector, the way shiftOut
	// feeds the display driver.
	push := func(v uint8) {
		for i := 7; i >= 0; i-- {
			r.Push(v>>uint(i)&1 != 0)
		}
	}
	push(0xa4) // glyph
	push(0x02) // digit selector
	if got := bitvec.RegWord[uint8](r, 0); got != 0x02 {
		t.Fatalf("word 0 = %#x, expected the selector byte", got)
	}
	if got := bitvec.RegWord[uint8](r, 1); got != 0xa4 {
		t.Fatalf("word 1 = %#x, expected the glyph byte", got)
	}
}

func TestShiftRegister_croppedWord(t *testing.T) {
	// word 1 covers bits 8..11 only; the word stays little-endian with the
	// missing bits zero-extended at the top
	r := bitvec.NewShiftRegister(12)
	for _, bit := range []bool{true, false, true, true} {
		r.Push(bit)
	}
	for i := 0; i < 8; i++ {
		r.Push(false)
	}
	if got := bitvec.RegWord[uint8](r, 0); got != 0x00 {
		t.Fatalf("word 0 = %#x, expected 0", got)
	}
	if got := bitvec.RegWord[uint8](r, 1); got != 0x0b {
		t.Fatalf("word 1 = %#x, expected 0x0b", got)
	}
}
