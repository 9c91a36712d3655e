// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bitvec provides fixed-width bit vectors and a serial shift
// register. These are the intermediate state carriers for LED bars and
// multiplexed 7-segment displays: bit 0 is the least significant, and
// following the shield's active-low wiring a false bit means the LED is lit.
//
package bitvec

import (
	"math/bits"
	"strings"

	"golang.org/x/exp/constraints"
)

// An Array is a bit vector of fixed width. The backing store is shared
// between copies, like a slice; use Clone to snapshot a value that outlives
// its producer.
//
type Array struct {
	n    int
	data []byte
}

// New returns an Array of n bits, all cleared.
//
func New(n int) Array {
	return Array{n: n, data: make([]byte, (n+7)/8)}
}

// Filled returns an Array of n bits all set to bit.
//
func Filled(n int, bit bool) Array {
	a := New(n)
	a.Fill(bit)
	return a
}

// Len returns the number of bits in the array.
//
func (a Array) Len() int { return a.n }

// Fill sets every bit of the array to bit.
//
func (a Array) Fill(bit bool) {
	v := byte(0)
	if bit {
		v = 0xff
	}
	for i := range a.data {
		a.data[i] = v
	}
}

// Bit returns bit i. It panics if i is out of range.
//
func (a Array) Bit(i int) bool {
	if i < 0 || i >= a.n {
		panic("bitvec: index out of range")
	}
	return a.data[i/8]>>(uint(i)%8)&1 != 0
}

// SetBit sets bit i to v. It panics if i is out of range.
//
func (a Array) SetBit(i int, v bool) {
	if i < 0 || i >= a.n {
		panic("bitvec: index out of range")
	}
	mask := byte(1) << (uint(i) % 8)
	if v {
		a.data[i/8] |= mask
	} else {
		a.data[i/8] &^= mask
	}
}

// Equal reports whether a and b hold the same bits. Only the defined bits
// take part in the comparison; spare high bits of the last byte are masked
// out. Arrays of different widths are never equal.
//
func (a Array) Equal(b Array) bool {
	if a.n != b.n {
		return false
	}
	for i := 0; i < a.n/8; i++ {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	for i := a.n / 8 * 8; i < a.n; i++ {
		if a.Bit(i) != b.Bit(i) {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of a.
//
func (a Array) Clone() Array {
	c := Array{n: a.n, data: make([]byte, len(a.data))}
	copy(c.data, a.data)
	return c
}

// String formats the array as its bits printed in low-to-high order.
//
func (a Array) String() string {
	var b strings.Builder
	b.Grow(a.n)
	for i := 0; i < a.n; i++ {
		if a.Bit(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// width returns the size of T in bits.
//
func width[T constraints.Unsigned]() int {
	return bits.Len64(uint64(^T(0)))
}

// Word extracts count bits starting at offset and returns them as an
// unsigned word, little-endian: the bit at offset becomes bit 0 of the
// result. The count is cropped by the width of T and by the number of bits
// remaining in the array; cropped high bits read as zero.
//
func Word[T constraints.Unsigned](a Array, offset, count int) T {
	var res T
	if offset < 0 || offset >= a.n {
		return res
	}
	w := width[T]()
	if count > w {
		count = w
	}
	if count > a.n-offset {
		count = a.n - offset
	}
	for count > 0 {
		count--
		res <<= 1
		if a.Bit(offset + count) {
			res |= 1
		}
	}
	return res
}

// SetWord writes count bits of v into the array starting at offset,
// little-endian (bit 0 of v lands at offset). Bits beyond the width of T or
// past the end of the array are dropped.
//
func SetWord[T constraints.Unsigned](a Array, v T, offset, count int) {
	if offset < 0 || offset >= a.n {
		return
	}
	if w := width[T](); count > w {
		count = w
	}
	end := offset + count
	if end > a.n {
		end = a.n
	}
	for ; offset < end; offset++ {
		a.SetBit(offset, v&1 != 0)
		v >>= 1
	}
}

// Byte is shorthand for Word[uint8] over a whole byte at the given byte
// index.
//
func (a Array) Byte(idx int) uint8 {
	return Word[uint8](a, idx*8, 8)
}

// SetByte is shorthand for SetWord[uint8] over a whole byte at the given
// byte index.
//
func (a Array) SetByte(idx int, v uint8) {
	SetWord(a, v, idx*8, 8)
}
