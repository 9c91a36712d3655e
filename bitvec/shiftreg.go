// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package bitvec

import "golang.org/x/exp/constraints"

// A ShiftRegister holds a fixed number of bits in push-front / pop-back
// order. Bit 0 is always the most recently pushed bit.
//
type ShiftRegister struct {
	bits []bool
}

// NewShiftRegister returns a register of the given size, all bits cleared.
//
func NewShiftRegister(size int) *ShiftRegister {
	return &ShiftRegister{bits: make([]bool, size)}
}

// Push shifts the register by one position, inserting bit at the front and
// returning the bit carried out at the back.
//
func (r *ShiftRegister) Push(bit bool) bool {
	n := len(r.bits)
	carry := r.bits[n-1]
	copy(r.bits[1:], r.bits[:n-1])
	r.bits[0] = bit
	return carry
}

// Size returns the number of bits in the register.
//
func (r *ShiftRegister) Size() int { return len(r.bits) }

// Bit returns bit i. Bit 0 is the last one pushed in. It panics if i is out
// of range.
//
func (r *ShiftRegister) Bit(i int) bool {
	if i < 0 || i >= len(r.bits) {
		panic("bitvec: register index out of range")
	}
	return r.bits[i]
}

// RegWord reads the idx-th word of the register as an unsigned integer. The
// width of T determines the word alignment: word idx starts at bit
// idx*width. The register bit at the start of the word becomes bit 0 of the
// result (little-endian); a word running past the end of the register is
// zero-extended.
//
func RegWord[T constraints.Unsigned](r *ShiftRegister, idx int) T {
	w := width[T]()
	start := idx * w
	end := start + w
	if end > len(r.bits) {
		end = len(r.bits)
	}
	var res T
	for i := end - 1; i >= start; i-- {
		res <<= 1
		if r.bits[i] {
			res |= 1
		}
	}
	return res
}
