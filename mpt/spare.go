// Copyright 2026 The go-triedb Authors
// This file is part of go-triedb.
//
// go-triedb is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-triedb is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with go-triedb. If not, see <http://www.gnu.org/licenses/>.

package mpt

import (
	"fmt"
	"math/bits"
)

// PageSpare is a 15-bit (count, shift) mantissa/exponent encoding of a
// disk page count, stored inside the 16-bit Spare field of a child's
// ChunkOffset so a reader holding only the offset can compute an upper
// bound on the number of pages that child occupies without a separate
// size index. The top bit is always reserved zero.
type PageSpare struct {
	Count uint16 // 10 bits, [0, 1023]
	Shift uint16 // 5 bits, [0, 31]
}

const (
	pageSpareMaxCount = (1 << 10) - 1
	pageSpareMaxShift = (1 << 5) - 1
)

// EncodePageSpare encodes an unsigned page count into the (count,
// shift) form, rounding up so that decode(encode(p)) always covers at
// least p pages.
func EncodePageSpare(pages uint32) PageSpare {
	exp := pages >> 10
	shift := uint16(0)
	if exp != 0 {
		shift = uint16(32 - bits.LeadingZeros32(exp))
	}
	count := uint16(pages>>shift) + boolToUint16(pages&((1<<shift)-1) != 0)
	if count > pageSpareMaxCount {
		count >>= 1
		shift++
	}
	if count > pageSpareMaxCount {
		panic(fmt.Sprintf("mpt: page count %d overflows spare encoding after halving", count))
	}
	if shift > pageSpareMaxShift {
		panic(fmt.Sprintf("mpt: page shift %d exceeds 5 bits encoding pages=%d", shift, pages))
	}
	p := PageSpare{Count: count, Shift: shift}
	if p.ToPages() < pages {
		panic(fmt.Sprintf("mpt: page spare encoding underestimates pages=%d got=%d", pages, p.ToPages()))
	}
	return p
}

// ToPages decodes the page count as count << shift.
func (p PageSpare) ToPages() uint32 {
	return uint32(p.Count) << p.Shift
}

// Uint16 packs p into the 16-bit Spare word, with the reserved high bit
// always zero.
func (p PageSpare) Uint16() uint16 {
	return (p.Shift&pageSpareMaxShift)<<10 | (p.Count & pageSpareMaxCount)
}

// PageSpareFromUint16 unpacks a Spare word produced by Uint16 (or read
// from a child's fnext offset) back into a PageSpare.
func PageSpareFromUint16(v uint16) PageSpare {
	return PageSpare{
		Count: v & pageSpareMaxCount,
		Shift: (v >> 10) & pageSpareMaxShift,
	}
}

func boolToUint16(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
