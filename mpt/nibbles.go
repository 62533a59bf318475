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

// NibblesView is a borrowed view of a nibble sequence: a byte buffer
// plus a [start, end) range measured in nibbles. Byte i holds nibble
// 2i in its high 4 bits and nibble 2i+1 in its low 4 bits.
type NibblesView struct {
	Bytes []byte
	Start int
	End   int
}

// NewNibblesView returns a view over the whole of b, nibble 0 through
// the last nibble.
func NewNibblesView(b []byte) NibblesView {
	return NibblesView{Bytes: b, Start: 0, End: len(b) * 2}
}

// Len returns the number of nibbles in the view.
func (v NibblesView) Len() int { return v.End - v.Start }

// Nibble returns the i-th nibble of the view (0-indexed from Start).
func (v NibblesView) Nibble(i int) byte {
	n := v.Start + i
	b := v.Bytes[n/2]
	if n%2 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

// ByteLen returns the number of bytes required to hold the view's
// nibbles: ceil(End/2) - floor(Start/2).
func (v NibblesView) ByteLen() int {
	return (v.End+1)/2 - v.Start/2
}

// Slice returns the sub-view [start, end) of v, measured in nibbles
// relative to v.Start.
func (v NibblesView) Slice(start, end int) NibblesView {
	return NibblesView{Bytes: v.Bytes, Start: v.Start + start, End: v.Start + end}
}

// packedBytes returns the minimal byte slice spanning the view's
// nibble range: Bytes[Start/2 : ceil(End/2)]. This is what gets copied
// verbatim into a node's path region; the region's first byte may have
// an unused high nibble when Start is odd.
func (v NibblesView) packedBytes() []byte {
	return v.Bytes[v.Start/2 : (v.End+1)/2]
}
