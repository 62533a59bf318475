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

import "testing"

func TestPageSpareRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 2, 1023, 1024, 1025, 1_050_000, 1 << 19, (1 << 20) - 1}
	for _, p := range cases {
		enc := EncodePageSpare(p)
		if enc.Count > pageSpareMaxCount {
			t.Fatalf("pages=%d: count %d exceeds max", p, enc.Count)
		}
		if enc.Shift > pageSpareMaxShift {
			t.Fatalf("pages=%d: shift %d exceeds max", p, enc.Shift)
		}
		decoded := enc.ToPages()
		if decoded < p {
			t.Fatalf("pages=%d: decode(encode(p))=%d < p", p, decoded)
		}
		if decoded >= 2*p+1024 {
			t.Fatalf("pages=%d: decode(encode(p))=%d too loose", p, decoded)
		}
	}
}

func TestPageSpareUint16RoundTrip(t *testing.T) {
	p := EncodePageSpare(1_050_000)
	word := p.Uint16()
	if word&0x8000 != 0 {
		t.Fatalf("reserved high bit set: %#04x", word)
	}
	back := PageSpareFromUint16(word)
	if back != p {
		t.Fatalf("round trip mismatch: %+v != %+v", back, p)
	}
	// Round trip through a ChunkOffset's Spare field, as a child's
	// fnext would carry it.
	off := ChunkOffset{ID: 7, Offset: 99, Spare: word}
	var buf [ChunkOffsetSize]byte
	off.put(buf[:])
	got := getChunkOffset(buf[:])
	if got.Spare != word {
		t.Fatalf("spare lost across ChunkOffset round trip: got %#04x want %#04x", got.Spare, word)
	}
}

func FuzzPageSpareRoundTrip(f *testing.F) {
	f.Add(uint32(0))
	f.Add(uint32(1023))
	f.Add(uint32(1_050_000))
	f.Fuzz(func(t *testing.T, pages uint32) {
		pages %= 1 << 20
		enc := EncodePageSpare(pages)
		if enc.ToPages() < pages {
			t.Fatalf("decode(encode(%d)) = %d < pages", pages, enc.ToPages())
		}
	})
}
