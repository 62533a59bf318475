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

// Package mpt implements the node representation of a generic Merkle
// Patricia Trie used as the building block of a versioned, on-disk
// authenticated key/value store.
package mpt

import "encoding/binary"

// ChunkOffsetSize is the fixed on-disk width of a ChunkOffset: a 4-byte
// chunk id, a 4-byte in-chunk byte offset, and the 2-byte spare word
// reused to hold the page-count encoding (see PageSpare).
const ChunkOffsetSize = 10

// ChunkOffset identifies a physical location in the storage pool. The
// storage pool itself is an external collaborator (see package triedb
// for a stand-in); this type only carries the bits the node needs to
// traverse a child without reading it.
type ChunkOffset struct {
	ID     uint32
	Offset uint32
	Spare  uint16
}

// InvalidOffset is the sentinel ChunkOffset used for children that have
// not yet been flushed to the storage pool.
var InvalidOffset = ChunkOffset{ID: 0xFFFFFFFF, Offset: 0xFFFFFFFF, Spare: 0xFFFF}

// IsValid reports whether o is not the InvalidOffset sentinel.
func (o ChunkOffset) IsValid() bool { return o != InvalidOffset }

func (o ChunkOffset) put(dst []byte) {
	binary.LittleEndian.PutUint32(dst[0:4], o.ID)
	binary.LittleEndian.PutUint32(dst[4:8], o.Offset)
	binary.LittleEndian.PutUint16(dst[8:10], o.Spare)
}

func getChunkOffset(src []byte) ChunkOffset {
	return ChunkOffset{
		ID:     binary.LittleEndian.Uint32(src[0:4]),
		Offset: binary.LittleEndian.Uint32(src[4:8]),
		Spare:  binary.LittleEndian.Uint16(src[8:10]),
	}
}

// CompactVirtualChunkOffsetSize is the fixed on-disk width of a
// CompactVirtualChunkOffset.
const CompactVirtualChunkOffsetSize = 5

// CompactVirtualChunkOffset packs a truncated virtual offset into 5
// bytes. The node caches two of these per child: the fast-list and
// slow-list subtrie minima maintained by the surrounding storage
// layer's two generational free-space lists.
type CompactVirtualChunkOffset [CompactVirtualChunkOffsetSize]byte

// InvalidCompactVirtualOffset is the sentinel value for an unset
// min-offset field.
var InvalidCompactVirtualOffset = CompactVirtualChunkOffset{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// IsValid reports whether c is not the sentinel value.
func (c CompactVirtualChunkOffset) IsValid() bool {
	return c != InvalidCompactVirtualOffset
}

// Uint64 returns the truncated virtual offset as an unsigned 40-bit
// value held in a uint64, little-endian.
func (c CompactVirtualChunkOffset) Uint64() uint64 {
	var buf [8]byte
	copy(buf[:5], c[:])
	return binary.LittleEndian.Uint64(buf[:])
}

// CompactVirtualChunkOffsetFromUint64 truncates v to 40 bits and packs
// it into a CompactVirtualChunkOffset.
func CompactVirtualChunkOffsetFromUint64(v uint64) CompactVirtualChunkOffset {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	var c CompactVirtualChunkOffset
	copy(c[:], buf[:5])
	return c
}
