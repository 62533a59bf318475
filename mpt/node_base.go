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
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/erigontech/erigon-lib/common/length"
)

const (
	// MaxNumberOfChildren is the branching factor of the trie: one
	// slot per nibble value.
	MaxNumberOfChildren = 16
	// MaxDataLen is the largest inline cached-hash size a node can
	// carry; data_len is a 6-bit field.
	MaxDataLen = (1 << 6) - 1
	// KeccakSize is the byte length of a Keccak256 digest, used for
	// both path and inline-data sizing in MaxValueLenOfLeaf.
	KeccakSize = length.Hash
	// diskSizeBytes is the width of the on-disk disk_size prefix
	// written ahead of a serialized node body.
	diskSizeBytes = 4
	// headerSize is the fixed portion of a node body: mask,
	// bitpacked, path_nibble_index_end, value_len, version.
	headerSize = 16
	// pointerSize is the logical width of one in-memory child
	// pointer, used only for size accounting (see the REDESIGN FLAG in
	// SPEC_FULL.md: next[] is a separate Go slice, not part of body).
	pointerSize = 8
)

// MaxDiskSize is the ceiling on a node's on-disk body size, same as
// the storage pool's chunk size. It is a package variable rather than
// a constant so tests can exercise the ceiling without allocating real
// 256MiB buffers.
var MaxDiskSize uint64 = 256 * 1024 * 1024

// MaxSize is the ceiling on a node's total live (in-memory) byte
// count: the disk-size ceiling plus room for the next[] pointer array.
func MaxSize() uint64 {
	return MaxDiskSize + MaxNumberOfChildren*KeccakSize
}

// MaxValueLenOfLeaf is the largest value a leaf node can carry, derived
// from the disk-size ceiling minus the fixed overhead of a node whose
// path and inline data are each KeccakSize bytes long — the deepest
// practical case, a state trie leaf.
func MaxValueLenOfLeaf() uint64 {
	overhead := calculateNodeSize(0, 0, 0, KeccakSize, KeccakSize)
	return MaxDiskSize - overhead
}

func pointerSizeTerm(n int) uint64 { return uint64(n) * pointerSize }

// bitpacked mirrors the single on-disk byte: has_value (bit 0),
// path_nibble_index_start (bit 1), data_len (bits 2..7).
type bitpacked struct {
	hasValue   bool
	pathStart  uint8 // 0 or 1
	dataLenVal uint8 // 0..63
}

func decodeBitpacked(b byte) bitpacked {
	return bitpacked{
		hasValue:   b&0x01 != 0,
		pathStart:  (b >> 1) & 0x01,
		dataLenVal: (b >> 2) & 0x3F,
	}
}

func (b bitpacked) encode() byte {
	var v byte
	if b.hasValue {
		v |= 0x01
	}
	v |= (b.pathStart & 0x01) << 1
	v |= (b.dataLenVal & 0x3F) << 2
	return v
}

// NodeBase is the packed, variable-length record shared by Node and
// CacheNode. body holds exactly GetDiskSize() bytes: the fixed header
// followed by the per-child metadata arrays, path, value, inline data,
// and concatenated child data, in the order fixed by the on-disk
// format. It never contains the next[] pointer region — see
// SPEC_FULL.md's REDESIGN FLAGS for why Go's GC forces that region out
// of the packed buffer.
type NodeBase struct {
	body []byte
}

func newNodeBase(size uint64) NodeBase {
	if size > MaxSize() {
		panic(fmt.Sprintf("mpt: node size %d exceeds max size %d", size, MaxSize()))
	}
	return NodeBase{body: make([]byte, size)}
}

func (n *NodeBase) mustChildIndex(i int) {
	if i < 0 || i >= n.NumberOfChildren() {
		panic(fmt.Sprintf("mpt: child index %d out of range [0,%d)", i, n.NumberOfChildren()))
	}
}

// Mask returns the 16-bit child mask: bit b set iff branch b exists.
func (n *NodeBase) Mask() uint16 { return binary.LittleEndian.Uint16(n.body[0:2]) }

func (n *NodeBase) bp() bitpacked { return decodeBitpacked(n.body[2]) }

// NumberOfChildren returns popcount(mask).
func (n *NodeBase) NumberOfChildren() int { return bits.OnesCount16(n.Mask()) }

// ToChildIndex converts a branch nibble (0..15) to its dense child
// index: popcount(mask & ((1<<branch)-1)). Panics if branch is not set
// in mask.
func (n *NodeBase) ToChildIndex(branch uint) int {
	mask := n.Mask()
	if mask&(1<<branch) == 0 {
		panic(fmt.Sprintf("mpt: branch %d not present in mask %#04x", branch, mask))
	}
	return bits.OnesCount16(mask & ((1 << branch) - 1))
}

// HasValue reports whether the node carries a value (possibly empty).
func (n *NodeBase) HasValue() bool { return n.bp().hasValue }

func (n *NodeBase) pathStartBit() int { return int(n.bp().pathStart) }

// PathNibbleIndexEnd is the raw on-disk end-of-path byte.
func (n *NodeBase) PathNibbleIndexEnd() int { return int(n.body[3]) }

// PathNibblesLen returns path_nibble_index_end - path_nibble_index_start.
func (n *NodeBase) PathNibblesLen() int {
	return n.PathNibbleIndexEnd() - n.pathStartBit()
}

// HasPath reports whether the node carries a non-empty path.
func (n *NodeBase) HasPath() bool { return n.PathNibblesLen() > 0 }

// PathStartNibble returns the 0-or-1 start bit used to reconstruct the
// original NibblesView from the stored path bytes.
func (n *NodeBase) PathStartNibble() int { return n.pathStartBit() }

// PathBytes returns the number of bytes used to store the path.
func (n *NodeBase) PathBytes() int {
	end := n.PathNibbleIndexEnd()
	if end == 0 {
		return 0
	}
	return (end + 1) / 2
}

// ValueLen returns the stored value length. May be 0 even when
// HasValue is true.
func (n *NodeBase) ValueLen() int {
	return int(binary.LittleEndian.Uint32(n.body[4:8]))
}

// DataLen returns the length of the inline cached hash.
func (n *NodeBase) DataLen() int { return int(n.bp().dataLenVal) }

// Version returns the block version at which the subtrie was last
// mutated.
func (n *NodeBase) Version() int64 {
	return int64(binary.LittleEndian.Uint64(n.body[8:16]))
}

// SetVersion overwrites the node's version in place.
func (n *NodeBase) SetVersion(v int64) {
	binary.LittleEndian.PutUint64(n.body[8:16], uint64(v))
}

// --- region offsets ---

func (n *NodeBase) childDataOffsetsOff() int { return headerSize }
func (n *NodeBase) minOffsetFastOff() int {
	return n.childDataOffsetsOff() + 2*n.NumberOfChildren()
}
func (n *NodeBase) minOffsetSlowOff() int {
	return n.minOffsetFastOff() + CompactVirtualChunkOffsetSize*n.NumberOfChildren()
}
func (n *NodeBase) minVersionOff() int {
	return n.minOffsetSlowOff() + CompactVirtualChunkOffsetSize*n.NumberOfChildren()
}
func (n *NodeBase) fnextOff() int {
	return n.minVersionOff() + 8*n.NumberOfChildren()
}
func (n *NodeBase) pathOff() int {
	return n.fnextOff() + ChunkOffsetSize*n.NumberOfChildren()
}
func (n *NodeBase) valueOff() int { return n.pathOff() + n.PathBytes() }
func (n *NodeBase) dataOff() int  { return n.valueOff() + n.ValueLen() }
func (n *NodeBase) childDataRegionOff() int { return n.dataOff() + n.DataLen() }

// --- per-child fixed fields ---

// Fnext returns child i's physical chunk offset.
func (n *NodeBase) Fnext(i int) ChunkOffset {
	n.mustChildIndex(i)
	off := n.fnextOff() + i*ChunkOffsetSize
	return getChunkOffset(n.body[off : off+ChunkOffsetSize])
}

// SetFnext overwrites child i's physical chunk offset.
func (n *NodeBase) SetFnext(i int, v ChunkOffset) {
	n.mustChildIndex(i)
	off := n.fnextOff() + i*ChunkOffsetSize
	v.put(n.body[off : off+ChunkOffsetSize])
}

// MinOffsetFast returns child i's fast-list subtrie-minimum compact
// virtual offset.
func (n *NodeBase) MinOffsetFast(i int) CompactVirtualChunkOffset {
	n.mustChildIndex(i)
	off := n.minOffsetFastOff() + i*CompactVirtualChunkOffsetSize
	var c CompactVirtualChunkOffset
	copy(c[:], n.body[off:off+CompactVirtualChunkOffsetSize])
	return c
}

// SetMinOffsetFast overwrites child i's fast-list minimum.
func (n *NodeBase) SetMinOffsetFast(i int, v CompactVirtualChunkOffset) {
	n.mustChildIndex(i)
	off := n.minOffsetFastOff() + i*CompactVirtualChunkOffsetSize
	copy(n.body[off:off+CompactVirtualChunkOffsetSize], v[:])
}

// MinOffsetSlow returns child i's slow-list subtrie-minimum compact
// virtual offset.
func (n *NodeBase) MinOffsetSlow(i int) CompactVirtualChunkOffset {
	n.mustChildIndex(i)
	off := n.minOffsetSlowOff() + i*CompactVirtualChunkOffsetSize
	var c CompactVirtualChunkOffset
	copy(c[:], n.body[off:off+CompactVirtualChunkOffsetSize])
	return c
}

// SetMinOffsetSlow overwrites child i's slow-list minimum.
func (n *NodeBase) SetMinOffsetSlow(i int, v CompactVirtualChunkOffset) {
	n.mustChildIndex(i)
	off := n.minOffsetSlowOff() + i*CompactVirtualChunkOffsetSize
	copy(n.body[off:off+CompactVirtualChunkOffsetSize], v[:])
}

// SubtrieMinVersion returns the minimum version across child i's
// subtrie, as cached at construction time.
func (n *NodeBase) SubtrieMinVersion(i int) int64 {
	n.mustChildIndex(i)
	off := n.minVersionOff() + i*8
	return int64(binary.LittleEndian.Uint64(n.body[off : off+8]))
}

// SetSubtrieMinVersion overwrites child i's cached subtrie-minimum
// version.
func (n *NodeBase) SetSubtrieMinVersion(i int, v int64) {
	n.mustChildIndex(i)
	off := n.minVersionOff() + i*8
	binary.LittleEndian.PutUint64(n.body[off:off+8], uint64(v))
}

// --- variable-length child data ---

// ChildDataOffset returns the byte offset, relative to the start of
// the child-data region, of child i's cached bytes.
func (n *NodeBase) ChildDataOffset(i int) int {
	n.mustChildIndex(i)
	off := n.childDataOffsetsOff() + i*2
	return int(binary.LittleEndian.Uint16(n.body[off : off+2]))
}

func (n *NodeBase) setChildDataOffset(i int, v uint16) {
	off := n.childDataOffsetsOff() + i*2
	binary.LittleEndian.PutUint16(n.body[off:off+2], v)
}

// ChildDataLen returns the length of child i's cached bytes: the
// difference between consecutive offsets, or the remainder of the
// child-data region for the last child.
func (n *NodeBase) ChildDataLen(i int) int {
	n.mustChildIndex(i)
	start := n.ChildDataOffset(i)
	nChildren := n.NumberOfChildren()
	var end int
	if i+1 < nChildren {
		end = n.ChildDataOffset(i + 1)
	} else {
		end = len(n.body) - n.childDataRegionOff()
	}
	return end - start
}

// ChildData returns child i's cached bytes.
func (n *NodeBase) ChildData(i int) []byte {
	start := n.childDataRegionOff() + n.ChildDataOffset(i)
	length := n.ChildDataLen(i)
	return n.body[start : start+length]
}

// ChildDataView is an alias of ChildData kept for parity with the
// original's distinct read-only accessor.
func (n *NodeBase) ChildDataView(i int) []byte { return n.ChildData(i) }

// SetChildData overwrites child i's cached bytes in place. data must
// have exactly the same length already allocated for that child — the
// node is a fixed-size record and cannot grow a region after
// construction.
func (n *NodeBase) SetChildData(i int, data []byte) {
	dst := n.ChildData(i)
	if len(data) != len(dst) {
		panic(fmt.Sprintf("mpt: child %d data length %d does not match allocated length %d", i, len(data), len(dst)))
	}
	copy(dst, data)
}

// --- path / value / inline data ---

// PathData returns the raw path bytes as stored on disk (the high
// nibble of the first byte is unused when PathStartNibble() == 1).
func (n *NodeBase) PathData() []byte {
	off := n.pathOff()
	return n.body[off : off+n.PathBytes()]
}

// PathNibbleView reconstructs the logical NibblesView over the stored
// path bytes.
func (n *NodeBase) PathNibbleView() NibblesView {
	s := n.PathStartNibble()
	return NibblesView{Bytes: n.PathData(), Start: s, End: s + n.PathNibblesLen()}
}

// ValueData returns the raw value bytes.
func (n *NodeBase) ValueData() []byte {
	off := n.valueOff()
	return n.body[off : off+n.ValueLen()]
}

// Value returns the stored value bytes; only meaningful when
// HasValue() is true.
func (n *NodeBase) Value() []byte { return n.ValueData() }

// OptValue returns the stored value, or nil if the node has no value.
// The second result is HasValue(): "no value" is (nil, false), and an
// empty value is a non-nil empty slice with true.
func (n *NodeBase) OptValue() ([]byte, bool) {
	if !n.HasValue() {
		return nil, false
	}
	v := n.Value()
	if v == nil {
		v = []byte{}
	}
	return v, true
}

// DataData returns the raw inline cached-hash bytes.
func (n *NodeBase) DataData() []byte {
	off := n.dataOff()
	return n.body[off : off+n.DataLen()]
}

// Data is an alias of DataData for parity with the original accessor
// naming.
func (n *NodeBase) Data() []byte { return n.DataData() }

// --- size accounting ---

// GetDiskSize returns the node's on-disk body length: the number of
// bytes serialized after the 4-byte disk_size prefix.
func (n *NodeBase) GetDiskSize() uint32 {
	return uint32(len(n.body))
}

// GetMemSize returns the node's total live byte count, including the
// logical next[] pointer region (physically a separate Go slice; see
// SPEC_FULL.md).
func (n *NodeBase) GetMemSize() uint64 {
	return uint64(len(n.body)) + pointerSizeTerm(n.NumberOfChildren())
}

// bodyBytes exposes the packed body for serialization and copying.
// Unexported: callers outside the package go through
// SerializeNodeToBuffer / CopyNode.
func (n *NodeBase) bodyBytes() []byte { return n.body }
