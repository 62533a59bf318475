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

import "math"

// InvalidBranch marks a ChildData slot that has not been assigned a
// branch nibble yet.
const InvalidBranch = 0xFF

// ChildData is a fixed-size staging record carrying everything needed
// to install one touched child into a newly built parent during an
// update. It owns the freshly built child Node (if any) until
// Finalize/CreateNodeWithChildren installs or discards it.
type ChildData struct {
	Ptr    *Node       // owning handle to the freshly built child; nil once moved/freed
	Offset ChunkOffset // physical offset, INVALID_OFFSET until flushed

	data []byte // up to 32 bytes of cached hash data
	len  uint8

	SubtrieMinVersion int64
	MinOffsetFast     CompactVirtualChunkOffset
	MinOffsetSlow     CompactVirtualChunkOffset

	Branch uint8 // 0..15, or InvalidBranch
	// CacheNode controls whether, when this child is installed into
	// the parent's next[] slot, Ptr is kept (cache) or released after
	// serialization (free).
	CacheNode bool
}

// NewChildData returns an empty, invalid ChildData ready for Finalize
// or CopyOldChild.
func NewChildData() ChildData {
	return ChildData{
		Offset:            InvalidOffset,
		data:              make([]byte, 0, KeccakSize),
		SubtrieMinVersion: math.MaxInt64,
		MinOffsetFast:     InvalidCompactVirtualOffset,
		MinOffsetSlow:     InvalidCompactVirtualOffset,
		Branch:            InvalidBranch,
		CacheNode:         true,
	}
}

// IsValid reports whether the slot has been assigned a branch.
func (c *ChildData) IsValid() bool { return c.Branch != InvalidBranch }

// Erase resets c to the empty/invalid state, dropping any owned child.
func (c *ChildData) Erase() {
	*c = NewChildData()
}

// Data returns the cached hash bytes written by Finalize or
// CopyOldChild.
func (c *ChildData) Data() []byte { return c.data[:c.len] }

// setData overwrites the cached hash bytes, capped at 32 bytes as the
// original ChildData::data buffer is.
func (c *ChildData) setData(b []byte) {
	if len(b) > KeccakSize {
		panic("mpt: ChildData hash data longer than 32 bytes")
	}
	if cap(c.data) < len(b) {
		c.data = make([]byte, KeccakSize)
	}
	c.data = c.data[:len(b)]
	copy(c.data, b)
	c.len = uint8(len(b))
}

// Finalize installs node as the owned child, records whether it
// should be cached in the parent's next[] slot once flushed, derives
// SubtrieMinVersion from the child (its own version, folded with its
// children's cached minima), and asks compute to fill the cached hash
// bytes for this child.
func (c *ChildData) Finalize(node *Node, compute Compute, cache bool) {
	c.Ptr = node
	c.CacheNode = cache
	c.SubtrieMinVersion = CalcMinVersion(node)
	buf := make([]byte, KeccakSize)
	n := compute.FillChildData(node, buf)
	c.setData(buf[:n])
}

// CopyOldChild copies branch, offset, min-tracking fields, and cached
// hash bytes from the i-th child of old, without taking ownership of
// any in-memory node (Ptr stays nil). Used when rebuilding a parent
// while reusing an untouched child's metadata.
func (c *ChildData) CopyOldChild(old *NodeBase, i int) {
	r := NewNodeChildrenRange(old.Mask())
	branch := uint(0)
	for idx := 0; r.Next(); idx++ {
		if idx == i {
			branch = r.Branch()
			break
		}
	}
	c.Ptr = nil
	c.Branch = uint8(branch)
	c.Offset = old.Fnext(i)
	c.MinOffsetFast = old.MinOffsetFast(i)
	c.MinOffsetSlow = old.MinOffsetSlow(i)
	c.SubtrieMinVersion = old.SubtrieMinVersion(i)
	c.setData(old.ChildData(i))
	c.CacheNode = true
}
