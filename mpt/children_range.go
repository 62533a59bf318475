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

import "math/bits"

// NodeChildrenRange is a lazy, single-pass, non-restartable iterator
// over the dense child indices and branch nibbles present in a mask,
// in ascending branch order.
//
// Usage:
//
//	for r := NewNodeChildrenRange(node.Mask()); r.Next(); {
//		index, branch := r.Index(), r.Branch()
//	}
type NodeChildrenRange struct {
	mask  uint16
	index int
	valid bool
}

// NewNodeChildrenRange starts a new range over mask.
func NewNodeChildrenRange(mask uint16) *NodeChildrenRange {
	return &NodeChildrenRange{mask: mask, index: -1}
}

// Next advances to the next child, returning false once the mask is
// exhausted.
func (r *NodeChildrenRange) Next() bool {
	if r.index >= 0 {
		r.mask &= r.mask - 1
	}
	if r.mask == 0 {
		r.valid = false
		return false
	}
	r.index++
	r.valid = true
	return true
}

// Index returns the current dense child index.
func (r *NodeChildrenRange) Index() int {
	if !r.valid {
		panic("mpt: NodeChildrenRange.Index called before a successful Next")
	}
	return r.index
}

// Branch returns the current branch nibble (0..15).
func (r *NodeChildrenRange) Branch() uint {
	if !r.valid {
		panic("mpt: NodeChildrenRange.Branch called before a successful Next")
	}
	return uint(bits.TrailingZeros16(r.mask))
}
