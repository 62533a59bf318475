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
	"github.com/erigontech/erigon-lib/rlp"
	"golang.org/x/crypto/sha3"
)

// Compute is the hash-computation collaborator named in SPEC_FULL.md's
// Compute collaborator section: it knows how to size and fill a node's inline
// cached-hash region, and how to derive the cached bytes a parent
// should keep for one of its children. The node package never
// computes a hash itself — it only calls out to Compute, exactly as
// the original C++ design separates node layout from subtrie hashing.
type Compute interface {
	// InlineDataSize returns the number of bytes create_node_with_children
	// should reserve for the inline data region of a node with the
	// given shape.
	InlineDataSize(hasValue bool, numChildren int) int
	// FillInlineData writes the inline cached hash for node (whose
	// children and value have already been written, but whose data
	// region is still zeroed) into dst, returning the number of bytes
	// written.
	FillInlineData(node *NodeBase, dst []byte) int
	// FillChildData writes the cached hash a parent should keep for
	// child into dst (at most 32 bytes), returning the number of bytes
	// written.
	FillChildData(child *Node, dst []byte) int
}

// Keccak256Compute is a reference Compute implementation: it hashes a
// node's content with Keccak256 over an RLP-framed byte string list
// (FillChildData: mask, path, value if any, inline data, and cached
// child data; FillInlineData: mask and cached child data only),
// mirroring the teacher's own branch-hashing style in
// erigon-lib/commitment/hex_patricia_hashed.go (RLP struct-length
// prefix followed by concatenated RLP byte strings, fed through a
// running Keccak sponge). It is not a consensus hash function — just a
// deterministic, collision-resistant stand-in exercising the Compute
// boundary end to end.
type Keccak256Compute struct{}

func (Keccak256Compute) InlineDataSize(hasValue bool, numChildren int) int {
	if hasValue && numChildren > 0 {
		return KeccakSize
	}
	return 0
}

func (Keccak256Compute) FillInlineData(node *NodeBase, dst []byte) int {
	items := make([][]byte, 0, node.NumberOfChildren()+1)
	items = append(items, maskBytes(node.Mask()))
	for i := 0; i < node.NumberOfChildren(); i++ {
		items = append(items, node.ChildData(i))
	}
	return writeKeccakOfRLPList(items, dst)
}

func (Keccak256Compute) FillChildData(child *Node, dst []byte) int {
	items := make([][]byte, 0, child.NumberOfChildren()+3)
	items = append(items, maskBytes(child.Mask()))
	items = append(items, pathContentBytes(&child.NodeBase))
	if v, ok := child.OptValue(); ok {
		items = append(items, v)
	}
	items = append(items, child.DataData())
	for i := 0; i < child.NumberOfChildren(); i++ {
		items = append(items, child.ChildData(i))
	}
	return writeKeccakOfRLPList(items, dst)
}

func maskBytes(mask uint16) []byte {
	return []byte{byte(mask), byte(mask >> 8)}
}

func pathContentBytes(n *NodeBase) []byte {
	if !n.HasPath() {
		return nil
	}
	out := make([]byte, 0, n.PathBytes()+1)
	out = append(out, byte(n.PathStartNibble()))
	out = append(out, n.PathData()...)
	return out
}

// writeKeccakOfRLPList RLP-frames items as a list of byte strings,
// using rlp.StringLen/rlp.EncodeString for each item's own string
// header so leaf values longer than 55 bytes (up to MaxValueLenOfLeaf)
// get the long-string length-of-length prefix instead of a truncated
// single-byte one, then hashes the framed bytes with Keccak256 into
// dst, returning the number of bytes written.
func writeKeccakOfRLPList(items [][]byte, dst []byte) int {
	h := sha3.NewLegacyKeccak256()
	totalLen := 0
	for _, it := range items {
		totalLen += rlp.StringLen(it)
	}
	var lenPrefix [4]byte
	pt := rlp.GenerateStructLen(lenPrefix[:], totalLen)
	_, _ = h.Write(lenPrefix[:pt])
	strBuf := make([]byte, 0, 64)
	for _, it := range items {
		n := rlp.StringLen(it)
		if cap(strBuf) < n {
			strBuf = make([]byte, n)
		}
		strBuf = strBuf[:n]
		rlp.EncodeString(it, strBuf)
		_, _ = h.Write(strBuf)
	}
	sum := h.Sum(nil)
	return copy(dst, sum)
}
