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

// perChildMemBytes is the per-child fixed-size contribution to a
// node's total live (mem) size: the 2-byte child-data offset, the two
// 5-byte compact min-offset fields, the 8-byte min-version field, the
// ChunkOffsetSize-byte fnext field, and one logical pointer slot.
const perChildMemBytes = 2 + 2*CompactVirtualChunkOffsetSize + 8 + ChunkOffsetSize + pointerSize

// calculateNodeSize returns the total live (mem) byte count for a node
// shape described by its number of children, the sum of all children's
// cached-data lengths, the value length, the path byte length, and the
// inline-data length.
func calculateNodeSize(numberOfChildren, totalChildData, valueSize, pathSize, dataSize int) uint64 {
	return uint64(headerSize) +
		uint64(perChildMemBytes)*uint64(numberOfChildren) +
		uint64(totalChildData) + uint64(valueSize) + uint64(pathSize) + uint64(dataSize)
}

func bodySizeFor(numberOfChildren, totalChildData, valueSize, pathSize, dataSize int) uint64 {
	return calculateNodeSize(numberOfChildren, totalChildData, valueSize, pathSize, dataSize) -
		pointerSizeTerm(numberOfChildren)
}

func encodePath(path NibblesView) (bytes []byte, startBit, endVal int) {
	if path.Len() == 0 {
		return nil, 0, 0
	}
	startBit = path.Start % 2
	endVal = startBit + path.Len()
	return path.packedBytes(), startBit, endVal
}

func writeHeader(n *NodeBase, mask uint16, hasValue bool, pathStartBit, pathEnd, dataLen, valueLen int, version int64) {
	if dataLen > MaxDataLen {
		panic(fmt.Sprintf("mpt: data_len %d exceeds max %d", dataLen, MaxDataLen))
	}
	if pathEnd > 0xFF {
		panic(fmt.Sprintf("mpt: path_nibble_index_end %d overflows one byte", pathEnd))
	}
	if dataLen > 0 && !(hasValue && bits.OnesCount16(mask) >= 1) {
		panic("mpt: inline data is only valid on a branch-with-leaf node")
	}
	if pathEnd == 0 && pathStartBit != 0 {
		panic("mpt: non-zero path start with empty path")
	}
	bp := bitpacked{hasValue: hasValue, pathStart: uint8(pathStartBit), dataLenVal: uint8(dataLen)}
	n.body[0] = byte(mask)
	n.body[1] = byte(mask >> 8)
	n.body[2] = bp.encode()
	n.body[3] = byte(pathEnd)
	putUint32(n.body[4:8], uint32(valueLen))
	putUint64(n.body[8:16], uint64(version))
}

func putUint32(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
	dst[3] = byte(v >> 24)
}

func putUint64(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[i] = byte(v >> (8 * i))
	}
}

// MakeNode builds a brand-new node from a mask, a slice of ChildData
// (one entry per set bit of mask, in ascending branch order), a path,
// an optional value, an inline-data size, and a version. It writes the
// header, the per-child metadata arrays (copied from children), the
// path, the value, and zeroes the data region (left for Compute to
// fill) and the next[] slots. Ownership of each child's Ptr is
// transferred into next[i] when the corresponding ChildData.CacheNode
// is true; otherwise the child is released.
func MakeNode(mask uint16, children []ChildData, path NibblesView, value []byte, hasValue bool, dataSize int, version int64) *Node {
	n := len(children)
	if n != bits.OnesCount16(mask) {
		panic(fmt.Sprintf("mpt: %d children does not match popcount(mask)=%d", n, bits.OnesCount16(mask)))
	}
	pathBytes, startBit, endVal := encodePath(path)
	valueLen := 0
	if hasValue {
		valueLen = len(value)
	}
	totalChildData := 0
	for i := range children {
		totalChildData += len(children[i].Data())
	}
	if uint64(valueLen) > MaxValueLenOfLeaf() {
		panic(fmt.Sprintf("mpt: value_len %d exceeds MaxValueLenOfLeaf %d", valueLen, MaxValueLenOfLeaf()))
	}
	size := bodySizeFor(n, totalChildData, valueLen, len(pathBytes), dataSize)
	if size > MaxDiskSize {
		panic(fmt.Sprintf("mpt: node disk size %d exceeds MaxDiskSize %d", size, MaxDiskSize))
	}
	node := allocNode(size, n)
	writeHeader(&node.NodeBase, mask, hasValue, startBit, endVal, dataSize, valueLen, version)

	offset := uint16(0)
	for i := range children {
		node.setChildDataOffset(i, offset)
		offset += uint16(len(children[i].Data()))
	}
	copy(node.PathData(), pathBytes)
	if hasValue {
		copy(node.ValueData(), value)
	}
	for i := range children {
		node.SetFnext(i, children[i].Offset)
		node.SetMinOffsetFast(i, children[i].MinOffsetFast)
		node.SetMinOffsetSlow(i, children[i].MinOffsetSlow)
		node.SetSubtrieMinVersion(i, children[i].SubtrieMinVersion)
		copy(node.ChildData(i), children[i].Data())
		if children[i].CacheNode {
			node.SetNext(i, children[i].Ptr)
		} else if children[i].Ptr != nil {
			children[i].Ptr.Release()
		}
	}
	return node
}

// MakeNodeFrom builds a new node with the same child layout as from
// (every per-child field copied byte-for-byte, children's in-memory
// pointers left unowned/nil since ownership does not transfer), but a
// replaced path, value, and version. The inline data region keeps
// from's length and is copied from from; it is not recomputed.
func MakeNodeFrom(from *NodeBase, path NibblesView, value []byte, hasValue bool, version int64) *Node {
	n := from.NumberOfChildren()
	pathBytes, startBit, endVal := encodePath(path)
	valueLen := 0
	if hasValue {
		valueLen = len(value)
	}
	totalChildData := 0
	for i := 0; i < n; i++ {
		totalChildData += from.ChildDataLen(i)
	}
	dataSize := from.DataLen()
	if uint64(valueLen) > MaxValueLenOfLeaf() {
		panic(fmt.Sprintf("mpt: value_len %d exceeds MaxValueLenOfLeaf %d", valueLen, MaxValueLenOfLeaf()))
	}
	size := bodySizeFor(n, totalChildData, valueLen, len(pathBytes), dataSize)
	if size > MaxDiskSize {
		panic(fmt.Sprintf("mpt: node disk size %d exceeds MaxDiskSize %d", size, MaxDiskSize))
	}
	node := allocNode(size, n)
	writeHeader(&node.NodeBase, from.Mask(), hasValue, startBit, endVal, dataSize, valueLen, version)

	offset := uint16(0)
	for i := 0; i < n; i++ {
		node.setChildDataOffset(i, offset)
		offset += uint16(from.ChildDataLen(i))
	}
	copy(node.PathData(), pathBytes)
	if hasValue {
		copy(node.ValueData(), value)
	}
	for i := 0; i < n; i++ {
		node.SetFnext(i, from.Fnext(i))
		node.SetMinOffsetFast(i, from.MinOffsetFast(i))
		node.SetMinOffsetSlow(i, from.MinOffsetSlow(i))
		node.SetSubtrieMinVersion(i, from.SubtrieMinVersion(i))
		copy(node.ChildData(i), from.ChildData(i))
	}
	copy(node.DataData(), from.DataData())
	return node
}

// MakeNodeWithData is MakeNode's sibling for the case where the inline
// data bytes are already computed rather than left for Compute to
// fill.
func MakeNodeWithData(mask uint16, children []ChildData, path NibblesView, value []byte, hasValue bool, data []byte, version int64) *Node {
	node := MakeNode(mask, children, path, value, hasValue, len(data), version)
	copy(node.DataData(), data)
	return node
}

// CreateNodeWithChildren is the canonical node factory: it sizes and
// builds the node with MakeNode, then asks compute to fill the inline
// data region. If the resulting node is a pure branch without a
// value, the inline data region is empty and FillInlineData is not
// invoked.
func CreateNodeWithChildren(compute Compute, mask uint16, children []ChildData, path NibblesView, value []byte, hasValue bool, version int64) *Node {
	dataSize := compute.InlineDataSize(hasValue, bits.OnesCount16(mask))
	node := MakeNode(mask, children, path, value, hasValue, dataSize, version)
	if dataSize > 0 {
		n := compute.FillInlineData(&node.NodeBase, node.DataData())
		if n != dataSize {
			panic(fmt.Sprintf("mpt: Compute.FillInlineData wrote %d bytes, expected %d", n, dataSize))
		}
	}
	return node
}

// CopyNode duplicates node's bytes into a freshly allocated node and
// clears the next[] region so the copy does not double-own children.
func CopyNode(node *NodeBase) *Node {
	n := node.NumberOfChildren()
	copyNode := allocNode(uint64(len(node.body)), n)
	copy(copyNode.body, node.body)
	return copyNode
}

// CopyCacheNode is CopyNode's CacheNode counterpart.
func CopyCacheNode(node *NodeBase) *CacheNode {
	n := node.NumberOfChildren()
	copyNode := allocCacheNode(uint64(len(node.body)), n)
	copy(copyNode.body, node.body)
	return copyNode
}
