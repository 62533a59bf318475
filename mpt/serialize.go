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

	"github.com/erigontech/erigon-lib/log/v3"
)

// SerializeNodeToBuffer writes node's on-disk representation into dst.
// When offset is 0 this is a fresh write: the 4-byte disk_size prefix
// is written first, followed by the node body (disk_size-4 bytes,
// i.e. everything except the in-memory-only next[] region). When
// offset is positive this is a continuation of a write that straddled
// a buffer boundary: exactly nBytes are written, starting at logical
// byte offset into the on-disk representation (the 4-byte prefix
// counts as part of that logical stream).
func SerializeNodeToBuffer(dst []byte, nBytes int, node *NodeBase, diskSize uint32, offset int) {
	if len(dst) < nBytes {
		panic(fmt.Sprintf("mpt: destination buffer (%d bytes) smaller than nBytes (%d)", len(dst), nBytes))
	}
	logical := make([]byte, 0, diskSizeBytes+len(node.body))
	var prefix [diskSizeBytes]byte
	binary.LittleEndian.PutUint32(prefix[:], diskSize)
	logical = append(logical, prefix[:]...)
	logical = append(logical, node.body...)

	if offset+nBytes > len(logical) {
		panic(fmt.Sprintf("mpt: write range [%d,%d) exceeds serialized length %d", offset, offset+nBytes, len(logical)))
	}
	copy(dst[:nBytes], logical[offset:offset+nBytes])
}

// diskSizePrefixFor computes the disk_size value that belongs ahead of
// node's body: the body length plus the 4-byte prefix itself.
func diskSizePrefixFor(node *NodeBase) uint32 {
	return uint32(len(node.body)) + diskSizeBytes
}

// SerializeNode is the common case of SerializeNodeToBuffer: a fresh,
// whole write of node into a buffer sized exactly to hold it.
func SerializeNode(node *NodeBase) []byte {
	diskSize := diskSizePrefixFor(node)
	dst := make([]byte, diskSize)
	SerializeNodeToBuffer(dst, len(dst), node, diskSize, 0)
	return dst
}

// deserializeHeader validates the disk_size prefix and reads the mask,
// the steps shared by DeserializeNode and DeserializeCacheNode,
// returning the disk_size prefix, the mask, and the number of children.
// It does not copy the body.
func deserializeHeader(src []byte, maxBytes int) (diskSize uint32, mask uint16, numChildren int) {
	if maxBytes < diskSizeBytes+2 {
		panic(fmt.Sprintf("mpt: buffer of %d bytes too small to hold a node header", maxBytes))
	}
	diskSize = binary.LittleEndian.Uint32(src[0:diskSizeBytes])
	if diskSize == 0 {
		panic("mpt: deserialized node has disk_size == 0")
	}
	limit := uint32(maxBytes)
	if uint64(maxBytes) > MaxDiskSize {
		limit = uint32(MaxDiskSize)
	}
	if diskSize > limit {
		panic(fmt.Sprintf("mpt: deserialized node disk_size %d exceeds limit %d", diskSize, limit))
	}
	mask = binary.LittleEndian.Uint16(src[diskSizeBytes : diskSizeBytes+2])
	numChildren = bits.OnesCount16(mask)
	if diskSize < diskSizeBytes {
		panic(fmt.Sprintf("mpt: disk_size %d smaller than the prefix itself", diskSize))
	}
	if float64(diskSize) > 0.95*float64(MaxDiskSize) {
		log.Warn("mpt: deserializing a node close to the disk size ceiling", "disk_size", diskSize, "max_disk_size", MaxDiskSize)
	}
	return diskSize, mask, numChildren
}

// DeserializeNode reads a Node from src, prefetching nothing (Go's
// runtime and CPU handle sequential-read prefetch on their own; the
// original's manual __builtin_prefetch hints are non-binding and
// purely a C++ performance detail, dropped here). The returned node's
// next[] slots are all nil.
func DeserializeNode(src []byte, maxBytes int) *Node {
	diskSize, mask, numChildren := deserializeHeader(src, maxBytes)
	bodyLen := diskSize - diskSizeBytes
	node := allocNode(uint64(bodyLen), numChildren)
	copy(node.body, src[diskSizeBytes:diskSize])
	if node.Mask() != mask {
		panic("mpt: mask mismatch after deserialize copy")
	}
	if node.GetMemSize() != uint64(bodyLen)+uint64(numChildren)*pointerSize {
		panic("mpt: deserialized node mem size mismatch")
	}
	return node
}

// DeserializeCacheNode is DeserializeNode's CacheNode counterpart.
func DeserializeCacheNode(src []byte, maxBytes int) *CacheNode {
	diskSize, _, numChildren := deserializeHeader(src, maxBytes)
	bodyLen := diskSize - diskSizeBytes
	node := allocCacheNode(uint64(bodyLen), numChildren)
	copy(node.body, src[diskSizeBytes:diskSize])
	return node
}
