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

// CacheNode shares NodeBase's byte layout with Node but does not own
// its children recursively: next[] slots are weak/borrowed references
// managed by the surrounding cache, so Release only drops this node's
// own slice without touching the children it pointed at.
type CacheNode struct {
	NodeBase
	next []*CacheNode
}

func allocCacheNode(size uint64, numChildren int) *CacheNode {
	return &CacheNode{NodeBase: newNodeBase(size), next: make([]*CacheNode, numChildren)}
}

// Next returns child i's borrowed in-memory node, or nil.
func (n *CacheNode) Next(i int) *CacheNode {
	n.mustChildIndex(i)
	return n.next[i]
}

// SetNext installs a borrowed reference to child in slot i; unlike
// Node.SetNext this never implies ownership.
func (n *CacheNode) SetNext(i int, child *CacheNode) {
	n.mustChildIndex(i)
	n.next[i] = child
}

// MoveNext clears slot i and returns what was there, without
// releasing it — the cache, not this node, owns the child.
func (n *CacheNode) MoveNext(i int) *CacheNode {
	n.mustChildIndex(i)
	child := n.next[i]
	n.next[i] = nil
	return child
}

// Release drops this node's own references to its children without
// recursing into them: they remain owned by the surrounding cache.
func (n *CacheNode) Release() {
	for i := range n.next {
		n.next[i] = nil
	}
}
