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

// Node is the recursive, owning node variant: each non-nil next[i]
// slot exclusively owns a child Node, and Release recursively drops
// (and, transitively, releases) every owned child.
type Node struct {
	NodeBase
	next []*Node
}

func allocNode(size uint64, numChildren int) *Node {
	return &Node{NodeBase: newNodeBase(size), next: make([]*Node, numChildren)}
}

// Next returns child i's in-memory node, or nil if it has not been
// materialised.
func (n *Node) Next(i int) *Node {
	n.mustChildIndex(i)
	return n.next[i]
}

// SetNext transfers ownership of child into slot i. Any node
// previously occupying the slot is not released automatically —
// callers that overwrite a live slot must Release the old child
// themselves, matching the move-only contract of the original
// set_next.
func (n *Node) SetNext(i int, child *Node) {
	n.mustChildIndex(i)
	n.next[i] = child
}

// MoveNext transfers ownership of child i out of the node, leaving the
// slot nil.
func (n *Node) MoveNext(i int) *Node {
	n.mustChildIndex(i)
	child := n.next[i]
	n.next[i] = nil
	return child
}

// Release recursively drops every owned child. It has no effect on
// the node's own bytes; it exists to make the ownership transfer
// explicit and to let materialised subtrees be collected eagerly
// instead of waiting for the whole cache to become unreachable.
func (n *Node) Release() {
	for i, child := range n.next {
		if child != nil {
			child.Release()
			n.next[i] = nil
		}
	}
}
