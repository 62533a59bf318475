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

// CalcMinVersion returns the minimum version relevant to node's
// subtrie: its own version, folded with the cached subtrie-minimum
// version of each of its children. Used by the storage layer's
// pruning sweep to find the oldest version still reachable beneath
// node without visiting its children.
func CalcMinVersion(node *Node) int64 {
	return calcMinVersion(&node.NodeBase)
}

// CalcMinVersionCache is the CacheNode counterpart of CalcMinVersion.
func CalcMinVersionCache(node *CacheNode) int64 {
	return calcMinVersion(&node.NodeBase)
}

func calcMinVersion(n *NodeBase) int64 {
	min := n.Version()
	for i := 0; i < n.NumberOfChildren(); i++ {
		if v := n.SubtrieMinVersion(i); v < min {
			min = v
		}
	}
	return min
}
