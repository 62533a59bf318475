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

package triedb

import (
	"math/bits"

	"github.com/go-triedb/trie/mpt"
)

// Trie is a minimal nibble-path update/traversal engine over package
// mpt's node representation, in the style of turbo/trie.Trie: an
// in-memory tree of owning *mpt.Node values, lazily extended from Pool
// on first touch and flushed back to Pool on demand. It exists to give
// every mpt construction/serialization operation a real caller; it is
// not a consensus state trie and does not attempt RLP-compatible
// encoding of keys.
type Trie struct {
	root    *mpt.Node
	pool    *Pool
	compute mpt.Compute
}

// New returns an empty Trie backed by pool, using the given Compute
// collaborator to derive cached hash bytes.
func New(pool *Pool, compute mpt.Compute) *Trie {
	return &Trie{pool: pool, compute: compute}
}

// Open reconstructs a Trie whose root was previously flushed to pool at
// rootOffset.
func Open(pool *Pool, compute mpt.Compute, rootOffset mpt.ChunkOffset) *Trie {
	buf := pool.MustLoad(rootOffset)
	return &Trie{root: mpt.DeserializeNode(buf, len(buf)), pool: pool, compute: compute}
}

// Get returns the value stored at key, and whether it was found.
func (t *Trie) Get(key []byte) ([]byte, bool) {
	return t.get(t.root, mpt.NewNibblesView(key))
}

func (t *Trie) get(n *mpt.Node, key mpt.NibblesView) ([]byte, bool) {
	if n == nil {
		return nil, false
	}
	existing := n.PathNibbleView()
	cp := commonPrefixLen(existing, key)
	if cp < existing.Len() {
		return nil, false
	}
	if cp == key.Len() {
		if existing.Len() != key.Len() {
			return nil, false
		}
		return n.OptValue()
	}
	remainder := key.Slice(cp, key.Len())
	branch := remainder.Nibble(0)
	mask := n.Mask()
	if mask&(1<<branch) == 0 {
		return nil, false
	}
	idx := popcountBelow(mask, branch)
	child := t.loadChild(n, idx)
	return t.get(child, remainder.Slice(1, remainder.Len()))
}

// Put inserts or overwrites the value at key, stamping version onto
// every node touched along the path.
func (t *Trie) Put(key, value []byte, version int64) {
	t.root = t.upsert(t.root, mpt.NewNibblesView(key), value, version)
}

// Delete removes the value at key, if present, collapsing any branch
// node left with a single child and no value of its own.
func (t *Trie) Delete(key []byte, version int64) {
	t.root = t.delete(t.root, mpt.NewNibblesView(key), version)
}

// Flush recursively serializes every in-memory node reachable from the
// root into Pool (a materialised node is stored again even if it was
// flushed before) and returns the root's chunk offset. It is a no-op
// (returning !ok) on an empty trie.
func (t *Trie) Flush() (off mpt.ChunkOffset, ok bool) {
	if t.root == nil {
		return mpt.InvalidOffset, false
	}
	return t.flushNode(t.root), true
}

func (t *Trie) flushNode(n *mpt.Node) mpt.ChunkOffset {
	for i := 0; i < n.NumberOfChildren(); i++ {
		if child := n.Next(i); child != nil {
			n.SetFnext(i, t.flushNode(child))
		}
	}
	return t.pool.Store(mpt.SerializeNode(&n.NodeBase))
}

func (t *Trie) loadChild(n *mpt.Node, idx int) *mpt.Node {
	if child := n.Next(idx); child != nil {
		return child
	}
	off := n.Fnext(idx)
	if !off.IsValid() {
		return nil
	}
	buf := t.pool.MustLoad(off)
	child := mpt.DeserializeNode(buf, len(buf))
	n.SetNext(idx, child)
	return child
}

func (t *Trie) rebuild(mask uint16, children []mpt.ChildData, path mpt.NibblesView, value []byte, hasValue bool, version int64) *mpt.Node {
	return mpt.CreateNodeWithChildren(t.compute, mask, children, path, value, hasValue, version)
}

// reembedWithPath rebuilds n with the same mask, children, value, and
// version, but a replaced path — used when a node's path shortens
// (split) or lengthens (collapse) without its child layout changing.
// Materialised child pointers are re-attached since MakeNodeFrom does
// not carry Go pointers across the rebuild.
func (t *Trie) reembedWithPath(n *mpt.Node, newPath mpt.NibblesView) *mpt.Node {
	value, hasValue := n.OptValue()
	newNode := mpt.MakeNodeFrom(&n.NodeBase, newPath, value, hasValue, n.Version())
	for i := 0; i < n.NumberOfChildren(); i++ {
		newNode.SetNext(i, n.Next(i))
	}
	return newNode
}

// collectChildrenCopy gathers ChildData for every existing child of n,
// preserving cached offsets/hashes/min-version and any materialised
// pointer, ready to be handed to rebuild with one entry replaced,
// removed, or left untouched.
func (t *Trie) collectChildrenCopy(n *mpt.Node) []mpt.ChildData {
	children := make([]mpt.ChildData, n.NumberOfChildren())
	for i := range children {
		var cd mpt.ChildData
		cd.CopyOldChild(&n.NodeBase, i)
		cd.Ptr = n.Next(i)
		children[i] = cd
	}
	return children
}

func (t *Trie) upsert(n *mpt.Node, key mpt.NibblesView, value []byte, version int64) *mpt.Node {
	if n == nil {
		return mpt.CreateNodeWithChildren(t.compute, 0, nil, key, value, true, version)
	}
	existing := n.PathNibbleView()
	cp := commonPrefixLen(existing, key)

	switch {
	case cp == existing.Len() && cp == key.Len():
		children := t.collectChildrenCopy(n)
		return t.rebuild(n.Mask(), children, existing, value, true, version)

	case cp == existing.Len():
		remainder := key.Slice(cp, key.Len())
		branch := remainder.Nibble(0)
		childKey := remainder.Slice(1, remainder.Len())
		mask := n.Mask()
		children := t.collectChildrenCopy(n)
		if mask&(1<<branch) != 0 {
			idx := popcountBelow(mask, branch)
			oldChild := t.loadChild(n, idx)
			newChild := t.upsert(oldChild, childKey, value, version)
			cd := mpt.NewChildData()
			cd.Branch = branch
			cd.Finalize(newChild, t.compute, true)
			children[idx] = cd
		} else {
			newChild := t.upsert(nil, childKey, value, version)
			cd := mpt.NewChildData()
			cd.Branch = branch
			cd.Finalize(newChild, t.compute, true)
			idx := popcountBelow(mask, branch)
			children = insertChildAt(children, idx, cd)
			mask |= 1 << branch
		}
		val, hasVal := n.OptValue()
		return t.rebuild(mask, children, existing, val, hasVal, version)

	case cp == key.Len():
		oldBranch := existing.Nibble(cp)
		oldRemainder := existing.Slice(cp+1, existing.Len())
		shiftedOld := t.reembedWithPath(n, oldRemainder)
		cd := mpt.NewChildData()
		cd.Branch = oldBranch
		cd.Finalize(shiftedOld, t.compute, true)
		mask := uint16(1) << oldBranch
		return t.rebuild(mask, []mpt.ChildData{cd}, key, value, true, version)

	default:
		oldBranch := existing.Nibble(cp)
		oldRemainder := existing.Slice(cp+1, existing.Len())
		shiftedOld := t.reembedWithPath(n, oldRemainder)

		newBranch := key.Nibble(cp)
		newRemainder := key.Slice(cp+1, key.Len())
		newLeaf := t.upsert(nil, newRemainder, value, version)

		cdOld := mpt.NewChildData()
		cdOld.Branch = oldBranch
		cdOld.Finalize(shiftedOld, t.compute, true)
		cdNew := mpt.NewChildData()
		cdNew.Branch = newBranch
		cdNew.Finalize(newLeaf, t.compute, true)

		children := []mpt.ChildData{cdOld, cdNew}
		if newBranch < oldBranch {
			children[0], children[1] = children[1], children[0]
		}
		mask := uint16(1)<<oldBranch | uint16(1)<<newBranch
		return t.rebuild(mask, children, key.Slice(0, cp), nil, false, version)
	}
}

func (t *Trie) delete(n *mpt.Node, key mpt.NibblesView, version int64) *mpt.Node {
	if n == nil {
		return nil
	}
	existing := n.PathNibbleView()
	cp := commonPrefixLen(existing, key)
	if cp < existing.Len() {
		return n
	}
	if cp == key.Len() {
		if existing.Len() != key.Len() {
			return n
		}
		if n.NumberOfChildren() == 0 {
			return nil
		}
		if n.NumberOfChildren() == 1 {
			only := t.loadChild(n, 0)
			branch := byte(bits.TrailingZeros16(n.Mask()))
			return t.reembedWithPath(only, joinPath(existing, branch, only.PathNibbleView()))
		}
		children := t.collectChildrenCopy(n)
		return t.rebuild(n.Mask(), children, existing, nil, false, version)
	}

	remainder := key.Slice(cp, key.Len())
	branch := remainder.Nibble(0)
	mask := n.Mask()
	if mask&(1<<branch) == 0 {
		return n
	}
	idx := popcountBelow(mask, branch)
	oldChild := t.loadChild(n, idx)
	newChild := t.delete(oldChild, remainder.Slice(1, remainder.Len()), version)

	children := t.collectChildrenCopy(n)
	if newChild == nil {
		children = removeChildAt(children, idx)
		mask &^= 1 << branch
	} else {
		cd := mpt.NewChildData()
		cd.Branch = branch
		cd.Finalize(newChild, t.compute, true)
		children[idx] = cd
	}

	val, hasVal := n.OptValue()
	switch {
	case len(children) == 0:
		if !hasVal {
			return nil
		}
		return t.rebuild(0, nil, existing, val, true, version)
	case len(children) == 1 && !hasVal:
		otherIdx := 0
		if idx == 0 {
			otherIdx = 1
		}
		sibling := t.loadChild(n, otherIdx)
		newPath := joinPath(existing, children[0].Branch, sibling.PathNibbleView())
		return t.reembedWithPath(sibling, newPath)
	default:
		return t.rebuild(mask, children, existing, val, hasVal, version)
	}
}

func commonPrefixLen(a, b mpt.NibblesView) int {
	n := a.Len()
	if b.Len() < n {
		n = b.Len()
	}
	for i := 0; i < n; i++ {
		if a.Nibble(i) != b.Nibble(i) {
			return i
		}
	}
	return n
}

func popcountBelow(mask uint16, branch byte) int {
	return bits.OnesCount16(mask & ((1 << branch) - 1))
}

func insertChildAt(children []mpt.ChildData, idx int, cd mpt.ChildData) []mpt.ChildData {
	out := make([]mpt.ChildData, 0, len(children)+1)
	out = append(out, children[:idx]...)
	out = append(out, cd)
	out = append(out, children[idx:]...)
	return out
}

func removeChildAt(children []mpt.ChildData, idx int) []mpt.ChildData {
	out := make([]mpt.ChildData, 0, len(children)-1)
	out = append(out, children[:idx]...)
	out = append(out, children[idx+1:]...)
	return out
}

func nibbleValues(v mpt.NibblesView) []byte {
	out := make([]byte, v.Len())
	for i := range out {
		out[i] = v.Nibble(i)
	}
	return out
}

func nibblesFromValues(vals []byte) mpt.NibblesView {
	bs := make([]byte, (len(vals)+1)/2)
	for i, val := range vals {
		if i%2 == 0 {
			bs[i/2] = val << 4
		} else {
			bs[i/2] |= val
		}
	}
	return mpt.NewNibblesView(bs)
}

func joinPath(prefix mpt.NibblesView, branch byte, suffix mpt.NibblesView) mpt.NibblesView {
	vals := append(nibbleValues(prefix), branch)
	vals = append(vals, nibbleValues(suffix)...)
	return nibblesFromValues(vals)
}
