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

// Package index keeps an ordered version -> ChunkOffset index using
// google/btree, in the style of txpool.pool's nonce-ordered btree of
// per-sender transactions: every Commit of a flushed root is recorded
// under its version, and VersionAtOrBefore answers "what was the root
// as of version v" with a single Descend from v.
package index

import (
	"github.com/google/btree"

	"github.com/go-triedb/trie/mpt"
)

// Entry is one committed root, ordered by Version.
type Entry struct {
	Version int64
	Root    mpt.ChunkOffset
}

// Less implements btree.Item: entries order by Version.
func (e Entry) Less(than btree.Item) bool {
	return e.Version < than.(Entry).Version
}

// RootIndex is an ordered index from commit version to the trie root
// flushed at that version.
type RootIndex struct {
	tree *btree.BTree
}

// NewRootIndex returns an empty RootIndex with the given btree degree.
func NewRootIndex(degree int) *RootIndex {
	return &RootIndex{tree: btree.New(degree)}
}

// Commit records root as the trie's state as of version. Committing
// the same version twice replaces the earlier root.
func (idx *RootIndex) Commit(version int64, root mpt.ChunkOffset) {
	idx.tree.ReplaceOrInsert(Entry{Version: version, Root: root})
}

// VersionAtOrBefore returns the latest committed entry whose version is
// <= v, or false if no such entry exists.
func (idx *RootIndex) VersionAtOrBefore(v int64) (Entry, bool) {
	var found Entry
	ok := false
	idx.tree.DescendLessOrEqual(Entry{Version: v}, func(item btree.Item) bool {
		found = item.(Entry)
		ok = true
		return false
	})
	return found, ok
}

// Versions returns every committed version in ascending order.
func (idx *RootIndex) Versions() []int64 {
	out := make([]int64, 0, idx.tree.Len())
	idx.tree.Ascend(func(item btree.Item) bool {
		out = append(out, item.(Entry).Version)
		return true
	})
	return out
}

// Prune removes every committed entry strictly older than minVersion,
// keeping the newest entry below minVersion so VersionAtOrBefore stays
// answerable for any version still retained by a pruning sweep.
func (idx *RootIndex) Prune(minVersion int64) {
	kept, ok := idx.VersionAtOrBefore(minVersion - 1)
	var toRemove []btree.Item
	idx.tree.AscendLessThan(Entry{Version: minVersion}, func(item btree.Item) bool {
		e := item.(Entry)
		if ok && e.Version == kept.Version {
			return true
		}
		toRemove = append(toRemove, item)
		return true
	})
	for _, item := range toRemove {
		idx.tree.Delete(item)
	}
}
