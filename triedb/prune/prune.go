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

// Package prune implements a version-based garbage collection sweep
// over a triedb.Pool, in the style of erigon's stage_log_index.go
// bitmap-chunking: stale chunk ids accumulate into a roaring.Bitmap as
// the sweep walks the subtrees that still hold old versions, and every
// id in the bitmap at the end is a candidate to reclaim.
package prune

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/go-triedb/trie/mpt"
	"github.com/go-triedb/trie/triedb"
)

// Sweep walks every node reachable from rootOffset and returns the set
// of chunk ids whose node version is older than minVersion: the
// pruning candidates a caller can subsequently Pool.Free. A child's
// cached SubtrieMinVersion lets the walk skip descending into whole
// subtrees that are already entirely at or above minVersion, without
// loading a single one of their chunks.
func Sweep(pool *triedb.Pool, rootOffset mpt.ChunkOffset, minVersion int64) *roaring.Bitmap {
	stale := roaring.New()
	if !rootOffset.IsValid() {
		return stale
	}
	visit(pool, rootOffset, minVersion, stale)
	return stale
}

func visit(pool *triedb.Pool, off mpt.ChunkOffset, minVersion int64, stale *roaring.Bitmap) {
	buf := pool.MustLoad(off)
	node := mpt.DeserializeNode(buf, len(buf))
	if node.Version() < minVersion {
		stale.Add(off.ID)
	}
	for i := 0; i < node.NumberOfChildren(); i++ {
		if node.SubtrieMinVersion(i) >= minVersion {
			continue
		}
		if child := node.Fnext(i); child.IsValid() {
			visit(pool, child, minVersion, stale)
		}
	}
}

// Free discards every chunk named in stale from pool.
func Free(pool *triedb.Pool, stale *roaring.Bitmap) {
	it := stale.Iterator()
	for it.HasNext() {
		pool.Free(mpt.ChunkOffset{ID: it.Next()})
	}
}
