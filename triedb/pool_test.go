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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-triedb/trie/mpt"
)

func TestPoolStoreLoadRoundTrip(t *testing.T) {
	pool := NewPool()
	buf := []byte("some serialized node bytes")
	off := pool.Store(buf)

	got, ok := pool.Load(off)
	require.True(t, ok)
	require.Equal(t, buf, got)
}

func TestPoolStoreAssignsDistinctOffsets(t *testing.T) {
	pool := NewPool()
	o1 := pool.Store([]byte("a"))
	o2 := pool.Store([]byte("b"))
	require.NotEqual(t, o1.ID, o2.ID)
}

func TestPoolLoadMissingChunk(t *testing.T) {
	pool := NewPool()
	_, ok := pool.Load(mpt.ChunkOffset{ID: 999})
	require.False(t, ok)
}

func TestPoolFree(t *testing.T) {
	pool := NewPool()
	off := pool.Store([]byte("gone soon"))
	pool.Free(off)
	_, ok := pool.Load(off)
	require.False(t, ok)
}

func TestPoolMustLoadPanicsOnMissing(t *testing.T) {
	pool := NewPool()
	require.Panics(t, func() {
		pool.MustLoad(mpt.ChunkOffset{ID: 42})
	})
}

func TestPoolStoreSpareReflectsPageCount(t *testing.T) {
	pool := NewPool()
	off := pool.Store(make([]byte, pageSize+1))
	spare := mpt.PageSpareFromUint16(off.Spare)
	require.GreaterOrEqual(t, spare.ToPages(), uint32(2))
}
