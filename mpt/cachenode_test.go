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
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheNodeNextSetNextMoveNext(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 0
	c0.setData(bytes.Repeat([]byte{0x01}, KeccakSize))
	n := MakeNode(0x0001, []ChildData{c0}, NibblesView{}, nil, false, 0, 1)

	buf := SerializeNode(&n.NodeBase)
	cache := DeserializeCacheNode(buf, len(buf))
	require.Equal(t, n.Mask(), cache.Mask())
	require.Nil(t, cache.Next(0))

	borrowed := MakeNode(0, nil, NibblesView{}, []byte("leaf"), true, 0, 1)
	borrowedBuf := SerializeNode(&borrowed.NodeBase)
	borrowedCache := DeserializeCacheNode(borrowedBuf, len(borrowedBuf))
	cache.SetNext(0, borrowedCache)
	require.Same(t, borrowedCache, cache.Next(0))

	moved := cache.MoveNext(0)
	require.Same(t, borrowedCache, moved)
	require.Nil(t, cache.Next(0))
}

func TestCacheNodeReleaseDoesNotRecurse(t *testing.T) {
	parent := MakeNode(1<<3, []ChildData{func() ChildData {
		cd := NewChildData()
		cd.Branch = 3
		cd.setData(bytes.Repeat([]byte{0x07}, KeccakSize))
		return cd
	}()}, NibblesView{}, nil, false, 0, 1)
	parentBuf := SerializeNode(&parent.NodeBase)
	cache := DeserializeCacheNode(parentBuf, len(parentBuf))
	grandchild := MakeNode(0, nil, NibblesView{}, []byte("leaf"), true, 0, 1)
	grandchildBuf := SerializeNode(&grandchild.NodeBase)
	grandchildCache := DeserializeCacheNode(grandchildBuf, len(grandchildBuf))
	childCache := DeserializeCacheNode(parentBuf, len(parentBuf))
	childCache.SetNext(0, grandchildCache)
	cache.SetNext(0, childCache)

	cache.Release()
	require.Nil(t, cache.Next(0))

	// childCache itself is untouched by cache's Release: CacheNode does
	// not own its children, so releasing the parent must not clear the
	// child's own next[] slots.
	require.Same(t, grandchildCache, childCache.Next(0))
}

func TestCopyCacheNodeIsolatesBody(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 2
	c0.setData(bytes.Repeat([]byte{0x03}, KeccakSize))
	n := MakeNode(1<<2, []ChildData{c0}, NibblesView{}, nil, false, 0, 5)

	copyNode := CopyCacheNode(&n.NodeBase)
	require.True(t, bytes.Equal(n.body, copyNode.body))
	require.Nil(t, copyNode.Next(0))

	copyNode.SetChildData(0, bytes.Repeat([]byte{0x09}, KeccakSize))
	require.False(t, bytes.Equal(n.ChildData(0), copyNode.ChildData(0)))
}

func TestCalcMinVersionCache(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 0
	c0.setData(bytes.Repeat([]byte{0x01}, KeccakSize))
	n := MakeNode(0x0001, []ChildData{c0}, NibblesView{}, nil, false, 0, 100)
	n.SetSubtrieMinVersion(0, 42)

	buf := SerializeNode(&n.NodeBase)
	cache := DeserializeCacheNode(buf, len(buf))
	require.Equal(t, int64(42), CalcMinVersionCache(cache))
}
