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

// S1 — leaf only.
func TestScenarioLeafOnly(t *testing.T) {
	path := NibblesView{Bytes: []byte{0x12, 0x34}, Start: 0, End: 4}
	n := MakeNode(0, nil, path, []byte("hello"), true, 0, 7)

	require.Equal(t, 0, n.NumberOfChildren())
	require.True(t, n.HasValue())
	require.Equal(t, "hello", string(n.Value()))
	require.Equal(t, uint32(23), n.GetDiskSize())
	require.Equal(t, int64(7), CalcMinVersion(n))
	require.True(t, n.HasPath())
	pv := n.PathNibbleView()
	require.Equal(t, 4, pv.Len())
	require.Equal(t, byte(0x1), pv.Nibble(0))
	require.Equal(t, byte(0x4), pv.Nibble(3))
}

// S2 — extension.
func TestScenarioExtension(t *testing.T) {
	path := NibblesView{Bytes: []byte{0x0A}, Start: 1, End: 2}
	child := NewChildData()
	child.Branch = 8
	child.Offset = ChunkOffset{ID: 1, Offset: 2048, Spare: EncodePageSpare(4).Uint16()}
	child.MinOffsetFast = CompactVirtualChunkOffsetFromUint64(10)
	child.MinOffsetSlow = CompactVirtualChunkOffsetFromUint64(5)
	child.SubtrieMinVersion = 9
	hash := bytes.Repeat([]byte{0xAB}, KeccakSize)
	child.setData(hash)

	n := MakeNode(0x0100, []ChildData{child}, path, nil, false, 0, 10)

	require.Equal(t, 1, n.NumberOfChildren())
	require.Equal(t, 0, n.ToChildIndex(8))
	require.False(t, n.HasValue())
	require.True(t, n.HasPath())
	require.Equal(t, 1, n.PathNibblesLen())
	require.Equal(t, byte(0xA), n.PathNibbleView().Nibble(0))
	require.Equal(t, child.Offset, n.Fnext(0))
	require.Equal(t, child.MinOffsetFast, n.MinOffsetFast(0))
	require.Equal(t, child.MinOffsetSlow, n.MinOffsetSlow(0))
	require.Equal(t, int64(9), n.SubtrieMinVersion(0))
	require.True(t, bytes.Equal(hash, n.ChildData(0)))
	require.Equal(t, int64(9), CalcMinVersion(n))
}

// S3 — branch with leaf.
func TestScenarioBranchWithLeaf(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 0
	c0.setData(bytes.Repeat([]byte{0x01}, KeccakSize))
	c1 := NewChildData()
	c1.Branch = 1
	c1.setData(bytes.Repeat([]byte{0x02}, KeccakSize))

	data := bytes.Repeat([]byte{0xEE}, KeccakSize)
	n := MakeNodeWithData(0x0003, []ChildData{c0, c1}, NibblesView{}, []byte{}, true, data, 3)

	require.Equal(t, 2, n.NumberOfChildren())
	require.True(t, n.HasValue())
	require.Equal(t, 0, n.ValueLen())
	require.False(t, n.HasPath())
	require.Equal(t, KeccakSize, n.DataLen())
	require.True(t, bytes.Equal(data, n.DataData()))

	var pairs [][2]int
	for r := NewNodeChildrenRange(n.Mask()); r.Next(); {
		pairs = append(pairs, [2]int{r.Index(), int(r.Branch())})
	}
	require.Equal(t, [][2]int{{0, 0}, {1, 1}}, pairs)
}

// S4 — round trip of the S3 scenario.
func TestScenarioRoundTrip(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 0
	c0.setData(bytes.Repeat([]byte{0x01}, KeccakSize))
	c1 := NewChildData()
	c1.Branch = 1
	c1.setData(bytes.Repeat([]byte{0x02}, KeccakSize))
	data := bytes.Repeat([]byte{0xEE}, KeccakSize)
	n := MakeNodeWithData(0x0003, []ChildData{c0, c1}, NibblesView{}, []byte{}, true, data, 3)

	buf := SerializeNode(&n.NodeBase)
	require.Equal(t, int(n.GetDiskSize())+diskSizeBytes, len(buf))

	got := DeserializeNode(buf, len(buf))
	require.True(t, bytes.Equal(n.body, got.body))
	for _, child := range got.next {
		require.Nil(t, child)
	}
}

// S5 — page spare survives a ChunkOffset round trip.
func TestScenarioPageSpare(t *testing.T) {
	enc := EncodePageSpare(1_050_000)
	require.LessOrEqual(t, enc.Count, uint16(1023))
	require.LessOrEqual(t, enc.Shift, uint16(31))
	require.GreaterOrEqual(t, enc.ToPages(), uint32(1_050_000))

	off := ChunkOffset{ID: 3, Offset: 77, Spare: enc.Uint16()}
	var buf [ChunkOffsetSize]byte
	off.put(buf[:])
	got := getChunkOffset(buf[:])
	require.Equal(t, enc, PageSpareFromUint16(got.Spare))
}

// S6 — a value one byte past MaxValueLenOfLeaf must fail construction.
func TestScenarioMaxValueOverflow(t *testing.T) {
	path := NibblesView{Bytes: bytes.Repeat([]byte{0xAB}, KeccakSize), Start: 0, End: KeccakSize * 2}
	maxLen := int(MaxValueLenOfLeaf())
	value := bytes.Repeat([]byte{0x01}, maxLen)
	n := MakeNode(0, nil, path, value, true, 0, 1)
	require.Equal(t, maxLen, n.ValueLen())

	require.Panics(t, func() {
		over := bytes.Repeat([]byte{0x01}, maxLen+1)
		MakeNode(0, nil, path, over, true, 0, 1)
	})
}

func TestSizeIdentity(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 0
	c0.setData(bytes.Repeat([]byte{0x01}, KeccakSize))
	path := NibblesView{Bytes: []byte{0x12}, Start: 0, End: 2}
	n := MakeNode(0x0001, []ChildData{c0}, path, []byte("v"), true, 0, 1)

	expected := calculateNodeSize(1, KeccakSize, 1, 1, 0)
	require.Equal(t, expected, n.GetMemSize())
}

func TestDiskVsMemIdentity(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 0
	c0.setData(bytes.Repeat([]byte{0x01}, KeccakSize))
	n := MakeNode(0x0001, []ChildData{c0}, NibblesView{}, nil, false, 0, 1)
	require.Equal(t, n.GetMemSize()-uint64(n.NumberOfChildren())*pointerSize, uint64(n.GetDiskSize()))
}

func TestCopyIsolation(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 0
	c0.setData(bytes.Repeat([]byte{0x01}, KeccakSize))
	n := MakeNode(0x0001, []ChildData{c0}, NibblesView{}, []byte("v"), true, 0, 1)
	n.SetNext(0, MakeNode(0, nil, NibblesView{}, []byte("child"), true, 0, 1))

	copyNode := CopyNode(&n.NodeBase)
	require.True(t, bytes.Equal(n.body, copyNode.body))
	for _, child := range copyNode.next {
		require.Nil(t, child)
	}

	copyNode.SetChildData(0, bytes.Repeat([]byte{0x02}, KeccakSize))
	require.False(t, bytes.Equal(n.ChildData(0), copyNode.ChildData(0)))
}

func TestIdempotentSetChildData(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 0
	c0.setData(bytes.Repeat([]byte{0x01}, KeccakSize))
	n := MakeNode(0x0001, []ChildData{c0}, NibblesView{}, nil, false, 0, 1)

	before := append([]byte{}, n.body...)
	n.SetChildData(0, n.ChildDataView(0))
	require.True(t, bytes.Equal(before, n.body))
}

func TestMinVersionMonotonicity(t *testing.T) {
	c0 := NewChildData()
	c0.Branch = 0
	c0.setData(bytes.Repeat([]byte{0x01}, KeccakSize))
	c1 := NewChildData()
	c1.Branch = 1
	c1.setData(bytes.Repeat([]byte{0x02}, KeccakSize))
	n := MakeNode(0x0003, []ChildData{c0, c1}, NibblesView{}, nil, false, 0, 100)

	n.SetSubtrieMinVersion(0, 5)
	n.SetSubtrieMinVersion(1, 50)
	require.Equal(t, int64(5), CalcMinVersion(n))

	n.SetSubtrieMinVersion(0, 500)
	require.Equal(t, int64(50), CalcMinVersion(n))
}
