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

func TestNibblesViewByteLen(t *testing.T) {
	b := []byte{0x12, 0x34}
	v := NibblesView{Bytes: b, Start: 0, End: 4}
	require.Equal(t, 4, v.Len())
	require.Equal(t, 2, v.ByteLen())
	require.True(t, bytes.Equal(v.packedBytes(), b))

	v2 := NibblesView{Bytes: b, Start: 1, End: 2}
	require.Equal(t, 1, v2.Len())
	require.Equal(t, 1, v2.ByteLen())
	require.Equal(t, byte(0x2), v2.Nibble(0))
}

func TestNibblesViewNibbleOrder(t *testing.T) {
	v := NewNibblesView([]byte{0xAB})
	require.Equal(t, byte(0xA), v.Nibble(0))
	require.Equal(t, byte(0xB), v.Nibble(1))
}
