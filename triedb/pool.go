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

// Package triedb is a thin, real exerciser of package mpt: a minimal
// storage pool, and a minimal nibble-path update/traversal engine built
// on top of it. Neither is meant to be a production key/value store —
// spec.md's Non-goals (no query language, no transaction manager, no
// caching policy) still apply here. They exist only so every mpt
// operation has a genuine caller.
package triedb

import (
	"fmt"
	"sync"

	"github.com/go-triedb/trie/mpt"
)

// Pool is a minimal in-memory stand-in for the chunked on-disk storage
// pool spec.md treats as an opaque external collaborator. It hands out
// ChunkOffsets on Store and returns the bytes previously stored there
// on Load, which is exactly the contract SerializeNodeToBuffer /
// DeserializeNode need to round-trip through.
type Pool struct {
	mu     sync.Mutex
	chunks map[uint32][]byte
	nextID uint32
}

// NewPool returns an empty Pool.
func NewPool() *Pool {
	return &Pool{chunks: make(map[uint32][]byte)}
}

// pageSize mirrors the storage pool's notional page granularity used
// to compute each chunk's PageSpare hint.
const pageSize = 4096

// Store copies buf into a freshly allocated chunk and returns its
// offset, with Spare holding the page-count hint a reader can use to
// size its read without a separate index lookup.
func (p *Pool) Store(buf []byte) mpt.ChunkOffset {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := p.nextID
	p.nextID++
	p.chunks[id] = append([]byte(nil), buf...)
	pages := (len(buf) + pageSize - 1) / pageSize
	spare := mpt.EncodePageSpare(uint32(pages)).Uint16()
	return mpt.ChunkOffset{ID: id, Offset: 0, Spare: spare}
}

// Load returns the bytes stored at off, or false if off names a chunk
// that was never stored (or was freed).
func (p *Pool) Load(off mpt.ChunkOffset) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf, ok := p.chunks[off.ID]
	return buf, ok
}

// Free discards the chunk at off, as a pruning sweep would once no
// live node references it.
func (p *Pool) Free(off mpt.ChunkOffset) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.chunks, off.ID)
}

// MustLoad is Load, panicking on a missing chunk — used where the
// caller already knows, from a valid fnext offset inside a live node,
// that the chunk must exist.
func (p *Pool) MustLoad(off mpt.ChunkOffset) []byte {
	buf, ok := p.Load(off)
	if !ok {
		panic(fmt.Sprintf("triedb: chunk %v missing from pool", off))
	}
	return buf
}
