// Copyright 2019 The go-probeum Authors
// This file is part of the go-probeum library.
//
// The go-probeum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-probeum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-probeum library. If not, see <http://www.gnu.org/licenses/>.

package sync

import (
	"errors"
	"sort"
	"sync"

	"golang.org/x/crypto/sha3"
)

// ErrUnknownHash is returned by HeaderChain.InsertHeaders when a header's
// declared parent is not already part of the chain. A header at number 1 is
// checked against the genesis at number 0 like any other.
var ErrUnknownHash = errors.New("sync: header has unknown parent")

// HeaderChain is the external collaborator (out of scope per spec.md §1)
// that actually persists headers. Only the slice of its interface the
// header-sync handler calls is declared here.
type HeaderChain interface {
	// InsertHeaders appends headers, already sorted by Number ascending, to
	// the chain. It returns the number of headers actually inserted.
	InsertHeaders(headers []*Header) (int, error)
	// HeadNumber returns the highest number currently stored.
	HeadNumber() uint64
}

// Header is the wire-level header shape the sync handler imports; it
// carries just enough for chain-membership and consensus bookkeeping, not
// the full block header used elsewhere in a complete node.
type Header struct {
	Number     uint64
	ParentHash [32]byte
	Hash       [32]byte
	Timestamp  uint64
}

// HashHeader computes a Header's identity hash from its fields, standing in
// for the full RLP-then-Keccak256 a complete node would use.
func HashHeader(h *Header) [32]byte {
	buf := make([]byte, 0, 48)
	buf = appendUint64(buf, h.Number)
	buf = append(buf, h.ParentHash[:]...)
	buf = appendUint64(buf, h.Timestamp)
	return sha3.Sum256(buf)
}

func appendUint64(b []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 7; i >= 0; i-- {
		tmp[i] = byte(v)
		v >>= 8
	}
	return append(b, tmp[:]...)
}

// MemoryHeaderChain is an in-memory HeaderChain used by tests and by
// embedders that haven't wired a real chain yet. Each batch is sorted by
// Number before insertion; a header is rejected (and the batch stops) when
// its ParentHash doesn't match the stored header at Number-1. A header at an
// already stored number replaces it, and the head only moves upward.
type MemoryHeaderChain struct {
	mu      sync.Mutex
	headers map[uint64]*Header
	head    uint64
}

// NewMemoryHeaderChain returns a chain seeded with a synthetic genesis at
// number 0.
func NewMemoryHeaderChain() *MemoryHeaderChain {
	genesis := &Header{Number: 0}
	genesis.Hash = HashHeader(genesis)
	return &MemoryHeaderChain{
		headers: map[uint64]*Header{0: genesis},
	}
}

func (c *MemoryHeaderChain) InsertHeaders(headers []*Header) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sorted := append([]*Header(nil), headers...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Number < sorted[j].Number })

	inserted := 0
	for _, h := range sorted {
		parent, ok := c.headers[h.Number-1]
		if !ok || parent.Hash != h.ParentHash {
			return inserted, ErrUnknownHash
		}
		c.headers[h.Number] = h
		if h.Number > c.head {
			c.head = h.Number
		}
		inserted++
	}
	return inserted, nil
}

func (c *MemoryHeaderChain) HeadNumber() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.head
}
