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
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"
)

// MaxCachedBlockHashes bounds the recently-seen header-hash cache (C7,
// spec.md §4.7's MAX_CACHED_BLOCK_HASHED example value) and, through it,
// the flow-control window in Handler.GetHeadersFromNode (synced_number +
// MaxCachedBlockHashes/4).
const MaxCachedBlockHashes = 128

// Storage is C7: the process-wide sync state the header-sync handler
// mutates. Every field is independently lockable, matching the source's
// per-field `Storage<Mutex<...>>` shape but expressed as one struct built
// once by NewStorage rather than scattered package-level statics
// (spec.md §9 — "model as an engine handle ... do not scatter globals").
type Storage struct {
	chain HeaderChain

	syncedNumber  uint64 // atomic
	requestedLast uint64 // atomic, "requested_block_number_last_time"

	seen *lru.Cache // [32]byte -> struct{}, self-locking
}

// NewStorage builds a Storage bound to chain, seeding synced_number from
// the chain's current head.
func NewStorage(chain HeaderChain) *Storage {
	cache, err := lru.New(MaxCachedBlockHashes)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// MaxCachedBlockHashes never is.
		panic(err)
	}
	return &Storage{
		chain:        chain,
		syncedNumber: chain.HeadNumber(),
		seen:         cache,
	}
}

// SyncedNumber returns the highest block number known-good locally.
func (s *Storage) SyncedNumber() uint64 { return atomic.LoadUint64(&s.syncedNumber) }

// SetSyncedNumber advances synced_number, ignoring a regression (the chain
// only moves forward).
func (s *Storage) SetSyncedNumber(n uint64) {
	for {
		cur := atomic.LoadUint64(&s.syncedNumber)
		if n <= cur {
			return
		}
		if atomic.CompareAndSwapUint64(&s.syncedNumber, cur, n) {
			return
		}
	}
}

// RequestedLastTime returns requested_block_number_last_time.
func (s *Storage) RequestedLastTime() uint64 { return atomic.LoadUint64(&s.requestedLast) }

// SetRequestedLastTime sets requested_block_number_last_time.
func (s *Storage) SetRequestedLastTime(n uint64) { atomic.StoreUint64(&s.requestedLast, n) }

// Chain returns the bound header chain handle.
func (s *Storage) Chain() HeaderChain { return s.chain }

// MarkSeen records hash as recently seen, evicting the least-recently-used
// entry past MaxCachedBlockHashes. It reports whether hash was already
// present, letting callers dedup an import without a second chain lookup.
func (s *Storage) MarkSeen(hash [32]byte) (alreadySeen bool) {
	if s.seen.Contains(hash) {
		s.seen.Get(hash) // refresh recency
		return true
	}
	s.seen.Add(hash, struct{}{})
	return false
}
