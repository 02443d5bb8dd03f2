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

// Package sync implements the header-sync handler (C6) and its storage
// (C7): the per-peer request/response pipeline that keeps a local header
// chain caught up with the network, layered behind the p2p runtime's
// ExternalHandler interface (C8).
package sync

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/probechain/probe-core/log"
	"github.com/probechain/probe-core/p2p"
)

var handlerLog = log.New("sync.handler")

// backwardSyncStep is BACKWARD_SYNC_STEP from the original source: the
// width, in blocks, of a NORMAL-mode lookahead bump and a BACKWARD-mode
// step back (spec.md §4.6 step 6).
const backwardSyncStep = 128

// defaultRequestSize is the header count requested when a caller of
// GetHeadersFromNode passes 0.
const defaultRequestSize = 192

// requestRateLimit is the minimum spacing between two BLOCKSHEADERSREQ sent
// to the same peer (spec.md §4.6 step 2, property P7), enforced through a
// per-peer token bucket (rate.Every(requestRateLimit), burst 1) rather than
// a hand-rolled timestamp comparison.
const requestRateLimit = 50 * time.Millisecond

// importMu is the process-wide mutex serialising writes to the header
// chain across all peers (spec.md §4.6 "Import is serialised by a single
// process-wide mutex", property P8). It is package-level rather than a
// Handler field because a process runs exactly one header chain; a test
// that wants isolation constructs its own Handler against its own
// MemoryHeaderChain and is unaffected by other tests sharing this mutex,
// since the mutex only ever serializes, never synchronizes across chains.
var importMu sync.Mutex

// Handler is C6. It holds no peer state of its own: everything per-peer
// (mode, requested_block_num, last_request_num, the request rate limiter,
// total-difficulty figures, reputation) lives in the p2p registry's Peer
// records, consistent with spec.md §9's instruction to avoid scattering
// state outside the owned collections.
type Handler struct {
	storage  *Storage
	registry *p2p.Registry
	bootOnly bool

	now func() time.Time // overridden by tests; defaults to time.Now
}

// NewHandler builds a Handler over storage and registry. bootOnly mirrors
// the embedder's sync_from_boot_nodes_only configuration flag.
func NewHandler(storage *Storage, registry *p2p.Registry, bootOnly bool) *Handler {
	return &Handler{storage: storage, registry: registry, bootOnly: bootOnly, now: time.Now}
}

// GetHeadersFromNode runs the eight-step request algorithm of spec.md
// §4.6. from == 0 asks the handler to compute the starting block from the
// peer's mode; size == 0 falls back to defaultRequestSize.
func (h *Handler) GetHeadersFromNode(peerHash uint64, from uint64, size uint32) {
	peer, ok := h.registry.Get(peerHash)
	if !ok {
		return
	}
	if h.bootOnly && !peer.FromBoot {
		return
	}

	now := h.now()
	if !h.allowRequest(peerHash, now) {
		return
	}

	requested := peer.RequestedBlockNum
	if requested == 0 {
		requested = h.storage.SyncedNumber() + 1
		h.registry.Update(peerHash, &p2p.PeerPatch{RequestedBlockNum: &requested})
	}

	if h.storage.SyncedNumber()+MaxCachedBlockHashes/4 <= requested {
		return
	}

	if peer.TargetTotalDifficulty != nil && peer.CurrentTotalDifficulty != nil {
		if peer.TargetTotalDifficulty.Cmp(peer.CurrentTotalDifficulty) < 0 {
			return
		}
	}

	if from == 0 {
		synced := h.storage.SyncedNumber()
		switch peer.Mode {
		case p2p.ModeBackward:
			from = maxU64(1, subFloorU64(requested, backwardSyncStep))
		case p2p.ModeForward:
			from = requested + 1
		default: // NORMAL and any reserved mode fall back to the NORMAL rule
			if requested+backwardSyncStep < synced {
				requested = synced + backwardSyncStep
				h.registry.Update(peerHash, &p2p.PeerPatch{RequestedBlockNum: &requested})
			}
			from = maxU64(1, requested-1)
		}
	}

	if peer.LastRequestNum == from {
		return
	}
	if size == 0 {
		size = defaultRequestSize
	}

	h.registry.Update(peerHash, &p2p.PeerPatch{LastRequestNum: &from})
	h.storage.SetRequestedLastTime(from + uint64(size))

	body := encodeBlocksHeadersReq(from, size)
	h.registry.Send(peerHash, p2p.NewFrame(p2p.V0, p2p.ModuleExternal, uint8(p2p.ActionBlocksHeadersReq), 0, body))
	handlerLog.Trace("sent BLOCKSHEADERSREQ", "peer", peerHash, "from", from, "size", size, "mode", peer.Mode)
}

// allowRequest reports whether peerHash's rate limiter has a token
// available at now, lazily creating the limiter on the peer's first
// request (spec.md §4.6 step 2, property P7).
func (h *Handler) allowRequest(peerHash uint64, now time.Time) bool {
	limiter := h.registry.RequestLimiter(peerHash, func() *rate.Limiter {
		return rate.NewLimiter(rate.Every(requestRateLimit), 1)
	})
	if limiter == nil {
		return false
	}
	return limiter.AllowN(now, 1)
}

// HandleBlocksHeadersRes is called by the embedder's ExternalHandler (or
// directly by a Handler wired as one, see Handle below) on receipt of
// BLOCKSHEADERSRES. It implements spec.md §4.6's parse/discard/import/
// reputation/mode-transition sequence.
func (h *Handler) HandleBlocksHeadersRes(peerHash uint64, frame *p2p.Frame) {
	headers, err := decodeBlocksHeadersRes(frame.Body)
	if err != nil {
		handlerLog.Warn("malformed BLOCKSHEADERSRES, dropping peer", "peer", peerHash, "err", err)
		h.registry.Remove(peerHash)
		return
	}

	synced := h.storage.SyncedNumber()
	accepted := make([]*Header, 0, len(headers))
	for _, hd := range headers {
		if hd.Number < synced {
			continue
		}
		accepted = append(accepted, hd)
	}

	var outcome responseOutcome
	outcome.accepted = len(accepted)
	if len(accepted) > 0 {
		importMu.Lock()
		n, insertErr := h.storage.Chain().InsertHeaders(accepted)
		importMu.Unlock()

		outcome.imported = n > 0
		outcome.orphaned = insertErr == ErrUnknownHash
		if n > 0 {
			h.storage.SetSyncedNumber(h.storage.Chain().HeadNumber())
		}
	}

	delta := int64(1)
	if len(accepted) > 0 {
		delta = 10
	}
	h.registry.Update(peerHash, &p2p.PeerPatch{ReputationDelta: delta})

	peer, ok := h.registry.Get(peerHash)
	if !ok {
		return
	}
	next := transitionMode(peer.Mode, outcome)
	if next != peer.Mode {
		h.registry.UpdateWithMode(peerHash, &p2p.PeerPatch{Mode: &next})
	}
}

// Handle adapts Handler to p2p.ExternalHandler: BLOCKSHEADERSRES is
// routed to HandleBlocksHeadersRes, everything else in the EXTERNAL
// module (STATUSREQ/RES, BLOCKSBODIES*, BROADCAST*) is out of scope for
// this handler (spec.md §1 Non-goals) and is logged at Trace rather than
// silently dropped, so an embedder missing a collaborator notices in logs
// rather than guessing why sync never progresses.
func (h *Handler) Handle(peerHash uint64, frame *p2p.Frame) {
	if p2p.ActionSync(frame.Head.Action) == p2p.ActionBlocksHeadersRes {
		h.HandleBlocksHeadersRes(peerHash, frame)
		return
	}
	handlerLog.Trace("non-header sync action ignored", "peer", peerHash, "action", frame.Head.Action)
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// subFloorU64 returns a-b, saturating at zero instead of underflowing.
func subFloorU64(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}
