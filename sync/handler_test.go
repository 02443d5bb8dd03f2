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
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/probechain/probe-core/p2p"
)

// newTestPeer registers a fresh ALIVE peer with a send channel attached so
// Handler.GetHeadersFromNode has somewhere to deliver a frame to.
func newTestPeer(t *testing.T, reg *p2p.Registry, hash uint64, mode p2p.Mode) chan *p2p.Frame {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })

	peer := &p2p.Peer{
		PeerHash: hash,
		State:    p2p.StateAlive,
		Mode:     mode,
	}
	require.True(t, reg.Add(peer, server))
	tx := make(chan *p2p.Frame, 4)
	reg.AttachSend(hash, tx)
	return tx
}

func newTestHandler(chain HeaderChain) (*Handler, *p2p.Registry, *Storage) {
	reg := p2p.NewRegistry(16)
	storage := NewStorage(chain)
	h := NewHandler(storage, reg, false)
	return h, reg, storage
}

func TestGetHeadersFromNodeInitializesRequestedFromSynced(t *testing.T) {
	chain := NewMemoryHeaderChain()
	h, reg, storage := newTestHandler(chain)
	storage.SetSyncedNumber(10)
	tx := newTestPeer(t, reg, 1, p2p.ModeNormal)

	h.GetHeadersFromNode(1, 0, 50)

	select {
	case f := <-tx:
		assert.EqualValues(t, p2p.ActionBlocksHeadersReq, f.Head.Action)
		from, size, err := decodeBlocksHeadersReqForTest(f.Body)
		require.NoError(t, err)
		assert.Equal(t, uint64(10), from) // max(1, requested(11)-1)
		assert.Equal(t, uint32(50), size)
	default:
		t.Fatal("expected a BLOCKSHEADERSREQ frame")
	}

	peer, ok := reg.Get(1)
	require.True(t, ok)
	assert.Equal(t, uint64(11), peer.RequestedBlockNum)
}

func TestGetHeadersFromNodeRateLimited(t *testing.T) {
	chain := NewMemoryHeaderChain()
	h, reg, _ := newTestHandler(chain)
	tx := newTestPeer(t, reg, 2, p2p.ModeNormal)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h.now = func() time.Time { return now }
	h.GetHeadersFromNode(2, 0, 0)
	<-tx // drain the first request

	h.now = func() time.Time { return now.Add(10 * time.Millisecond) }
	h.GetHeadersFromNode(2, 0, 0)

	select {
	case <-tx:
		t.Fatal("second request within 50ms should have been rate-limited")
	default:
	}
}

// TestAllowRequestRefillsAfterWindow exercises the rate.Limiter directly:
// property P7 only requires a minimum *spacing*, so a peer must be allowed
// again once a full requestRateLimit window has elapsed.
func TestAllowRequestRefillsAfterWindow(t *testing.T) {
	chain := NewMemoryHeaderChain()
	h, reg, _ := newTestHandler(chain)
	newTestPeer(t, reg, 7, p2p.ModeNormal)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.True(t, h.allowRequest(7, start))
	require.False(t, h.allowRequest(7, start.Add(10*time.Millisecond)))
	require.True(t, h.allowRequest(7, start.Add(60*time.Millisecond)))
}

func TestGetHeadersFromNodeBootOnlyGate(t *testing.T) {
	chain := NewMemoryHeaderChain()
	reg := p2p.NewRegistry(16)
	storage := NewStorage(chain)
	h := NewHandler(storage, reg, true)
	tx := newTestPeer(t, reg, 3, p2p.ModeNormal)

	h.GetHeadersFromNode(3, 0, 0)

	select {
	case <-tx:
		t.Fatal("non-boot peer must be gated when syncFromBootNodesOnly is set")
	default:
	}
}

func TestGetHeadersFromNodeDedupsSameFrom(t *testing.T) {
	chain := NewMemoryHeaderChain()
	h, reg, _ := newTestHandler(chain)
	tx := newTestPeer(t, reg, 4, p2p.ModeForward)

	reg.Update(4, &p2p.PeerPatch{RequestedBlockNum: u64ptr(5), LastRequestNum: u64ptr(6)})

	h.GetHeadersFromNode(4, 0, 10) // ModeForward: from = requested+1 = 6, equals LastRequestNum

	select {
	case <-tx:
		t.Fatal("duplicate 'from' should have been deduped")
	default:
	}
}

func TestHandleBlocksHeadersResImportsAndBumpsReputation(t *testing.T) {
	chain := NewMemoryHeaderChain()
	h, reg, storage := newTestHandler(chain)
	newTestPeer(t, reg, 5, p2p.ModeNormal)

	genesis := &Header{Number: 0}
	genesis.Hash = HashHeader(genesis)
	h1 := &Header{Number: 1, ParentHash: genesis.Hash}
	h1.Hash = HashHeader(h1)

	frame := p2p.NewFrame(p2p.V0, p2p.ModuleExternal, uint8(p2p.ActionBlocksHeadersRes), 0, encodeBlocksHeadersRes([]*Header{h1}))
	h.HandleBlocksHeadersRes(5, frame)

	assert.Equal(t, uint64(1), storage.SyncedNumber())
	peer, ok := reg.Get(5)
	require.True(t, ok)
	assert.EqualValues(t, 10, peer.Reputation)
}

func TestHandleBlocksHeadersResDiscardsStaleHeaders(t *testing.T) {
	chain := NewMemoryHeaderChain()
	h, reg, storage := newTestHandler(chain)
	storage.SetSyncedNumber(5)
	newTestPeer(t, reg, 6, p2p.ModeNormal)

	stale := &Header{Number: 2}
	frame := p2p.NewFrame(p2p.V0, p2p.ModuleExternal, uint8(p2p.ActionBlocksHeadersRes), 0, encodeBlocksHeadersRes([]*Header{stale}))
	h.HandleBlocksHeadersRes(6, frame)

	peer, ok := reg.Get(6)
	require.True(t, ok)
	assert.EqualValues(t, 1, peer.Reputation, "an all-stale response only earns the +1 reputation bump")
}

func TestHandleBlocksHeadersResDropsPeerOnMalformedBody(t *testing.T) {
	chain := NewMemoryHeaderChain()
	h, reg, _ := newTestHandler(chain)
	newTestPeer(t, reg, 7, p2p.ModeNormal)

	frame := p2p.NewFrame(p2p.V0, p2p.ModuleExternal, uint8(p2p.ActionBlocksHeadersRes), 0, []byte{0xFF, 0xFF})
	h.HandleBlocksHeadersRes(7, frame)

	_, ok := reg.Get(7)
	assert.False(t, ok, "malformed BLOCKSHEADERSRES should drop the peer")
}

func TestHandleBlocksHeadersResTransitionsModeOnOrphan(t *testing.T) {
	chain := NewMemoryHeaderChain()
	h, reg, _ := newTestHandler(chain)
	newTestPeer(t, reg, 8, p2p.ModeNormal)

	// ParentHash deliberately doesn't match any chain entry: an orphan.
	orphan := &Header{Number: 1, ParentHash: [32]byte{0xAA}}
	frame := p2p.NewFrame(p2p.V0, p2p.ModuleExternal, uint8(p2p.ActionBlocksHeadersRes), 0, encodeBlocksHeadersRes([]*Header{orphan}))
	h.HandleBlocksHeadersRes(8, frame)

	peer, ok := reg.Get(8)
	require.True(t, ok)
	assert.Equal(t, p2p.ModeBackward, peer.Mode)
}

func u64ptr(v uint64) *uint64 { return &v }

// decodeBlocksHeadersReqForTest mirrors p2p's unexported BLOCKSHEADERSREQ
// body decoder, which this package cannot import directly.
func decodeBlocksHeadersReqForTest(body []byte) (uint64, uint32, error) {
	if len(body) < 12 {
		return 0, 0, ErrMalformedBody
	}
	from := uint64(body[0])<<56 | uint64(body[1])<<48 | uint64(body[2])<<40 | uint64(body[3])<<32 |
		uint64(body[4])<<24 | uint64(body[5])<<16 | uint64(body[6])<<8 | uint64(body[7])
	size := uint32(body[8])<<24 | uint32(body[9])<<16 | uint32(body[10])<<8 | uint32(body[11])
	return from, size, nil
}
