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

package p2p

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestReconcilePeerHashRemovesStaleRecord covers spec.md §9's peer_hash
// open question: a peer learned earlier via a boot node or ACTIVENODESRES
// (keyed by hashOutbound(node_id)) must not survive once the same logical
// peer connects inbound and completes a handshake (keyed by
// hashInbound(...)).
func TestReconcilePeerHashRemovesStaleRecord(t *testing.T) {
	rt := &Runtime{registry: NewRegistry(10)}
	const nodeID = "known-peer-node-id"
	stale := hashOutbound(nodeID)
	require.True(t, rt.registry.AddDiscovered(&Peer{PeerHash: stale, NodeID: nodeID, State: StateDisconnected}))

	live := hashInbound("203.0.113.5:40000", "127.0.0.1")
	require.True(t, rt.registry.AddDiscovered(&Peer{PeerHash: live, State: StateConnected}))

	rt.reconcilePeerHash(live, nodeID)

	_, ok := rt.registry.Get(stale)
	assert.False(t, ok, "stale outbound-keyed record should be removed")
	_, ok = rt.registry.Get(live)
	assert.True(t, ok, "the live inbound-keyed record must survive")
}

func TestReconcilePeerHashNoopWithoutCollision(t *testing.T) {
	rt := &Runtime{registry: NewRegistry(10)}
	live := hashInbound("203.0.113.5:40000", "127.0.0.1")
	require.True(t, rt.registry.AddDiscovered(&Peer{PeerHash: live, State: StateConnected}))

	rt.reconcilePeerHash(live, "some-node-id-nobody-else-knows")

	_, ok := rt.registry.Get(live)
	assert.True(t, ok)
	assert.Equal(t, 1, rt.registry.Len())
}
