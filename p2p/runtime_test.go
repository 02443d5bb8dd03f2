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
	"time"

	"github.com/stretchr/testify/require"
)

// TestPeerFillDialsExactlyOne is scenario S7: given 3 DISCONNECTED peers,
// self excluded, none blacklisted, after one tick exactly one outbound
// connect is attempted.
func TestPeerFillDialsExactlyOne(t *testing.T) {
	server, err := Enable(Config{LocalEndpoint: "srv@127.0.0.1:0", NetID: 1, MaxPeers: 10}, "test", nil)
	require.NoError(t, err)
	defer server.Disable()

	client, err := Enable(Config{LocalEndpoint: "cli@127.0.0.1:0", NetID: 1, MaxPeers: 10}, "test", nil)
	require.NoError(t, err)
	defer client.Disable()

	for i := 0; i < 3; i++ {
		client.registry.AddDiscovered(&Peer{
			PeerHash: uint64(100 + i),
			Endpoint: server.Addr().String(),
			State:    StateDisconnected,
		})
	}

	client.peerFill()

	require.Eventually(t, func() bool {
		return client.registry.Count(StateConnected|StateIsServer) >= 1
	}, time.Second, 10*time.Millisecond)

	// Exactly one of the three candidates left the DISCONNECTED pool.
	requireExactlyOneConnected(t, client)
}

func requireExactlyOneConnected(t *testing.T, rt *Runtime) {
	t.Helper()
	connected := rt.registry.Count(StateConnected | StateIsServer)
	if connected != 1 {
		t.Fatalf("want exactly 1 outbound connect after one peerFill tick, got %d", connected)
	}
}

// TestHandshakeCompletesBothSides exercises the full dial -> HANDSHAKEREQ ->
// HANDSHAKERES -> both ALIVE path end to end over real TCP sockets.
func TestHandshakeCompletesBothSides(t *testing.T) {
	server, err := Enable(Config{LocalEndpoint: "srv@127.0.0.1:0", NetID: 7, MaxPeers: 10}, "srv-rev", nil)
	require.NoError(t, err)
	defer server.Disable()

	client, err := Enable(Config{LocalEndpoint: "cli@127.0.0.1:0", NetID: 7, MaxPeers: 10}, "cli-rev", nil)
	require.NoError(t, err)
	defer client.Disable()

	client.dial(&Peer{NodeID: "cli-target-node", Endpoint: server.Addr().String()})

	require.Eventually(t, func() bool {
		return client.registry.Count(StateAlive) == 1 && server.registry.Count(StateAlive) == 1
	}, 2*time.Second, 10*time.Millisecond, "handshake should complete on both sides")
}
