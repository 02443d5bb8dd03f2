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
	"github.com/probechain/probe-core/log"
)

var dispatchLog = log.New("p2p.dispatch")

// activeNodesFanout is the cap on how many peers are returned in a single
// ACTIVENODESRES (spec.md §4.4: "up to N (= min(16, count(ALIVE)))").
const activeNodesFanout = 16

// dispatch (C4) routes a decoded Frame to the P2P control-plane handlers or
// forwards it to the registered ExternalHandler (C8). It is the Go
// counterpart of the original source's `fn handle(node, req)`.
func (rt *Runtime) dispatch(peerHash uint64, f *Frame) {
	switch Version(f.Head.Version) {
	case V0:
		switch Module(f.Head.Module) {
		case ModuleP2P:
			rt.dispatchP2P(peerHash, f)
		case ModuleExternal:
			if rt.external != nil {
				rt.external.Handle(peerHash, f)
			}
		default:
			dispatchLog.Error("unknown module", "peer", peerHash, "module", f.Head.Module)
		}
	case V1:
		// Reserved for a future wire revision; nothing emits V1 today, so
		// receiving one is logged and the frame is dropped (spec.md §4.4).
		dispatchLog.Warn("unsupported protocol version", "peer", peerHash, "version", f.Head.Version)
	default:
		dispatchLog.Error("invalid version", "peer", peerHash, "version", f.Head.Version)
	}
}

func (rt *Runtime) dispatchP2P(peerHash uint64, f *Frame) {
	switch ActionP2P(f.Head.Action) {
	case ActionDisconnect:
		dispatchLog.Trace("DISCONNECT received", "peer", peerHash)
		rt.registry.Update(peerHash, &PeerPatch{State: stateBitsPtr(StateDisconnected)})
		rt.registry.Remove(peerHash)
	case ActionHandshakeReq:
		rt.handleHandshakeReq(peerHash, f)
	case ActionHandshakeRes:
		rt.handleHandshakeRes(peerHash, f)
	case ActionPing, ActionPong:
		// Liveness is observed implicitly; no-op per spec.md §4.4.
	case ActionActiveNodesReq:
		rt.handleActiveNodesReq(peerHash)
	case ActionActiveNodesRes:
		rt.handleActiveNodesRes(peerHash, f)
	default:
		dispatchLog.Error("invalid P2P action", "peer", peerHash, "action", f.Head.Action)
	}
}

func (rt *Runtime) handleHandshakeReq(peerHash uint64, f *Frame) {
	req, err := decodeHandshakeReq(f.Body)
	if err != nil {
		dispatchLog.Warn("malformed HANDSHAKEREQ, dropping peer", "peer", peerHash, "err", err)
		rt.registry.Remove(peerHash)
		return
	}
	if req.NetID != rt.cfg.NetID {
		dispatchLog.Warn("handshake net_id mismatch, dropping peer", "peer", peerHash, "want", rt.cfg.NetID, "got", req.NetID)
		rt.registry.Remove(peerHash)
		return
	}

	res := encodeHandshakeRes(handshakeRes{Result: 1, Revision: rt.revision})
	rt.registry.Send(peerHash, NewFrame(V0, ModuleP2P, uint8(ActionHandshakeRes), 0, res))

	nodeID := trimNullBytes(req.NodeID[:])
	rt.reconcilePeerHash(peerHash, nodeID)
	alive := StateAlive | StateConnected
	if p, ok := rt.registry.Get(peerHash); ok {
		alive |= p.State & StateIsServer
	}
	rt.registry.Update(peerHash, &PeerPatch{
		State:    &alive,
		NodeID:   &nodeID,
		Revision: &req.Revision,
	})
	dispatchLog.Trace("handshake accepted (inbound)", "peer", peerHash)
}

// reconcilePeerHash resolves the duplicate-record problem spec.md §9 flags:
// an inbound connection is keyed by hashInbound(endpoint, local_ip) before
// handshake, but the same logical peer may already be registered under
// hashOutbound(node_id) — learned earlier via a boot-node entry or an
// ACTIVENODESRES offer. Once the handshake reveals node_id, that stale,
// socket-less record is redundant: this live, connected record is the one
// that should survive under its own (inbound) key, so the stale one is
// removed rather than the live connection being re-keyed mid-flight, which
// would require threading a mutable key reference through the reader and
// writer goroutines for no behavioral benefit within one connection's
// lifetime.
func (rt *Runtime) reconcilePeerHash(peerHash uint64, nodeID string) {
	if nodeID == "" {
		return
	}
	other := hashOutbound(nodeID)
	if other == peerHash {
		return
	}
	if _, ok := rt.registry.Get(other); ok {
		dispatchLog.Trace("reconciling duplicate peer record", "live", peerHash, "stale", other)
		rt.registry.Remove(other)
	}
}

func (rt *Runtime) handleHandshakeRes(peerHash uint64, f *Frame) {
	res, err := decodeHandshakeRes(f.Body)
	if err != nil || res.Result == 0 {
		dispatchLog.Warn("handshake rejected by peer, dropping", "peer", peerHash, "err", err)
		rt.registry.Remove(peerHash)
		return
	}
	alive := StateAlive | StateConnected
	if p, ok := rt.registry.Get(peerHash); ok {
		alive |= p.State & StateIsServer
	}
	rt.registry.Update(peerHash, &PeerPatch{State: &alive, Revision: &res.Revision})
	dispatchLog.Trace("handshake accepted (outbound)", "peer", peerHash)
}

func (rt *Runtime) handleActiveNodesReq(peerHash uint64) {
	n := activeNodesFanout
	if alive := rt.registry.Count(StateAlive); alive < n {
		n = alive
	}
	peers := rt.registry.RandomActive(n, peerHash)
	nodes := make([]activeNode, 0, len(peers))
	for _, p := range peers {
		nodes = append(nodes, peerToActiveNode(p))
	}
	body := encodeActiveNodesRes(nodes)
	rt.registry.Send(peerHash, NewFrame(V0, ModuleP2P, uint8(ActionActiveNodesRes), 0, body))
}

func (rt *Runtime) handleActiveNodesRes(peerHash uint64, f *Frame) {
	nodes, err := decodeActiveNodesRes(f.Body)
	if err != nil {
		dispatchLog.Warn("malformed ACTIVENODESRES, dropping peer", "peer", peerHash, "err", err)
		rt.registry.Remove(peerHash)
		return
	}
	for _, n := range nodes {
		rt.offerPeer(n)
	}
}

// offerPeer inserts an advertised peer as DISCONNECTED if it is new,
// subject to the registry cap (spec.md §4.4, ACTIVENODESRES handling).
func (rt *Runtime) offerPeer(n activeNode) {
	id := trimNullBytes(n.NodeID[:])
	hash := hashOutbound(id)
	if _, ok := rt.registry.Get(hash); ok {
		return
	}
	p := &Peer{
		PeerHash: hash,
		NodeID:   id,
		Endpoint: endpointString(n.IP, n.Port),
		State:    StateDisconnected,
	}
	// No live socket yet: boot-reconnect/peer-fill will dial it later.
	rt.registry.AddDiscovered(p)
}

func stateBitsPtr(s StateBits) *StateBits { return &s }
