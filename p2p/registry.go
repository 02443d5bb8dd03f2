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
	"math/rand"
	"net"
	"sync"

	"github.com/holiman/uint256"
	"golang.org/x/time/rate"

	"github.com/probechain/probe-core/log"
)

var registryLog = log.New("p2p.registry")

// PeerPatch is a sparse update applied to a stored Peer record: a nil field
// means "leave as is". Mode is handled specially, see Registry.Update vs
// Registry.UpdateWithMode.
type PeerPatch struct {
	State                  *StateBits
	Mode                   *Mode
	NodeID                 *string
	Revision               *string
	CurrentTotalDifficulty *uint256.Int
	TargetTotalDifficulty  *uint256.Int
	RequestedBlockNum      *uint64
	LastRequestNum         *uint64
	ReputationDelta        int64
}

func (p *PeerPatch) apply(peer *Peer, allowMode bool) {
	if p.State != nil {
		peer.State = *p.State
	}
	if allowMode && p.Mode != nil {
		peer.Mode = *p.Mode
	}
	if p.NodeID != nil {
		peer.NodeID = *p.NodeID
	}
	if p.Revision != nil {
		peer.Revision = *p.Revision
	}
	if p.CurrentTotalDifficulty != nil {
		peer.CurrentTotalDifficulty = p.CurrentTotalDifficulty
	}
	if p.TargetTotalDifficulty != nil {
		peer.TargetTotalDifficulty = p.TargetTotalDifficulty
	}
	if p.RequestedBlockNum != nil {
		peer.RequestedBlockNum = *p.RequestedBlockNum
	}
	if p.LastRequestNum != nil {
		peer.LastRequestNum = *p.LastRequestNum
	}
	peer.Reputation += p.ReputationDelta
}

// Registry is the in-memory peer map (C2): peer_hash -> Peer record, plus
// the parallel socket map it shares a lock order with (registry, then
// socket, on every insert and remove — spec.md §5).
type Registry struct {
	mu       sync.RWMutex
	peers    map[uint64]*Peer
	sockets  *socketMap
	maxPeers int
}

// NewRegistry returns an empty Registry capped at maxPeers entries.
func NewRegistry(maxPeers int) *Registry {
	return &Registry{
		peers:    make(map[uint64]*Peer),
		sockets:  newSocketMap(),
		maxPeers: maxPeers,
	}
}

// Add inserts peer and its socket iff peer_hash is absent from both maps
// and the registry is under capacity. On any rejection, conn is shut down.
// Reports whether the insert happened.
func (r *Registry) Add(peer *Peer, conn net.Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.peers[peer.PeerHash]; exists {
		registryLog.Trace("add rejected: known peer", "peer", peer.PeerHash)
		conn.Close()
		return false
	}
	if len(r.peers) >= r.maxPeers {
		registryLog.Trace("add rejected: registry full", "peer", peer.PeerHash, "max", r.maxPeers)
		conn.Close()
		return false
	}
	if !r.sockets.put(peer.PeerHash, conn) {
		registryLog.Trace("add rejected: known socket", "peer", peer.PeerHash)
		conn.Close()
		return false
	}
	r.peers[peer.PeerHash] = peer.Clone()
	return true
}

// AddDiscovered inserts peer as a DISCONNECTED, socket-less record — the
// role "add_node" plays in the original source for peers learned about via
// ACTIVENODESRES rather than dialed directly. Subject to the same capacity
// cap as Add, but does not touch the socket map.
func (r *Registry) AddDiscovered(peer *Peer) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.peers[peer.PeerHash]; exists {
		return false
	}
	if len(r.peers) >= r.maxPeers {
		return false
	}
	r.peers[peer.PeerHash] = peer.Clone()
	return true
}

// Get returns a snapshot copy of the stored record, or (nil, false).
func (r *Registry) Get(hash uint64) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.peers[hash]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Update applies patch to the stored record, always preserving the stored
// Mode (patch.Mode is ignored) — the role "update_node" plays in the
// original source for call sites outside the sync-mode state machine.
func (r *Registry) Update(hash uint64, patch *PeerPatch) bool {
	return r.update(hash, patch, false)
}

// UpdateWithMode applies patch to the stored record, including patch.Mode
// if present — the role "update_node_with_mode" plays for the sync handler
// transitioning a peer's mode (NORMAL/BACKWARD/FORWARD/...).
func (r *Registry) UpdateWithMode(hash uint64, patch *PeerPatch) bool {
	return r.update(hash, patch, true)
}

func (r *Registry) update(hash uint64, patch *PeerPatch, allowMode bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[hash]
	if !ok {
		return false
	}
	patch.apply(p, allowMode)
	return true
}

// Remove deletes hash from the registry and shuts down its socket,
// returning the removed record (or nil). Idempotent: removing an absent
// hash is a no-op that returns nil.
func (r *Registry) Remove(hash uint64) *Peer {
	r.mu.Lock()
	p, ok := r.peers[hash]
	if ok {
		delete(r.peers, hash)
	}
	r.mu.Unlock()
	// Socket removal happens outside the registry lock but after the
	// registry entry is gone, preserving the registry-then-socket order.
	r.sockets.remove(hash)
	if !ok {
		return nil
	}
	return p.Clone()
}

// Reset atomically shuts down every socket and clears the registry.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.peers = make(map[uint64]*Peer)
	r.mu.Unlock()
	r.sockets.resetAll()
}

// Count returns the number of peers whose State matches every bit in mask.
func (r *Registry) Count(mask StateBits) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.peers {
		if p.State.Has(mask) {
			n++
		}
	}
	return n
}

// CountByMode returns the number of ALIVE peers in the given sync Mode.
func (r *Registry) CountByMode(mode Mode) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, p := range r.peers {
		if p.State.Has(StateAlive) && p.Mode == mode {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of every peer whose State matches every bit in
// mask. A zero mask matches every peer.
func (r *Registry) Snapshot(mask StateBits) []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Peer, 0, len(r.peers))
	for _, p := range r.peers {
		if p.State.Has(mask) {
			out = append(out, p.Clone())
		}
	}
	return out
}

// RandomInactive uniformly samples a DISCONNECTED, non-boot peer, removes
// it from the registry (a reconnect attempt is expected to re-add it), and
// returns it. Returns nil if there is no such peer.
func (r *Registry) RandomInactive() *Peer {
	r.mu.Lock()
	var candidates []uint64
	for hash, p := range r.peers {
		if p.State.Has(StateDisconnected) && !p.FromBoot {
			candidates = append(candidates, hash)
		}
	}
	if len(candidates) == 0 {
		r.mu.Unlock()
		return nil
	}
	hash := candidates[rand.Intn(len(candidates))]
	p := r.peers[hash]
	delete(r.peers, hash)
	r.mu.Unlock()
	r.sockets.remove(hash)
	return p.Clone()
}

// RandomAlive uniformly samples an ALIVE peer without removing it. Returns
// nil if there is none.
func (r *Registry) RandomAlive() *Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var candidates []*Peer
	for _, p := range r.peers {
		if p.State.Has(StateAlive) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[rand.Intn(len(candidates))].Clone()
}

// RandomActive samples up to n distinct ALIVE peers excluding the one
// whose peer_hash is `except` — used by the active-nodes responder
// (spec.md §4.4, "up to N (= min(16, count(ALIVE))) random active peers,
// excluding the requester").
func (r *Registry) RandomActive(n int, except uint64) []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var candidates []*Peer
	for hash, p := range r.peers {
		if hash != except && p.State.Has(StateAlive) {
			candidates = append(candidates, p)
		}
	}
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	out := make([]*Peer, n)
	for i := 0; i < n; i++ {
		out[i] = candidates[i].Clone()
	}
	return out
}

// Len returns the current registry size.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// AttachSend wires a send channel into the stored record for hash, marking
// the peer Connected(). Used once per connection setup before the
// reader/writer fibers are spawned.
func (r *Registry) AttachSend(hash uint64, tx chan *Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.peers[hash]; ok {
		p.tx = tx
	}
}

// RequestLimiter returns the stored record's per-peer rate limiter,
// constructing one via newLimiter on first use. The limiter lives on the
// canonical Peer record rather than in the caller, so it is reclaimed
// automatically when the peer is removed. Returns nil if hash is unknown.
func (r *Registry) RequestLimiter(hash uint64, newLimiter func() *rate.Limiter) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[hash]
	if !ok {
		return nil
	}
	if p.RequestLimiter == nil {
		p.RequestLimiter = newLimiter()
	}
	return p.RequestLimiter
}

// Send enqueues frame on hash's send channel. A full channel or an absent
// peer is treated as a terminal signal: the peer is removed (spec.md §5,
// "A failed send is a terminal signal to remove the peer").
func (r *Registry) Send(hash uint64, frame *Frame) {
	r.mu.RLock()
	p, ok := r.peers[hash]
	var tx chan *Frame
	if ok {
		tx = p.tx
	}
	r.mu.RUnlock()

	if !ok || tx == nil {
		registryLog.Trace("send: peer not found", "peer", hash)
		r.Remove(hash)
		return
	}
	select {
	case tx <- frame:
	default:
		registryLog.Trace("send: channel full, dropping peer", "peer", hash)
		r.Remove(hash)
	}
}
