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
	"github.com/holiman/uint256"
	"golang.org/x/time/rate"
)

// StateBits is a composable bitmask describing a peer's connection state.
type StateBits uint32

const (
	// StateConnected means a TCP connection exists, handshake pending or done.
	StateConnected StateBits = 1 << iota
	// StateAlive means the handshake completed; implies StateConnected.
	StateAlive
	// StateDisconnected is mutually exclusive with StateConnected.
	StateDisconnected
	// StateIsServer means we initiated the connection (we are the client
	// from the transport's point of view, "server" in the original
	// source's naming of the dialing side).
	StateIsServer
)

func (s StateBits) Has(mask StateBits) bool { return s&mask == mask }

// Mode is a peer's header-sync mode.
type Mode uint8

const (
	ModeNormal Mode = iota
	ModeBackward
	ModeForward
	ModeLightning
	ModeThunder
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "NORMAL"
	case ModeBackward:
		return "BACKWARD"
	case ModeForward:
		return "FORWARD"
	case ModeLightning:
		return "LIGHTNING"
	case ModeThunder:
		return "THUNDER"
	default:
		return "UNKNOWN"
	}
}

// Peer is the full registry record for a connected or known remote node.
type Peer struct {
	PeerHash   uint64
	NodeID     string
	Endpoint   string // "ip:port"
	FromBoot   bool
	State      StateBits
	Mode       Mode
	NetID      uint32
	Revision   string

	CurrentTotalDifficulty *uint256.Int
	TargetTotalDifficulty  *uint256.Int

	RequestedBlockNum uint64
	LastRequestNum    uint64
	Reputation        int64

	// RequestLimiter throttles how often an embedder (the header-sync
	// handler) may send this peer a new request; created lazily by
	// Registry.RequestLimiter on first use and shared by every clone of
	// this record, so it is reclaimed for free when the peer is removed.
	RequestLimiter *rate.Limiter

	tx chan *Frame // present exactly while connected; nil otherwise
}

// Clone returns a deep-enough copy of p suitable as a registry snapshot:
// the tx channel handle is copied (channels are reference types in Go, so
// this still lets the reader/writer share the same underlying channel)
// but no caller may mutate the snapshot's fields and expect the registry
// to observe it — mutation must go through Registry.Update.
func (p *Peer) Clone() *Peer {
	cp := *p
	if p.CurrentTotalDifficulty != nil {
		cp.CurrentTotalDifficulty = new(uint256.Int).Set(p.CurrentTotalDifficulty)
	}
	if p.TargetTotalDifficulty != nil {
		cp.TargetTotalDifficulty = new(uint256.Int).Set(p.TargetTotalDifficulty)
	}
	return &cp
}

// Connected reports whether the peer currently has a live send channel.
func (p *Peer) Connected() bool { return p.tx != nil }

// trimNullBytes strips trailing NUL padding from a fixed-width field such
// as the 36 byte node identifier carried in HANDSHAKEREQ/ACTIVENODESRES.
func trimNullBytes(b []byte) string {
	n := len(b)
	for n > 0 && b[n-1] == 0 {
		n--
	}
	return string(b[:n])
}

// padNodeID renders id into a fixed 36 byte, NUL-padded field for the wire.
func padNodeID(id string) [36]byte {
	var out [36]byte
	copy(out[:], id)
	return out
}

// endpointString renders an 8 byte wire IP plus a port into "ip:port",
// matching common.Endpoint's v4-mapped convention.
func endpointString(ip [8]byte, port uint32) string {
	return fmtEndpoint(ip, port)
}

func peerToActiveNode(p *Peer) activeNode {
	ip, port := splitEndpoint(p.Endpoint)
	return activeNode{NodeID: padNodeID(p.NodeID), IP: ip, Port: port}
}
