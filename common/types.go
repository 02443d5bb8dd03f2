// Copyright 2015 The go-probeum Authors
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

// Package common declares the identity and hash types consumed by the
// consensus and networking core. It does not implement the cryptographic
// primitives that produce these values; that is left to the node's
// embedding application (spec Non-goals).
package common

import (
	"encoding/hex"
	"fmt"
)

// Lengths of hashes and node identifiers in bytes.
const (
	// HashLength is the expected length of a block hash.
	HashLength = 32
	// NodeIDLength is the expected length of a printable node identifier.
	NodeIDLength = 36
)

// Hash represents an arbitrary 32 byte hash, e.g. of a block header.
type Hash [HashLength]byte

// BytesToHash sets b to hash. If b is larger than len(h), b is cropped
// from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// SetBytes sets the hash to the value of b, left-padding if b is shorter.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Bytes returns the raw bytes of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns a "0x"-prefixed hex string of the hash.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

func (h Hash) String() string { return h.Hex() }

// IsZero reports whether the hash is the zero value.
func (h Hash) IsZero() bool { return h == Hash{} }

// NodeID is the 36 byte printable identifier of a p2p node, e.g.
// a UUID-derived string padded/truncated to NodeIDLength.
type NodeID [NodeIDLength]byte

// BytesToNodeID sets b to a NodeID: b is copied from the first byte on,
// NUL-padded on the right if shorter and truncated on the right if longer.
func BytesToNodeID(b []byte) NodeID {
	var id NodeID
	if len(b) > len(id) {
		b = b[:NodeIDLength]
	}
	copy(id[:], b)
	return id
}

// String returns the textual form of the node identifier, with trailing
// NUL padding stripped.
func (id NodeID) String() string {
	n := len(id)
	for n > 0 && id[n-1] == 0 {
		n--
	}
	return string(id[:n])
}

func (id NodeID) Bytes() []byte { return id[:] }

// Endpoint is a network address in "ip:port" form, carried alongside a
// NodeID to form a full peer locator ("id@ip:port").
type Endpoint struct {
	IP   [8]byte // IPv4 address in the first 4 bytes, rest zero; fixed width for hashing
	Port uint32
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", ipString(e.IP), e.Port)
}

func ipString(b [8]byte) string {
	// IPv4-mapped addresses are stored in the first 4 bytes; the rest is
	// zero. Full IPv6 support is an embedder concern (out of scope here).
	return fmt.Sprintf("%d.%d.%d.%d", b[0], b[1], b[2], b[3])
}
