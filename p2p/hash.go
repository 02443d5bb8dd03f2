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

import "github.com/cespare/xxhash/v2"

// calculateHash derives the 64-bit, non-cryptographic peer_hash that is the
// primary key of the peer registry. Outbound peers hash their node
// identifier; inbound peers hash endpoint∥local_ip (see hashInbound).
func calculateHash(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// hashOutbound computes the peer_hash used for an outbound connection: the
// hash of the remote node identifier alone.
func hashOutbound(nodeID string) uint64 {
	return calculateHash([]byte(nodeID))
}

// hashInbound computes the peer_hash used for a freshly accepted inbound
// connection, before any handshake has revealed the remote node identifier:
// the hash of the remote endpoint concatenated with our own local IP.
func hashInbound(remoteEndpoint, localIP string) uint64 {
	return calculateHash([]byte(remoteEndpoint + localIP))
}
