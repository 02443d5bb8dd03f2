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
	"net"
	"sync"

	"github.com/probechain/probe-core/log"
)

var socketsLog = log.New("p2p.sockets")

// socketMap is the parallel map of peer_hash -> live connection that the
// registry's peer records don't own directly (spec.md "Ownership"). A
// single mutex guards it; registry and socket-map removals are always
// ordered registry-then-socket to match the lock order used on insert.
type socketMap struct {
	mu   sync.Mutex
	conn map[uint64]net.Conn
}

func newSocketMap() *socketMap {
	return &socketMap{conn: make(map[uint64]net.Conn)}
}

// put inserts conn under hash iff hash is not already present. It reports
// whether the insert happened.
func (s *socketMap) put(hash uint64, conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conn[hash]; ok {
		return false
	}
	s.conn[hash] = conn
	return true
}

func (s *socketMap) has(hash uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.conn[hash]
	return ok
}

// remove closes and removes the socket under hash, if any. Idempotent.
func (s *socketMap) remove(hash uint64) {
	s.mu.Lock()
	conn, ok := s.conn[hash]
	if ok {
		delete(s.conn, hash)
	}
	s.mu.Unlock()
	if ok {
		if err := conn.Close(); err != nil {
			socketsLog.Trace("closing socket", "peer", hash, "err", err)
		}
	}
}

// resetAll closes every socket and empties the map.
func (s *socketMap) resetAll() {
	s.mu.Lock()
	all := s.conn
	s.conn = make(map[uint64]net.Conn)
	s.mu.Unlock()
	for hash, conn := range all {
		if err := conn.Close(); err != nil {
			socketsLog.Trace("closing socket during reset", "peer", hash, "err", err)
		}
	}
}

func (s *socketMap) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conn)
}
