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

// ExternalHandler (C8) is the interface the embedder registers at Enable
// time to receive every frame whose Head.Module is ModuleExternal. It is
// invoked exactly once per non-P2P frame. The runtime gives no ordering
// guarantee across peers but does guarantee per-peer in-order delivery,
// because the reader fiber for a given peer is single-threaded.
//
// The embedder is responsible for its own thread-safety across peers.
type ExternalHandler interface {
	Handle(peerHash uint64, frame *Frame)
}

// ExternalHandlerFunc adapts a plain function to ExternalHandler.
type ExternalHandlerFunc func(peerHash uint64, frame *Frame)

func (f ExternalHandlerFunc) Handle(peerHash uint64, frame *Frame) { f(peerHash, frame) }
