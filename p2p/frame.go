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

// Version identifies the wire protocol version of a frame.
type Version uint8

const (
	V0 Version = 0
	V1 Version = 1
)

// Module identifies which dispatch table a frame's action belongs to.
type Module uint8

const (
	ModuleP2P      Module = 0
	ModuleExternal Module = 1
)

// ActionP2P enumerates the control actions of the P2P module.
type ActionP2P uint8

const (
	ActionDisconnect ActionP2P = iota
	ActionHandshakeReq
	ActionHandshakeRes
	ActionPing
	ActionPong
	ActionActiveNodesReq
	ActionActiveNodesRes
)

// ActionSync enumerates the actions carried in the EXTERNAL module that the
// header-sync handler (C6) understands; everything else in that module is
// forwarded verbatim to the registered external Handler (C8).
type ActionSync uint8

const (
	ActionStatusReq ActionSync = iota
	ActionStatusRes
	ActionBlocksHeadersReq
	ActionBlocksHeadersRes
	ActionBlocksBodiesReq
	ActionBlocksBodiesRes
	ActionBroadcastTx
	ActionBroadcastBlock
)

// HeaderLen is the fixed size, in bytes, of a Frame's header on the wire:
// 1 version + 1 module + 1 action + 4 length + 4 route.
const HeaderLen = 11

// FrameHeader is the fixed-size preamble of every wire Frame.
type FrameHeader struct {
	Version Version
	Module  Module
	Action  uint8
	Length  uint32
	Route   uint32
}

// Frame ("ChannelBuffer" in the original source) is a single length-
// prefixed message on the wire: a fixed header plus an opaque body.
type Frame struct {
	Head FrameHeader
	Body []byte
}

// NewFrame builds a Frame from its header fields and body, computing
// Head.Length from len(body).
func NewFrame(ver Version, mod Module, action uint8, route uint32, body []byte) *Frame {
	return &Frame{
		Head: FrameHeader{
			Version: ver,
			Module:  mod,
			Action:  action,
			Length:  uint32(len(body)),
			Route:   route,
		},
		Body: body,
	}
}
