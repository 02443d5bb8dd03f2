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
	"encoding/binary"
	"errors"
)

// ErrMalformedBody is returned by the body decoders below when a frame's
// payload doesn't match the action's expected layout (spec.md §6).
var ErrMalformedBody = errors.New("p2p: malformed frame body")

type handshakeReq struct {
	NodeID   [36]byte
	NetID    uint32
	IP       [8]byte
	Port     uint32
	Revision string
}

func encodeHandshakeReq(h handshakeReq) []byte {
	rev := []byte(h.Revision)
	if len(rev) > 255 {
		rev = rev[:255]
	}
	out := make([]byte, 0, 36+4+8+4+1+len(rev))
	out = append(out, h.NodeID[:]...)
	out = appendU32(out, h.NetID)
	out = append(out, h.IP[:]...)
	out = appendU32(out, h.Port)
	out = append(out, byte(len(rev)))
	out = append(out, rev...)
	return out
}

func decodeHandshakeReq(body []byte) (handshakeReq, error) {
	var h handshakeReq
	if len(body) < 36+4+8+4+1 {
		return h, ErrMalformedBody
	}
	copy(h.NodeID[:], body[:36])
	h.NetID = binary.BigEndian.Uint32(body[36:40])
	copy(h.IP[:], body[40:48])
	h.Port = binary.BigEndian.Uint32(body[48:52])
	revLen := int(body[52])
	if len(body) < 53+revLen {
		return h, ErrMalformedBody
	}
	h.Revision = string(body[53 : 53+revLen])
	return h, nil
}

type handshakeRes struct {
	Result   uint8
	Revision string
}

func encodeHandshakeRes(h handshakeRes) []byte {
	rev := []byte(h.Revision)
	if len(rev) > 255 {
		rev = rev[:255]
	}
	out := make([]byte, 0, 2+len(rev))
	out = append(out, h.Result, byte(len(rev)))
	out = append(out, rev...)
	return out
}

func decodeHandshakeRes(body []byte) (handshakeRes, error) {
	var h handshakeRes
	if len(body) < 2 {
		return h, ErrMalformedBody
	}
	h.Result = body[0]
	revLen := int(body[1])
	if len(body) < 2+revLen {
		return h, ErrMalformedBody
	}
	h.Revision = string(body[2 : 2+revLen])
	return h, nil
}

type activeNode struct {
	NodeID [36]byte
	IP     [8]byte
	Port   uint32
}

func encodeActiveNodesRes(nodes []activeNode) []byte {
	if len(nodes) > 255 {
		nodes = nodes[:255]
	}
	out := make([]byte, 0, 1+len(nodes)*(36+8+4))
	out = append(out, byte(len(nodes)))
	for _, n := range nodes {
		out = append(out, n.NodeID[:]...)
		out = append(out, n.IP[:]...)
		out = appendU32(out, n.Port)
	}
	return out
}

func decodeActiveNodesRes(body []byte) ([]activeNode, error) {
	if len(body) < 1 {
		return nil, ErrMalformedBody
	}
	count := int(body[0])
	want := 1 + count*(36+8+4)
	if len(body) < want {
		return nil, ErrMalformedBody
	}
	out := make([]activeNode, count)
	off := 1
	for i := 0; i < count; i++ {
		var n activeNode
		copy(n.NodeID[:], body[off:off+36])
		off += 36
		copy(n.IP[:], body[off:off+8])
		off += 8
		n.Port = binary.BigEndian.Uint32(body[off : off+4])
		off += 4
		out[i] = n
	}
	return out, nil
}

func encodeBlocksHeadersReq(from uint64, size uint32) []byte {
	out := make([]byte, 12)
	binary.BigEndian.PutUint64(out[:8], from)
	binary.BigEndian.PutUint32(out[8:], size)
	return out
}

func decodeBlocksHeadersReq(body []byte) (from uint64, size uint32, err error) {
	if len(body) < 12 {
		return 0, 0, ErrMalformedBody
	}
	return binary.BigEndian.Uint64(body[:8]), binary.BigEndian.Uint32(body[8:12]), nil
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
