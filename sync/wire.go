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

package sync

import (
	"encoding/binary"
	"errors"
)

// ErrMalformedBody mirrors p2p.ErrMalformedBody for the sync-owned body
// layouts (BLOCKSHEADERSREQ/RES) that live outside the p2p package.
var ErrMalformedBody = errors.New("sync: malformed frame body")

// headerSize is the fixed encoding width of a single Header on the wire:
// 8 (number) + 32 (parent hash) + 32 (hash) + 8 (timestamp).
const headerSize = 8 + 32 + 32 + 8

func encodeBlocksHeadersReq(from uint64, size uint32) []byte {
	out := make([]byte, 12)
	binary.BigEndian.PutUint64(out[:8], from)
	binary.BigEndian.PutUint32(out[8:], size)
	return out
}

// encodeBlocksHeadersRes renders headers as the wire table's "concatenated
// length-prefixed header encodings": a u32 byte length followed by that
// many bytes, repeated per header.
func encodeBlocksHeadersRes(headers []*Header) []byte {
	out := make([]byte, 0, len(headers)*(4+headerSize))
	for _, h := range headers {
		out = appendU32(out, headerSize)
		out = appendU64(out, h.Number)
		out = append(out, h.ParentHash[:]...)
		out = append(out, h.Hash[:]...)
		out = appendU64(out, h.Timestamp)
	}
	return out
}

func decodeBlocksHeadersRes(body []byte) ([]*Header, error) {
	var out []*Header
	off := 0
	for off < len(body) {
		if off+4 > len(body) {
			return nil, ErrMalformedBody
		}
		n := binary.BigEndian.Uint32(body[off : off+4])
		off += 4
		if n != headerSize || off+int(n) > len(body) {
			return nil, ErrMalformedBody
		}
		h := &Header{}
		h.Number = binary.BigEndian.Uint64(body[off : off+8])
		copy(h.ParentHash[:], body[off+8:off+40])
		copy(h.Hash[:], body[off+40:off+72])
		h.Timestamp = binary.BigEndian.Uint64(body[off+72 : off+80])
		out = append(out, h)
		off += int(n)
	}
	return out, nil
}

func appendU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}
