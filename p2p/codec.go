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
	"bytes"
	"encoding/binary"
	"errors"
)

// DefaultMaxFrameLen is the default cap on a Frame's declared body length
// (16 MiB), matching the teacher's recv-buffer sizing for a connection.
const DefaultMaxFrameLen = 16 << 20

// ErrOversizedFrame is returned when a frame header declares a body larger
// than the configured maximum.
var ErrOversizedFrame = errors.New("p2p: frame exceeds max_frame_len")

// Encode renders a well-formed Frame to wire bytes. Encode is infallible:
// given a Frame whose Head.Length matches len(Body), it always succeeds.
func Encode(f *Frame) []byte {
	out := make([]byte, HeaderLen+len(f.Body))
	out[0] = byte(f.Head.Version)
	out[1] = byte(f.Head.Module)
	out[2] = f.Head.Action
	binary.BigEndian.PutUint32(out[3:7], f.Head.Length)
	binary.BigEndian.PutUint32(out[7:11], f.Head.Route)
	copy(out[HeaderLen:], f.Body)
	return out
}

// Decoder incrementally decodes Frames from a byte stream, preserving
// partial progress across reads the way tokio_codec's Decoder trait does:
// Feed appends newly-read bytes, Next tries to pull one complete Frame out
// of what has accumulated so far.
type Decoder struct {
	maxFrameLen uint32
	buf         bytes.Buffer
}

// NewDecoder returns a Decoder that rejects frames whose declared body
// length exceeds maxFrameLen. A maxFrameLen of 0 selects DefaultMaxFrameLen.
func NewDecoder(maxFrameLen uint32) *Decoder {
	if maxFrameLen == 0 {
		maxFrameLen = DefaultMaxFrameLen
	}
	return &Decoder{maxFrameLen: maxFrameLen}
}

// Feed appends newly-read bytes to the decoder's internal buffer.
func (d *Decoder) Feed(data []byte) {
	d.buf.Write(data)
}

// Next attempts to decode one Frame from the buffered bytes.
//
//   - (frame, nil):  a complete frame was decoded and consumed.
//   - (nil, nil):    not enough data buffered yet; call Feed and retry.
//   - (nil, err):    the header is malformed (oversized length); the
//     caller must fail the stream and drop the peer, per spec.
func (d *Decoder) Next() (*Frame, error) {
	raw := d.buf.Bytes()
	if len(raw) < HeaderLen {
		return nil, nil
	}
	head := FrameHeader{
		Version: Version(raw[0]),
		Module:  Module(raw[1]),
		Action:  raw[2],
		Length:  binary.BigEndian.Uint32(raw[3:7]),
		Route:   binary.BigEndian.Uint32(raw[7:11]),
	}
	if head.Length > d.maxFrameLen {
		return nil, ErrOversizedFrame
	}
	total := HeaderLen + int(head.Length)
	if len(raw) < total {
		return nil, nil
	}
	body := make([]byte, head.Length)
	copy(body, raw[HeaderLen:total])
	d.buf.Next(total)
	return &Frame{Head: head, Body: body}, nil
}
