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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCodecRoundTrip is scenario S5 and property P3: decode(encode(f)) = f
// for a well-formed frame.
func TestCodecRoundTrip(t *testing.T) {
	f := NewFrame(V0, ModuleP2P, uint8(ActionHandshakeReq), 0, []byte{0xDE, 0xAD})

	d := NewDecoder(0)
	d.Feed(Encode(f))
	got, err := d.Next()
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, f.Head, got.Head)
	assert.Equal(t, f.Body, got.Body)
}

// TestCodecRoundTripProperty is P3 generalized across many bodies and
// actions rather than a single literal case.
func TestCodecRoundTripProperty(t *testing.T) {
	bodies := [][]byte{
		{},
		{0x00},
		make([]byte, 1024),
		[]byte("the quick brown fox jumps over the lazy dog"),
	}
	for _, body := range bodies {
		for _, action := range []uint8{0, 1, 6, 255} {
			f := NewFrame(V0, ModuleP2P, action, 7, body)
			d := NewDecoder(0)
			d.Feed(Encode(f))
			got, err := d.Next()
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, f.Head, got.Head)
			assert.Equal(t, f.Body, got.Body)
		}
	}
}

// TestDecoderFeedsAcrossPartialReads verifies the streaming Decoder
// accumulates bytes fed in arbitrary chunks, matching how a socket reader
// loop actually delivers data.
func TestDecoderFeedsAcrossPartialReads(t *testing.T) {
	f := NewFrame(V0, ModuleExternal, uint8(ActionBlocksHeadersReq), 42, []byte("partial-read-body"))
	raw := Encode(f)

	d := NewDecoder(0)
	for i := 0; i < len(raw); i++ {
		d.Feed(raw[i : i+1])
		got, err := d.Next()
		require.NoError(t, err)
		if i < len(raw)-1 {
			assert.Nil(t, got, "should not decode before all bytes arrive")
		} else {
			require.NotNil(t, got)
			assert.Equal(t, f.Body, got.Body)
		}
	}
}

// TestDecoderRejectsOversizedFrame covers the ErrOversizedFrame path used
// to drop a peer that declares a body past max_frame_len (spec.md §7,
// "Protocol" error kind).
func TestDecoderRejectsOversizedFrame(t *testing.T) {
	d := NewDecoder(4)
	f := NewFrame(V0, ModuleP2P, uint8(ActionPing), 0, []byte{1, 2, 3, 4, 5})
	d.Feed(Encode(f))
	_, err := d.Next()
	assert.ErrorIs(t, err, ErrOversizedFrame)
}

// TestDecoderKeepsBufferAfterOneFrame ensures a second frame queued right
// behind the first is still decodable from the same Decoder instance.
func TestDecoderKeepsBufferAfterOneFrame(t *testing.T) {
	f1 := NewFrame(V0, ModuleP2P, uint8(ActionPing), 0, []byte("one"))
	f2 := NewFrame(V0, ModuleP2P, uint8(ActionPong), 0, []byte("two"))

	d := NewDecoder(0)
	d.Feed(Encode(f1))
	d.Feed(Encode(f2))

	got1, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, f1.Body, got1.Body)

	got2, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, f2.Body, got2.Body)
}
