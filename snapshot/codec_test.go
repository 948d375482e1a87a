// MIT License
//
// Copyright (c) 2022-2026 GoAkt Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package snapshot

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/xxh3"

	"github.com/tochemey/goflow/actor"
	"github.com/tochemey/goflow/config"
	gerrors "github.com/tochemey/goflow/errors"
	"github.com/tochemey/goflow/library"
	"github.com/tochemey/goflow/log"
)

const testNode = "node-1"

func newFactory(t *testing.T) *actor.Factory {
	t.Helper()
	cfg, err := config.New(testNode, config.WithLogger(log.DiscardLogger))
	require.NoError(t, err)
	registry := actor.NewRegistry()
	require.NoError(t, library.Register(registry))
	return actor.NewFactory(registry, actor.NewRuntimeContext(cfg))
}

func newCodec(t *testing.T, opts ...CodecOption) *Codec {
	t.Helper()
	codec, err := NewCodec(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = codec.Close() })
	return codec
}

func counterState(t *testing.T) *actor.SerializedState {
	t.Helper()
	a, err := newFactory(t).Create(library.CounterTag, actor.Args{"start": 3, "limit": 7}, actor.WithActorID("counter-1"))
	require.NoError(t, err)
	state, err := a.Serialize()
	require.NoError(t, err)
	return state
}

func requireSameJSON(t *testing.T, expected, actual any) {
	t.Helper()
	want, err := json.Marshal(expected)
	require.NoError(t, err)
	got, err := json.Marshal(actual)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got))
}

func TestCodec(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionZstd, CompressionBrotli} {
		t.Run("round trip with "+compression.String(), func(t *testing.T) {
			codec := newCodec(t, WithCompression(compression))
			assert.Equal(t, compression, codec.Compression())
			state := counterState(t)

			frame, err := codec.Encode(state)
			require.NoError(t, err)
			assert.Equal(t, byte(compression), frame[len(magic)])

			decoded, err := codec.Decode(frame)
			require.NoError(t, err)
			requireSameJSON(t, state, decoded)
		})
	}
	t.Run("decode accepts every compression", func(t *testing.T) {
		writer := newCodec(t, WithCompression(CompressionBrotli), WithBrotliLevel(1))
		reader := newCodec(t)
		state := counterState(t)

		frame, err := writer.Encode(state)
		require.NoError(t, err)
		decoded, err := reader.Decode(frame)
		require.NoError(t, err)
		requireSameJSON(t, state, decoded)
	})
	t.Run("unknown compression option", func(t *testing.T) {
		_, err := NewCodec(WithCompression(Compression(9)))
		require.ErrorIs(t, err, gerrors.ErrInvalidConfig)
		assert.Equal(t, "compression(9)", Compression(9).String())
	})
	t.Run("encode needs the private partition", func(t *testing.T) {
		codec := newCodec(t)
		_, err := codec.Encode(nil)
		require.ErrorIs(t, err, gerrors.ErrMalformedSnapshot)
		_, err = codec.Encode(&actor.SerializedState{})
		require.ErrorIs(t, err, gerrors.ErrMalformedSnapshot)
	})
	t.Run("corrupt frames", func(t *testing.T) {
		codec := newCodec(t, WithCompression(CompressionZstd))
		frame, err := codec.Encode(counterState(t))
		require.NoError(t, err)

		flipped := append([]byte(nil), frame...)
		flipped[len(flipped)-1] ^= 0xff

		badMagic := append([]byte(nil), frame...)
		badMagic[0] = 'X'

		unknown := append([]byte(nil), frame...)
		unknown[len(magic)] = 7

		garbage := frameOf(CompressionZstd, []byte("not zstd"))
		badJSON := frameOf(CompressionNone, []byte("{"))

		for name, input := range map[string][]byte{
			"empty":               nil,
			"short":               frame[:headerSize-1],
			"bad magic":           badMagic,
			"checksum mismatch":   flipped,
			"unknown compression": unknown,
			"bad payload":         garbage,
			"bad json":            badJSON,
		} {
			_, err := codec.Decode(input)
			assert.ErrorIs(t, err, gerrors.ErrCorruptSnapshot, name)
		}

		_, err = codec.Decode(frameOf(CompressionNone, []byte(`{"custom":{}}`)))
		require.ErrorIs(t, err, gerrors.ErrMalformedSnapshot)
	})
	t.Run("decoded size is bounded", func(t *testing.T) {
		writer := newCodec(t, WithCompression(CompressionBrotli))
		reader := newCodec(t, WithMaxDecodedSize(16))
		frame, err := writer.Encode(counterState(t))
		require.NoError(t, err)
		_, err = reader.Decode(frame)
		require.ErrorIs(t, err, gerrors.ErrCorruptSnapshot)
	})
}

// frameOf builds a frame with a valid checksum around an arbitrary payload
func frameOf(compression Compression, payload []byte) []byte {
	frame := make([]byte, headerSize, headerSize+len(payload))
	copy(frame, magic[:])
	frame[len(magic)] = byte(compression)
	binary.BigEndian.PutUint64(frame[len(magic)+1:headerSize], xxh3.Hash(payload))
	return append(frame, payload...)
}
