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

// Package snapshot moves actor snapshots between runtimes. A Codec turns a
// SerializedState into a checksummed, optionally compressed frame and a Store
// keeps frames by actor id until the target runtime restores them.
package snapshot

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"

	"github.com/tochemey/goflow/actor"
	gerrors "github.com/tochemey/goflow/errors"
)

// Compression is the algorithm applied to the encoded snapshot
type Compression byte

const (
	// CompressionNone stores the JSON payload as is
	CompressionNone Compression = iota
	// CompressionZstd compresses the payload with zstd
	CompressionZstd
	// CompressionBrotli compresses the payload with brotli
	CompressionBrotli
)

// String returns the compression name
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionBrotli:
		return "brotli"
	default:
		return fmt.Sprintf("compression(%d)", byte(c))
	}
}

// DefaultMaxDecodedSize caps the size of a decompressed snapshot
const DefaultMaxDecodedSize = 64 << 20

var magic = [4]byte{'G', 'F', 'S', '1'}

// headerSize is magic, compression byte and the xxh3 checksum
const headerSize = len(magic) + 1 + 8

// CodecOption configures a Codec
type CodecOption interface {
	// Apply sets the option value of a codec.
	Apply(c *Codec)
}

// enforce compilation error
var _ CodecOption = CodecOptionFunc(nil)

// CodecOptionFunc implements the CodecOption interface.
type CodecOptionFunc func(*Codec)

func (f CodecOptionFunc) Apply(c *Codec) {
	f(c)
}

// WithCompression sets the compression applied by Encode
func WithCompression(compression Compression) CodecOption {
	return CodecOptionFunc(func(c *Codec) {
		c.compression = compression
	})
}

// WithBrotliLevel sets the brotli compression level
func WithBrotliLevel(level int) CodecOption {
	return CodecOptionFunc(func(c *Codec) {
		c.brotliLevel = level
	})
}

// WithMaxDecodedSize caps the decompressed size accepted by Decode
func WithMaxDecodedSize(size uint64) CodecOption {
	return CodecOptionFunc(func(c *Codec) {
		c.maxDecoded = size
	})
}

// Codec encodes actor snapshots into frames and decodes them back.
// A frame is laid out as magic, compression byte, big endian xxh3 checksum
// of the payload, payload. Decode accepts every compression regardless of
// the one the codec writes with.
//
// A Codec is safe for concurrent use.
type Codec struct {
	compression Compression
	brotliLevel int
	maxDecoded  uint64

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	brotliWriters sync.Pool
	brotliReaders sync.Pool
}

// NewCodec creates a Codec
func NewCodec(opts ...CodecOption) (*Codec, error) {
	c := &Codec{
		compression: CompressionNone,
		brotliLevel: brotli.DefaultCompression,
		maxDecoded:  DefaultMaxDecodedSize,
	}
	for _, opt := range opts {
		opt.Apply(c)
	}

	if c.compression > CompressionBrotli {
		return nil, fmt.Errorf("%w: unknown compression %s", gerrors.ErrInvalidConfig, c.compression)
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedDefault),
		zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, err
	}

	decoder, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(0),
		zstd.WithDecoderMaxMemory(c.maxDecoded))
	if err != nil {
		_ = encoder.Close()
		return nil, err
	}

	c.encoder = encoder
	c.decoder = decoder
	level := c.brotliLevel
	c.brotliWriters.New = func() any {
		return brotli.NewWriterLevel(nil, level)
	}
	c.brotliReaders.New = func() any {
		return brotli.NewReader(nil)
	}
	return c, nil
}

// Compression returns the compression applied by Encode
func (c *Codec) Compression() Compression {
	return c.compression
}

// Encode serializes the snapshot into a frame
func (c *Codec) Encode(state *actor.SerializedState) ([]byte, error) {
	if state == nil || state.Private == nil {
		return nil, gerrors.NewErrMalformedSnapshot("private")
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}

	payload, err := c.compress(raw)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, headerSize, headerSize+len(payload))
	copy(frame, magic[:])
	frame[len(magic)] = byte(c.compression)
	binary.BigEndian.PutUint64(frame[len(magic)+1:headerSize], xxh3.Hash(payload))
	return append(frame, payload...), nil
}

// Decode parses a frame back into a snapshot. Any framing, checksum or
// decompression failure is reported as ErrCorruptSnapshot.
func (c *Codec) Decode(frame []byte) (*actor.SerializedState, error) {
	if len(frame) < headerSize || !bytes.Equal(frame[:len(magic)], magic[:]) {
		return nil, corrupt("bad header")
	}

	compression := Compression(frame[len(magic)])
	checksum := binary.BigEndian.Uint64(frame[len(magic)+1 : headerSize])
	payload := frame[headerSize:]
	if xxh3.Hash(payload) != checksum {
		return nil, corrupt("checksum mismatch")
	}

	raw, err := c.decompress(compression, payload)
	if err != nil {
		return nil, corrupt(err.Error())
	}

	state := new(actor.SerializedState)
	if err := json.Unmarshal(raw, state); err != nil {
		return nil, corrupt(err.Error())
	}
	if state.Private == nil {
		return nil, gerrors.NewErrMalformedSnapshot("private")
	}
	return state, nil
}

// Close releases the zstd encoder and decoder
func (c *Codec) Close() error {
	c.decoder.Close()
	return c.encoder.Close()
}

func (c *Codec) compress(raw []byte) ([]byte, error) {
	switch c.compression {
	case CompressionZstd:
		return c.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
	case CompressionBrotli:
		var buf bytes.Buffer
		writer := c.brotliWriters.Get().(*brotli.Writer)
		writer.Reset(&buf)
		if _, err := writer.Write(raw); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		writer.Reset(nil)
		c.brotliWriters.Put(writer)
		return buf.Bytes(), nil
	default:
		return raw, nil
	}
}

func (c *Codec) decompress(compression Compression, payload []byte) ([]byte, error) {
	switch compression {
	case CompressionNone:
		return payload, nil
	case CompressionZstd:
		return c.decoder.DecodeAll(payload, nil)
	case CompressionBrotli:
		reader := c.brotliReaders.Get().(*brotli.Reader)
		defer c.brotliReaders.Put(reader)
		if err := reader.Reset(bytes.NewReader(payload)); err != nil {
			return nil, err
		}
		raw, err := io.ReadAll(io.LimitReader(reader, int64(c.maxDecoded)+1))
		if err != nil {
			return nil, err
		}
		if uint64(len(raw)) > c.maxDecoded {
			return nil, fmt.Errorf("decoded snapshot exceeds %d bytes", c.maxDecoded)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown compression %s", compression)
	}
}

func corrupt(reason string) error {
	return fmt.Errorf("%w: %s", gerrors.ErrCorruptSnapshot, reason)
}
