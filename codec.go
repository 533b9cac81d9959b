package redlist

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// Codec translates values to and from the byte strings held by the remote
// store. Every value entering or leaving the store passes through it.
type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte) (any, error)
}

// JSON is the default codec.
var JSON Codec = jsonCodec{}

type jsonCodec struct{}

func (jsonCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Decode(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

// minCompressSize is the threshold below which values are stored as-is;
// compressing tiny payloads costs more than it saves.
const minCompressSize = 128

// zstd frame magic, used to tell compressed payloads from passthroughs.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type zstdCodec struct {
	inner   Codec
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewZstdCodec wraps inner with zstd compression. Level 1 is fastest,
// 2 default, 3 best; anything else falls back to the default level.
// Encoded values smaller than 128 bytes, or values that do not shrink,
// are stored uncompressed.
func NewZstdCodec(inner Codec, level int) (Codec, error) {
	var encoderLevel zstd.EncoderLevel
	switch level {
	case 1:
		encoderLevel = zstd.SpeedFastest
	case 2:
		encoderLevel = zstd.SpeedDefault
	case 3:
		encoderLevel = zstd.SpeedBetterCompression
	default:
		encoderLevel = zstd.SpeedDefault
	}

	encoder, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(encoderLevel),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, err
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	return &zstdCodec{inner: inner, encoder: encoder, decoder: decoder}, nil
}

func (c *zstdCodec) Encode(v any) ([]byte, error) {
	data, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	if len(data) < minCompressSize {
		return data, nil
	}

	compressed := c.encoder.EncodeAll(data, make([]byte, 0, len(data)))
	if len(compressed) >= len(data) {
		return data, nil
	}
	return compressed, nil
}

func (c *zstdCodec) Decode(data []byte) (any, error) {
	if bytes.HasPrefix(data, zstdMagic) {
		decompressed, err := c.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress value: %w", err)
		}
		data = decompressed
	}
	return c.inner.Decode(data)
}
