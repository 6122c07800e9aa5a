package archive

import (
	"bytes"
	"fmt"
	"io"

	"github.com/DataDog/zstd"
)

// DefaultCompressionLevel is the default compression level for encoding.
const DefaultCompressionLevel = zstd.BestSpeed

type encodeConfig struct {
	level int
}

// Option configures Encode.
type Option func(*encodeConfig)

// WithCompressionLevel sets the zstd compression level.
func WithCompressionLevel(level int) Option {
	return func(c *encodeConfig) {
		c.level = level
	}
}

// Encode compresses body and returns the full envelope (header followed by the zstd frame).
func Encode(body []byte, opts ...Option) ([]byte, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty body")
	}
	cfg := &encodeConfig{level: DefaultCompressionLevel}
	for _, opt := range opts {
		opt(cfg)
	}

	compressed, err := zstd.CompressLevel(nil, body, cfg.level)
	if err != nil {
		return nil, fmt.Errorf("compress body: %w", err)
	}

	header := Header{Version: Version, Length: uint64(len(body)), CompressedLength: uint64(len(compressed))}
	out, _ := header.AppendBinary(make([]byte, 0, HeaderSize+len(compressed)))
	return append(out, compressed...), nil
}

// Decode validates the envelope header and returns the decompressed body.
func Decode(data []byte) ([]byte, error) {
	header, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if header.CompressedLength > uint64(len(data)-HeaderSize) {
		return nil, fmt.Errorf("%w: body needs %d bytes, got %d", ErrTruncated, header.CompressedLength, len(data)-HeaderSize)
	}
	end := HeaderSize + int(header.CompressedLength)

	body, err := zstd.Decompress(nil, data[HeaderSize:end])
	if err != nil {
		return nil, fmt.Errorf("decompress body: %w", err)
	}
	if uint64(len(body)) != header.Length {
		return nil, fmt.Errorf("incomplete body: expected %d, got %d", header.Length, len(body))
	}
	return body, nil
}

// ReadAll reads an entire envelope from r and returns the decompressed body.
func ReadAll(r io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, fmt.Errorf("read envelope: %w", err)
	}
	return Decode(buf.Bytes())
}
