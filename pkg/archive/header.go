// Package archive implements the compressed envelope that wraps APAK container bodies.
package archive

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrMagic is returned for data that does not start with the APAK magic.
	ErrMagic = errors.New("not an APAK envelope")
	// ErrVersion is returned for envelopes written by a newer layout.
	ErrVersion = errors.New("unsupported envelope version")
	// ErrTruncated is returned when the data ends before the declared sizes.
	ErrTruncated = errors.New("truncated envelope")
)

// Magic identifies an APAK envelope.
var Magic = [4]byte{'A', 'P', 'A', 'K'}

const (
	// HeaderSize is the encoded size of a Header.
	HeaderSize = 24
	// Version is the envelope layout written by Encode.
	Version = 1
)

// Header precedes the zstd frame of an envelope. All fields are little endian.
type Header struct {
	Version          uint32
	Length           uint64 // body size after decompression
	CompressedLength uint64 // size of the zstd frame
}

// AppendBinary appends the encoded header, magic included, to dst.
func (h Header) AppendBinary(dst []byte) ([]byte, error) {
	dst = append(dst, Magic[:]...)
	dst = binary.LittleEndian.AppendUint32(dst, h.Version)
	dst = binary.LittleEndian.AppendUint64(dst, h.Length)
	dst = binary.LittleEndian.AppendUint64(dst, h.CompressedLength)
	return dst, nil
}

// ParseHeader reads and checks the header at the start of data.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, fmt.Errorf("%w: header needs %d bytes, got %d", ErrTruncated, HeaderSize, len(data))
	}
	if [4]byte(data[:4]) != Magic {
		return Header{}, fmt.Errorf("%w: magic %x", ErrMagic, data[:4])
	}
	h := Header{
		Version:          binary.LittleEndian.Uint32(data[4:8]),
		Length:           binary.LittleEndian.Uint64(data[8:16]),
		CompressedLength: binary.LittleEndian.Uint64(data[16:24]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if h.Length == 0 || h.CompressedLength == 0 {
		return Header{}, fmt.Errorf("empty body in header (%d/%d bytes)", h.Length, h.CompressedLength)
	}
	return h, nil
}
