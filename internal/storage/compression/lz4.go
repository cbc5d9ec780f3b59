package compression

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4"
)

// NoCompressor implements a pass-through compressor that doesn't compress data.
type NoCompressor struct{}

// Name returns the name of the compressor.
func (c *NoCompressor) Name() string {
	return "none"
}

// Compress returns a copy of data.
func (c *NoCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte{}, data...), nil
}

// Decompress returns a copy of data.
func (c *NoCompressor) Decompress(data []byte) ([]byte, error) {
	return append([]byte{}, data...), nil
}

// Block formats written by LZ4Compressor.
const (
	blockRaw byte = iota
	blockLZ4
)

// LZ4Compressor implements LZ4 block compression. Each output starts with a
// format byte and the uncompressed length as a uvarint; data LZ4 cannot
// shrink is stored raw.
type LZ4Compressor struct{}

// Name returns the name of the compressor.
func (c *LZ4Compressor) Name() string {
	return "lz4"
}

// Compress compresses data using LZ4.
func (c *LZ4Compressor) Compress(data []byte) ([]byte, error) {
	header := make([]byte, 1+binary.MaxVarintLen64)
	n := 1 + binary.PutUvarint(header[1:], uint64(len(data)))

	out := make([]byte, n+lz4.CompressBlockBound(len(data)))
	size, err := lz4.CompressBlock(data, out[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("lz4 compression failed: %w", err)
	}
	if size == 0 || size >= len(data) {
		header[0] = blockRaw
		return append(header[:n], data...), nil
	}
	header[0] = blockLZ4
	copy(out, header[:n])
	return out[:n+size], nil
}

// Decompress decompresses LZ4 data.
func (c *LZ4Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty block", ErrCorruptData)
	}
	length, n := binary.Uvarint(data[1:])
	if n <= 0 {
		return nil, fmt.Errorf("%w: bad length", ErrCorruptData)
	}
	payload := data[1+n:]

	switch data[0] {
	case blockRaw:
		if uint64(len(payload)) != length {
			return nil, fmt.Errorf("%w: raw block of %d bytes, want %d", ErrCorruptData, len(payload), length)
		}
		return append([]byte{}, payload...), nil
	case blockLZ4:
		out := make([]byte, length)
		size, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
		}
		if uint64(size) != length {
			return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorruptData, size, length)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown block format %d", ErrCorruptData, data[0])
	}
}
