package rle

import (
	"errors"
	"fmt"
	"io"
	"math"
)

// MaxExpansion is the largest ratio of unpacked to packed bytes: a two byte
// repeat packet yields 128 bytes.
const MaxExpansion = 64

// ErrRowTooLong is returned when a packed scanline does not fit the 16-bit
// row count. Callers can store such rasters uncompressed instead.
var ErrRowTooLong = errors.New("rle: packed scanline exceeds 16-bit row count")

// Compress encodes rows scanlines of stride bytes each, taken from data in
// order. It returns one packed byte count per scanline and the packed bytes.
// Missing input is treated as zeros.
func Compress(data []byte, rows, stride int) ([]uint16, []byte, error) {
	counts := make([]uint16, rows)
	var packed []byte
	row := make([]byte, stride)
	for y := 0; y < rows; y++ {
		clear(row)
		if start := y * stride; start < len(data) {
			copy(row, data[start:])
		}
		before := len(packed)
		packed = AppendRow(packed, row)
		n := len(packed) - before
		if n > math.MaxUint16 {
			return nil, nil, fmt.Errorf("%w: scanline %d packs to %d bytes", ErrRowTooLong, y, n)
		}
		counts[y] = uint16(n)
	}
	return counts, packed, nil
}

// Decompress fills dst with rows scanlines of stride bytes read
// contiguously from r. The per-row counts are not consulted.
func Decompress(r io.ByteReader, dst []byte, rows, stride int) error {
	for y := 0; y < rows; y++ {
		start := y * stride
		if start >= len(dst) {
			return nil
		}
		end := min(start+stride, len(dst))
		if err := DecodeRow(r, dst[start:end]); err != nil {
			return fmt.Errorf("scanline %d: %w", y, err)
		}
	}
	return nil
}
