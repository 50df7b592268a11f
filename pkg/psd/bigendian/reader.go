// Package bigendian implements the big-endian cursor used by the PSD codec.
//
// Every multi-byte value is read and written most significant byte first,
// independent of the host byte order. Short reads surface as
// io.ErrUnexpectedEOF instead of zero-filled values.
package bigendian

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Padding selects how a Pascal string is aligned after its content.
type Padding int

const (
	// Unpadded strings are packed back to back with no alignment byte.
	Unpadded Padding = iota
	// Padded strings get one zero byte when the content length is even,
	// so the length byte plus content lands on a 2-byte boundary.
	Padded
)

// MaxPascalLength is the longest string a one byte length prefix can carry.
const MaxPascalLength = 255

// Reader is a sequential big-endian cursor over a seekable byte source.
type Reader struct {
	r   io.ReadSeeker
	pos int64
	buf [8]byte
}

// NewReader wraps r. The cursor starts at r's current offset.
func NewReader(r io.ReadSeeker) (*Reader, error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("reading start offset: %w", err)
	}
	return &Reader{r: r, pos: pos}, nil
}

// Position returns the absolute offset of the cursor.
func (r *Reader) Position() int64 {
	return r.pos
}

// Seek moves the cursor to an absolute offset.
func (r *Reader) Seek(offset int64) error {
	if offset < 0 {
		return fmt.Errorf("seek to negative offset %d", offset)
	}
	n, err := r.r.Seek(offset, io.SeekStart)
	if err != nil {
		return fmt.Errorf("seek to %d: %w", offset, err)
	}
	r.pos = n
	return nil
}

// Skip advances the cursor by n bytes without reading them.
func (r *Reader) Skip(n int64) error {
	return r.Seek(r.pos + n)
}

// ReadFull fills p completely or fails with io.ErrUnexpectedEOF.
func (r *Reader) ReadFull(p []byte) error {
	n, err := io.ReadFull(r.r, p)
	r.pos += int64(n)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return fmt.Errorf("reading %d bytes at offset %d: %w", len(p), r.pos-int64(n), err)
	}
	return nil
}

// eagerReadLimit is the largest read allocated up front. Longer reads grow
// with the data actually present, so a corrupt length field fails at end of
// input instead of allocating its full claimed size.
const eagerReadLimit = 1 << 20

// ReadBytes reads exactly n bytes into a fresh slice.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d", n)
	}
	if n <= eagerReadLimit {
		p := make([]byte, n)
		if err := r.ReadFull(p); err != nil {
			return nil, err
		}
		return p, nil
	}

	start := r.pos
	p, err := io.ReadAll(io.LimitReader(r.r, int64(n)))
	r.pos += int64(len(p))
	if err == nil && len(p) < n {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return nil, fmt.Errorf("reading %d bytes at offset %d: %w", n, start, err)
	}
	return p, nil
}

// ReadByte implements io.ByteReader so the RLE decoder can pull packets
// straight from the cursor.
func (r *Reader) ReadByte() (byte, error) {
	if err := r.ReadFull(r.buf[:1]); err != nil {
		return 0, err
	}
	return r.buf[0], nil
}

func (r *Reader) ReadUint8() (uint8, error) {
	return r.ReadByte()
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.ReadFull(r.buf[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(r.buf[:2]), nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.ReadFull(r.buf[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(r.buf[:4]), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.ReadFull(r.buf[:8]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(r.buf[:8]), nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

// ReadKey reads a four character code such as "8BPS" or "norm".
func (r *Reader) ReadKey() (string, error) {
	if err := r.ReadFull(r.buf[:4]); err != nil {
		return "", err
	}
	return string(r.buf[:4]), nil
}

// ReadPascalString reads a length byte followed by that many single-byte
// characters, then the alignment byte the padding policy calls for.
func (r *Reader) ReadPascalString(padding Padding) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	s, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	if padding == Padded && n%2 == 0 {
		if _, err := r.ReadByte(); err != nil {
			return "", err
		}
	}
	return string(s), nil
}

// ReadRemaining reads everything from the cursor to the end of the source.
func (r *Reader) ReadRemaining() ([]byte, error) {
	p, err := io.ReadAll(r.r)
	r.pos += int64(len(p))
	if err != nil {
		return nil, fmt.Errorf("reading to end at offset %d: %w", r.pos, err)
	}
	return p, nil
}
