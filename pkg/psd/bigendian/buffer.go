package bigendian

import (
	"errors"
	"io"
)

// Buffer is an in-memory io.ReadWriteSeeker. Writes past the end grow the
// buffer; seeking past the end and writing zero-fills the gap.
type Buffer struct {
	data []byte
	off  int64
}

// NewBuffer returns a Buffer that reads from and overwrites data.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{data: data}
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the total size of the buffer.
func (b *Buffer) Len() int {
	return len(b.data)
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.off >= int64(len(b.data)) {
		return 0, io.EOF
	}
	n := copy(p, b.data[b.off:])
	b.off += int64(n)
	return n, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	end := b.off + int64(len(p))
	if end > int64(len(b.data)) {
		old := int64(len(b.data))
		if end > int64(cap(b.data)) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.data)
			b.data = grown
		} else {
			b.data = b.data[:end]
			if b.off > old {
				clear(b.data[old:b.off])
			}
		}
	}
	copy(b.data[b.off:], p)
	b.off = end
	return len(p), nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.off + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, errors.New("bigendian.Buffer.Seek: invalid whence")
	}
	if abs < 0 {
		return 0, errors.New("bigendian.Buffer.Seek: negative position")
	}
	b.off = abs
	return abs, nil
}
