package bigendian

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer is a big-endian cursor over a seekable byte sink. Seeking is only
// needed to back-patch section lengths.
type Writer struct {
	w   io.WriteSeeker
	pos int64
	buf [8]byte
}

// NewWriter wraps w. The cursor starts at w's current offset.
func NewWriter(w io.WriteSeeker) (*Writer, error) {
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("reading start offset: %w", err)
	}
	return &Writer{w: w, pos: pos}, nil
}

// Position returns the absolute offset of the cursor.
func (w *Writer) Position() int64 {
	return w.pos
}

func (w *Writer) seek(offset int64) error {
	n, err := w.w.Seek(offset, io.SeekStart)
	if err != nil {
		return fmt.Errorf("seek to %d: %w", offset, err)
	}
	w.pos = n
	return nil
}

// Write implements io.Writer.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += int64(n)
	if err != nil {
		return n, fmt.Errorf("writing %d bytes at offset %d: %w", len(p), w.pos-int64(n), err)
	}
	return n, nil
}

// WriteBytes writes p in full.
func (w *Writer) WriteBytes(p []byte) error {
	_, err := w.Write(p)
	return err
}

// WriteZeros writes n zero bytes.
func (w *Writer) WriteZeros(n int) error {
	if n <= 0 {
		return nil
	}
	return w.WriteBytes(make([]byte, n))
}

// WriteByte implements io.ByteWriter.
func (w *Writer) WriteByte(b byte) error {
	w.buf[0] = b
	return w.WriteBytes(w.buf[:1])
}

func (w *Writer) WriteUint8(v uint8) error {
	return w.WriteByte(v)
}

func (w *Writer) WriteUint16(v uint16) error {
	binary.BigEndian.PutUint16(w.buf[:2], v)
	return w.WriteBytes(w.buf[:2])
}

func (w *Writer) WriteInt16(v int16) error {
	return w.WriteUint16(uint16(v))
}

func (w *Writer) WriteUint32(v uint32) error {
	binary.BigEndian.PutUint32(w.buf[:4], v)
	return w.WriteBytes(w.buf[:4])
}

func (w *Writer) WriteInt32(v int32) error {
	return w.WriteUint32(uint32(v))
}

func (w *Writer) WriteUint64(v uint64) error {
	binary.BigEndian.PutUint64(w.buf[:8], v)
	return w.WriteBytes(w.buf[:8])
}

func (w *Writer) WriteInt64(v int64) error {
	return w.WriteUint64(uint64(v))
}

// WriteKey writes a four character code. Shorter keys are space padded,
// longer keys are cut.
func (w *Writer) WriteKey(key string) error {
	copy(w.buf[:4], "    ")
	copy(w.buf[:4], key)
	return w.WriteBytes(w.buf[:4])
}

// WritePascalString writes s as a length-prefixed string, truncated to 255
// bytes, followed by the alignment byte the padding policy calls for. It
// returns the number of bytes written.
func (w *Writer) WritePascalString(s string, padding Padding) (int, error) {
	if len(s) > MaxPascalLength {
		s = s[:MaxPascalLength]
	}
	if err := w.WriteByte(byte(len(s))); err != nil {
		return 0, err
	}
	if err := w.WriteBytes([]byte(s)); err != nil {
		return 1, err
	}
	n := 1 + len(s)
	if padding == Padded && len(s)%2 == 0 {
		if err := w.WriteByte(0); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
