package bigendian

import (
	"errors"
	"fmt"
	"math"
)

// LengthPlaceholder is written into a section's length field until the
// section is closed. Seeing it in output means a section was never closed.
const LengthPlaceholder uint32 = 0xFEEDFEED

// Section is an open length-prefixed block on a Writer. The 4-byte length
// precedes the body and is patched in by Close.
type Section struct {
	w         *Writer
	lengthPos int64
	origin    int64
	closed    bool
}

// BeginSection reserves the length field and starts counting body bytes.
// Sections nest; each one tracks its own origin.
func (w *Writer) BeginSection() (*Section, error) {
	lengthPos := w.pos
	if err := w.WriteUint32(LengthPlaceholder); err != nil {
		return nil, err
	}
	return &Section{w: w, lengthPos: lengthPos, origin: w.pos}, nil
}

// Len reports the body bytes written so far.
func (s *Section) Len() int64 {
	return s.w.pos - s.origin
}

// Close patches the length field with the body size and restores the
// cursor to the end of the body. Calls after the first are no-ops.
func (s *Section) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	end := s.w.pos
	length := end - s.origin
	if length < 0 || length > math.MaxUint32 {
		return fmt.Errorf("section at offset %d: body of %d bytes does not fit a 32-bit length", s.lengthPos, length)
	}
	if err := s.w.seek(s.lengthPos); err != nil {
		return err
	}
	if err := s.w.WriteUint32(uint32(length)); err != nil {
		return err
	}
	return s.w.seek(end)
}

// WriteSection runs body inside a length-prefixed section. The length is
// patched even when body fails.
func (w *Writer) WriteSection(body func() error) (err error) {
	s, err := w.BeginSection()
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()
	return body()
}

// ReadSection reads a 4-byte length and runs body over the block that
// follows. Afterwards the cursor is placed at the declared end of the block
// no matter how much body consumed, including when body fails.
func (r *Reader) ReadSection(body func(length uint32, end int64) error) error {
	length, err := r.ReadUint32()
	if err != nil {
		return err
	}
	end := r.pos + int64(length)
	bodyErr := body(length, end)
	if err := r.Seek(end); err != nil {
		return errors.Join(bodyErr, err)
	}
	return bodyErr
}
