// Package rle implements the PackBits run-length scheme used for PSD
// scanlines.
//
// A packet is a header byte h followed by payload:
//
//	0..127   raw run, h+1 literal bytes follow
//	129..255 repeat run, the next byte is repeated 257-h times
//	128      no-op, never emitted
package rle

import (
	"errors"
	"fmt"
	"io"
)

// MaxPacket is the longest run a single packet can describe.
const MaxPacket = 128

// encoder is the packet state machine. It accumulates at most one packet
// and appends finished packets to dst.
type encoder struct {
	dst    []byte
	packet [MaxPacket]byte
	n      int
	repeat bool
}

func (e *encoder) flush() {
	if e.n == 0 {
		return
	}
	if e.repeat {
		e.dst = append(e.dst, byte(1-e.n), e.packet[0])
	} else {
		e.dst = append(e.dst, byte(e.n-1))
		e.dst = append(e.dst, e.packet[:e.n]...)
	}
	e.n = 0
}

func (e *encoder) push(b byte) {
	for {
		switch {
		case e.n == 0:
			e.repeat = false
			e.packet[0] = b
			e.n = 1
			return
		case e.n == 1:
			e.repeat = b == e.packet[0]
			e.packet[1] = b
			e.n = 2
			return
		case e.n == MaxPacket:
			e.flush()
		case e.repeat && b != e.packet[e.n-1]:
			e.flush()
		case e.repeat, b != e.packet[e.n-1]:
			e.packet[e.n] = b
			e.n++
			return
		default:
			// Raw packet whose last byte repeats: give that byte to a new
			// two-byte repeat packet.
			e.n--
			e.flush()
			e.push(b)
		}
	}
}

// AppendRow encodes one scanline and appends the packets to dst.
func AppendRow(dst, row []byte) []byte {
	e := encoder{dst: dst}
	for _, b := range row {
		e.push(b)
	}
	e.flush()
	return e.dst
}

// EncodeRow encodes one scanline into a fresh slice.
func EncodeRow(row []byte) []byte {
	return AppendRow(nil, row)
}

// DecodeRow reads packets from r until len(dst) bytes have been produced.
// A run that would overflow dst is cut short; literal bytes of a cut raw run
// are still consumed so the stream stays aligned.
func DecodeRow(r io.ByteReader, dst []byte) error {
	count := 0
	for count < len(dst) {
		h, err := r.ReadByte()
		if err != nil {
			return readErr(err, count)
		}
		switch {
		case h < 128:
			n := int(h) + 1
			for i := 0; i < n; i++ {
				b, err := r.ReadByte()
				if err != nil {
					return readErr(err, count)
				}
				if count < len(dst) {
					dst[count] = b
					count++
				}
			}
		case h > 128:
			n := int(h^0xFF) + 2
			b, err := r.ReadByte()
			if err != nil {
				return readErr(err, count)
			}
			for ; n > 0 && count < len(dst); n-- {
				dst[count] = b
				count++
			}
		}
	}
	return nil
}

func readErr(err error, count int) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("rle: packet stream ended after %d bytes: %w", count, err)
}
