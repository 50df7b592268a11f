package compress

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/provide-io/psdkit/pkg/codec"
	"github.com/provide-io/psdkit/pkg/psd/rle"
)

func init() {
	codec.Register(NewPackBitsOperation())
}

// PackBitsOperation stores data as a 4-byte big-endian length followed by
// one PackBits run over the whole input, the same packing PSD scanlines use.
type PackBitsOperation struct {
	codec.BaseOperation
}

// NewPackBitsOperation creates a new PackBits operation
func NewPackBitsOperation() *PackBitsOperation {
	return &PackBitsOperation{
		BaseOperation: codec.BaseOperation{
			OpID:   codec.OpPackBits,
			OpName: "packbits",
			OpExt:  ".pb",
		},
	}
}

var errPackBitsHeader = errors.New("packbits: missing length header")

// Apply packs data
func (o *PackBitsOperation) Apply(input []byte) ([]byte, error) {
	if uint64(len(input)) > math.MaxUint32 {
		return nil, fmt.Errorf("packbits: %d bytes exceed the length header", len(input))
	}
	out := binary.BigEndian.AppendUint32(make([]byte, 0, 4+len(input)/2), uint32(len(input)))
	return rle.AppendRow(out, input), nil
}

// ApplyStream packs a stream. The whole input is buffered.
func (o *PackBitsOperation) ApplyStream(input io.Reader, output io.Writer) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	out, err := o.Apply(data)
	if err != nil {
		return err
	}
	_, err = output.Write(out)
	return err
}

// Reverse unpacks data
func (o *PackBitsOperation) Reverse(input []byte) ([]byte, error) {
	if len(input) < 4 {
		return nil, errPackBitsHeader
	}
	size := uint64(binary.BigEndian.Uint32(input))
	if limit := uint64(len(input)-4) * rle.MaxExpansion; size > limit {
		return nil, fmt.Errorf("packbits: header claims %d bytes, %d packed bytes hold at most %d", size, len(input)-4, limit)
	}
	out := make([]byte, size)
	if err := rle.DecodeRow(bytes.NewReader(input[4:]), out); err != nil {
		return nil, fmt.Errorf("packbits: %w", err)
	}
	return out, nil
}

// ReverseStream unpacks a stream
func (o *PackBitsOperation) ReverseStream(input io.Reader, output io.Writer) error {
	data, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	out, err := o.Reverse(data)
	if err != nil {
		return err
	}
	_, err = output.Write(out)
	return err
}

// EstimateSize is the worst case: one header byte per 128 literal bytes.
func (o *PackBitsOperation) EstimateSize(inputSize int64) int64 {
	return 4 + inputSize + (inputSize+127)/128
}
