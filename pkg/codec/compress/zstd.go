package compress

import (
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/provide-io/psdkit/pkg/codec"
)

func init() {
	codec.Register(NewZstdOperation())
}

// ZstdOperation implements Zstandard compression. Whole-buffer calls share
// pooled encoders and decoders.
type ZstdOperation struct {
	codec.BaseOperation
}

// NewZstdOperation creates a new ZSTD operation
func NewZstdOperation() *ZstdOperation {
	return &ZstdOperation{
		BaseOperation: codec.BaseOperation{
			OpID:   codec.OpZstd,
			OpName: "zstd",
			OpExt:  ".zst",
		},
	}
}

var zstdEncPool = sync.Pool{
	New: func() any {
		enc, err := zstd.NewWriter(nil,
			zstd.WithEncoderConcurrency(1),
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
		)
		if err != nil {
			panic(err)
		}
		return enc
	},
}

var zstdDecPool = sync.Pool{
	New: func() any {
		dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		if err != nil {
			panic(err)
		}
		return dec
	},
}

// Apply compresses data using ZSTD. Empty input stays empty.
func (o *ZstdOperation) Apply(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return []byte{}, nil
	}
	enc := zstdEncPool.Get().(*zstd.Encoder)
	out := enc.EncodeAll(input, nil)
	zstdEncPool.Put(enc)
	return out, nil
}

// ApplyStream compresses a stream using ZSTD
func (o *ZstdOperation) ApplyStream(input io.Reader, output io.Writer) error {
	enc, err := zstd.NewWriter(output)
	if err != nil {
		return fmt.Errorf("creating zstd writer: %w", err)
	}

	if _, err := io.Copy(enc, input); err != nil {
		enc.Close()
		return fmt.Errorf("compressing stream: %w", err)
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("closing zstd writer: %w", err)
	}
	return nil
}

// Reverse decompresses ZSTD data
func (o *ZstdOperation) Reverse(input []byte) ([]byte, error) {
	if len(input) == 0 {
		return []byte{}, nil
	}
	dec := zstdDecPool.Get().(*zstd.Decoder)
	out, err := dec.DecodeAll(input, nil)
	zstdDecPool.Put(dec)
	if err != nil {
		return nil, fmt.Errorf("reading zstd data: %w", err)
	}
	return out, nil
}

// ReverseStream decompresses a ZSTD stream
func (o *ZstdOperation) ReverseStream(input io.Reader, output io.Writer) error {
	dec, err := zstd.NewReader(input)
	if err != nil {
		return fmt.Errorf("creating zstd reader: %w", err)
	}
	defer dec.Close()

	if _, err := io.Copy(output, dec); err != nil {
		return fmt.Errorf("decompressing stream: %w", err)
	}
	return nil
}

// EstimateSize estimates compressed size
func (o *ZstdOperation) EstimateSize(inputSize int64) int64 {
	return (inputSize*6)/10 + 22
}
