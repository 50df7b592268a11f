package compress

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"

	"github.com/provide-io/psdkit/pkg/codec"
)

func init() {
	codec.Register(NewGzipOperation())
}

// GzipOperation implements GZIP compression
type GzipOperation struct {
	codec.BaseOperation
}

// NewGzipOperation creates a new GZIP operation
func NewGzipOperation() *GzipOperation {
	return &GzipOperation{
		BaseOperation: codec.BaseOperation{
			OpID:   codec.OpGzip,
			OpName: "gzip",
			OpExt:  ".gz",
		},
	}
}

// Apply compresses data using GZIP
func (o *GzipOperation) Apply(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ApplyStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ApplyStream compresses a stream using GZIP
func (o *GzipOperation) ApplyStream(input io.Reader, output io.Writer) error {
	gw := gzip.NewWriter(output)

	if _, err := io.Copy(gw, input); err != nil {
		gw.Close()
		return fmt.Errorf("compressing stream: %w", err)
	}

	if err := gw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}
	return nil
}

// Reverse decompresses GZIP data
func (o *GzipOperation) Reverse(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.ReverseStream(bytes.NewReader(input), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReverseStream decompresses a GZIP stream
func (o *GzipOperation) ReverseStream(input io.Reader, output io.Writer) error {
	gr, err := gzip.NewReader(input)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}
	defer gr.Close()

	if _, err := io.Copy(output, gr); err != nil {
		return fmt.Errorf("decompressing stream: %w", err)
	}

	return nil
}

// EstimateSize estimates compressed size
func (o *GzipOperation) EstimateSize(inputSize int64) int64 {
	// Pixel planes with flat areas compress well; 80% is a conservative bound.
	return (inputSize*8)/10 + 18 // +18 for gzip header/trailer
}
