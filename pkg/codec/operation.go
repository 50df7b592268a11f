// Package codec is the export codec registry: reversible byte transforms
// keyed by a one-byte id that can be chained and named by strings such as
// "zstd" or "packbits|gzip". Implementations live in codec/compress and
// register themselves on import.
package codec

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

// Operation ids
const (
	// No operation - raw data
	OpNone uint8 = 0x00

	// Compression operations (0x10-0x2F)
	OpGzip     uint8 = 0x10
	OpBzip2    uint8 = 0x13
	OpZstd     uint8 = 0x1B
	OpPackBits uint8 = 0x20
)

// Operation is a single reversible transformation.
type Operation interface {
	// ID returns the operation identifier (e.g., OpGzip)
	ID() uint8

	// Name returns the lower-case name used in chain strings
	Name() string

	// Extension is the file suffix for data produced by Apply
	Extension() string

	// Apply transforms input
	Apply(input []byte) ([]byte, error)

	// ApplyStream transforms a stream
	ApplyStream(input io.Reader, output io.Writer) error

	// Reverse undoes Apply
	Reverse(input []byte) ([]byte, error)

	// ReverseStream undoes ApplyStream
	ReverseStream(input io.Reader, output io.Writer) error

	// EstimateSize estimates the output size given input size
	EstimateSize(inputSize int64) int64
}

// BaseOperation provides common functionality for operations
type BaseOperation struct {
	OpID   uint8
	OpName string
	OpExt  string
}

func (o *BaseOperation) ID() uint8 {
	return o.OpID
}

func (o *BaseOperation) Name() string {
	return o.OpName
}

func (o *BaseOperation) Extension() string {
	return o.OpExt
}

func (o *BaseOperation) EstimateSize(inputSize int64) int64 {
	return inputSize
}

var (
	registryMu sync.RWMutex
	registry   = make(map[uint8]Operation)
	byName     = make(map[string]uint8)
)

// Register makes op available to Get and ParseChain. Registering the same
// id twice replaces the earlier operation.
func Register(op Operation) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[op.ID()] = op
	byName[op.Name()] = op.ID()
}

// Get retrieves an operation by ID
func Get(id uint8) (Operation, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	op, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown operation: 0x%02x", id)
	}
	return op, nil
}

// Lookup retrieves an operation by name
func Lookup(name string) (Operation, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	id, ok := byName[name]
	if !ok {
		return nil, false
	}
	return registry[id], true
}

// Names lists the registered operation names in id order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]int, 0, len(registry))
	for id := range registry {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = registry[uint8(id)].Name()
	}
	return names
}

// Name returns the name of an operation by ID
func Name(id uint8) string {
	if id == OpNone {
		return "raw"
	}
	if op, err := Get(id); err == nil {
		return op.Name()
	}
	return fmt.Sprintf("unknown_%02x", id)
}
