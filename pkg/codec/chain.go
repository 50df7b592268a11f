package codec

import (
	"fmt"
	"strings"
)

// MaxChain is the number of operations a packed chain can hold.
const MaxChain = 8

// Pack packs a list of operations into a 64-bit integer.
// Each operation takes 8 bits, first operation in the least significant
// byte.
func Pack(ops []uint8) (uint64, error) {
	if len(ops) > MaxChain {
		return 0, fmt.Errorf("maximum %d operations allowed, got %d", MaxChain, len(ops))
	}

	var packed uint64
	for i, op := range ops {
		if op == OpNone {
			return 0, fmt.Errorf("operation %d: raw cannot appear inside a chain", i)
		}
		packed |= uint64(op) << (i * 8)
	}

	return packed, nil
}

// Unpack unpacks a 64-bit integer into a list of operations.
func Unpack(packed uint64) []uint8 {
	var ops []uint8

	for i := 0; i < MaxChain; i++ {
		op := uint8((packed >> (i * 8)) & 0xFF)
		if op == OpNone { // terminates the chain
			break
		}
		ops = append(ops, op)
	}

	return ops
}

// ChainString renders packed operations as a pipe-separated string.
func ChainString(packed uint64) string {
	if packed == 0 {
		return "raw"
	}

	ops := Unpack(packed)
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = Name(op)
	}

	return strings.Join(names, "|")
}

// ParseChain parses "raw", a single operation name, or names joined
// with "|" in application order.
func ParseChain(s string) (uint64, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "raw" || s == "none" {
		return 0, nil
	}

	var ops []uint8
	for _, part := range strings.Split(s, "|") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		op, ok := Lookup(part)
		if !ok {
			return 0, fmt.Errorf("unknown operation %q (known: %s)", part, strings.Join(Names(), ", "))
		}
		ops = append(ops, op.ID())
	}
	return Pack(ops)
}

// Extension is the combined file suffix for a chain, e.g. ".pb.zst".
func Extension(packed uint64) string {
	var b strings.Builder
	for _, id := range Unpack(packed) {
		if op, err := Get(id); err == nil {
			b.WriteString(op.Extension())
		}
	}
	return b.String()
}

// ApplyChain applies a chain of operations to data
func ApplyChain(data []byte, packed uint64) ([]byte, error) {
	current := data

	for _, id := range Unpack(packed) {
		op, err := Get(id)
		if err != nil {
			return nil, err
		}

		result, err := op.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("applying %s: %w", op.Name(), err)
		}

		current = result
	}

	return current, nil
}

// ReverseChain reverses a chain of operations on data
func ReverseChain(data []byte, packed uint64) ([]byte, error) {
	current := data
	ops := Unpack(packed)

	// Apply operations in reverse order
	for i := len(ops) - 1; i >= 0; i-- {
		op, err := Get(ops[i])
		if err != nil {
			return nil, err
		}

		result, err := op.Reverse(current)
		if err != nil {
			return nil, fmt.Errorf("reversing %s: %w", op.Name(), err)
		}

		current = result
	}

	return current, nil
}
