package pkg

import "errors"

var (
	// Verification errors 🔁
	ErrRoundTripUnstable = errors.New("❌ re-encoding is not stable")
	ErrRoundTripMismatch = errors.New("❌ decoded content changed after re-encoding")
)
