package pkg

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/psdkit/pkg/logging"
	"github.com/provide-io/psdkit/pkg/psd"
)

// RoundTripReport describes one decode/encode/decode cycle of a file.
type RoundTripReport struct {
	Path      string
	InputSize int
	Encoded   int
	Layers    int
	Resources int

	// Identical is true when the first re-encode equals the input bytes.
	Identical bool
	// Stable is true when encoding the re-decoded document reproduces the
	// first re-encode.
	Stable bool

	Problems []string
}

// OK reports whether the cycle was stable and lost nothing.
func (r *RoundTripReport) OK() bool {
	return r.Stable && len(r.Problems) == 0
}

// VerifyRoundTripWithLogger decodes path, encodes it, decodes the result
// and compares both documents.
func VerifyRoundTripWithLogger(path string, logger hclog.Logger) (*RoundTripReport, error) {
	input, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	report := &RoundTripReport{Path: path, InputSize: len(input)}
	logger.Info("Verifying round-trip", "path", path, "size", len(input))

	first, err := psd.Unmarshal(input)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	report.Layers = len(first.Layers)
	report.Resources = len(first.Resources)

	encoded, err := psd.Marshal(first)
	if err != nil {
		return report, fmt.Errorf("encoding %s: %w", path, err)
	}
	report.Encoded = len(encoded)
	report.Identical = bytes.Equal(input, encoded)

	second, err := psd.Unmarshal(encoded)
	if err != nil {
		return report, fmt.Errorf("decoding re-encoded %s: %w", path, err)
	}
	again, err := psd.Marshal(second)
	if err != nil {
		return report, fmt.Errorf("encoding %s a second time: %w", path, err)
	}
	report.Stable = bytes.Equal(encoded, again)

	report.Problems = compareDocuments(first, second)

	if report.Identical {
		logger.Info("✓ Re-encoded bytes match the input")
	} else {
		logger.Info("Re-encoded bytes differ from the input", "input", len(input), "encoded", len(encoded))
	}
	for _, p := range report.Problems {
		logger.Error("  Round-trip problem", "details", p)
	}

	switch {
	case !report.Stable:
		logger.Error("✗ Round-trip verification failed", "reason", "unstable")
		return report, fmt.Errorf("%w: %s", ErrRoundTripUnstable, path)
	case len(report.Problems) > 0:
		logger.Error("✗ Round-trip verification failed", "problem_count", len(report.Problems))
		return report, fmt.Errorf("%w: %s (%d problems)", ErrRoundTripMismatch, path, len(report.Problems))
	}
	logger.Info("✓ Round-trip verification passed")
	return report, nil
}

// VerifyRoundTrip verifies path using default logger settings
func VerifyRoundTrip(path string) (*RoundTripReport, error) {
	logger := logging.NewLogger("psdkit-verify", logging.ResolveLevel("", ""), nil)
	return VerifyRoundTripWithLogger(path, logger)
}

func compareDocuments(a, b *psd.Document) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if a.ChannelCount != b.ChannelCount || a.Width != b.Width || a.Height != b.Height ||
		a.Depth != b.Depth || a.ColorMode != b.ColorMode {
		add("header changed")
	}
	if !bytes.Equal(a.ColorModeData, b.ColorModeData) {
		add("color mode data changed")
	}

	for id, ra := range a.Resources {
		rb, ok := b.Resources[id]
		if !ok {
			add("resource %s lost", id)
			continue
		}
		pa, errA := ra.Payload()
		pb, errB := rb.Payload()
		if errA != nil || errB != nil || !bytes.Equal(pa, pb) || ra.Name != rb.Name {
			add("resource %s changed", id)
		}
	}
	if len(a.Resources) != len(b.Resources) {
		add("resource count %d became %d", len(a.Resources), len(b.Resources))
	}

	if len(a.Layers) != len(b.Layers) {
		add("layer count %d became %d", len(a.Layers), len(b.Layers))
	} else {
		for i := range a.Layers {
			for _, p := range compareLayers(a.Layers[i], b.Layers[i]) {
				add("layer %d (%q): %s", i, a.Layers[i].Name, p)
			}
		}
	}

	if a.Compression != b.Compression {
		add("merged compression %s became %s", a.Compression, b.Compression)
	}
	if !slices.EqualFunc(a.ImageData, b.ImageData, bytes.Equal) {
		add("merged image changed")
	}
	return problems
}

func compareLayers(a, b *psd.Layer) []string {
	var problems []string
	if a.Name != b.Name || a.Rect != b.Rect || a.BlendMode != b.BlendMode ||
		a.Opacity != b.Opacity || a.Clipping != b.Clipping || a.Flags != b.Flags {
		problems = append(problems, "record fields changed")
	}
	ca, cb := a.Channels(), b.Channels()
	if len(ca) != len(cb) {
		return append(problems, fmt.Sprintf("channel count %d became %d", len(ca), len(cb)))
	}
	for i := range ca {
		if ca[i].ID != cb[i].ID || ca[i].Compression != cb[i].Compression ||
			!bytes.Equal(ca[i].ImageData, cb[i].ImageData) || !bytes.Equal(ca[i].Data, cb[i].Data) {
			problems = append(problems, fmt.Sprintf("channel %d changed", ca[i].ID))
		}
	}
	if (a.Mask == nil) != (b.Mask == nil) {
		problems = append(problems, "mask presence changed")
	}
	return problems
}
