package main

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/provide-io/psdkit/internal/config"
	"github.com/provide-io/psdkit/pkg"
	"github.com/provide-io/psdkit/pkg/codec"
	"github.com/provide-io/psdkit/pkg/psd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixture(t *testing.T, dir string) string {
	t.Helper()
	doc, err := psd.NewDocument(3, 4, 4, 8, psd.ColorModeRGB)
	require.NoError(t, err)
	doc.ImageData = [][]byte{
		bytes.Repeat([]byte{200}, 16),
		bytes.Repeat([]byte{100}, 16),
		bytes.Repeat([]byte{50}, 16),
	}
	layer := psd.NewLayer("Sky & Sea", psd.NewRect(0, 0, 4, 2))
	for id := psd.ChannelID(0); id < 3; id++ {
		require.NoError(t, layer.AddChannel(psd.NewChannel(id, psd.CompressionRLE, bytes.Repeat([]byte{byte(id + 1)}, 8))))
	}
	doc.Layers = []*psd.Layer{layer}

	path := filepath.Join(dir, "fixture.psd")
	require.NoError(t, pkg.SaveFile(path, doc))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvConfig, filepath.Join(t.TempDir(), "absent.toml"))
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stderr)
	cmd.SetOut(&stdout)
	cmd.SetArgs(append([]string{"--no-color", "--log-level", "trace"}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestInspect(t *testing.T) {
	path := writeFixture(t, t.TempDir())
	out, err := run(t, "inspect", path)
	require.NoError(t, err)
	assert.Contains(t, out, "4x4, 3 channels, 8-bit RGB")
	assert.Contains(t, out, "Layers (1)")
	assert.Contains(t, out, `"Sky & Sea"`)

	_, err = run(t, "inspect", filepath.Join(t.TempDir(), "missing.psd"))
	assert.Error(t, err)
}

func TestRoundTrip(t *testing.T) {
	path := writeFixture(t, t.TempDir())
	out, err := run(t, "roundtrip", path)
	require.NoError(t, err)
	assert.Contains(t, out, "byte-identical")

	junk := filepath.Join(t.TempDir(), "junk.psd")
	require.NoError(t, os.WriteFile(junk, []byte("nope"), 0o644))
	_, err = run(t, "roundtrip", path, junk)
	assert.ErrorContains(t, err, "1 of 2 files failed")
}

func TestExtract(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)
	outDir := filepath.Join(dir, "planes")

	out, err := run(t, "extract", path, "-o", outDir, "--codec", "packbits|zstd")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 6)

	chain, err := codec.ParseChain("packbits|zstd")
	require.NoError(t, err)

	stored, err := os.ReadFile(filepath.Join(outDir, "merged_ch1.raw.pb.zst"))
	require.NoError(t, err)
	plane, err := codec.ReverseChain(stored, chain)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte{100}, 16), plane)

	_, err = os.Stat(filepath.Join(outDir, "layer00_Sky___Sea_ch2.raw.pb.zst"))
	assert.NoError(t, err)

	_, err = run(t, "extract", path, "-o", outDir, "--layer", "Land")
	assert.ErrorContains(t, err, "no layer named")
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)

	testCases := []struct {
		name string
		args []string
		size int
	}{
		{name: "merged", args: nil, size: 4},
		{name: "scaled", args: []string{"--max-size", "2"}, size: 2},
		{name: "layer", args: []string{"--layer", "Sky & Sea"}, size: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			output := filepath.Join(dir, tc.name+".png")
			_, err := run(t, append([]string{"preview", path, "-o", output}, tc.args...)...)
			require.NoError(t, err)

			f, err := os.Open(output)
			require.NoError(t, err)
			defer f.Close()
			img, err := png.Decode(f)
			require.NoError(t, err)
			assert.Equal(t, tc.size, img.Bounds().Dx())
		})
	}

	_, err := run(t, "preview", path, "--thumbnail", "-o", filepath.Join(dir, "t.png"))
	assert.ErrorContains(t, err, "no thumbnail")
}

func TestThumbnailAndRecompress(t *testing.T) {
	dir := t.TempDir()
	path := writeFixture(t, dir)
	withThumb := filepath.Join(dir, "thumb.psd")
	rewritten := filepath.Join(dir, "raw.psd")

	_, err := run(t, "thumbnail", path, "-o", withThumb, "--size", "2")
	require.NoError(t, err)
	doc, err := pkg.LoadFile(withThumb)
	require.NoError(t, err)
	thumb, ok := doc.Thumbnail()
	require.True(t, ok)
	assert.Equal(t, uint32(2), thumb.Width)

	out, err := run(t, "recompress", withThumb, "-o", rewritten, "-c", "raw")
	require.NoError(t, err)
	assert.Contains(t, out, "4 rasters stored as raw")

	doc, err = pkg.LoadFile(rewritten)
	require.NoError(t, err)
	assert.Equal(t, psd.CompressionRaw, doc.Compression)
	ch, _ := doc.Layers[0].Channel(0)
	assert.Equal(t, psd.CompressionRaw, ch.Compression)
	assert.Equal(t, bytes.Repeat([]byte{1}, 8), ch.ImageData)
	_, ok = doc.Thumbnail()
	assert.True(t, ok)

	_, err = run(t, "recompress", withThumb, "-c", "zip")
	assert.Error(t, err)
}
