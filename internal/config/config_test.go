package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/provide-io/psdkit/pkg/codec"
	"github.com/provide-io/psdkit/pkg/preview"
	"github.com/provide-io/psdkit/pkg/psd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level = "DEBUG"
json_log = true

[write]
compression = "raw"

[export]
codec = "packbits|zstd"

[preview]
format = "tiff"
max_size = 512
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.JSONLog)

	c, err := cfg.WriteCompression()
	require.NoError(t, err)
	assert.Equal(t, psd.CompressionRaw, c)

	chain, err := cfg.ExportChain()
	require.NoError(t, err)
	assert.Equal(t, []uint8{codec.OpPackBits, codec.OpZstd}, codec.Unpack(chain))

	f, err := cfg.PreviewFormat()
	require.NoError(t, err)
	assert.Equal(t, preview.FormatTIFF, f)
	assert.Equal(t, 512, cfg.Preview.MaxSize)
	assert.Equal(t, 80, cfg.Preview.ThumbnailQuality, "unset keys keep defaults")
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		toml string
		want string
	}{
		{name: "syntax", toml: `log_level = `, want: ""},
		{name: "unknown key", toml: "[write]\nlevel = 3", want: "write.level"},
		{name: "log level", toml: `log_level = "loud"`, want: "log_level"},
		{name: "compression", toml: "[write]\ncompression = \"zip\"", want: "write.compression"},
		{name: "codec", toml: "[export]\ncodec = \"lzma\"", want: "export.codec"},
		{name: "format", toml: "[preview]\nformat = \"gif\"", want: "preview.format"},
		{name: "max size", toml: "[preview]\nmax_size = -1", want: "preview.max_size"},
		{name: "quality", toml: "[preview]\nthumbnail_quality = 0", want: "thumbnail_quality"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.toml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	t.Run("explicit file", func(t *testing.T) {
		path := filepath.Join(dir, "psdkit.toml")
		require.NoError(t, os.WriteFile(path, []byte("[export]\ncodec = \"gzip\"\n"), 0o644))
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "gzip", cfg.Export.Codec)
	})

	t.Run("explicit file missing", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.toml"))
		assert.ErrorContains(t, err, "config load failed")
	})

	t.Run("default location missing", func(t *testing.T) {
		t.Setenv(EnvConfig, filepath.Join(dir, "nowhere.toml"))
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("default location from env", func(t *testing.T) {
		path := filepath.Join(dir, "env.toml")
		require.NoError(t, os.WriteFile(path, []byte("json_log = true\n"), 0o644))
		t.Setenv(EnvConfig, path)
		cfg, err := Load("")
		require.NoError(t, err)
		assert.True(t, cfg.JSONLog)
	})
}

func TestDefaultValidates(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
