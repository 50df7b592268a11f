// Package config loads the psdkit CLI settings from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/provide-io/psdkit/pkg/codec"
	_ "github.com/provide-io/psdkit/pkg/codec/compress"
	"github.com/provide-io/psdkit/pkg/logging"
	"github.com/provide-io/psdkit/pkg/preview"
	"github.com/provide-io/psdkit/pkg/psd"
)

// EnvConfig names a config file that replaces the default location.
const EnvConfig = "PSDKIT_CONFIG"

type Config struct {
	// LogLevel is empty unless the file sets it, so the environment can
	// still override it.
	LogLevel string        `toml:"log_level"`
	JSONLog  bool          `toml:"json_log"`
	Write    WriteConfig   `toml:"write"`
	Export   ExportConfig  `toml:"export"`
	Preview  PreviewConfig `toml:"preview"`
}

type WriteConfig struct {
	Compression string `toml:"compression"`
}

type ExportConfig struct {
	Codec string `toml:"codec"`
}

type PreviewConfig struct {
	Format           string `toml:"format"`
	MaxSize          int    `toml:"max_size"`
	ThumbnailQuality int    `toml:"thumbnail_quality"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Write:  WriteConfig{Compression: "rle"},
		Export: ExportConfig{Codec: "raw"},
		Preview: PreviewConfig{
			Format:           string(preview.FormatPNG),
			MaxSize:          0,
			ThumbnailQuality: 80,
		},
	}
}

// DefaultPath is $PSDKIT_CONFIG, or psdkit/config.toml under the user
// config directory.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "psdkit", "config.toml")
}

// Load reads path. An empty path uses DefaultPath, where a missing file
// yields the defaults; a missing file that was named explicitly is an
// error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Config{}, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.Write.Compression = strings.ToLower(strings.TrimSpace(c.Write.Compression))
	c.Export.Codec = strings.ToLower(strings.TrimSpace(c.Export.Codec))
	c.Preview.Format = strings.ToLower(strings.TrimSpace(c.Preview.Format))
}

// Validate checks every value the CLI will later parse.
func (c Config) Validate() error {
	if c.LogLevel != "" && !logging.ValidLevel(c.LogLevel) {
		return fmt.Errorf("log_level: unknown level %q", c.LogLevel)
	}
	if _, err := c.WriteCompression(); err != nil {
		return fmt.Errorf("write.compression: %w", err)
	}
	if _, err := c.ExportChain(); err != nil {
		return fmt.Errorf("export.codec: %w", err)
	}
	if _, err := c.PreviewFormat(); err != nil {
		return fmt.Errorf("preview.format: %w", err)
	}
	if c.Preview.MaxSize < 0 {
		return fmt.Errorf("preview.max_size must not be negative, got %d", c.Preview.MaxSize)
	}
	if q := c.Preview.ThumbnailQuality; q < 1 || q > 100 {
		return fmt.Errorf("preview.thumbnail_quality must be between 1 and 100, got %d", q)
	}
	return nil
}

func (c Config) WriteCompression() (psd.Compression, error) {
	return psd.ParseCompression(c.Write.Compression)
}

func (c Config) ExportChain() (uint64, error) {
	return codec.ParseChain(c.Export.Codec)
}

func (c Config) PreviewFormat() (preview.Format, error) {
	return preview.ParseFormat(c.Preview.Format)
}
