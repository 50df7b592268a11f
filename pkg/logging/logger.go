package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Environment variables read by the CLI logger.
const (
	EnvJSONLog  = "PSDKIT_JSON_LOG"
	EnvLogLevel = "PSDKIT_LOG_LEVEL"
)

// DefaultLevel applies when neither a flag, the environment nor the config
// file names a level.
const DefaultLevel = "warn"

// Options selects the output form of NewLoggerWithOptions.
type Options struct {
	Level string
	// JSON forces JSON output; PSDKIT_JSON_LOG=1 turns it on as well.
	JSON   bool
	Output io.Writer
}

// NewLogger creates a new hclog logger with standard settings
func NewLogger(name string, level string, output io.Writer) hclog.Logger {
	return NewLoggerWithOptions(name, Options{Level: level, Output: output})
}

// NewLoggerWithOptions creates a logger; human output gets a per-line
// prefix, JSON output does not.
func NewLoggerWithOptions(name string, opts Options) hclog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}

	jsonFormat := opts.JSON || os.Getenv(EnvJSONLog) == "1"
	if !jsonFormat {
		output = NewPrefixWriter("🎨 ", output)
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      hclog.LevelFromString(opts.Level),
		JSONFormat: jsonFormat,
		Output:     output,
		TimeFormat: "2006-01-02T15:04:05Z", // UTC ISO format
		TimeFn: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// ResolveLevel picks the log level: an explicit flag wins, then
// PSDKIT_LOG_LEVEL, then the config file, then DefaultLevel.
func ResolveLevel(flag, configured string) string {
	for _, level := range []string{flag, os.Getenv(EnvLogLevel), configured} {
		if level = strings.TrimSpace(level); level != "" {
			return strings.ToLower(level)
		}
	}
	return DefaultLevel
}

// ValidLevel reports whether hclog recognizes level.
func ValidLevel(level string) bool {
	return hclog.LevelFromString(level) != hclog.NoLevel
}
