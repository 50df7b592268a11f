package main

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/fatih/color"
	"github.com/hashicorp/go-hclog"
	"github.com/provide-io/psdkit/internal/config"
	_ "github.com/provide-io/psdkit/pkg/codec/compress"
	"github.com/provide-io/psdkit/pkg/logging"
	"github.com/spf13/cobra"
)

const version = "0.1.0"

// app carries the settings resolved before a subcommand runs.
type app struct {
	configPath string
	logLevel   string
	jsonLog    bool
	noColor    bool

	cfg    config.Config
	logger hclog.Logger
}

func buildTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "psdkit",
		Short:         "Inspect, convert and rewrite Photoshop documents",
		Long:          `Inspect, convert and rewrite Photoshop (PSD) documents`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(stderr)
		},
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("psdkit {{.Version}}\nBuilt: %s\n", buildTimestamp()))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a TOML config file (default $PSDKIT_CONFIG or the user config dir)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.BoolVar(&a.jsonLog, "json-log", false, "Emit logs as JSON")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable coloured output")

	rootCmd.AddCommand(
		newInspectCmd(a),
		newRoundTripCmd(a),
		newExtractCmd(a),
		newPreviewCmd(a),
		newThumbnailCmd(a),
		newRecompressCmd(a),
	)
	return rootCmd
}

func (a *app) setup(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := logging.ResolveLevel(a.logLevel, cfg.LogLevel)
	if !logging.ValidLevel(level) {
		return fmt.Errorf("unknown log level %q", level)
	}
	a.logger = logging.NewLoggerWithOptions("psdkit", logging.Options{
		Level:  level,
		JSON:   a.jsonLog || cfg.JSONLog,
		Output: stderr,
	})
	if a.noColor {
		color.NoColor = true
	}
	a.logger.Debug("🔧 Configuration loaded", "config", a.configPath, "level", level)
	return nil
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error:"), err)
		os.Exit(1)
	}
}
