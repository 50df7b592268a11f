package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/provide-io/psdkit/pkg"
	"github.com/provide-io/psdkit/pkg/codec"
	"github.com/provide-io/psdkit/pkg/psd"
	"github.com/provide-io/psdkit/pkg/utils/permissions"
	"github.com/spf13/cobra"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		outDir    string
		chain     string
		layerName string
		mode      string
	)

	cmd := &cobra.Command{
		Use:   "extract <file.psd>",
		Short: "Write channel planes as raw files through an export codec chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chain == "" {
				chain = a.cfg.Export.Codec
			}
			packed, err := codec.ParseChain(chain)
			if err != nil {
				return err
			}
			fileMode, err := permissions.ParseMode(mode)
			if err != nil {
				return err
			}

			doc, err := pkg.LoadFileWithLogger(args[0], a.logger)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, permissions.DirMode(fileMode)); err != nil {
				return err
			}

			planes, err := collectPlanes(doc, layerName)
			if err != nil {
				return err
			}

			ext := ".raw" + codec.Extension(packed)
			for _, p := range planes {
				data, err := codec.ApplyChain(p.data, packed)
				if err != nil {
					return fmt.Errorf("%s: %w", p.name, err)
				}
				path := filepath.Join(outDir, p.name+ext)
				if err := os.WriteFile(path, data, fileMode); err != nil {
					return err
				}
				a.logger.Debug("📤 Extracted plane", "path", path, "raw", len(p.data), "stored", len(data))
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "Directory for extracted planes")
	cmd.Flags().StringVar(&chain, "codec", "", `Export codec chain, e.g. "zstd" or "packbits|gzip" (default from config)`)
	cmd.Flags().StringVar(&layerName, "layer", "", "Only extract the named layer")
	cmd.Flags().StringVar(&mode, "mode", "", "Octal file mode for written files (default 0644)")
	return cmd
}

type namedPlane struct {
	name string
	data []byte
}

func collectPlanes(doc *psd.Document, layerName string) ([]namedPlane, error) {
	var planes []namedPlane

	if layerName == "" {
		for i, data := range doc.ImageData {
			planes = append(planes, namedPlane{name: fmt.Sprintf("merged_ch%d", i), data: data})
		}
	}

	for i, l := range doc.Layers {
		if layerName != "" && l.Name != layerName {
			continue
		}
		base := fmt.Sprintf("layer%02d_%s", i, safeName(l.Name))
		for _, ch := range l.Channels() {
			planes = append(planes, namedPlane{name: fmt.Sprintf("%s_ch%d", base, ch.ID), data: ch.ImageData})
		}
	}

	if layerName != "" && len(planes) == 0 {
		if doc.LayerByName(layerName) == nil {
			return nil, fmt.Errorf("no layer named %q", layerName)
		}
	}
	return planes, nil
}

func safeName(name string) string {
	if name == "" {
		return "unnamed"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
