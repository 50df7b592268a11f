package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/provide-io/psdkit/pkg"
	"github.com/provide-io/psdkit/pkg/preview"
	"github.com/provide-io/psdkit/pkg/psd"
	"github.com/provide-io/psdkit/pkg/utils/permissions"
	"github.com/spf13/cobra"
)

func newPreviewCmd(a *app) *cobra.Command {
	var (
		output    string
		format    string
		maxSize   int
		layerName string
		mask      bool
		thumbnail bool
		mode      string
	)

	cmd := &cobra.Command{
		Use:   "preview <file.psd>",
		Short: "Render the merged image, a layer or a mask as PNG, TIFF or BMP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := previewFormat(format, output, a)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-size") {
				maxSize = a.cfg.Preview.MaxSize
			}
			fileMode, err := permissions.ParseMode(mode)
			if err != nil {
				return err
			}

			doc, err := pkg.LoadFileWithLogger(args[0], a.logger)
			if err != nil {
				return err
			}
			img, err := renderTarget(doc, layerName, mask, thumbnail)
			if err != nil {
				return err
			}
			img = preview.Scale(img, maxSize)

			if output == "" {
				base := filepath.Base(args[0])
				output = base[:len(base)-len(filepath.Ext(base))] + f.Extension()
			}
			out, err := os.OpenFile(output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fileMode)
			if err != nil {
				return err
			}
			if err := preview.Encode(out, img, f); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}

			b := img.Bounds()
			a.logger.Info("🖼️ Preview written", "path", output, "format", string(f), "width", b.Dx(), "height", b.Dy())
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output image path (default <input>.<format> in the current directory)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "png, tiff or bmp (default from output extension, then config)")
	cmd.Flags().IntVar(&maxSize, "max-size", 0, "Shrink to fit this many pixels on the longest side (0 keeps the size)")
	cmd.Flags().StringVar(&layerName, "layer", "", "Render the named layer instead of the merged image")
	cmd.Flags().BoolVar(&mask, "mask", false, "Render the user mask of --layer")
	cmd.Flags().BoolVar(&thumbnail, "thumbnail", false, "Render the embedded thumbnail resource")
	cmd.Flags().StringVar(&mode, "mode", "", "Octal file mode for the written image (default 0644)")
	cmd.MarkFlagsMutuallyExclusive("thumbnail", "layer")
	return cmd
}

func previewFormat(flag, output string, a *app) (preview.Format, error) {
	if flag != "" {
		return preview.ParseFormat(flag)
	}
	if ext := filepath.Ext(output); ext != "" {
		if f, err := preview.ParseFormat(ext); err == nil {
			return f, nil
		}
	}
	return a.cfg.PreviewFormat()
}

func renderTarget(doc *psd.Document, layerName string, mask, thumbnail bool) (image.Image, error) {
	switch {
	case thumbnail:
		t, ok := doc.Thumbnail()
		if !ok {
			return nil, fmt.Errorf("document has no thumbnail resource")
		}
		return preview.DecodeThumbnail(t)
	case layerName != "":
		l := doc.LayerByName(layerName)
		if l == nil {
			return nil, fmt.Errorf("no layer named %q", layerName)
		}
		if mask {
			return preview.Mask(doc, l)
		}
		return preview.Layer(doc, l)
	case mask:
		return nil, fmt.Errorf("--mask needs --layer")
	default:
		return preview.Merged(doc)
	}
}
