package main

import (
	"fmt"

	"github.com/provide-io/psdkit/pkg"
	"github.com/provide-io/psdkit/pkg/preview"
	"github.com/provide-io/psdkit/pkg/psd"
	"github.com/provide-io/psdkit/pkg/utils/permissions"
	"github.com/spf13/cobra"
)

func newThumbnailCmd(a *app) *cobra.Command {
	var (
		output  string
		size    int
		quality int
		mode    string
	)

	cmd := &cobra.Command{
		Use:   "thumbnail <file.psd>",
		Short: "Embed a JPEG thumbnail of the merged image as resource 1036",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("quality") {
				quality = a.cfg.Preview.ThumbnailQuality
			}
			if quality < 1 || quality > 100 {
				return fmt.Errorf("quality must be between 1 and 100, got %d", quality)
			}
			fileMode, err := permissions.ParseMode(mode)
			if err != nil {
				return err
			}

			doc, err := pkg.LoadFileWithLogger(args[0], a.logger)
			if err != nil {
				return err
			}
			img, err := preview.Merged(doc)
			if err != nil {
				return err
			}
			thumb, err := preview.NewThumbnail(img, size, quality)
			if err != nil {
				return err
			}
			doc.SetResource(psd.NewResource(psd.ResourceThumbnail, "", thumb))

			if output == "" {
				output = args[0]
			}
			if err := pkg.SaveFileWithLogger(output, doc, fileMode, a.logger); err != nil {
				return err
			}
			a.logger.Info("🖼️ Thumbnail embedded", "path", output, "width", thumb.Width, "height", thumb.Height, "bytes", thumb.CompressedSize)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %dx%d thumbnail\n", output, thumb.Width, thumb.Height)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this path instead of rewriting the input")
	cmd.Flags().IntVar(&size, "size", preview.DefaultThumbnailSize, "Longest side of the thumbnail in pixels")
	cmd.Flags().IntVar(&quality, "quality", 80, "JPEG quality, 1-100 (default from config)")
	cmd.Flags().StringVar(&mode, "mode", "", "Octal file mode for the written document (default 0644)")
	return cmd
}
