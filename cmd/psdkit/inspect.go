package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"
	"github.com/provide-io/psdkit/pkg"
	"github.com/provide-io/psdkit/pkg/psd"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file.psd>",
		Short: "Print the header, resources and layers of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := pkg.LoadFileWithLogger(args[0], a.logger)
			if err != nil {
				return err
			}
			printDocument(cmd.OutOrStdout(), args[0], doc)
			return nil
		},
	}
}

var (
	heading = color.New(color.FgCyan, color.Bold)
	label   = color.New(color.FgYellow)
	dim     = color.New(color.Faint)
	hidden  = color.New(color.FgRed)
)

func printDocument(w io.Writer, path string, doc *psd.Document) {
	heading.Fprintf(w, "%s\n", path)
	label.Fprint(w, "  size:        ")
	fmt.Fprintf(w, "%dx%d, %d channels, %d-bit %s\n", doc.Width, doc.Height, doc.ChannelCount, doc.Depth, doc.ColorMode)
	label.Fprint(w, "  merged:      ")
	fmt.Fprintf(w, "%s\n", doc.Compression)
	if len(doc.ColorModeData) > 0 {
		label.Fprint(w, "  color data:  ")
		fmt.Fprintf(w, "%d bytes\n", len(doc.ColorModeData))
	}
	if ri, ok := doc.ResolutionInfo(); ok {
		label.Fprint(w, "  resolution:  ")
		fmt.Fprintf(w, "%.2f x %.2f\n", ri.HorizontalRes.Float64(), ri.VerticalRes.Float64())
	}

	heading.Fprintf(w, "Resources (%d)\n", len(doc.Resources))
	ids := make([]int, 0, len(doc.Resources))
	for id := range doc.Resources {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		r := doc.Resources[psd.ResourceID(id)]
		size := "?"
		if payload, err := r.Payload(); err == nil {
			size = fmt.Sprintf("%d bytes", len(payload))
		}
		fmt.Fprintf(w, "  %5d  %-18s %s", id, r.ID, size)
		if r.Name != "" {
			dim.Fprintf(w, "  %q", r.Name)
		}
		fmt.Fprintln(w)
	}

	heading.Fprintf(w, "Layers (%d)", len(doc.Layers))
	if doc.AbsoluteAlpha {
		dim.Fprint(w, "  absolute alpha")
	}
	fmt.Fprintln(w)
	for i, l := range doc.Layers {
		fmt.Fprintf(w, "  %2d  %-24q %s  %s  opacity %d", i, l.Name, l.Rect, l.BlendMode, l.Opacity)
		if !l.Visible() {
			hidden.Fprint(w, "  hidden")
		}
		if l.Clipping {
			dim.Fprint(w, "  clipped")
		}
		fmt.Fprintln(w)
		for _, ch := range l.Channels() {
			dim.Fprintf(w, "        channel %-16s %-14s %d bytes\n", ch.ID, ch.Compression, ch.Length)
		}
		if l.Mask != nil {
			dim.Fprintf(w, "        mask %s default %d\n", l.Mask.Bounds(), l.Mask.DefaultColor)
		}
		for _, info := range l.AdjustmentInfo {
			dim.Fprintf(w, "        %s/%s %d bytes\n", info.Signature, info.Key, len(info.Data))
		}
	}
}
