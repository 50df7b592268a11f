package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/provide-io/psdkit/pkg"
	"github.com/spf13/cobra"
)

func newRoundTripCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "roundtrip <file.psd>...",
		Short: "Check that documents survive decode and re-encode",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			var failed int
			for _, path := range args {
				report, err := pkg.VerifyRoundTripWithLogger(path, a.logger)
				if err != nil {
					failed++
					fmt.Fprintf(w, "%s %s: %v\n", color.RedString("✗"), path, err)
					continue
				}
				note := "re-encoded bytes differ from input"
				if report.Identical {
					note = "byte-identical"
				}
				fmt.Fprintf(w, "%s %s: %d layers, %d resources, %s\n",
					color.GreenString("✓"), path, report.Layers, report.Resources, note)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed verification", failed, len(args))
			}
			return nil
		},
	}
}
