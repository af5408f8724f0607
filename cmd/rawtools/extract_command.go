package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"rawtools/pkg/visualization"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var axis string
	var outputDir string

	cmd := &cobra.Command{
		Use:   "extract <volume.raw>",
		Short: "Export grayscale slice images from a RAW volume",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			volumePath := args[0]

			viewer, err := visualization.LoadVolume(volumePath,
				metadataPathFor(volumePath), ctx.cfg.Extract.JPEGQuality)
			if err != nil {
				return err
			}

			dir := outputDir
			if dir == "" {
				base := strings.TrimSuffix(volumePath, filepath.Ext(volumePath))
				dir = base + "_slices"
			}

			ctx.logger.Info("extracting slices", "volume", volumePath, "axis", axis, "dir", dir)
			if err := viewer.SaveSliceSequence(axis, dir); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Slices saved to %s\n", dir)
			return nil
		},
	}

	cmd.Flags().StringVarP(&axis, "axis", "a", "z", "Axis to slice along (x, y, or z)")
	cmd.Flags().StringVarP(&outputDir, "dir", "d", "", "Output directory (default: <volume>_slices)")

	return cmd
}
