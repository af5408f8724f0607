package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rawtools/internal/models"
	"rawtools/pkg/convert"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "convert [paths...]",
		Short: "Convert RAW volumes to another sample encoding",
		Long: "Convert walks the given paths for RAW volumes (each paired with its DAT\n" +
			"metadata sidecar) and rescales every volume into the target sample encoding.\n" +
			"Volumes already in the target encoding, and volumes whose converted output\n" +
			"already exists, are skipped. One volume's failure does not stop the batch.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := models.ParseEncoding(format)
			if err != nil {
				return err
			}

			volumes, err := collectFilesWithExt(args, ".raw")
			if err != nil {
				return err
			}
			if len(volumes) == 0 {
				return errors.New("no RAW volumes found")
			}
			ctx.logger.Info("found volumes", "count", len(volumes))

			converter := convert.NewConverter(ctx.pipelineParams())

			results := make([]jobResult, 0, len(volumes))
			for _, volumePath := range volumes {
				job := models.ConversionJob{
					VolumePath:   volumePath,
					MetadataPath: metadataPathFor(volumePath),
					Target:       target,
				}
				err := converter.Convert(job)
				if err != nil {
					ctx.logger.Error("conversion failed", "volume", volumePath, "error", err)
				}
				results = append(results, jobResult{path: volumePath, err: err})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(results))
			if failed := countFailed(results); failed > 0 {
				return fmt.Errorf("%d of %d conversions failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Target sample encoding (uint8, uint16, float32)")
	cmd.MarkFlagRequired("format")

	return cmd
}
