package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"rawtools/internal/models"
	"rawtools/pkg/convert"
)

func newAssembleCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var output string

	cmd := &cobra.Command{
		Use:   "assemble [paths...]",
		Short: "Assemble NSI projects into single RAW volumes",
		Long: "Assemble walks the given paths for NSIHDR project headers and concatenates\n" +
			"each project's slice files into one RAW volume, rescaled to the bit depth the\n" +
			"header declares. An existing output volume aborts the project unless --force\n" +
			"is set. One project's failure does not stop the batch.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			headers, err := collectFilesWithExt(args, ".nsihdr")
			if err != nil {
				return err
			}
			if len(headers) == 0 {
				return errors.New("no NSIHDR project headers found")
			}
			if output != "" && len(headers) > 1 {
				return errors.New("--output is only valid with a single project header")
			}
			ctx.logger.Info("found projects", "count", len(headers))

			assembler := convert.NewAssembler(ctx.pipelineParams())

			results := make([]jobResult, 0, len(headers))
			for _, headerPath := range headers {
				job := models.AssemblyJob{
					HeaderPath: headerPath,
					OutputPath: output,
					Force:      force,
				}
				err := assembler.Assemble(cmd.Context(), job)
				if err != nil {
					ctx.logger.Error("assembly failed", "header", headerPath, "error", err)
				}
				results = append(results, jobResult{path: headerPath, err: err})
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderSummary(results))
			if failed := countFailed(results); failed > 0 {
				return fmt.Errorf("%d of %d assemblies failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Delete an existing output volume before assembly")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output volume path (single project only)")

	return cmd
}
