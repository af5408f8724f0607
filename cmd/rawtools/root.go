package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rawtools/pkg/config"
	"rawtools/pkg/convert"
)

// commandContext carries the lazily-loaded configuration and logger shared
// by all subcommands.
type commandContext struct {
	configFlag  *string
	verboseFlag *bool

	cfg    *config.Config
	logger *slog.Logger
}

func newCommandContext(configFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		verboseFlag: verboseFlag,
	}
}

// init loads the configuration (defaults when no file is present) and builds
// the logger. Called once from the root command's PersistentPreRunE.
func (ctx *commandContext) init() error {
	cfg, err := config.LoadConfig(*ctx.configFlag)
	if err != nil {
		return err
	}
	ctx.cfg = cfg

	level := slog.LevelInfo
	if *ctx.verboseFlag || cfg.Output.Verbose {
		level = slog.LevelDebug
	}
	ctx.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	return nil
}

// pipelineParams translates the configuration into parameters for the
// converter and assembler.
func (ctx *commandContext) pipelineParams() convert.Params {
	return convert.Params{
		Logger:        ctx.logger,
		ShowProgress:  ctx.cfg.Output.Progress,
		ScanWorkers:   ctx.cfg.Scan.Workers,
		BufferPercent: ctx.cfg.Scan.BufferPercent,
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var verboseFlag bool

	ctx := newCommandContext(&configFlag, &verboseFlag)

	rootCmd := &cobra.Command{
		Use:           "rawtools",
		Short:         "Convert, assemble, and inspect RAW volumetric scan data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(newConvertCommand(ctx))
	rootCmd.AddCommand(newAssembleCommand(ctx))
	rootCmd.AddCommand(newExtractCommand(ctx))

	return rootCmd
}
