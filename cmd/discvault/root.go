package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"discvault/internal/logging"
	"discvault/internal/session"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	var (
		writeMode   bool
		bundleTar   bool
		compress    bool
		interactive bool
		sidecar     bool
		skipVerify  bool
		summarize   bool
		label       string
		licenseKey  string
		outputDir   string
	)

	rootCmd := &cobra.Command{
		Use:   "discvault",
		Short: "Archive optical discs into verified ISO images",
		Long: `discvault captures optical discs into ISO images sized exactly to the
volume descriptor's geometry, optionally verifies each image against the
medium, and places the results as individual files or a tar bundle.

Without -w the run is a dry-run: it resolves the drive, waits for media,
reads the volume metadata, prints a report, and writes nothing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			opts := session.Options{
				Write:       writeMode,
				Bundle:      bundleTar,
				Compress:    compress,
				Interactive: interactive,
				Sidecar:     sidecar || cfg.Capture.Sidecar,
				Verify:      cfg.Capture.Verify && !skipVerify,
				Summarize:   summarize,
				Label:       label,
				LicenseKey:  licenseKey,
				OutputDir:   outputDir,
			}
			if opts.OutputDir == "" {
				opts.OutputDir = cfg.Output.Directory
			}

			deps := session.Deps{Output: cmd.OutOrStdout()}
			if showProgress(os.Stderr) {
				deps.Progress = os.Stderr
			}

			return session.NewWithDeps(cfg, opts, logger, deps).Run(signalCtx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	flags := rootCmd.Flags()
	flags.BoolVarP(&writeMode, "write", "w", false, "Write mode (default is a dry-run report)")
	flags.BoolVarP(&bundleTar, "tar", "t", false, "Bundle all outputs into a single tar archive")
	flags.BoolVarP(&compress, "gzip", "z", false, "Compress the tar archive (requires -t)")
	flags.BoolVarP(&interactive, "interactive", "i", false, "Interactive multi-disc mode")
	flags.BoolVarP(&sidecar, "metadata", "m", false, "Write a metadata sidecar next to each image")
	flags.BoolVarP(&skipVerify, "no-verify", "n", false, "Skip verification of the captured image")
	flags.BoolVarP(&summarize, "summarize", "s", false, "Print the session report without writing")
	flags.StringVarP(&label, "label", "l", "", "Override the derived disc label")
	flags.StringVarP(&licenseKey, "license-key", "k", "", "Write this license key into the output set")
	flags.StringVarP(&outputDir, "output", "o", "", "Destination directory for final artifacts (must exist)")

	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
