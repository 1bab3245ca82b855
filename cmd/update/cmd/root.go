package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/kde-manifest-updater/internal/logger"
	"github.com/oshokin/kde-manifest-updater/internal/service/updater"
	"github.com/oshokin/kde-manifest-updater/internal/version"
)

// options collects the flag values of the root command.
var options updater.Options

// rootCmd downloads, verifies and records new KDE tarballs in a manifest.
var rootCmd = newRootCommand(&options)

func newRootCommand(opts *updater.Options) *cobra.Command {
	command := &cobra.Command{
		Use:   "update <manifest.json|manifest.yaml>",
		Short: "Point KDE sources of a flatpak manifest at a new release",
		Long: "Rewrites the url and sha256 of every KDE applications and frameworks tarball\n" +
			"in the manifest. Each tarball is downloaded and its detached signature checked\n" +
			"with gpg2 before anything is written. On any failure the file is left unchanged.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			opts.ManifestPath = args[0]

			return updater.Run(ctx, opts)
		},
	}

	flags := command.Flags()
	flags.StringVarP(&opts.Version, "version", "v", "", "applications (release-service) version, e.g. 24.08.1")
	flags.StringVarP(&opts.FrameworksVersion, "kf5version", "k", "", "KDE Frameworks version, e.g. 6.5.0")
	flags.StringVarP(&opts.ConfigPath, "config", "c", "", "path to configuration file (default kde-update.yaml if present)")
	flags.StringVar(&opts.LogLevel, "log-level", "", "log level: debug, info, warn or error")

	_ = command.MarkFlagRequired("version")
	_ = command.MarkFlagRequired("kf5version")

	version.AttachCobraVersionCommand(command)

	return command
}

// Execute runs the update CLI and exits with non-zero status on error.
func Execute() {
	defer logger.Sync()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Sync()
		os.Exit(1)
	}
}
