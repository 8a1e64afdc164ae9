package cmd

import (
	"github.com/spf13/cobra"

	"github.com/dendrascience/telegram-media-fuse/tgfs"
	"github.com/dendrascience/telegram-media-fuse/version"
)

// NewRootCmd creates and returns the root cobra command for the tgfs CLI.
// Run without a subcommand it mounts the filesystem.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tgfs MOUNTPOINT",
		Short: "Mount Telegram chat media as a read-only filesystem",
		Long: `tgfs mounts the media of your Telegram conversations as a read-only FUSE filesystem.

Every conversation becomes a directory and every photo, document, sticker or
contact in it becomes a file named msg-<message id>.<ext>. The tree is rebuilt
in the background on a fixed interval.

Credentials are read from TG_ID and TG_HASH (or telegram.app_id and
telegram.app_hash in the config file). The first run logs in interactively
and stores the session in telegram.session_file.

MOUNTPOINT is the directory where the filesystem will be mounted.`,
		Args:    cobra.ExactArgs(1),
		RunE:    runMount,
		Version: version.GetFullVersion(),
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default $XDG_CONFIG_HOME/tgfs/config.yaml)")
	flags.Bool("demo", false, "Serve a built-in sample tree instead of connecting to Telegram")
	flags.String("session", "downloader.session", "Telegram session file")
	flags.String("phone", "", "Phone number used for interactive login")
	flags.Duration("refresh-interval", tgfs.DefaultRefreshInterval, "Pause between cache rebuilds")
	flags.Int("concurrency", 4, "Parallel downloads per conversation")
	flags.Int64("max-file-size", 0, "Skip media larger than this many bytes (0 = no limit)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("log-format", "json", "Log format: json, console")
	rootCmd.Flags().Bool("allow-other", true, "Let other users access the mount")
	rootCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9090")

	rootCmd.AddCommand(NewLsCmd())
	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// NewVersionCmd creates the version subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version.PrintVersion(cmd.OutOrStdout(), "tgfs")
		},
	}
}

// loadFromCommand loads the configuration with the command's flags on top.
func loadFromCommand(cmd *cobra.Command) (*Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	return Load(configPath, cmd.Flags())
}
