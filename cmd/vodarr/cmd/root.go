// Package cmd implements the CLI commands for vodarr.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vodarr/vodarr/internal/version"
)

// cfgFile holds the config file path from CLI flag.
var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:     "vodarr",
	Short:   "Media ingestion and transcoding service",
	Version: version.Short(),
	Long: `vodarr ingests movies, series and episodes into a streaming catalog.

Each ingested video is content-addressed by SHA-256, transcoded into an
adaptive MP4 quality ladder with extracted WebVTT subtitles, and uploaded
to S3-compatible object storage alongside a processed cover image. Catalog
rows are written in a single database transaction with audit context.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return fmt.Errorf("executing root command: %w", err)
	}
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches ., ./configs, /etc/vodarr, $HOME/.vodarr)")
}
