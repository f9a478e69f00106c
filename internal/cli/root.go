// Package cli wires the lumiere command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-lumiere/internal/config"
	"github.com/teslashibe/go-lumiere/pkg/lumiere"
)

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the lumiere command tree.
func NewRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "lumiere",
		Short:         "Make everyday objects talk through an AR wearable",
		Long:          "lumiere serves the wearable session endpoint that gives detected objects personas and voices, and animates still images into short videos.",
		Version:       lumiere.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if envFile == "" {
				return config.LoadDotEnv()
			}
			return config.LoadDotEnv(envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load (default .env when present)")

	rootCmd.AddCommand(
		newServeCmd(),
		newAnimateCmd(),
	)
	return rootCmd
}
