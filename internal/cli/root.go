// Package cli wires the cobra commands for the library API binary.
package cli

import (
	"github.com/spf13/cobra"

	"library-api/internal/config"
	"library-api/internal/library"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "library-api",
	Short:         "Library management REST API",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to the TOML config file")
	rootCmd.AddCommand(serveCmd, createAdminCmd, seedCmd)
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// openStore loads config and opens the database, shared by all commands.
func openStore() (*config.Config, *library.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	store, err := library.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store, nil
}
