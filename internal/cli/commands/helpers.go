// Package commands implements the schemasync subcommands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/convergelabs/schemasync/internal/cli/config"
	"github.com/convergelabs/schemasync/internal/engine"
)

// getConfig returns the configuration loaded by the root command.
func getConfig() (*config.Config, error) {
	cfg := config.GetCurrentConfig()
	if cfg == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

// createReconciler builds a reconciler from the loaded configuration.
// The caller owns the returned reconciler and must Close it.
func createReconciler(cmd *cobra.Command) (*engine.Reconciler, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateDirectories(); err != nil {
		return nil, err
	}

	return engine.New(engine.Config{
		SchemasDir: cfg.SchemasDir,
		StatePath:  cfg.StatePath,
		Target:     cfg.Environment,
		Conn:       cfg.Target.ConnConfig(),
		Logger:     config.GetLogger(cmd.Context()),
	})
}
