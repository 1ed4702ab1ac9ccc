package config

import (
	"fmt"
	"os"
)

// Validate checks if the configuration is valid. Directory existence is
// checked separately so help-style commands work without a project.
func (c *Config) Validate() error {
	if c.SchemasDir == "" {
		return fmt.Errorf("schemas_dir is required")
	}
	if c.Target == nil {
		return fmt.Errorf("target configuration is required")
	}
	return c.Target.Validate()
}

// ValidateDirectories checks if required directories exist.
func (c *Config) ValidateDirectories() error {
	if _, err := os.Stat(c.SchemasDir); os.IsNotExist(err) {
		return fmt.Errorf("schemas directory does not exist: %s\nHint: Create the directory or use --schemas-dir to specify a different path", c.SchemasDir)
	}
	return nil
}
