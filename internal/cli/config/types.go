// Package config provides configuration management for the schemasync CLI.
//
// The shared target type lives in internal/config so tools outside the CLI
// can load project configuration; this package layers CLI-specific fields
// (flag overrides, per-environment sections) on top of it.
package config

import (
	intconfig "github.com/convergelabs/schemasync/internal/config"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = intconfig.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	SchemasDir   string               `koanf:"schemas_dir"`
	StatePath    string               `koanf:"state_path"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths resolve against.
	// It is inferred, never read from the file.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	SchemasDir string        `koanf:"schemas_dir"`
	StatePath  string        `koanf:"state_path"`
	Target     *TargetConfig `koanf:"target"`
}

// Default configuration values - uses shared defaults from internal/config.
const (
	DefaultSchemasDir = intconfig.DefaultSchemasDir
	DefaultStateFile  = intconfig.DefaultStateFile
	DefaultEnv        = "dev"
)
