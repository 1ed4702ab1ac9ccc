// Package config provides shared configuration types for schemasync.
// This package is decoupled from CLI concerns so other tools can load
// project configuration without pulling in cobra.
package config

import (
	"fmt"
	"strings"

	"github.com/convergelabs/schemasync/pkg/adapter"
	"github.com/convergelabs/schemasync/pkg/core"
)

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // mysql, postgres, sqlite

	// File-based databases (SQLite)
	Path string `koanf:"path"`

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	// Common
	Schema string `koanf:"schema"`

	// DisableForeignKeys turns off enforcement for the session, when the
	// dialect supports a toggle.
	DisableForeignKeys bool `koanf:"disable_foreign_keys"`

	// Additional driver-specific options (sslmode, charset, ...)
	Options map[string]string `koanf:"options"`
}

// ConnConfig converts the target to the adapter connection config.
func (t *TargetConfig) ConnConfig() core.ConnConfig {
	opts := make(map[string]string, len(t.Options)+1)
	for k, v := range t.Options {
		opts[k] = v
	}
	if t.Schema != "" {
		opts["schema"] = t.Schema
	}
	return core.ConnConfig{
		Type:               strings.ToLower(t.Type),
		Path:               t.Path,
		Host:               t.Host,
		Port:               t.Port,
		User:               t.User,
		Password:           t.Password,
		Database:           t.Database,
		DisableForeignKeys: t.DisableForeignKeys,
		Options:            opts,
	}
}

// Validate checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	typ := strings.ToLower(t.Type)
	if !adapter.IsRegistered(typ) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	if typ == "sqlite" {
		if t.Path == "" {
			return fmt.Errorf("sqlite target requires a path")
		}
		return nil
	}
	if t.Database == "" {
		return fmt.Errorf("%s target requires a database name", typ)
	}
	return nil
}
