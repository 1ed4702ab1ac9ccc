package config

import "github.com/convergelabs/schemasync/pkg/dialect"

// Default configuration values.
const (
	DefaultSchemasDir = "schemas"
	DefaultStateFile  = ".schemasync/history.db"
)

// ApplyTargetDefaults applies default values to a TargetConfig based on the
// target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}

	if t.Schema == "" {
		if d, ok := dialect.Get(t.Type); ok && d.DefaultSchema != "" {
			t.Schema = d.DefaultSchema
		}
	}

	switch t.Type {
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
	case "mysql":
		if t.Port == 0 {
			t.Port = 3306
		}
	}
}
