package core

// ConnConfig holds everything an adapter needs to open a connection.
// It replaces process-wide connection constants with an explicit value
// passed into adapter construction.
type ConnConfig struct {
	Type string // adapter type: "mysql", "postgres", "sqlite"

	// File-based databases (SQLite).
	Path string

	// Network databases.
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// DisableForeignKeys asks the adapter to turn off foreign-key
	// enforcement for the session while schema changes run, on dialects
	// that support it.
	DisableForeignKeys bool

	// Options holds additional driver-specific settings (e.g. sslmode).
	Options map[string]string
}
