// This file registers the SQLite adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/convergelabs/schemasync/pkg/adapters/sqlite"
package sqlite

import (
	"log/slog"

	"github.com/convergelabs/schemasync/pkg/adapter"

	// Import dialect to ensure it's registered
	_ "github.com/convergelabs/schemasync/pkg/adapters/sqlite/dialect"
)

func init() {
	adapter.Register("sqlite", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
