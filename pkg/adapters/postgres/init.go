// This file registers the PostgreSQL adapter with the adapter registry.
// Import this package with a blank identifier to register the adapter:
//
//	import _ "github.com/convergelabs/schemasync/pkg/adapters/postgres"
package postgres

import (
	"log/slog"

	"github.com/convergelabs/schemasync/pkg/adapter"

	// Import dialect to ensure it's registered
	_ "github.com/convergelabs/schemasync/pkg/adapters/postgres/dialect"
)

func init() {
	adapter.Register("postgres", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}
