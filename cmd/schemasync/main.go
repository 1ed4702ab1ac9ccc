// Package main provides the schemasync CLI.
package main

import (
	"github.com/convergelabs/schemasync/internal/cli"

	// Register the database adapters.
	_ "github.com/convergelabs/schemasync/pkg/adapters/mysql"
	_ "github.com/convergelabs/schemasync/pkg/adapters/postgres"
	_ "github.com/convergelabs/schemasync/pkg/adapters/sqlite"
)

func main() {
	cli.Execute()
}
