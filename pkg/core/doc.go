// Package core defines the shared language of the schemasync system.
//
// This package contains:
//   - The desired-schema model (TableSchema, ColumnDefinition, ConstraintDefinition)
//   - Its introspected counterparts (LiveColumn, LiveConstraint, LiveIndex)
//   - Connection configuration (ConnConfig)
//   - The error taxonomy (ConnectionError, IntrospectionError, ExecutionError)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
