// Package diff compares a desired table definition against the live schema
// and emits the operations that converge them. The policy is additive:
// columns are only added or altered, never dropped; constraints may be
// dropped only to be recreated with the desired shape.
package diff

import (
	"regexp"
	"strings"

	"github.com/convergelabs/schemasync/pkg/core"
	"github.com/convergelabs/schemasync/pkg/dialect"
)

// ColumnAction classifies what a desired column needs.
type ColumnAction int

const (
	// ColumnAdd means the column is absent from the live table.
	ColumnAdd ColumnAction = iota
	// ColumnAlter means the column exists but its type, nullability or
	// default disagrees with the declaration.
	ColumnAlter
)

// ColumnOp is one corrective column operation.
type ColumnOp struct {
	Action ColumnAction
	Column core.ColumnDefinition
	// Reason names the mismatched property for logs and reports.
	Reason string
}

// Columns compares desired columns against live ones and returns the
// operations needed, in desired-column order. In-sync columns produce
// nothing. Live columns outside the desired set are left untouched.
func Columns(desired []core.ColumnDefinition, live []core.LiveColumn, d *dialect.Dialect) []ColumnOp {
	byName := make(map[string]core.LiveColumn, len(live))
	for _, lc := range live {
		byName[strings.ToLower(lc.Name)] = lc
	}

	var ops []ColumnOp
	for _, col := range desired {
		lc, ok := byName[strings.ToLower(col.Name)]
		if !ok {
			ops = append(ops, ColumnOp{Action: ColumnAdd, Column: col, Reason: "missing"})
			continue
		}
		if reason := columnMismatch(col, lc, d); reason != "" {
			ops = append(ops, ColumnOp{Action: ColumnAlter, Column: col, Reason: reason})
		}
	}
	return ops
}

// columnMismatch returns the name of the first property that disagrees, or
// empty when the live column already satisfies the declaration.
func columnMismatch(col core.ColumnDefinition, lc core.LiveColumn, d *dialect.Dialect) string {
	if !d.TypeEquivalent(lc.Type, col.Type) {
		return "type"
	}
	if lc.Nullable != col.Nullable {
		return "nullability"
	}
	// Auto-increment columns carry dialect-generated defaults
	// (nextval sequences); comparing those would oscillate forever.
	if isSerial(col.Type) || strings.Contains(strings.ToLower(lc.Default), "nextval(") {
		return ""
	}
	if !defaultsEqual(col.Default, lc.Default) {
		return "default"
	}
	return ""
}

func isSerial(declared string) bool {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "serial", "bigserial":
		return true
	}
	return false
}

// defaultsEqual reports whether a live default already satisfies the
// declared one. Beyond normalized string equality, a concrete datetime
// literal satisfies a declared current-timestamp default: statements are
// executed with now()/CURRENT_TIMESTAMP substituted by a computed literal,
// so the live value can never echo the function spelling back.
func defaultsEqual(declared, live string) bool {
	d, l := normalizeDefault(declared), normalizeDefault(live)
	if d == l {
		return true
	}
	if d == "current_timestamp" && datetimeLiteral.MatchString(l) {
		return true
	}
	return false
}

var datetimeLiteral = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}([ t]\d{2}:\d{2}:\d{2}(\.\d+)?)?$`)

// normalizeDefault reduces a default expression to a comparable form:
// lowercased, unquoted, with any PostgreSQL cast suffix stripped
// ("'0'::character varying" and '0' compare equal), the synonymous
// current-timestamp spellings folded together, and boolean literals folded
// to the 1/0 that MySQL's tinyint(1) columns report.
func normalizeDefault(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(s, "::"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = strings.Trim(s, "'\"")
	switch s {
	case "now()", "current_timestamp", "current_timestamp()":
		return "current_timestamp"
	case "true":
		return "1"
	case "false":
		return "0"
	case "null":
		return ""
	}
	return s
}
