package diff

import (
	"strings"

	"github.com/convergelabs/schemasync/pkg/core"
)

// ConstraintOpKind says whether a constraint operation drops or adds.
type ConstraintOpKind int

const (
	ConstraintDrop ConstraintOpKind = iota
	ConstraintAdd
)

// ConstraintOp is one corrective constraint operation. For drops the
// definition carries the live shape (renderers need the live kind to pick
// the dialect's drop form); for adds it carries the desired shape.
type ConstraintOp struct {
	Kind       ConstraintOpKind
	Constraint core.ConstraintDefinition
}

// Constraints diffs desired named constraints against live ones, matching
// by name first and falling back to shape. Some dialects do not preserve
// declared constraint names (SQLite synthesizes them on introspection), so
// a live constraint of identical shape satisfies the declaration even under
// a different name. Missing constraints are added; constraints whose live
// shape disagrees are dropped and recreated, since most dialects lack an
// ALTER CONSTRAINT form. Live constraints outside the desired set are left
// untouched. All drops precede all adds to avoid transient name collisions.
func Constraints(desired []core.ConstraintDefinition, live []core.LiveConstraint) []ConstraintOp {
	byName := make(map[string]core.LiveConstraint, len(live))
	for _, lc := range live {
		byName[strings.ToLower(lc.Name)] = lc
	}
	claimed := make(map[string]bool, len(live))

	var drops, adds []ConstraintOp
	for _, c := range desired {
		if lc, ok := byName[strings.ToLower(c.Name)]; ok {
			claimed[strings.ToLower(lc.Name)] = true
			if shapeEqual(c, lc) {
				continue
			}
			drops = append(drops, ConstraintOp{Kind: ConstraintDrop, Constraint: liveDefinition(lc)})
			adds = append(adds, ConstraintOp{Kind: ConstraintAdd, Constraint: c})
			continue
		}
		if lc, ok := matchByShape(c, live, claimed); ok {
			claimed[strings.ToLower(lc.Name)] = true
			continue
		}
		adds = append(adds, ConstraintOp{Kind: ConstraintAdd, Constraint: c})
	}
	return append(drops, adds...)
}

// matchByShape finds an unclaimed live constraint with the desired shape.
func matchByShape(c core.ConstraintDefinition, live []core.LiveConstraint, claimed map[string]bool) (core.LiveConstraint, bool) {
	for _, lc := range live {
		if claimed[strings.ToLower(lc.Name)] {
			continue
		}
		if shapeEqual(c, lc) {
			return lc, true
		}
	}
	return core.LiveConstraint{}, false
}

// liveDefinition converts an introspected constraint to a definition the
// drop renderers can consume.
func liveDefinition(lc core.LiveConstraint) core.ConstraintDefinition {
	return core.ConstraintDefinition{
		Name:          lc.Name,
		Kind:          lc.Kind,
		Columns:       lc.Columns,
		ForeignTable:  lc.ForeignTable,
		ForeignColumn: lc.ForeignColumn,
		OnUpdate:      lc.OnUpdate,
		OnDelete:      lc.OnDelete,
	}
}

// shapeEqual reports whether the live constraint already has the desired
// shape: same kind, same target columns in order, and for foreign keys the
// same target and referential actions.
func shapeEqual(c core.ConstraintDefinition, lc core.LiveConstraint) bool {
	if c.Kind != lc.Kind {
		return false
	}
	if !columnsEqual(c.Columns, lc.Columns) {
		return false
	}
	if c.Kind != core.ForeignKey {
		return true
	}
	if !strings.EqualFold(c.ForeignTable, lc.ForeignTable) {
		return false
	}
	if !strings.EqualFold(c.ForeignColumn, lc.ForeignColumn) {
		return false
	}
	return actionEqual(c.OnUpdate, lc.OnUpdate) && actionEqual(c.OnDelete, lc.OnDelete)
}

func columnsEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

// actionEqual compares referential actions, folding the dialect defaults
// together: an unspecified action, NO ACTION and RESTRICT all mean "do
// nothing special" and must not trigger drop/recreate cycles.
func actionEqual(a, b string) bool {
	return normalizeAction(a) == normalizeAction(b)
}

func normalizeAction(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "NO ACTION" || s == "RESTRICT" {
		return ""
	}
	return s
}
