package dialect

import "strings"

// Database introspection returns vendor-specific type spellings that must
// not trigger spurious migrations on every reconciliation run; equivalence,
// not equality, is the required property. TypeEquivalent applies an ordered
// list of rules, first match wins. A pair neither rule can classify is a
// conservative mismatch, which triggers an ALTER rather than silently
// skipping the column.

// typeToken is a parsed `name(length)` type string. The length payload is
// kept as a string so parameter lists like (10,2) compare cleanly.
type typeToken struct {
	name      string
	length    string
	hasLength bool
}

// parseTypeToken splits a lowercased type string into base name and length
// payload. It replaces positional substring arithmetic with an explicit
// parse; strings with unbalanced parentheses or an empty payload fail.
func parseTypeToken(s string) (typeToken, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return typeToken{}, false
	}
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return typeToken{name: s}, true
	}
	if open == 0 || !strings.HasSuffix(s, ")") {
		return typeToken{}, false
	}
	payload := strings.ReplaceAll(s[open+1:len(s)-1], " ", "")
	if payload == "" || strings.ContainsAny(payload, "()") {
		return typeToken{}, false
	}
	return typeToken{
		name:      strings.TrimSpace(s[:open]),
		length:    payload,
		hasLength: true,
	}, true
}

// Type families. Members of the same family are equivalent regardless of
// declared precision; serial types live in the integer family because their
// native rendering is a plain integer plus an auto-increment mechanism.
var (
	integerFamily = map[string]bool{
		"int": true, "integer": true, "tinyint": true, "smallint": true,
		"mediumint": true, "bigint": true, "serial": true, "bigserial": true,
	}
	floatFamily = map[string]bool{
		"double": true, "double precision": true, "float": true, "real": true,
	}
	charFamily = map[string]bool{
		"char": true, "varchar": true, "character": true, "character varying": true,
	}
)

// normalize lowercases, trims and applies the dialect's native-spelling
// alias table to a type string.
func (d *Dialect) normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if alias, ok := d.typeAliases[s]; ok {
		return alias
	}
	return s
}

// TypeEquivalent reports whether a live column's native type string already
// satisfies a desired declared type.
func (d *Dialect) TypeEquivalent(native, declared string) bool {
	n := d.normalize(native)
	want := d.normalize(declared)

	// Rule 1: exact equality after lower-casing and alias normalization.
	if n == want {
		return true
	}

	// Rule 2: dialect boolean aliasing (tinyint(1) satisfies boolean).
	if d.boolAliases[n] == want || d.boolAliases[want] == n {
		return true
	}

	nt, nok := parseTypeToken(n)
	wt, wok := parseTypeToken(want)
	if !nok || !wok {
		// Unresolvable pair: conservative mismatch.
		return false
	}

	// Rule 3: length-parameterized equivalence across character-family
	// spellings (varchar(50) satisfies character varying(50)).
	if nt.hasLength && wt.hasLength && nt.length == wt.length {
		if nt.name == wt.name {
			return true
		}
		if charFamily[nt.name] && charFamily[wt.name] {
			return true
		}
	}

	// Rule 4: numeric families, regardless of declared precision.
	if integerFamily[nt.name] && integerFamily[wt.name] {
		return true
	}
	if floatFamily[nt.name] && floatFamily[wt.name] {
		return true
	}

	// Rule 5: native rendering of a mapped declared type. Covers dialects
	// whose type table rewrites the base name without a length change
	// (character varying -> varchar with no live length reported).
	if mapped, ok := d.typeMap[wt.name]; ok && mapped == nt.name {
		if !nt.hasLength || !wt.hasLength || nt.length == wt.length {
			return true
		}
	}

	return false
}
