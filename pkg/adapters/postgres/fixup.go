package postgres

import (
	"regexp"
	"strings"
	"time"
)

// PostgreSQL rejects a few fragments that appear in generated DDL when
// generic declared types are rendered verbatim. Fixup applies a small
// ordered set of explicit rewrite rules to every statement this adapter
// executes; the other dialects apply no rewriting.

// nowFunc is swappable in tests so rewritten literals are deterministic.
var nowFunc = time.Now

type rewriteRule struct {
	name  string
	apply func(string) string
}

var (
	varcharCastPattern      = regexp.MustCompile(`::character varying(\(\d+\))?`)
	nowCallPattern          = regexp.MustCompile(`(?i)\bnow\(\)`)
	currentTimestampPattern = regexp.MustCompile(`(?i)\bcurrent_timestamp\b(\(\))?`)
)

var rewriteRules = []rewriteRule{
	{
		// '0'::character varying is not valid inside a rendered column
		// default; the cast is redundant and dropped.
		name:  "strip-varchar-cast",
		apply: func(s string) string { return varcharCastPattern.ReplaceAllString(s, "") },
	},
	{
		name: "now-to-literal",
		apply: func(s string) string {
			return nowCallPattern.ReplaceAllString(s, timestampLiteral())
		},
	},
	{
		name: "current-timestamp-to-literal",
		apply: func(s string) string {
			return currentTimestampPattern.ReplaceAllString(s, timestampLiteral())
		},
	},
}

func timestampLiteral() string {
	return "'" + nowFunc().Format("2006-01-02 15:04:05") + "'"
}

// Fixup rewrites a rendered statement through the rule list, in order.
func Fixup(sql string) string {
	for _, r := range rewriteRules {
		sql = r.apply(sql)
	}
	return sql
}

// needsFixup is a cheap pre-check so clean statements skip the regexp pass.
func needsFixup(sql string) bool {
	lower := strings.ToLower(sql)
	return strings.Contains(lower, "::character varying") ||
		strings.Contains(lower, "now()") ||
		strings.Contains(lower, "current_timestamp")
}
