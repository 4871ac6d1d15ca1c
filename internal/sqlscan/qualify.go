package sqlscan

import (
	"regexp"
	"strings"
)

// Keywords whose following identifier is a table reference worth qualifying,
// scanned in this order.
var qualifyKeywords = []string{"FROM", "JOIN", "INTO", "UPDATE"}

// Identifiers that look like table references after one of the keywords above
// but are themselves SQL keywords (e.g. "INSERT INTO t SELECT ..." scanned by
// the FROM pass of a subquery). Never qualified.
var excludedIdentifiers = map[string]struct{}{
	"SELECT": {},
	"WITH":   {},
	"VALUES": {},
	"TABLE":  {},
	"NULL":   {},
}

var keywordPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(qualifyKeywords))
	for _, keyword := range qualifyKeywords {
		patterns[keyword] = regexp.MustCompile(`(?i)\b` + keyword + `\s+([A-Za-z_][A-Za-z0-9_]*)`)
	}
	return patterns
}()

// Qualify rewrites bare table references following FROM, JOIN, INTO or UPDATE
// to schema-qualified form. References that already carry a schema prefix are
// left untouched, which makes the rewrite idempotent:
//
//	Qualify(Qualify(sql, s), s) == Qualify(sql, s)
//
// This is a lexical transform, not a parser; identifiers coinciding with
// keywords outside the exclusion set, or correlated subquery aliases, may be
// mis-qualified. The result is always a valid string, possibly unchanged.
func Qualify(sql, schema string) string {
	schema = strings.TrimSpace(schema)
	if schema == "" || strings.TrimSpace(sql) == "" {
		return sql
	}
	out := sql
	for _, keyword := range qualifyKeywords {
		out = qualifyAfterKeyword(out, keyword, schema)
	}
	return out
}

func qualifyAfterKeyword(sql, keyword, schema string) string {
	matches := keywordPatterns[keyword].FindAllStringSubmatchIndex(sql, -1)
	if len(matches) == 0 {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) + len(matches)*(len(schema)+1))
	last := 0
	for _, m := range matches {
		identStart, identEnd := m[2], m[3]
		ident := sql[identStart:identEnd]
		if !shouldQualify(sql, ident, identEnd) {
			continue
		}
		b.WriteString(sql[last:identStart])
		b.WriteString(schema)
		b.WriteByte('.')
		b.WriteString(ident)
		last = identEnd
	}
	b.WriteString(sql[last:])
	return b.String()
}

// shouldQualify applies the negative lookahead (already qualified references
// are followed by a dot) and the boundary rule: the identifier must end at
// whitespace, comma, semicolon, closing paren or end of statement.
func shouldQualify(sql, ident string, identEnd int) bool {
	if _, excluded := excludedIdentifiers[strings.ToUpper(ident)]; excluded {
		return false
	}
	if identEnd >= len(sql) {
		return true
	}
	switch sql[identEnd] {
	case ' ', '\t', '\n', '\r', ',', ';', ')':
		return true
	default:
		return false
	}
}
