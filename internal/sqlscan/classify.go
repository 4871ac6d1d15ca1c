// Package sqlscan classifies and rewrites SQL statements lexically.
//
// The functions here are deliberately not a SQL parser: classification is a
// leading-keyword match and dangerousness a substring scan. Statements the
// heuristics misjudge (keywords inside string literals, identifiers that
// collide with keywords) are an accepted limitation of the lexical approach.
package sqlscan

import "strings"

// Kind is the lexical risk classification of a statement.
type Kind string

const (
	KindReadOnly Kind = "read-only"
	KindInsert   Kind = "insert"
	KindUpdate   Kind = "update"
	KindDelete   Kind = "delete"
	KindOtherDML Kind = "other-dml"
)

var readOnlyPrefixes = []string{"SELECT", "WITH", "EXPLAIN", "SHOW", `\D`}

// IsReadOnly reports whether the statement starts with a read-only keyword
// (SELECT, WITH, EXPLAIN, SHOW) or a psql backslash describe command.
// Classification is purely lexical; an empty statement is not read-only.
func IsReadOnly(sql string) bool {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	if upper == "" {
		return false
	}
	for _, prefix := range readOnlyPrefixes {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}

// ClassifyDML returns the DML kind of a statement based on its leading
// keyword. Anything that is not exactly INSERT, UPDATE or DELETE, including
// SELECT and the empty string, classifies as KindOtherDML.
func ClassifyDML(sql string) Kind {
	fields := strings.Fields(strings.ToUpper(sql))
	if len(fields) == 0 {
		return KindOtherDML
	}
	switch fields[0] {
	case "INSERT":
		return KindInsert
	case "UPDATE":
		return KindUpdate
	case "DELETE":
		return KindDelete
	default:
		return KindOtherDML
	}
}

// IsDangerousDDL reports whether a statement is irreversible or cascading:
// it starts with DROP or TRUNCATE, or contains CASCADE anywhere. The CASCADE
// scan intentionally covers the whole statement text, so a CASCADE clause
// deep inside an ALTER statement still counts.
func IsDangerousDDL(sql string) bool {
	upper := strings.ToUpper(strings.TrimSpace(sql))
	if upper == "" {
		return false
	}
	if strings.HasPrefix(upper, "DROP") || strings.HasPrefix(upper, "TRUNCATE") {
		return true
	}
	return strings.Contains(upper, "CASCADE")
}
