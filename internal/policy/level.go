// Package policy defines execution guardrails for SQL tool calls: the
// ordered access-level model and the confirm-before-execute gate.
package policy

import (
	"fmt"
	"strings"
)

// AccessLevel is an ordered permission tier. A level satisfies a required
// level iff its rank is at least the required rank.
type AccessLevel int

const (
	// LevelReadOnly permits inspection and read-only queries.
	LevelReadOnly AccessLevel = iota
	// LevelReadWrite additionally permits INSERT and UPDATE.
	LevelReadWrite
	// LevelFull additionally permits DELETE and other mutating DML.
	LevelFull
	// LevelAdmin additionally permits DDL.
	LevelAdmin
)

var levelNames = map[AccessLevel]string{
	LevelReadOnly:  "readonly",
	LevelReadWrite: "readwrite",
	LevelFull:      "full",
	LevelAdmin:     "admin",
}

// String returns the configuration name of the level.
func (l AccessLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("accesslevel(%d)", int(l))
}

// Satisfies reports whether this level meets a required level.
func (l AccessLevel) Satisfies(required AccessLevel) bool {
	return l >= required
}

// ParseAccessLevel resolves a case-insensitive level name. Callers are
// expected to fall back to LevelReadOnly with a diagnostic on error rather
// than treating an invalid configured value as fatal.
func ParseAccessLevel(value string) (AccessLevel, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for level, name := range levelNames {
		if normalized == name {
			return level, nil
		}
	}
	return LevelReadOnly, fmt.Errorf("invalid access level %q (allowed: readonly|readwrite|full|admin)", strings.TrimSpace(value))
}

// Guard holds the process-wide active access level, resolved once at startup
// and immutable afterwards.
type Guard struct {
	level AccessLevel
}

// NewGuard creates a guard for the active level.
func NewGuard(level AccessLevel) *Guard {
	return &Guard{level: level}
}

// Level returns the active access level.
func (g *Guard) Level() AccessLevel {
	if g == nil {
		return LevelReadOnly
	}
	return g.level
}

// Authorize allows or denies a tool call against a required level. The
// denial names both levels so the caller can self-diagnose.
func (g *Guard) Authorize(toolName string, required AccessLevel) error {
	name := strings.TrimSpace(toolName)
	if name == "" {
		name = "unknown"
	}
	if g.Level().Satisfies(required) {
		return nil
	}
	return fmt.Errorf("tool %s requires access level %s (active level: %s)", name, required, g.Level())
}
