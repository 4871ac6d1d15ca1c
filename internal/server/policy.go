package server

import (
	"fmt"

	"github.com/pggate/pggate/internal/policy"
)

// ToolAuthorizer is the transport-level gate: it enforces each tool's
// contract minimum before the call reaches the runner. Statement-derived
// escalation (DELETE needing full, DDL needing admin) happens inside the
// runner afterwards.
type ToolAuthorizer interface {
	Level() policy.AccessLevel
	Authorize(toolName string, required policy.AccessLevel) error
}

func authorizeToolCall(authorizer ToolAuthorizer, tool ToolSpec) error {
	if authorizer == nil {
		authorizer = policy.NewGuard(policy.LevelReadOnly)
	}
	if err := authorizer.Authorize(tool.Name, tool.RequiredLevel()); err != nil {
		return fmt.Errorf("tool authorization denied: %w", err)
	}
	return nil
}

func resolvedLevel(authorizer ToolAuthorizer) string {
	if authorizer == nil {
		return policy.LevelReadOnly.String()
	}
	return authorizer.Level().String()
}
