package policy

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Preview severity markers. The elevated marker is reserved for statements
// classified as dangerous DDL.
const (
	MarkerCaution = "[CAUTION]"
	MarkerDanger  = "[DANGER]"
)

// PendingConfirmation reports whether a mutating call must stop at the
// preview stage. The gate is stateless: nothing links the preview call to
// the confirmed call beyond the caller resending identical arguments.
func PendingConfirmation(confirmed bool) bool {
	return !confirmed
}

// Preview describes one unexecuted mutating statement shown to the caller.
type Preview struct {
	// SQL is the fully rewritten (schema-qualified) statement.
	SQL string
	// Params are the bound positional parameters, echoed verbatim.
	Params []any
	// Kind names the statement classification shown in the preview.
	Kind string
	// Dangerous elevates the severity marker and adds an irreversibility
	// warning.
	Dangerous bool
}

// Payload renders the preview as a structured tool result. No backend
// mutation has occurred when this payload is returned.
func (p Preview) Payload() map[string]any {
	payload := map[string]any{
		"status":    "awaiting_confirmation",
		"sql":       p.SQL,
		"kind":      p.Kind,
		"dangerous": p.Dangerous,
		"text":      p.Text(),
	}
	if p.Params != nil {
		payload["params"] = p.Params
	}
	return payload
}

// Text renders the human-readable preview: severity marker, the statement,
// its parameters, and the resend instruction.
func (p Preview) Text() string {
	var b strings.Builder

	marker := MarkerCaution
	if p.Dangerous {
		marker = MarkerDanger
	}
	fmt.Fprintf(&b, "%s About to execute %s statement:\n", marker, p.Kind)
	fmt.Fprintf(&b, "  %s\n", strings.TrimSpace(p.SQL))
	if len(p.Params) > 0 {
		fmt.Fprintf(&b, "Parameters: %s\n", encodeParams(p.Params))
	}
	if p.Dangerous {
		b.WriteString("This statement is irreversible or cascading and cannot be undone.\n")
	}
	b.WriteString("No changes have been made. Resend the same call with confirmed=true to execute.")
	return b.String()
}

func encodeParams(params []any) string {
	encoded, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%v", params)
	}
	return string(encoded)
}
