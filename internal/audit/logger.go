// Package audit provides structured audit logging for SQL tool calls.
package audit

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

var (
	bearerTokenPattern = regexp.MustCompile(`(?i)\bBearer\s+[A-Za-z0-9\-._~+/]+=*`)
	keyValuePattern    = regexp.MustCompile(`(?i)\b(token|secret|password|authorization)\s*[:=]\s*([^\s,;]+)`)
	whitespacePattern  = regexp.MustCompile(`\s+`)
)

// maxStatementSummaryLen bounds how much of a statement ends up in the log.
const maxStatementSummaryLen = 120

// ToolCallCompletion captures one finalized tool-call outcome.
type ToolCallCompletion struct {
	RequestID    string
	SessionID    string
	Transport    string
	ToolName     string
	AccessLevel  string
	CallerSub    string
	Arguments    map[string]any
	Result       string
	ErrorDetail  string
	Duration     time.Duration
	ResponseCode int
}

// StatementSummary is a redacted, truncated view of what a call targeted.
// Parameter values never appear here; only the statement text itself and
// the addressed schema/table.
type StatementSummary struct {
	Statement string `json:"statement,omitempty"`
	Schema    string `json:"schema,omitempty"`
	Table     string `json:"table,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

// Logger emits structured audit entries.
type Logger struct {
	logger zerolog.Logger
}

// NewLogger creates an audit logger.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Complete writes a single completion log entry for one tool call.
func (l *Logger) Complete(event ToolCallCompletion) {
	if l == nil {
		return
	}

	result := strings.TrimSpace(event.Result)
	if result == "" {
		result = "error"
	}

	tool := strings.TrimSpace(event.ToolName)
	if tool == "" {
		tool = "unknown"
	}
	level := strings.TrimSpace(event.AccessLevel)
	if level == "" {
		level = "readonly"
	}

	duration := event.Duration
	if duration < 0 {
		duration = 0
	}

	entry := l.logger.Info().
		Str("event", "mcp.tool_call.completed").
		Str("request_id", strings.TrimSpace(event.RequestID)).
		Str("session_id", strings.TrimSpace(event.SessionID)).
		Str("transport", strings.TrimSpace(event.Transport)).
		Str("tool", tool).
		Str("access_level", level).
		Str("caller_subject", strings.TrimSpace(event.CallerSub)).
		Str("result", result).
		Int64("duration_ms", duration.Milliseconds()).
		Interface("statement", SummarizeStatement(event.Arguments))

	if event.ResponseCode > 0 {
		entry = entry.Int("response_code", event.ResponseCode)
	}
	if redactedError := RedactSensitiveText(event.ErrorDetail); redactedError != "" {
		entry = entry.Str("error_detail", redactedError)
	}

	entry.Msg("tool call completed")
}

// SummarizeStatement builds a compact statement summary from tool arguments.
func SummarizeStatement(args map[string]any) StatementSummary {
	if args == nil {
		return StatementSummary{}
	}

	summary := StatementSummary{
		Schema: readString(args, "schema"),
		Table:  readString(args, "table"),
	}
	if confirmed, ok := args["confirmed"].(bool); ok {
		summary.Confirmed = confirmed
	}
	if sql := readString(args, "sql"); sql != "" {
		collapsed := whitespacePattern.ReplaceAllString(sql, " ")
		collapsed = RedactSensitiveText(collapsed)
		if len(collapsed) > maxStatementSummaryLen {
			// Cut on a rune boundary so the log entry stays valid UTF-8.
			cut := maxStatementSummaryLen
			for cut > 0 && !utf8.RuneStart(collapsed[cut]) {
				cut--
			}
			collapsed = collapsed[:cut] + "..."
		}
		summary.Statement = collapsed
	}
	return summary
}

// RedactSensitiveText removes obvious secrets from free-text details.
func RedactSensitiveText(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	redacted := bearerTokenPattern.ReplaceAllString(trimmed, "Bearer [REDACTED]")
	redacted = keyValuePattern.ReplaceAllStringFunc(redacted, func(match string) string {
		parts := strings.SplitN(match, ":", 2)
		if len(parts) == 2 {
			return fmt.Sprintf("%s: [REDACTED]", strings.TrimSpace(parts[0]))
		}
		parts = strings.SplitN(match, "=", 2)
		if len(parts) == 2 {
			return fmt.Sprintf("%s=[REDACTED]", strings.TrimSpace(parts[0]))
		}
		return "[REDACTED]"
	})
	return redacted
}

func readString(args map[string]any, key string) string {
	raw, ok := args[key]
	if !ok {
		return ""
	}
	asString, ok := raw.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(asString)
}
