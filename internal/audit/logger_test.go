package audit

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLoggerComplete_EmitsOneStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	auditLogger := NewLogger(logger)

	auditLogger.Complete(ToolCallCompletion{
		RequestID:   "req-1",
		SessionID:   "sess-1",
		Transport:   "http",
		ToolName:    "pg.dml.execute",
		AccessLevel: "readwrite",
		CallerSub:   "agent-user",
		Arguments: map[string]any{
			"sql":       "UPDATE users SET active = false WHERE id = $1",
			"params":    []any{7},
			"confirmed": true,
		},
		Result:       "success",
		Duration:     250 * time.Millisecond,
		ResponseCode: 200,
	})

	lines := splitJSONLines(t, buf.String())
	require.Len(t, lines, 1)

	entry := lines[0]
	require.Equal(t, "mcp.tool_call.completed", entry["event"])
	require.Equal(t, "req-1", entry["request_id"])
	require.Equal(t, "sess-1", entry["session_id"])
	require.Equal(t, "http", entry["transport"])
	require.Equal(t, "pg.dml.execute", entry["tool"])
	require.Equal(t, "readwrite", entry["access_level"])
	require.Equal(t, "agent-user", entry["caller_subject"])
	require.Equal(t, "success", entry["result"])
	require.EqualValues(t, 250, entry["duration_ms"])

	statement, ok := entry["statement"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "UPDATE users SET active = false WHERE id = $1", statement["statement"])
	require.Equal(t, true, statement["confirmed"])
	_, hasParams := statement["params"]
	require.False(t, hasParams, "parameter values must not be logged")
}

func TestSummarizeStatement_TruncatesAndRedacts(t *testing.T) {
	longSQL := "SELECT '" + strings.Repeat("x", 200) + "' AS filler"
	summary := SummarizeStatement(map[string]any{"sql": longSQL})
	require.LessOrEqual(t, len(summary.Statement), maxStatementSummaryLen+3)
	require.True(t, strings.HasSuffix(summary.Statement, "..."))

	redacted := SummarizeStatement(map[string]any{
		"sql": "UPDATE accounts SET password=hunter2 WHERE id = 1",
	})
	require.NotContains(t, redacted.Statement, "hunter2")
	require.Contains(t, redacted.Statement, "password=[REDACTED]")
}

func TestSummarizeStatement_TruncatesOnRuneBoundary(t *testing.T) {
	// Fill the statement so the cut lands inside a multi-byte rune.
	sql := "SELECT '" + strings.Repeat("x", maxStatementSummaryLen-9) + "Ü" + strings.Repeat("y", 40) + "'"
	summary := SummarizeStatement(map[string]any{"sql": sql})

	require.True(t, utf8.ValidString(summary.Statement))
	require.True(t, strings.HasSuffix(summary.Statement, "..."))
	require.LessOrEqual(t, len(summary.Statement), maxStatementSummaryLen+3)
}

func TestSummarizeStatement_CollectsSchemaAndTable(t *testing.T) {
	summary := SummarizeStatement(map[string]any{
		"schema": "app",
		"table":  "users",
		"limit":  25,
	})
	require.Equal(t, "app", summary.Schema)
	require.Equal(t, "users", summary.Table)
	require.Empty(t, summary.Statement)
}

func TestRedactSensitiveText_RedactsTokenLikeSegments(t *testing.T) {
	raw := "request failed: Authorization: Bearer abc.def.ghi token=xyz123 password=hunter2"
	redacted := RedactSensitiveText(raw)

	require.NotContains(t, redacted, "abc.def.ghi")
	require.NotContains(t, redacted, "xyz123")
	require.NotContains(t, redacted, "hunter2")
	require.Contains(t, redacted, "Authorization: [REDACTED]")
	require.Contains(t, redacted, "token=[REDACTED]")
	require.Contains(t, redacted, "password=[REDACTED]")
}

func splitJSONLines(t *testing.T, raw string) []map[string]any {
	t.Helper()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		entries = append(entries, entry)
	}
	return entries
}
