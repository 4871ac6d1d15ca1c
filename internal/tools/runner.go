// Package tools executes pggate MCP tool calls against the SQL backend.
package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/pggate/pggate/internal/pgexec"
	"github.com/pggate/pggate/internal/policy"
)

const (
	defaultPreviewLimit = 100
	maxPreviewLimit     = 1000
)

// Runner executes tool calls. The access level and default schema are fixed
// at construction; every call runs its own classify/qualify/check/gate
// pipeline with no shared mutable state, so a Runner is safe for concurrent
// use.
type Runner struct {
	db     pgexec.Client
	level  policy.AccessLevel
	schema string
	logger zerolog.Logger
}

// NewRunner creates a tool runner bound to an executor and the process-wide
// access level.
func NewRunner(db pgexec.Client, level policy.AccessLevel, defaultSchema string, logger zerolog.Logger) *Runner {
	schema := strings.TrimSpace(defaultSchema)
	if schema == "" {
		schema = "public"
	}
	return &Runner{
		db:     db,
		level:  level,
		schema: schema,
		logger: logger.With().Str("component", "tools").Logger(),
	}
}

// Call executes one tool by name and returns JSON-like map content.
func (r *Runner) Call(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	switch strings.TrimSpace(name) {
	case "pg.query":
		return r.query(ctx, args)
	case "pg.query.explain":
		return r.queryExplain(ctx, args)

	case "pg.schemas.list":
		return r.schemasList(ctx, args)
	case "pg.tables.list":
		return r.tablesList(ctx, args)
	case "pg.tables.describe":
		return r.tablesDescribe(ctx, args)
	case "pg.indexes.list":
		return r.indexesList(ctx, args)
	case "pg.constraints.list":
		return r.constraintsList(ctx, args)
	case "pg.stats.get":
		return r.statsGet(ctx, args)
	case "pg.rows.preview":
		return r.rowsPreview(ctx, args)

	case "pg.dml.execute":
		return r.dmlExecute(ctx, args)
	case "pg.ddl.execute":
		return r.ddlExecute(ctx, args)

	default:
		return nil, validationErrorf("tool %s is not implemented", strings.TrimSpace(name))
	}
}

// resolveSchema applies the precedence: per-call override, configured
// default, literal "public" (guaranteed by NewRunner).
func (r *Runner) resolveSchema(override string) string {
	if s := strings.TrimSpace(override); s != "" {
		return s
	}
	return r.schema
}

// ToolError carries an HTTP-style status code and message for tool failures.
type ToolError struct {
	statusCode int
	message    string
}

// Error implements error.
func (e *ToolError) Error() string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.message)
}

// StatusCode returns the attached status code.
func (e *ToolError) StatusCode() int {
	if e == nil || e.statusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.statusCode
}

func validationErrorf(format string, args ...any) error {
	return &ToolError{
		statusCode: http.StatusBadRequest,
		message:    fmt.Sprintf(format, args...),
	}
}

func accessDeniedErrorf(format string, args ...any) error {
	return &ToolError{
		statusCode: http.StatusForbidden,
		message:    fmt.Sprintf(format, args...),
	}
}

// mapExecutionError converts executor failures into ToolErrors. Backend
// errors pass through verbatim with their structured fields; they are never
// retried here.
func mapExecutionError(err error, fallback string) error {
	if err == nil {
		return nil
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr
	}
	var backendErr *pgexec.BackendError
	if errors.As(err, &backendErr) {
		return &ToolError{
			statusCode: http.StatusBadGateway,
			message:    backendErr.Error(),
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ToolError{
			statusCode: http.StatusGatewayTimeout,
			message:    fallback + ": request timed out",
		}
	}
	if errors.Is(err, context.Canceled) {
		return &ToolError{
			statusCode: http.StatusRequestTimeout,
			message:    fallback + ": request canceled",
		}
	}
	return &ToolError{
		statusCode: http.StatusInternalServerError,
		message:    fmt.Sprintf("%s: %v", fallback, err),
	}
}

// decodeArgsStrict decodes tool arguments into a typed request, rejecting
// unknown argument names.
func decodeArgsStrict(args map[string]any, out any) error {
	if args == nil {
		args = map[string]any{}
	}
	encoded, err := json.Marshal(args)
	if err != nil {
		return validationErrorf("invalid tool arguments: %v", err)
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return validationErrorf("invalid tool arguments: %v", err)
	}
	if decoder.More() {
		return validationErrorf("tool arguments must be a single JSON object")
	}
	return nil
}
