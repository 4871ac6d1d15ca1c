package tools

import (
	"context"
	"strings"

	"github.com/pggate/pggate/internal/format"
	"github.com/pggate/pggate/internal/sqlscan"
)

func (r *Runner) query(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		SQL    string `json:"sql"`
		Params []any  `json:"params,omitempty"`
		Format string `json:"format,omitempty"`
		Schema string `json:"schema,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SQL) == "" {
		return nil, validationErrorf("sql is required")
	}
	if !sqlscan.IsReadOnly(req.SQL) {
		return nil, validationErrorf(
			"statement is not read-only; use pg.dml.execute for data changes or pg.ddl.execute for schema changes")
	}

	qualified := sqlscan.Qualify(req.SQL, r.resolveSchema(req.Schema))
	rows, err := r.db.Query(ctx, qualified, req.Params...)
	if err != nil {
		return nil, mapExecutionError(err, "executing query")
	}

	rendered, err := format.Render(req.Format, rows)
	if err != nil {
		return nil, validationErrorf("%v", err)
	}

	return map[string]any{
		"sql":       qualified,
		"columns":   rows.Columns,
		"rows":      rows.Rows,
		"row_count": len(rows.Rows),
		"text":      rendered,
	}, nil
}

func (r *Runner) queryExplain(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		SQL     string `json:"sql"`
		Analyze bool   `json:"analyze,omitempty"`
		Format  string `json:"format,omitempty"`
		Schema  string `json:"schema,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SQL) == "" {
		return nil, validationErrorf("sql is required")
	}

	qualified := sqlscan.Qualify(req.SQL, r.resolveSchema(req.Schema))
	statement := "EXPLAIN " + qualified
	if req.Analyze {
		// EXPLAIN ANALYZE actually runs the statement; for non-SELECT input
		// that is a real side effect and is documented as such in the tool
		// contract.
		statement = "EXPLAIN ANALYZE " + qualified
	}

	rows, err := r.db.Query(ctx, statement)
	if err != nil {
		return nil, mapExecutionError(err, "explaining statement")
	}

	rendered, err := format.Render(req.Format, rows)
	if err != nil {
		return nil, validationErrorf("%v", err)
	}

	return map[string]any{
		"sql":     statement,
		"analyze": req.Analyze,
		"rows":    rows.Rows,
		"text":    rendered,
	}, nil
}
