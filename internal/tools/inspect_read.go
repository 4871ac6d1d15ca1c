package tools

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/pggate/pggate/internal/format"
	"github.com/pggate/pggate/internal/pgexec"
)

// psql builds catalog queries with Postgres placeholder binding.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (r *Runner) schemasList(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct{}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}

	query := psql.
		Select("schema_name", "schema_owner").
		From("information_schema.schemata").
		OrderBy("schema_name")

	return r.runCatalogQuery(ctx, query, "listing schemas", "")
}

func (r *Runner) tablesList(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		Schema string `json:"schema,omitempty"`
		Type   string `json:"type,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	schema := r.resolveSchema(req.Schema)

	query := psql.
		Select("table_name", "table_type").
		From("information_schema.tables").
		Where(sq.Eq{"table_schema": schema}).
		OrderBy("table_name")

	switch strings.ToLower(strings.TrimSpace(req.Type)) {
	case "", "all":
	case "table":
		query = query.Where(sq.Eq{"table_type": "BASE TABLE"})
	case "view":
		query = query.Where(sq.Eq{"table_type": "VIEW"})
	default:
		return nil, validationErrorf("invalid type %q (allowed: table|view|all)", req.Type)
	}

	return r.runCatalogQuery(ctx, query, "listing tables", schema)
}

func (r *Runner) tablesDescribe(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		Table  string `json:"table"`
		Schema string `json:"schema,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	table := strings.TrimSpace(req.Table)
	if table == "" {
		return nil, validationErrorf("table is required")
	}
	schema := r.resolveSchema(req.Schema)

	columnsQuery := psql.
		Select("column_name", "data_type", "is_nullable", "column_default").
		From("information_schema.columns").
		Where(sq.Eq{"table_schema": schema, "table_name": table}).
		OrderBy("ordinal_position")
	columns, err := r.queryRows(ctx, columnsQuery, "describing columns")
	if err != nil {
		return nil, err
	}
	if len(columns.Rows) == 0 {
		return nil, validationErrorf("table %s.%s not found", schema, table)
	}

	indexesQuery := psql.
		Select("indexname", "indexdef").
		From("pg_indexes").
		Where(sq.Eq{"schemaname": schema, "tablename": table}).
		OrderBy("indexname")
	indexes, err := r.queryRows(ctx, indexesQuery, "describing indexes")
	if err != nil {
		return nil, err
	}

	constraints, err := r.constraintRows(ctx, schema, table)
	if err != nil {
		return nil, err
	}

	rendered, err := format.Render(format.Text, columns)
	if err != nil {
		return nil, validationErrorf("%v", err)
	}

	return map[string]any{
		"schema":      schema,
		"table":       table,
		"columns":     columns.Rows,
		"indexes":     indexes.Rows,
		"constraints": constraints.Rows,
		"text":        rendered,
	}, nil
}

func (r *Runner) indexesList(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		Schema string `json:"schema,omitempty"`
		Table  string `json:"table,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	schema := r.resolveSchema(req.Schema)

	query := psql.
		Select("tablename", "indexname", "indexdef").
		From("pg_indexes").
		Where(sq.Eq{"schemaname": schema}).
		OrderBy("tablename", "indexname")
	if table := strings.TrimSpace(req.Table); table != "" {
		query = query.Where(sq.Eq{"tablename": table})
	}

	return r.runCatalogQuery(ctx, query, "listing indexes", schema)
}

// Constraint definitions need pg_get_constraintdef, which squirrel cannot
// express; this one stays raw catalog SQL.
const constraintsSQL = `
SELECT c.conname AS name,
       CASE c.contype
            WHEN 'p' THEN 'PRIMARY KEY'
            WHEN 'f' THEN 'FOREIGN KEY'
            WHEN 'u' THEN 'UNIQUE'
            WHEN 'c' THEN 'CHECK'
            ELSE c.contype::text
       END AS type,
       pg_get_constraintdef(c.oid) AS definition
FROM pg_constraint c
JOIN pg_class t ON c.conrelid = t.oid
JOIN pg_namespace n ON t.relnamespace = n.oid
WHERE n.nspname = $1 AND t.relname = $2
ORDER BY c.conname`

func (r *Runner) constraintsList(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		Table  string `json:"table"`
		Schema string `json:"schema,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	table := strings.TrimSpace(req.Table)
	if table == "" {
		return nil, validationErrorf("table is required")
	}
	schema := r.resolveSchema(req.Schema)

	rows, err := r.constraintRows(ctx, schema, table)
	if err != nil {
		return nil, err
	}

	rendered, err := format.Render(format.Text, rows)
	if err != nil {
		return nil, validationErrorf("%v", err)
	}

	return map[string]any{
		"schema":      schema,
		"table":       table,
		"constraints": rows.Rows,
		"text":        rendered,
	}, nil
}

func (r *Runner) constraintRows(ctx context.Context, schema, table string) (*pgexec.RowSet, error) {
	rows, err := r.db.Query(ctx, constraintsSQL, schema, table)
	if err != nil {
		return nil, mapExecutionError(err, "listing constraints")
	}
	return rows, nil
}

func (r *Runner) statsGet(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		Schema string `json:"schema,omitempty"`
		Table  string `json:"table,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	schema := r.resolveSchema(req.Schema)

	query := psql.
		Select(
			"relname",
			"n_live_tup",
			"n_dead_tup",
			"seq_scan",
			"idx_scan",
			"n_tup_ins",
			"n_tup_upd",
			"n_tup_del",
			"last_vacuum",
			"last_analyze",
		).
		From("pg_stat_user_tables").
		Where(sq.Eq{"schemaname": schema}).
		OrderBy("relname")
	if table := strings.TrimSpace(req.Table); table != "" {
		query = query.Where(sq.Eq{"relname": table})
	}

	return r.runCatalogQuery(ctx, query, "reading table statistics", schema)
}

func (r *Runner) queryRows(ctx context.Context, builder sq.SelectBuilder, action string) (*pgexec.RowSet, error) {
	statement, params, err := builder.ToSql()
	if err != nil {
		return nil, validationErrorf("building catalog query: %v", err)
	}
	rows, err := r.db.Query(ctx, statement, params...)
	if err != nil {
		return nil, mapExecutionError(err, action)
	}
	return rows, nil
}

func (r *Runner) runCatalogQuery(ctx context.Context, builder sq.SelectBuilder, action, schema string) (map[string]any, error) {
	rows, err := r.queryRows(ctx, builder, action)
	if err != nil {
		return nil, err
	}

	rendered, err := format.Render(format.Text, rows)
	if err != nil {
		return nil, validationErrorf("%v", err)
	}

	payload := map[string]any{
		"columns":   rows.Columns,
		"rows":      rows.Rows,
		"row_count": len(rows.Rows),
		"text":      rendered,
	}
	if schema != "" {
		payload["schema"] = schema
	}
	return payload, nil
}
