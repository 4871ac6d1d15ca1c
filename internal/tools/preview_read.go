package tools

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/pggate/pggate/internal/format"
)

// rowsPreview pages through a table with optional raw WHERE / ORDER BY
// fragments. The fragments run under the same read-only session privileges
// as everything else; identifiers are quoted, fragments are not rewritten.
func (r *Runner) rowsPreview(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		Table   string `json:"table"`
		Schema  string `json:"schema,omitempty"`
		Limit   *int   `json:"limit,omitempty"`
		Offset  *int   `json:"offset,omitempty"`
		Where   string `json:"where,omitempty"`
		OrderBy string `json:"order_by,omitempty"`
		Format  string `json:"format,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	table := strings.TrimSpace(req.Table)
	if table == "" {
		return nil, validationErrorf("table is required")
	}
	schema := r.resolveSchema(req.Schema)

	limit := defaultPreviewLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit < 1 || limit > maxPreviewLimit {
		return nil, validationErrorf("limit must be between 1 and %d, got %d", maxPreviewLimit, limit)
	}
	offset := 0
	if req.Offset != nil {
		offset = *req.Offset
	}
	if offset < 0 {
		return nil, validationErrorf("offset must not be negative, got %d", offset)
	}

	relation := fmt.Sprintf("%s.%s", pq.QuoteIdentifier(schema), pq.QuoteIdentifier(table))

	countQuery := psql.Select("COUNT(*)").From(relation)
	pageQuery := psql.Select("*").From(relation)
	if where := strings.TrimSpace(req.Where); where != "" {
		countQuery = countQuery.Where(sq.Expr(where))
		pageQuery = pageQuery.Where(sq.Expr(where))
	}
	if orderBy := strings.TrimSpace(req.OrderBy); orderBy != "" {
		pageQuery = pageQuery.OrderBy(orderBy)
	}
	pageQuery = pageQuery.Limit(uint64(limit)).Offset(uint64(offset))

	countRows, err := r.queryRows(ctx, countQuery, "counting preview rows")
	if err != nil {
		return nil, err
	}
	total := countValue(countRows.Rows)

	page, err := r.queryRows(ctx, pageQuery, "previewing rows")
	if err != nil {
		return nil, err
	}

	rendered, err := format.Render(req.Format, page)
	if err != nil {
		return nil, validationErrorf("%v", err)
	}

	return map[string]any{
		"schema":     schema,
		"table":      table,
		"columns":    page.Columns,
		"rows":       page.Rows,
		"row_count":  len(page.Rows),
		"total_rows": total,
		"limit":      limit,
		"offset":     offset,
		"has_more":   int64(offset+len(page.Rows)) < total,
		"text":       rendered,
	}, nil
}

func countValue(rows []map[string]any) int64 {
	if len(rows) == 0 {
		return 0
	}
	for _, v := range rows[0] {
		switch n := v.(type) {
		case int64:
			return n
		case float64:
			return int64(n)
		case string:
			var parsed int64
			if _, err := fmt.Sscan(n, &parsed); err == nil {
				return parsed
			}
		}
	}
	return 0
}
