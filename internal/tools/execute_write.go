package tools

import (
	"context"
	"strconv"
	"strings"

	"github.com/pggate/pggate/internal/policy"
	"github.com/pggate/pggate/internal/sqlscan"
)

// requiredLevelFor maps a classified DML kind to the access level it needs.
// Anything not positively identified as INSERT or UPDATE escalates to full:
// an unrecognized first token gets the same treatment as DELETE rather than
// the benefit of the doubt.
func requiredLevelFor(kind sqlscan.Kind) policy.AccessLevel {
	switch kind {
	case sqlscan.KindInsert, sqlscan.KindUpdate:
		return policy.LevelReadWrite
	default:
		return policy.LevelFull
	}
}

// dmlExecute runs INSERT/UPDATE/DELETE statements. The pipeline is fixed:
// classify, qualify, access check, confirmation gate, execute. The access
// check always runs before the gate, so a caller below the required level is
// denied even on an unconfirmed call.
func (r *Runner) dmlExecute(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		SQL       string `json:"sql"`
		Params    []any  `json:"params,omitempty"`
		Confirmed bool   `json:"confirmed,omitempty"`
		Schema    string `json:"schema,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	stmt := strings.TrimSpace(req.SQL)
	if stmt == "" {
		return nil, validationErrorf("sql is required")
	}
	if sqlscan.IsReadOnly(stmt) {
		return nil, validationErrorf("statement is read-only; use pg.query instead")
	}

	kind := sqlscan.ClassifyDML(stmt)
	required := requiredLevelFor(kind)
	if !r.level.Satisfies(required) {
		return nil, accessDeniedErrorf(
			"%s statements require access level %s, but this gateway is running at %s",
			strings.ToUpper(string(kind)), required, r.level,
		)
	}

	// Dangerousness is classified on the statement, not the operation:
	// a CASCADE clause elevates the preview severity here exactly as it
	// does for DDL.
	dangerous := sqlscan.IsDangerousDDL(stmt)
	qualified := sqlscan.Qualify(stmt, r.resolveSchema(req.Schema))

	if policy.PendingConfirmation(req.Confirmed) {
		preview := policy.Preview{
			SQL:       qualified,
			Params:    req.Params,
			Kind:      string(kind),
			Dangerous: dangerous,
		}
		r.logger.Info().
			Str("kind", string(kind)).
			Bool("dangerous", dangerous).
			Msg("dml awaiting confirmation")
		return preview.Payload(), nil
	}

	affected, err := r.db.Exec(ctx, qualified, req.Params...)
	if err != nil {
		return nil, mapExecutionError(err, "executing statement")
	}
	r.logger.Info().
		Str("kind", string(kind)).
		Bool("dangerous", dangerous).
		Int64("rows_affected", affected).
		Msg("dml executed")
	payload := executedPayload(qualified, string(kind), affected)
	if dangerous {
		payload["warning"] = "destructive statement executed; dropped objects cannot be recovered"
	}
	return payload, nil
}

// ddlExecute runs schema-changing statements. DDL always requires admin;
// dangerous statements (DROP/TRUNCATE/CASCADE) only change the preview
// severity and the post-execution warning, never the required level.
func (r *Runner) ddlExecute(ctx context.Context, args map[string]any) (map[string]any, error) {
	var req struct {
		SQL       string `json:"sql"`
		Confirmed bool   `json:"confirmed,omitempty"`
		Schema    string `json:"schema,omitempty"`
	}
	if err := decodeArgsStrict(args, &req); err != nil {
		return nil, err
	}
	stmt := strings.TrimSpace(req.SQL)
	if stmt == "" {
		return nil, validationErrorf("sql is required")
	}
	if sqlscan.IsReadOnly(stmt) {
		return nil, validationErrorf("statement is read-only; use pg.query instead")
	}

	if !r.level.Satisfies(policy.LevelAdmin) {
		return nil, accessDeniedErrorf(
			"DDL statements require access level %s, but this gateway is running at %s",
			policy.LevelAdmin, r.level,
		)
	}

	dangerous := sqlscan.IsDangerousDDL(stmt)
	qualified := sqlscan.Qualify(stmt, r.resolveSchema(req.Schema))

	if policy.PendingConfirmation(req.Confirmed) {
		preview := policy.Preview{
			SQL:       qualified,
			Kind:      "ddl",
			Dangerous: dangerous,
		}
		r.logger.Info().
			Bool("dangerous", dangerous).
			Msg("ddl awaiting confirmation")
		return preview.Payload(), nil
	}

	affected, err := r.db.Exec(ctx, qualified)
	if err != nil {
		return nil, mapExecutionError(err, "executing statement")
	}
	r.logger.Info().
		Bool("dangerous", dangerous).
		Msg("ddl executed")

	payload := executedPayload(qualified, "ddl", affected)
	if dangerous {
		payload["warning"] = "destructive statement executed; dropped objects cannot be recovered"
	}
	return payload, nil
}

func executedPayload(sql, kind string, affected int64) map[string]any {
	text := "Statement executed."
	if affected >= 0 {
		text = "Statement executed. Rows affected: " + strconv.FormatInt(affected, 10)
	}
	return map[string]any{
		"status":        "executed",
		"sql":           sql,
		"kind":          kind,
		"rows_affected": affected,
		"text":          text,
	}
}
