// Package pgexec executes SQL against the PostgreSQL backend and maps
// driver failures into structured backend errors.
package pgexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

const connectTimeout = 10 * time.Second

// RowSet is the result of a row-returning statement. Row values are
// normalized to JSON-friendly types: string, float64/int64, bool or nil.
type RowSet struct {
	Columns []string
	Rows    []map[string]any
}

// Client is the executor surface the tool layer depends on. Each call is a
// single acquire-use-release cycle against the connection pool.
type Client interface {
	Query(ctx context.Context, statement string, params ...any) (*RowSet, error)
	Exec(ctx context.Context, statement string, params ...any) (int64, error)
}

// DB is a Client backed by a pooled *sql.DB.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// Open connects to the backend and verifies connectivity. A failed initial
// ping is the only fatal path in the process; per-call failures afterwards
// are surfaced to callers instead.
func Open(ctx context.Context, dsn string, logger zerolog.Logger) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &DB{
		db:     db,
		logger: logger.With().Str("component", "pgexec").Logger(),
	}, nil
}

// Close releases the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks backend connectivity.
func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Query runs a row-returning statement.
func (d *DB) Query(ctx context.Context, statement string, params ...any) (*RowSet, error) {
	started := time.Now()
	rows, err := d.db.QueryContext(ctx, statement, params...)
	if err != nil {
		return nil, wrapBackendError(err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			d.logger.Warn().Err(closeErr).Msg("closing result rows")
		}
	}()

	result, err := collectRows(rows)
	if err != nil {
		return nil, wrapBackendError(err)
	}
	d.logger.Debug().
		Int("rows", len(result.Rows)).
		Dur("elapsed", time.Since(started)).
		Msg("query executed")
	return result, nil
}

// Exec runs a statement that returns no rows and reports the affected-row
// count. Statements without a meaningful count (most DDL) report zero.
func (d *DB) Exec(ctx context.Context, statement string, params ...any) (int64, error) {
	started := time.Now()
	res, err := d.db.ExecContext(ctx, statement, params...)
	if err != nil {
		return 0, wrapBackendError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Drivers may not report a count for DDL.
		affected = 0
	}
	d.logger.Debug().
		Int64("rows_affected", affected).
		Dur("elapsed", time.Since(started)).
		Msg("statement executed")
	return affected, nil
}

func collectRows(rows *sql.Rows) (*RowSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &RowSet{Columns: columns}
	values := make([]any, len(columns))
	scanArgs := make([]any, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(columns))
		for i, column := range columns {
			row[column] = normalizeValue(values[i])
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// normalizeValue maps driver values onto the closed variant type the
// formatter understands: text, number, boolean or null. Byte slices become
// strings, timestamps become RFC 3339 text, anything opaque is stringified.
func normalizeValue(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case string, bool, int64, float64:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

// BackendError carries the structured failure fields reported by the
// backend. Only Message is always present.
type BackendError struct {
	Message  string
	Detail   string
	Hint     string
	Code     string
	Position string
}

// Error renders the message plus each optional field on its own line.
func (e *BackendError) Error() string {
	out := e.Message
	if e.Detail != "" {
		out += "\nDetail: " + e.Detail
	}
	if e.Hint != "" {
		out += "\nHint: " + e.Hint
	}
	if e.Code != "" {
		out += "\nCode: " + e.Code
	}
	if e.Position != "" {
		out += "\nPosition: " + e.Position
	}
	return out
}

func wrapBackendError(err error) error {
	// Context expiry and cancellation are caller conditions, not backend
	// failures; they keep their identity for status mapping.
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &BackendError{
			Message:  pqErr.Message,
			Detail:   pqErr.Detail,
			Hint:     pqErr.Hint,
			Code:     string(pqErr.Code),
			Position: pqErr.Position,
		}
	}
	return &BackendError{Message: err.Error()}
}
