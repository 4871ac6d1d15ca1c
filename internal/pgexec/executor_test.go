package pgexec

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestWrapBackendError(t *testing.T) {
	t.Parallel()

	t.Run("pq error carries structured fields", func(t *testing.T) {
		t.Parallel()
		wrapped := wrapBackendError(&pq.Error{
			Message:  "syntax error at or near \"FORM\"",
			Detail:   "statement could not be parsed",
			Hint:     "did you mean FROM?",
			Code:     "42601",
			Position: "15",
		})

		var backendErr *BackendError
		require.ErrorAs(t, wrapped, &backendErr)
		require.Equal(t, "syntax error at or near \"FORM\"", backendErr.Message)
		require.Equal(t, "42601", backendErr.Code)
		require.Equal(t, "15", backendErr.Position)

		text := backendErr.Error()
		require.Contains(t, text, "Detail: statement could not be parsed")
		require.Contains(t, text, "Hint: did you mean FROM?")
		require.Contains(t, text, "Code: 42601")
		require.Contains(t, text, "Position: 15")
	})

	t.Run("wrapped pq error is unwrapped", func(t *testing.T) {
		t.Parallel()
		inner := &pq.Error{Message: "deadlock detected", Code: "40P01"}
		wrapped := wrapBackendError(fmt.Errorf("executing: %w", inner))

		var backendErr *BackendError
		require.ErrorAs(t, wrapped, &backendErr)
		require.Equal(t, "deadlock detected", backendErr.Message)
		require.Equal(t, "40P01", backendErr.Code)
	})

	t.Run("plain error keeps message only", func(t *testing.T) {
		t.Parallel()
		wrapped := wrapBackendError(errors.New("connection refused"))

		var backendErr *BackendError
		require.ErrorAs(t, wrapped, &backendErr)
		require.Equal(t, "connection refused", backendErr.Message)
		require.Equal(t, "connection refused", backendErr.Error())
	})

	t.Run("context errors keep their identity", func(t *testing.T) {
		t.Parallel()
		require.ErrorIs(t, wrapBackendError(context.DeadlineExceeded), context.DeadlineExceeded)
		require.ErrorIs(t, wrapBackendError(fmt.Errorf("querying: %w", context.Canceled)), context.Canceled)
	})
}

func TestNormalizeValue(t *testing.T) {
	t.Parallel()

	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	cases := []struct {
		name  string
		value any
		want  any
	}{
		{name: "nil stays nil", value: nil, want: nil},
		{name: "bytes become string", value: []byte("hello"), want: "hello"},
		{name: "time becomes rfc3339", value: ts, want: "2025-03-14T09:26:53Z"},
		{name: "string passes through", value: "x", want: "x"},
		{name: "int64 passes through", value: int64(42), want: int64(42)},
		{name: "float passes through", value: 1.5, want: 1.5},
		{name: "bool passes through", value: true, want: true},
		{name: "opaque is stringified", value: complex(1, 2), want: "(1+2i)"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, normalizeValue(tc.value))
		})
	}
}
