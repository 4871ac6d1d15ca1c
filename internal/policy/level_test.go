package policy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAccessLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		value   string
		want    AccessLevel
		wantErr bool
	}{
		{name: "readonly", value: "readonly", want: LevelReadOnly},
		{name: "readwrite", value: "readwrite", want: LevelReadWrite},
		{name: "full", value: "full", want: LevelFull},
		{name: "admin", value: "admin", want: LevelAdmin},
		{name: "case insensitive", value: "ReadWrite", want: LevelReadWrite},
		{name: "surrounding whitespace", value: "  admin ", want: LevelAdmin},
		{name: "invalid falls back to readonly", value: "superuser", want: LevelReadOnly, wantErr: true},
		{name: "empty falls back to readonly", value: "", want: LevelReadOnly, wantErr: true},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			level, err := ParseAccessLevel(tc.value)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			require.Equal(t, tc.want, level)
		})
	}
}

func TestAccessLevelSatisfies(t *testing.T) {
	t.Parallel()

	levels := []AccessLevel{LevelReadOnly, LevelReadWrite, LevelFull, LevelAdmin}

	// Monotonicity: if a level satisfies a requirement, every higher level
	// satisfies it too.
	for _, required := range levels {
		for i, lower := range levels {
			for _, higher := range levels[i:] {
				if lower.Satisfies(required) {
					require.True(t, higher.Satisfies(required),
						"%s satisfies %s but %s does not", lower, required, higher)
				}
			}
		}
	}

	require.True(t, LevelAdmin.Satisfies(LevelReadOnly))
	require.True(t, LevelReadWrite.Satisfies(LevelReadWrite))
	require.False(t, LevelReadWrite.Satisfies(LevelFull))
	require.False(t, LevelReadOnly.Satisfies(LevelAdmin))
}

func TestGuardAuthorize(t *testing.T) {
	t.Parallel()

	guard := NewGuard(LevelReadWrite)
	require.NoError(t, guard.Authorize("pg.query", LevelReadOnly))
	require.NoError(t, guard.Authorize("pg.dml.execute", LevelReadWrite))

	err := guard.Authorize("pg.ddl.execute", LevelAdmin)
	require.Error(t, err)
	require.Contains(t, err.Error(), "admin")
	require.Contains(t, err.Error(), "readwrite")
	require.Contains(t, err.Error(), "pg.ddl.execute")

	var nilGuard *Guard
	require.Equal(t, LevelReadOnly, nilGuard.Level())
	require.Error(t, nilGuard.Authorize("pg.dml.execute", LevelReadWrite))
}
