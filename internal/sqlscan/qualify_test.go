package sqlscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQualify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		sql    string
		schema string
		want   string
	}{
		{
			name:   "bare from reference",
			sql:    "SELECT * FROM users",
			schema: "s1",
			want:   "SELECT * FROM s1.users",
		},
		{
			name:   "already qualified is untouched",
			sql:    "SELECT * FROM public.users",
			schema: "s1",
			want:   "SELECT * FROM public.users",
		},
		{
			name:   "insert into",
			sql:    "INSERT INTO users (name) VALUES ('a')",
			schema: "s",
			want:   "INSERT INTO s.users (name) VALUES ('a')",
		},
		{
			name:   "update target",
			sql:    "UPDATE users SET x = 1 WHERE id = 2",
			schema: "app",
			want:   "UPDATE app.users SET x = 1 WHERE id = 2",
		},
		{
			name:   "join reference",
			sql:    "SELECT * FROM orders o JOIN customers c ON o.cid = c.id",
			schema: "shop",
			want:   "SELECT * FROM shop.orders o JOIN shop.customers c ON o.cid = c.id",
		},
		{
			name:   "reference terminated by comma",
			sql:    "SELECT * FROM users, accounts",
			schema: "s",
			want:   "SELECT * FROM s.users, accounts",
		},
		{
			name:   "reference terminated by semicolon",
			sql:    "DELETE FROM sessions;",
			schema: "auth",
			want:   "DELETE FROM auth.sessions;",
		},
		{
			name:   "reference terminated by closing paren",
			sql:    "SELECT 1 WHERE EXISTS (SELECT 1 FROM flags)",
			schema: "s",
			want:   "SELECT 1 WHERE EXISTS (SELECT 1 FROM s.flags)",
		},
		{
			name:   "function call is not a table reference",
			sql:    "SELECT * FROM generate_series(1, 10)",
			schema: "s",
			want:   "SELECT * FROM generate_series(1, 10)",
		},
		{
			name:   "excluded keyword select",
			sql:    "INSERT INTO snapshots SELECT * FROM events",
			schema: "s",
			want:   "INSERT INTO s.snapshots SELECT * FROM s.events",
		},
		{
			name:   "excluded keyword after into",
			sql:    "INSERT INTO VALUES (1)",
			schema: "s",
			want:   "INSERT INTO VALUES (1)",
		},
		{
			name:   "case insensitive keyword",
			sql:    "select * from users",
			schema: "s1",
			want:   "select * from s1.users",
		},
		{
			name:   "empty schema is a no-op",
			sql:    "SELECT * FROM users",
			schema: "",
			want:   "SELECT * FROM users",
		},
		{
			name:   "empty statement",
			sql:    "",
			schema: "s",
			want:   "",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Qualify(tc.sql, tc.schema)
			require.Equal(t, tc.want, got)
			require.Equal(t, got, Qualify(got, tc.schema), "Qualify must be idempotent")
		})
	}
}

func TestQualifyIdempotence(t *testing.T) {
	t.Parallel()

	statements := []string{
		"SELECT * FROM users",
		"SELECT * FROM a JOIN b ON a.id = b.id JOIN c ON b.id = c.id",
		"UPDATE users SET x = (SELECT max(y) FROM counters)",
		"INSERT INTO t (a) VALUES (1)",
		"DELETE FROM t WHERE id IN (SELECT id FROM old)",
	}

	for _, sql := range statements {
		once := Qualify(sql, "tenant")
		twice := Qualify(once, "tenant")
		require.Equal(t, once, twice, "statement: %s", sql)
	}
}
