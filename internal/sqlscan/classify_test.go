package sqlscan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsReadOnly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		sql  string
		want bool
	}{
		{name: "select", sql: "SELECT * FROM users", want: true},
		{name: "lowercase select", sql: "select 1", want: true},
		{name: "leading whitespace", sql: "   \n\tSELECT 1", want: true},
		{name: "cte", sql: "WITH t AS (SELECT 1) SELECT * FROM t", want: true},
		{name: "explain", sql: "EXPLAIN SELECT 1", want: true},
		{name: "show", sql: "SHOW search_path", want: true},
		{name: "psql describe", sql: `\d users`, want: true},
		{name: "psql describe tables", sql: `\dt`, want: true},
		{name: "insert", sql: "INSERT INTO t VALUES (1)", want: false},
		{name: "update", sql: "UPDATE t SET x = 1", want: false},
		{name: "delete", sql: "DELETE FROM t", want: false},
		{name: "ddl", sql: "CREATE TABLE t (id int)", want: false},
		{name: "empty", sql: "", want: false},
		{name: "whitespace only", sql: "  \n ", want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, IsReadOnly(tc.sql))
		})
	}
}

func TestClassifyDML(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		sql  string
		want Kind
	}{
		{name: "insert", sql: "INSERT INTO users (name) VALUES ('a')", want: KindInsert},
		{name: "insert lowercase", sql: "insert into users values (1)", want: KindInsert},
		{name: "update", sql: "UPDATE users SET x = 1", want: KindUpdate},
		{name: "delete", sql: "DELETE FROM users WHERE id = 1", want: KindDelete},
		{name: "leading whitespace", sql: "\n  DELETE FROM t", want: KindDelete},
		{name: "select is other", sql: "SELECT 1", want: KindOtherDML},
		{name: "merge is other", sql: "MERGE INTO t USING s ON true", want: KindOtherDML},
		{name: "prefix is not keyword", sql: "INSERTX INTO t", want: KindOtherDML},
		{name: "empty", sql: "", want: KindOtherDML},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ClassifyDML(tc.sql))
		})
	}
}

func TestIsDangerousDDL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		sql  string
		want bool
	}{
		{name: "drop table", sql: "DROP TABLE users", want: true},
		{name: "drop lowercase", sql: "drop schema app", want: true},
		{name: "truncate", sql: "TRUNCATE audit_log", want: true},
		{name: "cascade clause in alter", sql: "ALTER TABLE t DROP COLUMN c CASCADE", want: true},
		{name: "cascade anywhere counts", sql: "SELECT 'CASCADE'", want: true},
		{name: "create table", sql: "CREATE TABLE t (id int)", want: false},
		{name: "alter without cascade", sql: "ALTER TABLE t ADD COLUMN c int", want: false},
		{name: "empty", sql: "", want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, IsDangerousDDL(tc.sql))
		})
	}
}
