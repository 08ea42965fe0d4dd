package scanner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect drains the scanner and returns the statement texts.
func collect(t *testing.T, input string) []string {
	t.Helper()

	sc := New([]byte(input))

	var out []string
	for sc.Scan() {
		st := sc.Statement()
		out = append(out, input[st.Start:st.End])
	}

	require.NoError(t, sc.Err())

	return out
}

func TestScanner_Statements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "three statements",
			input: "SELECT 1; SELECT 2; SELECT 3;",
			want:  []string{"SELECT 1;", " SELECT 2;", " SELECT 3;"},
		},
		{
			name:  "semicolon inside single-quoted string",
			input: "INSERT INTO t VALUES ('a;b');",
			want:  []string{"INSERT INTO t VALUES ('a;b');"},
		},
		{
			name:  "doubled quote is an escape",
			input: "SELECT 'it''s';",
			want:  []string{"SELECT 'it''s';"},
		},
		{
			name:  "semicolon inside quoted identifier",
			input: `SELECT "a;b" FROM t;`,
			want:  []string{`SELECT "a;b" FROM t;`},
		},
		{
			name:  "doubled double quote inside identifier",
			input: `SELECT "we""ird;" FROM t;`,
			want:  []string{`SELECT "we""ird;" FROM t;`},
		},
		{
			name:  "semicolon inside line comment",
			input: "SELECT 1 -- not a boundary ;\n+ 2;",
			want:  []string{"SELECT 1 -- not a boundary ;\n+ 2;"},
		},
		{
			name:  "semicolon inside block comment",
			input: "SELECT /* drop; everything; */ 1;",
			want:  []string{"SELECT /* drop; everything; */ 1;"},
		},
		{
			name:  "dollar-quoted body with tag",
			input: "CREATE FUNCTION f() AS $fn$ BEGIN RETURN 1; END $fn$;",
			want:  []string{"CREATE FUNCTION f() AS $fn$ BEGIN RETURN 1; END $fn$;"},
		},
		{
			name:  "dollar-quoted body with empty tag",
			input: "SELECT $$a;b$$;",
			want:  []string{"SELECT $$a;b$$;"},
		},
		{
			name:  "nested-looking dollar tags",
			input: "SELECT $out$ $in$ ; $out$;",
			want:  []string{"SELECT $out$ $in$ ; $out$;"},
		},
		{
			name:  "positional parameters are not dollar quotes",
			input: "SELECT $1 FROM t WHERE a = $2;SELECT 2;",
			want:  []string{"SELECT $1 FROM t WHERE a = $2;", "SELECT 2;"},
		},
		{
			name:  "trailing statement without terminator",
			input: "SELECT 1; SELECT 2",
			want:  []string{"SELECT 1;", " SELECT 2"},
		},
		{
			name:  "leading comments attach to following statement",
			input: "-- header\nSELECT 1;\n/* note */\nSELECT 2;",
			want:  []string{"-- header\nSELECT 1;", "\n/* note */\nSELECT 2;"},
		},
		{
			name:  "multi-byte content passes through",
			input: "INSERT INTO t VALUES ('héllo; wörld');INSERT INTO t VALUES ('日本語;');",
			want:  []string{"INSERT INTO t VALUES ('héllo; wörld');", "INSERT INTO t VALUES ('日本語;');"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "whitespace only",
			input: "  \n\t  ",
			want:  nil,
		},
		{
			name:  "comment only",
			input: "-- nothing here\n/* really */",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, collect(t, tt.input))
		})
	}
}

func TestScanner_SpansAreContiguous(t *testing.T) {
	t.Parallel()

	input := "-- lead\nSELECT 'a;b';  /* gap */ SELECT $$x$$; SELECT 3"
	sc := New([]byte(input))

	prevEnd := 0

	for sc.Scan() {
		st := sc.Statement()
		assert.Equal(t, prevEnd, st.Start)
		assert.Greater(t, st.End, st.Start)
		prevEnd = st.End
	}

	require.NoError(t, sc.Err())
	assert.Equal(t, len(input), prevEnd)
	assert.True(t, sc.Remainder().IsZero())
}

func TestScanner_RemainderHoldsBlankTail(t *testing.T) {
	t.Parallel()

	input := "SELECT 1;\n-- trailing note\n  "
	sc := New([]byte(input))

	require.True(t, sc.Scan())
	st := sc.Statement()
	assert.Equal(t, "SELECT 1;", input[st.Start:st.End])

	require.False(t, sc.Scan())
	require.NoError(t, sc.Err())

	rem := sc.Remainder()
	assert.Equal(t, "\n-- trailing note\n  ", input[rem.Start:rem.End])
}

func TestScanner_Unterminated(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		construct string
		offset    int
	}{
		{
			name:      "single quote",
			input:     "SELECT 'unterminated",
			construct: "single-quoted string",
			offset:    7,
		},
		{
			name:      "double quote",
			input:     `SELECT "col`,
			construct: "quoted identifier",
			offset:    7,
		},
		{
			name:      "block comment",
			input:     "SELECT 1 /* never closed",
			construct: "block comment",
			offset:    9,
		},
		{
			name:      "dollar quote",
			input:     "SELECT $fn$ body without close",
			construct: "dollar-quoted string",
			offset:    7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			sc := New([]byte(tt.input))
			for sc.Scan() { //nolint:revive // drain
			}

			err := sc.Err()
			require.ErrorIs(t, err, ErrUnterminatedLiteral)

			var uerr *UnterminatedError
			require.ErrorAs(t, err, &uerr)
			assert.Equal(t, tt.construct, uerr.Construct)
			assert.Equal(t, tt.offset, uerr.Offset)
		})
	}
}

func TestScanner_LineCommentClosedByEOF(t *testing.T) {
	t.Parallel()

	// A line comment at EOF is fine; only quoted constructs must close.
	sc := New([]byte("SELECT 1; -- done"))

	require.True(t, sc.Scan())
	require.False(t, sc.Scan())
	require.NoError(t, sc.Err())

	rem := sc.Remainder()
	assert.Equal(t, 9, rem.Start)
	assert.Equal(t, 17, rem.End)
}

func TestScanner_EarlierStatementsSurviveLexError(t *testing.T) {
	t.Parallel()

	input := "SELECT 1; SELECT 'oops"
	sc := New([]byte(input))

	require.True(t, sc.Scan())
	st := sc.Statement()
	assert.Equal(t, "SELECT 1;", input[st.Start:st.End])

	require.False(t, sc.Scan())
	require.ErrorIs(t, sc.Err(), ErrUnterminatedLiteral)
}

func TestScanner_CoverageReconstruction(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"-- schema",
		"CREATE TABLE t (id INT);",
		"INSERT INTO t VALUES (1); INSERT INTO t VALUES (2);",
		"CREATE FUNCTION f() AS $body$ SELECT 'a;''b'; $body$ LANGUAGE sql;",
		"/* fin */",
		"",
	}, "\n")

	sc := New([]byte(input))

	var rebuilt strings.Builder
	for sc.Scan() {
		st := sc.Statement()
		rebuilt.WriteString(input[st.Start:st.End])
	}

	require.NoError(t, sc.Err())

	rem := sc.Remainder()
	rebuilt.WriteString(input[rem.Start:rem.End])

	assert.Equal(t, input, rebuilt.String())
}
