package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/internal/codec"
	"github.com/mesh-intelligence/pantry/internal/frame"
	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/internal/summary"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

func functionsTable(t *testing.T, n int) *types.Table {
	t.Helper()
	vals := make([]any, n)
	for i := range vals {
		vals[i] = fmt.Sprintf("GO:%07d", i+1)
	}
	tbl, err := types.NewTableFromColumns([]string{"functions"}, map[string][]any{"functions": vals})
	require.NoError(t, err)
	return tbl
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func writeMsgpack(t *testing.T, d types.Dataset) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, codec.WriteArray(&buf, d))
	return writeFile(t, "data.msgpack", buf.Bytes())
}

func writePickle(t *testing.T, d types.Dataset) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, codec.WriteDataset(&buf, d))
	return writeFile(t, "bp.pkl", buf.Bytes())
}

func writeCSV(t *testing.T, tbl *types.Table) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, frame.WriteCSV(&buf, tbl, ','))
	return writeFile(t, "mf.csv", buf.Bytes())
}

// fixed returns a strategy yielding a constant result and counting calls.
func fixed(name types.StrategyName, d types.Dataset, err error, calls *int) Strategy {
	return Strategy{Name: name, Decode: func(string) (types.Dataset, error) {
		*calls++
		return d, err
	}}
}

func TestLoadPickledTableScenario(t *testing.T) {
	path := filepath.Join("testdata", "bp.pkl")

	res := New().Load(path, "Biological Process annotations")

	require.True(t, res.OK(), "diagnostics: %v", res.Diagnostics())
	assert.Equal(t, types.StrategyGenericObject, res.Strategy())
	assert.Len(t, res.Attempts(), 2)
	assert.Len(t, res.Failures(), 1)
	assert.Equal(t, types.CauseNone, res.Cause())

	s := summary.Describe(res.Data(), "functions", 3)
	assert.Equal(t, 500, s.Length)
	assert.Contains(t, s.Columns, "functions")
	assert.Equal(t, []any{"GO:0000001", "GO:0000002", "GO:0000003"}, s.Sample)
}

func TestLoadEveryWriterFormat(t *testing.T) {
	tbl := functionsTable(t, 25)
	dir := t.TempDir()

	jsonlPath := filepath.Join(dir, "bp.jsonl")
	require.NoError(t, frame.WriteJSONL(jsonlPath, tbl))
	sqlitePath := filepath.Join(dir, "bp.db")
	require.NoError(t, frame.WriteSQLite(sqlitePath, tbl, ""))

	tests := []struct {
		name     string
		path     string
		strategy types.StrategyName
	}{
		{"msgpack", writeMsgpack(t, tbl), types.StrategyRawArray},
		{"pickle", writePickle(t, tbl), types.StrategyGenericObject},
		{"csv", writeCSV(t, tbl), types.StrategyTabular},
		{"jsonl", jsonlPath, types.StrategyTabular},
		{"sqlite", sqlitePath, types.StrategyTabular},
		{"yaml", writeFile(t, "bp.yaml", []byte("functions: [GO:1, GO:2, GO:3]\n")), types.StrategyTabular},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New().Load(tt.path, tt.name)
			require.True(t, res.OK(), "diagnostics: %v", res.Diagnostics())
			assert.Equal(t, tt.strategy, res.Strategy())
			if tt.name == "yaml" {
				assert.Equal(t, 3, res.Len())
			} else {
				assert.Equal(t, tbl.Len(), res.Len())
			}
		})
	}
}

func TestLoadTabularAfterTwoFailures(t *testing.T) {
	path := writeCSV(t, functionsTable(t, 10))

	res := New().Load(path, "Molecular Function annotations")

	require.True(t, res.OK())
	assert.Equal(t, types.StrategyTabular, res.Strategy())
	attempts := res.Attempts()
	require.Len(t, attempts, 3)
	assert.Equal(t, types.StrategyRawArray, attempts[0].Strategy)
	assert.False(t, attempts[0].Succeeded())
	assert.Equal(t, types.StrategyGenericObject, attempts[1].Strategy)
	assert.False(t, attempts[1].Succeeded())
	assert.True(t, attempts[2].Succeeded())
	assert.Len(t, res.Diagnostics(), 2)
}

func TestLoadNonexistentPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cc.pkl")
	var out bytes.Buffer
	ld := New(WithLogger(logging.NewConsoleLogger(&out, false, false)))

	res := ld.Load(path, "Cellular Component annotations")

	assert.False(t, res.OK())
	assert.Nil(t, res.Data())
	assert.Zero(t, res.Len())
	assert.Equal(t, types.CauseMissing, res.Cause())

	diags := res.Diagnostics()
	require.Len(t, diags, 3)
	for i, d := range diags {
		assert.True(t, strings.HasPrefix(d, "open "), "diagnostic %d: %q", i, d)
		assert.LessOrEqual(t, len([]rune(d)), DefaultPreviewLength)
	}
	for _, a := range res.Attempts() {
		assert.ErrorIs(t, a.Err, fs.ErrNotExist)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "Loading Cellular Component annotations...", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  raw-array failed: open "))
	assert.True(t, strings.HasPrefix(lines[2], "  generic-object failed: open "))
	assert.True(t, strings.HasPrefix(lines[3], "  tabular failed: open "))
	assert.Equal(t, "✗ Failed to load "+path, lines[4])
}

func TestLoadMissingFastPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cc.pkl")
	var calls int
	ld := New(
		WithMissingFastPath(true),
		WithStrategies(
			fixed(types.StrategyRawArray, types.NewScalar(1), nil, &calls),
			fixed(types.StrategyGenericObject, types.NewScalar(1), nil, &calls),
			fixed(types.StrategyTabular, types.NewScalar(1), nil, &calls),
		),
	)

	res := ld.Load(path, "cc")

	assert.False(t, res.OK())
	assert.Zero(t, calls)
	assert.Equal(t, types.CauseMissing, res.Cause())
	diags := res.Diagnostics()
	require.Len(t, diags, 3)
	for _, d := range diags {
		assert.True(t, strings.HasPrefix(d, "stat "), d)
	}

	// An existing file still goes through the strategies.
	existing := writeFile(t, "x", []byte("x"))
	res = ld.Load(existing, "x")
	assert.True(t, res.OK())
	assert.Equal(t, 1, calls)
}

func TestLoadUnparseableFiles(t *testing.T) {
	var full bytes.Buffer
	require.NoError(t, codec.WriteArray(&full, functionsTable(t, 500)))

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated msgpack", full.Bytes()[:full.Len()/2]},
		{"binary noise", []byte{0xc1, 0x00, 0xff, 0xfe, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "bad.pkl", tt.data)
			var res *types.LoadResult
			require.NotPanics(t, func() { res = New().Load(path, tt.name) })
			assert.False(t, res.OK())
			assert.Equal(t, types.CauseCorrupt, res.Cause())

			attempts := res.Attempts()
			require.Len(t, attempts, 3)
			assert.Equal(t,
				[]types.StrategyName{types.StrategyRawArray, types.StrategyGenericObject, types.StrategyTabular},
				[]types.StrategyName{attempts[0].Strategy, attempts[1].Strategy, attempts[2].Strategy})
			assert.Len(t, res.Diagnostics(), 3)
		})
	}
}

func TestLoadRejectsTextThatIsNotATable(t *testing.T) {
	var jsonl strings.Builder
	for i := range 500 {
		fmt.Fprintf(&jsonl, "{\"functions\":\"GO:%07d\"}\n", i+1)
	}
	full := jsonl.String()

	tests := []struct {
		name string
		file string
		data string
	}{
		{"python traceback", "cc.pkl", "Traceback (most recent call last):\n  File \"load.py\", line 3, in <module>\nEOFError: Ran out of input\n"},
		{"prose with a comma", "cc.pkl", "Hello, world.\nThis file is a note.\n"},
		{"truncated jsonl", "bp.pkl", full[:len(full)/2+7]},
		{"truncated json array", "bp.json", `[{"functions":"GO:1"},{"functions":"GO`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, []byte(tt.data))
			res := New().Load(path, tt.name)
			assert.False(t, res.OK(), "loaded %d items with %s", res.Len(), res.Strategy())
			assert.Len(t, res.Failures(), 3)
			assert.Len(t, res.Diagnostics(), 3)
		})
	}
}

func TestLoadResultNestedValuesAreCopied(t *testing.T) {
	tbl, err := types.NewTable([]string{"vec"}, []types.Record{{"vec": []any{int64(1), int64(2)}}})
	require.NoError(t, err)

	res := New().Load(writeMsgpack(t, tbl), "vectors")
	require.True(t, res.OK(), "diagnostics: %v", res.Diagnostics())

	loaded := res.Data().(*types.Table)
	row, err := loaded.Row(0)
	require.NoError(t, err)
	row["vec"].([]any)[0] = "MUTATED"

	again, err := res.Data().(*types.Table).Row(0)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, again["vec"])
}

func TestLoadStopsAtFirstSuccess(t *testing.T) {
	var first, second, third int
	ld := New(WithStrategies(
		fixed("a", nil, errors.New("nope"), &first),
		fixed("b", types.NewSequence([]any{1, 2}), nil, &second),
		fixed("c", types.NewScalar(3), nil, &third),
	))

	res := ld.Load("ignored", "order")

	require.True(t, res.OK())
	assert.Equal(t, types.StrategyName("b"), res.Strategy())
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Zero(t, third)
	assert.Equal(t, 2, res.Len())
}

func TestLoadRecoversPanic(t *testing.T) {
	var calls int
	ld := New(WithStrategies(
		Strategy{Name: "boom", Decode: func(string) (types.Dataset, error) {
			var m map[string]int
			m["x"] = 1
			return nil, nil
		}},
		fixed("ok", types.NewScalar("v"), nil, &calls),
	))

	var res *types.LoadResult
	require.NotPanics(t, func() { res = ld.Load("ignored", "panic") })
	require.True(t, res.OK())
	failures := res.Failures()
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, types.ErrStrategyPanic)
	assert.Contains(t, failures[0].Diagnostic, "strategy panicked")
}

func TestLoadNilDataIsFailure(t *testing.T) {
	var calls int
	ld := New(WithStrategies(fixed("empty", nil, nil, &calls)))

	res := ld.Load("ignored", "nil")

	assert.False(t, res.OK())
	require.Len(t, res.Failures(), 1)
	assert.ErrorIs(t, res.Failures()[0].Err, errNoData)
}

func TestLoadIdempotent(t *testing.T) {
	path := writeCSV(t, functionsTable(t, 40))
	ld := New()

	a := ld.Load(path, "first")
	b := ld.Load(path, "second")

	require.True(t, a.OK())
	require.True(t, b.OK())
	assert.Equal(t, a.Strategy(), b.Strategy())
	assert.True(t, a.Data().(*types.Table).Equal(b.Data().(*types.Table)))
}

func TestLoadResultIsImmutable(t *testing.T) {
	path := writeCSV(t, functionsTable(t, 3))
	res := New().Load(path, "immutable")
	require.True(t, res.OK())

	attempts := res.Attempts()
	attempts[0].Diagnostic = "changed"
	assert.NotEqual(t, "changed", res.Attempts()[0].Diagnostic)

	tbl := res.Data().(*types.Table)
	row, err := tbl.Row(0)
	require.NoError(t, err)
	row["functions"] = "changed"
	again, _ := tbl.Row(0)
	assert.Equal(t, "GO:0000001", again["functions"])
}

func TestPreviewLength(t *testing.T) {
	long := errors.New(strings.Repeat("abcdefghij", 10))
	var calls int

	res := New(WithStrategies(fixed("x", nil, long, &calls))).Load("p", "d")
	require.Len(t, res.Diagnostics(), 1)
	assert.Equal(t, strings.Repeat("abcdefghij", 5), res.Diagnostics()[0])
	assert.Equal(t, long, res.Failures()[0].Err)

	res = New(WithPreviewLength(10), WithStrategies(fixed("x", nil, long, &calls))).Load("p", "d")
	assert.Equal(t, "abcdefghij", res.Diagnostics()[0])

	res = New(WithPreviewLength(0), WithStrategies(fixed("x", nil, long, &calls))).Load("p", "d")
	assert.Len(t, res.Diagnostics()[0], DefaultPreviewLength)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 50))
	assert.Equal(t, "line one line two", Truncate("line one\nline two", 50))
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "", Truncate("", 5))
}

func TestClassify(t *testing.T) {
	notExist := &fs.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}
	denied := &fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}
	corrupt := types.ErrNotTabular

	tests := []struct {
		name string
		errs []error
		want types.Cause
	}{
		{"all missing", []error{notExist, notExist, notExist}, types.CauseMissing},
		{"all denied", []error{denied, denied, denied}, types.CauseUnreadable},
		{"mixed fs errors", []error{notExist, denied, denied}, types.CauseUnreadable},
		{"decode errors", []error{corrupt, corrupt, corrupt}, types.CauseCorrupt},
		{"one decode error", []error{denied, denied, corrupt}, types.CauseCorrupt},
		{"no attempts", nil, types.CauseCorrupt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := make([]types.Attempt, len(tt.errs))
			for i, err := range tt.errs {
				attempts[i] = types.Attempt{Strategy: "s", Err: err}
			}
			assert.Equal(t, tt.want, Classify(attempts))
		})
	}
}

func TestStrategies(t *testing.T) {
	assert.Equal(t,
		[]types.StrategyName{types.StrategyRawArray, types.StrategyGenericObject, types.StrategyTabular},
		New().Strategies())
}
