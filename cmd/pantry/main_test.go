package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/internal/codec"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// clearPantryEnv unsets PANTRY_* variables for the duration of the test.
func clearPantryEnv(t *testing.T) {
	t.Helper()
	for _, e := range os.Environ() {
		key, _, _ := strings.Cut(e, "=")
		if strings.HasPrefix(key, "PANTRY_") {
			val := os.Getenv(key)
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, val) })
		}
	}
}

// runPantry executes the root command in-process with an isolated config
// directory and returns everything written to stdout and stderr.
func runPantry(t *testing.T, configDir string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", configDir, "--color", "off"}, args...))
	err := root.Execute()
	return out.String(), err
}

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

func writePickleFixture(t *testing.T, path string, n int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var buf bytes.Buffer
	require.NoError(t, codec.WriteDataset(&buf, functionsTable(t, n)))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestVersion(t *testing.T) {
	clearPantryEnv(t)
	configDir := filepath.Join(t.TempDir(), "cfg")

	out, err := runPantry(t, configDir, "version")
	require.NoError(t, err)
	assert.Equal(t, "pantry v"+Version+"\nmodule: "+modulePath+"\n", out)

	_, err = os.Stat(configDir)
	assert.True(t, os.IsNotExist(err), "version does not create the config directory")
}

func TestFirstRunWritesDefaultConfig(t *testing.T) {
	clearPantryEnv(t)
	configDir := filepath.Join(t.TempDir(), "cfg")
	path := filepath.Join(t.TempDir(), "cc.pkl")

	_, err := runPantry(t, configDir, "load", path)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(configDir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfigYAML, string(data))
}

func TestLoadSummarizes(t *testing.T) {
	clearPantryEnv(t)
	path := filepath.Join(t.TempDir(), "bp.pkl")
	writePickleFixture(t, path, 500)

	out, err := runPantry(t, t.TempDir(), "load", path, "--description", "Biological Process annotations")
	require.NoError(t, err)

	assert.Contains(t, out, "Loading Biological Process annotations...\n")
	assert.Contains(t, out, "  raw-array failed: ")
	assert.Contains(t, out, "✓ Successfully loaded "+path+" with generic-object\n")
	assert.Contains(t, out, "Shape: (500, 1)")
	assert.Contains(t, out, "Sample functions (first 3):\n  1. GO:0000001\n  2. GO:0000002\n  3. GO:0000003\n")
}

func TestLoadFlagsOverrideConfig(t *testing.T) {
	clearPantryEnv(t)
	path := filepath.Join(t.TempDir(), "bp.pkl")
	writePickleFixture(t, path, 10)

	out, err := runPantry(t, t.TempDir(), "load", path, "--sample", "5", "--field", "functions")
	require.NoError(t, err)
	assert.Contains(t, out, "Sample functions (first 5):")
	assert.Contains(t, out, "--- "+path+" Analysis ---")
}

func TestLoadMissingFile(t *testing.T) {
	clearPantryEnv(t)
	path := filepath.Join(t.TempDir(), "cc.pkl")

	out, err := runPantry(t, t.TempDir(), "load", path, "-d", "Cellular Component annotations")
	require.NoError(t, err, "total failure is not an error without --strict")

	assert.Equal(t, 3, strings.Count(out, " failed: open "))
	assert.Contains(t, out, "✗ Failed to load "+path)

	_, err = runPantry(t, t.TempDir(), "load", path, "--strict")
	require.ErrorIs(t, err, errLoadFailed)
	assert.Contains(t, err.Error(), "missing")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestEnvironmentOverridesConfig(t *testing.T) {
	clearPantryEnv(t)
	path := filepath.Join(t.TempDir(), "cc.pkl")
	t.Setenv("PANTRY_PREVIEW_LENGTH", "10")

	out, err := runPantry(t, t.TempDir(), "load", path)
	require.NoError(t, err)
	want := ("open " + path)[:10]
	assert.Contains(t, out, "  raw-array failed: "+want+"...\n")
}

func TestEnvFileFlag(t *testing.T) {
	clearPantryEnv(t)
	t.Cleanup(func() { os.Unsetenv("PANTRY_SAMPLE_SIZE") })

	dir := t.TempDir()
	envFile := filepath.Join(dir, "pantry.env")
	require.NoError(t, os.WriteFile(envFile, []byte("PANTRY_SAMPLE_SIZE=2\n"), 0o644))
	path := filepath.Join(dir, "bp.pkl")
	writePickleFixture(t, path, 10)

	out, err := runPantry(t, t.TempDir(), "--env-file", envFile, "load", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Sample functions (first 2):")

	_, err = runPantry(t, t.TempDir(), "--env-file", filepath.Join(dir, "missing.env"), "load", path)
	require.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	clearPantryEnv(t)
	configDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("preview_length: 0\n"), 0o644))

	_, err := runPantry(t, configDir, "load", "x")
	require.ErrorIs(t, err, types.ErrPreviewLengthInvalid)

	_, err = runPantry(t, t.TempDir(), "--color", "sometimes", "load", "x")
	require.ErrorIs(t, err, types.ErrColorModeUnknown)
}

func TestBatchManifest(t *testing.T) {
	clearPantryEnv(t)
	dataDir := t.TempDir()
	writePickleFixture(t, filepath.Join(dataDir, "deepgo", "bp.pkl"), 500)
	manifestPath := filepath.Join(t.TempDir(), "files.toml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(`
[[file]]
path = "deepgo/bp.pkl"
description = "Biological Process annotations"

[[file]]
path = "deepgo/cc.pkl"
description = "Cellular Component annotations"
`), 0o644))

	out, err := runPantry(t, t.TempDir(), "--data-dir", dataDir, "batch", manifestPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully loaded 1 out of 2 files")
	assert.Contains(t, out, "Available data: [bp]")
	assert.Contains(t, out, "  bp: 500 items")

	_, err = runPantry(t, t.TempDir(), "--data-dir", dataDir, "batch", "--strict", manifestPath)
	require.ErrorIs(t, err, errLoadFailed)
}

func TestBatchDefaultManifest(t *testing.T) {
	clearPantryEnv(t)
	dataDir := t.TempDir()
	writePickleFixture(t, filepath.Join(dataDir, "deepgo", "bp.pkl"), 7)
	writePickleFixture(t, filepath.Join(dataDir, "deepgo", "mf.pkl"), 3)

	out, err := runPantry(t, t.TempDir(), "--data-dir", dataDir, "batch")
	require.NoError(t, err)
	assert.Contains(t, out, "Successfully loaded 2 out of 3 files")
	assert.Contains(t, out, "Total items across all categories: 10")
}

func TestBatchInvalidManifest(t *testing.T) {
	clearPantryEnv(t)
	manifestPath := filepath.Join(t.TempDir(), "files.ini")
	require.NoError(t, os.WriteFile(manifestPath, []byte("x"), 0o644))

	_, err := runPantry(t, t.TempDir(), "batch", manifestPath)
	require.ErrorIs(t, err, types.ErrManifestInvalid)
}

func TestExportRoundTrip(t *testing.T) {
	clearPantryEnv(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "bp.pkl")
	writePickleFixture(t, src, 20)

	tests := []struct {
		dst      string
		args     []string
		strategy string
	}{
		{dst: "bp.msgpack", strategy: "raw-array"},
		{dst: "bp.pickle", strategy: "generic-object"},
		{dst: "bp.jsonl", strategy: "tabular"},
		{dst: "bp.csv", strategy: "tabular"},
		{dst: "bp.tsv", strategy: "tabular"},
		{dst: "bp.db", strategy: "tabular"},
		{dst: "bp.out", args: []string{"--format", "jsonl"}, strategy: "tabular"},
	}
	for _, tt := range tests {
		t.Run(tt.dst, func(t *testing.T) {
			dst := filepath.Join(dir, tt.dst)
			args := append([]string{"export", src, dst}, tt.args...)
			out, err := runPantry(t, t.TempDir(), args...)
			require.NoError(t, err)
			assert.Contains(t, out, "Wrote 20 items to "+dst)

			out, err = runPantry(t, t.TempDir(), "load", dst, "--strict")
			require.NoError(t, err)
			assert.Contains(t, out, "with "+tt.strategy+"\n")
			assert.Contains(t, out, "Shape: (20, 1)")
		})
	}
}

func TestExportErrors(t *testing.T) {
	clearPantryEnv(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "bp.pkl")
	writePickleFixture(t, src, 3)

	_, err := runPantry(t, t.TempDir(), "export", src, filepath.Join(dir, "bp.parquet"))
	require.ErrorIs(t, err, types.ErrUnknownFormat)

	_, err = runPantry(t, t.TempDir(), "export", filepath.Join(dir, "missing.pkl"), filepath.Join(dir, "x.csv"))
	require.ErrorIs(t, err, errLoadFailed)

	mapping := filepath.Join(dir, "meta.pkl")
	var buf bytes.Buffer
	require.NoError(t, codec.WriteObject(&buf, map[string]any{"version": "1"}))
	require.NoError(t, os.WriteFile(mapping, buf.Bytes(), 0o644))

	_, err = runPantry(t, t.TempDir(), "export", mapping, filepath.Join(dir, "meta.csv"))
	require.ErrorIs(t, err, types.ErrNotTabular)
	_, statErr := os.Stat(filepath.Join(dir, "meta.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

// failWriter rejects every write, like a closed stdout.
type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestLoadOutputFailureIsSystemError(t *testing.T) {
	clearPantryEnv(t)
	path := filepath.Join(t.TempDir(), "bp.pkl")
	writePickleFixture(t, path, 5)

	root := newRootCmd()
	root.SetOut(failWriter{})
	root.SetErr(failWriter{})
	root.SetArgs([]string{"--config-dir", t.TempDir(), "--color", "off", "load", path})
	err := root.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdout closed")
	assert.Equal(t, exitSysError, exitCode(err))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, exitUserError, exitCode(errors.New("usage")))
	assert.Equal(t, exitSysError, exitCode(asSysError(errors.New("disk"))))
	assert.Equal(t, exitSysError, exitCode(fmt.Errorf("wrapped: %w", asSysError(errors.New("disk")))))
	assert.NoError(t, asSysError(nil))
}
