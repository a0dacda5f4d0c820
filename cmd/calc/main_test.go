package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the CLI with args and stdin, returning stdout, stderr and the
// error from Run.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(strings.NewReader(stdin), &stdout, &stderr)
	err := app.Run(append([]string{"calc"}, args...))
	return stdout.String(), stderr.String(), err
}

func TestExprFlag(t *testing.T) {
	out, _, err := run(t, "", "-e", "2(3+4)")
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)
}

func TestPositionalArgs(t *testing.T) {
	out, _, err := run(t, "", "10", "-", "6/2")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestCommas(t *testing.T) {
	out, _, err := run(t, "", "--commas", "-e", "1000*1000")
	require.NoError(t, err)
	assert.Equal(t, "1,000,000\n", out)
}

func TestEvalError(t *testing.T) {
	out, errOut, err := run(t, "", "-e", "5/0")
	assert.Equal(t, errFailed, err)
	assert.Empty(t, out)
	assert.Equal(t, "Error: 5 / 0: division by zero\n", errOut)
}

func TestFileFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expr.txt")
	require.NoError(t, os.WriteFile(path, []byte("(1+2)\n*3\n"), 0644))

	out, _, err := run(t, "", "-f", path)
	require.NoError(t, err)
	assert.Equal(t, "9\n", out)
}

func TestPipedLines(t *testing.T) {
	out, errOut, err := run(t, "1+1\n\n2^10\n3/0\n4*4\n")
	assert.Equal(t, errFailed, err)
	assert.Equal(t, "2\n1024\n16\n", out)
	assert.Equal(t, "Error: 3/0: 3 / 0: division by zero\n", errOut)
}

func TestOverflowFlags(t *testing.T) {
	_, _, err := run(t, "", "-e", "2^64")
	assert.Equal(t, errFailed, err)

	out, _, err := run(t, "", "--overflow", "wrap", "-e", "2^64")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	_, _, err = run(t, "", "--max-exponent", "3", "-e", "2^4")
	assert.Equal(t, errFailed, err)

	_, _, err = run(t, "", "--overflow", "saturate", "-e", "1")
	assert.ErrorContains(t, err, "unknown overflow policy")
}

func TestConfigFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "calc.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("overflow: wrap\nmax_exponent: 100\n"), 0644))

	out, _, err := run(t, "", "--config", cfgPath, "-e", "2^64")
	require.NoError(t, err)
	assert.Equal(t, "0\n", out)

	// Flags win over the file.
	_, _, err = run(t, "", "--config", cfgPath, "--overflow", "fail", "-e", "2^64")
	assert.Equal(t, errFailed, err)

	_, _, err = run(t, "", "--config", filepath.Join(dir, "missing.yaml"), "-e", "1")
	assert.ErrorContains(t, err, "reading config")
}

func TestHistoryCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "calc.db")

	_, _, err := run(t, "", "--db", db, "--session", "first", "-e", "6*7")
	require.NoError(t, err)
	_, _, err = run(t, "", "--db", db, "--session", "second", "-e", "1/0")
	assert.Equal(t, errFailed, err)

	out, _, err := run(t, "", "--db", db, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "6*7")
	assert.Contains(t, out, "42")
	assert.Contains(t, out, "division by zero")
	assert.Contains(t, out, "SESSION")

	out, _, err = run(t, "", "--db", db, "--session", "first", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "6*7")
	assert.NotContains(t, out, "1/0")
	assert.NotContains(t, out, "SESSION")

	_, _, err = run(t, "", "--db", db, "history", "--clear")
	require.NoError(t, err)
	out, _, err = run(t, "", "--db", db, "history")
	require.NoError(t, err)
	assert.NotContains(t, out, "6*7")
}

func TestHistoryNeedsDB(t *testing.T) {
	t.Setenv("CALC_DB", "")
	_, _, err := run(t, "", "history")
	assert.ErrorContains(t, err, "history needs a database")
}

func TestDBFromEnv(t *testing.T) {
	db := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("CALC_DB", db)

	_, _, err := run(t, "", "-e", "1+2")
	require.NoError(t, err)
	out, _, err := run(t, "", "history")
	require.NoError(t, err)
	assert.Contains(t, out, "1+2")
}
