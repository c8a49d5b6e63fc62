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

func runCLI(t *testing.T, tty bool, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut, tty)
	return code, out.String(), errOut.String()
}

func TestRun_CSV(t *testing.T) {
	code, out, errOut := runCLI(t, false, "-expr", "x", "-min", "0", "-max", "1", "-points", "100")
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 101)
	assert.Equal(t, "x,y", lines[0])
	assert.Equal(t, "0,0", lines[1])
	assert.Equal(t, "1,1", lines[100])
	assert.Empty(t, errOut)
}

func TestRun_TableOnTerminal(t *testing.T) {
	code, out, _ := runCLI(t, true, "-expr", "x^2", "-min", "0", "-max", "2")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 501)
	assert.NotContains(t, lines[0], ",")
	assert.Equal(t, []string{"2", "4"}, strings.Fields(lines[500]))
}

func TestRun_Derivative(t *testing.T) {
	code, out, _ := runCLI(t, false, "-expr", "x^2", "-min", "0", "-max", "1", "-deriv", "-format", "csv")
	require.Equal(t, 0, code)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "x,y,d/dx 2*x", lines[0])
	assert.Equal(t, "1,1,2", lines[len(lines)-1])
}

func TestRun_Integral(t *testing.T) {
	code, _, errOut := runCLI(t, false, "-expr", "x^2", "-min", "0", "-max", "1", "-integral")
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "integral over [0, 1]: symbolic 1/3, numeric 0.3333333333")

	code, out, _ := runCLI(t, false, "-expr", "exp(-x^2)", "-integral", "-format", "table")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "symbolic unevaluated")
}

func TestRun_WarnsAboutExcludedPoints(t *testing.T) {
	code, _, errOut := runCLI(t, false, "-expr", "ln(x)", "-min", "-1", "-max", "1")
	require.Equal(t, 0, code)
	assert.Contains(t, errOut, "warning:")
	assert.Contains(t, errOut, "points excluded")
}

func TestRun_Errors(t *testing.T) {
	code, _, errOut := runCLI(t, false, "-expr", "sin(x) +")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "plotcli:")

	code, _, _ = runCLI(t, false, "-expr", "x", "-min", "2", "-max", "1")
	assert.Equal(t, 1, code)

	code, _, errOut = runCLI(t, false, "-format", "svg")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, `unknown format "svg"`)

	code, _, _ = runCLI(t, false, "-nope")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, false, "stray")
	assert.Equal(t, 2, code)

	code, _, _ = runCLI(t, false, "-expr", "abs(x)", "-deriv")
	assert.Equal(t, 1, code)
}

func TestRun_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plot.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[plot]
xmin = 1.0
xmax = 2.0
points = 100
functions = ["cos"]
`), 0o644))

	code, out, errOut := runCLI(t, false, "-config", path)
	require.Equal(t, 0, code, errOut)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 101)
	assert.True(t, strings.HasPrefix(lines[1], "1,0.5403023059"), lines[1])

	// A flag wins over the file.
	code, out, _ = runCLI(t, false, "-config", path, "-max", "3")
	require.Equal(t, 0, code)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	assert.True(t, strings.HasPrefix(lines[100], "3,"), lines[100])

	code, _, _ = runCLI(t, false, "-config", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Equal(t, 1, code)
}
