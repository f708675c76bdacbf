package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const squareScript = `; unit square, 2x2 quads
(model (rectangle 0 0 1 1))
(set-scheme :curve 1 "equal" :intervals 2)
(set-scheme :curve 2 "equal" :intervals 2)
(set-scheme :curve 3 "equal" :intervals 2)
(set-scheme :curve 4 "equal" :intervals 2)
(set-scheme :surface 1 "transfinite")
(mesh-all)
`

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeScript(t *testing.T, dir, src string) string {
	t.Helper()
	path := filepath.Join(dir, "script.kr")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestRunAndInfo(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, squareScript)
	stl := filepath.Join(dir, "square.stl")
	png := filepath.Join(dir, "square.png")

	out, _, err := execute(t, "run", script,
		"--root", dir, "-o", "square.kmsh", "--compression", "lz4",
		"--stl", stl, "--png", png, "--view", "xy")
	require.NoError(t, err)
	assert.Contains(t, out, "9\n")
	assert.Contains(t, out, "wrote square.kmsh (9 points, 4 elements)")

	info, err := os.Stat(stl)
	require.NoError(t, err)
	assert.Equal(t, int64(84+50*8), info.Size())
	_, err = os.Stat(png)
	require.NoError(t, err)

	out, _, err = execute(t, "info", filepath.Join(dir, "square.kmsh"))
	require.NoError(t, err)
	assert.Contains(t, out, "points:   9")
	assert.Contains(t, out, "elements: 4")
	assert.Contains(t, out, "surface 1")
	// Four unit-aspect quads rate 1 everywhere.
	assert.Contains(t, out, "quality:  min 1.0000  mean 1.0000  max 1.0000 (gamma)")
}

func TestRunScriptExport(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, squareScript+`(export "from-script.kmsh")`)

	out, _, err := execute(t, "run", script, "--root", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "exported from-script.kmsh")
	_, err = os.Stat(filepath.Join(dir, "from-script.kmsh"))
	require.NoError(t, err)
}

func TestRunReportsEvalErrors(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, `(mesh-curve 1)`)

	_, stderr, err := execute(t, "run", script, "--root", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "evaluation error")
	assert.Contains(t, stderr, "no model")
}

func TestRunFlagErrors(t *testing.T) {
	dir := t.TempDir()
	script := writeScript(t, dir, squareScript)

	tests := []struct {
		name string
		args []string
	}{
		{"bad compression", []string{"--compression", "gzip"}},
		{"unknown store", []string{"--store", "ftp"}},
		{"s3 without bucket", []string{"--store", "s3"}},
		{"minio without endpoint", []string{"--store", "minio", "--bucket", "b"}},
		{"bad view", []string{"--png", filepath.Join(dir, "x.png"), "--view", "top"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"run", script, "--root", dir}, tt.args...)
			_, _, err := execute(t, args...)
			assert.Error(t, err)
		})
	}
}

func TestInfoRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.kmsh")
	require.NoError(t, os.WriteFile(path, []byte("not a mesh"), 0o644))
	_, _, err := execute(t, "info", path)
	assert.Error(t, err)
}

func TestExampleScripts(t *testing.T) {
	scripts, err := filepath.Glob(filepath.Join("..", "..", "examples", "*.kr"))
	require.NoError(t, err)
	require.NotEmpty(t, scripts)

	for _, script := range scripts {
		t.Run(filepath.Base(script), func(t *testing.T) {
			dir := t.TempDir()
			out, stderr, err := execute(t, "run", script, "--root", dir)
			require.NoError(t, err, stderr)
			assert.Contains(t, out, "exported ")
		})
	}
}
