package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLILocalWorkflow(t *testing.T) {
	dir := t.TempDir()
	cfg := `store:
  backend: xml
lookup:
  backend: static
  static:
    Rust: https://example.org/?curid=42
log:
  level: error
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notebook.yaml"), []byte(cfg), 0o644))

	out, err := runCLI(t, "--data-dir", dir, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "store ready (xml)")

	out, err = runCLI(t, "--data-dir", dir, "topics", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no topics")

	out, err = runCLI(t, "--data-dir", dir, "add", "--local", "Rust")
	require.NoError(t, err)
	assert.Equal(t, "Wikipedia link added for topic 'Rust': https://example.org/?curid=42\n", out)

	out, err = runCLI(t, "--data-dir", dir, "add", "--local", "Nonexistent-Topic-Xyz123")
	require.NoError(t, err)
	assert.Equal(t, "No article found for topic 'Nonexistent-Topic-Xyz123'.\n", out)

	out, err = runCLI(t, "--data-dir", dir, "topics", "list")
	require.NoError(t, err)
	assert.Equal(t, "Rust\thttps://example.org/?curid=42\n", out)

	out, err = runCLI(t, "--data-dir", dir, "topics", "show", "Rust")
	require.NoError(t, err)
	assert.Contains(t, out, "link: https://example.org/?curid=42")

	_, err = runCLI(t, "--data-dir", dir, "topics", "show", "Go")
	assert.Error(t, err)

	_, err = os.Stat(filepath.Join(dir, "db.xml"))
	assert.NoError(t, err)
}

func TestCLIInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, "--data-dir", dir, "init", "--write-config")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote")
	_, err = os.Stat(filepath.Join(dir, "notebook.yaml"))
	require.NoError(t, err)

	_, err = runCLI(t, "--data-dir", dir, "init", "--write-config")
	assert.Error(t, err)
}

func TestCLIRejectsMissingExplicitConfig(t *testing.T) {
	_, err := runCLI(t, "--data-dir", t.TempDir(), "--config", filepath.Join(t.TempDir(), "missing.yaml"), "init")
	assert.Error(t, err)
}
