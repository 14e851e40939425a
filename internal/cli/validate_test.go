package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, dir, name, content string) {
	t.Helper()
	err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644)
	require.NoError(t, err)
}

func runValidateCmd(t *testing.T, format, dir string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: format, ModelsDir: dir}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})
	err := cmd.Execute()
	return buf.String(), err
}

func TestValidateValidModels(t *testing.T) {
	out, err := runValidateCmd(t, "text", testModelsDir)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All models valid")
}

func TestValidateValidModelsJSON(t *testing.T) {
	out, err := runValidateCmd(t, "json", testModelsDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, []string{"posts", "users"}, resp.Data.Tables)
}

func TestValidateVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	errBuf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", ModelsDir: testModelsDir, Verbose: true}
	cmd := NewValidateCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetErr(errBuf)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, errBuf.String(), "Found 2 model file(s)")
	assert.Contains(t, errBuf.String(), "Loaded model User -> users")
	assert.NotContains(t, buf.String(), "Found")
}

func TestValidateNonExistentDirectory(t *testing.T) {
	out, err := runValidateCmd(t, "text", "/nonexistent/directory/path")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E005") // ErrCodeNotFound
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "not found")
}

func TestValidateEmptyDirectory(t *testing.T) {
	out, err := runValidateCmd(t, "text", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "E003")
	assert.Contains(t, out, "no model files found")
}

func TestValidateInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	writeModel(t, tmpDir, "bad.yaml", `
name: Bad
fields:
  - name: title
    type: ""
`)

	out, err := runValidateCmd(t, "text", tmpDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, out, "✗ Validation failed")
	assert.Contains(t, out, "E104")
	assert.Contains(t, out, "bad.yaml")
}

func TestValidateInvalidCUE(t *testing.T) {
	tmpDir := t.TempDir()
	writeModel(t, tmpDir, "bad.cue", `package models

model: Bad: {
	title: string
	tags:  [...string]
}
`)

	out, err := runValidateCmd(t, "text", tmpDir)
	require.Error(t, err)
	assert.Contains(t, out, "E104")
	assert.Contains(t, out, "bad.cue")
	assert.Contains(t, out, "unsupported type kind")
}

func TestValidateInvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeModel(t, tmpDir, "bad.yaml", `
name: Bad
fields:
  - name: count
    type: integer
    default: lots
`)

	out, err := runValidateCmd(t, "json", tmpDir)
	require.Error(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	require.Len(t, resp.Data.Errors, 1)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E105", resp.Error.Code)
}

func TestValidateDuplicateTable(t *testing.T) {
	tmpDir := t.TempDir()
	writeModel(t, tmpDir, "a.cue", `package models

model: User: name: string
`)
	writeModel(t, tmpDir, "b.yaml", `
name: User
fields:
  - name: email
    type: text
`)

	out, err := runValidateCmd(t, "text", tmpDir)
	require.Error(t, err)
	assert.Contains(t, out, "E106")
	assert.Contains(t, out, `table "users" already declared`)
}

func TestValidateSkipsUnderscoreFiles(t *testing.T) {
	tmpDir := t.TempDir()
	writeModel(t, tmpDir, "ok.yaml", `
name: Tag
fields:
  - name: label
    type: text
`)
	writeModel(t, tmpDir, "_draft.yaml", `not: [valid`)

	out, err := runValidateCmd(t, "text", tmpDir)
	require.NoError(t, err)
	assert.Contains(t, out, "All models valid")
}
