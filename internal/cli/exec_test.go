package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/automodel/internal/engine"
	"github.com/roach88/automodel/internal/testutil"
)

const aliceJSON = `{"name":"Alice","age":30,"email":"alice@example.com"}`

// execRunner runs exec commands against one database file.
type execRunner struct {
	t  *testing.T
	db string
}

func newExecRunner(t *testing.T) *execRunner {
	t.Helper()
	return &execRunner{t: t, db: filepath.Join(t.TempDir(), "test.db")}
}

func (r *execRunner) run(format string, args ...string) (string, error) {
	r.t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	base := []string{"--models-dir", testModelsDir, "--db", r.db, "--format", format, "exec"}
	cmd.SetArgs(append(base, args...))
	err := cmd.Execute()
	return buf.String(), err
}

func (r *execRunner) mustRun(args ...string) string {
	r.t.Helper()
	out, err := r.run("text", args...)
	require.NoError(r.t, err, out)
	return out
}

func (r *execRunner) seedUsers() {
	r.t.Helper()
	r.mustRun("users", "create", aliceJSON)
	r.mustRun("users", "create", `{"name":"Bob","age":25,"email":"bob@example.com"}`)
	r.mustRun("users", "create", "--data", `{"name":"Carol","age":35,"email":"carol@example.com","status":"inactive"}`)
}

func TestExecCreateAndGet(t *testing.T) {
	r := newExecRunner(t)

	out := r.mustRun("users", "create", aliceJSON)
	want := `{"id":1,"name":"Alice","age":30,"email":"alice@example.com","status":"active","bio":null}` + "\n"
	assert.Equal(t, want, out)

	assert.Equal(t, want, r.mustRun("users", "get", "1"))
}

func TestExecIDsPersistAcrossRuns(t *testing.T) {
	r := newExecRunner(t)
	r.mustRun("users", "create", aliceJSON)
	out := r.mustRun("users", "create", aliceJSON)
	assert.True(t, strings.HasPrefix(out, `{"id":2,`), out)

	out = r.mustRun("posts", "create", `{"title":"Hello","author_id":1}`)
	assert.Equal(t, `{"id":1,"title":"Hello","author_id":1,"likes":0,"score":null}`+"\n", out)
}

func TestExecUseSeparatesDatabases(t *testing.T) {
	r := newExecRunner(t)
	r.mustRun("users", "create", aliceJSON)

	out := r.mustRun("users", "create", aliceJSON, "--use", "other")
	assert.True(t, strings.HasPrefix(out, `{"id":1,`), out)

	_, err := r.run("text", "users", "get", "1", "--use", "empty")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestExecGetNotFound(t *testing.T) {
	r := newExecRunner(t)

	out, err := r.run("text", "users", "get", "99")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
	assert.Contains(t, out, "record not found")
	assert.True(t, IsReported(err), "already written to stdout")
}

func TestExecUpdate(t *testing.T) {
	r := newExecRunner(t)
	r.mustRun("users", "create", aliceJSON)

	out := r.mustRun("users", "update", "1", "--data", `{"age":31,"nickname":"al"}`)
	assert.Equal(t, `{"id":1,"name":"Alice","age":31,"email":"alice@example.com","status":"active","bio":null}`+"\n", out)

	_, err := r.run("text", "users", "update", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeMissingArgument)

	_, err = r.run("text", "users", "update", "42", "--data", `{"age":1}`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestExecDelete(t *testing.T) {
	r := newExecRunner(t)
	r.seedUsers()

	assert.Equal(t, "deleted\n", r.mustRun("users", "delete", "1"))
	_, err := r.run("text", "users", "get", "1")
	require.Error(t, err, "soft-deleted rows are hidden")

	assert.Equal(t, "deleted\n", r.mustRun("users", "delete", "2", "--hard"))
	assert.Equal(t, "not found\n", r.mustRun("users", "delete", "2", "--hard"))
	assert.Equal(t, "not found\n", r.mustRun("users", "delete", "99"))

	out := r.mustRun("users", "query")
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "Carol")
}

func TestExecQueryGolden(t *testing.T) {
	r := newExecRunner(t)
	r.seedUsers()

	out := r.mustRun("users", "query", "--order-by", "-age")
	testutil.AssertGolden(t, "exec_query", []byte(out))
}

func TestExecQueryFilterAndPaging(t *testing.T) {
	r := newExecRunner(t)
	r.seedUsers()

	out := r.mustRun("users", "query", "--filter", `{"status":"active"}`, "--order-by", "age")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Bob")
	assert.Contains(t, lines[1], "Alice")

	out = r.mustRun("users", "query", "--order-by", "age", "--offset", "1", "--limit", "1")
	assert.Contains(t, out, "Alice")
	assert.Equal(t, 1, strings.Count(out, "\n"))

	assert.Empty(t, r.mustRun("users", "query", "--filter", `{"name":"Nobody"}`))
}

func TestExecJSON(t *testing.T) {
	r := newExecRunner(t)

	out, err := r.run("json", "users", "create", aliceJSON)
	require.NoError(t, err)
	assert.Equal(t,
		`{"status":"ok","data":{"action":"create","record":{"id":1,"name":"Alice","age":30,"email":"alice@example.com","status":"active","bio":null}}}`+"\n",
		out)

	out, err = r.run("json", "users", "query")
	require.NoError(t, err)
	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Action  string           `json:"action"`
			Records []map[string]any `json:"records"`
			Count   int              `json:"count"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "query", resp.Data.Action)
	assert.Equal(t, 1, resp.Data.Count)
	require.Len(t, resp.Data.Records, 1)
	assert.Equal(t, "Alice", resp.Data.Records[0]["name"])

	out, err = r.run("json", "users", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":{"action":"delete","deleted":true}}`+"\n", out)
}

func TestExecQueryJSONEmpty(t *testing.T) {
	r := newExecRunner(t)

	out, err := r.run("json", "users", "query")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok","data":{"action":"query","count":0}}`+"\n", out)
}

func TestExecErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
		exit int
	}{
		{"missing field", []string{"users", "create", `{"name":"Alice"}`}, ErrCodeMissingField, ExitFailure},
		{"type mismatch", []string{"users", "create", `{"name":"Alice","age":"old","email":"a@example.com"}`}, ErrCodeTypeMismatch, ExitFailure},
		{"unknown table", []string{"ghosts", "query"}, ErrCodeUnknownTable, ExitCommandError},
		{"unsupported action", []string{"users", "upsert"}, ErrCodeUnsupportedAction, ExitCommandError},
		{"bad id", []string{"users", "get", "one"}, ErrCodeInvalidArgument, ExitCommandError},
		{"missing id", []string{"users", "delete"}, ErrCodeInvalidArgument, ExitCommandError},
		{"create without data", []string{"users", "create"}, ErrCodeInvalidArgument, ExitCommandError},
		{"bad create JSON", []string{"users", "create", `{"name":`}, ErrCodeInvalidArgument, ExitCommandError},
		{"bad filter", []string{"users", "query", "--filter", `[1,2]`}, ErrCodeInvalidArgument, ExitCommandError},
		{"negative limit", []string{"users", "query", "--limit", "-1"}, ErrCodeInvalidQuery, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newExecRunner(t)
			out, err := r.run("text", tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.exit, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestParseExecArgs(t *testing.T) {
	opts := &ExecOptions{Hard: true}
	target, execOpts, err := parseExecArgs(engine.ActionDelete, "7", opts)
	require.NoError(t, err)
	assert.Equal(t, int64(7), target)
	assert.Len(t, execOpts, 1)

	target, _, err = parseExecArgs(engine.ActionCreate, `{"n":9007199254740993}`, &ExecOptions{})
	require.NoError(t, err)
	assert.Equal(t, json.Number("9007199254740993"), target.(map[string]any)["n"])

	target, execOpts, err = parseExecArgs("upsert", "", &ExecOptions{})
	require.NoError(t, err)
	assert.Nil(t, target)
	assert.Nil(t, execOpts)
}
