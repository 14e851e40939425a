package models

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/automodel/internal/registry"
	"github.com/roach88/automodel/internal/schema"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadCode(t *testing.T, errs []error) string {
	t.Helper()
	require.NotEmpty(t, errs)
	var le *LoadError
	require.ErrorAs(t, errs[0], &le)
	return le.Code
}

const userCUE = `package models

model: User: {
	name:   string
	age:    int
	email?: string
	score:  float
	active: bool | *true
	avatar: bytes | null
	status: *"active" | string
}
`

func TestLoad_CUEModel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.cue", userCUE)

	result, errs := Load(dir)
	require.Empty(t, errs)
	require.Len(t, result.Models, 1)
	assert.Equal(t, 1, result.FileCount)

	m := result.Models[0]
	assert.Equal(t, "users", m.Table)
	assert.Equal(t, "User", m.Shape.Name)

	sch := schema.Extract(m.Shape)
	assert.Equal(t, []string{"name", "age", "email", "score", "active", "avatar", "status"}, sch.Names())

	wantTypes := map[string]schema.Type{
		"name":   schema.Text,
		"age":    schema.Integer,
		"email":  schema.Optional(schema.Text),
		"score":  schema.Real,
		"active": schema.Boolean,
		"avatar": schema.Optional(schema.Binary),
		"status": schema.Text,
	}
	for _, col := range sch {
		assert.True(t, wantTypes[col.Name].Equal(col.Type), "%s: got %s", col.Name, col.Type)
	}

	status, _ := m.Shape.Field("status")
	def, ok := status.DefaultValue()
	require.True(t, ok)
	assert.Equal(t, "active", def)

	active, _ := m.Shape.Field("active")
	def, ok = active.DefaultValue()
	require.True(t, ok)
	assert.Equal(t, true, def)

	email, _ := m.Shape.Field("email")
	assert.False(t, email.Required(), "optional CUE fields may be omitted")

	name, _ := m.Shape.Field("name")
	assert.True(t, name.Required())
	avatar, _ := m.Shape.Field("avatar")
	assert.True(t, avatar.Required(), "a nullable type without a default is still required")
}

func TestLoad_CUEAttributes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "person.cue", `model: {
	Person: {
		name: string
		born: string @type(Timestamp)
	} @table(people)
}
`)

	result, errs := Load(dir)
	require.Empty(t, errs)
	require.Len(t, result.Models, 1)
	assert.Equal(t, "people", result.Models[0].Table)

	born, ok := result.Models[0].Shape.Field("born")
	require.True(t, ok)
	assert.Equal(t, schema.Named("Timestamp"), born.Type)
}

func TestLoad_CUEUnsupportedKind(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `model: Bad: {
	tags: [...string]
}
`)

	_, errs := Load(dir)
	assert.Equal(t, ErrCodeInvalidType, loadCode(t, errs))
}

func TestLoad_CUESyntaxError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.cue", `model: User: {`)

	_, errs := Load(dir)
	assert.Equal(t, ErrCodeBuildFailed, loadCode(t, errs))
}

func TestLoad_YAMLModels(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "blog.yaml", `name: Post
fields:
  - name: title
    type: text
  - name: likes
    type: int
    default: 0
  - name: summary
    type: optional[text]
    default: null
---
name: Category
table: tags
fields:
  - name: label
    type: string
`)

	result, errs := Load(dir)
	require.Empty(t, errs)
	assert.Equal(t, []string{"posts", "tags"}, result.Tables())

	post := result.Models[0].Shape
	likes, _ := post.Field("likes")
	def, ok := likes.DefaultValue()
	require.True(t, ok)
	assert.Equal(t, 0, def)

	summary, _ := post.Field("summary")
	assert.True(t, summary.HasDefault)
	assert.True(t, schema.Optional(schema.Text).Equal(summary.Type))

	title, _ := post.Field("title")
	assert.True(t, title.Required())
}

func TestLoad_YAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    string
	}{
		{"bad type", "name: X\nfields:\n  - name: a\n    type: optional[int\n", ErrCodeInvalidType},
		{"bad default", "name: X\nfields:\n  - name: a\n    type: integer\n    default: nope\n", ErrCodeInvalidDefault},
		{"no fields", "name: X\nfields: []\n", ErrCodeInvalidModel},
		{"duplicate field", "name: X\nfields:\n  - {name: a, type: text}\n  - {name: a, type: text}\n", ErrCodeInvalidField},
		{"unnamed field", "name: X\nfields:\n  - {type: text}\n", ErrCodeInvalidField},
		{"malformed", "name: [unclosed\n", ErrCodeLoadFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, "model.yml", tt.content)

			_, errs := Load(dir)
			assert.Equal(t, tt.code, loadCode(t, errs))
		})
	}
}

func TestLoad_SkipsUnderscoreFilesAndRecurses(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "_draft.cue", `model: Draft: { x: int }`)
	writeFile(t, dir, "nested/deep/order.yaml", "name: Order\nfields:\n  - {name: total, type: real}\n")
	writeFile(t, dir, "company.cue", `model: Company: { name: string }`)
	writeFile(t, dir, "README.md", "not a model")

	result, errs := Load(dir)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	assert.ElementsMatch(t, []string{"companies", "orders"}, result.Tables())
}

func TestLoad_DuplicateTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.cue", `model: User: { name: string }`)
	writeFile(t, dir, "b.yaml", "name: User\nfields:\n  - {name: name, type: text}\n")

	result, errs := Load(dir)
	assert.Equal(t, ErrCodeDuplicateTable, loadCode(t, errs))
	require.Len(t, result.Models, 1)
	assert.Equal(t, filepath.Join(dir, "a.cue"), result.Models[0].File)
}

func TestLoad_DirectoryErrors(t *testing.T) {
	_, errs := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Equal(t, ErrCodeNotFound, loadCode(t, errs))

	file := filepath.Join(t.TempDir(), "file.cue")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, errs = Load(file)
	assert.Equal(t, ErrCodeNotFound, loadCode(t, errs))

	_, errs = Load(t.TempDir())
	assert.Equal(t, ErrCodeNoFiles, loadCode(t, errs))
}

func TestLoadResult_Register(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user.cue", userCUE)

	result, errs := Load(dir)
	require.Empty(t, errs)

	reg := registry.New()
	require.NoError(t, result.Register(reg))
	assert.Equal(t, []string{"users"}, reg.Tables())

	validated, err := reg.Validate("users", map[string]any{
		"name": "Ada", "age": 36, "score": 9.5, "avatar": nil,
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Ada", "age": 36, "score": 9.5, "avatar": nil}, validated)
}

func TestLoadError_Format(t *testing.T) {
	assert.Equal(t, "E003: no files", (&LoadError{Code: "E003", Message: "no files"}).Error())
	assert.Equal(t, "m.yaml: E104: bad", (&LoadError{Code: "E104", Message: "bad", File: "m.yaml"}).Error())
}
