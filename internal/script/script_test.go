package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glyphkey/internal/translator"
)

const greeting = `
import "strings"

func translate(input string) []any {
	if strings.EqualFold(input, "hi") {
		return []any{"hi", "", "hello", true}
	}
	return nil
}
`

func TestCompileAndTranslate(t *testing.T) {
	s, err := Compile("greeting", greeting)
	require.NoError(t, err)
	assert.Equal(t, "greeting", s.Name())

	p, ok, err := s.Translate("HI")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, translator.Predicate{Code: "hi", Texts: []string{"hello"}, CanCommit: true}, p)

	_, ok, err = s.Translate("ho")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTextLists(t *testing.T) {
	s, err := Compile("lists", `package main

func translate(input string) []any {
	switch input {
	case "strings":
		return []any{input, "", []string{"a", "b"}, false}
	case "values":
		return []any{input, "s", []any{"c", "d"}, false}
	case "mixed":
		return []any{input, "", []any{"c", 1}, false}
	}
	return []any{}
}
`)
	require.NoError(t, err)

	p, ok, err := s.Translate("strings")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, p.Texts)

	p, ok, err = s.Translate("values")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"c", "d"}, p.Texts)
	assert.Equal(t, "s", p.RemainingCode)

	_, _, err = s.Translate("mixed")
	assert.Error(t, err)

	_, ok, err = s.Translate("other")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestWrongResults(t *testing.T) {
	s, err := Compile("bad", `
func translate(input string) []any {
	switch input {
	case "short":
		return []any{"a", "b"}
	case "types":
		return []any{1, "", "x", true}
	case "flag":
		return []any{"a", "", "x", "yes"}
	case "panic":
		panic("boom")
	}
	return nil
}
`)
	require.NoError(t, err)

	_, _, err = s.Translate("short")
	assert.ErrorIs(t, err, ErrWrongArity)

	_, _, err = s.Translate("types")
	assert.ErrorContains(t, err, "code")

	_, _, err = s.Translate("flag")
	assert.ErrorContains(t, err, "can commit")

	_, ok, err := s.Translate("panic")
	assert.ErrorContains(t, err, "panicked")
	assert.False(t, ok)

	// The script keeps working after a panic.
	_, ok, err = s.Translate("fine")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("syntax", "func translate(input string) []any {")
	assert.Error(t, err)

	_, err = Compile("missing", "func other() {}")
	assert.ErrorIs(t, err, ErrNoTranslate)

	_, err = Compile("signature", "func translate(n int) int { return n }")
	assert.ErrorIs(t, err, ErrNoTranslate)

	_, err = Compile("package", "package rules\nfunc translate(input string) []any { return nil }")
	assert.ErrorContains(t, err, "want main")

	_, err = Compile("imports", `import (
	"os"
	"strings"
	"net/http"
)

func translate(input string) []any { _ = os.Args; _ = http.Get; return nil }
`)
	assert.ErrorIs(t, err, ErrForbiddenImport)
	assert.ErrorContains(t, err, "net/http, os")
}

func TestAllowedImports(t *testing.T) {
	src := `import "path"

func translate(input string) []any { return []any{path.Base(input), "", "x", false} }
`
	_, err := Compile("path", src)
	assert.ErrorIs(t, err, ErrForbiddenImport)

	s, err := Compile("path", src, WithAllowedImports("path"))
	require.NoError(t, err)
	p, ok, err := s.Translate("a/b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", p.Code)
}

func TestDir(t *testing.T) {
	const src = `func translate(input string) []any { return []any{input, "", DIR, false} }`

	s, err := Compile("dir", src)
	require.NoError(t, err)
	p, _, err := s.Translate("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, p.Texts)

	dir := t.TempDir()
	path := filepath.Join(dir, "dir.go")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))

	s, err = LoadFile("dir", path)
	require.NoError(t, err)
	p, _, err = s.Translate("x")
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, p.Texts)

	_, err = LoadFile("missing", filepath.Join(dir, "missing.go"))
	assert.Error(t, err)
}

func TestRegisteredRule(t *testing.T) {
	s, err := Compile("greeting", greeting)
	require.NoError(t, err)

	d := translator.NewDictionary()
	d.Set("halo", "hello")
	tr := translator.New(d, true)
	tr.Register("greeting", s)

	assert.Equal(t, []translator.Predicate{
		{Code: "hi", Texts: []string{"hello"}, CanCommit: true},
	}, tr.Translate("hi"))
}
