// Package script runs translation rules written in Go source and
// interpreted with yaegi.
//
// A rule declares
//
//	func translate(input string) []any
//
// and returns nil when input does not concern it, or exactly four values:
// the matched code, the remaining code, a text or list of texts, and whether
// the candidate may be committed without confirmation. The constant DIR
// holds the directory of the script file.
package script

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"glyphkey/internal/translator"
)

var (
	// ErrNoTranslate is returned when a script lacks a usable translate function.
	ErrNoTranslate = errors.New("script does not declare func translate(string) []any")
	// ErrForbiddenImport is returned when a script imports a package outside the allowlist.
	ErrForbiddenImport = errors.New("forbidden import")
	// ErrWrongArity is returned when translate yields neither nil nor four values.
	ErrWrongArity = errors.New("translate must return nil or four values")
)

// DefaultAllowedImports are the packages a script may import.
var DefaultAllowedImports = []string{
	"bytes",
	"fmt",
	"math",
	"regexp",
	"sort",
	"strconv",
	"strings",
	"time",
	"unicode",
	"unicode/utf8",
}

// Option configures Compile.
type Option func(*options)

type options struct {
	dir     string
	allowed map[string]bool
}

// WithDir sets the value of the DIR constant.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithAllowedImports extends the import allowlist.
func WithAllowedImports(pkgs ...string) Option {
	return func(o *options) {
		for _, pkg := range pkgs {
			o.allowed[pkg] = true
		}
	}
}

// Script is a compiled rule. It implements translator.Rule and is safe for
// concurrent use.
type Script struct {
	name string
	mu   sync.Mutex
	fn   func(string) []any
}

var _ translator.Rule = (*Script)(nil)

// Compile interprets source and binds its translate function.
func Compile(name, source string, opts ...Option) (*Script, error) {
	o := &options{dir: ".", allowed: make(map[string]bool)}
	for _, pkg := range DefaultAllowedImports {
		o.allowed[pkg] = true
	}
	for _, opt := range opts {
		opt(o)
	}

	src, err := prepare(name, source, o)
	if err != nil {
		return nil, err
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("load stdlib symbols: %w", err)
	}
	if _, err := i.Eval(src); err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", name, err)
	}

	v, err := i.Eval("translate")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrNoTranslate)
	}
	fn, ok := v.Interface().(func(string) []any)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNoTranslate)
	}

	return &Script{name: name, fn: fn}, nil
}

// LoadFile compiles the script at path with DIR set to its directory.
func LoadFile(name, path string, opts ...Option) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	opts = append([]Option{WithDir(filepath.Dir(path))}, opts...)
	return Compile(name, string(data), opts...)
}

// Name returns the name given at compile time.
func (s *Script) Name() string { return s.name }

// Translate runs the script on input.
func (s *Script) Translate(input string) (p translator.Predicate, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		if r := recover(); r != nil {
			p, ok, err = translator.Predicate{}, false, fmt.Errorf("%s panicked: %v", s.name, r)
		}
	}()

	return decode(s.fn(input))
}

// prepare validates the imports and declares DIR right after them, on the
// same line, so that error positions still match the file.
func prepare(name, source string, o *options) (string, error) {
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, name, source, parser.PackageClauseOnly); err != nil {
		source = "package main;" + source
	}

	file, err := parser.ParseFile(fset, name, source, parser.ImportsOnly)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", name, err)
	}
	if file.Name.Name != "main" {
		return "", fmt.Errorf("parse %s: package %s, want main", name, file.Name.Name)
	}

	var forbidden []string
	for _, spec := range file.Imports {
		path, _ := strconv.Unquote(spec.Path.Value)
		if !o.allowed[path] {
			forbidden = append(forbidden, path)
		}
	}
	if len(forbidden) > 0 {
		sort.Strings(forbidden)
		return "", fmt.Errorf("%s: %w: %s", name, ErrForbiddenImport, strings.Join(forbidden, ", "))
	}

	end := file.Name.End()
	if n := len(file.Decls); n > 0 {
		end = file.Decls[n-1].End()
	}
	offset := fset.Position(end).Offset

	return source[:offset] + "; const DIR = " + strconv.Quote(o.dir) + source[offset:], nil
}

func decode(values []any) (translator.Predicate, bool, error) {
	if len(values) == 0 {
		return translator.Predicate{}, false, nil
	}
	if len(values) != 4 {
		return translator.Predicate{}, false, fmt.Errorf("%w: got %d", ErrWrongArity, len(values))
	}

	code, ok := values[0].(string)
	if !ok {
		return translator.Predicate{}, false, fmt.Errorf("code: want string, got %T", values[0])
	}
	remaining, ok := values[1].(string)
	if !ok {
		return translator.Predicate{}, false, fmt.Errorf("remaining code: want string, got %T", values[1])
	}
	texts, err := decodeTexts(values[2])
	if err != nil {
		return translator.Predicate{}, false, err
	}
	canCommit, ok := values[3].(bool)
	if !ok {
		return translator.Predicate{}, false, fmt.Errorf("can commit: want bool, got %T", values[3])
	}

	return translator.Predicate{
		Code:          code,
		RemainingCode: remaining,
		Texts:         texts,
		CanCommit:     canCommit,
	}, true, nil
}

func decodeTexts(v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		texts := make([]string, 0, len(t))
		for i, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, fmt.Errorf("texts[%d]: want string, got %T", i, e)
			}
			texts = append(texts, s)
		}
		return texts, nil
	default:
		return nil, fmt.Errorf("texts: want string or list of strings, got %T", v)
	}
}
