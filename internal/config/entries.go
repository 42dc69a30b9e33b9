package config

import (
	"fmt"
	"path/filepath"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// entryKind is the shape of a table value.
type entryKind int

const (
	entrySimple       entryKind = iota // "text"
	entryMulti                         // ["text", ...]
	entryFile                          // { path = "..." }
	entryDetailed                      // { value = "text", alias = [...] }
	entryMoreDetailed                  // { values = [...], alias = [...] }
)

func (k entryKind) String() string {
	switch k {
	case entrySimple:
		return "simple"
	case entryMulti:
		return "list"
	case entryFile:
		return "file"
	case entryDetailed:
		return "detailed"
	case entryMoreDetailed:
		return "more detailed"
	default:
		return "unknown"
	}
}

type entry struct {
	kind   entryKind
	value  string
	values []string
	alias  []string
	path   string
}

func classify(v any) (entry, error) {
	switch v := v.(type) {
	case string:
		return entry{kind: entrySimple, value: v}, nil
	case []any:
		values, ok := stringList(v)
		if !ok {
			return entry{}, fmt.Errorf("%w: list must hold only strings", ErrInvalidEntry)
		}
		return entry{kind: entryMulti, values: values}, nil
	case map[string]any:
		return classifyTable(v)
	default:
		return entry{}, fmt.Errorf("%w: unexpected %T", ErrInvalidEntry, v)
	}
}

func classifyTable(t map[string]any) (entry, error) {
	var alias []string
	if raw, ok := t["alias"]; ok {
		list, isList := raw.([]any)
		if !isList {
			return entry{}, fmt.Errorf("%w: alias must be a list", ErrInvalidEntry)
		}
		if alias, ok = stringList(list); !ok {
			return entry{}, fmt.Errorf("%w: alias must hold only strings", ErrInvalidEntry)
		}
	}

	if path, ok := t["path"].(string); ok && len(t) == 1 {
		return entry{kind: entryFile, path: path}, nil
	}
	if value, ok := t["value"].(string); ok {
		return entry{kind: entryDetailed, value: value, alias: alias}, nil
	}
	if list, ok := t["values"].([]any); ok {
		values, ok := stringList(list)
		if !ok {
			return entry{}, fmt.Errorf("%w: values must hold only strings", ErrInvalidEntry)
		}
		return entry{kind: entryMoreDetailed, values: values, alias: alias}, nil
	}
	return entry{}, fmt.Errorf("%w: table needs path, value or values", ErrInvalidEntry)
}

func stringList(list []any) ([]string, bool) {
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// resolver folds the entry tables of one document into a Config.
type resolver struct {
	cfg   *Config
	dir   string
	fsys  FileSystem
	depth int
}

func (r resolver) resolve(doc *document) error {
	for _, e := range doc.tables[tableData] {
		if err := r.data(e); err != nil {
			return fmt.Errorf("data %q: %w", e.key, err)
		}
	}
	for _, e := range doc.tables[tableTranslators] {
		if err := r.translator(e); err != nil {
			return fmt.Errorf("translators %q: %w", e.key, err)
		}
	}
	for _, e := range doc.tables[tableTranslation] {
		if err := r.translation(e); err != nil {
			return fmt.Errorf("translation %q: %w", e.key, err)
		}
	}
	return nil
}

func (r resolver) include(path string) (*Config, error) {
	return load(filepath.Join(r.dir, path), r.fsys, r.depth+1)
}

func (r resolver) data(raw rawEntry) error {
	e, err := classify(raw.value)
	if err != nil {
		return err
	}
	switch e.kind {
	case entrySimple:
		r.insertData(raw.key, e.value)
	case entryDetailed:
		for _, code := range append(e.alias, raw.key) {
			r.insertData(code, e.value)
		}
	case entryFile:
		sub, err := r.include(e.path)
		if err != nil {
			return err
		}
		for p := sub.data.Oldest(); p != nil; p = p.Next() {
			r.cfg.data.Set(p.Key, p.Value)
		}
	default:
		return fmt.Errorf("%w: %s entry not allowed in data", ErrInvalidEntry, e.kind)
	}
	return nil
}

// insertData stores code and, with auto-capitalize on, an upper-case
// variant unless the file already defines one.
func (r resolver) insertData(code, text string) {
	r.cfg.data.Set(code, text)
	if !r.cfg.Core.AutoCapitalize {
		return
	}
	first, size := utf8.DecodeRuneInString(code)
	if size == 0 || !unicode.IsLower(first) {
		return
	}
	upper := cases.Upper(language.Und)
	capitalized := upper.String(string(first)) + code[size:]
	if _, exists := r.cfg.data.Get(capitalized); !exists {
		r.cfg.data.Set(capitalized, upper.String(text))
	}
}

func (r resolver) translator(raw rawEntry) error {
	e, err := classify(raw.value)
	if err != nil {
		return err
	}
	switch e.kind {
	case entrySimple:
		r.cfg.translators.Set(raw.key, filepath.Join(r.dir, e.value))
	case entryFile:
		sub, err := r.include(e.path)
		if err != nil {
			return err
		}
		for p := sub.translators.Oldest(); p != nil; p = p.Next() {
			r.cfg.translators.Set(p.Key, p.Value)
		}
	default:
		return fmt.Errorf("%w: %s entry not allowed in translators", ErrInvalidEntry, e.kind)
	}
	return nil
}

func (r resolver) translation(raw rawEntry) error {
	e, err := classify(raw.value)
	if err != nil {
		return err
	}
	switch e.kind {
	case entrySimple:
		r.cfg.translation.Set(raw.key, e.value)
	case entryMulti:
		r.cfg.translation.Set(raw.key, e.values...)
	case entryDetailed:
		for _, code := range append(e.alias, raw.key) {
			r.cfg.translation.Set(code, e.value)
		}
	case entryMoreDetailed:
		for _, code := range append(e.alias, raw.key) {
			r.cfg.translation.Set(code, e.values...)
		}
	case entryFile:
		sub, err := r.include(e.path)
		if err != nil {
			return err
		}
		sub.translation.Each(func(code string, texts []string) bool {
			r.cfg.translation.Set(code, texts...)
			return true
		})
	}
	return nil
}
