package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// Table names holding ordered entries.
const (
	tableData        = "data"
	tableTranslation = "translation"
	tableTranslators = "translators"
)

// rawEntry is one key of an entry table, decoded but not yet classified.
type rawEntry struct {
	key   string
	value any
}

type document struct {
	settings Settings
	tables   map[string][]rawEntry
}

func decode(path string, content []byte) (*document, error) {
	var (
		doc *document
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		doc, err = decodeYAML(content)
	case ".json":
		doc, err = decodeJSON(content)
	default:
		doc, err = decodeTOML(content)
	}
	if err != nil {
		return nil, err
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func decodeTOML(content []byte) (*document, error) {
	raw := struct {
		Settings
		Data        map[string]toml.Primitive `toml:"data"`
		Translation map[string]toml.Primitive `toml:"translation"`
		Translators map[string]toml.Primitive `toml:"translators"`
	}{Settings: DefaultSettings()}

	md, err := toml.Decode(string(content), &raw)
	if err != nil {
		return nil, fmt.Errorf("decode TOML: %w", err)
	}

	doc := &document{settings: raw.Settings, tables: make(map[string][]rawEntry)}
	prims := map[string]map[string]toml.Primitive{
		tableData:        raw.Data,
		tableTranslation: raw.Translation,
		tableTranslators: raw.Translators,
	}
	// Keys lists every key in document order, nested ones included.
	for _, key := range md.Keys() {
		if len(key) != 2 {
			continue
		}
		table, ok := prims[key[0]]
		if !ok {
			continue
		}
		prim, ok := table[key[1]]
		if !ok {
			continue
		}
		var value any
		if err := md.PrimitiveDecode(prim, &value); err != nil {
			return nil, fmt.Errorf("decode %s.%s: %w", key[0], key[1], err)
		}
		doc.tables[key[0]] = append(doc.tables[key[0]], rawEntry{key: key[1], value: value})
	}
	return doc, nil
}

func decodeYAML(content []byte) (*document, error) {
	doc := &document{settings: DefaultSettings(), tables: make(map[string][]rawEntry)}
	if err := yaml.Unmarshal(content, &doc.settings); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("decode YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return doc, nil
	}
	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("decode YAML: top level must be a mapping")
	}

	for i := 0; i+1 < len(top.Content); i += 2 {
		name := top.Content[i].Value
		if !isEntryTable(name) {
			continue
		}
		table := top.Content[i+1]
		if table.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("decode YAML: %s must be a mapping", name)
		}
		for j := 0; j+1 < len(table.Content); j += 2 {
			var value any
			if err := table.Content[j+1].Decode(&value); err != nil {
				return nil, fmt.Errorf("decode %s.%s: %w", name, table.Content[j].Value, err)
			}
			doc.tables[name] = append(doc.tables[name], rawEntry{key: table.Content[j].Value, value: value})
		}
	}
	return doc, nil
}

func decodeJSON(content []byte) (*document, error) {
	raw := struct {
		Settings
		Data        *orderedmap.OrderedMap[string, any] `json:"data"`
		Translation *orderedmap.OrderedMap[string, any] `json:"translation"`
		Translators *orderedmap.OrderedMap[string, any] `json:"translators"`
	}{Settings: DefaultSettings()}

	dec := json.NewDecoder(bytes.NewReader(content))
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode JSON: %w", err)
	}

	doc := &document{settings: raw.Settings, tables: make(map[string][]rawEntry)}
	for name, table := range map[string]*orderedmap.OrderedMap[string, any]{
		tableData:        raw.Data,
		tableTranslation: raw.Translation,
		tableTranslators: raw.Translators,
	} {
		if table == nil {
			continue
		}
		for p := table.Oldest(); p != nil; p = p.Next() {
			doc.tables[name] = append(doc.tables[name], rawEntry{key: p.Key, value: p.Value})
		}
	}
	return doc, nil
}

func isEntryTable(name string) bool {
	return name == tableData || name == tableTranslation || name == tableTranslators
}
