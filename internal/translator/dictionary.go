package translator

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Dictionary maps codes to their renderings and remembers insertion order,
// which breaks ties between equally ranked predicates.
type Dictionary struct {
	entries *orderedmap.OrderedMap[string, []string]
}

// NewDictionary returns an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{entries: orderedmap.New[string, []string]()}
}

// Set stores texts under code. Replacing a code keeps its original position.
func (d *Dictionary) Set(code string, texts ...string) {
	d.entries.Set(code, texts)
}

// Get returns the texts stored under code.
func (d *Dictionary) Get(code string) ([]string, bool) {
	return d.entries.Get(code)
}

// Delete removes code, keeping the order of the remaining entries.
func (d *Dictionary) Delete(code string) {
	d.entries.Delete(code)
}

// Len returns the number of codes.
func (d *Dictionary) Len() int {
	if d == nil {
		return 0
	}
	return d.entries.Len()
}

// Each calls fn for every entry in insertion order until fn returns false.
func (d *Dictionary) Each(fn func(code string, texts []string) bool) {
	if d == nil {
		return
	}
	for pair := d.entries.Oldest(); pair != nil; pair = pair.Next() {
		if !fn(pair.Key, pair.Value) {
			return
		}
	}
}

// Keys returns the codes in insertion order.
func (d *Dictionary) Keys() []string {
	keys := make([]string, 0, d.Len())
	d.Each(func(code string, _ []string) bool {
		keys = append(keys, code)
		return true
	})
	return keys
}
