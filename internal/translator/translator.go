// Package translator ranks dictionary entries and scripted rules against the
// code typed so far and returns the candidates shown to the user.
package translator

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Confidence of each kind of match.
const (
	ExactConfidence  = 1.0
	PrefixConfidence = 0.5
	RuleConfidence   = 1.0
)

// DefaultSimilarity is the usual threshold for the similarity tier.
const DefaultSimilarity = 0.7

// Predicate is a translation candidate.
type Predicate struct {
	// Code is the full dictionary key that matched.
	Code string `json:"code"`
	// RemainingCode is the part of Code not typed yet.
	RemainingCode string `json:"remaining_code"`
	// Texts are the possible renderings.
	Texts []string `json:"texts"`
	// CanCommit marks a candidate that may be applied without confirmation.
	CanCommit bool `json:"can_commit"`
}

// Rule is a programmable translation. It reports ok=false when input does
// not concern it.
type Rule interface {
	Translate(input string) (p Predicate, ok bool, err error)
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(input string) (Predicate, bool, error)

// Translate calls f.
func (f RuleFunc) Translate(input string) (Predicate, bool, error) { return f(input) }

// Option configures a Translator.
type Option func(*Translator)

// WithSimilarity enables the similarity tier. Same-length codes whose
// normalized Hamming similarity is above threshold are proposed. A threshold
// outside (0, 1) disables the tier.
func WithSimilarity(threshold float64) Option {
	return func(t *Translator) {
		if threshold > 0 && threshold < 1 {
			t.similarity = threshold
		}
	}
}

// WithLogger sets the logger used to report failing rules.
func WithLogger(l *slog.Logger) Option {
	return func(t *Translator) {
		if l != nil {
			t.logger = l
		}
	}
}

// Translator is not safe for concurrent use.
type Translator struct {
	dictionary *Dictionary
	rules      *orderedmap.OrderedMap[string, Rule]
	autoCommit bool
	similarity float64
	logger     *slog.Logger
}

// New returns a translator over dictionary. Exact matches carry autoCommit
// as their CanCommit flag.
func New(dictionary *Dictionary, autoCommit bool, opts ...Option) *Translator {
	if dictionary == nil {
		dictionary = NewDictionary()
	}
	t := &Translator{
		dictionary: dictionary,
		rules:      orderedmap.New[string, Rule](),
		autoCommit: autoCommit,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds rule under name, replacing any rule of the same name in place.
func (t *Translator) Register(name string, rule Rule) {
	t.rules.Set(name, rule)
}

// Unregister removes the rule called name. Unknown names are ignored.
func (t *Translator) Unregister(name string) {
	t.rules.Delete(name)
}

// Rules returns the registered rule names in registration order.
func (t *Translator) Rules() []string {
	names := make([]string, 0, t.rules.Len())
	for pair := t.rules.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

// AutoCommit reports the flag given to New.
func (t *Translator) AutoCommit() bool { return t.autoCommit }

// Dictionary returns the backing dictionary.
func (t *Translator) Dictionary() *Dictionary { return t.dictionary }

type scored struct {
	confidence float64
	predicate  Predicate
}

// Translate returns the candidates for input, best first. Candidates of equal
// confidence keep dictionary order, then rule registration order.
//
// Dictionary entries are only considered for inputs of two characters or
// more that share their first character with the code. Rules see every input.
func (t *Translator) Translate(input string) []Predicate {
	var found []scored

	t.dictionary.Each(func(code string, texts []string) bool {
		if s, ok := t.match(code, texts, input); ok {
			found = append(found, s)
		}
		return true
	})

	for pair := t.rules.Oldest(); pair != nil; pair = pair.Next() {
		p, ok, err := callRule(pair.Value, input)
		if err != nil {
			t.logger.Warn("translation rule failed", "rule", pair.Key, "input", input, "error", err)
			continue
		}
		if ok {
			found = append(found, scored{RuleConfidence, p})
		}
	}

	slices.SortStableFunc(found, func(a, b scored) int {
		return cmp.Compare(b.confidence, a.confidence)
	})

	out := make([]Predicate, len(found))
	for i, s := range found {
		out[i] = s.predicate
	}
	return out
}

func (t *Translator) match(code string, texts []string, input string) (scored, bool) {
	inputLen := utf8.RuneCountInString(input)
	codeLen := utf8.RuneCountInString(code)
	if inputLen < 2 || inputLen > codeLen || !sameFirstRune(code, input) {
		return scored{}, false
	}

	if code == input {
		return scored{ExactConfidence, Predicate{
			Code:      code,
			Texts:     slices.Clone(texts),
			CanCommit: t.autoCommit,
		}}, true
	}

	if t.similarity > 0 && codeLen == inputLen {
		if d, err := edlib.HammingDistance(code, input); err == nil {
			confidence := 1 - float64(d)/float64(codeLen)
			if confidence > t.similarity {
				return scored{confidence, Predicate{Code: code, Texts: slices.Clone(texts)}}, true
			}
		}
	}

	if strings.HasPrefix(code, input) {
		return scored{PrefixConfidence, Predicate{
			Code:          code,
			RemainingCode: code[len(input):],
			Texts:         slices.Clone(texts),
		}}, true
	}
	return scored{}, false
}

func sameFirstRune(a, b string) bool {
	ra, _ := utf8.DecodeRuneInString(a)
	rb, _ := utf8.DecodeRuneInString(b)
	return ra == rb
}

func callRule(rule Rule, input string) (p Predicate, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			p, ok, err = Predicate{}, false, fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Translate(input)
}
