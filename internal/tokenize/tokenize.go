// Package tokenize normalizes mixed-script text into searchable term sets.
// Latin-script words are extracted by pattern, CJK text goes through a
// dictionary-augmented segmenter in search mode (long and short overlapping
// candidates for recall). Output is always a sorted, deduplicated set.
package tokenize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/go-ego/gse"
)

// MinTermLength is the minimum term length in code points. Shorter terms
// carry almost no retrieval signal and are dropped in every mode.
const MinTermLength = 2

// latinRegex matches Latin-script word runs: a letter followed by letters,
// digits, hyphens or underscores. The pattern itself enforces length >= 2.
var latinRegex = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9_-]+`)

// hanRegex matches runs of CJK unified ideographs.
var hanRegex = regexp.MustCompile(`\p{Han}+`)

// Tokenizer converts free text into term sets. It is safe for concurrent
// use after construction: the segmenter dictionary and stop-word sets are
// read-only once New returns.
type Tokenizer struct {
	seg    gse.Segmenter
	stopZH map[string]struct{}
}

// New creates a Tokenizer with the bundled segmenter dictionary augmented
// by the given domain vocabulary. Domain terms get a high frequency so the
// segmenter prefers them over smaller fragments.
func New(domainWords []string) (*Tokenizer, error) {
	seg, err := gse.New()
	if err != nil {
		return nil, err
	}
	for _, w := range domainWords {
		if err := seg.AddToken(w, 100); err != nil {
			return nil, err
		}
	}
	return &Tokenizer{
		seg:    seg,
		stopZH: buildSet(StopWordsZH),
	}, nil
}

// Tokenize returns the sorted term set for text. It is pure and idempotent:
// the same input always yields the same set, independent of any internal
// iteration order.
func (t *Tokenizer) Tokenize(text string) []string {
	set := make(map[string]struct{})

	for _, w := range latinRegex.FindAllString(text, -1) {
		set[strings.ToLower(w)] = struct{}{}
	}

	// Segment all Han runs together, search mode for overlapping candidates.
	if zh := strings.Join(hanRegex.FindAllString(text, -1), ""); zh != "" {
		for _, w := range t.seg.CutSearch(zh, true) {
			if t.keepZH(w) {
				set[w] = struct{}{}
			}
		}
	}

	terms := make([]string, 0, len(set))
	for term := range set {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// QueryTerms extracts the terms of a query string in order of first
// appearance, deduplicated. Unlike Tokenize it uses plain segmentation
// (no overlapping candidates): a query wants its concepts once each, not
// every sub-word of them.
func (t *Tokenizer) QueryTerms(query string) []string {
	var terms []string
	seen := make(map[string]struct{})
	add := func(w string) {
		if _, dup := seen[w]; dup {
			return
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}

	for _, w := range latinRegex.FindAllString(query, -1) {
		add(strings.ToLower(w))
	}

	for _, zh := range hanRegex.FindAllString(query, -1) {
		for _, w := range t.seg.Cut(zh, true) {
			if t.keepZH(w) {
				add(w)
			}
		}
	}

	return terms
}

func (t *Tokenizer) keepZH(w string) bool {
	if len([]rune(w)) < MinTermLength {
		return false
	}
	_, stop := t.stopZH[w]
	return !stop
}

func buildSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
