// Package xlate implements the cross-lingual bridge: deterministic
// zh→en query translation for opening a lexical channel into
// English-language documents, and the reverse en→zh tag synthesis that
// makes English documents matchable by Chinese topic queries.
//
// Translation is table-driven (configs/translations.yaml) and fully
// deterministic: full-query templates are tried first, then a
// longest-match walk over the term table. No external translation
// service is involved.
package xlate

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/scholium/scholium/configs"
	"github.com/scholium/scholium/internal/corpus"
)

// CJK punctuation and brackets stripped before any table lookup.
const queryPunct = "，。、：；？！“”‘’（）()"

// Single-character function words dropped in the word-level walk. The
// phrase-level path keeps them because template keys contain them.
const functionWords = "的与和对在于中"

// Folder names are probed for these topic characters when synthesizing
// tags for a document filed under a Chinese-named folder.
var folderTopicKeywords = []string{
	"物候", "水文", "蒸散发", "径流", "气候", "生长季", "植被", "森林",
	"干旱", "碳", "遥感", "模型", "归因",
}

// Bridge holds the loaded translation tables with their lookup order
// precomputed. Safe for concurrent use after construction.
type Bridge struct {
	templates    map[string]string // space-normalized zh query -> en query
	templateKeys []string          // normalized keys, longest first
	terms        map[string]string
	termKeys     []string // longest first
	enTags       map[string]string
	enTagKeys    []string // longest first
	compound     []configs.CompoundRule
}

// New builds a Bridge from parsed translation tables.
func New(t *configs.Translations) *Bridge {
	b := &Bridge{
		templates: make(map[string]string, len(t.Templates)),
		terms:     t.Terms,
		enTags:    t.EnTags,
		compound:  t.CompoundRules,
	}
	for k, v := range t.Templates {
		b.templates[stripSpace(k)] = v
	}
	b.templateKeys = configs.SortedByLengthDesc(b.templates)
	b.termKeys = configs.SortedByLengthDesc(b.terms)
	b.enTagKeys = configs.SortedByLengthDesc(b.enTags)
	return b
}

// NewFromEmbedded builds a Bridge from the embedded translation tables.
func NewFromEmbedded() (*Bridge, error) {
	t, err := configs.LoadTranslations()
	if err != nil {
		return nil, err
	}
	return New(t), nil
}

// TranslatePhrase translates a Chinese query for the semantic channel.
// Exact template match wins, then containment in a longer template, then
// a longest-match term walk. Never gated: a partial translation is still
// useful as embedding input.
func (b *Bridge) TranslatePhrase(query string) string {
	q := normalize(query, false)
	if q == "" {
		return ""
	}
	if en, ok := b.templates[q]; ok {
		return en
	}
	for _, key := range b.templateKeys {
		if strings.Contains(key, q) {
			return b.templates[key]
		}
	}
	parts, _ := b.walk(q)
	return strings.Join(parts, " ")
}

// TranslateTerms translates a Chinese query word-by-word for the
// cross-lingual lexical channel. If fewer than half of the query's Han
// characters are covered by the term table the translation is discarded
// (covered=false): a half-translated query of place names and jargon
// matches everything and ranks nothing.
func (b *Bridge) TranslateTerms(query string) (out string, covered bool) {
	q := normalize(query, true)
	total := countHan(q)
	parts, translated := b.walk(q)
	if total > 0 && float64(translated)/float64(total) < 0.5 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// SynthesizeTags derives Chinese topic labels for an English-language
// document by longest-key substring matching over its metadata text,
// probing the folder name, and finally applying compound rules. Returned
// sorted for stable snapshots.
func (b *Bridge) SynthesizeTags(d *corpus.DocumentRecord) []string {
	var parts []string
	for _, t := range []string{d.Keywords.Text, d.Abstract.Text, d.Title.Text} {
		if t != "" {
			parts = append(parts, t)
		}
	}
	text := strings.ToLower(strings.Join(parts, " "))
	// Thin metadata: fall back to the first pages.
	if utf8.RuneCountInString(text) < 100 && !d.FirstPages.Empty() {
		text += " " + strings.ToLower(truncateRunes(d.FirstPages.Text, 2000))
	}

	tags := make(map[string]bool)
	for _, en := range b.enTagKeys {
		if strings.Contains(text, en) {
			tags[b.enTags[en]] = true
		}
	}
	if d.Folder != "" {
		for _, kw := range folderTopicKeywords {
			if strings.Contains(d.Folder, kw) {
				tags[kw] = true
			}
		}
	}
	for _, rule := range b.compound {
		if allPresent(tags, rule.When) {
			tags[rule.Tag] = true
		}
	}

	out := make([]string, 0, len(tags))
	for t := range tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// walk consumes text left to right, preferring the longest term-table
// key at each position, passing through Latin words, and skipping
// anything else one rune at a time. Duplicate translations are emitted
// once, in first-match order.
func (b *Bridge) walk(text string) (parts []string, translatedHan int) {
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			parts = append(parts, s)
		}
	}
	for len(text) > 0 {
		matched := false
		for _, key := range b.termKeys {
			if strings.HasPrefix(text, key) {
				add(b.terms[key])
				translatedHan += countHan(key)
				text = text[len(key):]
				matched = true
				break
			}
		}
		if matched {
			continue
		}
		if w := leadingLatinWord(text); w != "" {
			add(w)
			text = text[len(w):]
			continue
		}
		_, size := utf8.DecodeRuneInString(text)
		text = text[size:]
	}
	return parts, translatedHan
}

// HasHan reports whether s contains at least one CJK ideograph.
func HasHan(s string) bool {
	for _, r := range s {
		if isHan(r) {
			return true
		}
	}
	return false
}

func isHan(r rune) bool {
	return r >= 0x4e00 && r <= 0x9fff
}

func countHan(s string) int {
	n := 0
	for _, r := range s {
		if isHan(r) {
			n++
		}
	}
	return n
}

func normalize(s string, dropFunctionWords bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || strings.ContainsRune(queryPunct, r) {
			continue
		}
		if dropFunctionWords && strings.ContainsRune(functionWords, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func leadingLatinWord(s string) string {
	i := 0
	for i < len(s) {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			i++
			continue
		}
		break
	}
	return s[:i]
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func allPresent(set map[string]bool, want []string) bool {
	if len(want) == 0 {
		return false
	}
	for _, w := range want {
		if !set[w] {
			return false
		}
	}
	return true
}
