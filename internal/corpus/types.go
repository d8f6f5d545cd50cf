// Package corpus holds one record per surveyed document with precomputed
// per-field token sets, and persists the whole set as an atomically
// replaced snapshot. It is the source of truth every ranking channel
// reads from.
package corpus

import (
	"strings"
	"time"
	"unicode/utf8"
)

// Language is the detected document language.
type Language string

const (
	LangZH      Language = "zh"
	LangEN      Language = "en"
	LangUnknown Language = "unknown"
)

// Provenance records how a field's text was obtained. Downstream scoring
// never string-matches markers baked into the text itself; it branches on
// this tag.
type Provenance string

const (
	// ProvenanceExtracted means the field came from a high-confidence
	// structural extraction (an actual abstract/keywords block).
	ProvenanceExtracted Provenance = "extracted"
	// ProvenanceFallback means the field was recovered heuristically
	// (first content paragraph, filename-derived keywords).
	ProvenanceFallback Provenance = "fallback"
	// ProvenanceAuto means the field was generated from term statistics.
	ProvenanceAuto Provenance = "auto"
	// ProvenanceExternal means the field came from an external metadata
	// source rather than the document text.
	ProvenanceExternal Provenance = "external"
)

// Field is a text attribute with its provenance. The zero value is an
// absent field.
type Field struct {
	Text       string     `json:"text,omitempty"`
	Provenance Provenance `json:"provenance,omitempty"`
}

// Empty reports whether the field carries no text.
func (f Field) Empty() bool { return strings.TrimSpace(f.Text) == "" }

// Token-map keys. These are also the field names the lexical scorer
// weights, so they are part of the snapshot format.
const (
	FieldFilename   = "filename"
	FieldKeywords   = "keywords"
	FieldAbstract   = "abstract"
	FieldTitle      = "title"
	FieldFirstPages = "first_pages"
	FieldFolder     = "folder"
	FieldMeta       = "meta"
	FieldTopics     = "cn_topics"
)

// DocumentRecord is one surveyed document. Records are produced by the
// extractor boundary and never modified by search; token sets are derived
// from field text by the Tokenizer alone.
type DocumentRecord struct {
	// Key is the stable unique handle (normalized filename).
	Key string `json:"key"`

	// Source tags where the document was surveyed from ("local",
	// "reference", ...). Priority orders sources for deduplication;
	// lower values win. The ordering is established by the caller
	// before the dedup pass, never inferred from it.
	Source   string `json:"source,omitempty"`
	Priority int    `json:"priority,omitempty"`

	Language Language `json:"language"`

	// NonRetrievable marks documents kept for statistics but excluded
	// from every ranking channel (unreadable scans and the like).
	NonRetrievable bool `json:"non_retrievable,omitempty"`

	// ExtractionErr records an upstream extraction failure. The record
	// stays in the store so it is visible in stats, but never ranks.
	ExtractionErr string `json:"extraction_err,omitempty"`

	Folder    string `json:"folder,omitempty"`
	Year      string `json:"year,omitempty"`
	PageCount int    `json:"page_count,omitempty"`
	IsThesis  bool   `json:"is_thesis,omitempty"`

	Title      Field `json:"title,omitzero"`
	Keywords   Field `json:"keywords,omitzero"`
	Abstract   Field `json:"abstract,omitzero"`
	FirstPages Field `json:"first_pages,omitzero"`

	// External metadata attributes.
	ExternalTitle string   `json:"external_title,omitempty"`
	Authors       []string `json:"authors,omitempty"`
	Collections   []string `json:"collections,omitempty"`
	Tags          []string `json:"tags,omitempty"`

	// Topics holds synthesized cross-lingual topic labels for documents
	// written in the other language. Whether it is persisted into the
	// snapshot or recomputed on load is a configuration choice.
	Topics string `json:"cn_topics,omitempty"`

	// Tokens maps field name to its sorted token set.
	Tokens map[string][]string `json:"tokens,omitempty"`
}

// Retrievable reports whether the document may appear in any ranking
// channel.
func (d *DocumentRecord) Retrievable() bool {
	return !d.NonRetrievable && d.ExtractionErr == ""
}

// MetaText joins the external metadata attributes into one indexable
// string.
func (d *DocumentRecord) MetaText() string {
	var parts []string
	if d.ExternalTitle != "" {
		parts = append(parts, d.ExternalTitle)
	}
	if len(d.Tags) > 0 {
		parts = append(parts, strings.Join(d.Tags, " "))
	}
	if len(d.Collections) > 0 {
		parts = append(parts, strings.Join(d.Collections, " "))
	}
	return strings.Join(parts, " ")
}

// EmbeddingText composes the text embedded for the semantic channel:
// best available title first, then keywords, the abstract truncated to
// 500 runes, and external tags/collections. Documents with almost no
// metadata fall back to a first-pages prefix. The result is capped at
// 1000 runes to stay inside model context.
func (d *DocumentRecord) EmbeddingText() string {
	var parts []string
	switch {
	case d.ExternalTitle != "":
		parts = append(parts, d.ExternalTitle)
	case !d.Title.Empty():
		parts = append(parts, d.Title.Text)
	default:
		parts = append(parts, d.Key)
	}
	if !d.Keywords.Empty() {
		parts = append(parts, d.Keywords.Text)
	}
	if !d.Abstract.Empty() {
		parts = append(parts, truncateRunes(d.Abstract.Text, 500))
	}
	if len(d.Tags) > 0 {
		parts = append(parts, strings.Join(d.Tags, " "))
	}
	if len(d.Collections) > 0 {
		parts = append(parts, strings.Join(d.Collections, " "))
	}

	text := strings.TrimSpace(strings.Join(parts, " "))
	if utf8.RuneCountInString(text) < 20 {
		text = truncateRunes(d.FirstPages.Text, 500)
	}
	return truncateRunes(text, 1000)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// KeywordCount is one entry of the keyword frequency table in BuildStats.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int    `json:"count"`
}

// BuildStats summarizes a build for the stats surface and for snapshot
// sanity checks at load time.
type BuildStats struct {
	Total      int `json:"total"`
	Added      int `json:"added"`
	Kept       int `json:"kept"`
	Removed    int `json:"removed"`
	Errors     int `json:"errors"`
	Scanned    int `json:"scanned"`
	Thesis     int `json:"thesis"`
	ExactDupes int `json:"exact_dupes"`
	FuzzyDupes int `json:"fuzzy_dupes"`

	WithAbstract int `json:"with_abstract"`
	WithKeywords int `json:"with_keywords"`

	ByLanguage   map[Language]int   `json:"by_language"`
	BySource     map[string]int     `json:"by_source"`
	ByProvenance map[Provenance]int `json:"by_abstract_provenance"`

	TopKeywords []KeywordCount `json:"top_keywords,omitempty"`

	ErrorKeys   []string `json:"error_keys,omitempty"`
	ScannedKeys []string `json:"scanned_keys,omitempty"`

	BuildDate time.Time     `json:"build_date"`
	Duration  time.Duration `json:"duration"`
}
