package corpus

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/scholium/scholium/internal/errors"
	"github.com/scholium/scholium/internal/tokenize"
)

// numberedPrefix matches reading-order prefixes that collectors prepend to
// filenames ("03-", "论文12. "). Stripping it lets two copies of the same
// paper collapse in the fuzzy dedup tier.
var numberedPrefix = regexp.MustCompile(`^(?:论文)?\d+[.\-\s]+`)

// NormalizeKey reduces a document key for fuzzy duplicate detection:
// numbered prefixes are stripped and all spaces removed.
func NormalizeKey(key string) string {
	k := numberedPrefix.ReplaceAllString(key, "")
	return strings.ReplaceAll(k, " ", "")
}

// Store is the in-memory document set. It is read-only after Rebuild or
// Load; ranking channels share it without locking.
type Store struct {
	docs  map[string]*DocumentRecord
	order []string
	stats BuildStats
}

// Get returns the record for key, or nil.
func (s *Store) Get(key string) *DocumentRecord { return s.docs[key] }

// Len returns the number of records, including non-retrievable ones.
func (s *Store) Len() int { return len(s.order) }

// Keys returns all document keys in ascending order.
func (s *Store) Keys() []string { return s.order }

// All iterates records in key order.
func (s *Store) All(fn func(*DocumentRecord)) {
	for _, k := range s.order {
		fn(s.docs[k])
	}
}

// Stats returns the build statistics recorded with the set.
func (s *Store) Stats() BuildStats { return s.stats }

// StampBuild records when the build ran and how long it took.
func (s *Store) StampBuild(date time.Time, elapsed time.Duration) {
	s.stats.BuildDate = date
	s.stats.Duration = elapsed
}

// Rebuild assembles a Store from surveyed records. Records are processed
// in source priority order (stable within a source), duplicates collapse
// first-seen-wins in two tiers (exact key, then normalized key), and any
// missing token sets are computed. The same inputs always yield the same
// Store.
func Rebuild(tok *tokenize.Tokenizer, docs []*DocumentRecord) (*Store, error) {
	if tok == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "rebuild requires a tokenizer", nil)
	}
	ordered := make([]*DocumentRecord, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	s := &Store{docs: make(map[string]*DocumentRecord, len(ordered))}
	seenNorm := make(map[string]string, len(ordered))
	for _, d := range ordered {
		if d.Key == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "document record has empty key", nil)
		}
		if _, dup := s.docs[d.Key]; dup {
			s.stats.ExactDupes++
			continue
		}
		norm := NormalizeKey(d.Key)
		if _, dup := seenNorm[norm]; dup {
			s.stats.FuzzyDupes++
			continue
		}
		seenNorm[norm] = d.Key
		if d.Tokens == nil {
			ComputeTokens(tok, d)
		}
		s.docs[d.Key] = d
		s.order = append(s.order, d.Key)
	}
	sort.Strings(s.order)
	s.summarize()
	return s, nil
}

// Merge folds a fresh survey into an existing store for an incremental
// build: records whose key already exists are kept verbatim unless stale
// reports them changed, new keys are added, and keys absent from the
// survey are dropped. Dedup and stats run over the merged set exactly as
// in Rebuild.
func Merge(tok *tokenize.Tokenizer, prev *Store, surveyed []*DocumentRecord, stale func(key string) bool) (*Store, error) {
	merged := make([]*DocumentRecord, 0, len(surveyed))
	var added, kept int
	for _, d := range surveyed {
		if prev != nil {
			if old := prev.Get(d.Key); old != nil && (stale == nil || !stale(d.Key)) {
				merged = append(merged, old)
				kept++
				continue
			}
		}
		merged = append(merged, d)
		added++
	}
	s, err := Rebuild(tok, merged)
	if err != nil {
		return nil, err
	}
	s.stats.Added = added
	s.stats.Kept = kept
	if prev != nil {
		for _, k := range prev.Keys() {
			if s.Get(k) == nil {
				s.stats.Removed++
			}
		}
	}
	return s, nil
}

// ComputeTokens fills d.Tokens from the record's field text. First-page
// tokens are only materialized when both abstract and keywords are
// missing; otherwise the field stays untokenized to keep snapshots small.
func ComputeTokens(tok *tokenize.Tokenizer, d *DocumentRecord) {
	t := make(map[string][]string, 6)
	put := func(field, text string) {
		if strings.TrimSpace(text) == "" {
			return
		}
		if terms := tok.Tokenize(text); len(terms) > 0 {
			t[field] = terms
		}
	}
	put(FieldFilename, d.Key)
	put(FieldKeywords, d.Keywords.Text)
	put(FieldAbstract, d.Abstract.Text)
	put(FieldTitle, d.Title.Text)
	put(FieldFolder, d.Folder)
	put(FieldMeta, d.MetaText())
	put(FieldTopics, d.Topics)
	if d.Abstract.Empty() && d.Keywords.Empty() {
		put(FieldFirstPages, d.FirstPages.Text)
	}
	d.Tokens = t
}

// summarize recomputes the aggregate counters from the record set. Merge
// overwrites the added/kept/removed deltas afterwards.
func (s *Store) summarize() {
	st := &s.stats
	st.Total = len(s.order)
	st.ByLanguage = make(map[Language]int)
	st.BySource = make(map[string]int)
	st.ByProvenance = make(map[Provenance]int)
	kw := make(map[string]int)
	st.ErrorKeys = st.ErrorKeys[:0]
	st.ScannedKeys = st.ScannedKeys[:0]
	st.Errors, st.Scanned, st.Thesis = 0, 0, 0
	st.WithAbstract, st.WithKeywords = 0, 0
	for _, k := range s.order {
		d := s.docs[k]
		st.ByLanguage[d.Language]++
		if d.Source != "" {
			st.BySource[d.Source]++
		}
		if d.ExtractionErr != "" {
			st.Errors++
			st.ErrorKeys = append(st.ErrorKeys, k)
		}
		if d.NonRetrievable {
			st.Scanned++
			st.ScannedKeys = append(st.ScannedKeys, k)
		}
		if d.IsThesis {
			st.Thesis++
		}
		if !d.Abstract.Empty() {
			st.WithAbstract++
			st.ByProvenance[d.Abstract.Provenance]++
		}
		if !d.Keywords.Empty() {
			st.WithKeywords++
			for _, term := range d.Tokens[FieldKeywords] {
				kw[term]++
			}
		}
	}
	st.TopKeywords = topKeywords(kw, 20)
}

func topKeywords(counts map[string]int, n int) []KeywordCount {
	out := make([]KeywordCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, KeywordCount{Keyword: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Keyword < out[j].Keyword
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
