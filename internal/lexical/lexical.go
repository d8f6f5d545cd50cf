// Package lexical implements the field-weighted keyword ranking channel.
//
// Scoring is deliberately simple and fully explainable: per-field term
// overlap with fixed weights, a handful of multiplicative quality
// adjustments, and a coverage bonus favoring documents that match all of
// the query's concepts. Synonym expansion comes from the topic table in
// configs/topics.yaml.
package lexical

import (
	"sort"
	"strings"

	"github.com/scholium/scholium/configs"
	"github.com/scholium/scholium/internal/corpus"
	"github.com/scholium/scholium/internal/tokenize"
)

// Per-field weights. Keywords dominate; the first-pages excerpt is a
// weak last resort and is only tokenized for documents with neither
// abstract nor keywords. Topic labels get a moderate weight so synthesized
// tags on English papers do not crowd out native Chinese matches.
var fieldWeights = []struct {
	Field  string
	Weight float64
}{
	{corpus.FieldFilename, 3.0},
	{corpus.FieldKeywords, 5.0},
	{corpus.FieldAbstract, 4.0},
	{corpus.FieldTitle, 3.5},
	{corpus.FieldFirstPages, 1.0},
	{corpus.FieldFolder, 2.0},
	{corpus.FieldMeta, 2.5},
	{corpus.FieldTopics, 3.0},
}

const (
	exactWeight    = 2.0
	expandedWeight = 0.5

	extractedAbstractBoost = 1.2
	fallbackAbstractBoost  = 1.05
	keywordsBoost          = 1.1
	multiFieldBoost        = 1.3
)

// Match is one scored document with its ranking provenance.
type Match struct {
	Key           string
	Score         float64
	MatchedFields []string
	MatchedTerms  []string
}

// Options filter the candidate set before scoring.
type Options struct {
	// Folder keeps only documents whose folder contains this substring.
	Folder string
	// Denylist drops documents whose key contains any of these substrings.
	Denylist []string
	// ExcludeFallback drops documents whose abstract came from the
	// fallback extractor.
	ExcludeFallback bool
	// Limit caps the number of returned matches; 0 means no cap.
	Limit int
}

// Scorer ranks documents against a query. Read-only after construction.
type Scorer struct {
	topics     map[string][]string
	topicNames []string            // sorted, for deterministic matched-topic order
	lowerSyns  map[string][]string // topic -> case-folded synonyms
}

// New builds a Scorer over a topic expansion table.
func New(topics map[string][]string) *Scorer {
	s := &Scorer{
		topics:    topics,
		lowerSyns: make(map[string][]string, len(topics)),
	}
	for name, syns := range topics {
		s.topicNames = append(s.topicNames, name)
		lower := make([]string, len(syns))
		for i, syn := range syns {
			lower[i] = strings.ToLower(syn)
		}
		s.lowerSyns[name] = lower
	}
	sort.Strings(s.topicNames)
	return s
}

// NewFromEmbedded builds a Scorer over the embedded topic table.
func NewFromEmbedded() (*Scorer, error) {
	topics, err := configs.TopicExpansions()
	if err != nil {
		return nil, err
	}
	return New(topics), nil
}

// Expand widens query terms with topic synonyms. A term joins a topic
// when it equals one of the topic's synonyms (case-insensitive) or is a
// substring of the topic's canonical label. Expansion is additive:
// expanded always contains every query term.
func (s *Scorer) Expand(queryTerms []string) (expanded map[string]bool, matchedTopics []string) {
	expanded = make(map[string]bool, len(queryTerms)*4)
	for _, t := range queryTerms {
		expanded[t] = true
		expanded[strings.ToLower(t)] = true
	}
	seen := make(map[string]bool)
	for _, term := range queryTerms {
		termLower := strings.ToLower(term)
		for _, topic := range s.topicNames {
			hit := strings.Contains(topic, term)
			if !hit {
				for _, syn := range s.lowerSyns[topic] {
					if syn == termLower {
						hit = true
						break
					}
				}
			}
			if !hit {
				continue
			}
			for _, syn := range s.lowerSyns[topic] {
				expanded[syn] = true
			}
			if !seen[topic] {
				seen[topic] = true
				matchedTopics = append(matchedTopics, topic)
			}
		}
	}
	return expanded, matchedTopics
}

// Score computes the weighted overlap between one document's token sets
// and the query. Exact matches count double weight and mark the field as
// matched; expansion-only matches contribute a quarter of that and widen
// matched terms without marking the field. A zero score means the
// document should not appear in results.
func (s *Scorer) Score(d *corpus.DocumentRecord, queryTokens, expandedTokens map[string]bool) (float64, []string, map[string]bool) {
	score := 0.0
	var matchedFields []string
	matchedTerms := make(map[string]bool)

	for _, fw := range fieldWeights {
		terms := d.Tokens[fw.Field]
		if len(terms) == 0 {
			continue
		}
		exact, expandedOnly := 0, 0
		fieldExact := false
		for _, term := range terms {
			if queryTokens[term] {
				exact++
				matchedTerms[term] = true
				fieldExact = true
			} else if expandedTokens[term] {
				expandedOnly++
				matchedTerms[term] = true
			}
		}
		if exact > 0 {
			score += float64(exact) * fw.Weight * exactWeight
		}
		if expandedOnly > 0 {
			score += float64(expandedOnly) * fw.Weight * expandedWeight
		}
		if fieldExact {
			matchedFields = append(matchedFields, fw.Field)
		}
	}

	if !d.Abstract.Empty() {
		if d.Abstract.Provenance == corpus.ProvenanceFallback {
			score *= fallbackAbstractBoost
		} else {
			score *= extractedAbstractBoost
		}
	}
	if !d.Keywords.Empty() {
		score *= keywordsBoost
	}
	if len(matchedFields) >= 3 {
		score *= multiFieldBoost
	}

	// Concept coverage: papers matching all query terms beat papers
	// matching one term strongly.
	if len(queryTokens) >= 2 {
		covered := 0
		for t := range queryTokens {
			if matchedTerms[t] {
				covered++
			}
		}
		switch coverage := float64(covered) / float64(len(queryTokens)); {
		case coverage >= 0.9:
			score *= 2.0
		case coverage >= 0.7:
			score *= 1.5
		case coverage >= 0.5:
			score *= 1.2
		}
	}

	return score, matchedFields, matchedTerms
}

// Search ranks the whole store against a query string. Results are
// ordered by descending score with ties broken by key, and collapsed by
// normalized key so numbered copies of one paper surface once.
func (s *Scorer) Search(store *corpus.Store, tok *tokenize.Tokenizer, query string, opts Options) ([]Match, []string) {
	queryTerms := tok.QueryTerms(query)
	queryTokens := make(map[string]bool, len(queryTerms))
	for _, t := range queryTerms {
		queryTokens[t] = true
	}
	expanded, matchedTopics := s.Expand(queryTerms)

	var matches []Match
	store.All(func(d *corpus.DocumentRecord) {
		if !s.eligible(d, opts) {
			return
		}
		score, fields, terms := s.Score(d, queryTokens, expanded)
		if score <= 0 {
			return
		}
		matches = append(matches, Match{
			Key:           d.Key,
			Score:         score,
			MatchedFields: fields,
			MatchedTerms:  sortedKeys(terms),
		})
	})

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Key < matches[j].Key
	})

	matches = dedupeByNormalizedKey(matches)
	if opts.Limit > 0 && len(matches) > opts.Limit {
		matches = matches[:opts.Limit]
	}
	return matches, matchedTopics
}

// eligible applies the hard pre-filters shared with the semantic channel.
func (s *Scorer) eligible(d *corpus.DocumentRecord, opts Options) bool {
	if !d.Retrievable() {
		return false
	}
	if opts.Folder != "" && !strings.Contains(d.Folder, opts.Folder) {
		return false
	}
	for _, deny := range opts.Denylist {
		if strings.Contains(d.Key, deny) {
			return false
		}
	}
	if opts.ExcludeFallback && d.Abstract.Provenance == corpus.ProvenanceFallback {
		return false
	}
	return true
}

// Eligible reports whether d passes the channel pre-filters. Exposed for
// the semantic channel, which shares the exact same exclusion rules.
func Eligible(d *corpus.DocumentRecord, opts Options) bool {
	return (&Scorer{}).eligible(d, opts)
}

func dedupeByNormalizedKey(matches []Match) []Match {
	seen := make(map[string]bool, len(matches))
	out := matches[:0]
	for _, m := range matches {
		norm := corpus.NormalizeKey(m.Key)
		if seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, m)
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
