package search

import "github.com/scholium/scholium/internal/corpus"

// Mode selects which ranking channels a query runs through.
type Mode string

const (
	// ModeHybrid fuses lexical, semantic and cross-lingual channels.
	ModeHybrid Mode = "hybrid"
	// ModeLexical runs the keyword channel only.
	ModeLexical Mode = "lexical"
	// ModeSemantic runs the embedding channel only.
	ModeSemantic Mode = "semantic"
)

// Request is one search query with its filters.
type Request struct {
	// Query is the main query text, zh or en or mixed.
	Query string

	// Mode selects the channels; empty means hybrid.
	Mode Mode

	// Limit caps the number of returned results; 0 uses the engine
	// default.
	Limit int

	// Folder keeps only documents whose folder contains this substring.
	Folder string

	// ExcludeFallback drops documents whose abstract came from the
	// fallback extractor.
	ExcludeFallback bool

	// ExtraQueries are auxiliary caller-supplied query strings (for
	// example a caller's own higher-quality translation). Each runs its
	// own lexical and semantic channels and fuses with the main query.
	ExtraQueries []string
}

// Result is one fused search result with full ranking provenance.
type Result struct {
	Key string
	Doc *corpus.DocumentRecord

	// RRFScore is the fused score the final ordering came from.
	RRFScore float64

	// LexicalScore is the field-weighted score from the first lexical
	// channel that matched this document, 0 if none did.
	LexicalScore float64

	// Similarity is the best semantic similarity across all semantic
	// channels, 0 if the document never ranked semantically.
	Similarity float64

	// LexicalRank and SemanticRank are this document's 1-indexed
	// positions in the main query's channels, -1 when absent.
	LexicalRank  int
	SemanticRank int

	MatchedFields []string
	MatchedTerms  []string
}

// Response carries the fused results plus query-level diagnostics.
type Response struct {
	Results []Result

	// MatchedTopics are topic table entries the main query expanded
	// through.
	MatchedTopics []string
}
