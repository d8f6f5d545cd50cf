package index

import (
	"context"
	"regexp"
	"strings"

	"github.com/scholium/scholium/internal/corpus"
)

// Extractor turns one surveyed file into a document record. Rich
// implementations parse the document text (abstract, keywords, first
// pages); the boundary only requires that Key, Language and the survey
// attributes are filled and that failures are reported through
// ExtractionErr on the returned record, not by dropping it.
type Extractor interface {
	Extract(ctx context.Context, file SurveyFile) *corpus.DocumentRecord
}

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// MetadataExtractor builds records from the filename and the external
// metadata export alone, without opening the document. It is the
// default boundary implementation; text-level extraction plugs in
// behind the same interface.
type MetadataExtractor struct {
	meta map[string]ExternalMeta
}

// NewMetadataExtractor creates an extractor enriching records from the
// given external metadata map, which may be nil.
func NewMetadataExtractor(meta map[string]ExternalMeta) *MetadataExtractor {
	return &MetadataExtractor{meta: meta}
}

func (e *MetadataExtractor) Extract(_ context.Context, file SurveyFile) *corpus.DocumentRecord {
	stem := strings.TrimSuffix(file.Name, ".pdf")
	stem = strings.TrimSuffix(stem, ".PDF")

	d := &corpus.DocumentRecord{
		Key:      file.Name,
		Source:   file.Source,
		Priority: file.Priority,
		Folder:   file.Folder,
		Language: detectLanguage(stem),
		Year:     yearPattern.FindString(file.Name),
		Title:    corpus.Field{Text: stem, Provenance: corpus.ProvenanceFallback},
	}

	if m, ok := e.meta[file.Name]; ok {
		d.ExternalTitle = m.Title
		d.Authors = m.Authors
		d.Collections = m.Collections
		d.Tags = m.Tags
		if d.Year == "" {
			d.Year = m.Year
		}
		if m.Abstract != "" {
			d.Abstract = corpus.Field{Text: m.Abstract, Provenance: corpus.ProvenanceExternal}
		}
		if m.Keywords != "" {
			d.Keywords = corpus.Field{Text: m.Keywords, Provenance: corpus.ProvenanceExternal}
		}
	}
	return d
}

// detectLanguage classifies text as Chinese when more than 15% of its
// runes are Han characters.
func detectLanguage(text string) corpus.Language {
	text = strings.TrimSpace(text)
	if text == "" {
		return corpus.LangUnknown
	}
	total := 0
	han := 0
	for _, r := range text {
		total++
		if r >= 0x4e00 && r <= 0x9fff {
			han++
		}
	}
	if float64(han)/float64(total) > 0.15 {
		return corpus.LangZH
	}
	return corpus.LangEN
}
