package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholium/scholium/internal/corpus"
)

func TestMetadataExtractor_ChineseFilename(t *testing.T) {
	e := NewMetadataExtractor(nil)
	d := e.Extract(context.Background(), SurveyFile{
		Name:     "黄土高原径流归因分析2019.pdf",
		Folder:   "水文",
		Source:   "local",
		Priority: 0,
	})

	assert.Equal(t, "黄土高原径流归因分析2019.pdf", d.Key)
	assert.Equal(t, corpus.LangZH, d.Language)
	assert.Equal(t, "2019", d.Year)
	assert.Equal(t, "水文", d.Folder)
	assert.Equal(t, "黄土高原径流归因分析2019", d.Title.Text)
	assert.Equal(t, corpus.ProvenanceFallback, d.Title.Provenance)
}

func TestMetadataExtractor_EnglishFilename(t *testing.T) {
	e := NewMetadataExtractor(nil)
	d := e.Extract(context.Background(), SurveyFile{Name: "Runoff trends in dryland basins.pdf"})
	assert.Equal(t, corpus.LangEN, d.Language)
	assert.Empty(t, d.Year)
}

func TestMetadataExtractor_ExternalMetadataEnrichment(t *testing.T) {
	meta := map[string]ExternalMeta{
		"paper.pdf": {
			Title:       "Runoff attribution on the Loess Plateau",
			Authors:     []string{"Li Wei"},
			Tags:        []string{"runoff", "attribution"},
			Collections: []string{"hydrology"},
			Year:        "2021",
			Abstract:    "We attribute runoff decline to vegetation restoration.",
			Keywords:    "runoff; attribution",
		},
	}
	e := NewMetadataExtractor(meta)
	d := e.Extract(context.Background(), SurveyFile{Name: "paper.pdf"})

	assert.Equal(t, "Runoff attribution on the Loess Plateau", d.ExternalTitle)
	assert.Equal(t, []string{"Li Wei"}, d.Authors)
	assert.Equal(t, "2021", d.Year)
	require.False(t, d.Abstract.Empty())
	assert.Equal(t, corpus.ProvenanceExternal, d.Abstract.Provenance)
	assert.Equal(t, corpus.ProvenanceExternal, d.Keywords.Provenance)
}

func TestMetadataExtractor_FilenameYearBeatsMetadataYear(t *testing.T) {
	meta := map[string]ExternalMeta{"study 2018.pdf": {Year: "2020"}}
	e := NewMetadataExtractor(meta)
	d := e.Extract(context.Background(), SurveyFile{Name: "study 2018.pdf"})
	assert.Equal(t, "2018", d.Year)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want corpus.Language
	}{
		{"黄土高原植被恢复", corpus.LangZH},
		{"Runoff trends in basins", corpus.LangEN},
		{"SWAT模型在径流模拟中的应用", corpus.LangZH},
		{"", corpus.LangUnknown},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, detectLanguage(tc.text), tc.text)
	}
}
