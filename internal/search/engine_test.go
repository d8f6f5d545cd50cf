package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholium/scholium/configs"
	"github.com/scholium/scholium/internal/corpus"
	"github.com/scholium/scholium/internal/embed"
	"github.com/scholium/scholium/internal/errors"
	"github.com/scholium/scholium/internal/lexical"
	"github.com/scholium/scholium/internal/tokenize"
	"github.com/scholium/scholium/internal/vector"
	"github.com/scholium/scholium/internal/xlate"
)

func newTestTokenizer(t *testing.T) *tokenize.Tokenizer {
	t.Helper()
	tok, err := tokenize.New([]string{"物候", "径流", "蒸散发", "黄土高原"})
	require.NoError(t, err)
	return tok
}

func newTestCorpus(t *testing.T, tok *tokenize.Tokenizer) *corpus.Store {
	t.Helper()
	docs := []*corpus.DocumentRecord{
		{
			Key:      "黄土高原径流归因分析.pdf",
			Language: corpus.LangZH,
			Folder:   "水文",
			Title:    corpus.Field{Text: "黄土高原径流归因分析", Provenance: corpus.ProvenanceExtracted},
			Keywords: corpus.Field{Text: "径流 归因", Provenance: corpus.ProvenanceExtracted},
			Abstract: corpus.Field{Text: "本文分析黄土高原径流变化的归因。", Provenance: corpus.ProvenanceExtracted},
		},
		{
			Key:      "runoff trends.pdf",
			Language: corpus.LangEN,
			Folder:   "hydrology",
			Title:    corpus.Field{Text: "Runoff trends in dryland basins", Provenance: corpus.ProvenanceExtracted},
			Keywords: corpus.Field{Text: "runoff trends", Provenance: corpus.ProvenanceExtracted},
			Abstract: corpus.Field{Text: "Long-term runoff trends and their drivers.", Provenance: corpus.ProvenanceExtracted},
		},
		{
			Key:      "物候观测数据集.pdf",
			Language: corpus.LangZH,
			Folder:   "物候",
			Title:    corpus.Field{Text: "物候观测数据集", Provenance: corpus.ProvenanceExtracted},
			Keywords: corpus.Field{Text: "物候 观测", Provenance: corpus.ProvenanceExtracted},
			Abstract: corpus.Field{Text: "基于多年地面观测的物候数据集。", Provenance: corpus.ProvenanceExtracted},
		},
		{
			Key:      "vegetation dynamics.pdf",
			Language: corpus.LangEN,
			Folder:   "remote-sensing",
			Title:    corpus.Field{Text: "Vegetation dynamics from satellite data", Provenance: corpus.ProvenanceExtracted},
			Keywords: corpus.Field{Text: "vegetation dynamics", Provenance: corpus.ProvenanceExtracted},
		},
		{
			Key:      "发明专利一种径流测量装置.pdf",
			Language: corpus.LangZH,
			Folder:   "杂项",
			Title:    corpus.Field{Text: "一种径流测量装置", Provenance: corpus.ProvenanceExtracted},
			Keywords: corpus.Field{Text: "径流 测量", Provenance: corpus.ProvenanceExtracted},
		},
	}
	store, err := corpus.Rebuild(tok, docs)
	require.NoError(t, err)
	return store
}

func newTestBridge() *xlate.Bridge {
	return xlate.New(&configs.Translations{
		Terms: map[string]string{
			"径流":   "runoff streamflow",
			"物候":   "phenology",
			"黄土高原": "loess plateau",
			"归因":   "attribution",
		},
	})
}

// newTestEngine wires an engine over the fixture corpus. withSemantic
// adds the deterministic hash embedder and a matching vector index;
// without it the engine runs lexical and cross-lingual channels only.
func newTestEngine(t *testing.T, withSemantic bool) *Engine {
	t.Helper()
	tok := newTestTokenizer(t)
	store := newTestCorpus(t, tok)
	scorer := lexical.New(map[string][]string{"植被": {"vegetation"}})
	denylist := []string{"发明专利"}

	if !withSemantic {
		return New(store, nil, tok, scorer, newTestBridge(), nil, denylist)
	}

	emb := embed.NewStaticEmbedder()
	idx := vector.New(emb.ModelName(), emb.Dimensions())
	store.All(func(d *corpus.DocumentRecord) {
		vec, err := emb.Embed(context.Background(), d.EmbeddingText())
		require.NoError(t, err)
		require.NoError(t, idx.Add(d.Key, vec))
	})
	return New(store, idx, tok, scorer, newTestBridge(), emb, denylist)
}

func resultKeys(resp *Response) []string {
	keys := make([]string, 0, len(resp.Results))
	for _, r := range resp.Results {
		keys = append(keys, r.Key)
	}
	return keys
}

func TestSearch_EmptyQueryRejected(t *testing.T) {
	e := newTestEngine(t, false)
	_, err := e.Search(context.Background(), Request{Query: "   "})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryEmpty, errors.GetCode(err))
}

func TestSearch_LexicalModeRanksKeywordMatchFirst(t *testing.T) {
	e := newTestEngine(t, false)
	resp, err := e.Search(context.Background(), Request{Query: "径流", Mode: ModeLexical})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.Equal(t, "黄土高原径流归因分析.pdf", top.Key)
	assert.Equal(t, 1, top.LexicalRank)
	assert.Equal(t, -1, top.SemanticRank)
	assert.Contains(t, top.MatchedFields, "keywords")
	assert.Contains(t, top.MatchedTerms, "径流")
	assert.Greater(t, top.LexicalScore, 0.0)
	assert.NotNil(t, top.Doc)
}

func TestSearch_DenylistedDocumentNeverReturned(t *testing.T) {
	e := newTestEngine(t, false)
	resp, err := e.Search(context.Background(), Request{Query: "径流", Mode: ModeLexical})
	require.NoError(t, err)
	assert.NotContains(t, resultKeys(resp), "发明专利一种径流测量装置.pdf")
}

func TestSearch_CrossLingualChannelReachesEnglishDocuments(t *testing.T) {
	// "径流" translates fully, so the hybrid query also runs its English
	// rendering ("runoff streamflow") through the lexical scorer.
	e := newTestEngine(t, false)
	resp, err := e.Search(context.Background(), Request{Query: "径流"})
	require.NoError(t, err)

	keys := resultKeys(resp)
	assert.Equal(t, "黄土高原径流归因分析.pdf", keys[0])
	assert.Contains(t, keys, "runoff trends.pdf")
}

func TestSearch_LowTranslationCoverageSkipsCrossLingual(t *testing.T) {
	// Only 径流 out of 径流窟窿山 translates (2 of 5 Han characters), so
	// the bridge refuses the translation and the English document never
	// enters the candidate set.
	e := newTestEngine(t, false)
	resp, err := e.Search(context.Background(), Request{Query: "径流窟窿山"})
	require.NoError(t, err)

	keys := resultKeys(resp)
	assert.Contains(t, keys, "黄土高原径流归因分析.pdf")
	assert.NotContains(t, keys, "runoff trends.pdf")
}

func TestSearch_TopicExpansionReportsMatchedTopics(t *testing.T) {
	e := newTestEngine(t, false)
	resp, err := e.Search(context.Background(), Request{Query: "植被", Mode: ModeLexical})
	require.NoError(t, err)

	assert.Equal(t, []string{"植被"}, resp.MatchedTopics)
	// The English document matches through the expanded synonym only.
	assert.Contains(t, resultKeys(resp), "vegetation dynamics.pdf")
}

func TestSearch_SynonymMappingBridgesLanguages(t *testing.T) {
	// A 径流→runoff synonym mapping alone must carry a hybrid Chinese
	// query across to the English document, with matched terms reported
	// on both sides. The bridge is empty so nothing else can do the
	// bridging.
	tok := newTestTokenizer(t)
	docs := []*corpus.DocumentRecord{
		{
			Key:      "黄土高原径流归因分析.pdf",
			Language: corpus.LangZH,
			Folder:   "水文",
			Title:    corpus.Field{Text: "黄土高原径流归因分析", Provenance: corpus.ProvenanceExtracted},
			Keywords: corpus.Field{Text: "径流 归因", Provenance: corpus.ProvenanceExtracted},
		},
		{
			Key:      "runoff trends.pdf",
			Language: corpus.LangEN,
			Folder:   "hydrology",
			Title:    corpus.Field{Text: "Runoff trends in dryland basins", Provenance: corpus.ProvenanceExtracted},
			Keywords: corpus.Field{Text: "runoff trends", Provenance: corpus.ProvenanceExtracted},
		},
		{
			Key:      "物候观测数据集.pdf",
			Language: corpus.LangZH,
			Folder:   "物候",
			Title:    corpus.Field{Text: "物候观测数据集", Provenance: corpus.ProvenanceExtracted},
			Keywords: corpus.Field{Text: "物候 观测", Provenance: corpus.ProvenanceExtracted},
		},
	}
	store, err := corpus.Rebuild(tok, docs)
	require.NoError(t, err)
	scorer := lexical.New(map[string][]string{"径流": {"runoff"}})
	e := New(store, nil, tok, scorer, xlate.New(&configs.Translations{}), nil, nil)

	resp, err := e.Search(context.Background(), Request{Query: "径流"})
	require.NoError(t, err)

	keys := resultKeys(resp)
	require.Contains(t, keys, "黄土高原径流归因分析.pdf")
	require.Contains(t, keys, "runoff trends.pdf")
	assert.NotContains(t, keys, "物候观测数据集.pdf")
	assert.Equal(t, "黄土高原径流归因分析.pdf", keys[0], "exact match outranks the expansion")
	assert.Equal(t, []string{"径流"}, resp.MatchedTopics)

	for _, r := range resp.Results {
		assert.NotEmpty(t, r.MatchedTerms, "matched terms reported for %s", r.Key)
	}
	for _, r := range resp.Results {
		if r.Key == "runoff trends.pdf" {
			assert.Contains(t, r.MatchedTerms, "runoff")
		}
	}
}

func TestSearch_SemanticModeFindsEmbeddedDocument(t *testing.T) {
	e := newTestEngine(t, true)
	resp, err := e.Search(context.Background(), Request{Query: "物候观测数据集", Mode: ModeSemantic})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.Equal(t, "物候观测数据集.pdf", top.Key)
	assert.Equal(t, []string{"semantic"}, top.MatchedFields)
	assert.Greater(t, top.Similarity, 0.5)
	assert.Equal(t, -1, top.LexicalRank)
	assert.GreaterOrEqual(t, top.SemanticRank, 1)
}

func TestSearch_HybridFusesLexicalAndSemantic(t *testing.T) {
	e := newTestEngine(t, true)
	resp, err := e.Search(context.Background(), Request{Query: "物候观测数据集"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.Equal(t, "物候观测数据集.pdf", top.Key)
	assert.Equal(t, 1, top.LexicalRank)
	assert.Equal(t, 1, top.SemanticRank)
	assert.Greater(t, top.RRFScore, 1.0/61.0) // more than a single channel's best
}

func TestSearch_ExtraQueriesFuseIn(t *testing.T) {
	e := newTestEngine(t, false)
	resp, err := e.Search(context.Background(), Request{
		Query:        "物候",
		Mode:         ModeLexical,
		ExtraQueries: []string{"runoff trends"},
	})
	require.NoError(t, err)

	// Both documents hold rank 1 in their own channel; the fused list
	// carries both.
	assert.ElementsMatch(t,
		[]string{"物候观测数据集.pdf", "runoff trends.pdf"},
		resultKeys(resp))
}

func TestSearch_FolderFilter(t *testing.T) {
	e := newTestEngine(t, false)
	resp, err := e.Search(context.Background(), Request{Query: "径流", Folder: "水文"})
	require.NoError(t, err)
	assert.Equal(t, []string{"黄土高原径流归因分析.pdf"}, resultKeys(resp))
}

func TestSearch_LimitCapsResults(t *testing.T) {
	e := newTestEngine(t, false)
	resp, err := e.Search(context.Background(), Request{Query: "径流", Limit: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestSearch_SemanticModeWithoutIndexReturnsNothing(t *testing.T) {
	e := newTestEngine(t, false)
	resp, err := e.Search(context.Background(), Request{Query: "径流", Mode: ModeSemantic})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}
