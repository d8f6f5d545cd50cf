package search

import (
	"context"
	"strings"

	"github.com/scholium/scholium/internal/corpus"
	"github.com/scholium/scholium/internal/errors"
)

// DefaultSimilarLimit is the recommendation count when the caller does
// not set one.
const DefaultSimilarLimit = 5

// Similar recommends documents related to an existing one. The target
// is located by case-insensitive substring match on document keys (the
// first hit in key order wins); its keywords and abstract become the
// query for a hybrid search, with the target itself removed from the
// results.
func (e *Engine) Similar(ctx context.Context, nameFragment string, limit int) (*Response, string, error) {
	fragment := strings.TrimSpace(nameFragment)
	if fragment == "" {
		return nil, "", errors.New(errors.ErrCodeInvalidInput, "document name fragment is empty", nil)
	}
	if limit <= 0 {
		limit = DefaultSimilarLimit
	}

	target := e.findByFragment(fragment)
	if target == nil {
		return nil, "", errors.Newf(errors.ErrCodeUnknownDocument,
			"no document key contains %q", fragment).
			WithSuggestion("Check the name with 'scholium stats' or use a longer fragment")
	}

	resp, err := e.Search(ctx, Request{
		Query: similarQueryText(target),
		Mode:  ModeHybrid,
		Limit: limit + 1, // the target itself usually ranks first
	})
	if err != nil {
		return nil, "", err
	}

	filtered := resp.Results[:0]
	for _, r := range resp.Results {
		if r.Key == target.Key {
			continue
		}
		filtered = append(filtered, r)
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	resp.Results = filtered
	return resp, target.Key, nil
}

func (e *Engine) findByFragment(fragment string) *corpus.DocumentRecord {
	needle := strings.ToLower(fragment)
	for _, key := range e.store.Keys() {
		if strings.Contains(strings.ToLower(key), needle) {
			return e.store.Get(key)
		}
	}
	return nil
}

// similarQueryText composes the recommendation query from the target's
// metadata: keywords plus an abstract prefix, falling back to the first
// pages for bare records.
func similarQueryText(d *corpus.DocumentRecord) string {
	var parts []string
	if !d.Keywords.Empty() {
		parts = append(parts, d.Keywords.Text)
	}
	if !d.Abstract.Empty() {
		parts = append(parts, truncateRunes(d.Abstract.Text, 200))
	}
	text := strings.TrimSpace(strings.Join(parts, " "))
	if text == "" {
		text = truncateRunes(d.FirstPages.Text, 500)
	}
	return text
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
