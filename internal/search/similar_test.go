package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholium/scholium/internal/errors"
)

func TestSimilar_ExcludesTargetAndFindsRelated(t *testing.T) {
	e := newTestEngine(t, false)
	resp, target, err := e.Similar(context.Background(), "归因", 3)
	require.NoError(t, err)

	assert.Equal(t, "黄土高原径流归因分析.pdf", target)
	assert.NotContains(t, resultKeys(resp), target)
	// The target's keyword text bridges to "runoff", recommending the
	// English paper.
	assert.Contains(t, resultKeys(resp), "runoff trends.pdf")
}

func TestSimilar_FragmentMatchIsCaseInsensitive(t *testing.T) {
	e := newTestEngine(t, false)
	_, target, err := e.Similar(context.Background(), "RUNOFF", 3)
	require.NoError(t, err)
	assert.Equal(t, "runoff trends.pdf", target)
}

func TestSimilar_UnknownFragment(t *testing.T) {
	e := newTestEngine(t, false)
	_, _, err := e.Similar(context.Background(), "no such paper", 3)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownDocument, errors.GetCode(err))
}

func TestSimilar_EmptyFragmentRejected(t *testing.T) {
	e := newTestEngine(t, false)
	_, _, err := e.Similar(context.Background(), "  ", 3)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidInput, errors.GetCode(err))
}
