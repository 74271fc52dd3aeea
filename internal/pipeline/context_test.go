package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptforge/promptforge/internal/stage"
)

func TestContext_SeedsInputUnderReservedName(t *testing.T) {
	t.Parallel()

	pctx := NewContext("幫我規劃旅行")
	got, ok := pctx.Get(stage.SeedName)
	require.True(t, ok)
	assert.Equal(t, "幫我規劃旅行", got)
	assert.Equal(t, []string{stage.SeedName}, pctx.Names())
	assert.Equal(t, 1, pctx.Len())
}

func TestContext_AppendKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	pctx := NewContext("seed")
	require.NoError(t, pctx.Append("intent_scan", "a"))
	require.NoError(t, pctx.Append("gap_report", "b"))

	assert.Equal(t, []string{stage.SeedName, "intent_scan", "gap_report"}, pctx.Names())
	assert.True(t, pctx.Has("gap_report"))
	assert.False(t, pctx.Has("clarify"))
}

func TestContext_AppendRejectsOverwrite(t *testing.T) {
	t.Parallel()

	pctx := NewContext("seed")
	require.NoError(t, pctx.Append("intent_scan", "a"))
	assert.Error(t, pctx.Append("intent_scan", "again"))
	assert.Error(t, pctx.Append(stage.SeedName, "again"))
}

func TestContext_ReplaceKeepsPosition(t *testing.T) {
	t.Parallel()

	pctx := NewContext("seed")
	require.NoError(t, pctx.Append("clarify", "raw questions"))
	require.NoError(t, pctx.Append("digest", "x"))

	require.NoError(t, pctx.Replace("clarify", "Q1: a\nA1: b"))
	got, _ := pctx.Get("clarify")
	assert.Equal(t, "Q1: a\nA1: b", got)
	assert.Equal(t, []string{stage.SeedName, "clarify", "digest"}, pctx.Names())

	assert.Error(t, pctx.Replace("missing", "x"))
}
