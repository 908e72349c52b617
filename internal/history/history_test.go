// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genescout/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.HistoryConfig{
		Path:       filepath.Join(t.TempDir(), "history.db"),
		MaxResults: 5,
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRun(query string) *types.AggregateResult {
	return &types.AggregateResult{
		Query:     query,
		Genes:     []types.GeneHit{{Identifier: "g1"}, {Identifier: "g2"}},
		Pathways:  []types.PathwayReference{{Identifier: "p1", Database: "kegg"}},
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:  1.5,
		Success:   true,
		Records: []types.ToolExecutionRecord{
			{Tool: "planner", Success: true, Duration: 0.8, PromptTokens: 100, CompletionTokens: 30},
			{Tool: "pubmed_search", Success: true, Duration: 0.4, RowsReturned: 2},
			{Tool: "gwas_hits", Success: false, Duration: 6.0, Error: "HTTP 500"},
		},
	}
}

func TestSaveRunAndRecent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.SaveRun(ctx, sampleRun("salt tolerance in rice"))
	require.NoError(t, err)
	assert.Positive(t, id)

	runs, err := s.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, "salt tolerance in rice", r.Query)
	assert.True(t, r.Success)
	assert.Equal(t, 3, r.EvidenceCount)
	assert.Equal(t, 100, r.PromptTokens)
	assert.Equal(t, 30, r.CompletionTokens)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), r.Timestamp.UTC())
}

func TestRecentOrdersNewestFirstAndCaps(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		_, err := s.SaveRun(ctx, sampleRun("query "+string(rune('a'+i))))
		require.NoError(t, err)
	}

	runs, err := s.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 5, "listing respects max_results")
	assert.Equal(t, "query h", runs[0].Query)
	assert.Equal(t, "query d", runs[4].Query)
}

func TestSaveRunPersistsFailedRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	res := &types.AggregateResult{
		Query:     "q",
		Timestamp: time.Now(),
		Success:   false,
		Err:       "planning failed",
		Records: []types.ToolExecutionRecord{
			{Tool: "planner", Success: false, Error: "api key rejected"},
		},
	}
	_, err := s.SaveRun(ctx, res)
	require.NoError(t, err)

	runs, err := s.Recent(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Success)
	assert.Equal(t, "planning failed", runs[0].Error)
}

func TestStatsAggregatesAcrossRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.SaveRun(ctx, sampleRun("q"))
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	byTool := map[string]ToolStats{}
	for _, st := range stats {
		byTool[st.Tool] = st
	}
	assert.Equal(t, 3, byTool["gwas_hits"].Calls)
	assert.Equal(t, 3, byTool["gwas_hits"].Failures)
	assert.InDelta(t, 6.0, byTool["gwas_hits"].AvgDuration, 1e-9)
	assert.Equal(t, 0, byTool["pubmed_search"].Failures)
}
