// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package explain

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/genescout/pkg/types"
)

func init() {
	backoffBase = time.Millisecond
}

func sampleResult() *types.AggregateResult {
	return &types.AggregateResult{
		Query: "salt tolerance in rice",
		Genes: []types.GeneHit{
			{Identifier: "Os01g0307500", Symbol: "OsHKT1;5", Species: "oryza_sativa", Source: "ensembl"},
		},
		Publications: []types.PublicationSummary{
			{Identifier: "111", Title: "Salt tolerance in rice", Abstract: "long abstract text", Authors: []string{"Ren Z"}},
		},
		Records: []types.ToolExecutionRecord{
			{Tool: "pubmed_search", Success: true},
			{Tool: "gwas_trait_search", Success: false, Error: "HTTP 500"},
		},
	}
}

func TestRenderSynthesisPromptGroundsOnEvidence(t *testing.T) {
	prompt, err := renderSynthesisPrompt(sampleResult())
	require.NoError(t, err)
	assert.Contains(t, prompt, "salt tolerance in rice")
	assert.Contains(t, prompt, "Os01g0307500")
	assert.Contains(t, prompt, "gwas_trait_search", "failed tools must be named so gaps can be reported")
	assert.NotContains(t, prompt, "long abstract text", "abstracts stay out of the prompt")
	assert.NotContains(t, prompt, "Ren Z", "author lists stay out of the prompt")
}

func TestRenderSynthesisPromptCapsEvidence(t *testing.T) {
	res := &types.AggregateResult{Query: "q"}
	for i := 0; i < 100; i++ {
		res.Pathways = append(res.Pathways, types.PathwayReference{Identifier: "path:osa00001", Database: "kegg"})
	}
	prompt, err := renderSynthesisPrompt(res)
	require.NoError(t, err)
	assert.Equal(t, digestLimit, strings.Count(prompt, "path:osa00001"))
}

func stubOpenAI(t *testing.T, handler http.HandlerFunc) *openai.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return openai.NewClientWithConfig(cfg)
}

func TestLLMExplainReturnsContentAndUsage(t *testing.T) {
	client := stubOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"choices": [{"message": {"role": "assistant", "content": "OsHKT1;5 is the strongest candidate."}}],
			"usage": {"prompt_tokens": 200, "completion_tokens": 60}
		}`))
	})

	e := NewLLMWithClient(client, types.ExplainConfig{AIConfig: types.AIConfig{Model: "gpt-4o-mini"}})
	text, usage, err := e.Explain(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "OsHKT1;5 is the strongest candidate.", text)
	assert.Equal(t, 200, usage.PromptTokens)
	assert.Equal(t, 60, usage.CompletionTokens)
}

func TestLLMExplainRetriesThenSucceeds(t *testing.T) {
	var calls int
	client := stubOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "ok"}}], "usage": {"prompt_tokens": 1, "completion_tokens": 1}}`))
	})

	e := NewLLMWithClient(client, types.ExplainConfig{})
	text, _, err := e.Explain(context.Background(), sampleResult())
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, 3, calls)
}

func TestLLMExplainExhaustsRetries(t *testing.T) {
	client := stubOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	e := NewLLMWithClient(client, types.ExplainConfig{AIConfig: types.AIConfig{MaxRetries: 1}})
	_, _, err := e.Explain(context.Background(), sampleResult())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 1 retries")
}
