// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package explain turns a finished evidence aggregate into a short
// natural-language synthesis. The model sees a trimmed digest of the
// typed evidence, never the raw tool payloads. Synthesis is best-effort:
// a failure here costs the explanation, not the evidence.
// Implements: prd007-synthesis (R1-R3);
//
//	docs/ARCHITECTURE § Synthesis.
package explain

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"text/template"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genescout/pkg/types"
)

// Usage counts the tokens spent on one synthesis call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Explainer produces a synthesis for an aggregate. Per Strategy pattern;
// tests supply a mock.
type Explainer interface {
	Explain(ctx context.Context, res *types.AggregateResult) (string, Usage, error)
}

// digestLimit caps how many records of each evidence kind enter the
// prompt. Enough for a grounded summary without paying for the long tail.
const digestLimit = 15

// synthesisPromptTmpl instructs the model to summarize only what the
// evidence digest supports.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are a genetics research assistant. Summarize the evidence gathered for the research question below in a few short paragraphs.

Rules:
- Only state what the evidence digest supports; never invent genes, associations, or citations.
- Name genes by symbol and identifier, and cite publications by PubMed ID.
- Note gaps: evidence kinds with no records, or tools that failed.

Research question:
{{.Query}}

Evidence digest (YAML):
{{.Digest}}
`))

// defaultExplainModel is used when the configuration names no model.
const defaultExplainModel = "gpt-4o-mini"

// backoffBase controls the base duration of exponential backoff on
// synthesis API calls. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// LLM synthesizes explanations via the OpenAI chat API.
type LLM struct {
	client     *openai.Client
	model      string
	maxRetries int
}

// NewLLM builds a model-backed explainer from configuration.
func NewLLM(cfg types.ExplainConfig) *LLM {
	return NewLLMWithClient(openai.NewClient(cfg.APIKey), cfg)
}

// NewLLMWithClient builds an explainer around an existing client; tests
// use it to point at a stub server.
func NewLLMWithClient(client *openai.Client, cfg types.ExplainConfig) *LLM {
	model := cfg.Model
	if model == "" {
		model = defaultExplainModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &LLM{client: client, model: model, maxRetries: maxRetries}
}

// Explain renders the evidence digest and asks the model for a synthesis.
func (e *LLM) Explain(ctx context.Context, res *types.AggregateResult) (string, Usage, error) {
	prompt, err := renderSynthesisPrompt(res)
	if err != nil {
		return "", Usage{}, fmt.Errorf("rendering synthesis prompt: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", Usage{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := e.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			continue
		}
		usage := Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}
		if len(resp.Choices) == 0 {
			return "", usage, fmt.Errorf("synthesis returned no choices")
		}
		return resp.Choices[0].Message.Content, usage, nil
	}
	return "", Usage{}, fmt.Errorf("after %d retries: %w", e.maxRetries, lastErr)
}

// digest is the trimmed view of an aggregate that enters the prompt.
type digest struct {
	Genes        []types.GeneHit            `yaml:"genes,omitempty"`
	Associations []types.AssociationHit     `yaml:"associations,omitempty"`
	Annotations  []types.OntologyAnnotation `yaml:"annotations,omitempty"`
	Pathways     []types.PathwayReference   `yaml:"pathways,omitempty"`
	Publications []digestPublication        `yaml:"publications,omitempty"`
	FailedTools  []string                   `yaml:"failed_tools,omitempty"`
}

// digestPublication drops abstracts and author lists, which dominate
// token cost without improving the summary.
type digestPublication struct {
	Identifier string `yaml:"pmid"`
	Title      string `yaml:"title,omitempty"`
	Venue      string `yaml:"venue,omitempty"`
	Date       string `yaml:"date,omitempty"`
}

// renderSynthesisPrompt serializes the trimmed digest as YAML inside the
// synthesis prompt.
func renderSynthesisPrompt(res *types.AggregateResult) (string, error) {
	d := digest{
		Genes:        res.Genes[:min(len(res.Genes), digestLimit)],
		Associations: res.Associations[:min(len(res.Associations), digestLimit)],
		Annotations:  res.Annotations[:min(len(res.Annotations), digestLimit)],
		Pathways:     res.Pathways[:min(len(res.Pathways), digestLimit)],
	}
	for _, p := range res.Publications[:min(len(res.Publications), digestLimit)] {
		d.Publications = append(d.Publications, digestPublication{
			Identifier: p.Identifier,
			Title:      p.Title,
			Venue:      p.Venue,
			Date:       p.Date,
		})
	}
	for _, r := range res.Records {
		if !r.Success {
			d.FailedTools = append(d.FailedTools, r.Tool)
		}
	}

	data, err := yaml.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("marshaling evidence digest: %w", err)
	}

	var buf bytes.Buffer
	err = synthesisPromptTmpl.Execute(&buf, struct{ Query, Digest string }{
		Query:  res.Query,
		Digest: string(data),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
