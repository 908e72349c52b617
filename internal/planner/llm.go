// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"text/template"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/genescout/internal/tools"
	"github.com/pdiddy/genescout/pkg/types"
)

// planningPromptTmpl frames the model as a research planner. The tool
// schemas themselves travel as function definitions, so the prompt only
// sets strategy: discovery before enrichment, identifiers over guesses.
var planningPromptTmpl = template.Must(template.New("planning").Parse(`You are a gene-trait research planner. Given a research question, propose the tool calls that gather the most relevant evidence.

Guidelines:
- Start with discovery: gene database searches and literature searches that work from keywords.
- Only call enrichment tools (gene info, orthologs, annotations, pathways) when the question already names a concrete identifier for them.
- Use Ensembl species codes like "oryza_sativa" for species arguments.
- Prefer a handful of well-targeted calls over exhaustive coverage.

Research question:
{{.Query}}
`))

// defaultPlannerModel is used when the configuration names no model.
const defaultPlannerModel = "gpt-4o-mini"

// backoffBase controls the base duration for exponential backoff on
// planner API calls. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// LLM plans tool calls via OpenAI function calling over the registry's
// published schemas.
type LLM struct {
	client     *openai.Client
	model      string
	registry   *tools.Registry
	maxRetries int
}

// NewLLM builds a model-backed planner from configuration. The caller is
// responsible for checking that an API key is configured.
func NewLLM(cfg types.PlannerConfig, reg *tools.Registry) *LLM {
	return NewLLMWithClient(openai.NewClient(cfg.APIKey), cfg, reg)
}

// NewLLMWithClient builds a planner around an existing client; tests use
// it to point at a stub server.
func NewLLMWithClient(client *openai.Client, cfg types.PlannerConfig, reg *tools.Registry) *LLM {
	model := cfg.Model
	if model == "" {
		model = defaultPlannerModel
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &LLM{client: client, model: model, registry: reg, maxRetries: maxRetries}
}

// Plan asks the model for tool calls. Calls whose arguments fail to parse
// as JSON objects are dropped; schema validation happens later in
// Validate so rejections are logged in one place.
func (p *LLM) Plan(ctx context.Context, query string) ([]PlannedCall, Usage, error) {
	prompt, err := renderPlanningPrompt(query)
	if err != nil {
		return nil, Usage{}, fmt.Errorf("rendering planning prompt: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Tools: functionDefs(p.registry),
	}

	resp, err := p.createWithRetry(ctx, req)
	if err != nil {
		return nil, Usage{}, fmt.Errorf("planning %q: %w", query, err)
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}

	if len(resp.Choices) == 0 {
		return nil, usage, fmt.Errorf("planner returned no choices")
	}

	var calls []PlannedCall
	for _, tc := range resp.Choices[0].Message.ToolCalls {
		if tc.Type != openai.ToolTypeFunction {
			continue
		}
		args := tools.Args{}
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				continue
			}
		}
		calls = append(calls, PlannedCall{Tool: tc.Function.Name, Args: args})
	}
	return calls, usage, nil
}

// createWithRetry calls the chat completion API with exponential backoff.
func (p *LLM) createWithRetry(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return openai.ChatCompletionResponse{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	return openai.ChatCompletionResponse{}, fmt.Errorf("after %d retries: %w", p.maxRetries, lastErr)
}

// functionDefs converts the registry's published schemas into OpenAI
// function definitions.
func functionDefs(reg *tools.Registry) []openai.Tool {
	ts := reg.Tools()
	defs := make([]openai.Tool, 0, len(ts))
	for _, t := range ts {
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  paramSchema(t.Params),
			},
		})
	}
	return defs
}

// paramSchema renders a tool's parameter list as a JSON Schema object.
func paramSchema(params []tools.Param) map[string]any {
	props := make(map[string]any, len(params))
	required := []string{}
	for _, p := range params {
		prop := map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Type == "array" && p.Items != "" {
			prop["items"] = map[string]any{"type": p.Items}
		}
		if p.Min > 0 {
			prop["minimum"] = p.Min
		}
		if p.Max > 0 {
			prop["maximum"] = p.Max
		}
		if p.Default != nil {
			prop["default"] = p.Default
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func renderPlanningPrompt(query string) (string, error) {
	var buf bytes.Buffer
	if err := planningPromptTmpl.Execute(&buf, struct{ Query string }{Query: query}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
