// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package planner turns a natural-language research question into a batch
// of tool calls. The model-backed planner drives OpenAI function calling
// over the registry's published schemas; a deterministic fallback covers
// runs without an API key. Planner output is advisory and is validated
// against the registry before anything executes.
// Implements: prd005-planning (R1-R4);
//
//	docs/ARCHITECTURE § Planning.
package planner

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/genescout/internal/tools"
)

// PlannedCall is one tool invocation proposed by a planner.
type PlannedCall struct {
	Tool string     `json:"tool" yaml:"tool"`
	Args tools.Args `json:"args" yaml:"args"`
}

// Usage counts the tokens a planner spent producing the plan. The
// fallback planner reports zero.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Planner proposes tool calls for a query. Per Strategy pattern; tests
// supply a mock.
type Planner interface {
	Plan(ctx context.Context, query string) ([]PlannedCall, Usage, error)
}

// Validate filters a proposed plan down to calls the registry will
// accept: the tool must exist and the arguments must satisfy its schema.
// A rejected call is logged and skipped; it never fails the batch.
func Validate(reg *tools.Registry, calls []PlannedCall, w io.Writer) []PlannedCall {
	valid := make([]PlannedCall, 0, len(calls))
	for _, call := range calls {
		t, ok := reg.Get(call.Tool)
		if !ok {
			fmt.Fprintf(w, "warning: planner proposed unknown tool %q, skipping\n", call.Tool)
			continue
		}
		if err := tools.ValidateArgs(t, call.Args); err != nil {
			fmt.Fprintf(w, "warning: planner call rejected: %v\n", err)
			continue
		}
		valid = append(valid, call)
	}
	return valid
}
