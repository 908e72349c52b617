// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator runs the query pipeline: plan, fan out tool calls,
// map raw results into the aggregate, synthesize. Tool failures degrade
// to empty results and surface only in execution records; the run itself
// fails only when planning is impossible.
// Implements: prd004-orchestration (R1-R5);
//
//	docs/ARCHITECTURE § Orchestration.
package orchestrator

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pdiddy/genescout/internal/evidence"
	"github.com/pdiddy/genescout/internal/explain"
	"github.com/pdiddy/genescout/internal/mapper"
	"github.com/pdiddy/genescout/internal/planner"
	"github.com/pdiddy/genescout/internal/tools"
	"github.com/pdiddy/genescout/pkg/types"
)

// Pseudo-tool names for the LLM stages so their cost and latency land in
// the same record stream as real tool calls.
const (
	recordPlanner   = "planner"
	recordExplainer = "explainer"
)

const defaultMaxWorkers = 8

// Orchestrator wires the pipeline stages together. All dependencies are
// explicit so tests can substitute any stage.
type Orchestrator struct {
	Planner  planner.Planner
	Registry *tools.Registry
	Client   *tools.Client

	// Explainer is optional; nil skips synthesis.
	Explainer explain.Explainer

	Cfg types.OrchestratorConfig

	// Out receives progress and warning lines.
	Out io.Writer
}

// outcome is one tool call's result, indexed by issue position so records
// keep plan order regardless of completion order.
type outcome struct {
	res      tools.Result
	err      error
	started  time.Time
	duration time.Duration
}

// Run executes the full pipeline for one query and returns the aggregate.
// Per-tool failures are absorbed into execution records; the returned
// result reports Success false only when planning itself failed.
func (o *Orchestrator) Run(ctx context.Context, query string) types.AggregateResult {
	agg := evidence.New(query, o.Cfg.DedupeNonGene)

	calls, planned := o.plan(ctx, query, agg)
	if !planned {
		res := agg.Result()
		res.Success = false
		res.Err = "planning failed"
		return res
	}

	fmt.Fprintf(o.Out, "executing %d tool calls\n", len(calls))
	outcomes := o.execute(ctx, calls)

	// Mapping is serial and in issue order, so the aggregate's first-seen
	// ordering is deterministic for a given plan.
	for i, call := range calls {
		out := outcomes[i]
		rec := types.ToolExecutionRecord{
			Tool:      call.Tool,
			Duration:  out.duration.Seconds(),
			Success:   out.err == nil,
			Timestamp: out.started,
		}
		if out.err != nil {
			rec.Error = out.err.Error()
			fmt.Fprintf(o.Out, "failed  %s: %v\n", call.Tool, out.err)
		} else {
			rec.RowsReturned = out.res.Count()
			mapper.Map(call.Tool, call.Args, out.res, agg, o.Out)
		}
		agg.AppendRecord(rec)
	}

	o.explain(ctx, agg)

	res := agg.Result()
	fmt.Fprintf(o.Out, "gathered %d evidence records in %.1fs\n", res.EvidenceCount(), res.Duration)
	return res
}

// plan obtains and validates the tool-call batch. The planner's token
// spend is recorded whether or not it succeeds.
func (o *Orchestrator) plan(ctx context.Context, query string, agg *evidence.Aggregate) ([]planner.PlannedCall, bool) {
	planStart := time.Now()
	calls, usage, err := o.Planner.Plan(ctx, query)

	rec := types.ToolExecutionRecord{
		Tool:             recordPlanner,
		Duration:         time.Since(planStart).Seconds(),
		Success:          err == nil,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		Timestamp:        planStart,
	}
	if err != nil {
		rec.Error = err.Error()
		fmt.Fprintf(o.Out, "planning failed: %v\n", err)
	}
	agg.AppendRecord(rec)
	if err != nil {
		return nil, false
	}

	return planner.Validate(o.Registry, calls, o.Out), true
}

// execute fans the validated calls out over a bounded worker pool and
// collects outcomes by issue position.
func (o *Orchestrator) execute(ctx context.Context, calls []planner.PlannedCall) []outcome {
	maxWorkers := o.Cfg.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = defaultMaxWorkers
	}

	outcomes := make([]outcome, len(calls))
	sem := make(chan struct{}, maxWorkers)
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(i int, call planner.PlannedCall) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			t, ok := o.Registry.Get(call.Tool)
			if !ok {
				// Validate already filtered unknown tools; this guards
				// against a planner handed in without validation.
				outcomes[i] = outcome{err: fmt.Errorf("unknown tool %q", call.Tool)}
				return
			}

			start := time.Now()
			res, err := t.Run(ctx, o.Client, call.Args)
			outcomes[i] = outcome{res: res, err: err, started: start, duration: time.Since(start)}
		}(i, call)
	}
	wg.Wait()

	return outcomes
}

// explain runs the optional synthesis stage. A synthesis failure costs
// the explanation only; the evidence and the run's success stand.
func (o *Orchestrator) explain(ctx context.Context, agg *evidence.Aggregate) {
	if o.Explainer == nil {
		return
	}

	interim := agg.Result()
	explainStart := time.Now()
	text, usage, err := o.Explainer.Explain(ctx, &interim)

	rec := types.ToolExecutionRecord{
		Tool:             recordExplainer,
		Duration:         time.Since(explainStart).Seconds(),
		Success:          err == nil,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		Timestamp:        explainStart,
	}
	if err != nil {
		rec.Error = err.Error()
		fmt.Fprintf(o.Out, "synthesis failed, keeping evidence without explanation: %v\n", err)
	} else {
		agg.SetExplanation(text)
	}
	agg.AppendRecord(rec)
}
