// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package planner

import (
	"context"

	"github.com/pdiddy/genescout/internal/tools"
)

// Heuristic is the deterministic fallback planner used when no model is
// configured. It issues a fixed discovery-first batch: gene lookups
// against both gene databases, a trait scan of the association catalog,
// and a literature search. Enrichment tools need identifiers a fallback
// cannot guess, so they are left to follow-up runs.
type Heuristic struct {
	// DefaultSpecies is used when the query names no known species.
	DefaultSpecies string
}

// Plan builds the fixed discovery batch for the query.
func (h Heuristic) Plan(_ context.Context, query string) ([]PlannedCall, Usage, error) {
	species := h.DefaultSpecies
	if detected, ok := tools.DetectSpecies(query); ok {
		species = detected
	}
	if species == "" {
		species = "oryza_sativa"
	}

	calls := []PlannedCall{
		{Tool: tools.ToolEnsemblSearchGenes, Args: tools.Args{"keyword": query, "species": species}},
		{Tool: tools.ToolGrameneSearch, Args: tools.Args{"query": query, "species": species}},
		{Tool: tools.ToolGWASTraitSearch, Args: tools.Args{"trait_term": query}},
		{Tool: tools.ToolPubMedSearch, Args: tools.Args{"query": query}},
	}
	return calls, Usage{}, nil
}
