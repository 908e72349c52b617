// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analyze derives patterns, an evidence-strength score, and
// follow-up recommendations from a finished aggregate. Everything here is
// a pure function over the result; no I/O, no model calls.
// Implements: prd008-analysis (R1-R3);
//
//	docs/ARCHITECTURE § Analysis.
package analyze

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/genescout/pkg/types"
)

// Strength bands for the evidence score.
const (
	StrengthStrong   = "strong"
	StrengthModerate = "moderate"
	StrengthWeak     = "weak"
)

// significantPValue is the genome-wide significance threshold used when
// banding associations.
const significantPValue = 5e-8

// Score banding thresholds.
const (
	strongThreshold   = 70
	moderateThreshold = 40
)

// Per-layer score caps. Each evidence layer can contribute only so much,
// so a hundred pathway rows cannot masquerade as strong evidence on
// their own.
const (
	genePoints, geneCap               = 10, 30
	associationPoints, associationCap = 15, 30
	publicationPoints, publicationCap = 5, 20
	pathwayPoints, pathwayCap         = 10, 20
)

// Assessment summarizes what the gathered evidence amounts to.
type Assessment struct {
	Score           int      `json:"score" yaml:"score"`
	Strength        string   `json:"strength" yaml:"strength"`
	Patterns        []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
	Recommendations []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// Assess scores the aggregate and derives patterns and recommendations.
func Assess(res *types.AggregateResult) Assessment {
	score := Score(res)
	return Assessment{
		Score:           score,
		Strength:        strength(score),
		Patterns:        Patterns(res),
		Recommendations: Recommendations(res),
	}
}

// Score computes the capped per-layer evidence score.
func Score(res *types.AggregateResult) int {
	score := capped(len(res.Genes)*genePoints, geneCap)
	score += capped(countSignificant(res.Associations)*associationPoints, associationCap)
	score += capped(len(res.Publications)*publicationPoints, publicationCap)
	score += capped(len(res.Pathways)*pathwayPoints, pathwayCap)
	return score
}

func strength(score int) string {
	switch {
	case score >= strongThreshold:
		return StrengthStrong
	case score >= moderateThreshold:
		return StrengthModerate
	default:
		return StrengthWeak
	}
}

// Patterns reports notable regularities in the evidence: species
// distribution, cross-database corroboration, association significance.
func Patterns(res *types.AggregateResult) []string {
	var patterns []string

	if dist := speciesDistribution(res.Genes); dist != "" {
		patterns = append(patterns, dist)
	}

	if n := countSignificant(res.Associations); n > 0 {
		best := bestPValue(res.Associations)
		patterns = append(patterns, fmt.Sprintf(
			"%d of %d associations reach genome-wide significance (best p=%.2g)",
			n, len(res.Associations), best))
	}

	if sources := sourceCount(res.Genes); sources > 1 {
		patterns = append(patterns, fmt.Sprintf(
			"gene evidence corroborated across %d databases", sources))
	}

	return patterns
}

// Recommendations proposes follow-up tool calls that would close the
// evidence gaps visible in this result.
func Recommendations(res *types.AggregateResult) []string {
	var recs []string

	if len(res.Genes) > 0 {
		if len(res.Annotations) == 0 {
			recs = append(recs, "fetch GO annotations for the candidate genes to establish function")
		}
		if len(res.Pathways) == 0 {
			recs = append(recs, "look up KEGG pathway membership for the candidate genes")
		}
		if len(res.Associations) == 0 {
			recs = append(recs, "query trait associations for the candidate gene symbols")
		}
	} else if res.EvidenceCount() > 0 {
		recs = append(recs, "no genes identified; search gene databases with alternative keywords")
	}

	if stubs := countStubPublications(res.Publications); stubs > 0 {
		recs = append(recs, fmt.Sprintf("fetch summaries for %d publications known only by ID", stubs))
	}

	if failed := failedTools(res.Records); len(failed) > 0 {
		recs = append(recs, fmt.Sprintf("re-run failed tools: %s", strings.Join(failed, ", ")))
	}

	return recs
}

func capped(points, limit int) int {
	if points > limit {
		return limit
	}
	return points
}

func countSignificant(hits []types.AssociationHit) int {
	n := 0
	for _, h := range hits {
		if h.PValue > 0 && h.PValue < significantPValue {
			n++
		}
	}
	return n
}

func bestPValue(hits []types.AssociationHit) float64 {
	best := 1.0
	for _, h := range hits {
		if h.PValue > 0 && h.PValue < best {
			best = h.PValue
		}
	}
	return best
}

func speciesDistribution(genes []types.GeneHit) string {
	counts := map[string]int{}
	for _, g := range genes {
		if g.Species != "" {
			counts[g.Species]++
		}
	}
	if len(counts) == 0 {
		return ""
	}
	species := make([]string, 0, len(counts))
	for s := range counts {
		species = append(species, s)
	}
	sort.Strings(species)
	parts := make([]string, 0, len(species))
	for _, s := range species {
		parts = append(parts, fmt.Sprintf("%s (%d)", s, counts[s]))
	}
	return "genes span " + strings.Join(parts, ", ")
}

func sourceCount(genes []types.GeneHit) int {
	sources := map[string]bool{}
	for _, g := range genes {
		if g.Source != "" {
			sources[g.Source] = true
		}
	}
	return len(sources)
}

func countStubPublications(pubs []types.PublicationSummary) int {
	n := 0
	for _, p := range pubs {
		if p.Title == "" {
			n++
		}
	}
	return n
}

func failedTools(records []types.ToolExecutionRecord) []string {
	seen := map[string]bool{}
	var failed []string
	for _, r := range records {
		if !r.Success && !seen[r.Tool] {
			seen[r.Tool] = true
			failed = append(failed, r.Tool)
		}
	}
	return failed
}

