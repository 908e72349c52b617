// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a finished run for people and for files:
// human-readable tables, indented JSON, and a YAML result file that can
// be reloaded without re-querying any API.
// Implements: prd009-reporting (R1-R3);
//
//	docs/ARCHITECTURE § Reporting.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/genescout/internal/analyze"
	"github.com/pdiddy/genescout/pkg/types"
)

// FormatTable writes the aggregate as a human-readable report to w.
func FormatTable(res *types.AggregateResult, w io.Writer) {
	fmt.Fprintf(w, "Query: %s\n", res.Query)
	if !res.Success {
		fmt.Fprintf(w, "Run failed: %s\n", res.Err)
		return
	}

	if res.EvidenceCount() == 0 {
		fmt.Fprintln(w, "No evidence found.")
	}

	if len(res.Genes) > 0 {
		fmt.Fprintf(w, "\nGenes (%d)\n", len(res.Genes))
		fmt.Fprintf(w, "%-20s  %-12s  %-22s  %-8s  %s\n",
			"Identifier", "Symbol", "Species", "Source", "Description")
		fmt.Fprintln(w, strings.Repeat("-", 100))
		for _, g := range res.Genes {
			fmt.Fprintf(w, "%-20s  %-12s  %-22s  %-8s  %s\n",
				truncate(g.Identifier, 20), truncate(g.Symbol, 12),
				truncate(g.Species, 22), g.Source, truncate(g.Description, 34))
		}
	}

	if len(res.Associations) > 0 {
		fmt.Fprintf(w, "\nAssociations (%d)\n", len(res.Associations))
		fmt.Fprintf(w, "%-36s  %-10s  %-12s  %s\n", "Trait", "P-value", "Variant", "Study")
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for _, a := range res.Associations {
			fmt.Fprintf(w, "%-36s  %-10.2g  %-12s  %s\n",
				truncate(a.Trait, 36), a.PValue, truncate(a.VariantID, 12), a.StudyAccession)
		}
	}

	if len(res.Annotations) > 0 {
		fmt.Fprintf(w, "\nAnnotations (%d)\n", len(res.Annotations))
		for _, an := range res.Annotations {
			fmt.Fprintf(w, "  %-12s  %-4s  %-34s  %s\n", an.ID, an.EvidenceCode, truncate(an.Term, 34), an.Reference)
		}
	}

	if len(res.Pathways) > 0 {
		fmt.Fprintf(w, "\nPathways (%d)\n", len(res.Pathways))
		for _, p := range res.Pathways {
			fmt.Fprintf(w, "  %-16s  %s\n", p.Identifier, p.Description)
		}
	}

	if len(res.Publications) > 0 {
		fmt.Fprintf(w, "\nPublications (%d)\n", len(res.Publications))
		for _, p := range res.Publications {
			line := "PMID:" + p.Identifier
			if p.Title != "" {
				line += "  " + truncate(p.Title, 70)
			}
			if p.Venue != "" {
				line += "  (" + p.Venue + ")"
			}
			fmt.Fprintf(w, "  %s\n", line)
		}
	}

	if res.Explanation != "" {
		fmt.Fprintf(w, "\nSynthesis\n%s\n", res.Explanation)
	}

	formatRecords(res, w)
}

// formatRecords summarizes execution telemetry: failures first, then the
// run totals.
func formatRecords(res *types.AggregateResult, w io.Writer) {
	failed := 0
	for _, r := range res.Records {
		if !r.Success {
			if failed == 0 {
				fmt.Fprintf(w, "\nFailed calls\n")
			}
			failed++
			fmt.Fprintf(w, "  %-24s  %s\n", r.Tool, r.Error)
		}
	}

	fmt.Fprintf(w, "\n%d evidence records from %d calls in %.1fs",
		res.EvidenceCount(), len(res.Records), res.Duration)
	if tokens := res.TotalPromptTokens() + res.TotalCompletionTokens(); tokens > 0 {
		fmt.Fprintf(w, " (%d tokens)", tokens)
	}
	fmt.Fprintln(w)
}

// FormatJSON writes the aggregate as indented JSON to w.
func FormatJSON(res *types.AggregateResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

// FormatAssessment writes the evidence assessment below the main report.
func FormatAssessment(a analyze.Assessment, w io.Writer) {
	fmt.Fprintf(w, "\nEvidence strength: %s (score %d)\n", a.Strength, a.Score)
	for _, p := range a.Patterns {
		fmt.Fprintf(w, "  pattern: %s\n", p)
	}
	for _, r := range a.Recommendations {
		fmt.Fprintf(w, "  next: %s\n", r)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
