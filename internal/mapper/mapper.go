// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mapper translates one tool's raw output into typed evidence
// records and merges them into the aggregate. Dispatch is a closed table
// keyed by tool name; routing never inspects the payload shape. Adding a
// tool means adding a table entry, and the registry/table exhaustiveness
// is enforced in tests rather than at runtime.
// Implements: prd003-mapping (R1-R4);
//
//	docs/ARCHITECTURE § Mapping.
package mapper

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/genescout/internal/evidence"
	"github.com/pdiddy/genescout/internal/tools"
	"github.com/pdiddy/genescout/pkg/types"
)

// mapFunc extracts evidence records from one tool's raw result. The
// original call args are available because some payloads omit identifiers
// the caller already knows (e.g. the PMIDs behind a summary fetch).
type mapFunc func(args tools.Args, res tools.Result, agg *evidence.Aggregate)

// table is the closed tool-name → extraction dispatch table.
var table = map[string]mapFunc{
	tools.ToolEnsemblSearchGenes: mapGeneSearch("ensembl"),
	tools.ToolGrameneSearch:      mapGeneSearch("gramene"),
	tools.ToolEnsemblGeneInfo:    mapEnsemblGeneInfo,
	tools.ToolGrameneLookup:      mapGrameneLookup,
	tools.ToolEnsemblOrthologs:   mapEnsemblOrthologs,
	tools.ToolPubMedSearch:       mapPubMedSearch,
	tools.ToolPubMedSummaries:    mapPubMedSummaries,
	tools.ToolGWASHits:           mapAssociations,
	tools.ToolGWASTraitSearch:    mapAssociations,
	tools.ToolQuickGOAnnotations: mapQuickGO,
	tools.ToolKEGGPathways:       mapKEGGPathways,
	tools.ToolKEGGGeneInfo:       mapKEGGGeneInfo,
}

// Covered reports whether a mapping exists for the tool name.
func Covered(name string) bool {
	_, ok := table[name]
	return ok
}

// Names returns all mapped tool names, sorted.
func Names() []string {
	names := make([]string, 0, len(table))
	for n := range table {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Map merges the evidence extracted from one tool result into the
// aggregate. An unrecognized tool name is a no-op but is logged as a
// coverage gap so it surfaces during development instead of silently
// dropping evidence.
func Map(toolName string, args tools.Args, res tools.Result, agg *evidence.Aggregate, w io.Writer) {
	fn, ok := table[toolName]
	if !ok {
		fmt.Fprintf(w, "warning: no mapping for tool %q, result dropped (mapper coverage gap)\n", toolName)
		return
	}
	fn(args, res, agg)
}

// mapGeneSearch handles the list-shaped gene discovery tools. Both Ensembl
// and Gramene speak the xrefs record shape, but field names drift between
// endpoints, hence the fallback chains.
func mapGeneSearch(source string) mapFunc {
	return func(_ tools.Args, res tools.Result, agg *evidence.Aggregate) {
		for _, row := range res.Rows {
			loc := row.Sub("location")
			agg.MergeGene(types.GeneHit{
				Identifier:  row.String("id", "gene_id"),
				Symbol:      row.String("display_id", "symbol"),
				Description: row.String("description", "name"),
				Species:     row.String("species"),
				Chromosome:  row.String("seq_region_name"),
				Start:       firstInt(row.Int("start"), loc.Int("start")),
				End:         firstInt(row.Int("end"), loc.Int("end")),
				Source:      source,
			})
		}
	}
}

func mapEnsemblGeneInfo(_ tools.Args, res tools.Result, agg *evidence.Aggregate) {
	for _, row := range res.Rows {
		agg.MergeGene(types.GeneHit{
			Identifier:  row.String("id"),
			Symbol:      row.String("display_name"),
			Description: row.String("description"),
			Species:     row.String("species"),
			Chromosome:  row.String("seq_region_name"),
			Start:       row.Int("start"),
			End:         row.Int("end"),
			Source:      "ensembl",
		})
	}
}

func mapGrameneLookup(_ tools.Args, res tools.Result, agg *evidence.Aggregate) {
	for _, row := range res.Rows {
		agg.MergeGene(types.GeneHit{
			Identifier:  row.String("id", "gene_id"),
			Symbol:      row.String("display_name", "symbol"),
			Description: row.String("description", "name"),
			Species:     firstString(row.String("species"), row.Sub("taxon").String("scientific_name")),
			Chromosome:  row.String("seq_region_name"),
			Start:       row.Int("start"),
			End:         row.Int("end"),
			Source:      "gramene",
		})
	}
}

func mapEnsemblOrthologs(_ tools.Args, res tools.Result, agg *evidence.Aggregate) {
	for _, row := range res.Rows {
		tgt := row.Sub("target")
		agg.MergeGene(types.GeneHit{
			Identifier: tgt.String("id"),
			Symbol:     tgt.String("gene_symbol"),
			Species:    tgt.String("species"),
			Chromosome: tgt.String("chromosome"),
			Start:      tgt.Int("start"),
			End:        tgt.Int("end"),
			Source:     "ensembl",
		})
	}
}

// mapPubMedSearch records each returned PMID as a stub publication; a
// later summary fetch fills in titles and venues.
func mapPubMedSearch(_ tools.Args, res tools.Result, agg *evidence.Aggregate) {
	for _, pmid := range res.Values {
		agg.AppendPublication(types.PublicationSummary{Identifier: pmid})
	}
}

func mapPubMedSummaries(args tools.Args, res tools.Result, agg *evidence.Aggregate) {
	requested := args.StringList("pmids")
	for i, row := range res.Rows {
		id := row.String("uid")
		if id == "" && i < len(requested) {
			// The payload omitted the PMID; attribute it from the call args.
			id = requested[i]
		}
		if id == "" {
			continue
		}
		var authors []string
		for _, a := range row.List("authors") {
			if name := a.String("name"); name != "" {
				authors = append(authors, name)
			}
		}
		agg.AppendPublication(types.PublicationSummary{
			Identifier: id,
			Title:      row.String("title"),
			Venue:      row.String("source"),
			Date:       row.String("pubdate"),
			DOI:        strings.TrimSpace(strings.TrimPrefix(row.String("doi"), "doi:")),
			Authors:    authors,
		})
	}
}

func mapAssociations(_ tools.Args, res tools.Result, agg *evidence.Aggregate) {
	for _, row := range res.Rows {
		agg.AppendAssociation(types.AssociationHit{
			Trait:          associationTrait(row),
			PValue:         row.Float("p_value", "pvalue"),
			VariantID:      row.String("variant_id"),
			EffectAllele:   row.String("effect_allele", "risk_allele"),
			SampleSize:     row.Int("n", "sample_size"),
			StudyAccession: row.String("study_accession", "study_id"),
		})
	}
}

// associationTrait tolerates the trait field arriving as a string or as a
// one-element list, both of which the catalog produces.
func associationTrait(row tools.Bag) string {
	if s := row.String("trait"); s != "" {
		return s
	}
	if l := row.Strings("trait"); len(l) > 0 {
		return l[0]
	}
	return ""
}

func mapQuickGO(_ tools.Args, res tools.Result, agg *evidence.Aggregate) {
	for _, row := range res.Rows {
		agg.AppendAnnotation(types.OntologyAnnotation{
			ID:           row.String("goId"),
			Term:         row.String("goName"),
			Aspect:       row.String("goAspect"),
			EvidenceCode: row.String("goEvidence"),
			Reference:    row.String("reference"),
			Qualifier:    row.String("qualifier"),
		})
	}
}

func mapKEGGPathways(_ tools.Args, res tools.Result, agg *evidence.Aggregate) {
	for _, id := range res.Values {
		agg.AppendPathway(types.PathwayReference{Identifier: id})
	}
}

// mapKEGGGeneInfo contributes both a gene record and the pathway
// memberships listed in the flat-file entry ("osa00910  Nitrogen
// metabolism" lines: ID first, description after).
func mapKEGGGeneInfo(_ tools.Args, res tools.Result, agg *evidence.Aggregate) {
	for _, row := range res.Rows {
		agg.MergeGene(types.GeneHit{
			Identifier:  row.String("id"),
			Symbol:      row.String("name"),
			Description: row.String("definition"),
			Source:      "kegg",
		})
		for _, entry := range row.Strings("pathways") {
			id, desc, _ := strings.Cut(entry, " ")
			agg.AppendPathway(types.PathwayReference{
				Identifier:  id,
				Description: strings.TrimSpace(desc),
			})
		}
	}
}

func firstInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
