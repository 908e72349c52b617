// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence owns the per-query aggregate: the gene deduplication map,
// the ordered evidence lists, and the execution-record list.
// Implements: prd002-evidence (R2-R4);
//
//	docs/ARCHITECTURE § Aggregation.
package evidence

import (
	"time"

	"github.com/pdiddy/genescout/pkg/types"
)

// Aggregate accumulates evidence for one query. It is created empty,
// populated by append/merge operations while tool outputs are mapped, and
// flattened into a types.AggregateResult at the end of the run. Callers
// serialize access; the orchestrator maps completed calls one at a time.
type Aggregate struct {
	query       string
	explanation string

	genes     map[string]*types.GeneHit
	geneOrder []string // first-seen insertion order for citation numbering

	associations []types.AssociationHit
	annotations  []types.OntologyAnnotation
	pathways     []types.PathwayReference
	publications []types.PublicationSummary

	// pubIndex is populated only when publication dedup is enabled.
	pubIndex   map[string]int
	dedupePubs bool

	records []types.ToolExecutionRecord

	started   time.Time
	finalized []types.GeneHit
}

// New creates an empty aggregate for query. When dedupePublications is set,
// publication records are merged by identifier the same way genes are;
// otherwise duplicates across literature tools coexist.
func New(query string, dedupePublications bool) *Aggregate {
	return &Aggregate{
		query:      query,
		genes:      make(map[string]*types.GeneHit),
		pubIndex:   make(map[string]int),
		dedupePubs: dedupePublications,
		started:    time.Now(),
	}
}

// MergeGene inserts a gene record or merges it into the stored record with
// the same identifier, filling only empty fields. A stored field is never
// overwritten once populated. Records without an identifier are dropped:
// they cannot be deduplicated or cited.
func (a *Aggregate) MergeGene(candidate types.GeneHit) {
	if candidate.Identifier == "" {
		return
	}
	stored, ok := a.genes[candidate.Identifier]
	if !ok {
		g := candidate
		a.genes[candidate.Identifier] = &g
		a.geneOrder = append(a.geneOrder, candidate.Identifier)
		return
	}
	mergeGeneInto(stored, candidate)
}

// mergeGeneInto fills empty fields of dst from src.
func mergeGeneInto(dst *types.GeneHit, src types.GeneHit) {
	if dst.Symbol == "" {
		dst.Symbol = src.Symbol
	}
	if dst.Description == "" {
		dst.Description = src.Description
	}
	if dst.Species == "" {
		dst.Species = src.Species
	}
	if dst.Chromosome == "" {
		dst.Chromosome = src.Chromosome
	}
	if dst.Start == 0 {
		dst.Start = src.Start
	}
	if dst.End == 0 {
		dst.End = src.End
	}
	if dst.Source == "" {
		dst.Source = src.Source
	}
}

// AppendAssociation adds one association record. No dedup is attempted.
func (a *Aggregate) AppendAssociation(h types.AssociationHit) {
	a.associations = append(a.associations, h)
}

// AppendAnnotation adds one ontology annotation. No dedup is attempted.
func (a *Aggregate) AppendAnnotation(an types.OntologyAnnotation) {
	a.annotations = append(a.annotations, an)
}

// AppendPathway adds one pathway reference, defaulting the source DB.
func (a *Aggregate) AppendPathway(p types.PathwayReference) {
	if p.Database == "" {
		p.Database = "kegg"
	}
	a.pathways = append(a.pathways, p)
}

// AppendPublication adds one publication record. With dedup enabled,
// records sharing an identifier merge first-non-empty-wins instead.
func (a *Aggregate) AppendPublication(p types.PublicationSummary) {
	if a.dedupePubs && p.Identifier != "" {
		if idx, ok := a.pubIndex[p.Identifier]; ok {
			mergePublicationInto(&a.publications[idx], p)
			return
		}
		a.pubIndex[p.Identifier] = len(a.publications)
	}
	a.publications = append(a.publications, p)
}

func mergePublicationInto(dst *types.PublicationSummary, src types.PublicationSummary) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.DOI == "" {
		dst.DOI = src.DOI
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if dst.Venue == "" {
		dst.Venue = src.Venue
	}
	if dst.Date == "" {
		dst.Date = src.Date
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
}

// SetExplanation attaches the synthesis text produced after mapping.
func (a *Aggregate) SetExplanation(text string) {
	a.explanation = text
}

// AppendRecord adds one tool-execution record. The orchestrator appends in
// issue order, so telemetry stays deterministic for a fixed plan.
func (a *Aggregate) AppendRecord(r types.ToolExecutionRecord) {
	a.records = append(a.records, r)
}

// FinalizeGenes flattens the dedup map into the ordered gene list,
// first-seen order. Safe to call more than once; later calls pick up any
// genes merged since.
func (a *Aggregate) FinalizeGenes() {
	a.finalized = make([]types.GeneHit, 0, len(a.geneOrder))
	for _, id := range a.geneOrder {
		a.finalized = append(a.finalized, *a.genes[id])
	}
}

// GeneCount returns the number of distinct gene identifiers seen so far.
func (a *Aggregate) GeneCount() int { return len(a.genes) }

// Result flattens the aggregate into the serializable form. FinalizeGenes
// is applied if it has not been already.
func (a *Aggregate) Result() types.AggregateResult {
	if a.finalized == nil || len(a.finalized) != len(a.geneOrder) {
		a.FinalizeGenes()
	}
	return types.AggregateResult{
		Query:        a.query,
		Explanation:  a.explanation,
		Genes:        a.finalized,
		Associations: a.associations,
		Annotations:  a.annotations,
		Pathways:     a.pathways,
		Publications: a.publications,
		Records:      a.records,
		Timestamp:    a.started,
		Duration:     time.Since(a.started).Seconds(),
		Success:      true,
	}
}
