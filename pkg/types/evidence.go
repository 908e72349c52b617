// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the genescout pipeline.
// Implements: prd002-evidence (record kinds, R1.1-R1.5);
//
//	prd004-orchestration (AggregateResult, R3.2);
//	docs/ARCHITECTURE § Data Structures.
package types

import "time"

// GeneHit is one gene-shaped evidence record. Identifier is the
// deduplication key: the aggregate holds at most one GeneHit per
// identifier, merged field-by-field with first-non-empty-wins.
type GeneHit struct {
	// Identifier is the stable gene ID from the source (e.g. an Ensembl ID).
	Identifier string `json:"identifier" yaml:"identifier"`

	// Symbol is the gene symbol (e.g. "HKT1").
	Symbol string `json:"symbol,omitempty" yaml:"symbol,omitempty"`

	// Description is free-text from the source record.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Species is the latin binomial, when the source reports one.
	Species string `json:"species,omitempty" yaml:"species,omitempty"`

	// Chromosome and Start/End locate the gene when coordinates are known.
	Chromosome string `json:"chromosome,omitempty" yaml:"chromosome,omitempty"`
	Start      int    `json:"start,omitempty" yaml:"start,omitempty"`
	End        int    `json:"end,omitempty" yaml:"end,omitempty"`

	// Source identifies which upstream database produced this record
	// (e.g. "ensembl", "gramene").
	Source string `json:"source" yaml:"source"`
}

// AssociationHit is one statistical trait association (e.g. a GWAS row).
type AssociationHit struct {
	Trait          string  `json:"trait" yaml:"trait"`
	PValue         float64 `json:"p_value" yaml:"p_value"`
	VariantID      string  `json:"variant_id,omitempty" yaml:"variant_id,omitempty"`
	EffectAllele   string  `json:"effect_allele,omitempty" yaml:"effect_allele,omitempty"`
	SampleSize     int     `json:"sample_size,omitempty" yaml:"sample_size,omitempty"`
	StudyAccession string  `json:"study_accession,omitempty" yaml:"study_accession,omitempty"`
}

// OntologyAnnotation is one functional annotation (e.g. a GO term assignment).
type OntologyAnnotation struct {
	// ID is the ontology identifier (e.g. "GO:0006814").
	ID string `json:"id" yaml:"id"`

	// Term is the human-readable term name.
	Term string `json:"term,omitempty" yaml:"term,omitempty"`

	// Aspect is the ontology aspect code (P, F, or C for GO).
	Aspect string `json:"aspect,omitempty" yaml:"aspect,omitempty"`

	// EvidenceCode is the annotation evidence code (e.g. "IDA", "IEA").
	EvidenceCode string `json:"evidence_code,omitempty" yaml:"evidence_code,omitempty"`

	Reference string `json:"reference,omitempty" yaml:"reference,omitempty"`
	Qualifier string `json:"qualifier,omitempty" yaml:"qualifier,omitempty"`
}

// PathwayReference is one pathway membership record.
type PathwayReference struct {
	Identifier  string `json:"identifier" yaml:"identifier"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Database is the source pathway DB; defaults to "kegg".
	Database string `json:"database" yaml:"database"`
}

// PublicationSummary is one literature record, keyed by Identifier (a PMID
// for PubMed-sourced records).
type PublicationSummary struct {
	Identifier string   `json:"identifier" yaml:"identifier"`
	Title      string   `json:"title,omitempty" yaml:"title,omitempty"`
	Abstract   string   `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	DOI        string   `json:"doi,omitempty" yaml:"doi,omitempty"`
	URL        string   `json:"url,omitempty" yaml:"url,omitempty"`
	Venue      string   `json:"venue,omitempty" yaml:"venue,omitempty"`
	Date       string   `json:"date,omitempty" yaml:"date,omitempty"`
	Authors    []string `json:"authors,omitempty" yaml:"authors,omitempty"`
}

// ToolExecutionRecord is the telemetry for one tool invocation, successful
// or not. Exactly one record exists per planned call, in issue order.
type ToolExecutionRecord struct {
	Tool string `json:"tool" yaml:"tool"`

	// Duration is wall-clock seconds spent inside the wrapper, retries included.
	Duration float64 `json:"duration" yaml:"duration"`

	Success bool   `json:"success" yaml:"success"`
	Error   string `json:"error,omitempty" yaml:"error,omitempty"`

	// Token counters are populated for calls that consume an LLM API.
	PromptTokens     int `json:"prompt_tokens,omitempty" yaml:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty" yaml:"completion_tokens,omitempty"`

	// RowsReturned is the result row count, when the result is list-shaped.
	RowsReturned int `json:"rows_returned,omitempty" yaml:"rows_returned,omitempty"`

	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// AggregateResult is the per-query accumulator output: deduplicated evidence
// in first-seen order plus execution telemetry. It is built fresh for each
// query and never persisted between requests by the pipeline itself.
type AggregateResult struct {
	// Query is the free-text trait query that initiated the run.
	Query string `json:"query" yaml:"query"`

	// Explanation is the optional free-text synthesis added after mapping.
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`

	Genes        []GeneHit            `json:"genes" yaml:"genes"`
	Associations []AssociationHit     `json:"associations" yaml:"associations"`
	Annotations  []OntologyAnnotation `json:"annotations" yaml:"annotations"`
	Pathways     []PathwayReference   `json:"pathways" yaml:"pathways"`
	Publications []PublicationSummary `json:"publications" yaml:"publications"`

	Records []ToolExecutionRecord `json:"records" yaml:"records"`

	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	// Duration is wall-clock seconds for the whole run.
	Duration float64 `json:"duration" yaml:"duration"`

	// Success is false only for run-level failures (e.g. planning was
	// impossible); per-tool failures leave Success true and are visible
	// in Records instead.
	Success bool   `json:"success" yaml:"success"`
	Err     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// TotalPromptTokens sums prompt-token counters across all execution records.
func (a *AggregateResult) TotalPromptTokens() int {
	n := 0
	for _, r := range a.Records {
		n += r.PromptTokens
	}
	return n
}

// TotalCompletionTokens sums completion-token counters across all records.
func (a *AggregateResult) TotalCompletionTokens() int {
	n := 0
	for _, r := range a.Records {
		n += r.CompletionTokens
	}
	return n
}

// EvidenceCount returns the total number of evidence records of all kinds.
func (a *AggregateResult) EvidenceCount() int {
	return len(a.Genes) + len(a.Associations) + len(a.Annotations) +
		len(a.Pathways) + len(a.Publications)
}
