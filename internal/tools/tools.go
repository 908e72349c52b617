// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tools wraps public bioinformatics APIs behind a uniform call
// surface the planner can target. Each wrapper issues one or more HTTP
// calls with shared retry semantics and returns a loosely-typed Result in
// the upstream API's natural shape; normalization happens downstream in
// the mapper.
// Implements: prd001-tools (R1-R5);
//
//	docs/ARCHITECTURE § Tool Wrappers.
package tools

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/pdiddy/genescout/pkg/types"
)

// Client holds the shared HTTP client and wrapper configuration. It keeps
// no per-call state; wrappers are safe for concurrent use.
type Client struct {
	HTTP *http.Client
	Cfg  types.ToolConfig
}

// NewClient builds a Client with the configured timeout applied.
func NewClient(cfg types.ToolConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		HTTP: &http.Client{Timeout: timeout},
		Cfg:  cfg,
	}
}

// Args holds one planned call's arguments as decoded from planner JSON.
type Args map[string]any

// String returns the string argument at key, or fallback when absent.
func (a Args) String(key, fallback string) string {
	if s, ok := a[key].(string); ok && s != "" {
		return s
	}
	return fallback
}

// Int returns the integer argument at key, or fallback when absent.
func (a Args) Int(key string, fallback int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}

// Float returns the numeric argument at key, or fallback when absent.
func (a Args) Float(key string, fallback float64) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// StringList returns the string-array argument at key.
func (a Args) StringList(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Param describes one parameter in a tool's published schema. Numeric
// bounds are enforced on planner output before execution.
type Param struct {
	Name        string
	Type        string // "string", "integer", "number", or "array"
	Description string
	Required    bool
	Min         float64
	Max         float64 // 0 means unbounded
	Default     any
	Items       string // element type for arrays
}

// RunFunc executes one tool call against a Client.
type RunFunc func(ctx context.Context, c *Client, args Args) (Result, error)

// Tool is one entry in the closed tool table: the published schema plus
// the wrapper that executes it.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Run         RunFunc
}

// Tool names. The mapper's dispatch table must stay exhaustive over this
// list; TestMapperCoversRegistry fails when a name lacks a mapping.
const (
	ToolPubMedSearch       = "pubmed_search"
	ToolPubMedSummaries    = "pubmed_fetch_summaries"
	ToolEnsemblSearchGenes = "ensembl_search_genes"
	ToolEnsemblGeneInfo    = "ensembl_gene_info"
	ToolEnsemblOrthologs   = "ensembl_orthologs"
	ToolGrameneSearch      = "gramene_gene_search"
	ToolGrameneLookup      = "gramene_gene_lookup"
	ToolGWASHits           = "gwas_hits"
	ToolGWASTraitSearch    = "gwas_trait_search"
	ToolQuickGOAnnotations = "quickgo_annotations"
	ToolKEGGPathways       = "kegg_pathways"
	ToolKEGGGeneInfo       = "kegg_gene_info"
)

// Registry is the closed mapping from tool name to Tool. Adding a tool
// means adding a registry entry and a mapper entry; there is no dynamic
// dispatch.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds the registry with every supported tool.
func NewRegistry() *Registry {
	return NewRegistryOf(
		pubmedSearchTool(),
		pubmedSummariesTool(),
		ensemblSearchGenesTool(),
		ensemblGeneInfoTool(),
		ensemblOrthologsTool(),
		grameneSearchTool(),
		grameneLookupTool(),
		gwasHitsTool(),
		gwasTraitSearchTool(),
		quickgoAnnotationsTool(),
		keggPathwaysTool(),
		keggGeneInfoTool(),
	)
}

// NewRegistryOf builds a registry holding exactly the given tools. Callers
// use it to narrow the tool surface or substitute wrappers.
func NewRegistryOf(ts ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(ts))}
	for _, t := range ts {
		r.tools[t.Name] = t
	}
	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns all registered tool names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for n := range r.tools {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Tools returns all registered tools in name order.
func (r *Registry) Tools() []Tool {
	names := r.Names()
	out := make([]Tool, 0, len(names))
	for _, n := range names {
		out = append(out, r.tools[n])
	}
	return out
}

// ValidateArgs checks planned arguments against the tool's schema:
// required parameters present, numeric bounds respected. A violation
// means the planned call is skipped, not that the batch fails.
func ValidateArgs(t Tool, args Args) error {
	for _, p := range t.Params {
		v, present := args[p.Name]
		if !present {
			if p.Required {
				return fmt.Errorf("%s: missing required argument %q", t.Name, p.Name)
			}
			continue
		}
		if p.Type != "integer" && p.Type != "number" {
			continue
		}
		var f float64
		switch n := v.(type) {
		case float64:
			f = n
		case int:
			f = float64(n)
		default:
			return fmt.Errorf("%s: argument %q is not numeric", t.Name, p.Name)
		}
		if f < p.Min {
			return fmt.Errorf("%s: argument %q below minimum %g", t.Name, p.Name, p.Min)
		}
		if p.Max > 0 && f > p.Max {
			return fmt.Errorf("%s: argument %q above maximum %g", t.Name, p.Name, p.Max)
		}
	}
	return nil
}

// clampLimit bounds a result-count argument to [1, max] with a default.
func clampLimit(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if n > max {
		n = max
	}
	return n
}
