// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/genescout/internal/httputil"
	"github.com/pdiddy/genescout/pkg/types"
)

func init() {
	// Keep retry backoff out of test runtime.
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

// testClient builds a Client wired to an httptest server's transport.
func testClient(ts *httptest.Server) *Client {
	return &Client{
		HTTP: ts.Client(),
		Cfg:  types.ToolConfig{HTTPConfig: types.HTTPConfig{UserAgent: "genescout-test"}, MaxRetries: 1},
	}
}

// --- Args accessors ---

func TestArgsAccessors(t *testing.T) {
	// Planner arguments arrive as decoded JSON: numbers are float64,
	// lists are []any.
	args := Args{
		"query":   "salt tolerance",
		"limit":   float64(7),
		"pval":    1e-6,
		"symbols": []any{"DREB2A", "SKC1", 42},
	}

	if got := args.String("query", ""); got != "salt tolerance" {
		t.Errorf("String(query) = %q", got)
	}
	if got := args.String("missing", "fallback"); got != "fallback" {
		t.Errorf("String(missing) = %q, want fallback", got)
	}
	if got := args.Int("limit", 20); got != 7 {
		t.Errorf("Int(limit) = %d, want 7", got)
	}
	if got := args.Int("missing", 20); got != 20 {
		t.Errorf("Int(missing) = %d, want 20", got)
	}
	if got := args.Float("pval", 1); got != 1e-6 {
		t.Errorf("Float(pval) = %g, want 1e-6", got)
	}
	got := args.StringList("symbols")
	if len(got) != 2 || got[0] != "DREB2A" || got[1] != "SKC1" {
		t.Errorf("StringList(symbols) = %v, want non-string elements skipped", got)
	}
	if got := args.StringList("missing"); got != nil {
		t.Errorf("StringList(missing) = %v, want nil", got)
	}
}

// --- ValidateArgs ---

func TestValidateArgs(t *testing.T) {
	tool := Tool{
		Name: "t",
		Params: []Param{
			{Name: "query", Type: "string", Required: true},
			{Name: "max_hits", Type: "integer", Min: 1, Max: 50},
			{Name: "pval", Type: "number", Max: 1},
		},
	}

	tests := []struct {
		name    string
		args    Args
		wantErr bool
	}{
		{"valid minimal", Args{"query": "q"}, false},
		{"valid full", Args{"query": "q", "max_hits": float64(30), "pval": 0.5}, false},
		{"missing required", Args{"max_hits": float64(30)}, true},
		{"below minimum", Args{"query": "q", "max_hits": float64(0)}, true},
		{"above maximum", Args{"query": "q", "max_hits": float64(500)}, true},
		{"pval above one", Args{"query": "q", "pval": float64(2)}, true},
		{"non-numeric number", Args{"query": "q", "max_hits": "many"}, true},
		{"int accepted", Args{"query": "q", "max_hits": 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateArgs(tool, tt.args)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		n, def, max, want int
	}{
		{0, 20, 50, 20},
		{-3, 20, 50, 20},
		{7, 20, 50, 7},
		{500, 20, 50, 50},
		{50, 20, 50, 50},
	}
	for _, tt := range tests {
		if got := clampLimit(tt.n, tt.def, tt.max); got != tt.want {
			t.Errorf("clampLimit(%d, %d, %d) = %d, want %d", tt.n, tt.def, tt.max, got, tt.want)
		}
	}
}

// --- SpeciesCode and DetectSpecies ---

func TestSpeciesCode(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"rice", "oryza_sativa"},
		{"Rice", "oryza_sativa"},
		{"oryza_sativa", "oryza_sativa"},
		{"Zea mays", "zea_mays"},
		{"corn", "zea_mays"},
		{"Arabidopsis thaliana", "arabidopsis_thaliana"},
		{"Hordeum vulgare", "hordeum_vulgare"},
	}
	for _, tt := range tests {
		if got := SpeciesCode(tt.in); got != tt.want {
			t.Errorf("SpeciesCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectSpecies(t *testing.T) {
	code, ok := DetectSpecies("drought response genes in Maize landraces")
	if !ok || code != "zea_mays" {
		t.Errorf("DetectSpecies = %q, %v; want zea_mays, true", code, ok)
	}
	if _, ok := DetectSpecies("salt tolerance QTLs"); ok {
		t.Error("DetectSpecies matched text with no species mention")
	}
}

// --- Registry ---

func TestNewRegistryHoldsEveryTool(t *testing.T) {
	reg := NewRegistry()
	want := []string{
		ToolPubMedSearch, ToolPubMedSummaries,
		ToolEnsemblSearchGenes, ToolEnsemblGeneInfo, ToolEnsemblOrthologs,
		ToolGrameneSearch, ToolGrameneLookup,
		ToolGWASHits, ToolGWASTraitSearch,
		ToolQuickGOAnnotations,
		ToolKEGGPathways, ToolKEGGGeneInfo,
	}
	if len(reg.Names()) != len(want) {
		t.Fatalf("registry holds %d tools, want %d", len(reg.Names()), len(want))
	}
	for _, name := range want {
		tool, ok := reg.Get(name)
		if !ok {
			t.Errorf("Get(%q) missing", name)
			continue
		}
		if tool.Description == "" {
			t.Errorf("%s has no description", name)
		}
		if tool.Run == nil {
			t.Errorf("%s has no run function", name)
		}
	}
}

func TestNewRegistryOfNarrowsSurface(t *testing.T) {
	reg := NewRegistryOf(pubmedSearchTool())
	if len(reg.Names()) != 1 {
		t.Fatalf("registry holds %d tools, want 1", len(reg.Names()))
	}
	if _, ok := reg.Get(ToolEnsemblSearchGenes); ok {
		t.Error("narrowed registry should not hold ensembl_search_genes")
	}
}
