// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/pdiddy/genescout/internal/httputil"
)

// ensemblBase is the Ensembl REST endpoint (also serves Ensembl Plants
// lookups). Declared as a var so tests can substitute an httptest server.
var ensemblBase = "https://rest.ensembl.org"

// speciesAliases maps common names to Ensembl species codes. Unknown names
// pass through lowercased with spaces replaced by underscores.
var speciesAliases = map[string]string{
	"rice":                 "oryza_sativa",
	"oryza sativa":         "oryza_sativa",
	"arabidopsis":          "arabidopsis_thaliana",
	"arabidopsis thaliana": "arabidopsis_thaliana",
	"maize":                "zea_mays",
	"corn":                 "zea_mays",
	"zea mays":             "zea_mays",
	"tomato":               "solanum_lycopersicum",
	"solanum lycopersicum": "solanum_lycopersicum",
}

// SpeciesCode normalizes a species name to an Ensembl species code.
func SpeciesCode(species string) string {
	lower := strings.ToLower(strings.TrimSpace(species))
	if code, ok := speciesAliases[lower]; ok {
		return code
	}
	return strings.ReplaceAll(lower, " ", "_")
}

// DetectSpecies scans free text for a known species mention and returns
// its Ensembl code. Used by the fallback planner when no model is
// available to pick the species.
func DetectSpecies(text string) (string, bool) {
	lower := strings.ToLower(text)
	for alias, code := range speciesAliases {
		if strings.Contains(lower, alias) {
			return code, true
		}
	}
	return "", false
}

func ensemblSearchGenesTool() Tool {
	return Tool{
		Name: ToolEnsemblSearchGenes,
		Description: "Look up Ensembl gene identifiers and basic metadata by " +
			"symbol or keyword within one species (xrefs/symbol endpoint).",
		Params: []Param{
			{Name: "keyword", Type: "string", Description: "Gene symbol or biological keyword.", Required: true},
			{Name: "species", Type: "string", Description: "Species name, e.g. 'Oryza sativa' or 'rice'.", Required: true},
			{Name: "limit", Type: "integer", Description: "Maximum matches to return.", Min: 1, Max: 50, Default: 20},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.EnsemblSearchGenes(ctx, args.String("keyword", ""), args.String("species", ""), args.Int("limit", 20))
		},
	}
}

func ensemblGeneInfoTool() Tool {
	return Tool{
		Name: ToolEnsemblGeneInfo,
		Description: "Fetch detailed Ensembl metadata (lookup/id?expand=1) for " +
			"one gene ID: coordinates, biotype, description.",
		Params: []Param{
			{Name: "gene_id", Type: "string", Description: "Stable Ensembl gene identifier.", Required: true},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.EnsemblGeneInfo(ctx, args.String("gene_id", ""))
		},
	}
}

func ensemblOrthologsTool() Tool {
	return Tool{
		Name: ToolEnsemblOrthologs,
		Description: "Retrieve ortholog records (homology/id) for an Ensembl " +
			"gene ID, optionally filtered to target species.",
		Params: []Param{
			{Name: "gene_id", Type: "string", Description: "Reference Ensembl gene ID.", Required: true},
			{Name: "target_species", Type: "array", Items: "string", Description: "Optional species filter; empty means all."},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.EnsemblOrthologs(ctx, args.String("gene_id", ""), args.StringList("target_species"))
		},
	}
}

// EnsemblSearchGenes queries the xrefs/symbol endpoint and returns gene
// records deduplicated by id. The endpoint answers a single record for
// some symbols, a list for others; both shapes are normalized to Rows.
func (c *Client) EnsemblSearchGenes(ctx context.Context, keyword, species string, limit int) (Result, error) {
	if keyword == "" || species == "" {
		return Result{}, fmt.Errorf("keyword and species are required")
	}
	limit = clampLimit(limit, 20, 50)

	u := fmt.Sprintf("%s/xrefs/symbol/%s/%s", ensemblBase, SpeciesCode(species), url.PathEscape(keyword))
	rows, err := c.ensemblRows(ctx, u)
	if err != nil {
		return Result{}, fmt.Errorf("Ensembl gene search: %w", err)
	}

	seen := make(map[string]bool)
	var unique []Bag
	for _, row := range rows {
		id := row.String("id")
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, row)
		if len(unique) >= limit {
			break
		}
	}
	return Result{Rows: unique}, nil
}

// EnsemblGeneInfo fetches one expanded gene record.
func (c *Client) EnsemblGeneInfo(ctx context.Context, geneID string) (Result, error) {
	if geneID == "" {
		return Result{}, fmt.Errorf("gene_id is required")
	}

	u := fmt.Sprintf("%s/lookup/id/%s?expand=1", ensemblBase, url.PathEscape(geneID))
	resp, err := httputil.GetJSON(ctx, c.HTTP, u, c.Cfg.UserAgent, c.Cfg.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("Ensembl gene info: %w", err)
	}
	defer resp.Body.Close()

	var row Bag
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return Result{}, fmt.Errorf("parsing Ensembl gene info: %w", err)
	}
	return Result{Rows: []Bag{row}}, nil
}

// EnsemblOrthologs fetches homology records for geneID. When targetSpecies
// is non-empty, only homologies whose target species matches are kept.
func (c *Client) EnsemblOrthologs(ctx context.Context, geneID string, targetSpecies []string) (Result, error) {
	if geneID == "" {
		return Result{}, fmt.Errorf("gene_id is required")
	}

	u := fmt.Sprintf("%s/homology/id/%s?type=orthologues", ensemblBase, url.PathEscape(geneID))
	resp, err := httputil.GetJSON(ctx, c.HTTP, u, c.Cfg.UserAgent, c.Cfg.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("Ensembl orthologs: %w", err)
	}
	defer resp.Body.Close()

	var payload Bag
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("parsing Ensembl ortholog response: %w", err)
	}

	wanted := make(map[string]bool, len(targetSpecies))
	for _, s := range targetSpecies {
		wanted[SpeciesCode(s)] = true
	}

	var rows []Bag
	for _, hom := range payload.List("data") {
		for _, h := range hom.List("homologies") {
			if len(wanted) > 0 && !wanted[SpeciesCode(h.Sub("target").String("species"))] {
				continue
			}
			rows = append(rows, h)
		}
	}
	return Result{Rows: rows}, nil
}

// ensemblRows fetches a URL whose payload may be a record list or a single
// record and returns it as rows.
func (c *Client) ensemblRows(ctx context.Context, u string) ([]Bag, error) {
	resp, err := httputil.GetJSON(ctx, c.HTTP, u, c.Cfg.UserAgent, c.Cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var raw any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}

	switch v := raw.(type) {
	case []any:
		rows := make([]Bag, 0, len(v))
		for _, e := range v {
			if m, ok := e.(map[string]any); ok {
				rows = append(rows, Bag(m))
			}
		}
		return rows, nil
	case map[string]any:
		return []Bag{Bag(v)}, nil
	}
	return nil, nil
}
