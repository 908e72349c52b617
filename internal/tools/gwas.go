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

// gwasBase is the GWAS Catalog summary statistics endpoint. Declared as a
// var so tests can substitute an httptest server.
var gwasBase = "https://www.ebi.ac.uk/gwas/summary-statistics/api"

func gwasHitsTool() Tool {
	return Tool{
		Name: ToolGWASHits,
		Description: "Fetch statistical associations for a gene name from the " +
			"GWAS Catalog summary statistics API.",
		Params: []Param{
			{Name: "gene_name", Type: "string", Description: "Gene name or symbol.", Required: true},
			{Name: "pval_threshold", Type: "number", Description: "Upper p-value bound.", Max: 1, Default: 1e-4},
			{Name: "max_hits", Type: "integer", Description: "Maximum associations to return.", Min: 1, Max: 50, Default: 30},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.GWASHits(ctx, args.String("gene_name", ""), args.Float("pval_threshold", 1e-4), args.Int("max_hits", 30))
		},
	}
}

func gwasTraitSearchTool() Tool {
	return Tool{
		Name: ToolGWASTraitSearch,
		Description: "Search GWAS Catalog associations by trait term. Resolves " +
			"the trait identifier first, then fetches its associations.",
		Params: []Param{
			{Name: "trait_term", Type: "string", Description: "Trait term, e.g. 'salt tolerance'.", Required: true},
			{Name: "pval_threshold", Type: "number", Description: "Upper p-value bound.", Max: 1, Default: 1e-4},
			{Name: "max_hits", Type: "integer", Description: "Maximum associations to return.", Min: 1, Max: 50, Default: 30},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.GWASTraitSearch(ctx, args.String("trait_term", ""), args.Float("pval_threshold", 1e-4), args.Int("max_hits", 30))
		},
	}
}

// GWASHits fetches associations filtered by gene name as the trait query.
func (c *Client) GWASHits(ctx context.Context, geneName string, pvalThreshold float64, maxHits int) (Result, error) {
	if geneName == "" {
		return Result{}, fmt.Errorf("gene_name is required")
	}
	maxHits = clampLimit(maxHits, 30, 50)

	params := url.Values{
		"trait":   {geneName},
		"p_upper": {fmt.Sprintf("%g", pvalThreshold)},
		"size":    {fmt.Sprintf("%d", maxHits)},
	}
	rows, err := c.gwasAssociations(ctx, gwasBase+"/associations?"+params.Encode())
	if err != nil {
		return Result{}, fmt.Errorf("GWAS hits: %w", err)
	}
	return Result{Rows: rows}, nil
}

// GWASTraitSearch resolves a trait term against the catalog's trait list,
// then fetches associations for the first match. When no trait matches,
// the general association list is filtered by term instead.
func (c *Client) GWASTraitSearch(ctx context.Context, traitTerm string, pvalThreshold float64, maxHits int) (Result, error) {
	if traitTerm == "" {
		return Result{}, fmt.Errorf("trait_term is required")
	}
	maxHits = clampLimit(maxHits, 30, 50)

	traitID, err := c.gwasResolveTrait(ctx, traitTerm)
	if err != nil {
		return Result{}, fmt.Errorf("GWAS trait search: %w", err)
	}

	params := url.Values{
		"p_upper": {fmt.Sprintf("%g", pvalThreshold)},
		"size":    {fmt.Sprintf("%d", maxHits)},
	}

	if traitID != "" {
		rows, err := c.gwasAssociations(ctx, fmt.Sprintf("%s/traits/%s/associations?%s", gwasBase, url.PathEscape(traitID), params.Encode()))
		if err != nil {
			return Result{}, fmt.Errorf("GWAS trait search: %w", err)
		}
		return Result{Rows: rows}, nil
	}

	// No trait ID matched; filter the general association list by term.
	rows, err := c.gwasAssociations(ctx, gwasBase+"/associations?"+params.Encode())
	if err != nil {
		return Result{}, fmt.Errorf("GWAS trait search: %w", err)
	}
	var filtered []Bag
	for _, row := range rows {
		if strings.Contains(strings.ToLower(gwasTraitName(row)), strings.ToLower(traitTerm)) {
			filtered = append(filtered, row)
		}
	}
	return Result{Rows: filtered}, nil
}

// gwasResolveTrait returns the first catalog trait ID containing term, or
// "" when none matches.
func (c *Client) gwasResolveTrait(ctx context.Context, term string) (string, error) {
	resp, err := httputil.GetJSON(ctx, c.HTTP, gwasBase+"/traits?size=10", c.Cfg.UserAgent, c.Cfg.MaxRetries)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload Bag
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("parsing trait list: %w", err)
	}

	// The API nests the list under _embedded.trait (singular).
	for _, t := range payload.Sub("_embedded").List("trait") {
		id := t.String("trait")
		if strings.Contains(strings.ToLower(id), strings.ToLower(term)) {
			return id, nil
		}
	}
	return "", nil
}

// gwasAssociations fetches an association URL and normalizes the embedded
// collection, which the API returns either as a list or as a map with
// numeric keys.
func (c *Client) gwasAssociations(ctx context.Context, u string) ([]Bag, error) {
	resp, err := httputil.GetJSON(ctx, c.HTTP, u, c.Cfg.UserAgent, c.Cfg.MaxRetries)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Embedded struct {
			Associations json.RawMessage `json:"associations"`
		} `json:"_embedded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parsing association response: %w", err)
	}
	if len(payload.Embedded.Associations) == 0 {
		return nil, nil
	}

	var asList []map[string]any
	if err := json.Unmarshal(payload.Embedded.Associations, &asList); err == nil {
		rows := make([]Bag, 0, len(asList))
		for _, m := range asList {
			rows = append(rows, Bag(m))
		}
		return rows, nil
	}

	var asMap map[string]map[string]any
	if err := json.Unmarshal(payload.Embedded.Associations, &asMap); err != nil {
		return nil, fmt.Errorf("parsing association collection: %w", err)
	}
	rows := make([]Bag, 0, len(asMap))
	for _, m := range asMap {
		rows = append(rows, Bag(m))
	}
	return rows, nil
}

// gwasTraitName extracts the trait name from an association row; the field
// is a string in some responses and a one-element list in others.
func gwasTraitName(row Bag) string {
	if s := row.String("trait"); s != "" {
		return s
	}
	if l := row.Strings("trait"); len(l) > 0 {
		return l[0]
	}
	return ""
}
