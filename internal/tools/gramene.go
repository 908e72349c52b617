// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pdiddy/genescout/internal/httputil"
)

// grameneBase serves plant-gene lookups through the Ensembl Plants REST
// surface. Declared as a var so tests can substitute an httptest server.
var grameneBase = "https://rest.ensembl.org"

func grameneSearchTool() Tool {
	return Tool{
		Name: ToolGrameneSearch,
		Description: "Search for plant genes by symbol or trait keyword via " +
			"Ensembl Plants; falls back through a list of candidate symbols.",
		Params: []Param{
			{Name: "query", Type: "string", Description: "Gene symbol or trait keyword.", Required: true},
			{Name: "species", Type: "string", Description: "Species name; defaults to rice.", Default: "oryza_sativa"},
			{Name: "symbols", Type: "array", Items: "string", Description: "Candidate gene symbols tried when the keyword search is empty."},
			{Name: "limit", Type: "integer", Description: "Maximum matches to return.", Min: 1, Max: 50, Default: 20},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.GrameneGeneSearch(ctx,
				args.String("query", ""),
				args.String("species", "oryza_sativa"),
				args.StringList("symbols"),
				args.Int("limit", 20))
		},
	}
}

func grameneLookupTool() Tool {
	return Tool{
		Name: ToolGrameneLookup,
		Description: "Fetch the Ensembl Plants record for one plant gene ID.",
		Params: []Param{
			{Name: "gene_id", Type: "string", Description: "Stable gene identifier.", Required: true},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.GrameneGeneLookup(ctx, args.String("gene_id", ""))
		},
	}
}

// GrameneGeneSearch searches plant genes by keyword, then by each candidate
// symbol until something matches. Results are deduplicated by id.
func (c *Client) GrameneGeneSearch(ctx context.Context, query, species string, symbols []string, limit int) (Result, error) {
	if query == "" && len(symbols) == 0 {
		return Result{}, fmt.Errorf("query or symbols required")
	}
	limit = clampLimit(limit, 20, 50)
	code := SpeciesCode(species)

	terms := make([]string, 0, 1+len(symbols))
	if query != "" {
		terms = append(terms, query)
	}
	terms = append(terms, symbols...)

	seen := make(map[string]bool)
	var rows []Bag
	for _, term := range terms {
		u := fmt.Sprintf("%s/xrefs/symbol/%s/%s", grameneBase, code, url.PathEscape(term))
		found, err := c.grameneRows(ctx, u)
		if err != nil {
			// Symbol probes are best-effort; the keyword search error is the
			// one worth surfacing.
			if term == query {
				return Result{}, fmt.Errorf("Gramene gene search: %w", err)
			}
			continue
		}
		for _, row := range found {
			id := row.String("id")
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			rows = append(rows, row)
			if len(rows) >= limit {
				return Result{Rows: rows}, nil
			}
		}
		// Stop probing symbols once the keyword search produced results.
		if term == query && len(rows) > 0 {
			break
		}
	}
	return Result{Rows: rows}, nil
}

// GrameneGeneLookup fetches one expanded plant-gene record.
func (c *Client) GrameneGeneLookup(ctx context.Context, geneID string) (Result, error) {
	if geneID == "" {
		return Result{}, fmt.Errorf("gene_id is required")
	}

	u := fmt.Sprintf("%s/lookup/id/%s?expand=1", grameneBase, url.PathEscape(geneID))
	resp, err := httputil.GetJSON(ctx, c.HTTP, u, c.Cfg.UserAgent, c.Cfg.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("Gramene gene lookup: %w", err)
	}
	defer resp.Body.Close()

	var row Bag
	if err := json.NewDecoder(resp.Body).Decode(&row); err != nil {
		return Result{}, fmt.Errorf("parsing Gramene lookup response: %w", err)
	}
	return Result{Rows: []Bag{row}}, nil
}

func (c *Client) grameneRows(ctx context.Context, u string) ([]Bag, error) {
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
