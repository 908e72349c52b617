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

// pubmedBase is the NCBI E-utilities endpoint. Declared as a var so tests
// can substitute an httptest server.
var pubmedBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// esummaryFields is the subset of ESummary document fields kept in the raw
// result; everything else upstream returns is dropped at this layer.
var esummaryFields = []string{
	"uid", "title", "pubdate", "source", "elocationid", "authors",
}

func pubmedSearchTool() Tool {
	return Tool{
		Name: ToolPubMedSearch,
		Description: "Search PubMed (NCBI E-utilities ESearch) for literature " +
			"and return a list of PubMed IDs ordered by relevance.",
		Params: []Param{
			{Name: "query", Type: "string", Description: "Boolean full-text query or MeSH terms.", Required: true},
			{Name: "max_hits", Type: "integer", Description: "Maximum number of PMIDs to return.", Min: 1, Max: 50, Default: 20},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.PubMedSearch(ctx, args.String("query", ""), args.Int("max_hits", 20))
		},
	}
}

func pubmedSummariesTool() Tool {
	return Tool{
		Name: ToolPubMedSummaries,
		Description: "Retrieve compact JSON summaries (ESummary) for a list of " +
			"PubMed IDs: titles, venues, dates, DOIs, author lists.",
		Params: []Param{
			{Name: "pmids", Type: "array", Items: "string", Description: "PubMed IDs to summarise.", Required: true},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.PubMedFetchSummaries(ctx, args.StringList("pmids"))
		},
	}
}

// PubMedSearch returns PMIDs matching query via ESearch.
func (c *Client) PubMedSearch(ctx context.Context, query string, maxHits int) (Result, error) {
	if query == "" {
		return Result{}, fmt.Errorf("empty PubMed query")
	}
	maxHits = clampLimit(maxHits, 20, 50)

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmode": {"json"},
		"retmax":  {fmt.Sprintf("%d", maxHits)},
	}
	c.ncbiIdentity(params)

	resp, err := httputil.GetJSON(ctx, c.HTTP, pubmedBase+"/esearch.fcgi?"+params.Encode(), c.Cfg.UserAgent, c.Cfg.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("PubMed search: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		ESearchResult struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("parsing PubMed search response: %w", err)
	}
	return Result{Values: payload.ESearchResult.IDList}, nil
}

// PubMedFetchSummaries returns one raw summary record per PMID via ESummary.
// PMIDs absent from the response are skipped.
func (c *Client) PubMedFetchSummaries(ctx context.Context, pmids []string) (Result, error) {
	if len(pmids) == 0 {
		return Result{}, nil
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(pmids, ",")},
		"retmode": {"json"},
	}
	c.ncbiIdentity(params)

	resp, err := httputil.GetJSON(ctx, c.HTTP, pubmedBase+"/esummary.fcgi?"+params.Encode(), c.Cfg.UserAgent, c.Cfg.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("PubMed summaries: %w", err)
	}
	defer resp.Body.Close()

	var payload struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("parsing PubMed summary response: %w", err)
	}

	var rows []Bag
	for _, pmid := range pmids {
		raw, ok := payload.Result[pmid]
		if !ok {
			continue
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		row := Bag{}
		for _, f := range esummaryFields {
			if v, ok := doc[f]; ok {
				row[f] = v
			}
		}
		// ESummary buries the DOI inside articleids.
		if ids, ok := doc["articleids"].([]any); ok {
			for _, e := range ids {
				m, ok := e.(map[string]any)
				if !ok {
					continue
				}
				if t, _ := m["idtype"].(string); t == "doi" {
					row["doi"], _ = m["value"].(string)
				}
			}
		}
		if _, ok := row["uid"]; !ok {
			row["uid"] = pmid
		}
		rows = append(rows, row)
	}
	return Result{Rows: rows}, nil
}

// ncbiIdentity attaches the E-utilities identification parameters NCBI
// asks heavy users to send: an API key raises the rate limit, tool and
// email identify the caller.
func (c *Client) ncbiIdentity(params url.Values) {
	if c.Cfg.NCBIAPIKey != "" {
		params.Set("api_key", c.Cfg.NCBIAPIKey)
	}
	params.Set("tool", "genescout")
	if c.Cfg.ContactEmail != "" {
		params.Set("email", c.Cfg.ContactEmail)
	}
}
