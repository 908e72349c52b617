// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/genescout/internal/httputil"
)

// keggBase is the KEGG REST endpoint. Declared as a var so tests can
// substitute an httptest server.
var keggBase = "https://rest.kegg.jp"

func keggPathwaysTool() Tool {
	return Tool{
		Name: ToolKEGGPathways,
		Description: "List KEGG pathway IDs containing a gene " +
			"(link/pathway endpoint).",
		Params: []Param{
			{Name: "gene_id", Type: "string", Description: "KEGG gene ID, e.g. 'osa:4326559'.", Required: true},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.KEGGPathways(ctx, args.String("gene_id", ""))
		},
	}
}

func keggGeneInfoTool() Tool {
	return Tool{
		Name: ToolKEGGGeneInfo,
		Description: "Fetch the KEGG flat-file record for one gene: name, " +
			"definition, orthology, pathway list.",
		Params: []Param{
			{Name: "gene_id", Type: "string", Description: "KEGG gene ID.", Required: true},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.KEGGGeneInfo(ctx, args.String("gene_id", ""))
		},
	}
}

// KEGGPathways returns pathway IDs for a gene. KEGG answers tab-separated
// text, one "gene_id<TAB>pathway_id" line per membership.
func (c *Client) KEGGPathways(ctx context.Context, geneID string) (Result, error) {
	if geneID == "" {
		return Result{}, fmt.Errorf("gene_id is required")
	}

	body, err := c.keggText(ctx, fmt.Sprintf("%s/link/pathway/%s", keggBase, url.PathEscape(geneID)))
	if err != nil {
		return Result{}, fmt.Errorf("KEGG pathways: %w", err)
	}

	var ids []string
	for _, line := range strings.Split(strings.TrimSpace(body), "\n") {
		fields := strings.Split(line, "\t")
		if len(fields) == 2 && fields[1] != "" {
			ids = append(ids, fields[1])
		}
	}
	return Result{Values: ids}, nil
}

// KEGGGeneInfo parses a KEGG flat-file entry into one row with name,
// definition, orthology, and the pathway section.
func (c *Client) KEGGGeneInfo(ctx context.Context, geneID string) (Result, error) {
	if geneID == "" {
		return Result{}, fmt.Errorf("gene_id is required")
	}

	body, err := c.keggText(ctx, fmt.Sprintf("%s/get/%s", keggBase, url.PathEscape(geneID)))
	if err != nil {
		return Result{}, fmt.Errorf("KEGG gene info: %w", err)
	}
	if strings.TrimSpace(body) == "" {
		return Result{}, nil
	}

	row := Bag{"id": geneID}
	var pathways []any
	for _, line := range strings.Split(body, "\n") {
		switch {
		case strings.HasPrefix(line, "NAME"):
			row["name"] = strings.TrimSpace(strings.TrimPrefix(line, "NAME"))
		case strings.HasPrefix(line, "DEFINITION"):
			row["definition"] = strings.TrimSpace(strings.TrimPrefix(line, "DEFINITION"))
		case strings.HasPrefix(line, "ORTHOLOGY"):
			row["orthology"] = strings.TrimSpace(strings.TrimPrefix(line, "ORTHOLOGY"))
		case strings.HasPrefix(line, "PATHWAY"):
			pathways = append(pathways, strings.TrimSpace(strings.TrimPrefix(line, "PATHWAY")))
		}
	}
	if len(pathways) > 0 {
		row["pathways"] = pathways
	}
	return Result{Rows: []Bag{row}}, nil
}

// keggText fetches a KEGG URL and returns the plain-text body. KEGG does
// not speak JSON, so this skips the Accept header GetJSON would set.
func (c *Client) keggText(ctx context.Context, u string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	if c.Cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.Cfg.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.HTTP, req, c.Cfg.MaxRetries)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d from %s", resp.StatusCode, req.URL.Host)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}
