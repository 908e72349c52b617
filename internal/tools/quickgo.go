// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/pdiddy/genescout/internal/httputil"
)

// quickgoBase is the QuickGO annotation endpoint. Declared as a var so
// tests can substitute an httptest server.
var quickgoBase = "https://www.ebi.ac.uk/QuickGO/services"

// uniprotAccession matches the two UniProt accession formats QuickGO
// accepts as gene product IDs. Gene symbols fail upstream with a 400, so
// malformed IDs are rejected before issuing the call.
var uniprotAccession = regexp.MustCompile(`^[A-NR-Z][0-9][A-Z][A-Z0-9]{2}[0-9]$|^[OPQ][0-9][A-Z0-9]{3}[0-9]$`)

func quickgoAnnotationsTool() Tool {
	return Tool{
		Name: ToolQuickGOAnnotations,
		Description: "Fetch GO annotations for a UniProt accession from " +
			"QuickGO. Requires a UniProt accession, not a gene symbol.",
		Params: []Param{
			{Name: "gene_product_id", Type: "string", Description: "UniProt accession, e.g. 'P12345'.", Required: true},
			{Name: "evidence_codes", Type: "array", Items: "string", Description: "Optional evidence-code filter (e.g. ['IDA','EXP'])."},
		},
		Run: func(ctx context.Context, c *Client, args Args) (Result, error) {
			return c.QuickGOAnnotations(ctx, args.String("gene_product_id", ""), args.StringList("evidence_codes"))
		},
	}
}

// QuickGOAnnotations returns GO annotation rows for one UniProt accession.
// Evidence-code filtering happens client-side; passing the filter upstream
// produces 400s.
func (c *Client) QuickGOAnnotations(ctx context.Context, geneProductID string, evidenceCodes []string) (Result, error) {
	if !uniprotAccession.MatchString(geneProductID) {
		return Result{}, fmt.Errorf("invalid UniProt accession %q", geneProductID)
	}

	params := url.Values{"geneProductId": {geneProductID}}
	resp, err := httputil.GetJSON(ctx, c.HTTP, quickgoBase+"/annotation/search?"+params.Encode(), c.Cfg.UserAgent, c.Cfg.MaxRetries)
	if err != nil {
		return Result{}, fmt.Errorf("QuickGO annotations: %w", err)
	}
	defer resp.Body.Close()

	var payload Bag
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Result{}, fmt.Errorf("parsing QuickGO response: %w", err)
	}

	wanted := make(map[string]bool, len(evidenceCodes))
	for _, code := range evidenceCodes {
		wanted[code] = true
	}

	var rows []Bag
	for _, row := range payload.List("results") {
		if len(wanted) > 0 && !wanted[row.String("goEvidence")] {
			continue
		}
		// Rows with neither an ID nor a term carry no usable evidence.
		if row.String("goId") == "" && row.String("goName") == "" {
			continue
		}
		rows = append(rows, row)
	}
	return Result{Rows: rows}, nil
}
