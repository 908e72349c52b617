// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const sampleXrefsJSON = `[
  {"id": "Os01g0307500", "display_id": "DREB2A", "description": "dehydration-responsive element-binding protein"},
  {"id": "Os01g0307500", "display_id": "DREB2A", "description": "duplicate xref"},
  {"id": "Os05g0349800", "display_id": "DREB2B"},
  {"description": "no id, dropped"}
]`

func TestEnsemblSearchGenes(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, sampleXrefsJSON)
	}))
	defer ts.Close()

	old := ensemblBase
	ensemblBase = ts.URL
	defer func() { ensemblBase = old }()

	res, err := testClient(ts).EnsemblSearchGenes(context.Background(), "DREB2A", "rice", 20)
	if err != nil {
		t.Fatalf("EnsemblSearchGenes: %v", err)
	}

	// Species name is normalized to the Ensembl code in the path.
	if gotPath != "/xrefs/symbol/oryza_sativa/DREB2A" {
		t.Errorf("path = %q", gotPath)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2 (duplicate and id-less rows dropped)", len(res.Rows))
	}
	if res.Rows[0].String("id") != "Os01g0307500" || res.Rows[1].String("id") != "Os05g0349800" {
		t.Errorf("Rows = %v, want deduplicated ids in response order", res.Rows)
	}
}

func TestEnsemblSearchGenesSingleRecord(t *testing.T) {
	// Some symbols answer a bare object instead of a list.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": "Os01g0307500", "display_id": "DREB2A"}`)
	}))
	defer ts.Close()

	old := ensemblBase
	ensemblBase = ts.URL
	defer func() { ensemblBase = old }()

	res, err := testClient(ts).EnsemblSearchGenes(context.Background(), "DREB2A", "rice", 20)
	if err != nil {
		t.Fatalf("EnsemblSearchGenes: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].String("id") != "Os01g0307500" {
		t.Errorf("Rows = %v, want single normalized row", res.Rows)
	}
}

func TestEnsemblSearchGenesHonorsLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"id": "a"}, {"id": "b"}, {"id": "c"}]`)
	}))
	defer ts.Close()

	old := ensemblBase
	ensemblBase = ts.URL
	defer func() { ensemblBase = old }()

	res, err := testClient(ts).EnsemblSearchGenes(context.Background(), "DREB", "rice", 2)
	if err != nil {
		t.Fatalf("EnsemblSearchGenes: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2", len(res.Rows))
	}
}

func TestEnsemblSearchGenesMissingArgs(t *testing.T) {
	c := &Client{}
	if _, err := c.EnsemblSearchGenes(context.Background(), "", "rice", 20); err == nil {
		t.Error("expected error for empty keyword")
	}
	if _, err := c.EnsemblSearchGenes(context.Background(), "DREB2A", "", 20); err == nil {
		t.Error("expected error for empty species")
	}
}

func TestEnsemblGeneInfo(t *testing.T) {
	var gotPath, gotExpand string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotExpand = r.URL.Query().Get("expand")
		fmt.Fprint(w, `{"id": "Os01g0307500", "biotype": "protein_coding", "start": 11400, "end": 13900}`)
	}))
	defer ts.Close()

	old := ensemblBase
	ensemblBase = ts.URL
	defer func() { ensemblBase = old }()

	res, err := testClient(ts).EnsemblGeneInfo(context.Background(), "Os01g0307500")
	if err != nil {
		t.Fatalf("EnsemblGeneInfo: %v", err)
	}
	if gotPath != "/lookup/id/Os01g0307500" {
		t.Errorf("path = %q", gotPath)
	}
	if gotExpand != "1" {
		t.Errorf("expand = %q, want 1", gotExpand)
	}
	if len(res.Rows) != 1 || res.Rows[0].Int("start") != 11400 {
		t.Errorf("Rows = %v, want one expanded record", res.Rows)
	}
}

const sampleHomologyJSON = `{
  "data": [{
    "id": "Os01g0307500",
    "homologies": [
      {"target": {"id": "Zm00001d033331", "species": "zea_mays"}, "type": "ortholog_one2one"},
      {"target": {"id": "AT5G05410", "species": "arabidopsis_thaliana"}, "type": "ortholog_one2one"}
    ]
  }]
}`

func TestEnsemblOrthologs(t *testing.T) {
	var gotPath, gotType string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotType = r.URL.Query().Get("type")
		fmt.Fprint(w, sampleHomologyJSON)
	}))
	defer ts.Close()

	old := ensemblBase
	ensemblBase = ts.URL
	defer func() { ensemblBase = old }()

	res, err := testClient(ts).EnsemblOrthologs(context.Background(), "Os01g0307500", nil)
	if err != nil {
		t.Fatalf("EnsemblOrthologs: %v", err)
	}
	if gotPath != "/homology/id/Os01g0307500" {
		t.Errorf("path = %q", gotPath)
	}
	if gotType != "orthologues" {
		t.Errorf("type = %q, want orthologues", gotType)
	}
	if len(res.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2 without a species filter", len(res.Rows))
	}
}

func TestEnsemblOrthologsFiltersTargetSpecies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleHomologyJSON)
	}))
	defer ts.Close()

	old := ensemblBase
	ensemblBase = ts.URL
	defer func() { ensemblBase = old }()

	// Common names are normalized before matching.
	res, err := testClient(ts).EnsemblOrthologs(context.Background(), "Os01g0307500", []string{"maize"})
	if err != nil {
		t.Fatalf("EnsemblOrthologs: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1 after filtering", len(res.Rows))
	}
	if got := res.Rows[0].Sub("target").String("id"); got != "Zm00001d033331" {
		t.Errorf("target id = %q, want the maize ortholog", got)
	}
}

func TestEnsemblGeneInfoHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	old := ensemblBase
	ensemblBase = ts.URL
	defer func() { ensemblBase = old }()

	_, err := testClient(ts).EnsemblGeneInfo(context.Background(), "BOGUS")
	if err == nil {
		t.Fatal("expected error for HTTP 404")
	}
}
