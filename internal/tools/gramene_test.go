// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGrameneGeneSearchKeywordOnly(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		fmt.Fprint(w, `[{"id": "Os03g0745000", "display_id": "SKC1"}]`)
	}))
	defer ts.Close()

	old := grameneBase
	grameneBase = ts.URL
	defer func() { grameneBase = old }()

	// A keyword hit stops the symbol probes.
	res, err := testClient(ts).GrameneGeneSearch(context.Background(), "SKC1", "rice", []string{"HKT1", "HKT8"}, 20)
	if err != nil {
		t.Fatalf("GrameneGeneSearch: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].String("id") != "Os03g0745000" {
		t.Errorf("Rows = %v", res.Rows)
	}
	if len(paths) != 1 || paths[0] != "/xrefs/symbol/oryza_sativa/SKC1" {
		t.Errorf("paths = %v, want a single keyword lookup", paths)
	}
}

func TestGrameneGeneSearchFallsBackToSymbols(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/xrefs/symbol/oryza_sativa/HKT8":
			fmt.Fprint(w, `[{"id": "Os01g0307500"}, {"id": "Os03g0745000"}]`)
		case "/xrefs/symbol/oryza_sativa/HKT1":
			// Unknown symbols 404; probes are best-effort.
			http.Error(w, "not found", http.StatusNotFound)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer ts.Close()

	old := grameneBase
	grameneBase = ts.URL
	defer func() { grameneBase = old }()

	res, err := testClient(ts).GrameneGeneSearch(context.Background(), "salt tolerance", "rice", []string{"HKT1", "HKT8"}, 20)
	if err != nil {
		t.Fatalf("GrameneGeneSearch: %v", err)
	}
	if len(paths) != 3 {
		t.Errorf("paths = %v, want keyword plus both symbol probes", paths)
	}
	if len(res.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2 from the surviving probe", len(res.Rows))
	}
}

func TestGrameneGeneSearchDeduplicatesAcrossProbes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every probe answers the same gene.
		fmt.Fprint(w, `[{"id": "Os03g0745000"}]`)
	}))
	defer ts.Close()

	old := grameneBase
	grameneBase = ts.URL
	defer func() { grameneBase = old }()

	res, err := testClient(ts).GrameneGeneSearch(context.Background(), "", "rice", []string{"SKC1", "OsHKT8"}, 20)
	if err != nil {
		t.Fatalf("GrameneGeneSearch: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Errorf("len(Rows) = %d, want 1 after dedup", len(res.Rows))
	}
}

func TestGrameneGeneSearchKeywordErrorSurfaces(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer ts.Close()

	old := grameneBase
	grameneBase = ts.URL
	defer func() { grameneBase = old }()

	_, err := testClient(ts).GrameneGeneSearch(context.Background(), "SKC1", "rice", nil, 20)
	if err == nil {
		t.Fatal("expected keyword lookup error to surface")
	}
}

func TestGrameneGeneSearchRequiresInput(t *testing.T) {
	c := &Client{}
	if _, err := c.GrameneGeneSearch(context.Background(), "", "rice", nil, 20); err == nil {
		t.Fatal("expected error when query and symbols are both empty")
	}
}

func TestGrameneGeneLookup(t *testing.T) {
	var gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		fmt.Fprint(w, `{"id": "Os03g0745000", "display_name": "SKC1", "species": "oryza_sativa"}`)
	}))
	defer ts.Close()

	old := grameneBase
	grameneBase = ts.URL
	defer func() { grameneBase = old }()

	res, err := testClient(ts).GrameneGeneLookup(context.Background(), "Os03g0745000")
	if err != nil {
		t.Fatalf("GrameneGeneLookup: %v", err)
	}
	if gotPath != "/lookup/id/Os03g0745000" {
		t.Errorf("path = %q", gotPath)
	}
	if len(res.Rows) != 1 || res.Rows[0].String("species") != "oryza_sativa" {
		t.Errorf("Rows = %v", res.Rows)
	}
}

func TestGrameneGeneLookupRequiresID(t *testing.T) {
	c := &Client{}
	if _, err := c.GrameneGeneLookup(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty gene_id")
	}
}
