// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

const sampleESearchJSON = `{
  "esearchresult": {
    "count": "3",
    "idlist": ["33333", "22222", "11111"]
  }
}`

const sampleESummaryJSON = `{
  "result": {
    "uids": ["11111", "22222"],
    "11111": {
      "uid": "11111",
      "title": "OsDREB2A mediates drought and salt stress response in rice",
      "pubdate": "2020 Mar",
      "source": "Plant Cell",
      "elocationid": "doi: 10.1105/tpc.0001",
      "sortfirstauthor": "dropped field",
      "authors": [{"name": "Tanaka H"}, {"name": "Sato Y"}],
      "articleids": [
        {"idtype": "pubmed", "value": "11111"},
        {"idtype": "doi", "value": "10.1105/tpc.0001"}
      ]
    },
    "22222": {
      "title": "Salt tolerance QTL mapping"
    }
  }
}`

func TestPubMedSearch(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		fmt.Fprint(w, sampleESearchJSON)
	}))
	defer ts.Close()

	old := pubmedBase
	pubmedBase = ts.URL
	defer func() { pubmedBase = old }()

	c := testClient(ts)
	c.Cfg.NCBIAPIKey = "test-key"
	c.Cfg.ContactEmail = "user@example.com"
	res, err := c.PubMedSearch(context.Background(), "salt tolerance rice", 5)
	if err != nil {
		t.Fatalf("PubMedSearch: %v", err)
	}

	if gotPath != "/esearch.fcgi" {
		t.Errorf("path = %q, want /esearch.fcgi", gotPath)
	}
	if gotQuery.Get("db") != "pubmed" {
		t.Errorf("db = %q, want pubmed", gotQuery.Get("db"))
	}
	if gotQuery.Get("term") != "salt tolerance rice" {
		t.Errorf("term = %q", gotQuery.Get("term"))
	}
	if gotQuery.Get("retmax") != "5" {
		t.Errorf("retmax = %q, want 5", gotQuery.Get("retmax"))
	}
	if gotQuery.Get("retmode") != "json" {
		t.Errorf("retmode = %q, want json", gotQuery.Get("retmode"))
	}
	if gotQuery.Get("api_key") != "test-key" {
		t.Errorf("api_key = %q, want test-key", gotQuery.Get("api_key"))
	}
	if gotQuery.Get("tool") != "genescout" || gotQuery.Get("email") != "user@example.com" {
		t.Errorf("identification params = %q, %q", gotQuery.Get("tool"), gotQuery.Get("email"))
	}

	if len(res.Values) != 3 || res.Values[0] != "33333" {
		t.Errorf("Values = %v, want PMIDs in response order", res.Values)
	}
	if len(res.Rows) != 0 {
		t.Errorf("Rows = %v, want empty for ESearch", res.Rows)
	}
}

func TestPubMedSearchClampsMaxHits(t *testing.T) {
	var gotRetmax string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRetmax = r.URL.Query().Get("retmax")
		fmt.Fprint(w, `{"esearchresult": {"idlist": []}}`)
	}))
	defer ts.Close()

	old := pubmedBase
	pubmedBase = ts.URL
	defer func() { pubmedBase = old }()

	if _, err := testClient(ts).PubMedSearch(context.Background(), "rice", 500); err != nil {
		t.Fatalf("PubMedSearch: %v", err)
	}
	if gotRetmax != "50" {
		t.Errorf("retmax = %q, want clamped to 50", gotRetmax)
	}
}

func TestPubMedSearchEmptyQuery(t *testing.T) {
	c := &Client{}
	if _, err := c.PubMedSearch(context.Background(), "", 20); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestPubMedSearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	old := pubmedBase
	pubmedBase = ts.URL
	defer func() { pubmedBase = old }()

	_, err := testClient(ts).PubMedSearch(context.Background(), "rice", 20)
	if err == nil {
		t.Fatal("expected error for HTTP 502")
	}
}

func TestPubMedFetchSummaries(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		fmt.Fprint(w, sampleESummaryJSON)
	}))
	defer ts.Close()

	old := pubmedBase
	pubmedBase = ts.URL
	defer func() { pubmedBase = old }()

	// 99999 is absent from the response and should be skipped.
	res, err := testClient(ts).PubMedFetchSummaries(context.Background(), []string{"11111", "99999", "22222"})
	if err != nil {
		t.Fatalf("PubMedFetchSummaries: %v", err)
	}

	if gotPath != "/esummary.fcgi" {
		t.Errorf("path = %q, want /esummary.fcgi", gotPath)
	}
	if gotQuery.Get("id") != "11111,99999,22222" {
		t.Errorf("id = %q, want comma-joined PMIDs", gotQuery.Get("id"))
	}

	if len(res.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2 (missing PMID skipped)", len(res.Rows))
	}

	r0 := res.Rows[0]
	if r0.String("uid") != "11111" {
		t.Errorf("uid = %q", r0.String("uid"))
	}
	if r0.String("title") != "OsDREB2A mediates drought and salt stress response in rice" {
		t.Errorf("title = %q", r0.String("title"))
	}
	// DOI comes from articleids, not from the top-level fields.
	if r0.String("doi") != "10.1105/tpc.0001" {
		t.Errorf("doi = %q, want value from articleids", r0.String("doi"))
	}
	if _, ok := r0["sortfirstauthor"]; ok {
		t.Error("fields outside the keep list should be dropped")
	}
	if len(r0.List("authors")) != 2 {
		t.Errorf("authors = %v, want 2 entries", r0.List("authors"))
	}

	// The second record carries no uid; the requested PMID backfills it.
	r1 := res.Rows[1]
	if r1.String("uid") != "22222" {
		t.Errorf("uid = %q, want backfilled 22222", r1.String("uid"))
	}
	if r1.String("title") != "Salt tolerance QTL mapping" {
		t.Errorf("title = %q", r1.String("title"))
	}
}

func TestPubMedFetchSummariesEmptyInput(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer ts.Close()

	old := pubmedBase
	pubmedBase = ts.URL
	defer func() { pubmedBase = old }()

	res, err := testClient(ts).PubMedFetchSummaries(context.Background(), nil)
	if err != nil {
		t.Fatalf("PubMedFetchSummaries: %v", err)
	}
	if len(res.Rows) != 0 || len(res.Values) != 0 {
		t.Errorf("result = %+v, want empty", res)
	}
	if calls != 0 {
		t.Errorf("server called %d times, want 0 for empty input", calls)
	}
}
