package foodfacts

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

const samplePayload = `{
	"count": 2,
	"products": [
		{
			"code": "5000159407236",
			"product_name": "Digestive Biscuits",
			"brands": "McVitie's",
			"nutriscore_grade": "e",
			"nova_group": 4,
			"image_url": "https://images.example/1.jpg",
			"completeness": 0.8875,
			"countries": "United Kingdom",
			"categories": "Snacks, Biscuits",
			"nutriments": {"sugars_100g": 16.6, "salt_100g": "0.9", "fat_100g": 20.3, "saturated-fat_100g": 9.7}
		},
		{
			"code": 3017620422003,
			"product_name": "Hazelnut Spread",
			"nova_group": null,
			"nutriments": {}
		}
	]
}`

func TestParseJSON(t *testing.T) {
	records, err := ParseJSON(strings.NewReader(samplePayload))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}

	r := records[0]
	if r.Code != "5000159407236" {
		t.Errorf("code = %q", r.Code)
	}
	if r.NovaGroup != "4" {
		t.Errorf("nova = %q, want %q", r.NovaGroup, "4")
	}
	if r.Sugars100g != "16.6" || r.Salt100g != "0.9" || r.SaturatedFat100g != "9.7" {
		t.Errorf("nutrients = %q %q %q", r.Sugars100g, r.Salt100g, r.SaturatedFat100g)
	}
	if r.Completeness != "0.8875" {
		t.Errorf("completeness = %q", r.Completeness)
	}

	r = records[1]
	if r.Code != "3017620422003" {
		t.Errorf("numeric code = %q, want literal text", r.Code)
	}
	if r.NovaGroup != "" || r.Sugars100g != "" || r.NutriscoreGrade != "" {
		t.Errorf("missing fields = %+v, want empty", r)
	}
}

func TestParseJSONMalformed(t *testing.T) {
	if _, err := ParseJSON(strings.NewReader(`{"products": [`)); err == nil {
		t.Error("expected error for truncated body")
	}
}

func TestParseCSV(t *testing.T) {
	body := "code\tproduct_name\tbrands\tnutriscore_grade\tnova_group\timage_url\tsugars_100g\tsalt_100g\tfat_100g\tsaturated-fat_100g\tcompleteness\tcountries_en\tcategories_en\n" +
		"123\tOat \"Milk\"\tOatly\tb\t3\thttps://img/1\t4\t0.1\t1.5\t0.2\t0.9\tUnited Kingdom\tBeverages,Plant milks\n" +
		"456\tShort Row\n"

	records, err := ParseCSV(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	r := records[0]
	if r.ProductName != `Oat "Milk"` {
		t.Errorf("name = %q", r.ProductName)
	}
	if r.Categories != "Beverages,Plant milks" || r.Countries != "United Kingdom" {
		t.Errorf("countries/categories = %q / %q", r.Countries, r.Categories)
	}
	if r.SaturatedFat100g != "0.2" {
		t.Errorf("saturated fat = %q", r.SaturatedFat100g)
	}
	if records[1].Brands != "" || records[1].ProductName != "Short Row" {
		t.Errorf("short row = %+v", records[1])
	}
}

func TestParseCSVNoHeader(t *testing.T) {
	if _, err := ParseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty body")
	}
	if _, err := ParseCSV(strings.NewReader("name\tbrand\nx\ty\n")); err == nil {
		t.Error("expected error when code column is missing")
	}
}

func TestSearchURL(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://example.test/", PageSize: 25})
	raw := c.SearchURL("whole milk", 2)

	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	if u.Path != "/cgi/search.pl" {
		t.Errorf("path = %q", u.Path)
	}
	q := u.Query()
	want := map[string]string{
		"action":         "process",
		"search_terms":   "whole milk",
		"tagtype_0":      "countries",
		"tag_contains_0": "contains",
		"tag_0":          "United Kingdom",
		"sort_by":        "unique_scans_n",
		"json":           "true",
		"page_size":      "25",
		"page":           "2",
	}
	for k, v := range want {
		if got := q.Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}

	csvURL, _ := url.Parse(NewClient(Config{Format: FormatCSV}).SearchURL("milk", 0))
	if csvURL.Query().Get("format") != "csv" || csvURL.Query().Get("json") != "" {
		t.Errorf("csv url = %s", csvURL)
	}
	if csvURL.Query().Get("page") != "1" {
		t.Errorf("page = %q, want 1", csvURL.Query().Get("page"))
	}
}

func TestSearch(t *testing.T) {
	var gotUA, gotTerms string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotTerms = r.URL.Query().Get("search_terms")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, UserAgent: "test-agent/1.0"})
	records, err := c.Search(context.Background(), "biscuits", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len = %d, want 2", len(records))
	}
	if gotUA != "test-agent/1.0" {
		t.Errorf("user agent = %q", gotUA)
	}
	if gotTerms != "biscuits" {
		t.Errorf("search_terms = %q", gotTerms)
	}
}

func TestSearchCSV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "csv" {
			http.Error(w, "want csv", http.StatusBadRequest)
			return
		}
		w.Write([]byte("code\tproduct_name\n1\tTea\n"))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Format: FormatCSV})
	records, err := c.Search(context.Background(), "tea", 1)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(records) != 1 || records[0].ProductName != "Tea" {
		t.Errorf("records = %+v", records)
	}
}

func TestSearchBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Search(context.Background(), "milk", 1)
	if !errors.Is(err, ErrBadStatus) {
		t.Errorf("err = %v, want ErrBadStatus", err)
	}
}

func TestSearchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Timeout: 20 * time.Millisecond})
	if _, err := c.Search(context.Background(), "milk", 1); err == nil {
		t.Error("expected timeout error")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{" csv ", FormatCSV, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
