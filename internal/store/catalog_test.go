package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/shopspring/decimal"
)

func catalogProduct(code, name, grade string, nova int, categories string) model.CatalogProduct {
	p := model.CatalogProduct{
		Code:            code,
		ProductName:     name,
		NutriscoreGrade: grade,
		ImageURL:        "https://img/" + code,
		Categories:      categories,
		Completeness:    dec("0.5"),
	}
	if nova > 0 {
		p.NovaGroup = &nova
	}
	return p
}

func TestSaveSearchResults(t *testing.T) {
	cs := NewCatalogStore(setupTestDB(t))
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	p := catalogProduct("111", "Oat Milk", "b", 3, "Beverages, Plant milks")
	p.Sugars100g = decimal.NewNullDecimal(dec("3.2"))

	n, err := cs.SaveSearchResults(ctx, "milk", []model.CatalogProduct{p, catalogProduct("222", "Skimmed Milk", "a", 1, "Dairies")}, now)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if n != 2 {
		t.Errorf("stored = %d, want 2", n)
	}

	cache, err := cs.GetQueryCache(ctx, "milk")
	if err != nil {
		t.Fatalf("get cache: %v", err)
	}
	if cache == nil || cache.ResultCount != 2 || !cache.IsComplete {
		t.Fatalf("cache = %+v, want 2 complete", cache)
	}
	if !cache.LastSearchedAt.Equal(now) {
		t.Errorf("last searched = %v, want %v", cache.LastSearchedAt, now)
	}

	got, err := cs.GetByCode(ctx, "111")
	if err != nil {
		t.Fatalf("get by code: %v", err)
	}
	if got.NovaGroup == nil || *got.NovaGroup != 3 {
		t.Errorf("nova = %v, want 3", got.NovaGroup)
	}
	if !got.Sugars100g.Valid || !got.Sugars100g.Decimal.Equal(dec("3.2")) {
		t.Errorf("sugars = %v, want 3.2", got.Sugars100g)
	}
	if got.Salt100g.Valid {
		t.Error("expected null salt")
	}
	if got.SearchQuery != "milk" {
		t.Errorf("search query = %q, want milk", got.SearchQuery)
	}

	// Re-ingesting the same code under another query updates in place.
	later := now.Add(time.Hour)
	p.ProductName = "Oat Drink"
	if _, err := cs.SaveSearchResults(ctx, "oat", []model.CatalogProduct{p}, later); err != nil {
		t.Fatalf("save again: %v", err)
	}
	again, _ := cs.GetByCode(ctx, "111")
	if again.ID != got.ID || again.ProductName != "Oat Drink" || again.SearchQuery != "oat" {
		t.Errorf("again = %+v", again)
	}
	if !again.LastFetchedAt.Equal(later) {
		t.Errorf("last fetched = %v, want %v", again.LastFetchedAt, later)
	}

	milk, _ := cs.ListByQuery(ctx, "milk")
	if len(milk) != 1 || milk[0].Code != "222" {
		t.Errorf("milk query = %+v, want 222 only", milk)
	}
}

func TestSaveSearchResultsAllOrNothing(t *testing.T) {
	cs := NewCatalogStore(setupTestDB(t))
	ctx := context.Background()
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seed := []model.CatalogProduct{
		catalogProduct("111", "Oat Milk", "b", 3, "Beverages"),
		catalogProduct("222", "Skimmed Milk", "a", 1, "Dairies"),
	}
	if _, err := cs.SaveSearchResults(ctx, "milk", seed, first); err != nil {
		t.Fatalf("seed: %v", err)
	}

	renamed := catalogProduct("111", "Oat Drink", "a", 2, "Beverages")
	bad := catalogProduct("333", "Mystery Milk", "c", 7, "Dairies")
	if _, err := cs.SaveSearchResults(ctx, "milk", []model.CatalogProduct{renamed, bad}, first.Add(48*time.Hour)); err == nil {
		t.Fatal("expected error for out of range nova group")
	}

	got, err := cs.GetByCode(ctx, "111")
	if err != nil {
		t.Fatalf("get 111: %v", err)
	}
	if got.ProductName != "Oat Milk" || got.NutriscoreGrade != "b" || !got.LastFetchedAt.Equal(first) {
		t.Errorf("111 = %+v, want the seeded row unchanged", got)
	}
	if p, _ := cs.GetByCode(ctx, "333"); p != nil {
		t.Errorf("333 = %+v, want nil", p)
	}

	cache, err := cs.GetQueryCache(ctx, "milk")
	if err != nil {
		t.Fatalf("get cache: %v", err)
	}
	if cache == nil || cache.ResultCount != 2 || !cache.LastSearchedAt.Equal(first) {
		t.Errorf("cache = %+v, want seeded entry unchanged", cache)
	}

	rows, _ := cs.ListByQuery(ctx, "milk")
	if len(rows) != 2 {
		t.Errorf("milk rows = %d, want 2", len(rows))
	}
}

func TestGetQueryCacheMissing(t *testing.T) {
	cs := NewCatalogStore(setupTestDB(t))
	c, err := cs.GetQueryCache(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c != nil {
		t.Errorf("cache = %+v, want nil", c)
	}
}

func TestCatalogListAndAlternatives(t *testing.T) {
	cs := NewCatalogStore(setupTestDB(t))
	ctx := context.Background()

	seed := []model.CatalogProduct{
		catalogProduct("1", "Choco Cereal", "d", 4, "Breakfasts, Cereals"),
		catalogProduct("2", "Bran Flakes", "a", 3, "Breakfasts, Cereals"),
		catalogProduct("3", "Porridge Oats", "a", 1, "breakfasts, oats"),
		catalogProduct("4", "Frosted Rings", "e", 4, "Breakfasts, Cereals"),
		catalogProduct("5", "Cola", "b", 4, "Beverages"),
	}
	seed[1].Brands = "Kellogg's"
	if _, err := cs.SaveSearchResults(ctx, "cereal", seed, time.Now()); err != nil {
		t.Fatalf("save: %v", err)
	}

	byGrade, err := cs.List(ctx, CatalogFilter{Grade: "A"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(byGrade) != 2 {
		t.Errorf("grade a = %d, want 2", len(byGrade))
	}
	byBrand, _ := cs.List(ctx, CatalogFilter{Brand: "kellogg"})
	if len(byBrand) != 1 || byBrand[0].Code != "2" {
		t.Errorf("brand = %+v, want code 2", byBrand)
	}
	bySearch, _ := cs.List(ctx, CatalogFilter{Search: "oats"})
	if len(bySearch) != 1 || bySearch[0].Code != "3" {
		t.Errorf("search = %+v, want code 3", bySearch)
	}

	alts, err := cs.FindAlternatives(ctx, AlternativeCriteria{
		CategoryToken: "Breakfasts",
		BetterGrades:  []string{"a", "b", "c"},
		NovaBelow:     4,
		ExcludeCode:   "1",
	})
	if err != nil {
		t.Fatalf("alternatives: %v", err)
	}
	codes := map[string]bool{}
	for _, a := range alts {
		codes[a.Code] = true
	}
	if len(alts) != 2 || !codes["2"] || !codes["3"] {
		t.Errorf("alternatives = %v, want codes 2 and 3", codes)
	}

	none, err := cs.FindAlternatives(ctx, AlternativeCriteria{CategoryToken: "Breakfasts", ExcludeCode: "3"})
	if err != nil {
		t.Fatalf("alternatives: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("alternatives = %d, want 0", len(none))
	}
}
