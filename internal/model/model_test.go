package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEffectivePrice(t *testing.T) {
	regular := decimal.RequireFromString("1.20")
	sale := decimal.NewNullDecimal(decimal.RequireFromString("0.90"))

	tests := []struct {
		name  string
		price Price
		want  string
	}{
		{"regular", Price{Price: regular}, "1.2"},
		{"on sale", Price{Price: regular, IsOnSale: true, SalePrice: sale}, "0.9"},
		{"sale price but not on sale", Price{Price: regular, SalePrice: sale}, "1.2"},
		{"on sale without sale price", Price{Price: regular, IsOnSale: true}, "1.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.price.EffectivePrice(); !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("EffectivePrice() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQueryCacheStaleness(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	fresh := SearchQueryCache{LastSearchedAt: now}
	if fresh.IsStale(now) {
		t.Error("entry searched now should be fresh")
	}
	old := SearchQueryCache{LastSearchedAt: now.Add(-25 * time.Hour)}
	if !old.IsStale(now) {
		t.Error("entry searched 25h ago should be stale")
	}
	edge := SearchQueryCache{LastSearchedAt: now.Add(-CatalogStaleAfter)}
	if !edge.IsStale(now) {
		t.Error("entry exactly CatalogStaleAfter old should be stale")
	}
}

func TestCatalogProductStaleness(t *testing.T) {
	now := time.Now()
	if (CatalogProduct{LastFetchedAt: now.Add(-time.Hour)}).IsStale(now) {
		t.Error("product fetched an hour ago should be fresh")
	}
	if !(CatalogProduct{LastFetchedAt: now.Add(-48 * time.Hour)}).IsStale(now) {
		t.Error("product fetched two days ago should be stale")
	}
}

func TestValidScores(t *testing.T) {
	for _, s := range []string{"A", "B", "C", "D", "E"} {
		if !ValidNutriScore(s) {
			t.Errorf("ValidNutriScore(%q) = false", s)
		}
	}
	for _, s := range []string{"", "F", "AB"} {
		if ValidNutriScore(s) {
			t.Errorf("ValidNutriScore(%q) = true", s)
		}
	}
	if ValidNovaScore(0) || ValidNovaScore(5) || !ValidNovaScore(4) {
		t.Error("ValidNovaScore accepts only 1 to 4")
	}
}
