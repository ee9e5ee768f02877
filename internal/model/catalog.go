package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogStaleAfter is how long ingested catalog data and query cache entries
// stay fresh.
const CatalogStaleAfter = 24 * time.Hour

// GradeUnknown is stored when the source grade is missing or not a-e.
const GradeUnknown = "unknown"

// CatalogProduct is a product ingested from the external food-data API,
// keyed by barcode.
type CatalogProduct struct {
	ID               int64               `json:"id"`
	Code             string              `json:"code"`
	ProductName      string              `json:"product_name"`
	Brands           string              `json:"brands"`
	ImageURL         string              `json:"image_url"`
	NutriscoreGrade  string              `json:"nutriscore_grade"`
	NovaGroup        *int                `json:"nova_group"`
	Sugars100g       decimal.NullDecimal `json:"sugars_100g"`
	Salt100g         decimal.NullDecimal `json:"salt_100g"`
	Fat100g          decimal.NullDecimal `json:"fat_100g"`
	SaturatedFat100g decimal.NullDecimal `json:"saturated_fat_100g"`
	Completeness     decimal.Decimal     `json:"completeness"`
	Countries        string              `json:"countries"`
	Categories       string              `json:"categories"`
	SearchQuery      string              `json:"search_query"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	LastFetchedAt    time.Time           `json:"last_fetched_at"`
}

// IsStale reports whether the record was last fetched CatalogStaleAfter or
// more before now.
func (p CatalogProduct) IsStale(now time.Time) bool {
	return now.Sub(p.LastFetchedAt) >= CatalogStaleAfter
}

// SearchQueryCache tracks when a normalized query was last fetched from the
// external API.
type SearchQueryCache struct {
	ID             int64     `json:"id"`
	Query          string    `json:"query"`
	ResultCount    int       `json:"result_count"`
	IsComplete     bool      `json:"is_complete"`
	LastSearchedAt time.Time `json:"last_searched_at"`
}

// IsStale reports whether the entry is CatalogStaleAfter old or older.
func (c SearchQueryCache) IsStale(now time.Time) bool {
	return now.Sub(c.LastSearchedAt) >= CatalogStaleAfter
}
