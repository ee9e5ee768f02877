package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCurrency = "GBP"

type Retailer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	LogoURL    string    `json:"logo_url"`
	WebsiteURL string    `json:"website_url"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Product is a priced grocery product. NovaScore runs 1 (unprocessed) to
// 4 (ultra-processed); NutriScore runs A (best) to E (worst).
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Category    string    `json:"category"`
	NovaScore   int       `json:"nova_score"`
	NutriScore  string    `json:"nutri_score"`
	Barcode     *string   `json:"barcode"`
	Unit        string    `json:"unit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Price struct {
	ID          int64               `json:"id"`
	ProductID   int64               `json:"product_id"`
	RetailerID  int64               `json:"retailer_id"`
	Price       decimal.Decimal     `json:"price"`
	Currency    string              `json:"currency"`
	IsOnSale    bool                `json:"is_on_sale"`
	SalePrice   decimal.NullDecimal `json:"sale_price"`
	InStock     bool                `json:"in_stock"`
	LastUpdated time.Time           `json:"last_updated"`
}

// EffectivePrice returns the sale price when the price is on sale and a sale
// price is set, otherwise the regular price.
func (p Price) EffectivePrice() decimal.Decimal {
	if p.IsOnSale && p.SalePrice.Valid {
		return p.SalePrice.Decimal
	}
	return p.Price
}

// ValidNutriScore reports whether s is one of A-E.
func ValidNutriScore(s string) bool {
	switch s {
	case "A", "B", "C", "D", "E":
		return true
	}
	return false
}

// ValidNovaScore reports whether n is a NOVA group (1-4).
func ValidNovaScore(n int) bool {
	return n >= 1 && n <= 4
}
