package store

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestPriceUpsert(t *testing.T) {
	db := setupTestDB(t)
	ps, rs, prices := NewProductStore(db), NewRetailerStore(db), NewPriceStore(db)

	milk := createTestProduct(t, ps, "Milk", "Dairy")
	tesco := createTestRetailer(t, rs, "Tesco")

	p, created, err := prices.Upsert(PriceInput{ProductID: milk.ID, RetailerID: tesco.ID, Price: dec("1.5"), InStock: true})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if !created {
		t.Error("expected created on first upsert")
	}
	if !p.Price.Equal(dec("1.50")) {
		t.Errorf("price = %s, want 1.50", p.Price)
	}
	if p.Currency != "GBP" {
		t.Errorf("currency = %q, want GBP", p.Currency)
	}
	if p.SalePrice.Valid {
		t.Error("expected no sale price")
	}

	p2, created, err := prices.Upsert(PriceInput{
		ProductID: milk.ID, RetailerID: tesco.ID, Price: dec("1.60"),
		IsOnSale: true, SalePrice: decimal.NewNullDecimal(dec("1.20")), InStock: true,
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if created {
		t.Error("expected update on second upsert")
	}
	if p2.ID != p.ID {
		t.Errorf("id = %d, want %d", p2.ID, p.ID)
	}
	if !p2.EffectivePrice().Equal(dec("1.20")) {
		t.Errorf("effective = %s, want 1.20", p2.EffectivePrice())
	}

	all, err := prices.List(PriceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("len = %d, want 1", len(all))
	}
}

func TestPriceUpsertMissingParent(t *testing.T) {
	db := setupTestDB(t)
	prices := NewPriceStore(db)

	_, _, err := prices.Upsert(PriceInput{ProductID: 99, RetailerID: 99, Price: dec("1")})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPriceUpsertRejectsFractionalPence(t *testing.T) {
	db := setupTestDB(t)
	ps, rs, prices := NewProductStore(db), NewRetailerStore(db), NewPriceStore(db)
	milk := createTestProduct(t, ps, "Milk", "Dairy")
	tesco := createTestRetailer(t, rs, "Tesco")

	if _, _, err := prices.Upsert(PriceInput{ProductID: milk.ID, RetailerID: tesco.ID, Price: dec("1.235")}); err == nil {
		t.Error("expected error for 1.235")
	}
	_, _, err := prices.Upsert(PriceInput{
		ProductID: milk.ID, RetailerID: tesco.ID, Price: dec("1.50"),
		IsOnSale: true, SalePrice: decimal.NewNullDecimal(dec("0.999")),
	})
	if err == nil {
		t.Error("expected error for sale price 0.999")
	}

	all, err := prices.List(PriceFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("stored %d prices, want none", len(all))
	}
}

func TestPriceListFiltersAndCascade(t *testing.T) {
	db := setupTestDB(t)
	ps, rs, prices := NewProductStore(db), NewRetailerStore(db), NewPriceStore(db)

	bread := createTestProduct(t, ps, "Bread", "Bakery")
	eggs := createTestProduct(t, ps, "Eggs", "Dairy")
	tesco := createTestRetailer(t, rs, "Tesco")
	aldi := createTestRetailer(t, rs, "Aldi")

	seed := []PriceInput{
		{ProductID: bread.ID, RetailerID: tesco.ID, Price: dec("1.10"), InStock: true},
		{ProductID: bread.ID, RetailerID: aldi.ID, Price: dec("0.75"), InStock: true},
		{ProductID: eggs.ID, RetailerID: tesco.ID, Price: dec("2.10"), InStock: false},
	}
	for _, in := range seed {
		if _, _, err := prices.Upsert(in); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	byProduct, err := prices.List(PriceFilter{ProductID: bread.ID})
	if err != nil {
		t.Fatalf("list by product: %v", err)
	}
	if len(byProduct) != 2 || byProduct[0].RetailerID != aldi.ID {
		t.Errorf("by product = %+v, want aldi first", byProduct)
	}

	inStock := true
	stocked, err := prices.InStockForProducts([]int64{bread.ID, eggs.ID})
	if err != nil {
		t.Fatalf("in stock: %v", err)
	}
	if len(stocked) != 2 {
		t.Errorf("in stock len = %d, want 2", len(stocked))
	}
	filtered, _ := prices.List(PriceFilter{RetailerID: tesco.ID, InStock: &inStock})
	if len(filtered) != 1 || filtered[0].ProductID != bread.ID {
		t.Errorf("tesco in stock = %+v, want bread only", filtered)
	}

	if err := ps.Delete(bread.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	remaining, _ := prices.List(PriceFilter{})
	if len(remaining) != 1 || remaining[0].ProductID != eggs.ID {
		t.Errorf("remaining = %+v, want eggs price only", remaining)
	}

	if err := rs.Delete(tesco.ID); err != nil {
		t.Fatalf("delete retailer: %v", err)
	}
	remaining, _ = prices.List(PriceFilter{})
	if len(remaining) != 0 {
		t.Errorf("remaining = %d, want 0", len(remaining))
	}
}

func TestInStockForProductsEmpty(t *testing.T) {
	prices := NewPriceStore(setupTestDB(t))
	got, err := prices.InStockForProducts(nil)
	if err != nil {
		t.Fatalf("in stock: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
