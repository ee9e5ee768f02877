package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/shopspring/decimal"
)

type PriceStore struct {
	db *sql.DB
}

func NewPriceStore(db *sql.DB) *PriceStore {
	return &PriceStore{db: db}
}

// PriceInput is the writable part of a price, keyed by (ProductID, RetailerID).
type PriceInput struct {
	ProductID  int64
	RetailerID int64
	Price      decimal.Decimal
	Currency   string
	IsOnSale   bool
	SalePrice  decimal.NullDecimal
	InStock    bool
}

// PriceFilter narrows List. Nil/zero fields are ignored.
type PriceFilter struct {
	ProductID  int64
	RetailerID int64
	InStock    *bool
	IsOnSale   *bool
}

const priceCols = `id, product_id, retailer_id, price, currency, is_on_sale, sale_price, in_stock, last_updated`

func scanPrice(scanner rowScanner) (*model.Price, error) {
	var p model.Price
	var onSale, inStock int
	err := scanner.Scan(
		&p.ID, &p.ProductID, &p.RetailerID, &p.Price, &p.Currency,
		&onSale, &p.SalePrice, &inStock, &p.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	p.IsOnSale = onSale != 0
	p.InStock = inStock != 0
	return &p, nil
}

func nullMoney(d decimal.NullDecimal) sql.NullString {
	if !d.Valid {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Decimal.StringFixed(2), Valid: true}
}

// Upsert creates or updates the price for (ProductID, RetailerID). created
// reports whether a new row was inserted. A missing product or retailer
// yields ErrNotFound.
func (s *PriceStore) Upsert(in PriceInput) (price *model.Price, created bool, err error) {
	if in.Currency == "" {
		in.Currency = model.DefaultCurrency
	}
	if !in.Price.Equal(in.Price.Truncate(2)) {
		return nil, false, fmt.Errorf("upsert price: %s has more than 2 decimal places", in.Price)
	}
	if in.SalePrice.Valid && !in.SalePrice.Decimal.Equal(in.SalePrice.Decimal.Truncate(2)) {
		return nil, false, fmt.Errorf("upsert price: sale price %s has more than 2 decimal places", in.SalePrice.Decimal)
	}

	var existingID int64
	err = s.db.QueryRow(
		`SELECT id FROM product_prices WHERE product_id = ? AND retailer_id = ?`,
		in.ProductID, in.RetailerID,
	).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		created = true
	case err != nil:
		return nil, false, fmt.Errorf("lookup price: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO product_prices (product_id, retailer_id, price, currency, is_on_sale, sale_price, in_stock, last_updated)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(product_id, retailer_id) DO UPDATE SET
		   price = excluded.price,
		   currency = excluded.currency,
		   is_on_sale = excluded.is_on_sale,
		   sale_price = excluded.sale_price,
		   in_stock = excluded.in_stock,
		   last_updated = excluded.last_updated`,
		in.ProductID, in.RetailerID, in.Price.StringFixed(2), in.Currency,
		boolToInt(in.IsOnSale), nullMoney(in.SalePrice), boolToInt(in.InStock), time.Now().UTC(),
	)
	if isForeignKeyViolation(err) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("upsert price: %w", err)
	}

	row := s.db.QueryRow(
		`SELECT `+priceCols+` FROM product_prices WHERE product_id = ? AND retailer_id = ?`,
		in.ProductID, in.RetailerID,
	)
	price, err = scanPrice(row)
	if err != nil {
		return nil, false, fmt.Errorf("get upserted price: %w", err)
	}
	return price, created, nil
}

func (s *PriceStore) GetByID(id int64) (*model.Price, error) {
	row := s.db.QueryRow(`SELECT `+priceCols+` FROM product_prices WHERE id = ?`, id)
	p, err := scanPrice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get price: %w", err)
	}
	return p, nil
}

// List returns prices matching f, cheapest regular price first.
func (s *PriceStore) List(f PriceFilter) ([]model.Price, error) {
	var where []string
	var args []any
	if f.ProductID != 0 {
		where = append(where, `product_id = ?`)
		args = append(args, f.ProductID)
	}
	if f.RetailerID != 0 {
		where = append(where, `retailer_id = ?`)
		args = append(args, f.RetailerID)
	}
	if f.InStock != nil {
		where = append(where, `in_stock = ?`)
		args = append(args, boolToInt(*f.InStock))
	}
	if f.IsOnSale != nil {
		where = append(where, `is_on_sale = ?`)
		args = append(args, boolToInt(*f.IsOnSale))
	}

	query := `SELECT ` + priceCols + ` FROM product_prices`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY CAST(price AS REAL) ASC, id ASC`

	return s.queryPrices(query, args...)
}

// InStockForProducts returns every in-stock price for the given products
// across all retailers.
func (s *PriceStore) InStockForProducts(productIDs []int64) ([]model.Price, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(productIDs))
	args := make([]any, len(productIDs))
	for i, id := range productIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	query := `SELECT ` + priceCols + ` FROM product_prices
		WHERE in_stock = 1 AND product_id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY retailer_id ASC, product_id ASC`
	return s.queryPrices(query, args...)
}

func (s *PriceStore) queryPrices(query string, args ...any) ([]model.Price, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	defer rows.Close()

	var prices []model.Price
	for rows.Next() {
		p, err := scanPrice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		prices = append(prices, *p)
	}
	return prices, rows.Err()
}

func (s *PriceStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM product_prices WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete price: %w", err)
	}
	return nil
}
