package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/groceryswap/internal/model"
)

type ProductStore struct {
	db *sql.DB
}

func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

// ProductFilter narrows List. Zero values are ignored.
type ProductFilter struct {
	NameContains     string
	Category         string
	CategoryContains string
	NovaScoreMax     int
	NovaScoreMin     int
	NutriScore       string
}

const productCols = `id, name, description, image_url, category, nova_score, nutri_score, barcode, unit, created_at, updated_at`

func scanProduct(scanner rowScanner) (*model.Product, error) {
	var p model.Product
	var barcode sql.NullString
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Category,
		&p.NovaScore, &p.NutriScore, &barcode, &p.Unit, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if barcode.Valid {
		p.Barcode = &barcode.String
	}
	return &p, nil
}

func nullBarcode(b *string) sql.NullString {
	if b == nil || strings.TrimSpace(*b) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: strings.TrimSpace(*b), Valid: true}
}

func (s *ProductStore) Create(p model.Product) (*model.Product, error) {
	if p.Unit == "" {
		p.Unit = "item"
	}
	result, err := s.db.Exec(
		`INSERT INTO products (name, description, image_url, category, nova_score, nutri_score, barcode, unit)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.ImageURL, p.Category, p.NovaScore, p.NutriScore, nullBarcode(p.Barcode), p.Unit,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert product: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProductStore) GetByID(id int64) (*model.Product, error) {
	row := s.db.QueryRow(`SELECT `+productCols+` FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

func (s *ProductStore) List(f ProductFilter) ([]model.Product, error) {
	var where []string
	var args []any
	if f.NameContains != "" {
		where = append(where, `name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.NameContains)+"%")
	}
	if f.Category != "" {
		where = append(where, `category = ? COLLATE NOCASE`)
		args = append(args, f.Category)
	}
	if f.CategoryContains != "" {
		where = append(where, `category LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.CategoryContains)+"%")
	}
	if f.NovaScoreMax > 0 {
		where = append(where, `nova_score <= ?`)
		args = append(args, f.NovaScoreMax)
	}
	if f.NovaScoreMin > 0 {
		where = append(where, `nova_score >= ?`)
		args = append(args, f.NovaScoreMin)
	}
	if f.NutriScore != "" {
		where = append(where, `nutri_score = ?`)
		args = append(args, strings.ToUpper(f.NutriScore))
	}

	query := `SELECT ` + productCols + ` FROM products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY name ASC, id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

func (s *ProductStore) Update(id int64, p model.Product) (*model.Product, error) {
	if p.Unit == "" {
		p.Unit = "item"
	}
	_, err := s.db.Exec(
		`UPDATE products SET name = ?, description = ?, image_url = ?, category = ?, nova_score = ?,
		 nutri_score = ?, barcode = ?, unit = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Description, p.ImageURL, p.Category, p.NovaScore,
		p.NutriScore, nullBarcode(p.Barcode), p.Unit, time.Now().UTC(), id,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a product. Prices and shopping list items referencing it are
// removed by cascade.
func (s *ProductStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *ProductStore) Categories() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT category FROM products ORDER BY category ASC`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
