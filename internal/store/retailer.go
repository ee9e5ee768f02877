package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/groceryswap/internal/model"
)

type RetailerStore struct {
	db *sql.DB
}

func NewRetailerStore(db *sql.DB) *RetailerStore {
	return &RetailerStore{db: db}
}

const retailerCols = `id, name, logo_url, website_url, created_at, updated_at`

func scanRetailer(scanner rowScanner) (*model.Retailer, error) {
	var r model.Retailer
	err := scanner.Scan(&r.ID, &r.Name, &r.LogoURL, &r.WebsiteURL, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *RetailerStore) Create(name, logoURL, websiteURL string) (*model.Retailer, error) {
	result, err := s.db.Exec(
		`INSERT INTO retailers (name, logo_url, website_url) VALUES (?, ?, ?)`,
		name, logoURL, websiteURL,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("insert retailer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RetailerStore) GetByID(id int64) (*model.Retailer, error) {
	row := s.db.QueryRow(`SELECT `+retailerCols+` FROM retailers WHERE id = ?`, id)
	r, err := scanRetailer(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get retailer: %w", err)
	}
	return r, nil
}

// List returns retailers ordered by name. A non-empty search restricts the
// result to names containing it (case-insensitive).
func (s *RetailerStore) List(search string) ([]model.Retailer, error) {
	query := `SELECT ` + retailerCols + ` FROM retailers`
	var args []any
	if search != "" {
		query += ` WHERE name LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(search)+"%")
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list retailers: %w", err)
	}
	defer rows.Close()

	var retailers []model.Retailer
	for rows.Next() {
		r, err := scanRetailer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan retailer: %w", err)
		}
		retailers = append(retailers, *r)
	}
	return retailers, rows.Err()
}

// ListByID returns every retailer in id order, the order comparisons are
// built in.
func (s *RetailerStore) ListByID() ([]model.Retailer, error) {
	rows, err := s.db.Query(`SELECT ` + retailerCols + ` FROM retailers ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list retailers: %w", err)
	}
	defer rows.Close()

	var retailers []model.Retailer
	for rows.Next() {
		r, err := scanRetailer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan retailer: %w", err)
		}
		retailers = append(retailers, *r)
	}
	return retailers, rows.Err()
}

func (s *RetailerStore) Update(id int64, name, logoURL, websiteURL string) (*model.Retailer, error) {
	_, err := s.db.Exec(
		`UPDATE retailers SET name = ?, logo_url = ?, website_url = ?, updated_at = ? WHERE id = ?`,
		name, logoURL, websiteURL, time.Now().UTC(), id,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicate
	}
	if err != nil {
		return nil, fmt.Errorf("update retailer: %w", err)
	}
	return s.GetByID(id)
}

func (s *RetailerStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM retailers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete retailer: %w", err)
	}
	return nil
}
