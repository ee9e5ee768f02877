package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/groceryswap/internal/model"
)

// CatalogStore holds products ingested from the external food-data API and
// the per-query cache bookkeeping.
type CatalogStore struct {
	db *sql.DB
}

func NewCatalogStore(db *sql.DB) *CatalogStore {
	return &CatalogStore{db: db}
}

// CatalogFilter narrows List. Zero values are ignored.
type CatalogFilter struct {
	Grade     string
	NovaGroup int
	Brand     string
	// Search matches product name, brands or categories.
	Search string
}

// AlternativeCriteria selects candidate replacements for a catalog product.
// A candidate must match CategoryToken (when set) and either have a grade in
// BetterGrades or a NOVA group below NovaBelow (when NovaBelow > 0).
type AlternativeCriteria struct {
	CategoryToken string
	BetterGrades  []string
	NovaBelow     int
	ExcludeCode   string
}

const catalogCols = `id, code, product_name, brands, image_url, nutriscore_grade, nova_group,
	sugars_100g, salt_100g, fat_100g, saturated_fat_100g, completeness, countries, categories,
	search_query, created_at, updated_at, last_fetched_at`

func scanCatalogProduct(scanner rowScanner) (*model.CatalogProduct, error) {
	var p model.CatalogProduct
	var nova sql.NullInt64
	err := scanner.Scan(
		&p.ID, &p.Code, &p.ProductName, &p.Brands, &p.ImageURL, &p.NutriscoreGrade, &nova,
		&p.Sugars100g, &p.Salt100g, &p.Fat100g, &p.SaturatedFat100g, &p.Completeness,
		&p.Countries, &p.Categories, &p.SearchQuery, &p.CreatedAt, &p.UpdatedAt, &p.LastFetchedAt,
	)
	if err != nil {
		return nil, err
	}
	if nova.Valid {
		n := int(nova.Int64)
		p.NovaGroup = &n
	}
	return &p, nil
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func (s *CatalogStore) GetQueryCache(ctx context.Context, query string) (*model.SearchQueryCache, error) {
	var c model.SearchQueryCache
	var complete int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, query, result_count, is_complete, last_searched_at FROM search_query_cache WHERE query = ?`,
		query,
	).Scan(&c.ID, &c.Query, &c.ResultCount, &complete, &c.LastSearchedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get query cache: %w", err)
	}
	c.IsComplete = complete != 0
	return &c, nil
}

// SaveSearchResults upserts products by code and records the query in the
// cache, all in one transaction. Every product is stamped with query and
// fetched at now. It returns the number of products stored.
func (s *CatalogStore) SaveSearchResults(ctx context.Context, query string, products []model.CatalogProduct, now time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO catalog_products (code, product_name, brands, image_url, nutriscore_grade, nova_group,
		   sugars_100g, salt_100g, fat_100g, saturated_fat_100g, completeness, countries, categories,
		   search_query, created_at, updated_at, last_fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET
		   product_name = excluded.product_name,
		   brands = excluded.brands,
		   image_url = excluded.image_url,
		   nutriscore_grade = excluded.nutriscore_grade,
		   nova_group = excluded.nova_group,
		   sugars_100g = excluded.sugars_100g,
		   salt_100g = excluded.salt_100g,
		   fat_100g = excluded.fat_100g,
		   saturated_fat_100g = excluded.saturated_fat_100g,
		   completeness = excluded.completeness,
		   countries = excluded.countries,
		   categories = excluded.categories,
		   search_query = excluded.search_query,
		   updated_at = excluded.updated_at,
		   last_fetched_at = excluded.last_fetched_at`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare catalog upsert: %w", err)
	}
	defer stmt.Close()

	now = now.UTC()
	for _, p := range products {
		_, err := stmt.ExecContext(ctx,
			p.Code, p.ProductName, p.Brands, p.ImageURL, p.NutriscoreGrade, nullInt(p.NovaGroup),
			p.Sugars100g, p.Salt100g, p.Fat100g, p.SaturatedFat100g, p.Completeness.String(),
			p.Countries, p.Categories, query, now, now, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert catalog product %s: %w", p.Code, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO search_query_cache (query, result_count, is_complete, last_searched_at)
		 VALUES (?, ?, 1, ?)
		 ON CONFLICT(query) DO UPDATE SET
		   result_count = excluded.result_count,
		   is_complete = excluded.is_complete,
		   last_searched_at = excluded.last_searched_at`,
		query, len(products), now,
	)
	if err != nil {
		return 0, fmt.Errorf("upsert query cache: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit search results: %w", err)
	}
	return len(products), nil
}

// ListByQuery returns every product last ingested for query.
func (s *CatalogStore) ListByQuery(ctx context.Context, query string) ([]model.CatalogProduct, error) {
	return s.queryProducts(ctx,
		`SELECT `+catalogCols+` FROM catalog_products WHERE search_query = ? ORDER BY id ASC`,
		query,
	)
}

func (s *CatalogStore) GetByCode(ctx context.Context, code string) (*model.CatalogProduct, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+catalogCols+` FROM catalog_products WHERE code = ?`, code)
	p, err := scanCatalogProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog product: %w", err)
	}
	return p, nil
}

func (s *CatalogStore) GetByID(ctx context.Context, id int64) (*model.CatalogProduct, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+catalogCols+` FROM catalog_products WHERE id = ?`, id)
	p, err := scanCatalogProduct(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get catalog product: %w", err)
	}
	return p, nil
}

// List returns cached products matching f in id order. Callers rank the
// result.
func (s *CatalogStore) List(ctx context.Context, f CatalogFilter) ([]model.CatalogProduct, error) {
	var where []string
	var args []any
	if f.Grade != "" {
		where = append(where, `nutriscore_grade = ?`)
		args = append(args, strings.ToLower(f.Grade))
	}
	if f.NovaGroup > 0 {
		where = append(where, `nova_group = ?`)
		args = append(args, f.NovaGroup)
	}
	if f.Brand != "" {
		where = append(where, `brands LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Brand)+"%")
	}
	if f.Search != "" {
		like := "%" + escapeLike(f.Search) + "%"
		where = append(where, `(product_name LIKE ? ESCAPE '\' OR brands LIKE ? ESCAPE '\' OR categories LIKE ? ESCAPE '\')`)
		args = append(args, like, like, like)
	}

	query := `SELECT ` + catalogCols + ` FROM catalog_products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY id ASC`
	return s.queryProducts(ctx, query, args...)
}

// FindAlternatives returns unranked candidates matching c.
func (s *CatalogStore) FindAlternatives(ctx context.Context, c AlternativeCriteria) ([]model.CatalogProduct, error) {
	var improve []string
	var args []any

	where := []string{`code <> ?`}
	args = append(args, c.ExcludeCode)
	if c.CategoryToken != "" {
		where = append(where, `categories LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(c.CategoryToken)+"%")
	}

	if len(c.BetterGrades) > 0 {
		placeholders := make([]string, len(c.BetterGrades))
		for i, g := range c.BetterGrades {
			placeholders[i] = "?"
			args = append(args, g)
		}
		improve = append(improve, `nutriscore_grade IN (`+strings.Join(placeholders, ", ")+`)`)
	}
	if c.NovaBelow > 0 {
		improve = append(improve, `(nova_group IS NOT NULL AND nova_group < ?)`)
		args = append(args, c.NovaBelow)
	}
	if len(improve) == 0 {
		return nil, nil
	}
	where = append(where, `(`+strings.Join(improve, ` OR `)+`)`)

	query := `SELECT ` + catalogCols + ` FROM catalog_products WHERE ` + strings.Join(where, ` AND `) + ` ORDER BY id ASC`
	return s.queryProducts(ctx, query, args...)
}

func (s *CatalogStore) queryProducts(ctx context.Context, query string, args ...any) ([]model.CatalogProduct, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list catalog products: %w", err)
	}
	defer rows.Close()

	var products []model.CatalogProduct
	for rows.Next() {
		p, err := scanCatalogProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
