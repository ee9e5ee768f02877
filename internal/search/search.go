// Package search runs catalog searches against the external food-data API
// with a per-query lazy cache.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukerupert/groceryswap/internal/foodfacts"
	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/dukerupert/groceryswap/internal/swap"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ErrEmptyQuery is returned when the query is blank.
var ErrEmptyQuery = errors.New("search query is required")

type Fetcher interface {
	Search(ctx context.Context, terms string, page int) ([]foodfacts.Record, error)
}

type Store interface {
	GetQueryCache(ctx context.Context, query string) (*model.SearchQueryCache, error)
	ListByQuery(ctx context.Context, query string) ([]model.CatalogProduct, error)
	SaveSearchResults(ctx context.Context, query string, products []model.CatalogProduct, now time.Time) (int, error)
}

type Options struct {
	Limit        int
	ForceRefresh bool
}

// Service answers searches from the catalog cache, refreshing it from the
// external API when the query is uncached, stale or force-refreshed.
type Service struct {
	fetcher Fetcher
	store   Store
	logger  *slog.Logger
	now     func() time.Time
	group   singleflight.Group
}

func NewService(fetcher Fetcher, store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock replaces the time source used for freshness checks and stamps.
func (s *Service) SetClock(now func() time.Time) {
	s.now = now
}

// ClampLimit applies the default and cap for search results.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Search returns catalog products for query, healthiest first. External
// failures are logged and answered from whatever is cached; only store read
// errors are returned.
func (s *Service) Search(ctx context.Context, query string, opts Options) ([]model.CatalogProduct, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	normalized := truncate(Normalize(query), maxQuery)
	limit := ClampLimit(opts.Limit)

	if !opts.ForceRefresh {
		fresh, err := s.cached(ctx, normalized)
		if err != nil {
			return nil, err
		}
		if fresh != nil {
			s.logger.Debug("catalog cache hit", "query", normalized, "count", len(fresh))
			return s.present(fresh, normalized, limit), nil
		}
	}

	// Concurrent callers for the same query share one fetch. The fetch is
	// detached from any single caller's cancellation. A caller that arrives
	// after another's refresh finished finds the entry fresh and skips it.
	fetchCtx := context.WithoutCancel(ctx)
	s.group.Do(normalized, func() (any, error) {
		if !opts.ForceRefresh {
			fresh, err := s.cached(fetchCtx, normalized)
			if err == nil && fresh != nil {
				return nil, nil
			}
		}
		s.refresh(fetchCtx, normalized)
		return nil, nil
	})

	products, err := s.store.ListByQuery(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", normalized, err)
	}
	return s.present(products, normalized, limit), nil
}

// cached returns the stored products for a fresh cache entry, or nil when
// the entry is missing, stale or has no products.
func (s *Service) cached(ctx context.Context, normalized string) ([]model.CatalogProduct, error) {
	entry, err := s.store.GetQueryCache(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", normalized, err)
	}
	if entry == nil || entry.IsStale(s.now()) {
		return nil, nil
	}
	products, err := s.store.ListByQuery(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", normalized, err)
	}
	if len(products) == 0 {
		return nil, nil
	}
	return products, nil
}

// refresh fetches, cleans and stores results for normalized. Failures leave
// the cache entry untouched.
func (s *Service) refresh(ctx context.Context, normalized string) {
	records, err := s.fetcher.Search(ctx, normalized, 1)
	if err != nil {
		s.logger.Warn("catalog fetch failed, serving cached results", "query", normalized, "error", err)
		return
	}

	cleaned := Clean(records)
	filtered := FilterFalsePositives(cleaned, normalized)

	seen := make(map[string]bool, len(filtered))
	products := make([]model.CatalogProduct, 0, len(filtered))
	for _, r := range filtered {
		p, ok := ToCatalog(r)
		if !ok || seen[p.Code] {
			continue
		}
		seen[p.Code] = true
		products = append(products, p)
	}

	stored, err := s.store.SaveSearchResults(ctx, normalized, products, s.now())
	if err != nil {
		s.logger.Error("store catalog results", "query", normalized, "error", err)
		return
	}
	s.logger.Info("catalog refreshed",
		"query", normalized,
		"fetched", len(records),
		"cleaned", len(cleaned),
		"stored", stored,
	)
}

func (s *Service) present(products []model.CatalogProduct, normalized string, limit int) []model.CatalogProduct {
	return swap.Rank(ExcludeKeywordNames(products, normalized), limit)
}
