// Package swap orders catalog products by health and finds healthier
// replacements for a product.
package swap

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/dukerupert/groceryswap/internal/store"
)

const (
	DefaultAlternatives = 5
	MaxAlternatives     = 20
)

var grades = []string{"a", "b", "c", "d", "e"}

// GradeRank maps a Nutri-Score grade to 1 (a) through 5 (e). Anything else
// ranks 6.
func GradeRank(grade string) int {
	for i, g := range grades {
		if grade == g {
			return i + 1
		}
	}
	return 6
}

// NovaRank returns the NOVA group, or 5 when it is missing or out of range.
func NovaRank(nova *int) int {
	if nova == nil || *nova < 1 || *nova > 4 {
		return 5
	}
	return *nova
}

// Less orders by grade, then NOVA group, then name.
func Less(a, b model.CatalogProduct) bool {
	if ga, gb := GradeRank(a.NutriscoreGrade), GradeRank(b.NutriscoreGrade); ga != gb {
		return ga < gb
	}
	if na, nb := NovaRank(a.NovaGroup), NovaRank(b.NovaGroup); na != nb {
		return na < nb
	}
	return a.ProductName < b.ProductName
}

// Rank returns a sorted copy of products, truncated to limit when limit > 0.
func Rank(products []model.CatalogProduct, limit int) []model.CatalogProduct {
	ranked := make([]model.CatalogProduct, len(products))
	copy(ranked, products)
	sort.SliceStable(ranked, func(i, j int) bool { return Less(ranked[i], ranked[j]) })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ClampLimit applies the default and cap for alternative lookups.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultAlternatives
	}
	if limit > MaxAlternatives {
		return MaxAlternatives
	}
	return limit
}

// Criteria builds the alternatives filter for source. ok is false when
// source already has grade a and NOVA group 1 (or none), so nothing can
// beat it.
func Criteria(source model.CatalogProduct) (c store.AlternativeCriteria, ok bool) {
	c.ExcludeCode = source.Code
	if first, _, _ := strings.Cut(source.Categories, ","); strings.TrimSpace(first) != "" {
		c.CategoryToken = strings.TrimSpace(first)
	}

	if source.NutriscoreGrade != "a" {
		// Unknown grades compete as e.
		idx := GradeRank(source.NutriscoreGrade) - 1
		if idx > 4 {
			idx = 4
		}
		c.BetterGrades = append([]string(nil), grades[:idx]...)
	}
	if n := NovaRank(source.NovaGroup); n > 1 && n <= 4 {
		c.NovaBelow = n
	}
	return c, len(c.BetterGrades) > 0 || c.NovaBelow > 0
}

type Finder interface {
	FindAlternatives(ctx context.Context, c store.AlternativeCriteria) ([]model.CatalogProduct, error)
}

// Alternatives returns up to limit healthier products in source's category,
// healthiest first.
func Alternatives(ctx context.Context, f Finder, source model.CatalogProduct, limit int) ([]model.CatalogProduct, error) {
	c, ok := Criteria(source)
	if !ok {
		return []model.CatalogProduct{}, nil
	}
	candidates, err := f.FindAlternatives(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("find alternatives for %s: %w", source.Code, err)
	}
	return Rank(candidates, ClampLimit(limit)), nil
}
