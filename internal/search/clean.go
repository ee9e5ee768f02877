package search

import (
	"strings"
	"unicode/utf8"

	"github.com/dukerupert/groceryswap/internal/foodfacts"
	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/shopspring/decimal"
)

var stopWords = map[string]bool{
	"a": true, "an": true, "the": true, "of": true, "loaf": true, "packet": true,
	"pack": true, "bag": true, "box": true, "tin": true, "can": true, "jar": true,
	"bottle": true, "carton": true, "some": true, "any": true, "fresh": true,
}

// falsePositives maps a product-type keyword to the category markers that
// signal a different product type. Order is fixed so filtering is
// deterministic.
var falsePositives = []struct {
	keyword string
	markers []string
}{
	{"flour", []string{"flour", "baking"}},
	{"mix", []string{"mix", "baking"}},
	{"sauce", []string{"sauce", "condiment"}},
	{"seasoning", []string{"seasoning", "spice"}},
}

// Column limits for catalog text fields.
const (
	maxCode        = 50
	maxProductName = 500
	maxBrands      = 255
	maxImageURL    = 500
	maxCountries   = 500
	maxQuery       = 255
)

// Normalize lowercases q, drops stop words and collapses whitespace. When
// nothing is left it falls back to the lowercased, trimmed input.
func Normalize(q string) string {
	words := strings.Fields(strings.ToLower(q))
	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}
	if len(kept) == 0 {
		return strings.ToLower(strings.TrimSpace(q))
	}
	return strings.Join(kept, " ")
}

// Clean drops records missing a code, name, grade or image, then keeps the
// most complete record per (brand, name). Ties go to the first seen and the
// output keeps first-seen group order.
func Clean(records []foodfacts.Record) []foodfacts.Record {
	type group struct {
		rec          foodfacts.Record
		completeness decimal.Decimal
	}
	var order []string
	groups := make(map[string]*group)

	for _, r := range records {
		if blank(r.Code) || blank(r.ProductName) || blank(r.NutriscoreGrade) || blank(r.ImageURL) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(r.Brands)) + "\x00" + strings.ToLower(strings.TrimSpace(r.ProductName))
		score := decimal.Zero
		if c := parseDecimal(r.Completeness); c.Valid {
			score = c.Decimal
		}

		g, ok := groups[key]
		if !ok {
			groups[key] = &group{rec: r, completeness: score}
			order = append(order, key)
			continue
		}
		if score.GreaterThan(g.completeness) {
			g.rec, g.completeness = r, score
		}
	}

	out := make([]foodfacts.Record, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key].rec)
	}
	return out
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// FilterFalsePositives drops records that are a different product type than
// the one searched for, such as "bread flour" for "bread".
func FilterFalsePositives(records []foodfacts.Record, normalizedQuery string) []foodfacts.Record {
	terms := strings.Fields(strings.ToLower(normalizedQuery))
	out := make([]foodfacts.Record, 0, len(records))
	for _, r := range records {
		if !isFalsePositive(r.ProductName, r.Categories, terms) {
			out = append(out, r)
		}
	}
	return out
}

func isFalsePositive(name, categories string, terms []string) bool {
	name = strings.ToLower(name)
	categories = strings.ToLower(categories)

	for _, fp := range falsePositives {
		if strings.Contains(name, fp.keyword) && !contains(terms, fp.keyword) {
			return true
		}
		for _, marker := range fp.markers {
			if !strings.Contains(categories, marker) || contains(terms, marker) {
				continue
			}
			if !mainTermInName(name, marker, terms) {
				return true
			}
		}
	}
	return false
}

// mainTermInName reports whether a search term longer than two characters
// names the product. When the marker also appears in the name the term must
// come before it.
func mainTermInName(name, marker string, terms []string) bool {
	markerAt := strings.Index(name, marker)
	for _, term := range terms {
		if len(term) <= 2 {
			continue
		}
		at := strings.Index(name, term)
		if at < 0 {
			continue
		}
		if markerAt < 0 || at < markerAt {
			return true
		}
	}
	return false
}

// ExcludeKeywordNames drops products whose name contains a false-positive
// keyword the query did not ask for.
func ExcludeKeywordNames(products []model.CatalogProduct, normalizedQuery string) []model.CatalogProduct {
	terms := strings.Fields(strings.ToLower(normalizedQuery))
	out := make([]model.CatalogProduct, 0, len(products))
next:
	for _, p := range products {
		name := strings.ToLower(p.ProductName)
		for _, fp := range falsePositives {
			if !contains(terms, fp.keyword) && strings.Contains(name, fp.keyword) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

func contains(terms []string, s string) bool {
	for _, t := range terms {
		if t == s {
			return true
		}
	}
	return false
}

// ToCatalog converts a cleaned record for storage. Numbers that do not parse
// become null, unknown grades become model.GradeUnknown and text is cut to
// column limits. ok is false when the record has no code.
func ToCatalog(r foodfacts.Record) (p model.CatalogProduct, ok bool) {
	code := truncate(strings.TrimSpace(r.Code), maxCode)
	if code == "" {
		return p, false
	}
	completeness := decimal.Zero
	if c := parseDecimal(r.Completeness); c.Valid {
		completeness = c.Decimal
	}
	return model.CatalogProduct{
		Code:             code,
		ProductName:      truncate(r.ProductName, maxProductName),
		Brands:           truncate(r.Brands, maxBrands),
		ImageURL:         truncate(r.ImageURL, maxImageURL),
		NutriscoreGrade:  normalizeGrade(r.NutriscoreGrade),
		NovaGroup:        parseNova(r.NovaGroup),
		Sugars100g:       parseDecimal(r.Sugars100g),
		Salt100g:         parseDecimal(r.Salt100g),
		Fat100g:          parseDecimal(r.Fat100g),
		SaturatedFat100g: parseDecimal(r.SaturatedFat100g),
		Completeness:     completeness,
		Countries:        truncate(r.Countries, maxCountries),
		Categories:       r.Categories,
	}, true
}

func parseDecimal(s string) decimal.NullDecimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// parseInt accepts integers and decimals ("4", "4.0"), truncating toward zero.
func parseInt(s string) *int {
	d := parseDecimal(s)
	if !d.Valid {
		return nil
	}
	n := int(d.Decimal.IntPart())
	return &n
}

// parseNova is parseInt limited to the NOVA groups 1 to 4.
func parseNova(s string) *int {
	n := parseInt(s)
	if n == nil || *n < 1 || *n > 4 {
		return nil
	}
	return n
}

func normalizeGrade(s string) string {
	g := strings.ToLower(strings.TrimSpace(s))
	switch g {
	case "a", "b", "c", "d", "e":
		return g
	}
	return model.GradeUnknown
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
