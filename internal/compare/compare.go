// Package compare prices a shopping list at every retailer and ranks the
// results.
package compare

import (
	"sort"

	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/shopspring/decimal"
)

// NotStockedReason is attached to every list item a retailer has no in-stock
// price for.
const NotStockedReason = "Not available at this retailer"

// Money is a decimal amount rendered with two decimal places.
type Money struct {
	decimal.Decimal
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

func (m Money) String() string {
	return m.StringFixed(2)
}

// Item is one shopping list entry as the engine sees it.
type Item struct {
	Product   model.Product
	Quantity  int
	IsChecked bool
	Notes     string
}

type ProductSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	ImageURL   string `json:"image_url"`
	Category   string `json:"category"`
	NovaScore  int    `json:"nova_score"`
	NutriScore string `json:"nutri_score"`
}

type RetailerSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	LogoURL string `json:"logo_url"`
}

type StockedItem struct {
	Product   ProductSummary `json:"product"`
	Quantity  int            `json:"quantity"`
	UnitPrice Money          `json:"unit_price"`
	LineTotal Money          `json:"line_total"`
	Currency  string         `json:"currency"`
	IsOnSale  bool           `json:"is_on_sale"`
	IsChecked bool           `json:"is_checked"`
	Notes     string         `json:"notes"`
}

type NotStockedItem struct {
	Product   ProductSummary `json:"product"`
	Quantity  int            `json:"quantity"`
	Reason    string         `json:"reason"`
	IsChecked bool           `json:"is_checked"`
	Notes     string         `json:"notes"`
}

// RetailerComparison is the cost of the whole list at one retailer.
type RetailerComparison struct {
	Rank             int              `json:"rank"`
	Retailer         RetailerSummary  `json:"retailer"`
	Total            Money            `json:"total"`
	Currency         string           `json:"currency"`
	ItemsCount       int              `json:"items_count"`
	TotalItemsInList int              `json:"total_items_in_list"`
	IsComplete       bool             `json:"is_complete"`
	StockedItems     []StockedItem    `json:"stocked_items"`
	NotStockedItems  []NotStockedItem `json:"not_stocked_items"`
}

type Result struct {
	Comparison       []RetailerComparison `json:"comparison"`
	CheapestComplete *RetailerComparison  `json:"cheapest_complete"`
	CheapestOverall  *RetailerComparison  `json:"cheapest_overall"`
}

func summarize(p model.Product) ProductSummary {
	return ProductSummary{
		ID:         p.ID,
		Name:       p.Name,
		ImageURL:   p.ImageURL,
		Category:   p.Category,
		NovaScore:  p.NovaScore,
		NutriScore: p.NutriScore,
	}
}

// Compare builds one RetailerComparison per retailer from the in-stock
// prices. retailers must be in id order; prices not marked in stock are
// ignored. An empty list yields an empty Result.
func Compare(items []Item, retailers []model.Retailer, prices []model.Price) Result {
	result := Result{Comparison: []RetailerComparison{}}
	if len(items) == 0 {
		return result
	}

	byRetailer := make(map[int64]map[int64]model.Price)
	for _, p := range prices {
		if !p.InStock {
			continue
		}
		if byRetailer[p.RetailerID] == nil {
			byRetailer[p.RetailerID] = make(map[int64]model.Price)
		}
		byRetailer[p.RetailerID][p.ProductID] = p
	}

	comparisons := make([]RetailerComparison, 0, len(retailers))
	for _, r := range retailers {
		comparisons = append(comparisons, priceAt(r, items, byRetailer[r.ID]))
	}

	// Unranked order is retailer id order, so overall ties go to the lowest id.
	byTotal := make([]RetailerComparison, len(comparisons))
	copy(byTotal, comparisons)
	sort.SliceStable(byTotal, func(i, j int) bool {
		return byTotal[i].Total.LessThan(byTotal[j].Total.Decimal)
	})

	sort.SliceStable(comparisons, func(i, j int) bool {
		a, b := comparisons[i], comparisons[j]
		if a.IsComplete != b.IsComplete {
			return a.IsComplete
		}
		return a.Total.LessThan(b.Total.Decimal)
	})
	for i := range comparisons {
		comparisons[i].Rank = i + 1
	}
	result.Comparison = comparisons

	for i := range comparisons {
		if comparisons[i].IsComplete {
			c := comparisons[i]
			result.CheapestComplete = &c
			break
		}
	}
	if len(byTotal) > 0 {
		cheapest := byTotal[0]
		for _, c := range comparisons {
			if c.Retailer.ID == cheapest.Retailer.ID {
				cheapest.Rank = c.Rank
				break
			}
		}
		result.CheapestOverall = &cheapest
	}
	return result
}

func priceAt(r model.Retailer, items []Item, stocked map[int64]model.Price) RetailerComparison {
	c := RetailerComparison{
		Retailer:         RetailerSummary{ID: r.ID, Name: r.Name, LogoURL: r.LogoURL},
		Currency:         model.DefaultCurrency,
		TotalItemsInList: len(items),
		StockedItems:     []StockedItem{},
		NotStockedItems:  []NotStockedItem{},
	}

	total := decimal.Zero
	for _, item := range items {
		price, ok := stocked[item.Product.ID]
		if !ok {
			c.NotStockedItems = append(c.NotStockedItems, NotStockedItem{
				Product:   summarize(item.Product),
				Quantity:  item.Quantity,
				Reason:    NotStockedReason,
				IsChecked: item.IsChecked,
				Notes:     item.Notes,
			})
			continue
		}

		unit := price.EffectivePrice()
		line := unit.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
		if price.Currency != "" {
			c.Currency = price.Currency
		}
		c.StockedItems = append(c.StockedItems, StockedItem{
			Product:   summarize(item.Product),
			Quantity:  item.Quantity,
			UnitPrice: Money{unit},
			LineTotal: Money{line},
			Currency:  price.Currency,
			IsOnSale:  price.IsOnSale,
			IsChecked: item.IsChecked,
			Notes:     item.Notes,
		})
	}

	c.Total = Money{total}
	c.ItemsCount = len(c.StockedItems)
	c.IsComplete = len(c.NotStockedItems) == 0 && len(c.StockedItems) > 0
	return c
}
