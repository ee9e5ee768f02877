package compare

import (
	"fmt"

	"github.com/dukerupert/groceryswap/internal/model"
)

type PriceSource interface {
	InStockForProducts(productIDs []int64) ([]model.Price, error)
}

type RetailerSource interface {
	ListByID() ([]model.Retailer, error)
}

// Service loads retailers and prices from the store and runs Compare.
type Service struct {
	prices    PriceSource
	retailers RetailerSource
}

func NewService(prices PriceSource, retailers RetailerSource) *Service {
	return &Service{prices: prices, retailers: retailers}
}

// CompareList prices the given shopping list items. Items must carry their
// product.
func (s *Service) CompareList(listItems []model.ShoppingListItem) (Result, error) {
	if len(listItems) == 0 {
		return Compare(nil, nil, nil), nil
	}

	items := make([]Item, 0, len(listItems))
	ids := make([]int64, 0, len(listItems))
	for _, li := range listItems {
		if li.Product == nil {
			return Result{}, fmt.Errorf("compare list: item %d has no product", li.ID)
		}
		items = append(items, Item{
			Product:   *li.Product,
			Quantity:  li.Quantity,
			IsChecked: li.IsChecked,
			Notes:     li.Notes,
		})
		ids = append(ids, li.ProductID)
	}

	retailers, err := s.retailers.ListByID()
	if err != nil {
		return Result{}, fmt.Errorf("compare list: %w", err)
	}
	prices, err := s.prices.InStockForProducts(ids)
	if err != nil {
		return Result{}, fmt.Errorf("compare list: %w", err)
	}
	return Compare(items, retailers, prices), nil
}
