package compare

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	milk  = model.Product{ID: 1, Name: "Milk", Category: "Dairy", NovaScore: 1, NutriScore: "A"}
	bread = model.Product{ID: 2, Name: "Bread", Category: "Bakery", NovaScore: 3, NutriScore: "B"}

	tesco = model.Retailer{ID: 1, Name: "Tesco"}
	aldi  = model.Retailer{ID: 2, Name: "Aldi"}
)

func price(retailer, product int64, amount string) model.Price {
	return model.Price{
		RetailerID: retailer,
		ProductID:  product,
		Price:      decimal.RequireFromString(amount),
		Currency:   "GBP",
		InStock:    true,
	}
}

func weeklyList() []Item {
	return []Item{
		{Product: milk, Quantity: 2},
		{Product: bread, Quantity: 1, Notes: "sliced"},
	}
}

func TestCompareCompleteBeatsCheaperIncomplete(t *testing.T) {
	prices := []model.Price{
		price(tesco.ID, milk.ID, "1.20"),
		price(tesco.ID, bread.ID, "0.80"),
		price(aldi.ID, milk.ID, "0.99"),
	}

	result := Compare(weeklyList(), []model.Retailer{tesco, aldi}, prices)
	require.Len(t, result.Comparison, 2)

	first := result.Comparison[0]
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, "Tesco", first.Retailer.Name)
	assert.True(t, first.IsComplete)
	assert.Equal(t, "3.20", first.Total.String())
	assert.Equal(t, 2, first.ItemsCount)
	assert.Equal(t, 2, first.TotalItemsInList)

	second := result.Comparison[1]
	assert.Equal(t, "Aldi", second.Retailer.Name)
	assert.False(t, second.IsComplete)
	assert.Equal(t, "1.98", second.Total.String())
	require.Len(t, second.NotStockedItems, 1)
	assert.Equal(t, NotStockedReason, second.NotStockedItems[0].Reason)
	assert.Equal(t, "sliced", second.NotStockedItems[0].Notes)

	require.NotNil(t, result.CheapestComplete)
	assert.Equal(t, "Tesco", result.CheapestComplete.Retailer.Name)
	require.NotNil(t, result.CheapestOverall)
	assert.Equal(t, "Aldi", result.CheapestOverall.Retailer.Name)
	assert.Equal(t, 2, result.CheapestOverall.Rank)
}

func TestCompareUsesSalePrice(t *testing.T) {
	onSale := price(tesco.ID, milk.ID, "1.20")
	onSale.IsOnSale = true
	onSale.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString("0.90"))

	result := Compare(weeklyList(), []model.Retailer{tesco}, []model.Price{onSale, price(tesco.ID, bread.ID, "0.80")})
	require.Len(t, result.Comparison, 1)
	assert.Equal(t, "2.60", result.Comparison[0].Total.String())
	assert.True(t, result.Comparison[0].StockedItems[0].IsOnSale)
	assert.Equal(t, "0.90", result.Comparison[0].StockedItems[0].UnitPrice.String())
	assert.Equal(t, "1.80", result.Comparison[0].StockedItems[0].LineTotal.String())
}

func TestCompareSaleFlagWithoutSalePrice(t *testing.T) {
	p := price(tesco.ID, milk.ID, "1.20")
	p.IsOnSale = true

	result := Compare([]Item{{Product: milk, Quantity: 1}}, []model.Retailer{tesco}, []model.Price{p})
	assert.Equal(t, "1.20", result.Comparison[0].Total.String())
}

func TestCompareEmptyList(t *testing.T) {
	result := Compare(nil, []model.Retailer{tesco, aldi}, nil)
	assert.Empty(t, result.Comparison)
	assert.Nil(t, result.CheapestComplete)
	assert.Nil(t, result.CheapestOverall)
}

func TestCompareRetailerStockingNothing(t *testing.T) {
	result := Compare(weeklyList(), []model.Retailer{tesco}, nil)
	require.Len(t, result.Comparison, 1)

	c := result.Comparison[0]
	assert.Equal(t, "0.00", c.Total.String())
	assert.False(t, c.IsComplete)
	assert.Empty(t, c.StockedItems)
	assert.Len(t, c.NotStockedItems, 2)
	assert.Nil(t, result.CheapestComplete)
	require.NotNil(t, result.CheapestOverall)
	assert.Equal(t, "Tesco", result.CheapestOverall.Retailer.Name)
}

func TestCompareIgnoresOutOfStock(t *testing.T) {
	p := price(tesco.ID, milk.ID, "1.20")
	p.InStock = false

	result := Compare([]Item{{Product: milk, Quantity: 1}}, []model.Retailer{tesco}, []model.Price{p})
	assert.False(t, result.Comparison[0].IsComplete)
	assert.Len(t, result.Comparison[0].NotStockedItems, 1)
}

func TestCompareOverallTieGoesToLowestRetailerID(t *testing.T) {
	sains := model.Retailer{ID: 3, Name: "Sainsbury's"}
	prices := []model.Price{
		price(tesco.ID, milk.ID, "1.00"),
		price(aldi.ID, milk.ID, "1.00"),
		price(sains.ID, milk.ID, "1.00"),
	}

	result := Compare([]Item{{Product: milk, Quantity: 1}}, []model.Retailer{tesco, aldi, sains}, prices)
	require.NotNil(t, result.CheapestOverall)
	assert.Equal(t, tesco.ID, result.CheapestOverall.Retailer.ID)
	assert.Equal(t, tesco.ID, result.Comparison[0].Retailer.ID)
	assert.Equal(t, sains.ID, result.Comparison[2].Retailer.ID)
}

func TestCompareRanksAreDense(t *testing.T) {
	result := Compare(weeklyList(), []model.Retailer{tesco, aldi}, []model.Price{price(aldi.ID, bread.ID, "0.50")})
	for i, c := range result.Comparison {
		assert.Equal(t, i+1, c.Rank)
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(Money{decimal.RequireFromString("3.2")})
	require.NoError(t, err)
	assert.Equal(t, `"3.20"`, string(b))
}

type fakePrices struct {
	prices []model.Price
	gotIDs []int64
	err    error
}

func (f *fakePrices) InStockForProducts(ids []int64) ([]model.Price, error) {
	f.gotIDs = ids
	return f.prices, f.err
}

type fakeRetailers []model.Retailer

func (f fakeRetailers) ListByID() ([]model.Retailer, error) { return f, nil }

func TestServiceCompareList(t *testing.T) {
	m, b := milk, bread
	items := []model.ShoppingListItem{
		{ID: 10, ProductID: milk.ID, Product: &m, Quantity: 2},
		{ID: 11, ProductID: bread.ID, Product: &b, Quantity: 1},
	}
	prices := &fakePrices{prices: []model.Price{
		price(tesco.ID, milk.ID, "1.20"),
		price(tesco.ID, bread.ID, "0.80"),
	}}
	svc := NewService(prices, fakeRetailers{tesco, aldi})

	result, err := svc.CompareList(items)
	require.NoError(t, err)
	assert.Equal(t, []int64{milk.ID, bread.ID}, prices.gotIDs)
	require.Len(t, result.Comparison, 2)
	assert.Equal(t, "Tesco", result.CheapestComplete.Retailer.Name)
}

func TestServiceCompareListStoreError(t *testing.T) {
	m := milk
	svc := NewService(&fakePrices{err: errors.New("boom")}, fakeRetailers{tesco})

	_, err := svc.CompareList([]model.ShoppingListItem{{ProductID: milk.ID, Product: &m, Quantity: 1}})
	assert.Error(t, err)
}

func TestServiceCompareListEmpty(t *testing.T) {
	svc := NewService(&fakePrices{}, fakeRetailers{tesco})
	result, err := svc.CompareList(nil)
	require.NoError(t, err)
	assert.Empty(t, result.Comparison)
	assert.Nil(t, result.CheapestOverall)
}
