package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/groceryswap/internal/compare"
	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/dukerupert/groceryswap/internal/store"
	"github.com/dukerupert/groceryswap/internal/websocket"
	"github.com/shopspring/decimal"
)

type PriceHandler struct {
	priceStore    *store.PriceStore
	retailerStore *store.RetailerStore
	hub           Broadcaster
	logger        *slog.Logger
}

func NewPriceHandler(ps *store.PriceStore, rs *store.RetailerStore, hub Broadcaster, logger *slog.Logger) *PriceHandler {
	return &PriceHandler{priceStore: ps, retailerStore: rs, hub: hub, logger: logger}
}

func (h *PriceHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

// priceResponse renders amounts with two decimal places and the effective
// price alongside the stored ones.
type priceResponse struct {
	ID             int64                    `json:"id"`
	ProductID      int64                    `json:"product_id"`
	RetailerID     int64                    `json:"retailer_id"`
	Retailer       *compare.RetailerSummary `json:"retailer,omitempty"`
	Price          compare.Money            `json:"price"`
	Currency       string                   `json:"currency"`
	IsOnSale       bool                     `json:"is_on_sale"`
	SalePrice      *compare.Money           `json:"sale_price"`
	EffectivePrice compare.Money            `json:"effective_price"`
	InStock        bool                     `json:"in_stock"`
	LastUpdated    time.Time                `json:"last_updated"`
}

func newPriceResponse(p model.Price, retailers map[int64]model.Retailer) priceResponse {
	resp := priceResponse{
		ID:             p.ID,
		ProductID:      p.ProductID,
		RetailerID:     p.RetailerID,
		Price:          compare.Money{Decimal: p.Price},
		Currency:       p.Currency,
		IsOnSale:       p.IsOnSale,
		EffectivePrice: compare.Money{Decimal: p.EffectivePrice()},
		InStock:        p.InStock,
		LastUpdated:    p.LastUpdated,
	}
	if p.SalePrice.Valid {
		resp.SalePrice = &compare.Money{Decimal: p.SalePrice.Decimal}
	}
	if r, ok := retailers[p.RetailerID]; ok {
		resp.Retailer = &compare.RetailerSummary{ID: r.ID, Name: r.Name, LogoURL: r.LogoURL}
	}
	return resp
}

func (h *PriceHandler) retailerIndex() (map[int64]model.Retailer, error) {
	retailers, err := h.retailerStore.ListByID()
	if err != nil {
		return nil, err
	}
	idx := make(map[int64]model.Retailer, len(retailers))
	for _, r := range retailers {
		idx[r.ID] = r
	}
	return idx, nil
}

type priceRequest struct {
	ProductID  int64               `json:"product_id"`
	RetailerID int64               `json:"retailer_id"`
	Price      *decimal.Decimal    `json:"price"`
	Currency   string              `json:"currency"`
	IsOnSale   bool                `json:"is_on_sale"`
	SalePrice  decimal.NullDecimal `json:"sale_price"`
	InStock    *bool               `json:"in_stock"`
}

func (req *priceRequest) validate() string {
	switch {
	case req.ProductID <= 0:
		return "product_id is required"
	case req.RetailerID <= 0:
		return "retailer_id is required"
	case req.Price == nil:
		return "price is required"
	case req.Price.IsNegative():
		return "price must not be negative"
	case !isCents(*req.Price):
		return "price must have at most 2 decimal places"
	case req.SalePrice.Valid && req.SalePrice.Decimal.IsNegative():
		return "sale_price must not be negative"
	case req.SalePrice.Valid && !isCents(req.SalePrice.Decimal):
		return "sale_price must have at most 2 decimal places"
	}
	req.Currency = strings.ToUpper(strings.TrimSpace(req.Currency))
	if req.Currency != "" && len(req.Currency) != 3 {
		return "currency must be a 3-letter code"
	}
	return ""
}

// isCents reports whether d has no more than two significant decimal places.
func isCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// Upsert creates or replaces the price for a product at a retailer.
func (h *PriceHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	inStock := true
	if req.InStock != nil {
		inStock = *req.InStock
	}
	price, created, err := h.priceStore.Upsert(store.PriceInput{
		ProductID:  req.ProductID,
		RetailerID: req.RetailerID,
		Price:      *req.Price,
		Currency:   req.Currency,
		IsOnSale:   req.IsOnSale,
		SalePrice:  req.SalePrice,
		InStock:    inStock,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product or retailer not found")
		return
	}
	if err != nil {
		h.logger.Error("upsert price", "product_id", req.ProductID, "retailer_id", req.RetailerID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save price")
		return
	}

	status, action := http.StatusOK, websocket.ActionUpdated
	if created {
		status, action = http.StatusCreated, websocket.ActionCreated
	}
	h.broadcast(websocket.NewMessage(websocket.EntityPrice, action, price.ID, map[string]any{
		"product_id":  price.ProductID,
		"retailer_id": price.RetailerID,
	}))
	writeJSON(w, status, newPriceResponse(*price, nil))
}

func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
	productID, ok := queryID(r, "product")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid product")
		return
	}
	retailerID, ok := queryID(r, "retailer")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid retailer")
		return
	}
	inStock, ok := queryBool(r, "in_stock")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid in_stock")
		return
	}
	onSale, ok := queryBool(r, "is_on_sale")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid is_on_sale")
		return
	}

	prices, err := h.priceStore.List(store.PriceFilter{
		ProductID:  productID,
		RetailerID: retailerID,
		InStock:    inStock,
		IsOnSale:   onSale,
	})
	if err != nil {
		h.logger.Error("list prices", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list prices")
		return
	}
	retailers, err := h.retailerIndex()
	if err != nil {
		h.logger.Error("list retailers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list prices")
		return
	}

	out := make([]priceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, newPriceResponse(p, retailers))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *PriceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.priceStore.GetByID(id)
	if err != nil {
		h.logger.Error("get price", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get price")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "price not found")
		return
	}
	if err := h.priceStore.Delete(id); err != nil {
		h.logger.Error("delete price", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete price")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityPrice, websocket.ActionDeleted, id, map[string]any{
		"product_id":  existing.ProductID,
		"retailer_id": existing.RetailerID,
	}))
	w.WriteHeader(http.StatusNoContent)
}
