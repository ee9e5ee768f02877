package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/groceryswap/internal/grocery"
	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/dukerupert/groceryswap/internal/store"
)

// lowProcessingMax is the highest NOVA score listed as low-processing.
const lowProcessingMax = 2

type ProductHandler struct {
	productStore *store.ProductStore
	prices       *PriceHandler
	logger       *slog.Logger
}

func NewProductHandler(ps *store.ProductStore, prices *PriceHandler, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{productStore: ps, prices: prices, logger: logger}
}

type productRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	ImageURL    string  `json:"image_url"`
	Category    string  `json:"category"`
	NovaScore   int     `json:"nova_score"`
	NutriScore  string  `json:"nutri_score"`
	Barcode     *string `json:"barcode"`
	Unit        string  `json:"unit"`
}

func (req *productRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)
	req.NutriScore = strings.ToUpper(strings.TrimSpace(req.NutriScore))
	req.Unit = strings.TrimSpace(req.Unit)
	if req.Barcode != nil && strings.TrimSpace(*req.Barcode) == "" {
		req.Barcode = nil
	}

	switch {
	case req.Name == "":
		return "name is required"
	case len(req.Name) > 200:
		return "name must be at most 200 characters"
	case !model.ValidNovaScore(req.NovaScore):
		return "nova_score must be between 1 and 4"
	case !model.ValidNutriScore(req.NutriScore):
		return "nutri_score must be one of A, B, C, D, E"
	}
	return ""
}

func (req productRequest) product() model.Product {
	return model.Product{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Category:    req.Category,
		NovaScore:   req.NovaScore,
		NutriScore:  req.NutriScore,
		Barcode:     req.Barcode,
		Unit:        req.Unit,
	}
}

// productDetail is a product with its prices at every retailer.
type productDetail struct {
	model.Product
	Prices []priceResponse `json:"prices"`
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Category == "" {
		req.Category = grocery.Categorize(req.Name)
	}

	product, err := h.productStore.Create(req.product())
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "product with this barcode already exists")
		return
	}
	if err != nil {
		h.logger.Error("create product", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create product")
		return
	}
	writeJSON(w, http.StatusCreated, product)
}

// productFilter reads the product list filters from the query string.
func productFilter(r *http.Request) store.ProductFilter {
	q := r.URL.Query()
	return store.ProductFilter{
		NameContains:     strings.TrimSpace(q.Get("name")),
		Category:         strings.TrimSpace(q.Get("category")),
		CategoryContains: strings.TrimSpace(q.Get("category_contains")),
		NovaScoreMax:     queryInt(r, "nova_score_max", 0),
		NovaScoreMin:     queryInt(r, "nova_score_min", 0),
		NutriScore:       strings.TrimSpace(q.Get("nutri_score")),
	}
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, productFilter(r))
}

// LowProcessing lists products with a NOVA score of 1 or 2.
func (h *ProductHandler) LowProcessing(w http.ResponseWriter, r *http.Request) {
	f := productFilter(r)
	if f.NovaScoreMax <= 0 || f.NovaScoreMax > lowProcessingMax {
		f.NovaScoreMax = lowProcessingMax
	}
	h.list(w, f)
}

func (h *ProductHandler) list(w http.ResponseWriter, f store.ProductFilter) {
	products, err := h.productStore.List(f)
	if err != nil {
		h.logger.Error("list products", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productStore.Categories()
	if err != nil {
		h.logger.Error("list categories", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, categories)
}

// lookup resolves the {id} path parameter, writing the error response itself
// when the product cannot be returned.
func (h *ProductHandler) lookup(w http.ResponseWriter, r *http.Request) *model.Product {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	product, err := h.productStore.GetByID(id)
	if err != nil {
		h.logger.Error("get product", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return nil
	}
	if product == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return nil
	}
	return product
}

func (h *ProductHandler) productPrices(productID int64) ([]priceResponse, error) {
	prices, err := h.prices.priceStore.List(store.PriceFilter{ProductID: productID})
	if err != nil {
		return nil, err
	}
	retailers, err := h.prices.retailerIndex()
	if err != nil {
		return nil, err
	}
	out := make([]priceResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, newPriceResponse(p, retailers))
	}
	return out, nil
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product := h.lookup(w, r)
	if product == nil {
		return
	}
	prices, err := h.productPrices(product.ID)
	if err != nil {
		h.logger.Error("list product prices", "id", product.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	writeJSON(w, http.StatusOK, productDetail{Product: *product, Prices: prices})
}

func (h *ProductHandler) Prices(w http.ResponseWriter, r *http.Request) {
	product := h.lookup(w, r)
	if product == nil {
		return
	}
	prices, err := h.productPrices(product.ID)
	if err != nil {
		h.logger.Error("list product prices", "id", product.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list prices")
		return
	}
	writeJSON(w, http.StatusOK, prices)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing := h.lookup(w, r)
	if existing == nil {
		return
	}

	var req productRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if req.Category == "" {
		req.Category = existing.Category
	}

	product, err := h.productStore.Update(existing.ID, req.product())
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "product with this barcode already exists")
		return
	}
	if err != nil {
		h.logger.Error("update product", "id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update product")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing := h.lookup(w, r)
	if existing == nil {
		return
	}
	if err := h.productStore.Delete(existing.ID); err != nil {
		h.logger.Error("delete product", "id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
