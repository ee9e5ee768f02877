package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/dukerupert/groceryswap/internal/search"
	"github.com/dukerupert/groceryswap/internal/store"
	"github.com/dukerupert/groceryswap/internal/swap"
	"github.com/shopspring/decimal"
)

// CatalogHandler serves searches and healthy swaps over the external
// food-data catalog.
type CatalogHandler struct {
	search       *search.Service
	catalogStore *store.CatalogStore
	logger       *slog.Logger
	now          func() time.Time
}

func NewCatalogHandler(svc *search.Service, cs *store.CatalogStore, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{search: svc, catalogStore: cs, logger: logger, now: time.Now}
}

type catalogItem struct {
	ID                int64              `json:"id"`
	Code              string             `json:"code"`
	ProductName       string             `json:"product_name"`
	Brands            string             `json:"brands"`
	ImageURL          string             `json:"image_url"`
	NutriscoreGrade   string             `json:"nutriscore_grade"`
	NutriscoreDisplay string             `json:"nutriscore_display"`
	NovaGroup         *int               `json:"nova_group"`
	NovaDisplay       string             `json:"nova_display"`
	TrafficLight      swap.TrafficLights `json:"traffic_light"`
}

func newCatalogItem(p model.CatalogProduct) catalogItem {
	return catalogItem{
		ID:                p.ID,
		Code:              p.Code,
		ProductName:       p.ProductName,
		Brands:            p.Brands,
		ImageURL:          p.ImageURL,
		NutriscoreGrade:   p.NutriscoreGrade,
		NutriscoreDisplay: swap.GradeLabel(p.NutriscoreGrade),
		NovaGroup:         p.NovaGroup,
		NovaDisplay:       swap.NovaLabel(p.NovaGroup),
		TrafficLight:      swap.Lights(p),
	}
}

func newCatalogItems(products []model.CatalogProduct) []catalogItem {
	out := make([]catalogItem, 0, len(products))
	for _, p := range products {
		out = append(out, newCatalogItem(p))
	}
	return out
}

type catalogDetail struct {
	catalogItem
	Sugars100g       decimal.NullDecimal `json:"sugars_100g"`
	Salt100g         decimal.NullDecimal `json:"salt_100g"`
	Fat100g          decimal.NullDecimal `json:"fat_100g"`
	SaturatedFat100g decimal.NullDecimal `json:"saturated_fat_100g"`
	Completeness     decimal.Decimal     `json:"completeness"`
	Countries        string              `json:"countries"`
	Categories       string              `json:"categories"`
	CategoriesList   []string            `json:"categories_list"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
	LastFetchedAt    time.Time           `json:"last_fetched_at"`
}

func newCatalogDetail(p model.CatalogProduct) catalogDetail {
	cats := []string{}
	for _, c := range strings.Split(p.Categories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cats = append(cats, c)
		}
	}
	return catalogDetail{
		catalogItem:      newCatalogItem(p),
		Sugars100g:       p.Sugars100g,
		Salt100g:         p.Salt100g,
		Fat100g:          p.Fat100g,
		SaturatedFat100g: p.SaturatedFat100g,
		Completeness:     p.Completeness,
		Countries:        p.Countries,
		Categories:       p.Categories,
		CategoriesList:   cats,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
		LastFetchedAt:    p.LastFetchedAt,
	}
}

type swapResponse struct {
	Original           catalogItem      `json:"original"`
	Alternatives       []catalogItem    `json:"alternatives"`
	ImprovementSummary swap.Improvement `json:"improvement_summary"`
}

// Search answers GET /api/off/search?q=&limit=&refresh=.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, `search query "q" parameter is required`)
		return
	}

	products, err := h.search.Search(r.Context(), q, search.Options{
		Limit:        queryInt(r, "limit", search.DefaultLimit),
		ForceRefresh: strings.EqualFold(r.URL.Query().Get("refresh"), "true"),
	})
	if errors.Is(err, search.ErrEmptyQuery) {
		writeError(w, http.StatusBadRequest, `search query "q" parameter is required`)
		return
	}
	if err != nil {
		h.logger.Error("catalog search", "query", q, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed, please try again")
		return
	}

	results := newCatalogItems(products)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   q,
		"count":   len(results),
		"results": results,
	})
}

// Swap answers GET /api/off/swap, finding the source product by code, id or
// the top search result for q, in that order of preference.
func (h *CatalogHandler) Swap(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	code := strings.TrimSpace(params.Get("code"))
	rawID := strings.TrimSpace(params.Get("id"))
	q := strings.TrimSpace(params.Get("q"))

	var source *model.CatalogProduct
	var err error
	switch {
	case code != "":
		source, err = h.catalogStore.GetByCode(r.Context(), code)
		if err == nil && source == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("product with code %s not found, search for it first", code))
			return
		}
	case rawID != "":
		id, perr := strconv.ParseInt(rawID, 10, 64)
		if perr != nil || id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid id")
			return
		}
		source, err = h.catalogStore.GetByID(r.Context(), id)
		if err == nil && source == nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("product with id %d not found", id))
			return
		}
	case q != "":
		var found []model.CatalogProduct
		found, err = h.search.Search(r.Context(), q, search.Options{Limit: 1})
		if err == nil && len(found) == 0 {
			writeError(w, http.StatusNotFound, fmt.Sprintf("no products found for %q", q))
			return
		}
		if err == nil {
			source = &found[0]
		}
	default:
		writeError(w, http.StatusBadRequest, `provide "code", "id" or "q" parameter`)
		return
	}
	if err != nil {
		h.logger.Error("resolve swap source", "code", code, "id", rawID, "query", q, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to find product")
		return
	}

	h.writeSwap(w, r, *source)
}

func (h *CatalogHandler) writeSwap(w http.ResponseWriter, r *http.Request, source model.CatalogProduct) {
	alts, err := swap.Alternatives(r.Context(), h.catalogStore, source, queryInt(r, "limit", swap.DefaultAlternatives))
	if err != nil {
		h.logger.Error("find alternatives", "code", source.Code, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to find alternatives")
		return
	}
	writeJSON(w, http.StatusOK, swapResponse{
		Original:           newCatalogItem(source),
		Alternatives:       newCatalogItems(alts),
		ImprovementSummary: swap.Summarize(source, alts),
	})
}

// ProductByCode answers GET /api/off/product/{code} from the local catalog,
// falling back to a search for the code.
func (h *CatalogHandler) ProductByCode(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		writeError(w, http.StatusBadRequest, "barcode is required")
		return
	}

	p, err := h.catalogStore.GetByCode(r.Context(), code)
	if err != nil {
		h.logger.Error("get catalog product", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if p != nil {
		if p.IsStale(h.now()) {
			h.logger.Info("catalog product is stale", "code", code, "last_fetched_at", p.LastFetchedAt)
		}
		writeJSON(w, http.StatusOK, newCatalogDetail(*p))
		return
	}

	if _, err := h.search.Search(r.Context(), code, search.Options{Limit: 1}); err != nil {
		h.logger.Error("catalog search by code", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	p, err = h.catalogStore.GetByCode(r.Context(), code)
	if err != nil {
		h.logger.Error("get catalog product", "code", code, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return
	}
	if p == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("product with barcode %s not found", code))
		return
	}
	writeJSON(w, http.StatusOK, newCatalogDetail(*p))
}

// List browses cached catalog products, healthiest first.
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	nova := queryInt(r, "nova_group", 0)
	if nova < 0 {
		nova = 0
	}
	products, err := h.catalogStore.List(r.Context(), store.CatalogFilter{
		Grade:     strings.TrimSpace(params.Get("nutriscore_grade")),
		NovaGroup: nova,
		Brand:     strings.TrimSpace(params.Get("brands")),
		Search:    strings.TrimSpace(params.Get("search")),
	})
	if err != nil {
		h.logger.Error("list catalog products", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list products")
		return
	}
	writeJSON(w, http.StatusOK, newCatalogItems(swap.Rank(products, 0)))
}

func (h *CatalogHandler) lookup(w http.ResponseWriter, r *http.Request) *model.CatalogProduct {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	p, err := h.catalogStore.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("get catalog product", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get product")
		return nil
	}
	if p == nil {
		writeError(w, http.StatusNotFound, "product not found")
		return nil
	}
	return p
}

func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	if p := h.lookup(w, r); p != nil {
		writeJSON(w, http.StatusOK, newCatalogDetail(*p))
	}
}

func (h *CatalogHandler) Alternatives(w http.ResponseWriter, r *http.Request) {
	if p := h.lookup(w, r); p != nil {
		h.writeSwap(w, r, *p)
	}
}
