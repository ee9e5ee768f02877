package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/groceryswap/internal/compare"
	"github.com/dukerupert/groceryswap/internal/handler"
	"github.com/dukerupert/groceryswap/internal/middleware"
	"github.com/dukerupert/groceryswap/internal/search"
	"github.com/dukerupert/groceryswap/internal/store"
	ws "github.com/dukerupert/groceryswap/internal/websocket"
)

// Config holds the server settings that are not handler dependencies.
type Config struct {
	// SearchRateLimit caps requests per client per minute on catalog routes
	// that may call the external API. Zero disables the limit.
	SearchRateLimit int
}

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	retailerH   *handler.RetailerHandler
	productH    *handler.ProductHandler
	priceH      *handler.PriceHandler
	listH       *handler.ShoppingListHandler
	catalogH    *handler.CatalogHandler
	rateLimiter *middleware.RateLimiter
	cfg         Config
	logger      *slog.Logger
}

// New wires stores, services and handlers over db. fetcher is the external
// catalog client.
func New(db *sql.DB, fetcher search.Fetcher, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	retailerStore := store.NewRetailerStore(db)
	productStore := store.NewProductStore(db)
	priceStore := store.NewPriceStore(db)
	listStore := store.NewShoppingListStore(db)
	catalogStore := store.NewCatalogStore(db)

	searchSvc := search.NewService(fetcher, catalogStore, logger.With("component", "search"))
	compareSvc := compare.NewService(priceStore, retailerStore)

	priceH := handler.NewPriceHandler(priceStore, retailerStore, hub, logger.With("component", "price"))

	return &Server{
		db:          db,
		hub:         hub,
		retailerH:   handler.NewRetailerHandler(retailerStore, logger.With("component", "retailer")),
		productH:    handler.NewProductHandler(productStore, priceH, logger.With("component", "product")),
		priceH:      priceH,
		listH:       handler.NewShoppingListHandler(listStore, compareSvc, hub, logger.With("component", "shopping_list")),
		catalogH:    handler.NewCatalogHandler(searchSvc, catalogStore, logger.With("component", "catalog")),
		rateLimiter: middleware.NewRateLimiter(),
		cfg:         cfg,
		logger:      logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger.With("component", "websocket")))

	// Retailers
	mux.HandleFunc("GET /api/retailers", s.retailerH.List)
	mux.HandleFunc("POST /api/retailers", s.retailerH.Create)
	mux.HandleFunc("GET /api/retailers/{id}", s.retailerH.Get)
	mux.HandleFunc("PUT /api/retailers/{id}", s.retailerH.Update)
	mux.HandleFunc("DELETE /api/retailers/{id}", s.retailerH.Delete)

	// Products
	mux.HandleFunc("GET /api/products", s.productH.List)
	mux.HandleFunc("POST /api/products", s.productH.Create)
	mux.HandleFunc("GET /api/products/categories", s.productH.Categories)
	mux.HandleFunc("GET /api/products/low-processing", s.productH.LowProcessing)
	mux.HandleFunc("GET /api/products/{id}", s.productH.Get)
	mux.HandleFunc("PUT /api/products/{id}", s.productH.Update)
	mux.HandleFunc("DELETE /api/products/{id}", s.productH.Delete)
	mux.HandleFunc("GET /api/products/{id}/prices", s.productH.Prices)

	// Prices
	mux.HandleFunc("GET /api/prices", s.priceH.List)
	mux.HandleFunc("PUT /api/prices", s.priceH.Upsert)
	mux.HandleFunc("DELETE /api/prices/{id}", s.priceH.Delete)

	// Shopping lists, scoped to the caller
	user := middleware.RequireUser
	mux.Handle("GET /api/shopping-lists", user(http.HandlerFunc(s.listH.List)))
	mux.Handle("POST /api/shopping-lists", user(http.HandlerFunc(s.listH.Create)))
	mux.Handle("GET /api/shopping-lists/{id}", user(http.HandlerFunc(s.listH.Get)))
	mux.Handle("PUT /api/shopping-lists/{id}", user(http.HandlerFunc(s.listH.Update)))
	mux.Handle("DELETE /api/shopping-lists/{id}", user(http.HandlerFunc(s.listH.Delete)))
	mux.Handle("POST /api/shopping-lists/{id}/items", user(http.HandlerFunc(s.listH.AddItem)))
	mux.Handle("PATCH /api/shopping-lists/{id}/items/{item_id}", user(http.HandlerFunc(s.listH.UpdateItem)))
	mux.Handle("DELETE /api/shopping-lists/{id}/items/{item_id}", user(http.HandlerFunc(s.listH.DeleteItem)))
	mux.Handle("POST /api/shopping-lists/{id}/clear-checked", user(http.HandlerFunc(s.listH.ClearChecked)))
	mux.Handle("POST /api/shopping-lists/{id}/uncheck-all", user(http.HandlerFunc(s.listH.UncheckAll)))
	mux.Handle("GET /api/shopping-lists/{id}/compare", user(http.HandlerFunc(s.listH.Compare)))

	// External catalog. Routes that can reach the food-data API are rate
	// limited per client.
	mux.HandleFunc("GET /api/off/search", s.rateLimited(s.catalogH.Search))
	mux.HandleFunc("GET /api/off/swap", s.rateLimited(s.catalogH.Swap))
	mux.HandleFunc("GET /api/off/product/{code}", s.rateLimited(s.catalogH.ProductByCode))
	mux.HandleFunc("GET /api/off/products", s.catalogH.List)
	mux.HandleFunc("GET /api/off/products/{id}", s.catalogH.Get)
	mux.HandleFunc("GET /api/off/products/{id}/alternatives", s.catalogH.Alternatives)

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, middleware.ByIP, s.cfg.SearchRateLimit, time.Minute)(h).ServeHTTP
}
