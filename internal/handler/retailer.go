package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/dukerupert/groceryswap/internal/store"
)

type RetailerHandler struct {
	retailerStore *store.RetailerStore
	logger        *slog.Logger
}

func NewRetailerHandler(rs *store.RetailerStore, logger *slog.Logger) *RetailerHandler {
	return &RetailerHandler{retailerStore: rs, logger: logger}
}

type retailerRequest struct {
	Name       string `json:"name"`
	LogoURL    string `json:"logo_url"`
	WebsiteURL string `json:"website_url"`
}

func (req *retailerRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if len(req.Name) > 100 {
		return "name must be at most 100 characters"
	}
	return ""
}

func (h *RetailerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req retailerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	retailer, err := h.retailerStore.Create(req.Name, req.LogoURL, req.WebsiteURL)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "retailer with this name already exists")
		return
	}
	if err != nil {
		h.logger.Error("create retailer", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create retailer")
		return
	}
	writeJSON(w, http.StatusCreated, retailer)
}

func (h *RetailerHandler) List(w http.ResponseWriter, r *http.Request) {
	retailers, err := h.retailerStore.List(strings.TrimSpace(r.URL.Query().Get("search")))
	if err != nil {
		h.logger.Error("list retailers", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list retailers")
		return
	}
	if retailers == nil {
		retailers = []model.Retailer{}
	}
	writeJSON(w, http.StatusOK, retailers)
}

func (h *RetailerHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	retailer, err := h.retailerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get retailer", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get retailer")
		return
	}
	if retailer == nil {
		writeError(w, http.StatusNotFound, "retailer not found")
		return
	}
	writeJSON(w, http.StatusOK, retailer)
}

func (h *RetailerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.retailerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get retailer", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get retailer")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "retailer not found")
		return
	}

	var req retailerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	retailer, err := h.retailerStore.Update(id, req.Name, req.LogoURL, req.WebsiteURL)
	if errors.Is(err, store.ErrDuplicate) {
		writeError(w, http.StatusConflict, "retailer with this name already exists")
		return
	}
	if err != nil {
		h.logger.Error("update retailer", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update retailer")
		return
	}
	writeJSON(w, http.StatusOK, retailer)
}

func (h *RetailerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	existing, err := h.retailerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get retailer", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get retailer")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "retailer not found")
		return
	}
	if err := h.retailerStore.Delete(id); err != nil {
		h.logger.Error("delete retailer", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete retailer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
