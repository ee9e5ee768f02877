package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/groceryswap/internal/auth"
	"github.com/dukerupert/groceryswap/internal/compare"
	"github.com/dukerupert/groceryswap/internal/model"
	"github.com/dukerupert/groceryswap/internal/store"
	"github.com/dukerupert/groceryswap/internal/websocket"
)

const maxNotes = 255

// ShoppingListHandler serves the caller's shopping lists. Every route runs
// behind middleware.RequireUser; lists owned by someone else are reported as
// not found.
type ShoppingListHandler struct {
	listStore *store.ShoppingListStore
	compare   *compare.Service
	hub       Broadcaster
	logger    *slog.Logger
}

func NewShoppingListHandler(ls *store.ShoppingListStore, cs *compare.Service, hub Broadcaster, logger *slog.Logger) *ShoppingListHandler {
	return &ShoppingListHandler{listStore: ls, compare: cs, hub: hub, logger: logger}
}

func (h *ShoppingListHandler) broadcast(userID int64, entity, action string, id int64, extra map[string]any) {
	if h.hub != nil {
		h.hub.Broadcast(websocket.NewMessage(entity, action, id, extra).ForUser(userID))
	}
}

type shoppingListResponse struct {
	model.ShoppingList
	Items         []model.ShoppingListItem `json:"items"`
	TotalItems    int                      `json:"total_items"`
	TotalQuantity int                      `json:"total_quantity"`
}

func newShoppingListResponse(l model.ShoppingList, items []model.ShoppingListItem) shoppingListResponse {
	if items == nil {
		items = []model.ShoppingListItem{}
	}
	resp := shoppingListResponse{ShoppingList: l, Items: items, TotalItems: len(items)}
	for _, it := range items {
		resp.TotalQuantity += it.Quantity
	}
	return resp
}

type shoppingListRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

func (req *shoppingListRequest) validate() string {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return "name is required"
	}
	if len(req.Name) > 200 {
		return "name must be at most 200 characters"
	}
	return ""
}

// ownedList resolves the {id} path parameter to one of the caller's lists,
// writing the error response itself when it cannot.
func (h *ShoppingListHandler) ownedList(w http.ResponseWriter, r *http.Request) *model.ShoppingList {
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return nil
	}
	list, err := h.listStore.GetForUser(id, auth.UserID(r.Context()))
	if err != nil {
		h.logger.Error("get shopping list", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get shopping list")
		return nil
	}
	if list == nil {
		writeError(w, http.StatusNotFound, "shopping list not found")
		return nil
	}
	return list
}

func (h *ShoppingListHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req shoppingListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	list, err := h.listStore.Create(userID, req.Name, req.Description)
	if err == nil && req.IsActive != nil && !*req.IsActive {
		list, err = h.listStore.Update(list.ID, list.Name, list.Description, false)
	}
	if err != nil {
		h.logger.Error("create shopping list", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create shopping list")
		return
	}

	h.broadcast(userID, websocket.EntityShoppingList, websocket.ActionCreated, list.ID, nil)
	writeJSON(w, http.StatusCreated, newShoppingListResponse(*list, nil))
}

func (h *ShoppingListHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	lists, err := h.listStore.ListByUser(userID)
	if err != nil {
		h.logger.Error("list shopping lists", "user_id", userID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shopping lists")
		return
	}

	out := make([]shoppingListResponse, 0, len(lists))
	for _, l := range lists {
		items, err := h.listStore.ListItems(l.ID)
		if err != nil {
			h.logger.Error("list shopping list items", "list_id", l.ID, "error", err)
			writeError(w, http.StatusInternalServerError, "failed to list shopping lists")
			return
		}
		out = append(out, newShoppingListResponse(l, items))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ShoppingListHandler) Get(w http.ResponseWriter, r *http.Request) {
	list := h.ownedList(w, r)
	if list == nil {
		return
	}
	items, err := h.listStore.ListItems(list.ID)
	if err != nil {
		h.logger.Error("list shopping list items", "list_id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get shopping list")
		return
	}
	writeJSON(w, http.StatusOK, newShoppingListResponse(*list, items))
}

func (h *ShoppingListHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing := h.ownedList(w, r)
	if existing == nil {
		return
	}

	var req shoppingListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	active := existing.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	list, err := h.listStore.Update(existing.ID, req.Name, req.Description, active)
	if err != nil {
		h.logger.Error("update shopping list", "id", existing.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update shopping list")
		return
	}
	items, err := h.listStore.ListItems(list.ID)
	if err != nil {
		h.logger.Error("list shopping list items", "list_id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update shopping list")
		return
	}

	h.broadcast(list.UserID, websocket.EntityShoppingList, websocket.ActionUpdated, list.ID, nil)
	writeJSON(w, http.StatusOK, newShoppingListResponse(*list, items))
}

func (h *ShoppingListHandler) Delete(w http.ResponseWriter, r *http.Request) {
	list := h.ownedList(w, r)
	if list == nil {
		return
	}
	if err := h.listStore.Delete(list.ID); err != nil {
		h.logger.Error("delete shopping list", "id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete shopping list")
		return
	}
	h.broadcast(list.UserID, websocket.EntityShoppingList, websocket.ActionDeleted, list.ID, nil)
	w.WriteHeader(http.StatusNoContent)
}

type addItemRequest struct {
	ProductID int64  `json:"product_id"`
	Quantity  *int   `json:"quantity"`
	Notes     string `json:"notes"`
}

// AddItem puts a product on the list. A product already on the list has its
// quantity increased and the response is 200 instead of 201.
func (h *ShoppingListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	list := h.ownedList(w, r)
	if list == nil {
		return
	}

	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.ProductID <= 0 {
		writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}
	if qty < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}
	if len(req.Notes) > maxNotes {
		writeError(w, http.StatusBadRequest, "notes must be at most 255 characters")
		return
	}

	item, created, err := h.listStore.AddItem(list.ID, req.ProductID, qty, req.Notes)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.logger.Error("add shopping list item", "list_id", list.ID, "product_id", req.ProductID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	status, action := http.StatusOK, websocket.ActionUpdated
	if created {
		status, action = http.StatusCreated, websocket.ActionCreated
	}
	h.broadcast(list.UserID, websocket.EntityListItem, action, item.ID, map[string]any{"list_id": list.ID})
	writeJSON(w, status, item)
}

type updateItemRequest struct {
	Quantity  *int    `json:"quantity"`
	IsChecked *bool   `json:"is_checked"`
	Notes     *string `json:"notes"`
}

func (h *ShoppingListHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	list := h.ownedList(w, r)
	if list == nil {
		return
	}
	itemID, err := parsePathID(r, "item_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item_id")
		return
	}

	var req updateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Quantity != nil && *req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be at least 1")
		return
	}
	if req.Notes != nil && len(*req.Notes) > maxNotes {
		writeError(w, http.StatusBadRequest, "notes must be at most 255 characters")
		return
	}

	item, err := h.listStore.UpdateItem(list.ID, itemID, store.ItemUpdate{
		Quantity:  req.Quantity,
		IsChecked: req.IsChecked,
		Notes:     req.Notes,
	})
	if err != nil {
		h.logger.Error("update shopping list item", "list_id", list.ID, "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if item == nil {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.broadcast(list.UserID, websocket.EntityListItem, websocket.ActionUpdated, item.ID, map[string]any{"list_id": list.ID})
	writeJSON(w, http.StatusOK, item)
}

func (h *ShoppingListHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	list := h.ownedList(w, r)
	if list == nil {
		return
	}
	itemID, err := parsePathID(r, "item_id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item_id")
		return
	}

	deleted, err := h.listStore.DeleteItem(list.ID, itemID)
	if err != nil {
		h.logger.Error("delete shopping list item", "list_id", list.ID, "item_id", itemID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "item not found")
		return
	}

	h.broadcast(list.UserID, websocket.EntityListItem, websocket.ActionDeleted, itemID, map[string]any{"list_id": list.ID})
	w.WriteHeader(http.StatusNoContent)
}

func (h *ShoppingListHandler) ClearChecked(w http.ResponseWriter, r *http.Request) {
	list := h.ownedList(w, r)
	if list == nil {
		return
	}
	count, err := h.listStore.ClearChecked(list.ID)
	if err != nil {
		h.logger.Error("clear checked", "list_id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear checked items")
		return
	}
	if count > 0 {
		h.broadcast(list.UserID, websocket.EntityListItem, websocket.ActionCleared, 0, map[string]any{"list_id": list.ID, "count": count})
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted_count": count})
}

func (h *ShoppingListHandler) UncheckAll(w http.ResponseWriter, r *http.Request) {
	list := h.ownedList(w, r)
	if list == nil {
		return
	}
	count, err := h.listStore.UncheckAll(list.ID)
	if err != nil {
		h.logger.Error("uncheck all", "list_id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to uncheck items")
		return
	}
	if count > 0 {
		h.broadcast(list.UserID, websocket.EntityListItem, websocket.ActionUpdated, 0, map[string]any{"list_id": list.ID, "count": count})
	}
	writeJSON(w, http.StatusOK, map[string]int64{"updated_count": count})
}

type listSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	TotalItems int    `json:"total_items"`
}

type comparisonResponse struct {
	ShoppingList listSummary `json:"shopping_list"`
	compare.Result
}

// Compare prices the list at every retailer.
func (h *ShoppingListHandler) Compare(w http.ResponseWriter, r *http.Request) {
	list := h.ownedList(w, r)
	if list == nil {
		return
	}
	items, err := h.listStore.ListItems(list.ID)
	if err != nil {
		h.logger.Error("list shopping list items", "list_id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compare prices")
		return
	}
	result, err := h.compare.CompareList(items)
	if err != nil {
		h.logger.Error("compare shopping list", "list_id", list.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compare prices")
		return
	}

	writeJSON(w, http.StatusOK, comparisonResponse{
		ShoppingList: listSummary{ID: list.ID, Name: list.Name, TotalItems: len(items)},
		Result:       result,
	})
}
