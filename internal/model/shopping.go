package model

import "time"

type ShoppingList struct {
	ID          int64              `json:"id"`
	UserID      int64              `json:"user_id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	IsActive    bool               `json:"is_active"`
	Items       []ShoppingListItem `json:"items,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type ShoppingListItem struct {
	ID             int64     `json:"id"`
	ShoppingListID int64     `json:"shopping_list_id"`
	ProductID      int64     `json:"product_id"`
	Product        *Product  `json:"product,omitempty"`
	Quantity       int       `json:"quantity"`
	IsChecked      bool      `json:"is_checked"`
	Notes          string    `json:"notes"`
	AddedAt        time.Time `json:"added_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
