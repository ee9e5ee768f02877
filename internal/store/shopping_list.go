package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/groceryswap/internal/model"
)

type ShoppingListStore struct {
	db *sql.DB
}

func NewShoppingListStore(db *sql.DB) *ShoppingListStore {
	return &ShoppingListStore{db: db}
}

// --- List methods ---

const shoppingListCols = `id, user_id, name, description, is_active, created_at, updated_at`

func scanShoppingList(scanner rowScanner) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var active int
	err := scanner.Scan(&l.ID, &l.UserID, &l.Name, &l.Description, &active, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	l.IsActive = active != 0
	return &l, nil
}

func (s *ShoppingListStore) Create(userID int64, name, description string) (*model.ShoppingList, error) {
	result, err := s.db.Exec(
		`INSERT INTO shopping_lists (user_id, name, description) VALUES (?, ?, ?)`,
		userID, name, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingListStore) GetByID(id int64) (*model.ShoppingList, error) {
	row := s.db.QueryRow(`SELECT `+shoppingListCols+` FROM shopping_lists WHERE id = ?`, id)
	l, err := scanShoppingList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	return l, nil
}

// GetForUser returns the list only when it belongs to userID.
func (s *ShoppingListStore) GetForUser(id, userID int64) (*model.ShoppingList, error) {
	row := s.db.QueryRow(
		`SELECT `+shoppingListCols+` FROM shopping_lists WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	l, err := scanShoppingList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	return l, nil
}

// ListByUser returns a user's lists, most recently updated first.
func (s *ShoppingListStore) ListByUser(userID int64) ([]model.ShoppingList, error) {
	rows, err := s.db.Query(
		`SELECT `+shoppingListCols+` FROM shopping_lists WHERE user_id = ? ORDER BY updated_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}
	defer rows.Close()

	var lists []model.ShoppingList
	for rows.Next() {
		l, err := scanShoppingList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

func (s *ShoppingListStore) Update(id int64, name, description string, isActive bool) (*model.ShoppingList, error) {
	_, err := s.db.Exec(
		`UPDATE shopping_lists SET name = ?, description = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		name, description, boolToInt(isActive), time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update shopping list: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingListStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM shopping_lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shopping list: %w", err)
	}
	return nil
}

func (s *ShoppingListStore) touch(listID int64) error {
	_, err := s.db.Exec(`UPDATE shopping_lists SET updated_at = ? WHERE id = ?`, time.Now().UTC(), listID)
	if err != nil {
		return fmt.Errorf("touch shopping list: %w", err)
	}
	return nil
}

// --- Item methods ---

const shoppingItemCols = `id, shopping_list_id, product_id, quantity, is_checked, notes, added_at, updated_at`

func scanShoppingItem(scanner rowScanner) (*model.ShoppingListItem, error) {
	var item model.ShoppingListItem
	var checked int
	err := scanner.Scan(
		&item.ID, &item.ShoppingListID, &item.ProductID, &item.Quantity,
		&checked, &item.Notes, &item.AddedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.IsChecked = checked != 0
	return &item, nil
}

// ItemUpdate carries a partial item update. Nil fields are left unchanged.
type ItemUpdate struct {
	Quantity  *int
	IsChecked *bool
	Notes     *string
}

func (s *ShoppingListStore) GetItem(listID, itemID int64) (*model.ShoppingListItem, error) {
	row := s.db.QueryRow(
		`SELECT `+shoppingItemCols+` FROM shopping_list_items WHERE id = ? AND shopping_list_id = ?`,
		itemID, listID,
	)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list item: %w", err)
	}
	return item, nil
}

// AddItem adds productID to the list. When the product is already on the
// list its quantity is increased by quantity instead and created is false.
// A missing list or product yields ErrNotFound.
func (s *ShoppingListStore) AddItem(listID, productID int64, quantity int, notes string) (item *model.ShoppingListItem, created bool, err error) {
	if quantity < 1 {
		quantity = 1
	}

	// Merged rows always end above quantity, so equality means inserted.
	var id int64
	var total int
	now := time.Now().UTC()
	err = s.db.QueryRow(
		`INSERT INTO shopping_list_items (shopping_list_id, product_id, quantity, notes, added_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(shopping_list_id, product_id) DO UPDATE SET
		   quantity = quantity + excluded.quantity,
		   updated_at = excluded.updated_at
		 RETURNING id, quantity`,
		listID, productID, quantity, notes, now, now,
	).Scan(&id, &total)
	if isForeignKeyViolation(err) {
		return nil, false, ErrNotFound
	}
	if err != nil {
		return nil, false, fmt.Errorf("add shopping list item: %w", err)
	}

	if err := s.touch(listID); err != nil {
		return nil, false, err
	}
	item, err = s.GetItem(listID, id)
	if err != nil {
		return nil, false, err
	}
	return item, total == quantity, nil
}

// UpdateItem applies u to the item. Returns nil when the item is not on the
// list.
func (s *ShoppingListStore) UpdateItem(listID, itemID int64, u ItemUpdate) (*model.ShoppingListItem, error) {
	item, err := s.GetItem(listID, itemID)
	if err != nil || item == nil {
		return nil, err
	}
	if u.Quantity != nil {
		item.Quantity = *u.Quantity
	}
	if u.IsChecked != nil {
		item.IsChecked = *u.IsChecked
	}
	if u.Notes != nil {
		item.Notes = *u.Notes
	}

	_, err = s.db.Exec(
		`UPDATE shopping_list_items SET quantity = ?, is_checked = ?, notes = ?, updated_at = ? WHERE id = ?`,
		item.Quantity, boolToInt(item.IsChecked), item.Notes, time.Now().UTC(), itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("update shopping list item: %w", err)
	}
	if err := s.touch(listID); err != nil {
		return nil, err
	}
	return s.GetItem(listID, itemID)
}

// DeleteItem reports whether an item was removed.
func (s *ShoppingListStore) DeleteItem(listID, itemID int64) (bool, error) {
	result, err := s.db.Exec(
		`DELETE FROM shopping_list_items WHERE id = ? AND shopping_list_id = ?`,
		itemID, listID,
	)
	if err != nil {
		return false, fmt.Errorf("delete shopping list item: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		if err := s.touch(listID); err != nil {
			return false, err
		}
	}
	return n > 0, nil
}

// ListItems returns the list's items in the order they were added, each with
// its product attached.
func (s *ShoppingListStore) ListItems(listID int64) ([]model.ShoppingListItem, error) {
	rows, err := s.db.Query(
		`SELECT i.id, i.shopping_list_id, i.product_id, i.quantity, i.is_checked, i.notes, i.added_at, i.updated_at,
		        p.id, p.name, p.description, p.image_url, p.category, p.nova_score, p.nutri_score, p.barcode, p.unit, p.created_at, p.updated_at
		 FROM shopping_list_items i
		 JOIN products p ON p.id = i.product_id
		 WHERE i.shopping_list_id = ?
		 ORDER BY i.added_at ASC, i.id ASC`,
		listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list shopping list items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingListItem
	for rows.Next() {
		var item model.ShoppingListItem
		var p model.Product
		var checked int
		var barcode sql.NullString
		err := rows.Scan(
			&item.ID, &item.ShoppingListID, &item.ProductID, &item.Quantity,
			&checked, &item.Notes, &item.AddedAt, &item.UpdatedAt,
			&p.ID, &p.Name, &p.Description, &p.ImageURL, &p.Category,
			&p.NovaScore, &p.NutriScore, &barcode, &p.Unit, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan shopping list item: %w", err)
		}
		item.IsChecked = checked != 0
		if barcode.Valid {
			p.Barcode = &barcode.String
		}
		item.Product = &p
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *ShoppingListStore) ClearChecked(listID int64) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM shopping_list_items WHERE shopping_list_id = ? AND is_checked = 1`,
		listID,
	)
	if err != nil {
		return 0, fmt.Errorf("clear checked: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, s.touch(listID)
}

func (s *ShoppingListStore) UncheckAll(listID int64) (int64, error) {
	result, err := s.db.Exec(
		`UPDATE shopping_list_items SET is_checked = 0, updated_at = ? WHERE shopping_list_id = ? AND is_checked = 1`,
		time.Now().UTC(), listID,
	)
	if err != nil {
		return 0, fmt.Errorf("uncheck all: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, s.touch(listID)
}
