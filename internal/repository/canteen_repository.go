package repository

import (
	"context"
	"database/sql"

	"github.com/ssaraswat/campus-services/internal/model"
)

// CanteenRepo provides data access to the menu_items, orders and
// order_items tables.
type CanteenRepo struct{ DB *sql.DB }

func NewCanteenRepo(db *sql.DB) *CanteenRepo { return &CanteenRepo{DB: db} }

const menuItemColumns = "id,name,description,price_paise,category,is_available,created_at,updated_at"

// ListMenu returns the menu, optionally restricted to available items and
// a category tag.  The category column holds comma-separated tags, so the
// filter matches with FIND_IN_SET.
func (r *CanteenRepo) ListMenu(ctx context.Context, onlyAvailable bool, category string) ([]model.MenuItem, error) {
	q := "SELECT " + menuItemColumns + " FROM menu_items"
	args := []interface{}{}
	where := ""
	if onlyAvailable {
		where = " WHERE is_available = 1"
	}
	if category != "" {
		if where == "" {
			where = " WHERE"
		} else {
			where += " AND"
		}
		where += " FIND_IN_SET(?, category)"
		args = append(args, category)
	}
	rows, err := r.DB.QueryContext(ctx, q+where+" ORDER BY name ASC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []model.MenuItem
	for rows.Next() {
		var it model.MenuItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.PricePaise,
			&it.Category, &it.IsAvailable, &it.CreatedAt, &it.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MenuItemByID fetches one menu item.  Returns (nil, nil) when absent.
func (r *CanteenRepo) MenuItemByID(ctx context.Context, id uint64) (*model.MenuItem, error) {
	var it model.MenuItem
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+menuItemColumns+" FROM menu_items WHERE id=?", id).
		Scan(&it.ID, &it.Name, &it.Description, &it.PricePaise,
			&it.Category, &it.IsAvailable, &it.CreatedAt, &it.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// CreateMenuItem inserts a dish and fills in the generated ID.
func (r *CanteenRepo) CreateMenuItem(ctx context.Context, it *model.MenuItem) error {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO menu_items (name, description, price_paise, category, is_available) VALUES (?,?,?,?,?)",
		it.Name, it.Description, it.PricePaise, it.Category, it.IsAvailable)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	it.ID = uint64(id)
	return nil
}

// UpdateMenuItem persists every mutable column of the dish.
func (r *CanteenRepo) UpdateMenuItem(ctx context.Context, it *model.MenuItem) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE menu_items SET name=?, description=?, price_paise=?, category=?, is_available=?, updated_at=UTC_TIMESTAMP() WHERE id=?",
		it.Name, it.Description, it.PricePaise, it.Category, it.IsAvailable, it.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// OrderLine pairs a menu item with a quantity when placing an order.
type OrderLine struct {
	MenuItemID          uint64
	Quantity            uint32
	SpecialInstructions *string
}

// CreateOrder writes an order with its lines in one transaction and
// returns the new order ID.  Lines referring to unknown or unavailable
// items fail the whole order with ErrNotFound.
func (r *CanteenRepo) CreateOrder(ctx context.Context, userID uint64, lines []OrderLine) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO orders (user_id, status) VALUES (?,?)",
		userID, model.OrderStatusPlaced)
	if err != nil {
		return 0, err
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	for _, l := range lines {
		var available bool
		err := tx.QueryRowContext(ctx,
			"SELECT is_available FROM menu_items WHERE id=?", l.MenuItemID).Scan(&available)
		if err == sql.ErrNoRows || (err == nil && !available) {
			return 0, ErrNotFound
		}
		if err != nil {
			return 0, err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO order_items (order_id, menu_item_id, quantity, special_instructions) VALUES (?,?,?,?)",
			orderID, l.MenuItemID, l.Quantity, l.SpecialInstructions); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	committed = true
	return uint64(orderID), nil
}

// OrderView is an order joined with its lines and total, for both the
// student's order list and the kitchen board.
type OrderView struct {
	model.Order
	UserName   string          `json:"user_name"`
	TotalPaise uint64          `json:"total_paise"`
	Lines      []OrderLineView `json:"lines"`
}

// OrderLineView is one rendered line of an order.
type OrderLineView struct {
	MenuItemID          uint64  `json:"menu_item_id"`
	Name                string  `json:"name"`
	Quantity            uint32  `json:"quantity"`
	PricePaise          uint32  `json:"price_paise"`
	SpecialInstructions *string `json:"special_instructions"`
}

// ListOrders returns orders newest first.  userID 0 lists all users
// (kitchen board); status "" lists all states.
func (r *CanteenRepo) ListOrders(ctx context.Context, userID uint64, status string, limit, offset int) ([]OrderView, error) {
	q := `SELECT o.id, o.user_id, o.status, o.created_at, o.updated_at, u.full_name
	      FROM orders o JOIN users u ON u.id = o.user_id`
	args := []interface{}{}
	where := ""
	if userID != 0 {
		where = " WHERE o.user_id = ?"
		args = append(args, userID)
	}
	if status != "" {
		if where == "" {
			where = " WHERE o.status = ?"
		} else {
			where += " AND o.status = ?"
		}
		args = append(args, status)
	}
	q += where + " ORDER BY o.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var orders []OrderView
	for rows.Next() {
		var v OrderView
		if err := rows.Scan(&v.ID, &v.UserID, &v.Status, &v.CreatedAt, &v.UpdatedAt, &v.UserName); err != nil {
			rows.Close()
			return nil, err
		}
		orders = append(orders, v)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	for i := range orders {
		if err := r.loadLines(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *CanteenRepo) loadLines(ctx context.Context, v *OrderView) error {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT oi.menu_item_id, m.name, oi.quantity, m.price_paise, oi.special_instructions
		 FROM order_items oi JOIN menu_items m ON m.id = oi.menu_item_id
		 WHERE oi.order_id = ?`, v.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var l OrderLineView
		if err := rows.Scan(&l.MenuItemID, &l.Name, &l.Quantity, &l.PricePaise, &l.SpecialInstructions); err != nil {
			return err
		}
		v.TotalPaise += uint64(l.PricePaise) * uint64(l.Quantity)
		v.Lines = append(v.Lines, l)
	}
	return rows.Err()
}

// UpdateOrderStatus moves an order between kitchen states.  The
// fromStates guard rejects illegal jumps; the caller lists the states the
// transition may start from.
func (r *CanteenRepo) UpdateOrderStatus(ctx context.Context, orderID uint64, to string, fromStates ...string) error {
	q := "UPDATE orders SET status=?, updated_at=UTC_TIMESTAMP() WHERE id=?"
	args := []interface{}{to, orderID}
	if len(fromStates) > 0 {
		q += " AND status IN (?" // at least one placeholder
		for i := 1; i < len(fromStates); i++ {
			q += ",?"
		}
		q += ")"
		for _, s := range fromStates {
			args = append(args, s)
		}
	}
	res, err := r.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// A miss is either a missing order or a state the transition may
		// not start from; tell them apart so handlers can answer 404 vs 409.
		if _, err := r.OrderOwner(ctx, orderID); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}

// OrderOwner returns the user ID that placed the order, or ErrNotFound.
func (r *CanteenRepo) OrderOwner(ctx context.Context, orderID uint64) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx, "SELECT user_id FROM orders WHERE id=?", orderID).Scan(&userID)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return userID, err
}
