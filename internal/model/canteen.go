package model

import "time"

// Order lifecycle states, in the order the kitchen moves through them.
const (
	OrderStatusPlaced    = "placed"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready_for_pickup"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// MenuItem is a single dish on the canteen menu.  Prices are stored in
// paise to avoid floating point money.  Menu items are rendered to
// clients as-is, so the struct carries JSON tags.
type MenuItem struct {
	ID          uint64    `json:"id"`           // menu_items.id
	Name        string    `json:"name"`         // menu_items.name
	Description *string   `json:"description"`  // menu_items.description (nullable)
	PricePaise  uint32    `json:"price_paise"`  // menu_items.price_paise
	Category    string    `json:"category"`     // menu_items.category, comma-separated tags like "veg,jain"
	IsAvailable bool      `json:"is_available"` // menu_items.is_available
	CreatedAt   time.Time `json:"created_at"`   // menu_items.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // menu_items.updated_at
}

// Order groups the items a student ordered in one go.
type Order struct {
	ID        uint64    `json:"id"`         // orders.id
	UserID    uint64    `json:"user_id"`    // orders.user_id
	Status    string    `json:"status"`     // orders.status
	CreatedAt time.Time `json:"created_at"` // orders.created_at
	UpdatedAt time.Time `json:"updated_at"` // orders.updated_at
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID                  uint64  `json:"id"`                   // order_items.id
	OrderID             uint64  `json:"order_id"`             // order_items.order_id
	MenuItemID          uint64  `json:"menu_item_id"`         // order_items.menu_item_id
	Quantity            uint32  `json:"quantity"`             // order_items.quantity
	SpecialInstructions *string `json:"special_instructions"` // order_items.special_instructions (nullable)
}
