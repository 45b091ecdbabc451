package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ssaraswat/campus-services/internal/model"
	"github.com/ssaraswat/campus-services/internal/repository"
)

// CanteenHandler serves the canteen menu and order flow.  Students browse
// the menu and place pre-orders; admins manage the menu and move orders
// through the kitchen states.
type CanteenHandler struct {
	Repo *repository.CanteenRepo
}

func NewCanteenHandler(repo *repository.CanteenRepo) *CanteenHandler {
	if repo == nil {
		panic("nil repository passed to NewCanteenHandler")
	}
	return &CanteenHandler{Repo: repo}
}

// Menu handles GET /v1/canteen/menu.  Students see available dishes
// only; include_unavailable=true widens the listing for admins.
func (h *CanteenHandler) Menu(c echo.Context) error {
	onlyAvailable := c.QueryParam("include_unavailable") != "true"
	items, err := h.Repo.ListMenu(c.Request().Context(), onlyAvailable,
		strings.TrimSpace(c.QueryParam("category")))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

type menuItemReq struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	PricePaise  uint32  `json:"price_paise"`
	Category    string  `json:"category"`
	IsAvailable *bool   `json:"is_available"`
}

// CreateMenuItem handles POST /v1/admin/canteen/menu.
func (h *CanteenHandler) CreateMenuItem(c echo.Context) error {
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.PricePaise == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and price_paise required"})
	}
	it := &model.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		PricePaise:  req.PricePaise,
		Category:    strings.TrimSpace(req.Category),
		IsAvailable: req.IsAvailable == nil || *req.IsAvailable,
	}
	if err := h.Repo.CreateMenuItem(c.Request().Context(), it); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create menu item failed"})
	}
	return c.JSON(http.StatusCreated, it)
}

// UpdateMenuItem handles PUT /v1/admin/canteen/menu/:id.
func (h *CanteenHandler) UpdateMenuItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid item id"})
	}
	var req menuItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx := c.Request().Context()
	it, err := h.Repo.MenuItemByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if it == nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		it.Name = name
	}
	if req.Description != nil {
		it.Description = req.Description
	}
	if req.PricePaise != 0 {
		it.PricePaise = req.PricePaise
	}
	if cat := strings.TrimSpace(req.Category); cat != "" {
		it.Category = cat
	}
	if req.IsAvailable != nil {
		it.IsAvailable = *req.IsAvailable
	}
	if err := h.Repo.UpdateMenuItem(ctx, it); err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "menu item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update menu item failed"})
	}
	return c.JSON(http.StatusOK, it)
}

type placeOrderReq struct {
	Items []struct {
		MenuItemID          uint64  `json:"menu_item_id"`
		Quantity            uint32  `json:"quantity"`
		SpecialInstructions *string `json:"special_instructions"`
	} `json:"items"`
}

// PlaceOrder handles POST /v1/canteen/orders.
func (h *CanteenHandler) PlaceOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req placeOrderReq
	if err := c.Bind(&req); err != nil || len(req.Items) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "items required"})
	}
	lines := make([]repository.OrderLine, 0, len(req.Items))
	for _, it := range req.Items {
		if it.MenuItemID == 0 || it.Quantity == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "each item needs menu_item_id and quantity"})
		}
		lines = append(lines, repository.OrderLine{
			MenuItemID:          it.MenuItemID,
			Quantity:            it.Quantity,
			SpecialInstructions: it.SpecialInstructions,
		})
	}
	orderID, err := h.Repo.CreateOrder(c.Request().Context(), userID, lines)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "order references an unknown or unavailable item"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "place order failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"order_id": orderID, "status": model.OrderStatusPlaced})
}

// MyOrders handles GET /v1/canteen/orders for the calling student.
func (h *CanteenHandler) MyOrders(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	limit, offset := pageParams(c, 20, 100)
	orders, err := h.Repo.ListOrders(c.Request().Context(), userID, "", limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// CancelOrder handles POST /v1/canteen/orders/:id/cancel.  Only the
// owner can cancel, and only while the order is still just placed.
func (h *CanteenHandler) CancelOrder(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	ctx := c.Request().Context()
	owner, err := h.Repo.OrderOwner(ctx, orderID)
	if err != nil {
		if err == repository.ErrNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if owner != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your order"})
	}
	err = h.Repo.UpdateOrderStatus(ctx, orderID, model.OrderStatusCancelled, model.OrderStatusPlaced)
	if err != nil {
		if err == repository.ErrConflict {
			return c.JSON(http.StatusConflict, echo.Map{"error": "order is already being prepared"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel order failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Board handles GET /v1/admin/canteen/orders: the kitchen's view of
// open orders, optionally filtered by status.
func (h *CanteenHandler) Board(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	switch status {
	case "", model.OrderStatusPlaced, model.OrderStatusPreparing,
		model.OrderStatusReady, model.OrderStatusDelivered, model.OrderStatusCancelled:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	limit, offset := pageParams(c, 50, 200)
	orders, err := h.Repo.ListOrders(c.Request().Context(), 0, status, limit, offset)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

// advanceOrder applies one kitchen transition with its legal source
// states.
func (h *CanteenHandler) advanceOrder(c echo.Context, to string, from ...string) error {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid order id"})
	}
	if err := h.Repo.UpdateOrderStatus(c.Request().Context(), orderID, to, from...); err != nil {
		return orderTransitionError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"status": to})
}

// orderTransitionError renders a failed kitchen transition: a missing
// order is a 404, a wrong source state a 409.
func orderTransitionError(c echo.Context, err error) error {
	switch err {
	case repository.ErrNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "order not found"})
	case repository.ErrConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "order is not in a state that allows this transition"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update order failed"})
}

// StartPreparing handles POST /v1/admin/canteen/orders/:id/prepare.
func (h *CanteenHandler) StartPreparing(c echo.Context) error {
	return h.advanceOrder(c, model.OrderStatusPreparing, model.OrderStatusPlaced)
}

// MarkReady handles POST /v1/admin/canteen/orders/:id/ready.
func (h *CanteenHandler) MarkReady(c echo.Context) error {
	return h.advanceOrder(c, model.OrderStatusReady, model.OrderStatusPreparing)
}

// MarkDelivered handles POST /v1/admin/canteen/orders/:id/deliver.
func (h *CanteenHandler) MarkDelivered(c echo.Context) error {
	return h.advanceOrder(c, model.OrderStatusDelivered, model.OrderStatusReady)
}
