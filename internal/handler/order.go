package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/orchidshop/internal/middleware"
	"github.com/mmeshcher/orchidshop/internal/response"
	"github.com/mmeshcher/orchidshop/internal/service"
)

type orderItemRequest struct {
	OrchidID int64 `json:"orchidId" validate:"required"`
	Quantity int   `json:"quantity" validate:"required,min=1"`
}

type createOrderRequest struct {
	OrderItems []orderItemRequest `json:"orderItems" validate:"required,min=1,dive"`
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,max=20"`
}

// ListOrders возвращает все заказы.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, err, "list orders")
		return
	}
	response.OK(w, orders, "")
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "get order", zap.Int64("orderID", id))
		return
	}
	response.OK(w, order, "")
}

// ListOrdersPage возвращает страницу заказов.
func (h *Handler) ListOrdersPage(w http.ResponseWriter, r *http.Request) {
	number, size, err := pageParams(r)
	if err != nil {
		badRequest(w, err)
		return
	}

	page, err := h.orders.ListOrdersPage(r.Context(), number, size)
	if err != nil {
		h.writeError(w, err, "list orders page")
		return
	}
	response.OK(w, page, "")
}

// MyOrders возвращает заказы текущего пользователя.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	orders, err := h.orders.OrdersByAccount(r.Context(), accountID)
	if err != nil {
		h.writeError(w, err, "my orders", zap.Int64("accountID", accountID))
		return
	}
	response.OK(w, orders, "")
}

// OrdersByStatus возвращает заказы в указанном статусе.
func (h *Handler) OrdersByStatus(w http.ResponseWriter, r *http.Request) {
	status := chi.URLParam(r, "status")

	orders, err := h.orders.OrdersByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, err, "orders by status", zap.String("status", status))
		return
	}
	response.OK(w, orders, "")
}

// CreateOrder оформляет заказ текущего пользователя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.GetAccountIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	items := make([]service.OrderItem, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, service.OrderItem{OrchidID: it.OrchidID, Quantity: it.Quantity})
	}

	order, err := h.orders.CreateOrder(r.Context(), accountID, items)
	if err != nil {
		h.writeError(w, err, "create order", zap.Int64("accountID", accountID))
		return
	}
	response.Created(w, order, "Order created successfully")
}

// UpdateOrderStatus меняет статус заказа.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}

	var req orderStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	order, err := h.orders.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeError(w, err, "update order status", zap.Int64("orderID", id))
		return
	}
	response.OK(w, order, "Order status updated successfully")
}

// CancelOrder отменяет заказ в статусе Pending.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err)
		return
	}

	order, err := h.orders.CancelOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "cancel order", zap.Int64("orderID", id))
		return
	}
	response.OK(w, order, "Order cancelled successfully")
}

// Statistics возвращает аналитику заказов за период. По умолчанию берётся
// последний месяц до текущего дня включительно.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	start, err := queryDate(r, "startDate")
	if err != nil {
		badRequest(w, err)
		return
	}
	end, err := queryDate(r, "endDate")
	if err != nil {
		badRequest(w, err)
		return
	}

	now := h.now().UTC()
	if end == nil {
		end = &now
	}
	if start == nil {
		monthAgo := now.AddDate(0, -1, 0)
		start = &monthAgo
	}

	analytics, err := h.orders.GetAnalytics(r.Context(), *start, *end)
	if err != nil {
		h.writeError(w, err, "order statistics")
		return
	}
	response.OK(w, analytics, "")
}
