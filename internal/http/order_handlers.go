package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shop-api/internal/domain"
)

type orderLineRequest struct {
	ProductID int64 `json:"productId" binding:"required,gt=0"`
	Quantity  int   `json:"quantity" binding:"required,gt=0"`
}

type createOrderRequest struct {
	Items []orderLineRequest `json:"items" binding:"required,min=1,dive"`
}

type updateOrderRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid shipped cancelled"`
}

func (h *Handler) createOrder(c *gin.Context) {
	var req createOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	lines := make([]domain.LineRequest, len(req.Items))
	for i, item := range req.Items {
		lines[i] = domain.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	// the owner always comes from the token, never from the body
	order, err := h.orders.Place(c.Request.Context(), identityFrom(c).ID, lines)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderToResponse(order))
}

func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.List(c.Request.Context(), identityFrom(c).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]OrderResponse, len(orders))
	for i := range orders {
		resp[i] = orderToResponse(&orders[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Request.Context(), resourceID(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderToResponse(order))
}

func (h *Handler) updateOrder(c *gin.Context) {
	var req updateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), resourceID(c), domain.OrderStatus(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderToResponse(order))
}

func (h *Handler) deleteOrder(c *gin.Context) {
	if err := h.orders.Delete(c.Request.Context(), resourceID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
