package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/models"
)

func (h *Handler) CreateOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if !bind(c, &req) {
		return
	}
	order, err := h.Orders.PlaceOrder(c.Request.Context(), currentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse("order", order))
}

func (h *Handler) GetMyOrders(c *gin.Context) {
	list, err := h.Orders.GetMyOrders(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("orders", list))
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.GetOrder(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("order", order))
}

func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateOrderStatusRequest
	if !bind(c, &req) {
		return
	}
	order, err := h.Orders.UpdateStatus(c.Request.Context(), currentUser(c), id, req.OrderStatus)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("order", order))
}

func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Cancel(c.Request.Context(), currentUser(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessFields(map[string]interface{}{
		"message": "Order cancelled successfully",
		"order":   order,
	}))
}
