package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/models"
)

func (h *Handler) GetCart(c *gin.Context) {
	details, err := h.Cart.GetCart(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("cart", details))
}

// GetCartSummary always answers 200; a broken cart reads as empty.
func (h *Handler) GetCartSummary(c *gin.Context) {
	summary := h.Cart.GetCartSummary(c.Request.Context(), currentUser(c).ID)
	c.JSON(http.StatusOK, global.SuccessResponse("summary", summary))
}

func (h *Handler) ValidateCart(c *gin.Context) {
	validation := h.Cart.ValidateCartForCheckout(c.Request.Context(), currentUser(c).ID)
	c.JSON(http.StatusOK, global.SuccessResponse("validation", validation))
}

// parseAdd binds an add request and resolves its product id.
func parseAdd(c *gin.Context) (bson.ObjectID, int, bool) {
	var req models.AddToCartRequest
	if !bind(c, &req) {
		return bson.ObjectID{}, 0, false
	}
	productID, err := bson.ObjectIDFromHex(req.ProductID)
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid product id", []global.ValidationError{
			{Field: "productId", Message: "must be a 24 character hex id", Code: "invalid_format"},
		}))
		return bson.ObjectID{}, 0, false
	}
	return productID, req.Amount(), true
}

func (h *Handler) AddToCart(c *gin.Context) {
	productID, quantity, ok := parseAdd(c)
	if !ok {
		return
	}
	details, err := h.Cart.AddToCart(c.Request.Context(), currentUser(c).ID, productID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("cart", details))
}

func (h *Handler) UpdateCartItem(c *gin.Context) {
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	var req models.UpdateCartItemRequest
	if !bind(c, &req) {
		return
	}
	details, err := h.Cart.UpdateCartItem(c.Request.Context(), currentUser(c).ID, itemID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("cart", details))
}

func (h *Handler) RemoveFromCart(c *gin.Context) {
	itemID, ok := paramID(c, "itemId")
	if !ok {
		return
	}
	details, err := h.Cart.RemoveFromCart(c.Request.Context(), currentUser(c).ID, itemID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("cart", details))
}

func (h *Handler) ClearCart(c *gin.Context) {
	details, err := h.Cart.ClearCart(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessFields(map[string]interface{}{
		"message": "Cart cleared successfully",
		"cart":    details,
	}))
}

func (h *Handler) CreateGuestCart(c *gin.Context) {
	guest, err := h.Cart.CreateGuestCart(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, global.SuccessResponse("cart", guest))
}

func (h *Handler) GetGuestCart(c *gin.Context) {
	guest, err := h.Cart.GetGuestCart(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("cart", guest))
}

func (h *Handler) AddToGuestCart(c *gin.Context) {
	productID, quantity, ok := parseAdd(c)
	if !ok {
		return
	}
	guest, err := h.Cart.AddToGuestCart(c.Request.Context(), c.Param("id"), productID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessResponse("cart", guest))
}
