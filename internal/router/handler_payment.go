package router

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/global"
)

// larger webhook payloads are cut off and then fail verification
const maxWebhookBody = 65536

type createIntentRequest struct {
	OrderID string `json:"orderId" binding:"required"`
}

func (h *Handler) CreatePaymentIntent(c *gin.Context) {
	var req createIntentRequest
	if !bind(c, &req) {
		return
	}
	orderID, err := bson.ObjectIDFromHex(req.OrderID)
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid order id", []global.ValidationError{
			{Field: "orderId", Message: "must be a 24 character hex id", Code: "invalid_format"},
		}))
		return
	}

	intent, err := h.Payment.CreatePaymentIntent(c.Request.Context(), currentUser(c), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, global.SuccessFields(map[string]interface{}{
		"clientSecret":    intent.ClientSecret,
		"paymentIntentId": intent.PaymentIntentID,
	}))
}

// PaymentWebhook needs the raw body for signature verification.
func (h *Handler) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Could not read webhook body", nil))
		return
	}
	if err := h.Payment.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
