package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"rootstofarm.com/market/go-api/pkg/auth"
	"rootstofarm.com/market/go-api/pkg/cart"
	"rootstofarm.com/market/go-api/pkg/catalog"
	"rootstofarm.com/market/go-api/pkg/farmers"
	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/models"
	"rootstofarm.com/market/go-api/pkg/orders"
	"rootstofarm.com/market/go-api/pkg/payment"
	"rootstofarm.com/market/go-api/pkg/redis"
)

type errorMapping struct {
	target  error
	status  int
	message string
}

// An empty message means the error text itself is shown to the client.
var errorMappings = []errorMapping{
	{models.ErrInvalidQuantity, http.StatusBadRequest, "Quantity must be at least 1"},
	{cart.ErrProductUnavailable, http.StatusBadRequest, "Product is not available"},
	{cart.ErrCartEmpty, http.StatusBadRequest, "Cart is empty"},
	{orders.ErrCartEmpty, http.StatusBadRequest, "Cart is empty"},
	{orders.ErrCartInvalid, http.StatusBadRequest, ""},
	{orders.ErrNotCancellable, http.StatusBadRequest, "Order cannot be cancelled"},
	{orders.ErrInvalidStatus, http.StatusBadRequest, "Invalid order status"},
	{orders.ErrOrderCancelled, http.StatusBadRequest, "Order has been cancelled"},
	{payment.ErrOrderCancelled, http.StatusBadRequest, "Order has been cancelled"},
	{catalog.ErrAlreadyReviewed, http.StatusBadRequest, "Product already reviewed"},
	{catalog.ErrNoUpdates, http.StatusBadRequest, "No valid updates provided"},
	{farmers.ErrProfileExists, http.StatusBadRequest, "Farmer profile already exists"},
	{payment.ErrAlreadyPaid, http.StatusBadRequest, "Order has already been paid"},
	{payment.ErrInvalidSignature, http.StatusBadRequest, "Webhook signature verification failed"},
	{redis.ErrInvalidGuestCartID, http.StatusBadRequest, "Invalid guest cart id"},

	{auth.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{auth.ErrInvalidToken, http.StatusUnauthorized, "Token is not valid"},

	{orders.ErrAccessDenied, http.StatusForbidden, "Not authorized to access this order"},
	{catalog.ErrNotOwner, http.StatusForbidden, "Not authorized to modify this product"},

	{cart.ErrCartNotFound, http.StatusNotFound, "Cart not found"},
	{cart.ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{catalog.ErrProductNotFound, http.StatusNotFound, "Product not found"},
	{models.ErrCartItemNotFound, http.StatusNotFound, "Item not found in cart"},
	{orders.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{farmers.ErrFarmerNotFound, http.StatusNotFound, "Farmer not found"},
	{farmers.ErrProfileNotFound, http.StatusNotFound, "Farmer profile not found"},
	{auth.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{models.ErrNotFound, http.StatusNotFound, "Resource not found"},

	{auth.ErrEmailTaken, http.StatusConflict, "User already exists with this email"},
	{models.ErrDuplicate, http.StatusConflict, "Resource already exists"},

	{payment.ErrPaymentsDisabled, http.StatusServiceUnavailable, "Payments are not configured"},
}

// respondError writes the status and message for err. Unknown errors are
// logged and answered with a generic 500.
func respondError(c *gin.Context, err error) {
	var stockErr *cart.StockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusBadRequest, global.ErrorResponse(stockErr.Error(), nil))
		return
	}
	if errors.Is(err, models.ErrInsufficientStock) {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Insufficient stock", nil))
		return
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.message
		if message == "" {
			message = err.Error()
		}
		c.JSON(m.status, global.ErrorResponse(message, nil))
		return
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).Error("Unhandled error")
	c.JSON(http.StatusInternalServerError, global.ErrorResponse("Server error", nil))
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// respondBindError turns gin binding failures into field level validation errors.
func respondBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, global.ErrorResponse("Invalid JSON format", []global.ValidationError{
			{Field: "body", Message: err.Error(), Code: "json_parse_error"},
		}))
		return
	}

	fields := make([]global.ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		message := fmt.Sprintf("%s failed on the '%s' rule", lowerFirst(fe.Field()), fe.Tag())
		if fe.Param() != "" {
			message = fmt.Sprintf("%s failed on the '%s=%s' rule", lowerFirst(fe.Field()), fe.Tag(), fe.Param())
		}
		fields = append(fields, global.ValidationError{
			Field:   lowerFirst(fe.Field()),
			Message: message,
			Code:    fe.Tag(),
		})
	}
	c.JSON(http.StatusBadRequest, global.ErrorResponse("Validation failed", fields))
}
