package orders

import (
	"errors"

	"rootstofarm.com/market/go-api/pkg/models"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrAccessDenied      = errors.New("not authorized to access this order")
	ErrNotCancellable    = errors.New("order cannot be cancelled")
	ErrOrderCancelled    = errors.New("order has been cancelled")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrCartInvalid       = errors.New("cart cannot be checked out")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInsufficientStock = models.ErrInsufficientStock
)

// CheckoutError carries the reasons a cart failed checkout validation.
type CheckoutError struct {
	Reason string
}

func (e *CheckoutError) Error() string { return e.Reason }

func (e *CheckoutError) Unwrap() error { return ErrCartInvalid }
