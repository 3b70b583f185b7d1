package cart

import (
	"errors"
	"fmt"

	"rootstofarm.com/market/go-api/pkg/models"
)

var (
	ErrCartNotFound       = errors.New("cart not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is not available")
	ErrCartEmpty          = errors.New("cart is empty")

	ErrInvalidQuantity   = models.ErrInvalidQuantity
	ErrItemNotFound      = models.ErrCartItemNotFound
	ErrInsufficientStock = models.ErrInsufficientStock
)

// StockError describes a quantity that exceeds the product's stock.
type StockError struct {
	Product   string
	Available int
	Requested int
	// Adding is set when Requested is an existing line plus Adding more units.
	Adding int
}

func (e *StockError) Error() string {
	if e.Adding > 0 {
		return fmt.Sprintf("Insufficient stock. Cannot add %d more. Total would be %d but only %d available",
			e.Adding, e.Requested, e.Available)
	}
	return fmt.Sprintf("Insufficient stock. Only %d available", e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
