package models

import "errors"

var (
	// ErrNotFound is returned by stores when no document matches.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned by stores when a unique constraint is violated.
	ErrDuplicate = errors.New("duplicate")

	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrCartItemNotFound = errors.New("item not found in cart")

	// ErrInsufficientStock is returned when a conditional stock decrement finds too few units.
	ErrInsufficientStock = errors.New("insufficient stock")
)
