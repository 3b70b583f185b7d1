package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// CartTTL is how long an untouched cart is kept before the store purges it.
const CartTTL = 30 * 24 * time.Hour

// CartItem is one line of a cart. Price is captured when the line is created
// and is not synced with later product price changes.
type CartItem struct {
	ID       bson.ObjectID `json:"id" bson:"_id"`
	Product  bson.ObjectID `json:"product" bson:"product"`
	Quantity int           `json:"quantity" bson:"quantity"`
	Price    float64       `json:"price" bson:"price"`
	AddedAt  time.Time     `json:"addedAt" bson:"added_at"`
}

// Cart is a user's pending selections. TotalAmount and TotalItems are
// projections of Items maintained by RecomputeTotals.
type Cart struct {
	ID          bson.ObjectID `json:"id" bson:"_id,omitempty"`
	User        bson.ObjectID `json:"user" bson:"user"`
	Items       []CartItem    `json:"items" bson:"items"`
	TotalAmount float64       `json:"totalAmount" bson:"total_amount"`
	TotalItems  int           `json:"totalItems" bson:"total_items"`
	LastUpdated time.Time     `json:"lastUpdated" bson:"last_updated"`
	CreatedAt   time.Time     `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" bson:"updated_at"`
}

func NewCart(user bson.ObjectID) *Cart {
	now := time.Now()
	return &Cart{
		ID:          bson.NewObjectID(),
		User:        user,
		Items:       []CartItem{},
		LastUpdated: now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// RecomputeTotals returns c with TotalAmount and TotalItems derived from its items.
func RecomputeTotals(c Cart) Cart {
	amount := decimal.Zero
	count := 0
	for _, item := range c.Items {
		amount = amount.Add(decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity))))
		count += item.Quantity
	}
	c.TotalAmount, _ = amount.Round(2).Float64()
	c.TotalItems = count
	return c
}

func (c *Cart) changed() {
	*c = RecomputeTotals(*c)
	now := time.Now()
	c.LastUpdated = now
	c.UpdatedAt = now
}

// AddItem merges quantity into the line for productID, or appends a new line
// at the given price.
func (c *Cart) AddItem(productID bson.ObjectID, quantity int, price float64) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if item := c.GetItemByProductID(productID); item != nil {
		item.Quantity += quantity
	} else {
		c.Items = append(c.Items, CartItem{
			ID:       bson.NewObjectID(),
			Product:  productID,
			Quantity: quantity,
			Price:    price,
			AddedAt:  time.Now(),
		})
	}
	c.changed()
	return nil
}

// UpdateItemQuantity overwrites the quantity of the line with itemID.
func (c *Cart) UpdateItemQuantity(itemID bson.ObjectID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	item := c.GetItem(itemID)
	if item == nil {
		return ErrCartItemNotFound
	}
	item.Quantity = quantity
	c.changed()
	return nil
}

// RemoveItem drops the line with itemID. Removing an absent line is a no-op.
func (c *Cart) RemoveItem(itemID bson.ObjectID) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
	c.changed()
}

func (c *Cart) Clear() {
	c.Items = []CartItem{}
	c.changed()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) HasProduct(productID bson.ObjectID) bool {
	return c.GetItemByProductID(productID) != nil
}

// GetItemByProductID returns the line holding productID, or nil.
func (c *Cart) GetItemByProductID(productID bson.ObjectID) *CartItem {
	for i := range c.Items {
		if c.Items[i].Product == productID {
			return &c.Items[i]
		}
	}
	return nil
}

func (c *Cart) GetItem(itemID bson.ObjectID) *CartItem {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// ProductIDs lists the referenced products in line order.
func (c *Cart) ProductIDs() []bson.ObjectID {
	ids := make([]bson.ObjectID, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.Product)
	}
	return ids
}

// ValidateStock checks every line against the live products and returns one
// message per problem. An empty result means the cart can be checked out.
func (c *Cart) ValidateStock(products map[bson.ObjectID]*Product) []string {
	var problems []string
	for _, item := range c.Items {
		product, ok := products[item.Product]
		if !ok || product == nil {
			problems = append(problems, fmt.Sprintf("Product %s not found", item.Product.Hex()))
			continue
		}
		if !product.IsAvailable {
			problems = append(problems, fmt.Sprintf("Product %q is not available", product.Name))
			continue
		}
		if product.Stock < item.Quantity {
			problems = append(problems, fmt.Sprintf("Insufficient stock for %q. Available: %d, Requested: %d",
				product.Name, product.Stock, item.Quantity))
		}
	}
	return problems
}

// MergeCarts moves every line of source into target, adding quantities for
// products target already holds. Only target is changed; the caller persists
// target and then empties source.
func MergeCarts(source, target *Cart) {
	for _, line := range source.Items {
		if existing := target.GetItemByProductID(line.Product); existing != nil {
			existing.Quantity += line.Quantity
			continue
		}
		target.Items = append(target.Items, CartItem{
			ID:       bson.NewObjectID(),
			Product:  line.Product,
			Quantity: line.Quantity,
			Price:    line.Price,
			AddedAt:  time.Now(),
		})
	}
	target.changed()
}

// CartSummary is the best-effort badge view of a cart.
type CartSummary struct {
	TotalItems  int     `json:"totalItems"`
	TotalAmount float64 `json:"totalAmount"`
	IsEmpty     bool    `json:"isEmpty"`
	ItemCount   int     `json:"itemCount"`
}

func EmptyCartSummary() CartSummary {
	return CartSummary{IsEmpty: true}
}

func (c *Cart) Summary() CartSummary {
	if c.IsEmpty() {
		return EmptyCartSummary()
	}
	return CartSummary{
		TotalItems:  c.TotalItems,
		TotalAmount: c.TotalAmount,
		IsEmpty:     false,
		ItemCount:   len(c.Items),
	}
}

// DetailedCartItem is a cart line with the referenced product assembled in.
// Product is nil when the product no longer exists or is unavailable.
type DetailedCartItem struct {
	CartItem
	Product *ProductSummary `json:"product"`
}

// CartDetails is the response shape of a cart with its products.
type CartDetails struct {
	ID          bson.ObjectID      `json:"id"`
	User        bson.ObjectID      `json:"user"`
	Items       []DetailedCartItem `json:"items"`
	TotalAmount float64            `json:"totalAmount"`
	TotalItems  int                `json:"totalItems"`
	LastUpdated time.Time          `json:"lastUpdated"`
}

// Details assembles c with the given products, keeping only available ones.
func (c *Cart) Details(products map[bson.ObjectID]*Product) *CartDetails {
	details := &CartDetails{
		ID:          c.ID,
		User:        c.User,
		Items:       make([]DetailedCartItem, 0, len(c.Items)),
		TotalAmount: c.TotalAmount,
		TotalItems:  c.TotalItems,
		LastUpdated: c.LastUpdated,
	}
	for _, item := range c.Items {
		line := DetailedCartItem{CartItem: item}
		if p, ok := products[item.Product]; ok && p != nil && p.IsAvailable {
			line.Product = p.Summary()
		}
		details.Items = append(details.Items, line)
	}
	return details
}

type AddToCartRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity,omitempty"`
}

// Amount is the requested quantity; only an omitted quantity defaults to 1.
func (r *AddToCartRequest) Amount() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
