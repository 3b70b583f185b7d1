// Package memstore holds in-process implementations of the repositories.
// They back the service and router tests and `serve --memory`.
package memstore

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"

	"rootstofarm.com/market/go-api/pkg/models"
)

var (
	ErrNotFound  = models.ErrNotFound
	ErrDuplicate = models.ErrDuplicate
)

// Store groups every collection behind one lock.
type Store struct {
	mu       sync.Mutex
	products map[bson.ObjectID]*models.Product
	carts    map[bson.ObjectID]*models.Cart // by user
	orders   map[bson.ObjectID]*models.Order
	users    map[bson.ObjectID]*models.User
	farmers  map[bson.ObjectID]*models.Farmer // by user
	guests   map[string]*models.Cart
}

func New() *Store {
	return &Store{
		products: make(map[bson.ObjectID]*models.Product),
		carts:    make(map[bson.ObjectID]*models.Cart),
		orders:   make(map[bson.ObjectID]*models.Order),
		users:    make(map[bson.ObjectID]*models.User),
		farmers:  make(map[bson.ObjectID]*models.Farmer),
		guests:   make(map[string]*models.Cart),
	}
}

func (s *Store) Products() *Products     { return &Products{s} }
func (s *Store) Carts() *Carts           { return &Carts{s} }
func (s *Store) Orders() *Orders         { return &Orders{s} }
func (s *Store) Users() *Users           { return &Users{s} }
func (s *Store) Farmers() *Farmers       { return &Farmers{s} }
func (s *Store) GuestCarts() *GuestCarts { return &GuestCarts{s} }

func (s *Store) Ping(context.Context) error { return nil }

func copyProduct(p *models.Product) *models.Product {
	c := *p
	c.Images = append([]string(nil), p.Images...)
	c.Tags = append([]string(nil), p.Tags...)
	c.Reviews = append([]models.Review(nil), p.Reviews...)
	return &c
}

func copyCart(cart *models.Cart) *models.Cart {
	c := *cart
	c.Items = append([]models.CartItem{}, cart.Items...)
	return &c
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.Address != nil {
		addr := *u.Address
		c.Address = &addr
	}
	return &c
}

func copyFarmer(f *models.Farmer) *models.Farmer {
	c := *f
	c.FarmingMethods = append([]string(nil), f.FarmingMethods...)
	c.Certifications = append([]string(nil), f.Certifications...)
	return &c
}

// Products mirrors the Mongo product repository.
type Products struct{ s *Store }

func (r *Products) FindByID(_ context.Context, id bson.ObjectID) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "find product")
	}
	return copyProduct(p), nil
}

func (r *Products) FindByIDs(_ context.Context, ids []bson.ObjectID) (map[bson.ObjectID]*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := make(map[bson.ObjectID]*models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.s.products[id]; ok {
			found[id] = copyProduct(p)
		}
	}
	return found, nil
}

func matches(p *models.Product, f models.ProductFilter) bool {
	if !p.IsAvailable {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Farmer != nil && p.Farmer != *f.Farmer {
		return false
	}
	if f.MinPrice != nil && p.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && p.Price > *f.MaxPrice {
		return false
	}
	if f.IsOrganic != nil && p.IsOrganic != *f.IsOrganic {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		haystack := strings.ToLower(p.Name + " " + p.Description + " " + strings.Join(p.Tags, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

func less(a, b *models.Product, field string) bool {
	switch field {
	case "price":
		return a.Price < b.Price
	case "rating":
		return a.Rating < b.Rating
	case "name":
		return a.Name < b.Name
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func (r *Products) List(_ context.Context, f models.ProductFilter) (*models.ProductPage, error) {
	f.Normalize()
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var hits []*models.Product
	for _, p := range r.s.products {
		if matches(p, f) {
			hits = append(hits, copyProduct(p))
		}
	}
	field, dir := f.SortSpec()
	sort.Slice(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if dir < 0 {
			a, b = b, a
		}
		if less(a, b, field) || less(b, a, field) {
			return less(a, b, field)
		}
		return hits[i].ID.Hex() < hits[j].ID.Hex()
	})

	total := len(hits)
	start := (f.Page - 1) * f.Limit
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}

	return &models.ProductPage{
		Products:    append([]*models.Product{}, hits[start:end]...),
		TotalPages:  int(math.Ceil(float64(total) / float64(f.Limit))),
		CurrentPage: f.Page,
		Total:       int64(total),
	}, nil
}

func (r *Products) ListByFarmer(_ context.Context, farmer bson.ObjectID, onlyAvailable bool) ([]*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	products := []*models.Product{}
	for _, p := range r.s.products {
		if p.Farmer == farmer && (!onlyAvailable || p.IsAvailable) {
			products = append(products, copyProduct(p))
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].CreatedAt.After(products[j].CreatedAt) })
	return products, nil
}

func (r *Products) Create(_ context.Context, p *models.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = bson.NewObjectID()
	}
	if _, ok := r.s.products[p.ID]; ok {
		return errors.Wrap(ErrDuplicate, "insert product")
	}
	p.SetTimestamps()
	r.s.products[p.ID] = copyProduct(p)
	return nil
}

// Put stores p as-is, for seeding.
func (r *Products) Put(p *models.Product) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.products[p.ID] = copyProduct(p)
}

func (r *Products) Update(_ context.Context, id bson.ObjectID, fields bson.M) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "update product")
	}
	raw, err := bson.Marshal(p)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	for k, v := range fields {
		doc[k] = v
	}
	doc["updated_at"] = time.Now()
	raw, err = bson.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var updated models.Product
	if err := bson.Unmarshal(raw, &updated); err != nil {
		return nil, err
	}
	r.s.products[id] = &updated
	return copyProduct(&updated), nil
}

func (r *Products) Delete(_ context.Context, id bson.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[id]; !ok {
		return errors.Wrap(ErrNotFound, "delete product")
	}
	delete(r.s.products, id)
	return nil
}

func (r *Products) AddReview(_ context.Context, id bson.ObjectID, review models.Review) (*models.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "find product")
	}
	if p.HasReviewFrom(review.User) {
		return nil, errors.Wrap(ErrDuplicate, "product already reviewed")
	}
	p.AddReview(review)
	p.UpdatedAt = time.Now()
	return copyProduct(p), nil
}

func (r *Products) DecrementStock(_ context.Context, id bson.ObjectID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok || p.Stock < qty {
		return errors.Wrapf(models.ErrInsufficientStock, "product %s", id.Hex())
	}
	p.Stock -= qty
	p.UpdatedAt = time.Now()
	return nil
}

func (r *Products) IncrementStock(_ context.Context, id bson.ObjectID, qty int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[id]
	if !ok {
		return errors.Wrapf(ErrNotFound, "product %s", id.Hex())
	}
	p.Stock += qty
	p.UpdatedAt = time.Now()
	return nil
}

func (r *Products) FarmerProductCounts(_ context.Context, farmer bson.ObjectID, lowStock int) (*models.ProductCounts, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := &models.ProductCounts{}
	for _, p := range r.s.products {
		if p.Farmer != farmer {
			continue
		}
		counts.Total++
		if p.IsAvailable {
			counts.Available++
		}
		if p.Stock < lowStock {
			counts.LowStock++
		}
	}
	return counts, nil
}

// Carts mirrors the Mongo cart repository.
type Carts struct{ s *Store }

func (r *Carts) FindByUser(_ context.Context, user bson.ObjectID) (*models.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[user]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "find cart")
	}
	return copyCart(c), nil
}

func (r *Carts) FindOrCreate(_ context.Context, user bson.ObjectID) (*models.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.carts[user]
	if !ok {
		c = models.NewCart(user)
		r.s.carts[user] = c
	}
	return copyCart(c), nil
}

func (r *Carts) Save(_ context.Context, c *models.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID.IsZero() {
		return errors.New("save cart: missing id")
	}
	r.s.carts[c.User] = copyCart(c)
	return nil
}

// Orders mirrors the Mongo order repository.
type Orders struct{ s *Store }

func (r *Orders) Create(_ context.Context, o *models.Order) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if o.ID.IsZero() {
		o.ID = bson.NewObjectID()
	}
	o.SetTimestamps()
	r.s.orders[o.ID] = copyOrder(o)
	return nil
}

func (r *Orders) FindByID(_ context.Context, id bson.ObjectID) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "find order")
	}
	return copyOrder(o), nil
}

func (r *Orders) newestFirst(keep func(*models.Order) bool) []*models.Order {
	orders := []*models.Order{}
	for _, o := range r.s.orders {
		if keep(o) {
			orders = append(orders, copyOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID.Hex() > orders[j].ID.Hex()
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (r *Orders) ListByUser(_ context.Context, user bson.ObjectID) ([]*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.newestFirst(func(o *models.Order) bool { return o.User == user }), nil
}

func (r *Orders) RecentForFarmer(_ context.Context, farmer bson.ObjectID, statuses []string, limit int) ([]*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	wanted := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	orders := r.newestFirst(func(o *models.Order) bool { return wanted[o.OrderStatus] && o.HasFarmer(farmer) })
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

func (r *Orders) FarmerRevenue(_ context.Context, farmer bson.ObjectID) (float64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var revenue float64
	for _, o := range r.s.orders {
		if o.OrderStatus == models.OrderStatusCancelled {
			continue
		}
		for _, item := range o.ItemsForFarmer(farmer) {
			f, _ := item.Subtotal().Float64()
			revenue += f
		}
	}
	return math.Round(revenue*100) / 100, nil
}

func (r *Orders) mutate(id bson.ObjectID, msg string, fn func(*models.Order) bool) (*models.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.orders[id]
	if !ok || !fn(o) {
		return nil, errors.Wrap(ErrNotFound, msg)
	}
	o.UpdatedAt = time.Now()
	return copyOrder(o), nil
}

func (r *Orders) UpdateStatus(_ context.Context, id bson.ObjectID, status string) (*models.Order, error) {
	return r.mutate(id, "update order status", func(o *models.Order) bool {
		if o.IsCancelled() {
			return false
		}
		o.OrderStatus = status
		return true
	})
}

func (r *Orders) MarkCancelled(_ context.Context, id bson.ObjectID) (*models.Order, error) {
	return r.mutate(id, "cancel order", func(o *models.Order) bool {
		if !o.CanBeCancelled() {
			return false
		}
		o.OrderStatus = models.OrderStatusCancelled
		return true
	})
}

func (r *Orders) UpdatePayment(_ context.Context, id bson.ObjectID, paymentStatus, orderStatus string) (*models.Order, error) {
	return r.mutate(id, "update payment", func(o *models.Order) bool {
		if o.IsCancelled() {
			return false
		}
		o.PaymentStatus = paymentStatus
		if orderStatus != "" {
			o.OrderStatus = orderStatus
		}
		return true
	})
}

func (r *Orders) SetPaymentIntent(_ context.Context, id bson.ObjectID, intentID string) error {
	_, err := r.mutate(id, "set payment intent", func(o *models.Order) bool {
		o.PaymentIntentID = intentID
		return true
	})
	return err
}

// Users mirrors the Mongo user repository.
type Users struct{ s *Store }

func (r *Users) Create(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u.Email = models.NormalizeEmail(u.Email)
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return errors.Wrap(ErrDuplicate, "insert user")
		}
	}
	if u.ID.IsZero() {
		u.ID = bson.NewObjectID()
	}
	u.SetTimestamps()
	r.s.users[u.ID] = copyUser(u)
	return nil
}

func (r *Users) FindByID(_ context.Context, id bson.ObjectID) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "find user")
	}
	return copyUser(u), nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = models.NormalizeEmail(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, errors.Wrap(ErrNotFound, "find user by email")
}

func (r *Users) UpdateProfile(_ context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.users[u.ID]
	if !ok {
		return errors.Wrap(ErrNotFound, "update user")
	}
	existing.Name = u.Name
	existing.Phone = u.Phone
	existing.Address = u.Address
	existing.UpdatedAt = time.Now()
	return nil
}

// Farmers mirrors the Mongo farmer repository.
type Farmers struct{ s *Store }

func (r *Farmers) Create(_ context.Context, f *models.Farmer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.farmers[f.User]; ok {
		return errors.Wrap(ErrDuplicate, "insert farmer")
	}
	if f.ID.IsZero() {
		f.ID = bson.NewObjectID()
	}
	f.SetTimestamps()
	r.s.farmers[f.User] = copyFarmer(f)
	return nil
}

func (r *Farmers) FindByID(_ context.Context, id bson.ObjectID) (*models.Farmer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, f := range r.s.farmers {
		if f.ID == id {
			return copyFarmer(f), nil
		}
	}
	return nil, errors.Wrap(ErrNotFound, "find farmer")
}

func (r *Farmers) FindByUser(_ context.Context, user bson.ObjectID) (*models.Farmer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.farmers[user]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "find farmer by user")
	}
	return copyFarmer(f), nil
}

func (r *Farmers) ListVerified(_ context.Context) ([]*models.Farmer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	farmers := []*models.Farmer{}
	for _, f := range r.s.farmers {
		if f.IsVerified {
			farmers = append(farmers, copyFarmer(f))
		}
	}
	sort.Slice(farmers, func(i, j int) bool {
		if farmers[i].Rating != farmers[j].Rating {
			return farmers[i].Rating > farmers[j].Rating
		}
		return farmers[i].FarmName < farmers[j].FarmName
	})
	return farmers, nil
}

func (r *Farmers) Update(_ context.Context, f *models.Farmer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.farmers[f.User]; !ok {
		return errors.Wrap(ErrNotFound, "update farmer")
	}
	f.UpdatedAt = time.Now()
	r.s.farmers[f.User] = copyFarmer(f)
	return nil
}

func (r *Farmers) IncrementSales(_ context.Context, user bson.ObjectID, amount float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.farmers[user]
	if !ok {
		return errors.Wrap(ErrNotFound, "increment sales")
	}
	f.TotalSales = math.Round((f.TotalSales+amount)*100) / 100
	f.UpdatedAt = time.Now()
	return nil
}

// GuestCarts mirrors the Redis guest cart store without expiry.
type GuestCarts struct{ s *Store }

func (r *GuestCarts) NewID() string {
	return uuid.NewString()
}

func (r *GuestCarts) Load(_ context.Context, id string) (*models.Cart, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.guests[id]
	if !ok {
		return &models.Cart{Items: []models.CartItem{}}, nil
	}
	return copyCart(c), nil
}

func (r *GuestCarts) Save(_ context.Context, id string, c *models.Cart) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.guests[id] = copyCart(c)
	return nil
}

func (r *GuestCarts) Clear(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.guests, id)
	return nil
}
