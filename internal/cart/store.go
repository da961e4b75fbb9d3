// Package cart owns the in-memory shopping cart and favorites state.
// All mutation goes through Store methods; derived aggregates are
// recomputed from current state on every read, never cached.
package cart

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/egannguyen/go-cart-service/internal/entity"
	"github.com/egannguyen/go-cart-service/internal/notify"
)

var (
	// ErrStockExceeded is returned when an operation would push a line
	// item's quantity above the product's stock. State is left unchanged.
	ErrStockExceeded = errors.New("quantity exceeds available stock")

	// ErrNotFound is returned by SetQuantity when the referenced product
	// is not in the cart.
	ErrNotFound = errors.New("product not in cart")

	// ErrInvalidQuantity is returned when a non-positive quantity is
	// passed to AddItem.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Store is the authoritative cart and favorites state. Mutations are
// serialized behind a mutex, so each one observes the latest state.
type Store struct {
	mu        sync.Mutex
	id        string
	items     map[string]*entity.CartItem
	favorites map[string]entity.Product
	notifier  notify.Notifier
	now       func() time.Time
}

// NewStore creates an empty cart store with a fresh instance ID.
func NewStore(notifier notify.Notifier) *Store {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Store{
		id:        uuid.New().String(),
		items:     make(map[string]*entity.CartItem),
		favorites: make(map[string]entity.Product),
		notifier:  notifier,
		now:       time.Now,
	}
}

// ID returns the cart instance ID, used to correlate events and snapshots.
func (s *Store) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// AddItem puts quantity units of product into the cart, merging with an
// existing line item for the same product ID. The resulting quantity must
// not exceed the product's stock; otherwise the cart is left unchanged.
func (s *Store) AddItem(product entity.Product, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("add %q: %w", product.ID, ErrInvalidQuantity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if item, ok := s.items[product.ID]; ok {
		newQuantity := item.Quantity + quantity
		if newQuantity > product.Stock {
			s.notifier.Notify(notify.Outcome{
				Level:   notify.LevelWarning,
				Code:    "stock_exceeded",
				Message: fmt.Sprintf("Cannot add more than %d items", product.Stock),
				Args:    []slog.Attr{slog.String("product_id", product.ID), slog.Int("stock", product.Stock)},
			})
			return fmt.Errorf("add %q: %w", product.ID, ErrStockExceeded)
		}
		// Refresh the product snapshot so the stock bound reflects the
		// stock at the time of this update.
		item.Product = product
		item.Quantity = newQuantity
		s.notifier.Notify(notify.Outcome{
			Level:   notify.LevelSuccess,
			Code:    "quantity_updated",
			Message: fmt.Sprintf("Updated %s quantity", product.Title),
			Args:    []slog.Attr{slog.String("product_id", product.ID), slog.Int("quantity", newQuantity)},
		})
		return nil
	}

	if quantity > product.Stock {
		s.notifier.Notify(notify.Outcome{
			Level:   notify.LevelWarning,
			Code:    "stock_exceeded",
			Message: fmt.Sprintf("Cannot add more than %d items", product.Stock),
			Args:    []slog.Attr{slog.String("product_id", product.ID), slog.Int("stock", product.Stock)},
		})
		return fmt.Errorf("add %q: %w", product.ID, ErrStockExceeded)
	}

	s.items[product.ID] = &entity.CartItem{
		Product:  product,
		Quantity: quantity,
		AddedAt:  s.now(),
	}
	s.notifier.Notify(notify.Outcome{
		Level:   notify.LevelSuccess,
		Code:    "item_added",
		Message: fmt.Sprintf("%s added to cart", product.Title),
		Args:    []slog.Attr{slog.String("product_id", product.ID), slog.Int("quantity", quantity)},
	})
	return nil
}

// RemoveItem deletes the line item for productID. Removing an absent
// product is a benign no-op.
func (s *Store) RemoveItem(productID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[productID]; !ok {
		return
	}
	delete(s.items, productID)
	s.notifier.Notify(notify.Outcome{
		Level:   notify.LevelInfo,
		Code:    "item_removed",
		Message: "Item removed from cart",
		Args:    []slog.Attr{slog.String("product_id", productID)},
	})
}

// SetQuantity replaces the quantity of an existing line item. A quantity
// of zero or less removes the item. Exceeding the product's stock returns
// ErrStockExceeded and leaves the quantity unchanged; referencing a
// product that is not in the cart returns ErrNotFound.
func (s *Store) SetQuantity(productID string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[productID]
	if !ok {
		if quantity <= 0 {
			return nil
		}
		return fmt.Errorf("set quantity %q: %w", productID, ErrNotFound)
	}
	return s.setQuantityLocked(item, quantity)
}

// Increment raises an existing line item's quantity by one. A no-op if the
// product is not in the cart.
func (s *Store) Increment(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[productID]
	if !ok {
		return nil
	}
	return s.setQuantityLocked(item, item.Quantity+1)
}

// Decrement lowers an existing line item's quantity by one, removing the
// item at zero. A no-op if the product is not in the cart.
func (s *Store) Decrement(productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[productID]
	if !ok {
		return nil
	}
	return s.setQuantityLocked(item, item.Quantity-1)
}

// setQuantityLocked applies a quantity change to an existing item.
// Caller holds s.mu.
func (s *Store) setQuantityLocked(item *entity.CartItem, quantity int) error {
	productID := item.Product.ID

	if quantity <= 0 {
		delete(s.items, productID)
		s.notifier.Notify(notify.Outcome{
			Level:   notify.LevelInfo,
			Code:    "item_removed",
			Message: "Item removed from cart",
			Args:    []slog.Attr{slog.String("product_id", productID)},
		})
		return nil
	}
	if quantity > item.Product.Stock {
		s.notifier.Notify(notify.Outcome{
			Level:   notify.LevelWarning,
			Code:    "stock_exceeded",
			Message: fmt.Sprintf("Cannot exceed stock limit of %d", item.Product.Stock),
			Args:    []slog.Attr{slog.String("product_id", productID), slog.Int("stock", item.Product.Stock)},
		})
		return fmt.Errorf("set quantity %q: %w", productID, ErrStockExceeded)
	}
	item.Quantity = quantity
	s.notifier.Notify(notify.Outcome{
		Level:   notify.LevelSuccess,
		Code:    "quantity_updated",
		Message: fmt.Sprintf("Updated %s quantity", item.Product.Title),
		Args:    []slog.Attr{slog.String("product_id", productID), slog.Int("quantity", quantity)},
	})
	return nil
}

// Clear empties the cart unconditionally. Favorites are untouched.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*entity.CartItem)
	s.notifier.Notify(notify.Outcome{
		Level:   notify.LevelInfo,
		Code:    "cart_cleared",
		Message: "Cart cleared",
	})
}

// ToggleFavorite inserts the product into the favorite set if absent, or
// removes it if present. Toggling twice restores the original membership.
func (s *Store) ToggleFavorite(product entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.favorites[product.ID]; ok {
		delete(s.favorites, product.ID)
		s.notifier.Notify(notify.Outcome{
			Level:   notify.LevelInfo,
			Code:    "favorite_removed",
			Message: "Removed from favorites",
			Args:    []slog.Attr{slog.String("product_id", product.ID)},
		})
		return
	}
	s.favorites[product.ID] = product
	s.notifier.Notify(notify.Outcome{
		Level:   notify.LevelSuccess,
		Code:    "favorite_added",
		Message: "Added to favorites",
		Args:    []slog.Attr{slog.String("product_id", product.ID)},
	})
}

// IsFavorite reports whether productID is in the favorite set.
func (s *Store) IsFavorite(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.favorites[productID]
	return ok
}

// Favorites returns a copy of the favorite products, ordered by product ID
// for determinism (the set itself carries no ordering).
func (s *Store) Favorites() []entity.Product {
	s.mu.Lock()
	defer s.mu.Unlock()

	favorites := make([]entity.Product, 0, len(s.favorites))
	for _, p := range s.favorites {
		favorites = append(favorites, p)
	}
	sort.Slice(favorites, func(i, j int) bool { return favorites[i].ID < favorites[j].ID })
	return favorites
}

// Contains reports whether productID has a line item in the cart.
func (s *Store) Contains(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.items[productID]
	return ok
}

// Item returns the line item for productID, if present.
func (s *Store) Item(productID string) (entity.CartItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[productID]
	if !ok {
		return entity.CartItem{}, false
	}
	return *item, true
}

// ItemQuantity returns the quantity of productID in the cart, zero if
// absent.
func (s *Store) ItemQuantity(productID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[productID]
	if !ok {
		return 0
	}
	return item.Quantity
}

// Items returns a copy of the line items in add order (oldest first).
func (s *Store) Items() []entity.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemsLocked()
}

func (s *Store) itemsLocked() []entity.CartItem {
	items := make([]entity.CartItem, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, *item)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].AddedAt.Equal(items[j].AddedAt) {
			return items[i].AddedAt.Before(items[j].AddedAt)
		}
		return items[i].Product.ID < items[j].Product.ID
	})
	return items
}

// Snapshot returns a deep, independent copy of the current line items.
// Mutating the cart afterward does not affect the snapshot.
func (s *Store) Snapshot() []entity.CartItem {
	return s.Items()
}

// TakeAll atomically removes and returns every line item, oldest first.
// A concurrent mutation lands either wholly before the take, and is part
// of the returned items, or wholly after, and stays in the cart; nothing
// can fall between a separate read and clear. Returns nil when the cart
// is empty, leaving state untouched.
func (s *Store) TakeAll() []entity.CartItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.itemsLocked()
	if len(items) == 0 {
		return nil
	}
	s.items = make(map[string]*entity.CartItem)
	s.notifier.Notify(notify.Outcome{
		Level:   notify.LevelInfo,
		Code:    "cart_cleared",
		Message: "Cart cleared",
	})
	return items
}

// Restore replaces the store's full state. Used when deserializing a
// persisted snapshot; the stock-bound invariant is assumed to have held
// when the snapshot was taken.
func (s *Store) Restore(cartID string, items []entity.CartItem, favorites []entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cartID != "" {
		s.id = cartID
	}
	s.items = make(map[string]*entity.CartItem, len(items))
	for _, item := range items {
		item := item
		s.items[item.Product.ID] = &item
	}
	s.favorites = make(map[string]entity.Product, len(favorites))
	for _, p := range favorites {
		s.favorites[p.ID] = p
	}
}
