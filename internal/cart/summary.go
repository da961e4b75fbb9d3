package cart

import (
	"sort"

	"github.com/egannguyen/go-cart-service/internal/entity"
)

// Summary holds the derived pricing aggregates of a cart. All values are
// computed from the line items at call time; rounding to two decimals is
// left to the presentation boundary so aggregate sums don't compound
// rounding error.
type Summary struct {
	TotalItems      int     `json:"total_items"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountedPrice float64 `json:"discounted_price"`
	Savings         float64 `json:"savings"`
	DiscountRate    float64 `json:"discount_rate"`
}

// Summarize computes the pricing aggregates for a set of line items.
func Summarize(items []entity.CartItem) Summary {
	var s Summary
	for _, item := range items {
		quantity := float64(item.Quantity)
		s.TotalItems += item.Quantity
		s.OriginalPrice += item.Product.Price * quantity
		s.DiscountedPrice += item.Product.DiscountedPrice() * quantity
	}
	s.Savings = s.OriginalPrice - s.DiscountedPrice
	if s.OriginalPrice > 0 {
		s.DiscountRate = s.Savings / s.OriginalPrice
	}
	return s
}

// Summary recomputes the cart's derived aggregates from current state.
func (s *Store) Summary() Summary {
	return Summarize(s.Items())
}

// SortKey selects the ordering of SortedItems.
type SortKey string

const (
	SortByName  SortKey = "name"  // title ascending
	SortByPrice SortKey = "price" // unit price descending
	SortByDate  SortKey = "date"  // most recently added first
)

// SortedItems returns the line items ordered by the given key without
// mutating the stored order. Unknown keys fall back to add order.
func (s *Store) SortedItems(key SortKey) []entity.CartItem {
	items := s.Items()

	switch key {
	case SortByName:
		sort.Slice(items, func(i, j int) bool {
			return items[i].Product.Title < items[j].Product.Title
		})
	case SortByPrice:
		sort.Slice(items, func(i, j int) bool {
			return items[i].Product.Price > items[j].Product.Price
		})
	case SortByDate:
		sort.Slice(items, func(i, j int) bool {
			return items[i].AddedAt.After(items[j].AddedAt)
		})
	}
	return items
}
