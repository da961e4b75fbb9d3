package entity

import (
	"time"
)

// Product represents a catalog product. Products are immutable from the
// cart's point of view: the store keeps the snapshot taken at add-time.
type Product struct {
	ID                 string  `json:"id"`
	Title              string  `json:"title"`
	Description        string  `json:"description"`
	Price              float64 `json:"price"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Rating             float64 `json:"rating"`
	Stock              int     `json:"stock"`
	Brand              string  `json:"brand"`
	Category           string  `json:"category"`
	Thumbnail          string  `json:"thumbnail"`
}

// DiscountedPrice is the unit price after applying the discount percentage.
func (p Product) DiscountedPrice() float64 {
	return p.Price * (1 - p.DiscountPercentage/100)
}

// CartItem is one product-quantity pairing in the cart.
type CartItem struct {
	Product  Product   `json:"product"`
	Quantity int       `json:"quantity"`
	AddedAt  time.Time `json:"added_at"`
}

// OrderItem is a line item frozen into an order at placement time.
type OrderItem struct {
	ProductID string  `json:"product_id"`
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	Discount  float64 `json:"discount_percentage"`
	Quantity  int     `json:"quantity"`
}

// Order represents a placed order. Orders are created exactly once at
// checkout and never mutated afterward; the history is append-only.
type Order struct {
	ID            string      `json:"id"`
	Items         []OrderItem `json:"items"`
	Total         float64     `json:"total"`
	OriginalTotal float64     `json:"original_total"`
	Savings       float64     `json:"savings"`
	Status        string      `json:"status"` // "placed"
	CreatedAt     time.Time   `json:"created_at"`
}

// State is the full serializable snapshot of the core: cart, favorites,
// and order history. The snapshot store persists it across restarts.
type State struct {
	CartID    string     `json:"cart_id"`
	Items     []CartItem `json:"items"`
	Favorites []Product  `json:"favorites"`
	Orders    []Order    `json:"orders"`
}

// --- Events ---

// Event represents a domain event.
type Event interface {
	EventType() string
}

// OrderPlaced is emitted when an order is successfully placed.
type OrderPlaced struct {
	OrderID    string      `json:"order_id"`
	CartID     string      `json:"cart_id"`
	Items      []OrderItem `json:"items"`
	TotalPrice float64     `json:"total_price"`
	PlacedAt   time.Time   `json:"placed_at"`
}

func (e OrderPlaced) EventType() string { return "OrderPlaced" }
