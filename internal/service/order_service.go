package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/egannguyen/go-cart-service/internal/cart"
	"github.com/egannguyen/go-cart-service/internal/entity"
	"github.com/egannguyen/go-cart-service/internal/messaging"
	"github.com/egannguyen/go-cart-service/internal/notify"
	"github.com/egannguyen/go-cart-service/internal/repository"
)

// ErrEmptyCart is returned when checkout is attempted with no items in the
// cart. Cart and order history are left untouched.
var ErrEmptyCart = errors.New("cart is empty")

const orderStatusPlaced = "placed"

// OrderService converts cart snapshots into immutable orders and keeps the
// session's order history, newest first.
type OrderService struct {
	cart       *cart.Store
	notifier   notify.Notifier
	publisher  messaging.Publisher        // optional
	orderRepo  repository.OrderRepository // optional read-model projection
	stateStore repository.StateStore      // optional crash persistence

	mu        sync.Mutex
	orders    []entity.Order
	lastMilli int64
	seq       int
	now       func() time.Time
}

// NewOrderService creates an OrderService over the given cart store.
// publisher, orderRepo, and stateStore may be nil; projection, event
// publication, and state persistence are then skipped.
func NewOrderService(
	cartStore *cart.Store,
	notifier notify.Notifier,
	publisher messaging.Publisher,
	orderRepo repository.OrderRepository,
	stateStore repository.StateStore,
) *OrderService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &OrderService{
		cart:       cartStore,
		notifier:   notifier,
		publisher:  publisher,
		orderRepo:  orderRepo,
		stateStore: stateStore,
		now:        time.Now,
	}
}

// PlaceOrder converts the current cart contents into an Order, appends it
// to the history, and empties the cart. An empty cart fails with
// ErrEmptyCart and changes nothing. The cart items are taken atomically:
// a mutation racing the checkout ends up either inside the order or still
// in the cart, never dropped. Projection, event publication, and state
// persistence run after the order is committed and never roll it back.
func (s *OrderService) PlaceOrder(ctx context.Context) (entity.Order, error) {
	snapshot := s.cart.TakeAll()
	if len(snapshot) == 0 {
		s.notifier.Notify(notify.Outcome{
			Level:   notify.LevelWarning,
			Code:    "empty_cart",
			Message: "Cart is empty",
		})
		return entity.Order{}, ErrEmptyCart
	}

	summary := cart.Summarize(snapshot)

	items := make([]entity.OrderItem, 0, len(snapshot))
	for _, item := range snapshot {
		items = append(items, entity.OrderItem{
			ProductID: item.Product.ID,
			Title:     item.Product.Title,
			Price:     item.Product.Price,
			Discount:  item.Product.DiscountPercentage,
			Quantity:  item.Quantity,
		})
	}

	s.mu.Lock()
	createdAt := s.now()
	order := entity.Order{
		ID:            s.nextOrderID(createdAt),
		Items:         items,
		Total:         summary.DiscountedPrice,
		OriginalTotal: summary.OriginalPrice,
		Savings:       summary.Savings,
		Status:        orderStatusPlaced,
		CreatedAt:     createdAt,
	}
	s.orders = append([]entity.Order{order}, s.orders...)
	s.mu.Unlock()

	slog.Info("Service: Order placed", "order_id", order.ID, "total", order.Total, "items", len(order.Items))

	if s.orderRepo != nil {
		if err := s.orderRepo.SaveProjection(ctx, order); err != nil {
			slog.Error("Failed to update order projection", "order_id", order.ID, "err", err)
		}
	}

	if s.publisher != nil {
		event := entity.OrderPlaced{
			OrderID:    order.ID,
			CartID:     s.cart.ID(),
			Items:      order.Items,
			TotalPrice: order.Total,
			PlacedAt:   order.CreatedAt,
		}
		if err := s.publisher.PublishEvent(ctx, "orders.placed", order.ID, event); err != nil {
			slog.Error("Failed to publish OrderPlaced event", "order_id", order.ID, "err", err)
		}
	}

	if s.stateStore != nil {
		if err := s.stateStore.Save(ctx, s.State()); err != nil {
			slog.Error("Failed to persist state after order", "order_id", order.ID, "err", err)
		}
	}

	s.notifier.Notify(notify.Outcome{
		Level:   notify.LevelSuccess,
		Code:    "order_placed",
		Message: "Order placed successfully!",
		Args:    []slog.Attr{slog.String("order_id", order.ID)},
	})
	return order, nil
}

// nextOrderID generates a time-derived, monotonic order ID. The sequence
// counter keeps two orders within the same millisecond distinct.
// Caller holds s.mu.
func (s *OrderService) nextOrderID(t time.Time) string {
	milli := t.UnixMilli()
	if milli <= s.lastMilli {
		s.seq++
	} else {
		s.lastMilli = milli
		s.seq = 0
	}
	return fmt.Sprintf("ord-%d-%04d", s.lastMilli, s.seq)
}

// Orders returns a copy of the in-memory order history, newest first.
func (s *OrderService) Orders() []entity.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := make([]entity.Order, len(s.orders))
	copy(orders, s.orders)
	return orders
}

// RecentOrders returns the latest orders from the read-model projection
// when one is configured, falling back to the in-memory history.
func (s *OrderService) RecentOrders(ctx context.Context, limit int) ([]entity.Order, error) {
	if limit <= 0 {
		limit = 50
	}
	if s.orderRepo != nil {
		return s.orderRepo.FindRecent(ctx, limit)
	}
	orders := s.Orders()
	if len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// State captures the full core state for persistence: cart, favorites,
// and order history.
func (s *OrderService) State() entity.State {
	return entity.State{
		CartID:    s.cart.ID(),
		Items:     s.cart.Snapshot(),
		Favorites: s.cart.Favorites(),
		Orders:    s.Orders(),
	}
}

// RestoreState replaces the core state with a previously persisted
// snapshot.
func (s *OrderService) RestoreState(state entity.State) {
	s.cart.Restore(state.CartID, state.Items, state.Favorites)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make([]entity.Order, len(state.Orders))
	copy(s.orders, state.Orders)
}
