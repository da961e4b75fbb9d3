package cart

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/go-cart-service/internal/entity"
	"github.com/egannguyen/go-cart-service/internal/notify"
)

type recordingNotifier struct {
	outcomes []notify.Outcome
}

func (r *recordingNotifier) Notify(o notify.Outcome) {
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingNotifier) lastCode() string {
	if len(r.outcomes) == 0 {
		return ""
	}
	return r.outcomes[len(r.outcomes)-1].Code
}

func headphones() entity.Product {
	return entity.Product{
		ID:                 "prod-001",
		Title:              "Wireless Noise-Cancelling Headphones",
		Price:              100,
		DiscountPercentage: 10,
		Stock:              5,
		Category:           "Electronics",
	}
}

func keyboard() entity.Product {
	return entity.Product{
		ID:                 "prod-002",
		Title:              "Mechanical Keyboard RGB",
		Price:              179.99,
		DiscountPercentage: 8,
		Stock:              120,
		Category:           "Electronics",
	}
}

func TestAddItem(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewStore(notifier)

	require.NoError(t, s.AddItem(headphones(), 2))
	assert.Equal(t, 2, s.ItemQuantity("prod-001"))
	assert.Equal(t, "item_added", notifier.lastCode())

	// Adding the same product merges into the existing line item.
	require.NoError(t, s.AddItem(headphones(), 1))
	assert.Equal(t, 3, s.ItemQuantity("prod-001"))
	assert.Len(t, s.Items(), 1)
	assert.Equal(t, "quantity_updated", notifier.lastCode())
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	s := NewStore(nil)
	err := s.AddItem(headphones(), 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	assert.Empty(t, s.Items())
}

func TestAddItemStockExceededLeavesStateUnchanged(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewStore(notifier)
	require.NoError(t, s.AddItem(headphones(), 4))

	before := s.Items()

	err := s.AddItem(headphones(), 2) // 4 + 2 > stock of 5
	assert.ErrorIs(t, err, ErrStockExceeded)
	assert.Equal(t, before, s.Items())
	assert.Equal(t, "stock_exceeded", notifier.lastCode())

	// A fresh insert beyond stock fails the same way.
	err = s.AddItem(keyboard(), 121)
	assert.ErrorIs(t, err, ErrStockExceeded)
	assert.False(t, s.Contains("prod-002"))
}

func TestRemoveItem(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 1))

	s.RemoveItem("prod-001")
	assert.False(t, s.Contains("prod-001"))

	// Removing an absent product is a benign no-op.
	s.RemoveItem("prod-001")
	s.RemoveItem("never-added")
	assert.Empty(t, s.Items())
}

func TestSetQuantity(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 2))
	added, ok := s.Item("prod-001")
	require.True(t, ok)

	require.NoError(t, s.SetQuantity("prod-001", 5))
	item, ok := s.Item("prod-001")
	require.True(t, ok)
	assert.Equal(t, 5, item.Quantity)
	// Replacing the quantity keeps the original add time.
	assert.Equal(t, added.AddedAt, item.AddedAt)
}

func TestSetQuantityZeroRemoves(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 2))

	require.NoError(t, s.SetQuantity("prod-001", 0))
	assert.False(t, s.Contains("prod-001"))

	require.NoError(t, s.AddItem(headphones(), 2))
	require.NoError(t, s.SetQuantity("prod-001", -3))
	assert.False(t, s.Contains("prod-001"))
}

func TestSetQuantityStockExceeded(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 2))

	err := s.SetQuantity("prod-001", 6) // stock is 5
	assert.ErrorIs(t, err, ErrStockExceeded)
	assert.Equal(t, 2, s.ItemQuantity("prod-001"))
}

// SetQuantity on a product that is not in the cart is strict and returns
// ErrNotFound; Increment, Decrement, and RemoveItem stay benign no-ops.
func TestSetQuantityAbsentIsStrict(t *testing.T) {
	s := NewStore(nil)

	err := s.SetQuantity("prod-001", 3)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, s.Increment("prod-001"))
	assert.NoError(t, s.Decrement("prod-001"))
	assert.Empty(t, s.Items())
}

func TestIncrementDecrement(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 1))

	require.NoError(t, s.Increment("prod-001"))
	assert.Equal(t, 2, s.ItemQuantity("prod-001"))

	require.NoError(t, s.Decrement("prod-001"))
	assert.Equal(t, 1, s.ItemQuantity("prod-001"))

	// Decrementing to zero removes the line item.
	require.NoError(t, s.Decrement("prod-001"))
	assert.False(t, s.Contains("prod-001"))
}

func TestIncrementStockBound(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 5))

	err := s.Increment("prod-001")
	assert.ErrorIs(t, err, ErrStockExceeded)
	assert.Equal(t, 5, s.ItemQuantity("prod-001"))
}

func TestClear(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 2))
	require.NoError(t, s.AddItem(keyboard(), 1))
	s.ToggleFavorite(headphones())

	s.Clear()
	assert.Empty(t, s.Items())
	// Favorites survive a cart clear.
	assert.True(t, s.IsFavorite("prod-001"))
}

func TestToggleFavorite(t *testing.T) {
	notifier := &recordingNotifier{}
	s := NewStore(notifier)

	s.ToggleFavorite(headphones())
	assert.True(t, s.IsFavorite("prod-001"))
	assert.Equal(t, "favorite_added", notifier.lastCode())

	s.ToggleFavorite(headphones())
	assert.False(t, s.IsFavorite("prod-001"))
	assert.Equal(t, "favorite_removed", notifier.lastCode())

	// An even number of toggles restores the original membership.
	for i := 0; i < 4; i++ {
		s.ToggleFavorite(keyboard())
	}
	assert.False(t, s.IsFavorite("prod-002"))
	assert.Empty(t, s.Favorites())
}

func TestSummaryWorkedScenario(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 2)) // price=100, discount=10%, stock=5

	summary := s.Summary()
	assert.Equal(t, 2, summary.TotalItems)
	assert.InDelta(t, 200.00, summary.OriginalPrice, 1e-9)
	assert.InDelta(t, 180.00, summary.DiscountedPrice, 1e-9)
	assert.InDelta(t, 20.00, summary.Savings, 1e-9)
	assert.InDelta(t, 0.10, summary.DiscountRate, 1e-9)

	err := s.SetQuantity("prod-001", 6)
	assert.ErrorIs(t, err, ErrStockExceeded)
	assert.Equal(t, 2, s.ItemQuantity("prod-001"))
}

func TestSummaryEmptyCart(t *testing.T) {
	s := NewStore(nil)
	summary := s.Summary()
	assert.Zero(t, summary.TotalItems)
	assert.Zero(t, summary.OriginalPrice)
	assert.Zero(t, summary.DiscountRate)
}

func TestSortedItems(t *testing.T) {
	s := NewStore(nil)
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.AddItem(keyboard(), 1)) // price 179.99
	now = now.Add(time.Minute)
	require.NoError(t, s.AddItem(headphones(), 1)) // price 100
	now = now.Add(time.Minute)
	monitor := entity.Product{ID: "prod-003", Title: "Ultrawide Curved Monitor", Price: 699.99, Stock: 30}
	require.NoError(t, s.AddItem(monitor, 1))

	byName := s.SortedItems(SortByName)
	assert.Equal(t, []string{"prod-002", "prod-003", "prod-001"}, ids(byName))

	byPrice := s.SortedItems(SortByPrice)
	assert.Equal(t, []string{"prod-003", "prod-002", "prod-001"}, ids(byPrice))

	byDate := s.SortedItems(SortByDate)
	assert.Equal(t, []string{"prod-003", "prod-001", "prod-002"}, ids(byDate))

	// The stored order is untouched by sorted views.
	assert.Equal(t, []string{"prod-002", "prod-001", "prod-003"}, ids(s.Items()))
}

func ids(items []entity.CartItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Product.ID)
	}
	return out
}

func TestSnapshotIsIndependent(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 2))

	snapshot := s.Snapshot()
	require.NoError(t, s.SetQuantity("prod-001", 5))
	s.ToggleFavorite(keyboard())

	require.Len(t, snapshot, 1)
	assert.Equal(t, 2, snapshot[0].Quantity)
}

func TestTakeAll(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 2))
	require.NoError(t, s.AddItem(keyboard(), 1))

	taken := s.TakeAll()
	require.Len(t, taken, 2)
	assert.Empty(t, s.Items())

	// The taken items are an independent copy.
	require.NoError(t, s.AddItem(headphones(), 5))
	assert.Equal(t, 2, taken[0].Quantity)

	// Taking from an empty store yields nothing and changes nothing.
	s.Clear()
	assert.Nil(t, s.TakeAll())
}

func TestRestore(t *testing.T) {
	s := NewStore(nil)
	require.NoError(t, s.AddItem(headphones(), 2))
	s.ToggleFavorite(keyboard())

	restored := NewStore(nil)
	restored.Restore(s.ID(), s.Snapshot(), s.Favorites())

	assert.Equal(t, s.ID(), restored.ID())
	assert.Equal(t, s.Items(), restored.Items())
	assert.Equal(t, s.Favorites(), restored.Favorites())
	assert.Equal(t, s.Summary(), restored.Summary())
}
