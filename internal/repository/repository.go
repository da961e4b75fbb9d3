package repository

import (
	"context"
	"errors"

	"github.com/egannguyen/go-cart-service/internal/entity"
)

// ErrProductNotFound is returned when a catalog lookup misses.
var ErrProductNotFound = errors.New("product not found")

// ProductRepository handles persistence for the product catalog.
type ProductRepository interface {
	FindAll(ctx context.Context) ([]entity.Product, error)
	FindByID(ctx context.Context, id string) (entity.Product, error)
	FindByCategory(ctx context.Context, category string) ([]entity.Product, error)
	Search(ctx context.Context, query string) ([]entity.Product, error)
	Categories(ctx context.Context) ([]string, error)
	// Seed inserts initial products if none exist.
	Seed(ctx context.Context, products []entity.Product) error
}

// OrderRepository persists the order read model.
type OrderRepository interface {
	SaveProjection(ctx context.Context, order entity.Order) error
	FindRecent(ctx context.Context, limit int) ([]entity.Order, error)
}

// StateStore persists and restores the full core state (cart, favorites,
// order history) across restarts.
type StateStore interface {
	Save(ctx context.Context, state entity.State) error
	// Load returns the persisted state, or ok=false when none exists.
	Load(ctx context.Context) (state entity.State, ok bool, err error)
}
