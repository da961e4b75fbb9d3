package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/egannguyen/go-cart-service/internal/entity"
	"github.com/egannguyen/go-cart-service/internal/repository"
)

const productColumns = "id, title, description, price, discount_percentage, rating, stock, brand, category, thumbnail"

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new ProductRepository backed by Postgres.
func NewProductRepository(db *sql.DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindAll(ctx context.Context) ([]entity.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products ORDER BY title")
}

func (r *productRepository) FindByID(ctx context.Context, id string) (entity.Product, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+productColumns+" FROM products WHERE id = $1", id)

	var p entity.Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.DiscountPercentage, &p.Rating, &p.Stock, &p.Brand, &p.Category, &p.Thumbnail)
	if err == sql.ErrNoRows {
		return entity.Product{}, repository.ErrProductNotFound
	}
	if err != nil {
		return entity.Product{}, fmt.Errorf("failed to scan product: %w", err)
	}
	return p, nil
}

func (r *productRepository) FindByCategory(ctx context.Context, category string) ([]entity.Product, error) {
	return r.query(ctx, "SELECT "+productColumns+" FROM products WHERE category = $1 ORDER BY title", category)
}

func (r *productRepository) Search(ctx context.Context, query string) ([]entity.Product, error) {
	pattern := "%" + query + "%"
	return r.query(ctx,
		"SELECT "+productColumns+" FROM products WHERE title ILIKE $1 OR description ILIKE $1 ORDER BY title",
		pattern,
	)
}

func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT DISTINCT category FROM products ORDER BY category")
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *productRepository) Seed(ctx context.Context, products []entity.Product) error {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&count)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil // already seeded
	}

	for _, p := range products {
		_, err := r.db.ExecContext(ctx,
			"INSERT INTO products ("+productColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)",
			p.ID, p.Title, p.Description, p.Price, p.DiscountPercentage, p.Rating, p.Stock, p.Brand, p.Category, p.Thumbnail,
		)
		if err != nil {
			return fmt.Errorf("failed to seed product %s: %w", p.ID, err)
		}
	}

	slog.Info("Seeded products", "count", len(products))
	return nil
}

func (r *productRepository) query(ctx context.Context, q string, args ...any) ([]entity.Product, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []entity.Product
	for rows.Next() {
		var p entity.Product
		if err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Price, &p.DiscountPercentage, &p.Rating, &p.Stock, &p.Brand, &p.Category, &p.Thumbnail); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// SeedData is the default catalog used when the products table is empty.
func SeedData() []entity.Product {
	return []entity.Product{
		{ID: "prod-001", Title: "Wireless Noise-Cancelling Headphones", Description: "Premium over-ear headphones with active noise cancellation and 30-hour battery life.", Price: 349.99, DiscountPercentage: 12.5, Rating: 4.7, Stock: 50, Brand: "Aurora", Category: "Electronics", Thumbnail: "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=400"},
		{ID: "prod-002", Title: "Mechanical Keyboard RGB", Description: "Cherry MX switches with per-key RGB lighting and aluminum frame.", Price: 179.99, DiscountPercentage: 8, Rating: 4.5, Stock: 120, Brand: "KeyForge", Category: "Electronics", Thumbnail: "https://images.unsplash.com/photo-1618384887929-16ec33fab9ef?w=400"},
		{ID: "prod-003", Title: "Ultrawide Curved Monitor 34\"", Description: "UWQHD 3440x1440 144Hz IPS panel with USB-C connectivity.", Price: 699.99, DiscountPercentage: 15, Rating: 4.8, Stock: 30, Brand: "VistaLine", Category: "Electronics", Thumbnail: "https://images.unsplash.com/photo-1527443224154-c4a3942d3acf?w=400"},
		{ID: "prod-004", Title: "Ergonomic Office Chair", Description: "Adjustable lumbar support, breathable mesh, and 4D armrests.", Price: 549.99, DiscountPercentage: 20, Rating: 4.6, Stock: 25, Brand: "SitWell", Category: "Furniture", Thumbnail: "https://images.unsplash.com/photo-1592078615290-033ee584e267?w=400"},
		{ID: "prod-005", Title: "Smart LED Desk Lamp", Description: "Adjustable color temperature, brightness levels, and USB charging port.", Price: 89.99, DiscountPercentage: 5, Rating: 4.3, Stock: 200, Brand: "Lumio", Category: "Home", Thumbnail: "https://images.unsplash.com/photo-1507473885765-e6ed057ab6fe?w=400"},
		{ID: "prod-006", Title: "Premium Laptop Backpack", Description: "Water-resistant 17\" laptop compartment with anti-theft design.", Price: 129.99, DiscountPercentage: 10, Rating: 4.4, Stock: 80, Brand: "TrailPro", Category: "Accessories", Thumbnail: "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=400"},
	}
}
