// Package http exposes the catalog, cart, favorites, and checkout over a
// JSON API. Prices are rounded to two decimals here, at the presentation
// boundary; the core keeps full precision.
package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net/http"

	"github.com/egannguyen/go-cart-service/internal/cart"
	"github.com/egannguyen/go-cart-service/internal/entity"
	"github.com/egannguyen/go-cart-service/internal/repository"
	"github.com/egannguyen/go-cart-service/internal/service"
)

// Handler handles HTTP requests for the application.
type Handler struct {
	products repository.ProductRepository
	cart     *cart.Store
	orders   *service.OrderService
}

func NewHandler(products repository.ProductRepository, cartStore *cart.Store, orders *service.OrderService) *Handler {
	return &Handler{
		products: products,
		cart:     cartStore,
		orders:   orders,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/products", h.handleGetProducts)
	mux.HandleFunc("GET /api/products/categories", h.handleGetCategories)
	mux.HandleFunc("GET /api/products/{id}", h.handleGetProduct)

	mux.HandleFunc("GET /api/cart", h.handleGetCart)
	mux.HandleFunc("POST /api/cart/items", h.handleAddItem)
	mux.HandleFunc("PATCH /api/cart/items/{id}", h.handleSetQuantity)
	mux.HandleFunc("DELETE /api/cart/items/{id}", h.handleRemoveItem)
	mux.HandleFunc("DELETE /api/cart", h.handleClearCart)

	mux.HandleFunc("GET /api/favorites", h.handleGetFavorites)
	mux.HandleFunc("POST /api/favorites", h.handleToggleFavorite)

	mux.HandleFunc("POST /api/orders", h.handleCheckout)
	mux.HandleFunc("GET /api/orders", h.handleGetOrders)
}

func (h *Handler) handleGetProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		products []entity.Product
		err      error
	)
	switch {
	case r.URL.Query().Get("q") != "":
		products, err = h.products.Search(ctx, r.URL.Query().Get("q"))
	case r.URL.Query().Get("category") != "":
		products, err = h.products.FindByCategory(ctx, r.URL.Query().Get("category"))
	default:
		products, err = h.products.FindAll(ctx)
	}
	if err != nil {
		slog.Error("Failed to get products", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *Handler) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		slog.Error("Failed to get categories", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.FindByID(r.Context(), r.PathValue("id"))
	if errors.Is(err, repository.ErrProductNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to get product", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

type cartResponse struct {
	CartID  string            `json:"cart_id"`
	Items   []entity.CartItem `json:"items"`
	Summary cartSummary       `json:"summary"`
}

type cartSummary struct {
	TotalItems      int     `json:"total_items"`
	OriginalPrice   float64 `json:"original_price"`
	DiscountedPrice float64 `json:"discounted_price"`
	Savings         float64 `json:"savings"`
	DiscountRate    float64 `json:"discount_rate"`
}

func (h *Handler) cartView(items []entity.CartItem) cartResponse {
	summary := cart.Summarize(items)
	return cartResponse{
		CartID: h.cart.ID(),
		Items:  items,
		Summary: cartSummary{
			TotalItems:      summary.TotalItems,
			OriginalPrice:   round2(summary.OriginalPrice),
			DiscountedPrice: round2(summary.DiscountedPrice),
			Savings:         round2(summary.Savings),
			DiscountRate:    summary.DiscountRate,
		},
	}
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	items := h.cart.Items()
	if sortKey := r.URL.Query().Get("sort"); sortKey != "" {
		items = h.cart.SortedItems(cart.SortKey(sortKey))
	}
	writeJSON(w, http.StatusOK, h.cartView(items))
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	product, err := h.products.FindByID(r.Context(), req.ProductID)
	if errors.Is(err, repository.ErrProductNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to look up product", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if err := h.cart.AddItem(product, req.Quantity); err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, h.cartView(h.cart.Items()))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.cart.SetQuantity(r.PathValue("id"), req.Quantity); err != nil {
		writeCartError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.cartView(h.cart.Items()))
}

func (h *Handler) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	h.cart.RemoveItem(r.PathValue("id"))
	writeJSON(w, http.StatusOK, h.cartView(h.cart.Items()))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	h.cart.Clear()
	writeJSON(w, http.StatusOK, h.cartView(h.cart.Items()))
}

func (h *Handler) handleGetFavorites(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.cart.Favorites())
}

type toggleFavoriteRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var req toggleFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	product, err := h.products.FindByID(r.Context(), req.ProductID)
	if errors.Is(err, repository.ErrProductNotFound) {
		http.Error(w, "product not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to look up product", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.cart.ToggleFavorite(product)
	writeJSON(w, http.StatusOK, map[string]bool{
		"favorite": h.cart.IsFavorite(product.ID),
	})
}

type orderView struct {
	ID            string             `json:"id"`
	Items         []entity.OrderItem `json:"items"`
	Total         float64            `json:"total"`
	OriginalTotal float64            `json:"original_total"`
	Savings       float64            `json:"savings"`
	Status        string             `json:"status"`
	CreatedAt     string             `json:"created_at"`
}

func toOrderView(o entity.Order) orderView {
	return orderView{
		ID:            o.ID,
		Items:         o.Items,
		Total:         round2(o.Total),
		OriginalTotal: round2(o.OriginalTotal),
		Savings:       round2(o.Savings),
		Status:        o.Status,
		CreatedAt:     o.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.PlaceOrder(r.Context())
	if errors.Is(err, service.ErrEmptyCart) {
		http.Error(w, "cart is empty", http.StatusUnprocessableEntity)
		return
	}
	if err != nil {
		slog.Error("Failed to place order", "err", err)
		http.Error(w, "failed to place order", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderView(order))
}

func (h *Handler) handleGetOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.RecentOrders(r.Context(), 50)
	if err != nil {
		slog.Error("Failed to get orders", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, toOrderView(o))
	}
	writeJSON(w, http.StatusOK, views)
}

func writeCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrStockExceeded):
		http.Error(w, "quantity exceeds available stock", http.StatusConflict)
	case errors.Is(err, cart.ErrNotFound):
		http.Error(w, "product not in cart", http.StatusNotFound)
	case errors.Is(err, cart.ErrInvalidQuantity):
		http.Error(w, "quantity must be positive", http.StatusBadRequest)
	default:
		slog.Error("Cart operation failed", "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// EnableCORS is a middleware to allow a browser frontend to connect.
func EnableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
