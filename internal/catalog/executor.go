package catalog

import (
	"context"
	"errors"
	"log"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"

	"shopassist/internal/models"
)

// QueryType names one of the fixed catalog lookups the router may invoke.
type QueryType string

const (
	QueryTopSoldProducts QueryType = "top_sold_products"
	QueryOrderStatus     QueryType = "order_status"
	QueryProductStock    QueryType = "product_stock"
	QueryProductDetails  QueryType = "product_details"
)

// Params carries the router-extracted parameters for one query.
type Params map[string]string

// Result is either a payload or an error sentence ready for synthesis.
// The executor never returns a Go error past the dispatch boundary; store
// failures are converted into the action-specific error payload.
type Result struct {
	Data map[string]any `json:"data,omitempty"`
	Err  string         `json:"error,omitempty"`
}

func errorResult(msg string) Result {
	return Result{Err: msg}
}

// Store is the read-only slice of the document store the executor needs.
// Lookup methods report a missing document with an error satisfying
// errors.Is(err, mongo.ErrNoDocuments).
type Store interface {
	TopSellers(ctx context.Context, limit int64) ([]models.SellerStat, error)
	FindOrder(ctx context.Context, orderID any) (*models.Order, error)
	ProductsByName(ctx context.Context, name string, limit int64) ([]models.Product, error)
	CountInStock(ctx context.Context, productID int64) (int64, error)
}

type handlerFunc func(ctx context.Context, params Params) Result

// Executor dispatches query types to their handlers through a fixed
// registry.
type Executor struct {
	store    Store
	handlers map[QueryType]handlerFunc
}

const (
	topSellersLimit   = 5
	productMatchLimit = 5
)

// NewExecutor builds the registry over the given store.
func NewExecutor(store Store) *Executor {
	e := &Executor{store: store}
	e.handlers = map[QueryType]handlerFunc{
		QueryTopSoldProducts: e.topSoldProducts,
		QueryOrderStatus:     e.orderStatus,
		QueryProductStock:    e.productStock,
		QueryProductDetails:  e.productDetails,
	}
	return e
}

// Execute runs one query. Unknown query types come back as an error
// payload, never as a Go error.
func (e *Executor) Execute(ctx context.Context, queryType QueryType, params Params) Result {
	handler, ok := e.handlers[queryType]
	if !ok {
		return errorResult("Unknown query type or insufficient parameters.")
	}
	return handler(ctx, params)
}

func (e *Executor) topSoldProducts(ctx context.Context, _ Params) Result {
	stats, err := e.store.TopSellers(ctx, topSellersLimit)
	if err != nil {
		log.Printf("top sellers query failed: %v", err)
		return errorResult("Failed to retrieve top sold products.")
	}
	if stats == nil {
		stats = []models.SellerStat{}
	}
	return Result{Data: map[string]any{"products": stats}}
}

func (e *Executor) orderStatus(ctx context.Context, params Params) Result {
	orderID := strings.TrimSpace(params["order_id"])
	if orderID == "" {
		return errorResult("Order ID is required.")
	}

	order, err := e.store.FindOrder(ctx, orderID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		numericID, convErr := strconv.ParseInt(orderID, 10, 64)
		if convErr != nil {
			return errorResult("Invalid order ID format. Please provide a numeric ID.")
		}
		order, err = e.store.FindOrder(ctx, numericID)
	}
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return errorResult("Order not found.")
		}
		log.Printf("order status query failed: %v", err)
		return errorResult("Failed to retrieve order status.")
	}
	return Result{Data: map[string]any{
		"order_id":     order.OrderID,
		"status":       order.Status,
		"created_at":   order.CreatedAt,
		"shipped_at":   order.ShippedAt,
		"delivered_at": order.DeliveredAt,
	}}
}

func (e *Executor) productStock(ctx context.Context, params Params) Result {
	name := strings.TrimSpace(params["product_name"])
	if name == "" {
		return errorResult("Product name is required.")
	}
	matches, err := e.store.ProductsByName(ctx, name, productMatchLimit)
	if err != nil {
		log.Printf("product stock query failed: %v", err)
		return errorResult("Failed to retrieve product stock.")
	}
	if len(matches) == 0 {
		return errorResult("Product not found.")
	}

	// The first match answers; remaining candidates ride along so the
	// reply can mention them instead of silently picking one.
	product := matches[0]
	stock, err := e.store.CountInStock(ctx, product.ID)
	if err != nil {
		log.Printf("product stock count failed: %v", err)
		return errorResult("Failed to retrieve product stock.")
	}
	data := map[string]any{
		"product_name": product.Name,
		"stock":        stock,
	}
	if others := otherMatchNames(matches); len(others) > 0 {
		data["other_matches"] = others
	}
	return Result{Data: data}
}

func (e *Executor) productDetails(ctx context.Context, params Params) Result {
	name := strings.TrimSpace(params["product_name"])
	if name == "" {
		return errorResult("Product name is required.")
	}
	matches, err := e.store.ProductsByName(ctx, name, productMatchLimit)
	if err != nil {
		log.Printf("product details query failed: %v", err)
		return errorResult("Failed to retrieve product details.")
	}
	if len(matches) == 0 {
		return errorResult("Product not found.")
	}

	product := matches[0]
	data := map[string]any{
		"name":         product.Name,
		"category":     product.Category,
		"brand":        product.Brand,
		"retail_price": product.RetailPrice,
		"department":   product.Department,
		"sku":          product.SKU,
	}
	if others := otherMatchNames(matches); len(others) > 0 {
		data["other_matches"] = others
	}
	return Result{Data: data}
}

func otherMatchNames(matches []models.Product) []string {
	if len(matches) <= 1 {
		return nil
	}
	names := make([]string, 0, len(matches)-1)
	for _, p := range matches[1:] {
		names = append(names, p.Name)
	}
	return names
}
