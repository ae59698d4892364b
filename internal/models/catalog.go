package models

import "time"

// Catalog entities are bulk-loaded by the loader job and read-only from
// the runtime core.

type Product struct {
	ID          int64   `bson:"id" json:"id"`
	Name        string  `bson:"name" json:"name"`
	Category    string  `bson:"category" json:"category"`
	Brand       string  `bson:"brand" json:"brand"`
	RetailPrice float64 `bson:"retail_price" json:"retail_price"`
	Department  string  `bson:"department" json:"department"`
	SKU         string  `bson:"sku" json:"sku"`
}

type Order struct {
	// order_id may be stored as a string or a numeric value depending on
	// the source data.
	OrderID     any        `bson:"order_id" json:"order_id"`
	Status      string     `bson:"status" json:"status"`
	CreatedAt   *time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	ShippedAt   *time.Time `bson:"shipped_at,omitempty" json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
}

// InventoryItem tracks one physical unit; a missing sold_at means the unit
// is still in stock.
type InventoryItem struct {
	ProductID int64      `bson:"product_id" json:"product_id"`
	SoldAt    *time.Time `bson:"sold_at,omitempty" json:"sold_at,omitempty"`
}

type OrderItem struct {
	OrderID   any   `bson:"order_id" json:"order_id"`
	ProductID int64 `bson:"product_id" json:"product_id"`
}

// SellerStat is one row of the top-sellers aggregation.
type SellerStat struct {
	ProductName string `bson:"product_name" json:"product_name"`
	Category    string `bson:"category" json:"category"`
	SoldCount   int64  `bson:"sold_count" json:"sold_count"`
}
