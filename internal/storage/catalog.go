package storage

import (
	"context"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"shopassist/internal/models"
)

// TopSellers aggregates order line items by product and joins product
// metadata. Ties in sold_count break on product id ascending so the order
// is stable.
func (s *Store) TopSellers(ctx context.Context, limit int64) ([]models.SellerStat, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$product_id"},
			{Key: "sold_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{
			{Key: "sold_count", Value: -1},
			{Key: "_id", Value: 1},
		}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: CollProducts},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "id"},
			{Key: "as", Value: "product_info"},
		}}},
		{{Key: "$unwind", Value: "$product_info"}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "product_name", Value: "$product_info.name"},
			{Key: "category", Value: "$product_info.category"},
			{Key: "sold_count", Value: 1},
		}}},
	}
	cur, err := s.collection(CollOrderItems).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate top sellers: %w", err)
	}
	defer cur.Close(ctx)

	stats := make([]models.SellerStat, 0)
	if err := cur.All(ctx, &stats); err != nil {
		return nil, fmt.Errorf("decode top sellers: %w", err)
	}
	return stats, nil
}

// FindOrder matches order_id exactly as stored; the id may be a string or
// a numeric value. Returns mongo.ErrNoDocuments when no order matches.
func (s *Store) FindOrder(ctx context.Context, orderID any) (*models.Order, error) {
	var order models.Order
	err := s.collection(CollOrders).FindOne(ctx, bson.M{"order_id": orderID}).Decode(&order)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, err
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return &order, nil
}

// ProductsByName runs the store-native case-insensitive substring match on
// product names and returns up to limit matches in store order.
func (s *Store) ProductsByName(ctx context.Context, name string, limit int64) ([]models.Product, error) {
	filter := bson.M{"name": bson.M{"$regex": regexp.QuoteMeta(name), "$options": "i"}}
	cur, err := s.collection(CollProducts).Find(ctx, filter, options.Find().SetLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	products := make([]models.Product, 0)
	if err := cur.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

// CountInStock counts inventory items for a product that have not been
// sold. A missing sold_at field means the unit is still in stock.
func (s *Store) CountInStock(ctx context.Context, productID int64) (int64, error) {
	count, err := s.collection(CollInventoryItems).CountDocuments(ctx, bson.M{
		"product_id": productID,
		"sold_at":    bson.M{"$exists": false},
	})
	if err != nil {
		return 0, fmt.Errorf("count inventory: %w", err)
	}
	return count, nil
}
