package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"shopassist/internal/config"
)

// Collection names shared with the dataset loader.
const (
	CollConversations       = "conversations"
	CollOrders              = "orders"
	CollProducts            = "products"
	CollInventoryItems      = "inventory_items"
	CollOrderItems          = "order_items"
	CollDistributionCenters = "distribution_centers"
	CollUsers               = "users"
)

const (
	defaultMongoURI     = "mongodb://localhost:27017/"
	defaultDatabaseName = "ecommerce_chatbot_db"
	pingTimeout         = 3 * time.Second
)

// Store is the handle to the document store. It is constructed once at
// startup and passed to every component that reads or writes collections.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to the document store and verifies the connection.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	uri := cfg.BasicConfig.MongoURI
	if uri == "" {
		uri = defaultMongoURI
	}
	name := cfg.BasicConfig.DatabaseName
	if name == "" {
		name = defaultDatabaseName
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect document store: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping document store: %w", err)
	}
	return &Store{client: client, db: client.Database(name)}, nil
}

// Close releases the underlying client.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// ReloadCollection clears the named collection and inserts the provided
// documents. Used by the one-shot dataset loader only.
func (s *Store) ReloadCollection(ctx context.Context, name string, docs []map[string]any) (int, error) {
	coll := s.collection(name)
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return 0, fmt.Errorf("clear %s: %w", name, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	payload := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		payload = append(payload, doc)
	}
	res, err := coll.InsertMany(ctx, payload)
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", name, err)
	}
	return len(res.InsertedIDs), nil
}
