package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/metrics"
	sentrymongo "github.com/stocksentry/stocksentry/pkg/mongodb"
)

// OrderRepository persists replenishment orders. The unique index on
// commandId is what makes ingestion idempotent; a second insert of the same
// command fails at the storage layer no matter which path delivered it.
type OrderRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewOrderRepository creates an OrderRepository.
func NewOrderRepository(db *mongo.Database, m *metrics.Metrics) *OrderRepository {
	repo := &OrderRepository{
		collection: db.Collection("orders"),
		metrics:    m,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *OrderRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "commandId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "path", Value: 1}, {Key: "receivedAt", Value: -1}}},
		{Keys: bson.D{{Key: "orderId", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Insert stores an accepted order. The path tag is validated before any I/O
// and a repeated commandId surfaces as ErrDuplicateCommand.
func (r *OrderRepository) Insert(ctx context.Context, record *domain.OrderRecord, path domain.Path) error {
	if err := domain.ValidatePath(path); err != nil {
		return err
	}
	record.Path = path

	start := time.Now()
	result, err := r.collection.InsertOne(ctx, record)
	r.observe("orders", "insert", start, err)
	if err != nil {
		if sentrymongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCommand, record.CommandID)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		record.ID = oid
	}
	return nil
}

// FindByCommandID returns the order for the idempotency key, or nil when
// none exists.
func (r *OrderRepository) FindByCommandID(ctx context.Context, commandID string) (*domain.OrderRecord, error) {
	start := time.Now()

	var record domain.OrderRecord
	err := r.collection.FindOne(ctx, bson.M{"commandId": commandID}).Decode(&record)
	if err == mongo.ErrNoDocuments {
		r.observe("orders", "find", start, nil)
		return nil, nil
	}
	r.observe("orders", "find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &record, nil
}

// FindByPath returns orders recorded under one delivery path, newest first.
func (r *OrderRepository) FindByPath(ctx context.Context, path domain.Path, limit int64) ([]*domain.OrderRecord, error) {
	if err := domain.ValidatePath(path); err != nil {
		return nil, err
	}

	start := time.Now()
	opts := options.Find().
		SetSort(sentrymongo.SortDescending("receivedAt")).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"path": path}, opts)
	r.observe("orders", "find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*domain.OrderRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return records, nil
}

func (r *OrderRepository) observe(collection, operation string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordMongoDBOperation(collection, operation, err == nil, time.Since(start))
}
