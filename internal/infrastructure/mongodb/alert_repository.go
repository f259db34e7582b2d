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
	apperrors "github.com/stocksentry/stocksentry/pkg/errors"
	"github.com/stocksentry/stocksentry/pkg/metrics"
	sentrymongo "github.com/stocksentry/stocksentry/pkg/mongodb"
)

// AlertRepository persists alert records.
type AlertRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewAlertRepository creates an AlertRepository.
func NewAlertRepository(db *mongo.Database, m *metrics.Metrics) *AlertRepository {
	repo := &AlertRepository{
		collection: db.Collection("alerts"),
		metrics:    m,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *AlertRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "severity", Value: 1}}},
		{Keys: bson.D{{Key: "acknowledged", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Insert stores a new alert record and backfills its generated ID.
func (r *AlertRepository) Insert(ctx context.Context, alert *domain.AlertRecord) error {
	start := time.Now()

	result, err := r.collection.InsertOne(ctx, alert)
	r.observe("alerts", "insert", start, err)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}
	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		alert.ID = oid
	}
	return nil
}

// FindByID returns the alert with the given hex ID.
func (r *AlertRepository) FindByID(ctx context.Context, id string) (*domain.AlertRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, apperrors.ErrBadRequest(fmt.Sprintf("invalid alert id: %s", id))
	}

	start := time.Now()
	var alert domain.AlertRecord
	err = r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&alert)
	if err == mongo.ErrNoDocuments {
		r.observe("alerts", "find", start, nil)
		return nil, apperrors.ErrNotFound("alert").WithDetail("id", id)
	}
	r.observe("alerts", "find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	return &alert, nil
}

// Update replaces the mutable acknowledgement fields of an alert.
func (r *AlertRepository) Update(ctx context.Context, alert *domain.AlertRecord) error {
	start := time.Now()

	update := bson.M{"$set": bson.M{
		"acknowledged":   alert.Acknowledged,
		"acknowledgedAt": alert.AcknowledgedAt,
		"resolvedAt":     alert.ResolvedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": alert.ID}, update)
	r.observe("alerts", "update", start, err)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	if result.MatchedCount == 0 {
		return apperrors.ErrNotFound("alert").WithDetail("id", alert.ID.Hex())
	}
	return nil
}

// FindRecent returns the newest alerts first.
func (r *AlertRepository) FindRecent(ctx context.Context, limit int64) ([]*domain.AlertRecord, error) {
	start := time.Now()

	opts := options.Find().
		SetSort(sentrymongo.SortDescending("createdAt")).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	r.observe("alerts", "find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer cursor.Close(ctx)

	var alerts []*domain.AlertRecord
	if err := cursor.All(ctx, &alerts); err != nil {
		return nil, fmt.Errorf("failed to decode alerts: %w", err)
	}
	return alerts, nil
}

func (r *AlertRepository) observe(collection, operation string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordMongoDBOperation(collection, operation, err == nil, time.Since(start))
}
