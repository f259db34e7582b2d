package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stocksentry/stocksentry/internal/domain"
	"github.com/stocksentry/stocksentry/pkg/metrics"
	sentrymongo "github.com/stocksentry/stocksentry/pkg/mongodb"
)

// AuditRepository is the append-only delivery audit trail. Events are never
// updated or deleted; the per-path summaries feed the comparison endpoint.
type AuditRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewAuditRepository creates an AuditRepository.
func NewAuditRepository(db *mongo.Database, m *metrics.Metrics) *AuditRepository {
	repo := &AuditRepository{
		collection: db.Collection("audit_events"),
		metrics:    m,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *AuditRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "path", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "eventType", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Append stores one audit event. The path tag is validated before any I/O.
func (r *AuditRepository) Append(ctx context.Context, event *domain.AuditEvent, path domain.Path) error {
	if err := domain.ValidatePath(path); err != nil {
		return err
	}
	event.Path = path

	start := time.Now()
	_, err := r.collection.InsertOne(ctx, event)
	r.observe("audit_events", "insert", start, err)
	if err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

// FindByPath returns audit events recorded under one delivery path, newest
// first.
func (r *AuditRepository) FindByPath(ctx context.Context, path domain.Path, limit int64) ([]*domain.AuditEvent, error) {
	if err := domain.ValidatePath(path); err != nil {
		return nil, err
	}

	start := time.Now()
	opts := options.Find().
		SetSort(sentrymongo.SortDescending("timestamp")).
		SetLimit(limit)
	cursor, err := r.collection.Find(ctx, bson.M{"path": path}, opts)
	r.observe("audit_events", "find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []*domain.AuditEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode audit events: %w", err)
	}
	return events, nil
}

// Summarize aggregates outcomes for one delivery path.
func (r *AuditRepository) Summarize(ctx context.Context, path domain.Path) (*domain.PathComparison, error) {
	if err := domain.ValidatePath(path); err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"path": path}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$path",
			"total": bson.M{"$sum": 1},
			"successes": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", string(domain.AuditSuccess)}}, 1, 0},
			}},
			"failures": bson.M{"$sum": bson.M{
				"$cond": bson.A{bson.M{"$eq": bson.A{"$status", string(domain.AuditFailure)}}, 1, 0},
			}},
			"avgLatencyMs": bson.M{"$avg": "$latencyMs"},
		}}},
	}

	start := time.Now()
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	r.observe("audit_events", "aggregate", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize audit events: %w", err)
	}
	defer cursor.Close(ctx)

	summary := &domain.PathComparison{Path: path}

	var rows []struct {
		Total        int64   `bson:"total"`
		Successes    int64   `bson:"successes"`
		Failures     int64   `bson:"failures"`
		AvgLatencyMs float64 `bson:"avgLatencyMs"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode audit summary: %w", err)
	}
	if len(rows) > 0 {
		row := rows[0]
		summary.Total = row.Total
		summary.Successes = row.Successes
		summary.Failures = row.Failures
		summary.AvgLatencyMs = row.AvgLatencyMs
		if row.Total > 0 {
			summary.SuccessRatio = float64(row.Successes) / float64(row.Total)
		}
	}
	return summary, nil
}

func (r *AuditRepository) observe(collection, operation string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordMongoDBOperation(collection, operation, err == nil, time.Since(start))
}
