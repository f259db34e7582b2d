// Package mongodb implements the domain repositories on MongoDB.
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

// StockRepository persists the facility stock counter. One document per
// (facilityId, productCode); updates replace the counter in place.
type StockRepository struct {
	collection *mongo.Collection
	metrics    *metrics.Metrics
}

// NewStockRepository creates a StockRepository.
func NewStockRepository(db *mongo.Database, m *metrics.Metrics) *StockRepository {
	repo := &StockRepository{
		collection: db.Collection("stock"),
		metrics:    m,
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *StockRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "facilityId", Value: 1},
				{Key: "productCode", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Upsert writes the current counter state for the facility and product.
func (r *StockRepository) Upsert(ctx context.Context, stock *domain.StockRecord) error {
	start := time.Now()

	filter := bson.M{
		"facilityId":  stock.FacilityID,
		"productCode": stock.ProductCode,
	}
	update := sentrymongo.BuildUpdateWithTimestamp(bson.M{
		"facilityId":       stock.FacilityID,
		"productCode":      stock.ProductCode,
		"countUnits":       stock.CountUnits,
		"consumptionRate":  stock.ConsumptionRate,
		"daysOfSupply":     stock.DaysOfSupply,
		"reorderThreshold": stock.ReorderThreshold,
	})
	opts := options.Update().SetUpsert(true)

	_, err := r.collection.UpdateOne(ctx, filter, update, opts)
	r.observe("stock", "upsert", start, err)
	if err != nil {
		return fmt.Errorf("failed to upsert stock record: %w", err)
	}
	return nil
}

// GetCurrent returns the counter for the facility and product, or nil when
// none exists yet.
func (r *StockRepository) GetCurrent(ctx context.Context, facilityID, productCode string) (*domain.StockRecord, error) {
	start := time.Now()

	var stock domain.StockRecord
	err := r.collection.FindOne(ctx, bson.M{
		"facilityId":  facilityID,
		"productCode": productCode,
	}).Decode(&stock)
	if err == mongo.ErrNoDocuments {
		r.observe("stock", "find", start, nil)
		return nil, nil
	}
	r.observe("stock", "find", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load stock record: %w", err)
	}
	return &stock, nil
}

func (r *StockRepository) observe(collection, operation string, start time.Time, err error) {
	if r.metrics == nil {
		return
	}
	r.metrics.RecordMongoDBOperation(collection, operation, err == nil, time.Since(start))
}
