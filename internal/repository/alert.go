package repository

import (
	"context"
	"errors"
	"time"

	"transport-ops-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrAlertNotFound is returned when an alert id does not match any document.
var ErrAlertNotFound = errors.New("alert not found")

// ErrTransitionConflict is returned when a status-guarded update matches no
// document because the alert is no longer in the expected status.
var ErrTransitionConflict = errors.New("alert is not in the expected status")

type AlertRepository struct {
	collection *mongo.Collection
}

func NewAlertRepository(db *mongo.Database) *AlertRepository {
	return &AlertRepository{
		collection: db.Collection("alerts"),
	}
}

// AlertFilters combine with AND semantics; empty fields are ignored.
type AlertFilters struct {
	Status     string
	Type       string
	Severity   string
	EntityType string
	EntityID   string
}

func (r *AlertRepository) Create(alert *models.Alert) (*models.Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := r.collection.InsertOne(ctx, alert)
	if err != nil {
		return nil, err
	}

	alert.ID = result.InsertedID.(primitive.ObjectID)
	return alert, nil
}

func (r *AlertRepository) FindByID(id string) (*models.Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrAlertNotFound
	}

	var alert models.Alert
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&alert)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAlertNotFound
		}
		return nil, err
	}

	return &alert, nil
}

// Find returns alerts matching the filters, newest first, capped at limit.
// A limit of 0 means no cap.
func (r *AlertRepository) Find(filters AlertFilters, limit int64) ([]*models.Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	query := bson.M{}
	if filters.Status != "" {
		query["status"] = filters.Status
	}
	if filters.Type != "" {
		query["type"] = filters.Type
	}
	if filters.Severity != "" {
		query["severity"] = filters.Severity
	}
	if filters.EntityType != "" {
		query["entity_type"] = filters.EntityType
	}
	if filters.EntityID != "" {
		query["entity_id"] = filters.EntityID
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var alerts []*models.Alert
	for cursor.Next(ctx) {
		var alert models.Alert
		if err := cursor.Decode(&alert); err != nil {
			return nil, err
		}
		alerts = append(alerts, &alert)
	}

	return alerts, cursor.Err()
}

// Acknowledge moves an active alert to acknowledged. The status guard in the
// filter makes the transition atomic: a concurrent transition on the same
// alert leaves exactly one winner.
func (r *AlertRepository) Acknowledge(id, userID string, at time.Time) (*models.Alert, error) {
	update := bson.M{
		"$set": bson.M{
			"status":          models.AlertStatusAcknowledged,
			"acknowledged_by": userID,
			"acknowledged_at": at,
			"updated_at":      at,
		},
	}
	return r.transition(id, models.AlertStatusActive, update)
}

// Resolve moves an active or acknowledged alert to resolved.
func (r *AlertRepository) Resolve(id, userID string, at time.Time) (*models.Alert, error) {
	update := bson.M{
		"$set": bson.M{
			"status":      models.AlertStatusResolved,
			"resolved_by": userID,
			"resolved_at": at,
			"updated_at":  at,
		},
	}
	return r.transition(id, "", update)
}

func (r *AlertRepository) transition(id, requiredStatus string, update bson.M) (*models.Alert, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrAlertNotFound
	}

	filter := bson.M{"_id": objectID}
	if requiredStatus != "" {
		filter["status"] = requiredStatus
	} else {
		// resolve is valid from active or acknowledged, never from resolved
		filter["status"] = bson.M{"$ne": models.AlertStatusResolved}
	}

	result := r.collection.FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated models.Alert
	if err := result.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			// Distinguish a missing alert from a status conflict.
			if _, findErr := r.FindByID(id); findErr != nil {
				return nil, ErrAlertNotFound
			}
			return nil, ErrTransitionConflict
		}
		return nil, err
	}

	return &updated, nil
}

func (r *AlertRepository) CountByStatus(status string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"status": status})
}

func (r *AlertRepository) CountBySeverity(severity string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return r.collection.CountDocuments(ctx, bson.M{"severity": severity})
}

// GetStatistics aggregates totals plus per-status and per-severity counts.
func (r *AlertRepository) GetStatistics() (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	stats := map[string]interface{}{
		"total":       total,
		"by_status":   map[string]int64{},
		"by_severity": map[string]int64{},
	}

	byStatus := stats["by_status"].(map[string]int64)
	for _, status := range []string{
		models.AlertStatusActive,
		models.AlertStatusAcknowledged,
		models.AlertStatusResolved,
	} {
		count, err := r.CountByStatus(status)
		if err != nil {
			return nil, err
		}
		byStatus[status] = count
	}

	bySeverity := stats["by_severity"].(map[string]int64)
	for _, severity := range []string{
		models.SeverityLow,
		models.SeverityMedium,
		models.SeverityHigh,
		models.SeverityCritical,
	} {
		count, err := r.CountBySeverity(severity)
		if err != nil {
			return nil, err
		}
		bySeverity[severity] = count
	}

	return stats, nil
}

// DeleteResolvedBefore removes resolved alerts older than the cutoff and
// returns how many were deleted.
func (r *AlertRepository) DeleteResolvedBefore(cutoff time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{
		"status": models.AlertStatusResolved,
		"resolved_at": bson.M{
			"$lt": cutoff,
		},
	}

	result, err := r.collection.DeleteMany(ctx, filter)
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// CreateIndexes creates the indexes the alert query paths rely on.
func (r *AlertRepository) CreateIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "status", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "type", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "severity", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "resolved_at", Value: -1}},
		},
		{
			Keys: bson.D{
				{Key: "entity_type", Value: 1},
				{Key: "entity_id", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "type", Value: 1},
				{Key: "status", Value: 1},
			},
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
