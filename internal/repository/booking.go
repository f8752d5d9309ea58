package repository

import (
	"context"
	"time"

	"transport-ops-backend/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type BookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	return &BookingRepository{
		collection: db.Collection("bookings"),
	}
}

// FindRecurringDueWithin returns confirmed recurring bookings with a pickup
// inside the window; the reminder job mails their customers.
func (r *BookingRepository) FindRecurringDueWithin(window time.Duration) ([]*models.Booking, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now()
	query := bson.M{
		"recurring": true,
		"status":    "confirmed",
		"pickup_at": bson.M{
			"$gte": now,
			"$lte": now.Add(window),
		},
	}

	opts := options.Find().SetSort(bson.D{{Key: "pickup_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var bookings []*models.Booking
	for cursor.Next(ctx) {
		var booking models.Booking
		if err := cursor.Decode(&booking); err != nil {
			return nil, err
		}
		bookings = append(bookings, &booking)
	}

	return bookings, cursor.Err()
}
