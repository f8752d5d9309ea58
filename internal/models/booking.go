package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Booking struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CustomerEmail string             `bson:"customer_email" json:"customerEmail"`
	CustomerName  string             `bson:"customer_name" json:"customerName"`
	VehicleID     string             `bson:"vehicle_id" json:"vehicleId"`
	PickupAt      time.Time          `bson:"pickup_at" json:"pickupAt"`
	Recurring     bool               `bson:"recurring" json:"recurring"`
	Status        string             `bson:"status" json:"status"`
	CreatedAt     time.Time          `bson:"created_at" json:"createdAt"`
}
