package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle statuses as stored by the fleet CRUD layer.
const (
	VehicleStatusActive      = "active"
	VehicleStatusIdle        = "idle"
	VehicleStatusMaintenance = "maintenance"
	VehicleStatusOffline     = "offline"
)

type Vehicle struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                    string             `bson:"name" json:"name"`
	PlateNumber             string             `bson:"plate_number" json:"plateNumber"`
	Driver                  string             `bson:"driver" json:"driver"`
	Status                  string             `bson:"status" json:"status"`
	LastKnownLocation       Location           `bson:"last_known_location" json:"lastKnownLocation"`
	InsuranceExpiryDate     *time.Time         `bson:"insurance_expiry_date,omitempty" json:"insuranceExpiryDate,omitempty"`
	DriverLicenseExpiryDate *time.Time         `bson:"driver_license_expiry_date,omitempty" json:"driverLicenseExpiryDate,omitempty"`
	VehicleRegistration     string             `bson:"vehicle_registration" json:"vehicleRegistration"`
	NextServiceDate         *time.Time         `bson:"next_service_date,omitempty" json:"nextServiceDate,omitempty"`
	CreatedAt               time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt               time.Time          `bson:"updated_at" json:"updatedAt"`
}

type Location struct {
	Lat       float64   `bson:"lat" json:"lat"`
	Lng       float64   `bson:"lng" json:"lng"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}
