package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles the notification policy table routes to.
const (
	RoleAdmin        = "admin"
	RoleFleetManager = "fleet_manager"
	RoleDispatcher   = "dispatcher"
)

type User struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                  string             `bson:"name" json:"name"`
	Email                 string             `bson:"email" json:"email"`
	Phone                 string             `bson:"phone" json:"phone"`
	PushToken             string             `bson:"push_token,omitempty" json:"-"`
	Password              string             `bson:"password" json:"-"`
	Role                  string             `bson:"role" json:"role"`
	Status                string             `bson:"status" json:"status"`
	SubscriptionExpiresAt *time.Time         `bson:"subscription_expires_at,omitempty" json:"subscriptionExpiresAt,omitempty"`
	CreatedAt             time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt             time.Time          `bson:"updated_at" json:"updatedAt"`
}
