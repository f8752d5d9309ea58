package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Alert types form a closed taxonomy; the engine rejects anything else.
const (
	AlertTypeGPSLoss        = "gps_loss"
	AlertTypeRouteDeviation = "route_deviation"
	AlertTypeMaintenance    = "maintenance"
	AlertTypeDocumentExpiry = "document_expiry"
	AlertTypeBookingUrgent  = "booking_urgent"
	AlertTypeVehicleOffline = "vehicle_offline"
	AlertTypePaymentIssue   = "payment_issue"
)

// Severity levels, ordered low < medium < high < critical.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert lifecycle states. Transitions are forward-only:
// active -> acknowledged -> resolved, or active -> resolved directly.
const (
	AlertStatusActive       = "active"
	AlertStatusAcknowledged = "acknowledged"
	AlertStatusResolved     = "resolved"
)

// TriggeredBySystem marks alerts raised by scan jobs rather than a user.
const TriggeredBySystem = "system"

type Alert struct {
	ID             primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Type           string                 `bson:"type" json:"type"`
	Severity       string                 `bson:"severity" json:"severity"`
	Title          string                 `bson:"title" json:"title"`
	Description    string                 `bson:"description" json:"description"`
	EntityType     string                 `bson:"entity_type" json:"entityType"`
	EntityID       string                 `bson:"entity_id" json:"entityId"`
	Status         string                 `bson:"status" json:"status"`
	Metadata       map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	TriggeredBy    string                 `bson:"triggered_by" json:"triggeredBy"`
	AcknowledgedBy string                 `bson:"acknowledged_by,omitempty" json:"acknowledgedBy,omitempty"`
	AcknowledgedAt *time.Time             `bson:"acknowledged_at,omitempty" json:"acknowledgedAt,omitempty"`
	ResolvedBy     string                 `bson:"resolved_by,omitempty" json:"resolvedBy,omitempty"`
	ResolvedAt     *time.Time             `bson:"resolved_at,omitempty" json:"resolvedAt,omitempty"`
	ExpiresAt      *time.Time             `bson:"expires_at,omitempty" json:"expiresAt,omitempty"`
	CreatedAt      time.Time              `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time              `bson:"updated_at" json:"updatedAt"`
}

var alertTypes = map[string]bool{
	AlertTypeGPSLoss:        true,
	AlertTypeRouteDeviation: true,
	AlertTypeMaintenance:    true,
	AlertTypeDocumentExpiry: true,
	AlertTypeBookingUrgent:  true,
	AlertTypeVehicleOffline: true,
	AlertTypePaymentIssue:   true,
}

var severityRank = map[string]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// IsValidAlertType reports whether t belongs to the alert taxonomy.
func IsValidAlertType(t string) bool {
	return alertTypes[t]
}

// IsValidSeverity reports whether s is a known severity level.
func IsValidSeverity(s string) bool {
	_, ok := severityRank[s]
	return ok
}
