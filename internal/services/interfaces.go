package services

import (
	"time"

	"transport-ops-backend/internal/models"
	"transport-ops-backend/internal/repository"
)

// AlertStore is the persistence surface the engine needs. The Mongo
// repository satisfies it; tests use in-memory fakes.
type AlertStore interface {
	Create(alert *models.Alert) (*models.Alert, error)
	FindByID(id string) (*models.Alert, error)
	Find(filters repository.AlertFilters, limit int64) ([]*models.Alert, error)
	Acknowledge(id, userID string, at time.Time) (*models.Alert, error)
	Resolve(id, userID string, at time.Time) (*models.Alert, error)
	GetStatistics() (map[string]interface{}, error)
}

// VehicleStore is the entity lookup surface the scan jobs consume.
type VehicleStore interface {
	FindAll() ([]*models.Vehicle, error)
	FindAllActive() ([]*models.Vehicle, error)
}

// UserDirectory resolves notification recipients by role.
type UserDirectory interface {
	FindByRoles(roles []string) ([]*models.User, error)
}

// Dispatcher sends one rendered message through one channel to one
// recipient. Each call may fail independently; callers catch per recipient.
type Dispatcher interface {
	SendEmail(to, subject, html string) error
	SendSMS(to, message string) error
	SendPush(token, title, body string) error
}

// AlertRouter fans a persisted alert out to notification channels.
type AlertRouter interface {
	Route(alert *models.Alert)
}

// AlertStream pushes persisted alerts to live dashboard clients.
type AlertStream interface {
	BroadcastAlert(alert *models.Alert)
}

// Suppressor mutes repeat alerts for a (type, entity) pair inside a window.
// Allow reports whether the alert should be raised and, when it should,
// opens the window. Clear drops a window early so the next scan may raise
// again.
type Suppressor interface {
	Allow(alertType, entityID string) bool
	Clear(alertType, entityID string)
}
