package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"transport-ops-backend/internal/models"
	"transport-ops-backend/internal/repository"
)

// Domain thresholds for the specialized raisers.
const (
	// GPSStaleThreshold is the maximum age of a location fix before the
	// vehicle is considered to have lost GPS.
	GPSStaleThreshold = 15 * time.Minute
	// RouteDeviationHighKm is the deviation distance past which a
	// route-deviation alert escalates from medium to high.
	RouteDeviationHighKm = 20.0
	// Document expiry tiers in days until expiry.
	DocExpiryHighDays   = 7
	DocExpiryMediumDays = 30
)

// AlertService is the alert engine: it validates and normalizes alert data,
// persists it, and fans out notifications without making the caller wait on
// delivery.
type AlertService struct {
	alerts     AlertStore
	router     AlertRouter
	stream     AlertStream
	suppressor Suppressor
}

func NewAlertService(alerts AlertStore, router AlertRouter) *AlertService {
	return &AlertService{
		alerts: alerts,
		router: router,
	}
}

// SetStream attaches the live dashboard feed; optional.
func (s *AlertService) SetStream(stream AlertStream) {
	s.stream = stream
}

// SetSuppressor lets resolving an alert reopen its suppression window;
// optional. Without one a resolved condition stays muted until the window
// lapses on its own.
func (s *AlertService) SetSuppressor(suppressor Suppressor) {
	s.suppressor = suppressor
}

type TriggerAlertRequest struct {
	Type        string                 `json:"type" validate:"required"`
	Severity    string                 `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Title       string                 `json:"title" validate:"required,min=1,max=200"`
	Description string                 `json:"description" validate:"max=2000"`
	EntityType  string                 `json:"entityType"`
	EntityID    string                 `json:"entityId"`
	Metadata    map[string]interface{} `json:"metadata"`
	TriggeredBy string                 `json:"triggeredBy"`
	ExpiresAt   *time.Time             `json:"expiresAt"`
}

// TriggerAlert validates the request, applies defaults, persists the alert
// and routes notifications on a detached goroutine. Dispatch failures are
// logged, never returned: the caller's success does not depend on delivery.
func (s *AlertService) TriggerAlert(req *TriggerAlertRequest) (*models.Alert, error) {
	if !models.IsValidAlertType(req.Type) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlertType, req.Type)
	}
	if req.Title == "" {
		return nil, ErrMissingTitle
	}

	severity := req.Severity
	if severity == "" {
		severity = models.SeverityMedium
	} else if !models.IsValidSeverity(severity) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSeverity, severity)
	}

	triggeredBy := req.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = models.TriggeredBySystem
	}

	now := time.Now()
	alert := &models.Alert{
		Type:        req.Type,
		Severity:    severity,
		Title:       req.Title,
		Description: req.Description,
		EntityType:  req.EntityType,
		EntityID:    req.EntityID,
		Status:      models.AlertStatusActive,
		Metadata:    req.Metadata,
		TriggeredBy: triggeredBy,
		ExpiresAt:   req.ExpiresAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.alerts.Create(alert)
	if err != nil {
		return nil, err
	}

	go s.routeDetached(created)

	return created, nil
}

// routeDetached runs notification fan-out with its own error boundary so a
// panic in rendering or dispatch can never reach the trigger path.
func (s *AlertService) routeDetached(alert *models.Alert) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("alerts: notification routing panicked for alert %s: %v", alert.ID.Hex(), r)
		}
	}()

	if s.stream != nil {
		s.stream.BroadcastAlert(alert)
	}
	if s.router != nil {
		s.router.Route(alert)
	}
}

// RaiseGPSLoss raises a fixed-high alert for a vehicle whose last location
// fix is older than the staleness threshold.
func (s *AlertService) RaiseGPSLoss(vehicle *models.Vehicle, staleFor time.Duration) (*models.Alert, error) {
	return s.TriggerAlert(&TriggerAlertRequest{
		Type:       models.AlertTypeGPSLoss,
		Severity:   models.SeverityHigh,
		Title:      fmt.Sprintf("GPS signal lost: %s", vehicle.Name),
		Description: fmt.Sprintf("Vehicle %s (%s) has not reported a location for %s.",
			vehicle.Name, vehicle.PlateNumber, staleFor.Round(time.Minute)),
		EntityType: "vehicle",
		EntityID:   vehicle.ID.Hex(),
		Metadata: map[string]interface{}{
			"staleMinutes": int(staleFor.Minutes()),
			"lastFix":      vehicle.LastKnownLocation.Timestamp,
		},
	})
}

// RaiseRouteDeviation escalates to high past RouteDeviationHighKm.
func (s *AlertService) RaiseRouteDeviation(vehicleID string, deviationKm float64) (*models.Alert, error) {
	severity := models.SeverityMedium
	if deviationKm > RouteDeviationHighKm {
		severity = models.SeverityHigh
	}

	return s.TriggerAlert(&TriggerAlertRequest{
		Type:        models.AlertTypeRouteDeviation,
		Severity:    severity,
		Title:       "Vehicle off planned route",
		Description: fmt.Sprintf("Vehicle deviated %.1f km from its planned route.", deviationKm),
		EntityType:  "vehicle",
		EntityID:    vehicleID,
		Metadata: map[string]interface{}{
			"deviationKm": deviationKm,
		},
	})
}

// RaiseDocumentExpiry tiers severity by days until expiry: high within 7
// days, medium within 30, low beyond that. An already-lapsed document
// raises at critical.
func (s *AlertService) RaiseDocumentExpiry(entityType, entityID, document string, expiresAt time.Time) (*models.Alert, error) {
	daysLeft := int(time.Until(expiresAt).Hours() / 24)

	var severity, title string
	switch {
	case daysLeft < 0:
		severity = models.SeverityCritical
		title = fmt.Sprintf("%s expired", document)
	case daysLeft <= DocExpiryHighDays:
		severity = models.SeverityHigh
		title = fmt.Sprintf("%s expires in %d days", document, daysLeft)
	case daysLeft <= DocExpiryMediumDays:
		severity = models.SeverityMedium
		title = fmt.Sprintf("%s expires in %d days", document, daysLeft)
	default:
		severity = models.SeverityLow
		title = fmt.Sprintf("%s expires in %d days", document, daysLeft)
	}

	return s.TriggerAlert(&TriggerAlertRequest{
		Type:        models.AlertTypeDocumentExpiry,
		Severity:    severity,
		Title:       title,
		Description: fmt.Sprintf("%s for %s %s expires on %s.", document, entityType, entityID, expiresAt.Format("2006-01-02")),
		EntityType:  entityType,
		EntityID:    entityID,
		Metadata: map[string]interface{}{
			"document":        document,
			"daysUntilExpiry": daysLeft,
			"expiryDate":      expiresAt,
		},
		ExpiresAt: &expiresAt,
	})
}

// RaiseMaintenanceDue raises a fixed-medium alert for a vehicle whose next
// service date has arrived.
func (s *AlertService) RaiseMaintenanceDue(vehicle *models.Vehicle) (*models.Alert, error) {
	return s.TriggerAlert(&TriggerAlertRequest{
		Type:        models.AlertTypeMaintenance,
		Severity:    models.SeverityMedium,
		Title:       fmt.Sprintf("Maintenance due: %s", vehicle.Name),
		Description: fmt.Sprintf("Vehicle %s (%s) is due for scheduled maintenance.", vehicle.Name, vehicle.PlateNumber),
		EntityType:  "vehicle",
		EntityID:    vehicle.ID.Hex(),
	})
}

// Acknowledge moves an active alert to acknowledged on behalf of userID.
func (s *AlertService) Acknowledge(alertID, userID string) (*models.Alert, error) {
	alert, err := s.alerts.Acknowledge(alertID, userID, time.Now())
	return alert, mapTransitionError(err)
}

// Resolve moves an active or acknowledged alert to resolved and reopens the
// suppression window for the underlying condition, so a recurrence raises on
// the next scan instead of waiting out the window.
func (s *AlertService) Resolve(alertID, userID string) (*models.Alert, error) {
	alert, err := s.alerts.Resolve(alertID, userID, time.Now())
	if err != nil {
		return nil, mapTransitionError(err)
	}

	if s.suppressor != nil && alert.EntityID != "" {
		s.suppressor.Clear(alert.Type, suppressionKey(alert))
	}
	return alert, nil
}

// suppressionKey mirrors how the scan jobs key their windows: the entity id,
// plus the document name for document-expiry alerts.
func suppressionKey(alert *models.Alert) string {
	key := alert.EntityID
	if document, ok := alert.Metadata["document"].(string); ok {
		key += ":" + document
	}
	return key
}

func (s *AlertService) GetAlert(id string) (*models.Alert, error) {
	alert, err := s.alerts.FindByID(id)
	if errors.Is(err, repository.ErrAlertNotFound) {
		return nil, ErrAlertNotFound
	}
	return alert, err
}

func (s *AlertService) ListAlerts(filters repository.AlertFilters, limit int64) ([]*models.Alert, error) {
	return s.alerts.Find(filters, limit)
}

func (s *AlertService) GetStatistics() (map[string]interface{}, error) {
	return s.alerts.GetStatistics()
}

func mapTransitionError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAlertNotFound):
		return ErrAlertNotFound
	case errors.Is(err, repository.ErrTransitionConflict):
		return ErrInvalidTransition
	default:
		return err
	}
}
