package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"transport-ops-backend/internal/models"
	"transport-ops-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeVehicleStore struct {
	vehicles []*models.Vehicle
	err      error
}

func (f *fakeVehicleStore) FindAll() ([]*models.Vehicle, error) {
	return f.vehicles, f.err
}

func (f *fakeVehicleStore) FindAllActive() ([]*models.Vehicle, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Vehicle
	for _, v := range f.vehicles {
		if v.Status == models.VehicleStatusActive {
			out = append(out, v)
		}
	}
	return out, nil
}

type fakeSuppressor struct {
	mu      sync.Mutex
	seen    map[string]bool
	cleared []string
}

func newFakeSuppressor() *fakeSuppressor {
	return &fakeSuppressor{seen: make(map[string]bool)}
}

func (f *fakeSuppressor) Allow(alertType, key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := alertType + ":" + key
	if f.seen[k] {
		return false
	}
	f.seen[k] = true
	return true
}

func (f *fakeSuppressor) Clear(alertType, key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := alertType + ":" + key
	delete(f.seen, k)
	f.cleared = append(f.cleared, k)
}

func (f *fakeSuppressor) clearedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.cleared...)
}

func activeVehicle(name string, lastFixAge time.Duration) *models.Vehicle {
	return &models.Vehicle{
		ID:     primitive.NewObjectID(),
		Name:   name,
		Status: models.VehicleStatusActive,
		LastKnownLocation: models.Location{
			Lat: -1.28, Lng: 36.82,
			Timestamp: time.Now().Add(-lastFixAge),
		},
	}
}

func newScannerFixture(vehicles []*models.Vehicle) (*ScannerService, *fakeAlertStore) {
	store := newFakeAlertStore()
	engine := NewAlertService(store, nil)
	scanner := NewScannerService(&fakeVehicleStore{vehicles: vehicles}, engine, nil)
	return scanner, store
}

func TestScanGPSStatusRaisesOnStaleFix(t *testing.T) {
	scanner, store := newScannerFixture([]*models.Vehicle{
		activeVehicle("stale", 20*time.Minute),
		activeVehicle("fresh", 5*time.Minute),
	})

	require.NoError(t, scanner.ScanGPSStatus(context.Background()))

	alerts, err := store.Find(repository.AlertFilters{Type: models.AlertTypeGPSLoss}, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, models.SeverityHigh, alerts[0].Severity)
	assert.Contains(t, alerts[0].Title, "stale")
}

func TestScanGPSStatusIgnoresInactiveAndUnreported(t *testing.T) {
	inactive := activeVehicle("parked", 3*time.Hour)
	inactive.Status = models.VehicleStatusIdle

	neverReported := &models.Vehicle{
		ID:     primitive.NewObjectID(),
		Name:   "new",
		Status: models.VehicleStatusActive,
	}

	scanner, store := newScannerFixture([]*models.Vehicle{inactive, neverReported})

	require.NoError(t, scanner.ScanGPSStatus(context.Background()))
	assert.Equal(t, 0, store.count())
}

func TestScanGPSStatusSuppressesRepeats(t *testing.T) {
	scanner, store := newScannerFixture([]*models.Vehicle{
		activeVehicle("stale", 30 * time.Minute),
	})
	scanner.SetSuppressor(newFakeSuppressor())

	require.NoError(t, scanner.ScanGPSStatus(context.Background()))
	require.NoError(t, scanner.ScanGPSStatus(context.Background()))

	assert.Equal(t, 1, store.count())
}

func TestScanDocumentExpiryChecksEachDocumentIndependently(t *testing.T) {
	soon := time.Now().Add(5 * 24 * time.Hour)
	later := time.Now().Add(20 * 24 * time.Hour)
	farOut := time.Now().Add(400 * 24 * time.Hour)

	vehicle := &models.Vehicle{
		ID:                      primitive.NewObjectID(),
		Name:                    "Truck 1",
		Status:                  models.VehicleStatusActive,
		InsuranceExpiryDate:     &soon,
		DriverLicenseExpiryDate: &later,
	}
	quiet := &models.Vehicle{
		ID:                  primitive.NewObjectID(),
		Name:                "Truck 2",
		Status:              models.VehicleStatusActive,
		InsuranceExpiryDate: &farOut,
	}

	scanner, store := newScannerFixture([]*models.Vehicle{vehicle, quiet})

	require.NoError(t, scanner.ScanDocumentExpiry(context.Background()))

	alerts, err := store.Find(repository.AlertFilters{Type: models.AlertTypeDocumentExpiry}, 0)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	severities := map[string]string{}
	for _, alert := range alerts {
		severities[alert.Metadata["document"].(string)] = alert.Severity
	}
	assert.Equal(t, models.SeverityHigh, severities["Insurance"])
	assert.Equal(t, models.SeverityMedium, severities["Driver license"])
}

func TestScanStubsAreNoOps(t *testing.T) {
	scanner, store := newScannerFixture(nil)

	assert.NoError(t, scanner.ScanMaintenanceDue(context.Background()))
	assert.NoError(t, scanner.ScanRouteDeviation(context.Background()))
	assert.Equal(t, 0, store.count())
}

func TestScanInBatchesIsolatesFailingEntity(t *testing.T) {
	vehicles := make([]*models.Vehicle, 120)
	for i := range vehicles {
		vehicles[i] = activeVehicle(fmt.Sprintf("veh-%d", i), time.Minute)
	}
	poisoned := vehicles[57].ID

	scanner, _ := newScannerFixture(vehicles)

	var processed atomic.Int64
	scanner.scanInBatches(context.Background(), "test", vehicles, func(v *models.Vehicle) error {
		if v.ID == poisoned {
			panic("corrupt telemetry record")
		}
		processed.Add(1)
		return nil
	})

	assert.Equal(t, int64(119), processed.Load())
}

func TestScanInBatchesStopsOnCancelledContext(t *testing.T) {
	vehicles := make([]*models.Vehicle, 120)
	for i := range vehicles {
		vehicles[i] = activeVehicle(fmt.Sprintf("veh-%d", i), time.Minute)
	}

	ctx, cancel := context.WithCancel(context.Background())
	scanner, _ := newScannerFixture(vehicles)

	var processed atomic.Int64
	scanner.scanInBatches(ctx, "test", vehicles, func(*models.Vehicle) error {
		if processed.Add(1) == 10 {
			cancel()
		}
		return nil
	})

	// the first batch finishes, the inter-batch pause observes cancellation
	assert.LessOrEqual(t, processed.Load(), int64(scanBatchSize))
}

func TestRunAllChecksReportsFailedJobs(t *testing.T) {
	store := newFakeAlertStore()
	engine := NewAlertService(store, nil)
	scanner := NewScannerService(&fakeVehicleStore{err: errors.New("mongo down")}, engine, nil)

	err := scanner.RunAllChecks(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gps_status")
	assert.Contains(t, err.Error(), "document_expiry")
}

func TestRunAllChecksCleanCycle(t *testing.T) {
	scanner, store := newScannerFixture([]*models.Vehicle{
		activeVehicle("fresh", time.Minute),
	})

	require.NoError(t, scanner.RunAllChecks(context.Background()))
	assert.Equal(t, 0, store.count())
}

// The whole pipeline: a maintenance raise defaults to medium and lands as a
// single email to the dispatcher, nothing else.
func TestMaintenanceAlertEndToEnd(t *testing.T) {
	store := newFakeAlertStore()
	users := fullDirectory()
	dispatcher := &recordingDispatcher{}
	engine := NewAlertService(store, NewNotificationRouter(users, dispatcher))

	alert, err := engine.RaiseMaintenanceDue(&models.Vehicle{
		ID:   primitive.NewObjectID(),
		Name: "Truck 9",
	})
	require.NoError(t, err)
	assert.Equal(t, models.SeverityMedium, alert.Severity)

	assert.Eventually(t, func() bool {
		dispatcher.mu.Lock()
		defer dispatcher.mu.Unlock()
		return len(dispatcher.emails) == 1
	}, 2*time.Second, 10*time.Millisecond)

	dispatcher.mu.Lock()
	defer dispatcher.mu.Unlock()
	assert.Equal(t, []string{"dispatch@fleet.test"}, dispatcher.emails)
	assert.Empty(t, dispatcher.sms)
	assert.Empty(t, dispatcher.pushes)
}
