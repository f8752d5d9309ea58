package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"transport-ops-backend/internal/health"
	"transport-ops-backend/internal/models"
)

const (
	// scanBatchSize bounds how many entity checks run concurrently.
	scanBatchSize = 50
	// scanBatchPause is the breather between batches so scans never
	// monopolize the stores.
	scanBatchPause = 100 * time.Millisecond
)

// ScannerService owns the periodic scan jobs. Each job inspects one entity
// population and raises alerts through the engine when a threshold is
// crossed. A failing entity never aborts its batch; a failing job never
// aborts its siblings.
type ScannerService struct {
	vehicles   VehicleStore
	engine     *AlertService
	suppressor Suppressor
	monitor    *health.Monitor
}

func NewScannerService(vehicles VehicleStore, engine *AlertService, monitor *health.Monitor) *ScannerService {
	return &ScannerService{
		vehicles: vehicles,
		engine:   engine,
		monitor:  monitor,
	}
}

// SetSuppressor enables the repeat-alert suppression window. Without one,
// every qualifying entity raises on every cycle.
func (s *ScannerService) SetSuppressor(suppressor Suppressor) {
	s.suppressor = suppressor
}

type scanJob struct {
	name string
	run  func(ctx context.Context) error
}

// RunAllChecks runs every scan job concurrently, each behind its own panic
// boundary, and waits for all of them. A clean cycle is recorded with the
// health monitor; a cycle with failed jobs is returned as an error so the
// scheduler can count the miss.
func (s *ScannerService) RunAllChecks(ctx context.Context) error {
	start := time.Now()

	jobs := []scanJob{
		{"gps_status", s.ScanGPSStatus},
		{"document_expiry", s.ScanDocumentExpiry},
		{"maintenance_due", s.ScanMaintenanceDue},
		{"route_deviation", s.ScanRouteDeviation},
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed []string
	)

	for _, job := range jobs {
		wg.Add(1)
		go func(job scanJob) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					log.Printf("scan: job %s panicked: %v", job.name, r)
					mu.Lock()
					failed = append(failed, job.name)
					mu.Unlock()
				}
			}()

			if err := job.run(ctx); err != nil {
				log.Printf("scan: job %s failed: %v", job.name, err)
				mu.Lock()
				failed = append(failed, job.name)
				mu.Unlock()
			}
		}(job)
	}
	wg.Wait()

	if len(failed) > 0 {
		return fmt.Errorf("scan jobs failed: %s", strings.Join(failed, ", "))
	}

	if s.monitor != nil {
		s.monitor.RecordExecution(start)
	}
	log.Printf("scan: system checks completed in %v", time.Since(start).Round(time.Millisecond))
	return nil
}

// ScanGPSStatus checks active vehicles for stale location fixes and raises
// a gps_loss alert per stale vehicle.
func (s *ScannerService) ScanGPSStatus(ctx context.Context) error {
	vehicles, err := s.vehicles.FindAllActive()
	if err != nil {
		return fmt.Errorf("load active vehicles: %w", err)
	}

	s.scanInBatches(ctx, "gps_status", vehicles, func(vehicle *models.Vehicle) error {
		lastFix := vehicle.LastKnownLocation.Timestamp
		if lastFix.IsZero() {
			// never reported a fix; onboarding concern, not signal loss
			return nil
		}

		age := time.Since(lastFix)
		if age <= GPSStaleThreshold {
			return nil
		}
		if !s.allow(models.AlertTypeGPSLoss, vehicle.ID.Hex()) {
			return nil
		}

		_, err := s.engine.RaiseGPSLoss(vehicle, age)
		return err
	})

	return nil
}

// ScanDocumentExpiry checks insurance and driver-license expiry on every
// vehicle independently, raising one alert per document inside the expiry
// window. Already-lapsed documents raise too, at critical.
func (s *ScannerService) ScanDocumentExpiry(ctx context.Context) error {
	vehicles, err := s.vehicles.FindAll()
	if err != nil {
		return fmt.Errorf("load vehicles: %w", err)
	}

	s.scanInBatches(ctx, "document_expiry", vehicles, func(vehicle *models.Vehicle) error {
		documents := []struct {
			name   string
			expiry *time.Time
		}{
			{"Insurance", vehicle.InsuranceExpiryDate},
			{"Driver license", vehicle.DriverLicenseExpiryDate},
		}

		for _, doc := range documents {
			if doc.expiry == nil {
				continue
			}
			daysLeft := int(time.Until(*doc.expiry).Hours() / 24)
			if daysLeft > DocExpiryMediumDays {
				continue
			}
			if !s.allow(models.AlertTypeDocumentExpiry, vehicle.ID.Hex()+":"+doc.name) {
				continue
			}
			if _, err := s.engine.RaiseDocumentExpiry("vehicle", vehicle.ID.Hex(), doc.name, *doc.expiry); err != nil {
				return err
			}
		}
		return nil
	})

	return nil
}

// ScanMaintenanceDue is an extension point; service-interval tracking has
// not been wired into the monitoring engine yet.
func (s *ScannerService) ScanMaintenanceDue(ctx context.Context) error {
	return nil
}

// ScanRouteDeviation is an extension point; live route geometry is not
// available to the engine yet.
func (s *ScannerService) ScanRouteDeviation(ctx context.Context) error {
	return nil
}

// scanInBatches runs check over the population in fixed-size batches with a
// short pause between them. Checks within a batch run concurrently; a check
// that fails or panics is logged with the entity id and the scan continues.
func (s *ScannerService) scanInBatches(ctx context.Context, jobName string, vehicles []*models.Vehicle, check func(*models.Vehicle) error) {
	for offset := 0; offset < len(vehicles); offset += scanBatchSize {
		end := offset + scanBatchSize
		if end > len(vehicles) {
			end = len(vehicles)
		}

		var wg sync.WaitGroup
		for _, vehicle := range vehicles[offset:end] {
			wg.Add(1)
			go func(vehicle *models.Vehicle) {
				defer wg.Done()
				defer func() {
					if r := recover(); r != nil {
						log.Printf("scan: %s check panicked for entity %s: %v", jobName, vehicle.ID.Hex(), r)
					}
				}()

				if err := check(vehicle); err != nil {
					log.Printf("scan: %s check failed for entity %s: %v", jobName, vehicle.ID.Hex(), err)
				}
			}(vehicle)
		}
		wg.Wait()

		if end < len(vehicles) {
			select {
			case <-time.After(scanBatchPause):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (s *ScannerService) allow(alertType, key string) bool {
	if s.suppressor == nil {
		return true
	}
	return s.suppressor.Allow(alertType, key)
}
