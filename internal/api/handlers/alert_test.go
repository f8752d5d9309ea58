package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"transport-ops-backend/internal/models"
	"transport-ops-backend/internal/repository"
	"transport-ops-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubAlertStore covers only the paths the trigger endpoint exercises.
type stubAlertStore struct {
	createErr error
}

func (s *stubAlertStore) Create(alert *models.Alert) (*models.Alert, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	alert.ID = primitive.NewObjectID()
	return alert, nil
}

func (s *stubAlertStore) FindByID(string) (*models.Alert, error) {
	return nil, repository.ErrAlertNotFound
}

func (s *stubAlertStore) Find(repository.AlertFilters, int64) ([]*models.Alert, error) {
	return nil, nil
}

func (s *stubAlertStore) Acknowledge(string, string, time.Time) (*models.Alert, error) {
	return nil, repository.ErrAlertNotFound
}

func (s *stubAlertStore) Resolve(string, string, time.Time) (*models.Alert, error) {
	return nil, repository.ErrAlertNotFound
}

func (s *stubAlertStore) GetStatistics() (map[string]interface{}, error) {
	return map[string]interface{}{}, nil
}

func triggerAlertRouter(store services.AlertStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewAlertHandler(services.NewAlertService(store, nil))
	router := gin.New()
	router.POST("/alerts", handler.TriggerAlert)
	return router
}

func postTriggerAlert(t *testing.T, router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/alerts", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestTriggerAlertEndpointCreates(t *testing.T) {
	router := triggerAlertRouter(&stubAlertStore{})

	w := postTriggerAlert(t, router, map[string]interface{}{
		"type":  models.AlertTypeMaintenance,
		"title": "Maintenance due: Truck 7",
	})

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestTriggerAlertEndpointRejectsUnknownType(t *testing.T) {
	router := triggerAlertRouter(&stubAlertStore{})

	w := postTriggerAlert(t, router, map[string]interface{}{
		"type":  "disk_full",
		"title": "x",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTriggerAlertEndpointStoreFailureIs500(t *testing.T) {
	router := triggerAlertRouter(&stubAlertStore{createErr: errors.New("write concern timeout")})

	w := postTriggerAlert(t, router, map[string]interface{}{
		"type":  models.AlertTypeMaintenance,
		"title": "Maintenance due: Truck 7",
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
