package handlers

import (
	"net/http"
	"time"

	"transport-ops-backend/internal/health"
	"transport-ops-backend/internal/websocket"
	"transport-ops-backend/pkg/database"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

type HealthHandler struct {
	db      *mongo.Database
	monitor *health.Monitor
	hub     *websocket.Hub
}

type HealthResponse struct {
	Status     string                 `json:"status"`
	Timestamp  time.Time              `json:"timestamp"`
	Services   map[string]interface{} `json:"services"`
	Monitoring health.Snapshot        `json:"monitoring"`
}

func NewHealthHandler(db *mongo.Database, monitor *health.Monitor, hub *websocket.Hub) *HealthHandler {
	return &HealthHandler{
		db:      db,
		monitor: monitor,
		hub:     hub,
	}
}

// HealthCheck reports liveness plus the monitoring engine's own execution
// health. Operators read trend here, not individual failures.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Timestamp:  time.Now(),
		Services:   make(map[string]interface{}),
		Monitoring: h.monitor.GetSnapshot(),
	}

	overallHealthy := true

	mongoStatus := map[string]interface{}{
		"service": "mongodb",
		"healthy": false,
	}
	if h.db != nil {
		if err := database.Health(h.db); err != nil {
			mongoStatus["error"] = err.Error()
			overallHealthy = false
		} else {
			mongoStatus["healthy"] = true
		}
	} else {
		mongoStatus["error"] = "database client not initialized"
		overallHealthy = false
	}
	response.Services["mongodb"] = mongoStatus

	if h.hub != nil {
		response.Services["alertStream"] = map[string]interface{}{
			"service": "websocket",
			"healthy": true,
			"clients": h.hub.ClientCount(),
		}
	}

	if overallHealthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}
