package routes

import (
	"transport-ops-backend/internal/api/handlers"
	"transport-ops-backend/internal/api/middleware"
	"transport-ops-backend/internal/health"
	"transport-ops-backend/internal/services"
	"transport-ops-backend/internal/websocket"
	"transport-ops-backend/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// Deps carries the services main has already wired; routes only attach
// handlers to paths.
type Deps struct {
	DB           *mongo.Database
	Tokens       *jwt.JWTUtil
	AlertService *services.AlertService
	AuthService  *services.AuthService
	Scanner      *services.ScannerService
	Monitor      *health.Monitor
	Hub          *websocket.Hub
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	alertHandler := handlers.NewAlertHandler(deps.AlertService)
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	systemHandler := handlers.NewSystemHandler(deps.Scanner, deps.Monitor)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Monitor, deps.Hub)
	streamHandler := handlers.NewStreamHandler(deps.Hub)

	router.GET("/health", healthHandler.HealthCheck)

	api := router.Group("/api/v1")

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		alerts := protected.Group("/alerts")
		{
			alerts.GET("", alertHandler.GetAlerts)
			alerts.POST("", alertHandler.TriggerAlert)
			alerts.GET("/stats", alertHandler.GetAlertStatistics)
			alerts.GET("/stream", streamHandler.StreamAlerts)
			alerts.GET("/:id", alertHandler.GetAlert)
			alerts.PATCH("/:id/acknowledge", alertHandler.AcknowledgeAlert)
			alerts.PATCH("/:id/resolve", alertHandler.ResolveAlert)
		}

		system := protected.Group("/system")
		{
			system.POST("/checks", systemHandler.RunChecks)
			system.GET("/monitoring", systemHandler.GetMonitoring)
		}
	}
}
