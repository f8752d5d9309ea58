package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"transport-ops-backend/internal/api/routes"
	"transport-ops-backend/internal/config"
	"transport-ops-backend/internal/health"
	"transport-ops-backend/internal/repository"
	"transport-ops-backend/internal/scheduler"
	"transport-ops-backend/internal/services"
	"transport-ops-backend/internal/websocket"
	"transport-ops-backend/pkg/cleanup"
	"transport-ops-backend/pkg/database"
	"transport-ops-backend/pkg/jwt"
	"transport-ops-backend/pkg/notify"
	"transport-ops-backend/pkg/suppress"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer database.Disconnect(db.Client())

	// Repositories
	alertRepo := repository.NewAlertRepository(db)
	vehicleRepo := repository.NewVehicleRepository(db)
	userRepo := repository.NewUserRepository(db)
	bookingRepo := repository.NewBookingRepository(db)

	if err := alertRepo.CreateIndexes(); err != nil {
		log.Printf("Warning: Failed to create alert indexes: %v", err)
	}

	// Notification dispatcher
	emailSender, err := notify.NewEmailSender(
		cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password,
		cfg.SMTP.FromEmail, cfg.SMTP.FromName,
	)
	if err != nil {
		log.Fatal("Failed to initialize email sender:", err)
	}
	dispatcher := notify.NewService(emailSender, notify.NewGatewaySender(cfg.SMSGatewayURL, cfg.PushGatewayURL))

	// Live alert stream
	hub := websocket.NewHub()
	hub.Start()
	defer hub.Stop()

	// Engine
	monitor := health.NewMonitor()
	router := services.NewNotificationRouter(userRepo, dispatcher)
	alertService := services.NewAlertService(alertRepo, router)
	alertService.SetStream(hub)

	scanner := services.NewScannerService(vehicleRepo, alertService, monitor)
	suppressor := suppress.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.SuppressionWindow)
	defer suppressor.Close()
	scanner.SetSuppressor(suppressor)
	alertService.SetSuppressor(suppressor)

	reminders := services.NewReminderService(bookingRepo, userRepo, dispatcher)
	retention := cleanup.NewRetentionService(alertRepo, cfg.AlertRetention)

	tokens := jwt.New(cfg.JWTSecret, cfg.JWTExpiry)
	authService := services.NewAuthService(userRepo, tokens)

	// Scheduler
	sched := scheduler.New(monitor)
	jobs := []scheduler.Job{
		{
			Name:      "system_checks",
			Cadence:   cfg.Cron.SystemChecks,
			Run:       scanner.RunAllChecks,
			Monitored: true,
		},
		{
			Name:    "booking_reminders",
			Cadence: cfg.Cron.BookingReminders,
			Run: func(ctx context.Context) error {
				return reminders.SendBookingReminders()
			},
		},
		{
			Name:    "subscription_notices",
			Cadence: cfg.Cron.SubscriptionMails,
			Run: func(ctx context.Context) error {
				return reminders.SendSubscriptionNotices()
			},
		},
		{
			Name:    "alert_cleanup",
			Cadence: cfg.Cron.AlertCleanup,
			Run: func(ctx context.Context) error {
				return retention.Run()
			},
		},
	}
	for _, job := range jobs {
		if err := sched.Register(job); err != nil {
			log.Fatalf("Failed to register job %s: %v", job.Name, err)
		}
	}
	sched.Start()

	// HTTP server
	engine := gin.Default()

	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length"},
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	engine.Use(cors.New(corsConfig))

	routes.SetupRoutes(engine, routes.Deps{
		DB:           db,
		Tokens:       tokens,
		AlertService: alertService,
		AuthService:  authService,
		Scanner:      scanner,
		Monitor:      monitor,
		Hub:          hub,
	})

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed:", err)
		}
	}()

	// Graceful shutdown: stop timers first so no new scans start, then
	// drain HTTP.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sched.Shutdown(shutdownCtx)

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
}
