package main

import (
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"printfarm-backend/internal/config"
	"printfarm-backend/internal/database"
	"printfarm-backend/internal/handlers"
	"printfarm-backend/internal/middleware"
	"printfarm-backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

// parseInt parses a string to int with a default value
func parseInt(s string, defaultValue int) int {
	if parsed, err := strconv.Atoi(s); err == nil {
		return parsed
	}
	return defaultValue
}

func main() {
	// Load .env file if it exists (must be done before checking GIN_MODE)
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading: %v", err)
	} else {
		log.Println("Loaded .env file")
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	defer db.Close()

	printerService := services.NewPrinterService(db)
	statsService := services.NewPrinterStatsService(db)
	projectService := services.NewProjectService(db)
	rollupService := services.NewRollupService(db)
	jobTracker := services.NewJobTrackerService(db, rollupService)
	autoComplete := services.NewAutoCompleteService(db, rollupService)
	reconciler := services.NewFleetReconciler(printerService, jobTracker, autoComplete)
	syncService := services.NewSyncService(printerService, statsService, reconciler)

	// Optional in-process scheduler: only runs when a collector endpoint is
	// configured. Deployments driven by external cron hit the sync endpoints
	// instead.
	var collector services.CollectorFunc
	if collectorURL := os.Getenv("BAMBU_COLLECTOR_URL"); collectorURL != "" {
		collector = services.NewHTTPCollector(
			collectorURL,
			os.Getenv("BAMBU_COLLECTOR_SECRET"),
			30*time.Second,
		)
		scheduler := services.NewSyncScheduler(
			syncService,
			collector,
			time.Duration(cfg.BambuSyncIntervalSeconds)*time.Second,
			cfg.BambuSyncIntervalSeconds,
		)
		scheduler.Start()
		defer scheduler.Stop()
	} else {
		log.Println("BAMBU_COLLECTOR_URL not set, sync scheduler disabled")
	}

	officeHours := services.OfficeHoursFromStrings(cfg.OfficeStartTime, cfg.OfficeEndTime)
	launchWindow := services.LaunchWindowFromStrings(cfg.LaunchStartTime, cfg.LaunchEndTime)

	handler := handlers.NewHandler(printerService, statsService, projectService, syncService,
		collector, officeHours, launchWindow,
		cfg.BambuSyncIntervalSeconds, cfg.ElegooSyncIntervalSeconds)

	authMiddleware := middleware.NewAuthMiddleware(cfg.APIKey)

	rateLimitRequests := 120
	if customLimit := os.Getenv("RATE_LIMIT_REQUESTS_PER_MINUTE"); customLimit != "" {
		if parsed := parseInt(customLimit, 120); parsed > 0 {
			rateLimitRequests = parsed
		}
	}
	rateLimiter := middleware.NewRateLimiter(rateLimitRequests, time.Minute)

	r := gin.Default()

	r.Use(middleware.RecoveryMiddleware())
	r.Use(rateLimiter.Middleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Machine-to-machine sync endpoints, each guarded by its own secret.
	// POST bodies carry collector results; the GET variant pulls from the
	// configured collector itself (for external cron).
	r.POST("/api/printers/sync", middleware.BearerSecret(cfg.CronSecret), handler.SyncPrinters)
	r.GET("/api/printers/sync", middleware.BearerSecret(cfg.CronSecret), handler.TriggerSync)
	r.POST("/api/printers/elegoo-sync", middleware.BearerSecret(cfg.ElegooHubSecret), handler.ElegooSync)

	api := r.Group("/api")
	api.Use(authMiddleware.Authenticate())
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "healthy",
				"message": "Printfarm API is running",
			})
		})

		api.GET("/printers", handler.GetPrinters)
		api.GET("/printers/:id/jobs", handler.GetPrinterJobs)
		api.GET("/printers/:id/stats", handler.GetPrinterStats)
		api.GET("/projects", handler.GetProjects)
		api.GET("/projects/:id", handler.GetProject)
		api.GET("/estimate", handler.EstimatePrintTime)
	}

	log.Printf("Starting server on port %s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
