package main

import (
  "fmt"
  "os"
  "github.com/medremind/medremind-backend/internal/logger"
  "github.com/medremind/medremind-backend/internal/utils"
  "github.com/medremind/medremind-backend/internal/db"
  "github.com/medremind/medremind-backend/internal/repos"
  "github.com/medremind/medremind-backend/internal/services"
  "github.com/medremind/medremind-backend/internal/handlers"
  "github.com/medremind/medremind-backend/internal/middleware"
  "github.com/medremind/medremind-backend/internal/server"
  "github.com/medremind/medremind-backend/internal/clients/redis"
)

func main() {
  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Database
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Database init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Repos
  log.Info("Setting up Repos from main...")
  analysisRepo := repos.NewPrescriptionAnalysisRepo(thePG, log)
  reminderRepo := repos.NewReminderRepo(thePG, log)

  // Cache
  bundleCache, err := redis.NewBundleCache(log)
  if err != nil {
    log.Warn("Could not init bundle cache, option fetches fall back to the database", "error", err)
    bundleCache = nil
  }

  // Services
  log.Info("Setting up Services from main...")
  providers := services.NewAIProviders(log)
  log.Info("AI providers configured", "count", len(providers))
  extractor := services.NewAIExtractor(log, providers)
  cleanupService := services.NewFileCleanupService(log)
  analysisService := services.NewAnalysisService(thePG, log, analysisRepo, extractor, bundleCache)
  reminderService := services.NewReminderService(thePG, log, analysisRepo, reminderRepo)

  // Handlers
  log.Info("Setting up handlers from main...")
  analysisHandler := handlers.NewAnalysisHandler(log, analysisService, cleanupService)
  reminderHandler := handlers.NewReminderHandler(log, reminderService)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware, err := middleware.NewAuthMiddleware(log)
  if err != nil {
    log.Error("Could not init AuthMiddleware", "error", err)
    os.Exit(1)
  }

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AuthMiddleware:  authMiddleware,
    AnalysisHandler: analysisHandler,
    ReminderHandler: reminderHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Warn("Server failed", "error", err)
  }
}
