package server

import (
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "github.com/medremind/medremind-backend/internal/handlers"
  "github.com/medremind/medremind-backend/internal/middleware"
)

type RouterConfig struct {
  AuthMiddleware    *middleware.AuthMiddleware
  AnalysisHandler   *handlers.AnalysisHandler
  ReminderHandler   *handlers.ReminderHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()

  // Cors
  router.Use(cors.New(cors.Config{
    AllowOrigins: []string{
      "http://localhost:80",
      "http://localhost:3000",
      "http://localhost:5174",
    },
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)

// ===============
// || Protected ||
// ===============
  api := router.Group("/api")
  api.Use(cfg.AuthMiddleware.RequireAuth())
  // Prescriptions
  api.POST("/prescriptions/analyze", cfg.AnalysisHandler.Analyze)
  api.GET("/prescriptions", cfg.AnalysisHandler.List)
  api.GET("/prescriptions/:id/options/:optionID", cfg.AnalysisHandler.GetOption)
  // Reminders
  api.POST("/prescriptions/:id/reminders", cfg.ReminderHandler.ConfirmPlan)
  api.GET("/prescriptions/:id/reminders", cfg.ReminderHandler.ListForAnalysis)
  api.GET("/reminders", cfg.ReminderHandler.List)
  api.PATCH("/reminders/:id", cfg.ReminderHandler.Update)

  return router
}
