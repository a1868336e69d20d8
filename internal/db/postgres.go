package db

import (
  "fmt"
  "gorm.io/driver/postgres"
  "gorm.io/driver/sqlite"
  "gorm.io/gorm"
  "github.com/medremind/medremind-backend/internal/types"
  "github.com/medremind/medremind-backend/internal/utils"
  "github.com/medremind/medremind-backend/internal/logger"
)

type PostgresService struct {
  db *gorm.DB
  log *logger.Logger
}

// NewPostgresService opens the configured database. DB_DRIVER=sqlite switches
// to an embedded file database for local development and CI.
func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
  serviceLog := log.With("service", "PostgresService")

  log.Info("Loading environment variables...")
  driver := utils.GetEnv("DB_DRIVER", "postgres", log)
  log.Debug("Environment variables loaded")

  if driver == "sqlite" {
    path := utils.GetEnv("SQLITE_PATH", "medremind.db", log)
    log.Info("Connecting to SQLite...", "path", path)
    gdb, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
    if err != nil {
      log.Error("Failed to connect to SQLite", "error", err)
      return nil, fmt.Errorf("Failed to connect to SQLite: %w", err)
    }
    return &PostgresService{db: gdb, log: serviceLog}, nil
  }

  postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
  postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
  postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
  postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
  postgresName := utils.GetEnv("POSTGRES_NAME", "medremind", log)

  dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

  log.Info("Connecting to Postgres...")
  gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
    DisableForeignKeyConstraintWhenMigrating: true,
  })
  if err != nil {
    log.Error("Failed to connect to Postgres", "error", err)
    return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
  }

  if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
    log.Error("Failed to enable uuid-ossp extension", "error", err)
    return nil, fmt.Errorf("Failed to enable uuid-ossp extension: %w", err)
  }
  log.Info("uuid-ossp extension enabled")

  return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
  s.log.Info("Auto migrating database tables...")
  err := s.db.AutoMigrate(
    &types.PrescriptionAnalysis{},
    &types.Reminder{},
  )
  if err != nil {
    s.log.Error("Auto migration failed for database tables", "error", err)
    return err
  }
  if s.db.Dialector.Name() != "postgres" {
    return nil
  }
  s.log.Info("Configuring foreign key relationships for postgres tables...")
  if err := s.db.Exec(`
    ALTER TABLE "reminder"
    ADD CONSTRAINT "fk_reminder_analysis_id"
    FOREIGN KEY ("analysis_id")
    REFERENCES "prescription_analysis"("id")
    ON DELETE CASCADE
  `).Error; err != nil {
    return fmt.Errorf("Failed to add fk_reminder_analysis_id: %w", err)
  }
  return nil
}

func (s *PostgresService) DB() *gorm.DB {
  return s.db
}
