package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/medremind/medremind-backend/internal/logger"
  "github.com/medremind/medremind-backend/internal/types"
)

type ReminderRepo interface {
  Create(ctx context.Context, tx *gorm.DB, reminders []*types.Reminder) ([]*types.Reminder, error)
  GetByID(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) (*types.Reminder, error)
  ListByAnalysis(ctx context.Context, tx *gorm.DB, analysisID uuid.UUID) ([]*types.Reminder, error)
  ListByUserBetween(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fromDate, toDate string) ([]*types.Reminder, error)
  SetEnabled(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID, enabled bool) error
  DeleteByAnalysis(ctx context.Context, tx *gorm.DB, analysisID uuid.UUID) error
}

type reminderRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewReminderRepo(db *gorm.DB, baseLog *logger.Logger) ReminderRepo {
  repoLog := baseLog.With("repo", "ReminderRepo")
  return &reminderRepo{db: db, log: repoLog}
}

func (rr *reminderRepo) Create(ctx context.Context, tx *gorm.DB, reminders []*types.Reminder) ([]*types.Reminder, error) {
  transaction := tx
  if transaction == nil {
    transaction = rr.db
  }

  if len(reminders) == 0 {
    return []*types.Reminder{}, nil
  }

  if err := transaction.WithContext(ctx).CreateInBatches(&reminders, 200).Error; err != nil {
    return nil, err
  }

  return reminders, nil
}

func (rr *reminderRepo) GetByID(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID) (*types.Reminder, error) {
  transaction := tx
  if transaction == nil {
    transaction = rr.db
  }

  var result types.Reminder

  if err := transaction.WithContext(ctx).
    Where("id = ?", reminderID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (rr *reminderRepo) ListByAnalysis(ctx context.Context, tx *gorm.DB, analysisID uuid.UUID) ([]*types.Reminder, error) {
  transaction := tx
  if transaction == nil {
    transaction = rr.db
  }

  var results []*types.Reminder

  if err := transaction.WithContext(ctx).
    Where("analysis_id = ?", analysisID).
    Order("remind_date ASC, remind_time ASC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (rr *reminderRepo) ListByUserBetween(ctx context.Context, tx *gorm.DB, userID uuid.UUID, fromDate, toDate string) ([]*types.Reminder, error) {
  transaction := tx
  if transaction == nil {
    transaction = rr.db
  }

  var results []*types.Reminder

  query := transaction.WithContext(ctx).
    Joins(`JOIN "prescription_analysis" ON "prescription_analysis"."id" = "reminder"."analysis_id"`).
    Where(`"prescription_analysis"."user_id" = ?`, userID)
  if fromDate != "" {
    query = query.Where(`"reminder"."remind_date" >= ?`, fromDate)
  }
  if toDate != "" {
    query = query.Where(`"reminder"."remind_date" <= ?`, toDate)
  }
  if err := query.
    Order(`"reminder"."remind_date" ASC, "reminder"."remind_time" ASC`).
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (rr *reminderRepo) SetEnabled(ctx context.Context, tx *gorm.DB, reminderID uuid.UUID, enabled bool) error {
  transaction := tx
  if transaction == nil {
    transaction = rr.db
  }

  return transaction.WithContext(ctx).
    Model(&types.Reminder{}).
    Where("id = ?", reminderID).
    Update("enabled", enabled).Error
}

func (rr *reminderRepo) DeleteByAnalysis(ctx context.Context, tx *gorm.DB, analysisID uuid.UUID) error {
  transaction := tx
  if transaction == nil {
    transaction = rr.db
  }

  return transaction.WithContext(ctx).
    Where("analysis_id = ?", analysisID).
    Delete(&types.Reminder{}).Error
}
