package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "net/http"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/medremind/medremind-backend/internal/apierr"
  "github.com/medremind/medremind-backend/internal/logger"
  "github.com/medremind/medremind-backend/internal/repos"
  "github.com/medremind/medremind-backend/internal/requestdata"
  "github.com/medremind/medremind-backend/internal/types"
)

// ReminderService persists a scheduled plan once the user confirms it and
// serves the persisted rows afterwards. Analysis alone never writes here.
type ReminderService interface {
  ConfirmPlan(ctx context.Context, analysisID uuid.UUID) ([]*types.Reminder, error)
  ListForAnalysis(ctx context.Context, analysisID uuid.UUID) ([]*types.Reminder, error)
  ListBetween(ctx context.Context, fromDate, toDate string) ([]*types.Reminder, error)
  SetEnabled(ctx context.Context, reminderID uuid.UUID, enabled bool) (*types.Reminder, error)
}

type reminderService struct {
  db        *gorm.DB
  log       *logger.Logger
  analyses  repos.PrescriptionAnalysisRepo
  reminders repos.ReminderRepo
}

func NewReminderService(db *gorm.DB, log *logger.Logger, analyses repos.PrescriptionAnalysisRepo, reminders repos.ReminderRepo) ReminderService {
  return &reminderService{
    db:        db,
    log:       log.With("service", "ReminderService"),
    analyses:  analyses,
    reminders: reminders,
  }
}

// ConfirmPlan replaces any previously confirmed rows for the analysis, so a
// repeated confirm is idempotent rather than additive.
func (s *reminderService) ConfirmPlan(ctx context.Context, analysisID uuid.UUID) ([]*types.Reminder, error) {
  userID := requestdata.UserIDFrom(ctx)
  if userID == uuid.Nil {
    return nil, apierr.New(http.StatusUnauthorized, "UNAUTHENTICATED", errors.New("missing user"))
  }

  row, err := s.analyses.GetByIDForUser(ctx, nil, analysisID, userID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, apierr.New(http.StatusNotFound, "ANALYSIS_NOT_FOUND", fmt.Errorf("analysis %s not found", analysisID))
    }
    return nil, apierr.New(http.StatusInternalServerError, "LOAD_FAILED", err)
  }
  if row.Status == "rejected" {
    return nil, apierr.New(http.StatusConflict, "ANALYSIS_REJECTED", errors.New("a rejected analysis cannot be confirmed"))
  }

  var full types.FullData
  if err := json.Unmarshal(row.FullData, &full); err != nil {
    return nil, apierr.New(http.StatusInternalServerError, "DECODE_FAILED", err)
  }

  rows := planToRows(analysisID, full.Plan)
  err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if err := s.reminders.DeleteByAnalysis(ctx, tx, analysisID); err != nil {
      return err
    }
    if _, err := s.reminders.Create(ctx, tx, rows); err != nil {
      return err
    }
    return s.analyses.UpdateStatus(ctx, tx, analysisID, "confirmed")
  })
  if err != nil {
    return nil, apierr.New(http.StatusInternalServerError, "CONFIRM_FAILED", err)
  }

  s.log.Info("plan confirmed", "analysis_id", analysisID, "reminders", len(rows))
  return rows, nil
}

func (s *reminderService) ListForAnalysis(ctx context.Context, analysisID uuid.UUID) ([]*types.Reminder, error) {
  userID := requestdata.UserIDFrom(ctx)
  if userID == uuid.Nil {
    return nil, apierr.New(http.StatusUnauthorized, "UNAUTHENTICATED", errors.New("missing user"))
  }
  if _, err := s.analyses.GetByIDForUser(ctx, nil, analysisID, userID); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, apierr.New(http.StatusNotFound, "ANALYSIS_NOT_FOUND", fmt.Errorf("analysis %s not found", analysisID))
    }
    return nil, apierr.New(http.StatusInternalServerError, "LOAD_FAILED", err)
  }
  rows, err := s.reminders.ListByAnalysis(ctx, nil, analysisID)
  if err != nil {
    return nil, apierr.New(http.StatusInternalServerError, "LIST_FAILED", err)
  }
  return rows, nil
}

func (s *reminderService) ListBetween(ctx context.Context, fromDate, toDate string) ([]*types.Reminder, error) {
  userID := requestdata.UserIDFrom(ctx)
  if userID == uuid.Nil {
    return nil, apierr.New(http.StatusUnauthorized, "UNAUTHENTICATED", errors.New("missing user"))
  }
  rows, err := s.reminders.ListByUserBetween(ctx, nil, userID, fromDate, toDate)
  if err != nil {
    return nil, apierr.New(http.StatusInternalServerError, "LIST_FAILED", err)
  }
  return rows, nil
}

func (s *reminderService) SetEnabled(ctx context.Context, reminderID uuid.UUID, enabled bool) (*types.Reminder, error) {
  userID := requestdata.UserIDFrom(ctx)
  if userID == uuid.Nil {
    return nil, apierr.New(http.StatusUnauthorized, "UNAUTHENTICATED", errors.New("missing user"))
  }

  row, err := s.reminders.GetByID(ctx, nil, reminderID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, apierr.New(http.StatusNotFound, "REMINDER_NOT_FOUND", fmt.Errorf("reminder %s not found", reminderID))
    }
    return nil, apierr.New(http.StatusInternalServerError, "LOAD_FAILED", err)
  }
  if _, err := s.analyses.GetByIDForUser(ctx, nil, row.AnalysisID, userID); err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, apierr.New(http.StatusNotFound, "REMINDER_NOT_FOUND", fmt.Errorf("reminder %s not found", reminderID))
    }
    return nil, apierr.New(http.StatusInternalServerError, "LOAD_FAILED", err)
  }

  if err := s.reminders.SetEnabled(ctx, nil, reminderID, enabled); err != nil {
    return nil, apierr.New(http.StatusInternalServerError, "UPDATE_FAILED", err)
  }
  row.Enabled = enabled
  return row, nil
}

func planToRows(analysisID uuid.UUID, plan types.ReminderPlan) []*types.Reminder {
  instances := make([]types.ReminderInstance, 0, len(plan.Medications)+len(plan.Appointments))
  instances = append(instances, plan.Medications...)
  instances = append(instances, plan.Appointments...)

  rows := make([]*types.Reminder, 0, len(instances))
  for _, inst := range instances {
    id, err := uuid.Parse(inst.ID)
    if err != nil {
      id = uuid.New()
    }
    rows = append(rows, &types.Reminder{
      ID:                id,
      AnalysisID:        analysisID,
      Kind:              string(inst.Kind),
      RefName:           inst.RefName,
      RemindDate:        inst.Date,
      RemindTime:        inst.Time,
      IsDefaultSchedule: inst.IsDefaultSchedule,
      Enabled:           inst.Enabled,
    })
  }
  return rows
}
