package repos

import (
  "context"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/medremind/medremind-backend/internal/logger"
  "github.com/medremind/medremind-backend/internal/types"
)

type PrescriptionAnalysisRepo interface {
  Create(ctx context.Context, tx *gorm.DB, analyses []*types.PrescriptionAnalysis) ([]*types.PrescriptionAnalysis, error)
  GetByID(ctx context.Context, tx *gorm.DB, analysisID uuid.UUID) (*types.PrescriptionAnalysis, error)
  GetByIDForUser(ctx context.Context, tx *gorm.DB, analysisID, userID uuid.UUID) (*types.PrescriptionAnalysis, error)
  ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.PrescriptionAnalysis, error)
  UpdateStatus(ctx context.Context, tx *gorm.DB, analysisID uuid.UUID, status string) error
}

type prescriptionAnalysisRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewPrescriptionAnalysisRepo(db *gorm.DB, baseLog *logger.Logger) PrescriptionAnalysisRepo {
  repoLog := baseLog.With("repo", "PrescriptionAnalysisRepo")
  return &prescriptionAnalysisRepo{db: db, log: repoLog}
}

func (pr *prescriptionAnalysisRepo) Create(ctx context.Context, tx *gorm.DB, analyses []*types.PrescriptionAnalysis) ([]*types.PrescriptionAnalysis, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  if len(analyses) == 0 {
    return []*types.PrescriptionAnalysis{}, nil
  }

  if err := transaction.WithContext(ctx).Create(&analyses).Error; err != nil {
    return nil, err
  }

  return analyses, nil
}

func (pr *prescriptionAnalysisRepo) GetByID(ctx context.Context, tx *gorm.DB, analysisID uuid.UUID) (*types.PrescriptionAnalysis, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var result types.PrescriptionAnalysis

  if err := transaction.WithContext(ctx).
    Where("id = ?", analysisID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (pr *prescriptionAnalysisRepo) GetByIDForUser(ctx context.Context, tx *gorm.DB, analysisID, userID uuid.UUID) (*types.PrescriptionAnalysis, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var result types.PrescriptionAnalysis

  if err := transaction.WithContext(ctx).
    Where("id = ? AND user_id = ?", analysisID, userID).
    First(&result).Error; err != nil {
    return nil, err
  }
  return &result, nil
}

func (pr *prescriptionAnalysisRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID, limit int) ([]*types.PrescriptionAnalysis, error) {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  var results []*types.PrescriptionAnalysis

  query := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at DESC")
  if limit > 0 {
    query = query.Limit(limit)
  }
  if err := query.Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (pr *prescriptionAnalysisRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, analysisID uuid.UUID, status string) error {
  transaction := tx
  if transaction == nil {
    transaction = pr.db
  }

  return transaction.WithContext(ctx).
    Model(&types.PrescriptionAnalysis{}).
    Where("id = ?", analysisID).
    Update("status", status).Error
}
