package services

import (
  "context"
  "encoding/json"
  "errors"
  "fmt"
  "net/http"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/medremind/medremind-backend/internal/apierr"
  "github.com/medremind/medremind-backend/internal/clients/redis"
  "github.com/medremind/medremind-backend/internal/logger"
  "github.com/medremind/medremind-backend/internal/prescription"
  "github.com/medremind/medremind-backend/internal/repos"
  "github.com/medremind/medremind-backend/internal/requestdata"
  "github.com/medremind/medremind-backend/internal/types"
)

const maxRawTextBytes = 1 << 20

// AnalysisService runs the full pipeline over one uploaded document and
// serves the lazy option fetches that follow.
type AnalysisService interface {
  AnalyzeUpload(ctx context.Context, originalName, mimeType string, data []byte, startDate string) (*types.PrescriptionAnalysis, *types.AnalysisBundle, error)
  AnalyzeText(ctx context.Context, originalName, rawText, startDate string) (*types.PrescriptionAnalysis, *types.AnalysisBundle, error)
  GetOption(ctx context.Context, analysisID uuid.UUID, optionID string) (any, error)
  List(ctx context.Context, limit int) ([]*types.PrescriptionAnalysis, error)
}

type analysisService struct {
  db        *gorm.DB
  log       *logger.Logger
  analyses  repos.PrescriptionAnalysisRepo
  extractor AIExtractor
  cache     redis.BundleCache
}

func NewAnalysisService(db *gorm.DB, log *logger.Logger, analyses repos.PrescriptionAnalysisRepo, extractor AIExtractor, cache redis.BundleCache) AnalysisService {
  return &analysisService{
    db:        db,
    log:       log.With("service", "AnalysisService"),
    analyses:  analyses,
    extractor: extractor,
    cache:     cache,
  }
}

func (s *analysisService) AnalyzeUpload(ctx context.Context, originalName, mimeType string, data []byte, startDate string) (*types.PrescriptionAnalysis, *types.AnalysisBundle, error) {
  rawText, err := ExtractText(originalName, mimeType, data)
  if err != nil {
    return nil, nil, apierr.New(http.StatusUnprocessableEntity, "TEXT_EXTRACTION_FAILED", err)
  }
  return s.AnalyzeText(ctx, originalName, rawText, startDate)
}

func (s *analysisService) AnalyzeText(ctx context.Context, originalName, rawText, startDate string) (*types.PrescriptionAnalysis, *types.AnalysisBundle, error) {
  userID := requestdata.UserIDFrom(ctx)
  if userID == uuid.Nil {
    return nil, nil, apierr.New(http.StatusUnauthorized, "UNAUTHENTICATED", errors.New("missing user"))
  }
  rawText = strings.TrimSpace(rawText)
  if rawText == "" {
    return nil, nil, apierr.New(http.StatusBadRequest, "EMPTY_DOCUMENT", errors.New("no text to analyze"))
  }
  if len(rawText) > maxRawTextBytes {
    return nil, nil, apierr.New(http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", fmt.Errorf("document is %d bytes", len(rawText)))
  }

  start, err := resolveStartDate(startDate)
  if err != nil {
    return nil, nil, apierr.New(http.StatusBadRequest, "BAD_START_DATE", err)
  }

  doc, source := s.extractor.Extract(ctx, rawText)
  validation := prescription.Validate(doc)

  // Validation gates the rest of the pipeline. A rejected document keeps its
  // extracted entries so the user can see what was read, but no duplicate
  // pass runs and no reminder plan is built for it.
  deduped := doc
  report := types.DuplicateReport{Medications: []types.DuplicateEntry{}, Appointments: []types.DuplicateEntry{}}
  plan := types.ReminderPlan{Summary: types.ScheduleSummary{MedicationsNeedingReview: []types.ReviewItem{}}}
  if validation.IsValid {
    deduped, report = prescription.Resolve(doc)
    plan = prescription.BuildPlan(deduped, start)
  }

  full := &types.FullData{
    Document:   deduped,
    Validation: validation,
    Duplicates: report,
    Plan:       plan,
    StartDate:  start.Format("2006-01-02"),
  }
  bundle := prescription.Analyze(full)

  status := "analyzed"
  if !validation.IsValid {
    status = "rejected"
  }

  bundleJSON, err := json.Marshal(bundle)
  if err != nil {
    return nil, nil, apierr.New(http.StatusInternalServerError, "ENCODE_FAILED", err)
  }
  fullJSON, err := json.Marshal(full)
  if err != nil {
    return nil, nil, apierr.New(http.StatusInternalServerError, "ENCODE_FAILED", err)
  }

  row := &types.PrescriptionAnalysis{
    ID:           uuid.New(),
    UserID:       userID,
    OriginalName: originalName,
    RawText:      rawText,
    Status:       status,
    IsValid:      validation.IsValid,
    Confidence:   validation.Confidence,
    Bundle:       datatypes.JSON(bundleJSON),
    FullData:     datatypes.JSON(fullJSON),
  }
  if _, err := s.analyses.Create(ctx, nil, []*types.PrescriptionAnalysis{row}); err != nil {
    return nil, nil, apierr.New(http.StatusInternalServerError, "PERSIST_FAILED", err)
  }

  if s.cache != nil {
    if err := s.cache.PutFullData(ctx, row.ID, full); err != nil {
      s.log.Warn("bundle cache write failed", "analysis_id", row.ID, "error", err)
    }
  }

  s.log.Info("analysis complete",
    "analysis_id", row.ID,
    "source", source,
    "status", status,
    "confidence", validation.Confidence,
    "medications", len(deduped.Medications),
    "reminders", plan.Summary.TotalReminders,
  )
  return row, &bundle, nil
}

func (s *analysisService) GetOption(ctx context.Context, analysisID uuid.UUID, optionID string) (any, error) {
  userID := requestdata.UserIDFrom(ctx)
  if userID == uuid.Nil {
    return nil, apierr.New(http.StatusUnauthorized, "UNAUTHENTICATED", errors.New("missing user"))
  }

  full, err := s.loadFullData(ctx, analysisID, userID)
  if err != nil {
    return nil, err
  }
  data, err := prescription.GetDataByOption(full, optionID)
  if err != nil {
    if errors.Is(err, prescription.ErrOptionNotFound) {
      return nil, apierr.New(http.StatusNotFound, "OPTION_NOT_FOUND", fmt.Errorf("unknown option %q", optionID))
    }
    return nil, apierr.New(http.StatusInternalServerError, "OPTION_FAILED", err)
  }
  return data, nil
}

func (s *analysisService) List(ctx context.Context, limit int) ([]*types.PrescriptionAnalysis, error) {
  userID := requestdata.UserIDFrom(ctx)
  if userID == uuid.Nil {
    return nil, apierr.New(http.StatusUnauthorized, "UNAUTHENTICATED", errors.New("missing user"))
  }
  rows, err := s.analyses.ListByUser(ctx, nil, userID, limit)
  if err != nil {
    return nil, apierr.New(http.StatusInternalServerError, "LIST_FAILED", err)
  }
  return rows, nil
}

// loadFullData prefers the cache and falls back to the persisted row,
// re-warming the cache on the way out.
func (s *analysisService) loadFullData(ctx context.Context, analysisID, userID uuid.UUID) (*types.FullData, error) {
  row, err := s.analyses.GetByIDForUser(ctx, nil, analysisID, userID)
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, apierr.New(http.StatusNotFound, "ANALYSIS_NOT_FOUND", fmt.Errorf("analysis %s not found", analysisID))
    }
    return nil, apierr.New(http.StatusInternalServerError, "LOAD_FAILED", err)
  }

  if s.cache != nil {
    if full, err := s.cache.GetFullData(ctx, analysisID); err == nil {
      return full, nil
    } else if !errors.Is(err, redis.ErrCacheMiss) {
      s.log.Warn("bundle cache read failed", "analysis_id", analysisID, "error", err)
    }
  }

  var full types.FullData
  if err := json.Unmarshal(row.FullData, &full); err != nil {
    return nil, apierr.New(http.StatusInternalServerError, "DECODE_FAILED", err)
  }
  if s.cache != nil {
    if err := s.cache.PutFullData(ctx, analysisID, &full); err != nil {
      s.log.Warn("bundle cache rewarm failed", "analysis_id", analysisID, "error", err)
    }
  }
  return &full, nil
}

func resolveStartDate(startDate string) (time.Time, error) {
  if strings.TrimSpace(startDate) == "" {
    return time.Now().UTC(), nil
  }
  t, err := time.Parse("2006-01-02", strings.TrimSpace(startDate))
  if err != nil {
    return time.Time{}, fmt.Errorf("start_date must be YYYY-MM-DD: %w", err)
  }
  return t, nil
}
