package handlers

import (
  "fmt"
  "net/http"
  "os"
  "path/filepath"
  "strconv"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/medremind/medremind-backend/internal/logger"
  "github.com/medremind/medremind-backend/internal/services"
  "github.com/medremind/medremind-backend/internal/types"
)

const maxUploadBytes = 20 << 20

type AnalysisHandler struct {
  log             *logger.Logger
  analysisService services.AnalysisService
  cleanupService  services.FileCleanupService
}

func NewAnalysisHandler(log *logger.Logger, asvc services.AnalysisService, csvc services.FileCleanupService) *AnalysisHandler {
  return &AnalysisHandler{
    log:             log.With("handler", "AnalysisHandler"),
    analysisService: asvc,
    cleanupService:  csvc,
  }
}

type analyzeTextRequest struct {
  RawText      string `json:"raw_text" binding:"required"`
  OriginalName string `json:"original_name"`
  StartDate    string `json:"start_date"`
}

type analyzeResponse struct {
  AnalysisID string               `json:"analysis_id"`
  Status     string               `json:"status"`
  IsValid    bool                 `json:"is_valid"`
  Confidence int                  `json:"confidence"`
  Bundle     types.AnalysisBundle `json:"bundle"`
}

// POST /api/prescriptions/analyze
// Accepts either a multipart upload (field "file") or a JSON body with the
// raw text. Responds with the compact bundle; detail is fetched by option id.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
  contentType := c.ContentType()
  if contentType == "multipart/form-data" {
    h.analyzeUpload(c)
    return
  }

  var req analyzeTextRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "BAD_REQUEST", err)
    return
  }
  name := req.OriginalName
  if name == "" {
    name = "pasted-text"
  }
  row, bundle, err := h.analysisService.AnalyzeText(c.Request.Context(), name, req.RawText, req.StartDate)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  respondAnalysis(c, row, bundle)
}

func (h *AnalysisHandler) analyzeUpload(c *gin.Context) {
  fileHeader, err := c.FormFile("file")
  if err != nil {
    RespondError(c, http.StatusBadRequest, "MISSING_FILE", err)
    return
  }
  if fileHeader.Size > maxUploadBytes {
    RespondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", fmt.Errorf("file is %d bytes", fileHeader.Size))
    return
  }
  // Spool to disk first so a slow multipart read never holds the request
  // body open while analysis runs; the spool file is removed after use.
  spoolPath := filepath.Join(os.TempDir(), "medremind-upload-"+uuid.NewString())
  if err := c.SaveUploadedFile(fileHeader, spoolPath); err != nil {
    RespondError(c, http.StatusBadRequest, "BAD_FILE", err)
    return
  }
  defer h.cleanupService.Cleanup(spoolPath)

  data, err := os.ReadFile(spoolPath)
  if err != nil {
    RespondError(c, http.StatusInternalServerError, "SPOOL_READ_FAILED", err)
    return
  }

  row, bundle, err := h.analysisService.AnalyzeUpload(
    c.Request.Context(),
    fileHeader.Filename,
    fileHeader.Header.Get("Content-Type"),
    data,
    c.PostForm("start_date"),
  )
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  respondAnalysis(c, row, bundle)
}

func respondAnalysis(c *gin.Context, row *types.PrescriptionAnalysis, bundle *types.AnalysisBundle) {
  RespondOK(c, analyzeResponse{
    AnalysisID: row.ID.String(),
    Status:     row.Status,
    IsValid:    row.IsValid,
    Confidence: row.Confidence,
    Bundle:     *bundle,
  })
}

// GET /api/prescriptions
func (h *AnalysisHandler) List(c *gin.Context) {
  limit := 20
  if raw := c.Query("limit"); raw != "" {
    if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
      limit = parsed
    }
  }
  rows, err := h.analysisService.List(c.Request.Context(), limit)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"analyses": rows})
}

// GET /api/prescriptions/:id/options/:optionID
// The lazy half of the analyze response: resolves one option id against the
// retained full data.
func (h *AnalysisHandler) GetOption(c *gin.Context) {
  analysisID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "BAD_ANALYSIS_ID", err)
    return
  }
  optionID := c.Param("optionID")

  data, err := h.analysisService.GetOption(c.Request.Context(), analysisID, optionID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{
    "analysis_id": analysisID.String(),
    "option_id":   optionID,
    "data":        data,
  })
}
