package handlers

import (
  "net/http"

  "github.com/gin-gonic/gin"
  "github.com/google/uuid"
  "github.com/medremind/medremind-backend/internal/logger"
  "github.com/medremind/medremind-backend/internal/services"
)

type ReminderHandler struct {
  log             *logger.Logger
  reminderService services.ReminderService
}

func NewReminderHandler(log *logger.Logger, rsvc services.ReminderService) *ReminderHandler {
  return &ReminderHandler{
    log:             log.With("handler", "ReminderHandler"),
    reminderService: rsvc,
  }
}

// POST /api/prescriptions/:id/reminders
// Confirms the scheduled plan: turns plan instances into persisted rows.
func (h *ReminderHandler) ConfirmPlan(c *gin.Context) {
  analysisID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "BAD_ANALYSIS_ID", err)
    return
  }
  rows, err := h.reminderService.ConfirmPlan(c.Request.Context(), analysisID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{
    "analysis_id": analysisID.String(),
    "created":     len(rows),
    "reminders":   rows,
  })
}

// GET /api/prescriptions/:id/reminders
func (h *ReminderHandler) ListForAnalysis(c *gin.Context) {
  analysisID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "BAD_ANALYSIS_ID", err)
    return
  }
  rows, err := h.reminderService.ListForAnalysis(c.Request.Context(), analysisID)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"reminders": rows})
}

// GET /api/reminders?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *ReminderHandler) List(c *gin.Context) {
  rows, err := h.reminderService.ListBetween(c.Request.Context(), c.Query("from"), c.Query("to"))
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"reminders": rows})
}

type updateReminderRequest struct {
  Enabled *bool `json:"enabled" binding:"required"`
}

// PATCH /api/reminders/:id
func (h *ReminderHandler) Update(c *gin.Context) {
  reminderID, err := uuid.Parse(c.Param("id"))
  if err != nil {
    RespondError(c, http.StatusBadRequest, "BAD_REMINDER_ID", err)
    return
  }
  var req updateReminderRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "BAD_REQUEST", err)
    return
  }
  row, err := h.reminderService.SetEnabled(c.Request.Context(), reminderID, *req.Enabled)
  if err != nil {
    RespondServiceError(c, err)
    return
  }
  RespondOK(c, gin.H{"reminder": row})
}
