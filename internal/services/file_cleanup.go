package services

import (
  "os"
  "time"

  "github.com/medremind/medremind-backend/internal/logger"
)

// FileCleanupService removes spooled upload files once analysis has consumed
// them. Deletion is best effort with retries; a leaked temp file is a disk
// hygiene problem, never a request failure.
type FileCleanupService interface {
  Cleanup(path string)
}

type fileCleanupService struct {
  log        *logger.Logger
  maxRetries int
  backoff    time.Duration
}

func NewFileCleanupService(log *logger.Logger) FileCleanupService {
  return &fileCleanupService{
    log:        log.With("service", "FileCleanupService"),
    maxRetries: 3,
    backoff:    500 * time.Millisecond,
  }
}

func (s *fileCleanupService) Cleanup(path string) {
  if path == "" {
    return
  }
  go s.removeWithRetry(path)
}

func (s *fileCleanupService) removeWithRetry(path string) {
  backoff := s.backoff
  for attempt := 0; attempt <= s.maxRetries; attempt++ {
    err := os.Remove(path)
    if err == nil || os.IsNotExist(err) {
      return
    }
    if attempt == s.maxRetries {
      s.log.Error("temp file cleanup failed, leaking file", "path", path, "error", err)
      return
    }
    s.log.Warn("temp file cleanup retrying", "path", path, "attempt", attempt+1, "error", err)
    time.Sleep(backoff)
    backoff *= 2
  }
}
