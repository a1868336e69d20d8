package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileCleanupRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	svc := NewFileCleanupService(testLogger(t))
	svc.Cleanup(path)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("spool file still present")
}

func TestFileCleanupEmptyPathIsNoop(t *testing.T) {
	svc := NewFileCleanupService(testLogger(t))
	svc.Cleanup("")
}
