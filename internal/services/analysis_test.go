package services

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/medremind/medremind-backend/internal/prescription"
	"github.com/medremind/medremind-backend/internal/repos"
	"github.com/medremind/medremind-backend/internal/requestdata"
	"github.com/medremind/medremind-backend/internal/types"
)

type fakeExtractor struct {
	doc types.ExtractedDocument
}

func (f *fakeExtractor) Extract(ctx context.Context, rawText string) (types.ExtractedDocument, string) {
	return f.doc, "rule_based"
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&types.PrescriptionAnalysis{}, &types.Reminder{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func userCtx() context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: uuid.New()})
}

func sPtr(s string) *string { return &s }

func newTestAnalysisService(t *testing.T, doc types.ExtractedDocument) AnalysisService {
	t.Helper()
	db := testDB(t)
	log := testLogger(t)
	return NewAnalysisService(db, log, repos.NewPrescriptionAnalysisRepo(db, log), &fakeExtractor{doc: doc}, nil)
}

func TestAnalyzeTextRejectedDocumentSkipsScheduling(t *testing.T) {
	// An implausible 61-entry document must be rejected before scheduling:
	// no reminder plan is built or persisted, and the catalog offers no
	// confirmation action.
	meds := make([]types.Medication, 0, 61)
	for i := 0; i < 61; i++ {
		meds = append(meds, types.Medication{Name: fmt.Sprintf("Thuốc số %d", i)})
	}
	svc := newTestAnalysisService(t, types.ExtractedDocument{Medications: meds})

	row, bundle, err := svc.AnalyzeText(userCtx(), "don.txt", "raw text", "2025-08-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Status != "rejected" || row.IsValid {
		t.Fatalf("status = %q, is_valid = %v", row.Status, row.IsValid)
	}
	if bundle.Summary.TotalReminders != 0 {
		t.Fatalf("rejected analysis scheduled %d reminders", bundle.Summary.TotalReminders)
	}
	if len(bundle.Options.ActionOptions) != 0 {
		t.Fatalf("rejected analysis advertises actions: %+v", bundle.Options.ActionOptions)
	}

	var full types.FullData
	if err := json.Unmarshal(row.FullData, &full); err != nil {
		t.Fatalf("decode persisted full data: %v", err)
	}
	if len(full.Plan.Medications) != 0 || len(full.Plan.Appointments) != 0 {
		t.Fatalf("rejected analysis persisted a plan: %d med + %d appt instances",
			len(full.Plan.Medications), len(full.Plan.Appointments))
	}
}

func TestAnalyzeTextValidDocumentBuildsPlan(t *testing.T) {
	three := 3
	doc := types.ExtractedDocument{Medications: []types.Medication{{
		Name:            "Paracetamol",
		DosageText:      sPtr("500mg"),
		FrequencyPerDay: &three,
	}}}
	svc := newTestAnalysisService(t, doc)
	ctx := userCtx()

	row, bundle, err := svc.AnalyzeText(ctx, "don.txt", "raw text", "2025-08-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Status != "analyzed" || !row.IsValid {
		t.Fatalf("status = %q, is_valid = %v", row.Status, row.IsValid)
	}
	// 3 doses per day over the default 7-day horizon.
	if bundle.Summary.TotalReminders != 21 {
		t.Fatalf("total reminders = %d", bundle.Summary.TotalReminders)
	}
	foundCreate := false
	for _, opt := range bundle.Options.ActionOptions {
		if opt.ID == prescription.OptionCreate {
			foundCreate = true
		}
	}
	if !foundCreate {
		t.Fatalf("valid analysis missing the create action: %+v", bundle.Options.ActionOptions)
	}

	// Option fetch goes through the persisted row when no cache is wired.
	data, err := svc.GetOption(ctx, row.ID, prescription.OptionRemindersToday)
	if err != nil {
		t.Fatalf("option fetch: %v", err)
	}
	instances, ok := data.([]types.ReminderInstance)
	if !ok || len(instances) != 3 {
		t.Fatalf("reminders today = %#v", data)
	}
}
