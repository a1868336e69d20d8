package prescription

import (
	"testing"
	"time"

	"github.com/medremind/medremind-backend/internal/types"
)

// End-to-end run over a realistic joined extraction blob, covering every
// pipeline stage in order.
func TestPipelineRealisticPrescription(t *testing.T) {
	text := "BỆNH VIỆN ĐA KHOA THÀNH PHỐ Ngày kê đơn: 20-08-2025 " +
		"1. Paracetamol 500mg Uống 2 viên x 3 lần/ngày sau khi ăn x 5 ngày " +
		"2. Vitamin C 500mg Uống 1 viên sáng " +
		"Tái khám ngày 27/08/2025 lúc 8h30 BS. Nguyễn Văn A " +
		"Lời dặn: Uống nhiều nước"

	spans := Segment(text)
	var medSpans, apptSpans, insSpans int
	for _, sp := range spans {
		switch sp.Kind {
		case types.SpanMedication:
			medSpans++
		case types.SpanAppointment:
			apptSpans++
		case types.SpanInstruction:
			insSpans++
		}
	}
	if medSpans != 2 || apptSpans != 1 || insSpans != 1 {
		t.Fatalf("segmentation: %d med, %d appt, %d ins spans: %+v", medSpans, apptSpans, insSpans, spans)
	}

	doc := ExtractDocument(spans)
	if len(doc.Medications) != 2 {
		t.Fatalf("extraction: %d medications: %+v", len(doc.Medications), doc.Medications)
	}
	if doc.Medications[0].Name != "Paracetamol" || doc.Medications[1].Name != "Vitamin C" {
		t.Fatalf("names: %q, %q", doc.Medications[0].Name, doc.Medications[1].Name)
	}
	if len(doc.Appointments) != 1 || doc.Appointments[0].Date == nil || *doc.Appointments[0].Date != "2025-08-27" {
		t.Fatalf("appointments: %+v", doc.Appointments)
	}

	validation := Validate(doc)
	if !validation.IsValid {
		t.Fatalf("validation rejected: %+v", validation)
	}
	if validation.Confidence < 70 {
		t.Fatalf("confidence = %d", validation.Confidence)
	}

	deduped, report := Resolve(doc)
	if len(report.Medications) != 0 {
		t.Fatalf("unexpected duplicates: %+v", report)
	}

	start := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	plan := BuildPlan(deduped, start)
	// Paracetamol 3/day x 5 days, Vitamin C 07:00 x 7 days, one appointment.
	if plan.Summary.TotalReminders != 15+7+1 {
		t.Fatalf("total reminders = %d", plan.Summary.TotalReminders)
	}
	if plan.Summary.MedicationsWithDefaultSchedule != 0 {
		t.Fatalf("default schedules = %d", plan.Summary.MedicationsWithDefaultSchedule)
	}
	if plan.Summary.DateRange.Start != "2025-08-20" || plan.Summary.DateRange.End != "2025-08-27" {
		t.Fatalf("range = %+v", plan.Summary.DateRange)
	}

	full := &types.FullData{
		Document:   deduped,
		Validation: validation,
		Duplicates: report,
		Plan:       plan,
		StartDate:  "2025-08-20",
	}
	bundle := Analyze(full)
	if bundle.Summary.TotalMedications != 2 {
		t.Fatalf("bundle summary: %+v", bundle.Summary)
	}
	for _, opt := range bundle.Options.ViewOptions {
		if _, err := GetDataByOption(full, opt.ID); err != nil {
			t.Fatalf("option %q: %v", opt.ID, err)
		}
	}
}

// A blob with no layout signal degrades to low confidence instead of failing.
func TestPipelineGarbageInput(t *testing.T) {
	spans := Segment("ảnh chụp mờ không đọc được nội dung")
	doc := ExtractDocument(spans)
	validation := Validate(doc)
	if validation.IsValid {
		t.Fatalf("garbage accepted: %+v", validation)
	}
	if validation.Confidence > 20 {
		t.Fatalf("confidence = %d", validation.Confidence)
	}
}
