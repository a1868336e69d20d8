package prescription

import (
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/medremind/medremind-backend/internal/types"
)

func sampleFullData(t *testing.T) *types.FullData {
	t.Helper()
	three := 3
	doc := types.ExtractedDocument{
		Medications: []types.Medication{
			{Name: "Paracetamol", DosageText: strPtr("500mg"), FrequencyPerDay: &three, DurationText: strPtr("5 ngày")},
			{Name: "Vitamin C", DosageText: strPtr("500mg"), Timing: []string{"sáng"}},
		},
		Appointments: []types.Appointment{{Type: "Tái khám", Date: strPtr("2025-08-27"), Time: strPtr("08:30")}},
		Instructions: []types.Instruction{{Text: "Uống nhiều nước"}},
	}
	validation := Validate(doc)
	deduped, report := Resolve(doc)
	plan := BuildPlan(deduped, planStart)
	return &types.FullData{
		Document:   deduped,
		Validation: validation,
		Duplicates: report,
		Plan:       plan,
		StartDate:  planStart.Format("2006-01-02"),
	}
}

func TestAnalyzeSummaryCounts(t *testing.T) {
	full := sampleFullData(t)
	bundle := Analyze(full)
	s := bundle.Summary
	if s.TotalMedications != 2 || s.TotalAppointments != 1 || s.TotalInstructions != 1 {
		t.Fatalf("summary counts wrong: %+v", s)
	}
	// 3/day x 5 days + 1/day x 7 days + one appointment.
	if s.TotalReminders != 15+7+1 {
		t.Fatalf("total reminders = %d", s.TotalReminders)
	}
	if s.MedicationsWithDefaultSchedule != 0 {
		t.Fatalf("default count = %d", s.MedicationsWithDefaultSchedule)
	}
	if len(bundle.Options.ViewOptions) == 0 || len(bundle.Options.ActionOptions) == 0 {
		t.Fatalf("option catalog incomplete: %+v", bundle.Options)
	}
}

func TestOptionCatalogRoundTrip(t *testing.T) {
	// Every id the catalog advertises must resolve to non-nil data.
	full := sampleFullData(t)
	bundle := Analyze(full)
	var all []types.Option
	all = append(all, bundle.Options.ViewOptions...)
	all = append(all, bundle.Options.ExportOptions...)
	all = append(all, bundle.Options.ActionOptions...)
	if len(all) == 0 {
		t.Fatalf("empty catalog")
	}
	for _, opt := range all {
		data, err := GetDataByOption(full, opt.ID)
		if err != nil {
			t.Errorf("option %q failed: %v", opt.ID, err)
			continue
		}
		if data == nil {
			t.Errorf("option %q resolved to nil", opt.ID)
		}
	}
}

func TestGetDataByOptionUnknownID(t *testing.T) {
	full := sampleFullData(t)
	if _, err := GetDataByOption(full, "no_such_option"); !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if _, err := GetDataByOption(nil, OptionSummary); !errors.Is(err, ErrOptionNotFound) {
		t.Fatalf("nil full data must not resolve, got %v", err)
	}
}

func TestRemindersTodayFilter(t *testing.T) {
	full := sampleFullData(t)
	data, err := GetDataByOption(full, OptionRemindersToday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	instances := data.([]types.ReminderInstance)
	// 3 Paracetamol doses + 1 Vitamin C dose on the start date.
	if len(instances) != 4 {
		t.Fatalf("expected 4 instances today, got %d", len(instances))
	}
	for _, inst := range instances {
		if inst.Date != full.StartDate {
			t.Fatalf("instance outside today: %+v", inst)
		}
	}
}

func TestCalendarSortedWithinDay(t *testing.T) {
	full := sampleFullData(t)
	data, err := GetDataByOption(full, OptionCalendar)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cal := data.(map[string][]types.ReminderInstance)
	if len(cal) == 0 {
		t.Fatalf("empty calendar")
	}
	for date, day := range cal {
		for i := 1; i < len(day); i++ {
			if day[i].Time < day[i-1].Time {
				t.Fatalf("%s not sorted: %q after %q", date, day[i].Time, day[i-1].Time)
			}
		}
	}
}

func TestExportCSVShape(t *testing.T) {
	full := sampleFullData(t)
	data, err := GetDataByOption(full, OptionExportCSV)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := data.(string)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "date,time,kind,name,default_schedule" {
		t.Fatalf("header = %q", lines[0])
	}
	if len(lines)-1 != full.Plan.Summary.TotalReminders {
		t.Fatalf("%d rows, want %d", len(lines)-1, full.Plan.Summary.TotalReminders)
	}
}

func TestExportCSVQuotedName(t *testing.T) {
	full := &types.FullData{
		Plan: types.ReminderPlan{Medications: []types.ReminderInstance{{
			Kind:    types.ReminderMedication,
			RefName: `Para "Extra" 500`,
			Date:    "2025-08-20",
			Time:    "08:00",
		}}},
		StartDate: "2025-08-20",
	}
	out := exportCSV(full)
	if strings.Contains(out, `\"`) {
		t.Fatalf("backslash escaping leaked into CSV: %q", out)
	}
	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	if err != nil {
		t.Fatalf("export does not parse as CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	if got := rows[1][3]; got != `Para "Extra" 500` {
		t.Fatalf("name round-trip = %q", got)
	}
}

func TestRejectedDocumentCatalogHasNoReminderOptions(t *testing.T) {
	// A document the validator refused still shows what was read, but the
	// catalog must not advertise reminder views or the confirmation action.
	full := &types.FullData{
		Document: types.ExtractedDocument{Medications: []types.Medication{{Name: "x1"}}},
		Validation: types.ValidationResult{
			IsValid:    false,
			Confidence: 10,
			Reasons:    []string{"no plausible medication names"},
		},
		Plan:      types.ReminderPlan{Summary: types.ScheduleSummary{MedicationsNeedingReview: []types.ReviewItem{}}},
		StartDate: "2025-08-20",
	}
	bundle := Analyze(full)
	if len(bundle.Options.ActionOptions) != 0 {
		t.Fatalf("rejected document advertises actions: %+v", bundle.Options.ActionOptions)
	}
	blocked := map[string]bool{
		OptionRemindersToday: true,
		OptionRemindersWeek:  true,
		OptionCalendar:       true,
		OptionExportCSV:      true,
		OptionCreate:         true,
	}
	var all []types.Option
	all = append(all, bundle.Options.ViewOptions...)
	all = append(all, bundle.Options.ExportOptions...)
	for _, opt := range all {
		if blocked[opt.ID] {
			t.Errorf("rejected document advertises %q", opt.ID)
		}
		if _, err := GetDataByOption(full, opt.ID); err != nil {
			t.Errorf("option %q failed: %v", opt.ID, err)
		}
	}
	for _, r := range bundle.Recommendations {
		if strings.Contains(r.Message, "confirm the plan") {
			t.Fatalf("rejected document invites confirmation: %q", r.Message)
		}
	}
}

func TestWarningsOnDegradedAnalysis(t *testing.T) {
	doc := types.ExtractedDocument{Medications: []types.Medication{
		{Name: "Paracetamol"},
		{Name: "x1"},
	}}
	validation := Validate(doc)
	deduped, report := Resolve(doc)
	plan := BuildPlan(deduped, planStart)
	full := &types.FullData{Document: deduped, Validation: validation, Duplicates: report, Plan: plan, StartDate: planStart.Format("2006-01-02")}
	bundle := Analyze(full)
	if len(bundle.Warnings) == 0 {
		t.Fatalf("degraded analysis produced no warnings")
	}
	foundReview := false
	for _, r := range bundle.Recommendations {
		if r.Priority == "high" && strings.Contains(r.Message, "default schedule") {
			foundReview = true
			if !strings.Contains(r.Message, "never change a dose") {
				t.Fatalf("review recommendation must warn against changing the dose: %q", r.Message)
			}
		}
	}
	if !foundReview {
		t.Fatalf("expected a high-priority review recommendation, got %+v", bundle.Recommendations)
	}
}

func TestHorizonSpanDays(t *testing.T) {
	if got := horizonSpanDays(types.DateRange{Start: "2025-08-20", End: "2025-08-26"}); got != 7 {
		t.Fatalf("span = %d, want 7", got)
	}
	if got := horizonSpanDays(types.DateRange{}); got != 0 {
		t.Fatalf("empty range span = %d, want 0", got)
	}
}
