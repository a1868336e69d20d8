package prescription

import (
	"testing"
	"time"

	"github.com/medremind/medremind-backend/internal/types"
)

var planStart = time.Date(2025, 8, 20, 10, 30, 0, 0, time.UTC)

func TestBuildPlanTimingTokens(t *testing.T) {
	doc := types.ExtractedDocument{Medications: []types.Medication{{
		Name:   "Paracetamol",
		Timing: []string{"sáng", "tối"},
	}}}
	plan := BuildPlan(doc, planStart)
	if got := len(plan.Medications); got != 2*defaultHorizonDays {
		t.Fatalf("expected %d instances, got %d", 2*defaultHorizonDays, got)
	}
	for _, inst := range plan.Medications {
		if inst.IsDefaultSchedule {
			t.Fatalf("explicit timing flagged as default: %+v", inst)
		}
		if inst.Time != "07:00" && inst.Time != "20:00" {
			t.Fatalf("unexpected time %q", inst.Time)
		}
		if !inst.Enabled || inst.ID == "" {
			t.Fatalf("instance not initialized: %+v", inst)
		}
	}
	if plan.Summary.MedicationsWithDefaultSchedule != 0 {
		t.Fatalf("default count = %d", plan.Summary.MedicationsWithDefaultSchedule)
	}
}

func TestBuildPlanFrequencyFallback(t *testing.T) {
	three := 3
	doc := types.ExtractedDocument{Medications: []types.Medication{{
		Name:            "Amoxicillin",
		FrequencyPerDay: &three,
		Timing:          []string{"sau ăn"}, // no clock time, frequency decides
	}}}
	plan := BuildPlan(doc, planStart)
	if got := len(plan.Medications); got != 3*defaultHorizonDays {
		t.Fatalf("expected %d instances, got %d", 3*defaultHorizonDays, got)
	}
	if plan.Medications[0].IsDefaultSchedule {
		t.Fatalf("frequency-derived schedule flagged as default")
	}
}

func TestBuildPlanDefaultScheduleExactness(t *testing.T) {
	// Default flag set iff the medication has neither a clock-resolvable
	// timing token nor a recognized frequency.
	doc := types.ExtractedDocument{Medications: []types.Medication{{
		Name:   "Enterogermina",
		Timing: []string{"sau ăn"},
	}}}
	plan := BuildPlan(doc, planStart)
	if got := len(plan.Medications); got != len(defaultScheduleTimes)*defaultHorizonDays {
		t.Fatalf("expected %d instances, got %d", len(defaultScheduleTimes)*defaultHorizonDays, got)
	}
	for _, inst := range plan.Medications {
		if !inst.IsDefaultSchedule {
			t.Fatalf("default schedule instance not flagged: %+v", inst)
		}
	}
	if plan.Summary.MedicationsWithDefaultSchedule != 1 {
		t.Fatalf("default count = %d", plan.Summary.MedicationsWithDefaultSchedule)
	}
	if len(plan.Summary.MedicationsNeedingReview) != 1 {
		t.Fatalf("review list = %+v", plan.Summary.MedicationsNeedingReview)
	}
	if plan.Summary.MedicationsNeedingReview[0].Name != "Enterogermina" {
		t.Fatalf("review item = %+v", plan.Summary.MedicationsNeedingReview[0])
	}
}

func TestBuildPlanDurationHorizon(t *testing.T) {
	one := 1
	doc := types.ExtractedDocument{Medications: []types.Medication{{
		Name:            "Cefixim",
		FrequencyPerDay: &one,
		DurationText:    strPtr("5 ngày"),
	}}}
	plan := BuildPlan(doc, planStart)
	if got := len(plan.Medications); got != 5 {
		t.Fatalf("expected 5 instances, got %d", got)
	}
	if plan.Medications[0].Date != "2025-08-20" {
		t.Fatalf("first date = %q", plan.Medications[0].Date)
	}
	if plan.Medications[4].Date != "2025-08-24" {
		t.Fatalf("last date = %q", plan.Medications[4].Date)
	}
}

func TestBuildPlanWeekAndMonthUnits(t *testing.T) {
	one := 1
	cases := []struct {
		duration string
		wantDays int
	}{
		{"2 tuần", 14},
		{"1 tháng", 30},
		{"999 ngày", maxHorizonDays},
	}
	for _, c := range cases {
		doc := types.ExtractedDocument{Medications: []types.Medication{{
			Name:            "Thuoc",
			FrequencyPerDay: &one,
			DurationText:    strPtr(c.duration),
		}}}
		plan := BuildPlan(doc, planStart)
		if got := len(plan.Medications); got != c.wantDays {
			t.Errorf("%q: %d instances, want %d", c.duration, got, c.wantDays)
		}
	}
}

func TestBuildPlanHighFrequencySpread(t *testing.T) {
	six := 6
	doc := types.ExtractedDocument{Medications: []types.Medication{{
		Name:            "Thuoc",
		FrequencyPerDay: &six,
		DurationText:    strPtr("1 ngày"),
	}}}
	plan := BuildPlan(doc, planStart)
	if got := len(plan.Medications); got != 6 {
		t.Fatalf("expected 6 instances, got %d", got)
	}
	if plan.Medications[0].Time != "06:00" {
		t.Fatalf("first spread time = %q", plan.Medications[0].Time)
	}
}

func TestBuildPlanAppointments(t *testing.T) {
	doc := types.ExtractedDocument{Appointments: []types.Appointment{
		{Type: "Tái khám", Date: strPtr("2025-08-27"), Time: strPtr("08:30")},
		{Type: "Hẹn khám", Date: strPtr("2025-09-01")},
		{Type: "Khám lại"}, // no date, cannot be placed
	}}
	plan := BuildPlan(doc, planStart)
	if len(plan.Appointments) != 2 {
		t.Fatalf("expected 2 appointment instances, got %d", len(plan.Appointments))
	}
	if plan.Appointments[0].Time != "08:30" {
		t.Fatalf("time = %q", plan.Appointments[0].Time)
	}
	if plan.Appointments[1].Time != defaultAppointmentTime {
		t.Fatalf("timeless appointment default = %q", plan.Appointments[1].Time)
	}
	// The dateless appointment is tallied, not silently dropped.
	if plan.Skipped != 1 {
		t.Fatalf("skipped = %d, want 1", plan.Skipped)
	}
}

func TestBuildPlanSkipsUnparseable(t *testing.T) {
	doc := types.ExtractedDocument{Appointments: []types.Appointment{
		{Type: "Tái khám", Date: strPtr("not-a-date")},
		{Type: "Tái khám", Date: strPtr("2025-08-27"), Time: strPtr("99:99")},
	}}
	plan := BuildPlan(doc, planStart)
	if len(plan.Appointments) != 0 {
		t.Fatalf("unparseable instances emitted: %+v", plan.Appointments)
	}
	if plan.Skipped != 2 {
		t.Fatalf("skipped = %d, want 2", plan.Skipped)
	}
}

func TestBuildPlanDateRange(t *testing.T) {
	one := 1
	doc := types.ExtractedDocument{
		Medications: []types.Medication{{
			Name:            "Paracetamol",
			FrequencyPerDay: &one,
			DurationText:    strPtr("3 ngày"),
		}},
		Appointments: []types.Appointment{{Type: "Tái khám", Date: strPtr("2025-08-27")}},
	}
	plan := BuildPlan(doc, planStart)
	if plan.Summary.DateRange.Start != "2025-08-20" || plan.Summary.DateRange.End != "2025-08-27" {
		t.Fatalf("range = %+v", plan.Summary.DateRange)
	}
	if plan.Summary.TotalReminders != 4 {
		t.Fatalf("total = %d", plan.Summary.TotalReminders)
	}
}

func TestBuildPlanEmptyDocument(t *testing.T) {
	plan := BuildPlan(types.ExtractedDocument{}, planStart)
	if plan.Summary.TotalReminders != 0 {
		t.Fatalf("total = %d", plan.Summary.TotalReminders)
	}
	if plan.Summary.DateRange.Start != "2025-08-20" || plan.Summary.DateRange.End != "2025-08-20" {
		t.Fatalf("empty plan range must fall back to the start date, got %+v", plan.Summary.DateRange)
	}
}
