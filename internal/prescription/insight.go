package prescription

import (
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/medremind/medremind-backend/internal/types"
)

// ErrOptionNotFound is the "unknown option id" signal; handlers translate it
// to a 404, it is never a server fault.
var ErrOptionNotFound = errors.New("option not found")

// Option ids. Every id listed in a bundle's catalog must resolve through
// GetDataByOption.
const (
	OptionSummary        = "summary"
	OptionMedications    = "medications"
	OptionAppointments   = "appointments"
	OptionInstructions   = "instructions"
	OptionRemindersToday = "reminders_today"
	OptionRemindersWeek  = "reminders_week"
	OptionCalendar       = "calendar"
	OptionExportJSON     = "export_json"
	OptionExportCSV      = "export_csv"
	OptionCreate         = "create_reminders"
	OptionReview         = "review_schedule"
)

const lowConfidenceThreshold = 70

// Analyze produces the compact summary-first bundle: counts, heuristic
// insights and a catalog of retrievable options. The full per-day reminder
// list and medication detail stay in full and are fetched by option id, so
// a bandwidth-constrained client sees the menu before paying for the meal.
func Analyze(full *types.FullData) types.AnalysisBundle {
	doc := full.Document
	plan := full.Plan

	summary := types.AnalysisSummary{
		TotalMedications:               len(doc.Medications),
		TotalAppointments:              len(doc.Appointments),
		TotalInstructions:              len(doc.Instructions),
		TotalReminders:                 plan.Summary.TotalReminders,
		MedicationsWithDefaultSchedule: plan.Summary.MedicationsWithDefaultSchedule,
		MedicationsNeedingReview:       plan.Summary.MedicationsNeedingReview,
		DateRange:                      plan.Summary.DateRange,
	}

	bundle := types.AnalysisBundle{
		Summary:         summary,
		Insights:        buildInsights(full, summary),
		Warnings:        buildWarnings(full),
		Recommendations: buildRecommendations(full, summary),
		Options:         buildOptions(full, summary),
	}
	return bundle
}

func buildInsights(full *types.FullData, s types.AnalysisSummary) []string {
	insights := []string{}
	if s.TotalMedications > 0 && s.TotalReminders > 0 {
		days := horizonSpanDays(s.DateRange)
		insights = append(insights, fmt.Sprintf("%d medications scheduled across %d days (%d reminders in total)", s.TotalMedications, days, s.TotalReminders))
	}
	if s.TotalMedications > 5 {
		insights = append(insights, fmt.Sprintf("this prescription has %d medications; a pill organizer can help keep doses apart", s.TotalMedications))
	}
	if s.TotalAppointments > 0 {
		insights = append(insights, fmt.Sprintf("%d follow-up appointment(s) detected", s.TotalAppointments))
	}
	return insights
}

func buildWarnings(full *types.FullData) []string {
	warnings := []string{}
	if full.Validation.Confidence < lowConfidenceThreshold {
		warnings = append(warnings, fmt.Sprintf("document confidence is low (%d/100); verify the extracted entries against the original prescription", full.Validation.Confidence))
	}
	warnings = append(warnings, full.Validation.Warnings...)
	if n := len(full.Duplicates.Medications); n > 0 {
		warnings = append(warnings, fmt.Sprintf("%d duplicate medication entries were collapsed (repeated page or OCR pass)", n))
	}
	if full.Plan.Skipped > 0 {
		warnings = append(warnings, fmt.Sprintf("%d reminder instances had missing or unreadable dates or times and were skipped", full.Plan.Skipped))
	}
	return warnings
}

func buildRecommendations(full *types.FullData, s types.AnalysisSummary) []types.Recommendation {
	recs := []types.Recommendation{}
	if n := len(s.MedicationsNeedingReview); n > 0 {
		recs = append(recs, types.Recommendation{
			Priority: "high",
			Message:  fmt.Sprintf("%d medication(s) use the default schedule; review and adjust the reminder times yourself; never change a dose or frequency without your doctor", n),
		})
	}
	if !full.Validation.IsValid {
		recs = append(recs, types.Recommendation{
			Priority: "high",
			Message:  "the document was not recognized as a prescription; retake the photo with better lighting or enter the medications manually",
		})
	}
	if full.Validation.IsValid {
		recs = append(recs, types.Recommendation{
			Priority: "medium",
			Message:  "reminders are not active yet; confirm the plan to create them",
		})
	}
	return recs
}

// buildOptions assembles the catalog. A rejected document advertises only the
// extracted views and the JSON export; the reminder views, the CSV export and
// the action options require a plan, which a rejected document never has.
func buildOptions(full *types.FullData, s types.AnalysisSummary) types.OptionCatalog {
	catalog := types.OptionCatalog{
		ViewOptions: []types.Option{
			{ID: OptionSummary, Label: "Summary", Description: "Counts, date range and review flags", DataSize: types.DataSizeSmall},
			{ID: OptionMedications, Label: "Medications", Description: "Extracted medication entries with dosage and schedule fields", DataSize: types.DataSizeMedium, Count: intPtr(s.TotalMedications)},
			{ID: OptionAppointments, Label: "Appointments", Description: "Follow-up appointment entries", DataSize: types.DataSizeSmall, Count: intPtr(s.TotalAppointments)},
			{ID: OptionInstructions, Label: "Doctor's notes", Description: "Free-text instructions kept verbatim", DataSize: types.DataSizeSmall, Count: intPtr(s.TotalInstructions)},
		},
		ExportOptions: []types.Option{
			{ID: OptionExportJSON, Label: "Export JSON", Description: "Complete analysis result as JSON", DataSize: types.DataSizeLarge},
		},
		ActionOptions: []types.Option{},
	}
	if !full.Validation.IsValid {
		return catalog
	}

	today := countInstancesInRange(full, 0, 1)
	week := countInstancesInRange(full, 0, 7)
	calendarDays := horizonSpanDays(s.DateRange)
	review := len(s.MedicationsNeedingReview)

	catalog.ViewOptions = append(catalog.ViewOptions,
		types.Option{ID: OptionRemindersToday, Label: "Today's reminders", Description: "Reminder instances for the start date", DataSize: types.DataSizeSmall, Count: intPtr(today)},
		types.Option{ID: OptionRemindersWeek, Label: "This week's reminders", Description: "Reminder instances for the first seven days", DataSize: types.DataSizeMedium, Count: intPtr(week)},
		types.Option{ID: OptionCalendar, Label: "Full calendar", Description: "Every generated reminder grouped by date", DataSize: types.DataSizeLarge, Count: intPtr(calendarDays)},
	)
	catalog.ExportOptions = append(catalog.ExportOptions,
		types.Option{ID: OptionExportCSV, Label: "Export CSV", Description: "Reminder calendar as CSV rows", DataSize: types.DataSizeMedium},
	)
	catalog.ActionOptions = []types.Option{
		{ID: OptionCreate, Label: "Create reminders", Description: "The plan that will be persisted on confirmation", DataSize: types.DataSizeMedium, Count: intPtr(s.TotalReminders)},
		{ID: OptionReview, Label: "Review default schedules", Description: "Medications whose times were defaulted and need a manual check", DataSize: types.DataSizeSmall, Count: intPtr(review)},
	}
	return catalog
}

// GetDataByOption resolves one option id against the retained full data.
// Unknown ids return ErrOptionNotFound.
func GetDataByOption(full *types.FullData, optionID string) (any, error) {
	if full == nil {
		return nil, ErrOptionNotFound
	}
	switch optionID {
	case OptionSummary:
		return Analyze(full).Summary, nil
	case OptionMedications:
		return nonNilMeds(full.Document.Medications), nil
	case OptionAppointments:
		return nonNilAppts(full.Document.Appointments), nil
	case OptionInstructions:
		return nonNilInstructions(full.Document.Instructions), nil
	case OptionRemindersToday:
		return instancesInRange(full, 0, 1), nil
	case OptionRemindersWeek:
		return instancesInRange(full, 0, 7), nil
	case OptionCalendar:
		return buildCalendar(full), nil
	case OptionExportJSON:
		return full, nil
	case OptionExportCSV:
		return exportCSV(full), nil
	case OptionCreate:
		return full.Plan, nil
	case OptionReview:
		return full.Plan.Summary.MedicationsNeedingReview, nil
	default:
		return nil, ErrOptionNotFound
	}
}

// ---------------- helpers ----------------

func intPtr(n int) *int { return &n }

func nonNilMeds(in []types.Medication) []types.Medication {
	if in == nil {
		return []types.Medication{}
	}
	return in
}

func nonNilAppts(in []types.Appointment) []types.Appointment {
	if in == nil {
		return []types.Appointment{}
	}
	return in
}

func nonNilInstructions(in []types.Instruction) []types.Instruction {
	if in == nil {
		return []types.Instruction{}
	}
	return in
}

func allInstances(full *types.FullData) []types.ReminderInstance {
	out := make([]types.ReminderInstance, 0, len(full.Plan.Medications)+len(full.Plan.Appointments))
	out = append(out, full.Plan.Medications...)
	out = append(out, full.Plan.Appointments...)
	return out
}

// instancesInRange returns instances within [start+fromDays, start+toDays).
func instancesInRange(full *types.FullData, fromDays, toDays int) []types.ReminderInstance {
	start, err := time.Parse("2006-01-02", full.StartDate)
	if err != nil {
		return []types.ReminderInstance{}
	}
	lo := start.AddDate(0, 0, fromDays).Format("2006-01-02")
	hi := start.AddDate(0, 0, toDays).Format("2006-01-02")
	out := []types.ReminderInstance{}
	for _, inst := range allInstances(full) {
		if inst.Date >= lo && inst.Date < hi {
			out = append(out, inst)
		}
	}
	return out
}

func countInstancesInRange(full *types.FullData, fromDays, toDays int) int {
	return len(instancesInRange(full, fromDays, toDays))
}

// buildCalendar groups every instance by date, times sorted within the day.
func buildCalendar(full *types.FullData) map[string][]types.ReminderInstance {
	cal := map[string][]types.ReminderInstance{}
	for _, inst := range allInstances(full) {
		cal[inst.Date] = append(cal[inst.Date], inst)
	}
	for date := range cal {
		day := cal[date]
		sort.Slice(day, func(i, j int) bool { return day[i].Time < day[j].Time })
		cal[date] = day
	}
	return cal
}

func exportCSV(full *types.FullData) string {
	instances := allInstances(full)
	sort.Slice(instances, func(i, j int) bool {
		if instances[i].Date != instances[j].Date {
			return instances[i].Date < instances[j].Date
		}
		return instances[i].Time < instances[j].Time
	})
	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Write([]string{"date", "time", "kind", "name", "default_schedule"})
	for _, inst := range instances {
		w.Write([]string{inst.Date, inst.Time, string(inst.Kind), inst.RefName, strconv.FormatBool(inst.IsDefaultSchedule)})
	}
	w.Flush()
	return b.String()
}

func horizonSpanDays(r types.DateRange) int {
	start, err1 := time.Parse("2006-01-02", r.Start)
	end, err2 := time.Parse("2006-01-02", r.End)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}
