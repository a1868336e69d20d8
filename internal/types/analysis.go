package types

// DataSize is a coarse transfer-cost class so a bandwidth-constrained client
// can decide what to fetch before paying for it.
const (
	DataSizeSmall  = "small"
	DataSizeMedium = "medium"
	DataSizeLarge  = "large"
)

// Option is one retrievable slice of an analysis, addressed by ID.
type Option struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
	DataSize    string `json:"data_size"`
	Count       *int   `json:"count,omitempty"`
}

type OptionCatalog struct {
	ViewOptions   []Option `json:"view_options"`
	ExportOptions []Option `json:"export_options"`
	ActionOptions []Option `json:"action_options"`
}

type Recommendation struct {
	Priority string `json:"priority"` // high|medium|low
	Message  string `json:"message"`
}

type AnalysisSummary struct {
	TotalMedications               int          `json:"total_medications"`
	TotalAppointments              int          `json:"total_appointments"`
	TotalInstructions              int          `json:"total_instructions"`
	TotalReminders                 int          `json:"total_reminders"`
	MedicationsWithDefaultSchedule int          `json:"medications_with_default_schedule"`
	MedicationsNeedingReview       []ReviewItem `json:"medications_needing_review"`
	DateRange                      DateRange    `json:"date_range"`
}

// AnalysisBundle is the compact, summary-first response. Full reminder and
// medication payloads are deliberately not inlined; they are fetched later
// by option id.
type AnalysisBundle struct {
	Summary         AnalysisSummary  `json:"summary"`
	Insights        []string         `json:"insights"`
	Warnings        []string         `json:"warnings"`
	Recommendations []Recommendation `json:"recommendations"`
	Options         OptionCatalog    `json:"options"`
}

// DuplicateEntry records one collapsed record for auditability.
type DuplicateEntry struct {
	Key          string `json:"key"`
	Name         string `json:"name"`
	KeptIndex    int    `json:"kept_index"`
	DroppedIndex int    `json:"dropped_index"`
}

type DuplicateReport struct {
	Medications  []DuplicateEntry `json:"medications"`
	Appointments []DuplicateEntry `json:"appointments"`
}

// FullData is the retained companion object that option ids resolve against.
// It lives in the bundle cache (or the analysis row) for the short window
// between analysis and fetch, and is superseded wholesale by re-analysis.
type FullData struct {
	Document   ExtractedDocument `json:"document"`
	Validation ValidationResult  `json:"validation"`
	Duplicates DuplicateReport   `json:"duplicates"`
	Plan       ReminderPlan      `json:"plan"`
	StartDate  string            `json:"start_date"` // YYYY-MM-DD
}
