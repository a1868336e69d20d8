package types

type ReminderKind string

const (
	ReminderMedication  ReminderKind = "medication"
	ReminderAppointment ReminderKind = "appointment"
)

// ReminderInstance is one concrete dated/timed reminder. Date and Time are
// always valid calendar values; instances that cannot be normalized are
// dropped and tallied, never emitted.
type ReminderInstance struct {
	ID                string       `json:"id"`
	Kind              ReminderKind `json:"kind"`
	RefName           string       `json:"ref_name"`
	Date              string       `json:"date"` // YYYY-MM-DD
	Time              string       `json:"time"` // HH:mm
	IsDefaultSchedule bool         `json:"is_default_schedule"`
	Enabled           bool         `json:"enabled"`
}

// ReviewItem flags a medication whose schedule was defaulted and therefore
// needs a human look before the reminders are confirmed.
type ReviewItem struct {
	Name            string `json:"name"`
	Reason          string `json:"reason"`
	Suggestion      string `json:"suggestion"`
	SourceSpanIndex int    `json:"source_span_index"`
}

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ScheduleSummary struct {
	TotalReminders                 int          `json:"total_reminders"`
	MedicationsWithDefaultSchedule int          `json:"medications_with_default_schedule"`
	MedicationsNeedingReview       []ReviewItem `json:"medications_needing_review"`
	DateRange                      DateRange    `json:"date_range"`
}

// ReminderPlan is the scheduler output: the full expanded calendar plus a
// summary. Skipped counts instances discarded for unparseable date/time.
type ReminderPlan struct {
	Medications  []ReminderInstance `json:"medications"`
	Appointments []ReminderInstance `json:"appointments"`
	Summary      ScheduleSummary    `json:"summary"`
	Skipped      int                `json:"skipped"`
}
