package types

// SpanKind classifies what a segmented span of prescription text is
// expected to contain.
type SpanKind string

const (
	SpanMedication  SpanKind = "medication"
	SpanAppointment SpanKind = "appointment"
	SpanInstruction SpanKind = "instruction"
	SpanUnknown     SpanKind = "unknown"
)

// Span is one contiguous slice of the extracted prescription text, believed
// to correspond to a single logical entry. Index preserves document order so
// every downstream record can point back at its source position.
type Span struct {
	Index int      `json:"index"`
	Kind  SpanKind `json:"kind"`
	Text  string   `json:"text"`
}

// Medication is one extracted drug entry. Optional fields are pointers on
// purpose: "missing" and "empty" mean different things to the scheduler's
// default-fallback policy.
type Medication struct {
	Name            string   `json:"name"`
	DosageText      *string  `json:"dosage_text,omitempty"`
	Quantity        *float64 `json:"quantity,omitempty"`
	Unit            *string  `json:"unit,omitempty"`
	FrequencyText   *string  `json:"frequency_text,omitempty"`
	FrequencyPerDay *int     `json:"frequency_per_day,omitempty"`
	Timing          []string `json:"timing,omitempty"`
	DurationText    *string  `json:"duration_text,omitempty"`
	Instructions    []string `json:"instructions,omitempty"`
	SourceSpanIndex int      `json:"source_span_index"`
}

// Appointment is a follow-up visit block ("Tái khám ...").
type Appointment struct {
	Type            string  `json:"type"`
	Date            *string `json:"date,omitempty"` // YYYY-MM-DD
	Time            *string `json:"time,omitempty"` // HH:mm
	Location        *string `json:"location,omitempty"`
	Doctor          *string `json:"doctor,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	SourceSpanIndex int     `json:"source_span_index"`
}

// Instruction is a free-text physician note kept verbatim.
type Instruction struct {
	Text            string `json:"text"`
	SourceSpanIndex int    `json:"source_span_index"`
}

// ExtractedDocument is the full typed record set for one prescription.
type ExtractedDocument struct {
	Medications  []Medication  `json:"medications"`
	Appointments []Appointment `json:"appointments"`
	Instructions []Instruction `json:"instructions"`
}
