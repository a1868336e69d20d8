package prescription

import (
	"fmt"
	"strings"
	"testing"

	"github.com/medremind/medremind-backend/internal/types"
)

func strPtr(s string) *string { return &s }

func namedMed(name string, dosage *string) types.Medication {
	return types.Medication{Name: name, DosageText: dosage}
}

func TestValidateEmptyDocument(t *testing.T) {
	res := Validate(types.ExtractedDocument{})
	if res.IsValid {
		t.Fatalf("empty document must not be valid")
	}
	if res.Confidence >= 50 {
		t.Fatalf("confidence = %d, want low", res.Confidence)
	}
	if len(res.Reasons) == 0 {
		t.Fatalf("rejection must carry a reason")
	}
}

func TestValidateImplausibleCount(t *testing.T) {
	var doc types.ExtractedDocument
	for i := 0; i < maxPlausibleMedications+1; i++ {
		doc.Medications = append(doc.Medications, namedMed(fmt.Sprintf("Thuoc%d", i), strPtr("500mg")))
	}
	res := Validate(doc)
	if res.IsValid {
		t.Fatalf("%d medications must not be valid", len(doc.Medications))
	}
}

func TestValidateMalformedNamesOnly(t *testing.T) {
	doc := types.ExtractedDocument{Medications: []types.Medication{
		namedMed("x", nil),
		namedMed("123", nil),
	}}
	res := Validate(doc)
	if res.IsValid {
		t.Fatalf("all-malformed names must not be valid")
	}
}

func TestValidateWellFormedDocument(t *testing.T) {
	doc := types.ExtractedDocument{
		Medications: []types.Medication{
			namedMed("Paracetamol", strPtr("500mg")),
			namedMed("Vitamin C", strPtr("500mg")),
		},
		Appointments: []types.Appointment{{Type: "Tái khám"}},
	}
	res := Validate(doc)
	if !res.IsValid {
		t.Fatalf("expected valid, reasons: %v", res.Reasons)
	}
	if res.Confidence < 80 {
		t.Fatalf("confidence = %d, want >= 80", res.Confidence)
	}
}

func TestValidateConfidenceMonotonicOnDosage(t *testing.T) {
	// Filling in a missing dosage never lowers confidence.
	without := types.ExtractedDocument{Medications: []types.Medication{
		namedMed("Paracetamol", strPtr("500mg")),
		namedMed("Amoxicillin", nil),
	}}
	with := types.ExtractedDocument{Medications: []types.Medication{
		namedMed("Paracetamol", strPtr("500mg")),
		namedMed("Amoxicillin", strPtr("250mg")),
	}}
	a := Validate(without).Confidence
	b := Validate(with).Confidence
	if b < a {
		t.Fatalf("confidence dropped when dosage was added: %d -> %d", a, b)
	}
}

func TestValidateConfidenceBounds(t *testing.T) {
	docs := []types.ExtractedDocument{
		{},
		{Medications: []types.Medication{namedMed("A1", nil)}},
		{Medications: []types.Medication{namedMed("Paracetamol", strPtr("500mg"))}},
	}
	for i, doc := range docs {
		c := Validate(doc).Confidence
		if c < 0 || c > 100 {
			t.Errorf("doc %d: confidence %d out of range", i, c)
		}
	}
}

func TestValidateFrequencyTimingMismatchIsWarning(t *testing.T) {
	three := 3
	doc := types.ExtractedDocument{Medications: []types.Medication{{
		Name:            "Paracetamol",
		DosageText:      strPtr("500mg"),
		FrequencyPerDay: &three,
		Timing:          []string{"sáng", "tối"},
	}}}
	res := Validate(doc)
	if !res.IsValid {
		t.Fatalf("mismatch must stay a warning, not a rejection: %v", res.Reasons)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "Paracetamol") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a mismatch warning, got %v", res.Warnings)
	}
}

func TestValidateMealModifierDoesNotCountAsClock(t *testing.T) {
	// "sau ăn" has no clock time; only the clock-resolvable token is compared
	// against the frequency, so one clock token with frequency 1 agrees.
	one := 1
	doc := types.ExtractedDocument{Medications: []types.Medication{{
		Name:            "Paracetamol",
		DosageText:      strPtr("500mg"),
		FrequencyPerDay: &one,
		Timing:          []string{"sáng", "sau ăn"},
	}}}
	res := Validate(doc)
	for _, w := range res.Warnings {
		if strings.Contains(w, "Paracetamol") {
			t.Fatalf("meal modifier counted as a clock slot: %v", res.Warnings)
		}
	}
}

func TestValidName(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Paracetamol", true},
		{"Ê kíp", true},
		{"x", false},
		{"paracetamol", false},
		{"123", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ValidName(c.name); got != c.want {
			t.Errorf("ValidName(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}
