package prescription

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/medremind/medremind-backend/internal/types"
)

const (
	// Hard sanity bound: more entries than this signals mis-segmentation or
	// garbage input, not a real prescription.
	maxPlausibleMedications = 60
	// Clinical plausibility range used for scoring, not rejection.
	maxTypicalMedications = 30

	baselineConfidence = 50
)

// ValidName is the shape check for a plausible drug name: begins with an
// uppercase letter and has at least two runes.
func ValidName(name string) bool {
	if utf8.RuneCountInString(name) < 2 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}

// Validate scores the extracted set for plausibility as a real prescription.
// It is a pure function and never fails: internally inconsistent input yields
// low confidence plus explanatory reasons. IsValid=false means "do not
// schedule without explicit user override", not an error.
func Validate(doc types.ExtractedDocument) types.ValidationResult {
	res := types.ValidationResult{Reasons: []string{}, Warnings: []string{}}
	meds := doc.Medications
	total := len(meds)

	if total == 0 {
		res.Confidence = 5
		res.Reasons = append(res.Reasons, "no medications were extracted from the document")
		return res
	}
	if total > maxPlausibleMedications {
		res.Confidence = 10
		res.Reasons = append(res.Reasons, fmt.Sprintf("%d medication entries exceed the plausible maximum of %d; the document is likely mis-segmented or not a prescription", total, maxPlausibleMedications))
		return res
	}

	wellFormed := 0
	withDosage := 0
	seenNames := map[string]bool{}
	duplicateRaw := 0
	for _, m := range meds {
		if !ValidName(m.Name) {
			continue
		}
		wellFormed++
		if m.DosageText != nil {
			withDosage++
		}
		key := collapseSpaces(foldText(m.Name))
		if seenNames[key] {
			duplicateRaw++
		}
		seenNames[key] = true
	}

	if wellFormed == 0 {
		res.Confidence = 10
		res.Reasons = append(res.Reasons, "no extracted entry has a plausible medication name")
		return res
	}

	confidence := baselineConfidence
	confidence += 20 * withDosage / wellFormed
	if len(doc.Appointments) > 0 || len(doc.Instructions) > 0 {
		confidence += 10
	}
	if total <= maxTypicalMedications {
		confidence += 10
	} else {
		confidence -= 15
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d medications is outside the typical clinical range", total))
	}

	malformed := total - wellFormed
	if malformed > 0 {
		confidence -= minInt(15, malformed*5)
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d entries have malformed names and were excluded from scoring", malformed))
	}
	missingDosage := wellFormed - withDosage
	if missingDosage > 0 {
		confidence -= minInt(15, missingDosage*3)
		if missingDosage*2 >= wellFormed {
			res.Warnings = append(res.Warnings, "many medications are missing a dosage")
		}
	}
	if duplicateRaw > 0 {
		confidence -= minInt(10, duplicateRaw*5)
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d medication names appear more than once before de-duplication", duplicateRaw))
	}

	for _, m := range meds {
		if m.FrequencyPerDay == nil {
			continue
		}
		clocked := clockTimingCount(m.Timing)
		if clocked > 0 && clocked != *m.FrequencyPerDay {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%q: frequency says %d times/day but %d times of day are listed; left for manual review", m.Name, *m.FrequencyPerDay, clocked))
		}
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 100 {
		confidence = 100
	}
	res.Confidence = confidence
	res.IsValid = true
	res.Reasons = append(res.Reasons, fmt.Sprintf("%d medication entries recognized, %d with dosage information", wellFormed, withDosage))
	return res
}

// clockTimingCount counts only tokens that resolve to a clock time; meal
// modifiers ride along in Timing but do not claim a slot in the day.
func clockTimingCount(timing []string) int {
	n := 0
	for _, t := range timing {
		if _, ok := timingClock[t]; ok {
			n++
		}
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
