package prescription

import (
	"strings"

	"github.com/medremind/medremind-backend/internal/types"
)

// Resolve collapses redundant entries: multi-page documents repeat the
// medication table, and repeated OCR passes emit the same item twice.
// Resolution is stable (first occurrence wins) and idempotent; the report
// records every dropped record with its original index for audit.
func Resolve(doc types.ExtractedDocument) (types.ExtractedDocument, types.DuplicateReport) {
	out := types.ExtractedDocument{Instructions: doc.Instructions}
	report := types.DuplicateReport{}

	medKeys := map[string]int{}
	for i, m := range doc.Medications {
		key := medicationKey(m)
		if kept, ok := medKeys[key]; ok {
			report.Medications = append(report.Medications, types.DuplicateEntry{
				Key:          key,
				Name:         m.Name,
				KeptIndex:    kept,
				DroppedIndex: i,
			})
			continue
		}
		medKeys[key] = i
		out.Medications = append(out.Medications, m)
	}

	apptKeys := map[string]int{}
	for i, a := range doc.Appointments {
		key := appointmentKey(a)
		if kept, ok := apptKeys[key]; ok {
			report.Appointments = append(report.Appointments, types.DuplicateEntry{
				Key:          key,
				Name:         a.Type,
				KeptIndex:    kept,
				DroppedIndex: i,
			})
			continue
		}
		apptKeys[key] = i
		out.Appointments = append(out.Appointments, a)
	}

	return out, report
}

// medicationKey is the normalization key: case-folded whitespace-collapsed
// name plus the first dosage token. Same drug at a different strength is a
// distinct entry, not a duplicate.
func medicationKey(m types.Medication) string {
	name := collapseSpaces(foldText(m.Name))
	dosage := ""
	if m.DosageText != nil {
		dosage = firstToken(foldText(*m.DosageText))
	}
	return name + "|" + dosage
}

func appointmentKey(a types.Appointment) string {
	date, clock := "", ""
	if a.Date != nil {
		date = *a.Date
	}
	if a.Time != nil {
		clock = *a.Time
	}
	return collapseSpaces(foldText(a.Type)) + "|" + date + "|" + clock
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
