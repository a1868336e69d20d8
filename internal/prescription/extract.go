package prescription

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/medremind/medremind-backend/internal/types"
)

// ExtractDocument maps segmented spans to typed records. Extraction is
// purely syntactic: a field that is not textually present stays nil, which
// is exactly the signal the scheduler's default-fallback policy consumes.
func ExtractDocument(spans []types.Span) types.ExtractedDocument {
	var doc types.ExtractedDocument
	for _, sp := range spans {
		switch sp.Kind {
		case types.SpanMedication:
			if med, ok := parseMedication(sp); ok {
				doc.Medications = append(doc.Medications, med)
			} else if text := strings.TrimSpace(sp.Text); text != "" {
				doc.Instructions = append(doc.Instructions, types.Instruction{Text: text, SourceSpanIndex: sp.Index})
			}
		case types.SpanAppointment:
			doc.Appointments = append(doc.Appointments, parseAppointment(sp))
		case types.SpanInstruction:
			doc.Instructions = append(doc.Instructions, parseInstruction(sp))
		default:
			extractUnclassified(&doc, sp)
		}
	}
	return doc
}

// extractUnclassified is the best-effort path for spans with no layout
// signal (typically a whole blob that had zero markers). A medication is
// only accepted here when the span also carries dosage, quantity or
// frequency evidence; leading capitalized words alone would turn hospital
// letterheads into drugs.
func extractUnclassified(doc *types.ExtractedDocument, sp types.Span) {
	if med, ok := parseMedication(sp); ok {
		if med.DosageText != nil || med.Quantity != nil || med.FrequencyText != nil {
			doc.Medications = append(doc.Medications, med)
			return
		}
	}
	folded := foldText(sp.Text)
	if findAnchor(folded, appointmentAnchors) >= 0 {
		doc.Appointments = append(doc.Appointments, parseAppointment(sp))
		return
	}
	if text := strings.TrimSpace(sp.Text); text != "" {
		doc.Instructions = append(doc.Instructions, types.Instruction{Text: text, SourceSpanIndex: sp.Index})
	}
}

// ---------------- medication ----------------

func parseMedication(sp types.Span) (types.Medication, bool) {
	text := collapseSpaces(namePrefixRe.ReplaceAllString(sp.Text, ""))
	med := types.Medication{SourceSpanIndex: sp.Index}
	if text == "" {
		return med, false
	}

	var consumed [][2]int

	name, nameEnd := extractName(text)
	if name == "" {
		return med, false
	}
	med.Name = name
	consumed = append(consumed, [2]int{0, nameEnd})

	// Number+word pairs: dosage strength and dispense quantity. First match
	// of each category wins; extraction never reconciles repeats.
	for _, m := range numberedWordRe.FindAllStringSubmatchIndex(text, -1) {
		if !wordBounded(text, m[0], m[1]) {
			continue
		}
		num := text[m[2]:m[3]]
		word := foldText(text[m[4]:m[5]])
		switch {
		case strengthUnits[word] && med.DosageText == nil:
			d := num + word
			med.DosageText = &d
			consumed = append(consumed, [2]int{m[0], m[1]})
		case countUnits[word] && med.Quantity == nil:
			if q, err := strconv.ParseFloat(strings.ReplaceAll(num, ",", "."), 64); err == nil {
				u := word
				med.Quantity = &q
				med.Unit = &u
				consumed = append(consumed, [2]int{m[0], m[1]})
			}
		}
	}

	if ft, n, loc := matchFrequency(text); ft != "" {
		med.FrequencyText = &ft
		med.FrequencyPerDay = &n
		consumed = append(consumed, loc)
	}

	timing, timingLocs := findTimings(text)
	med.Timing = timing
	consumed = append(consumed, timingLocs...)

	if m := durationRe.FindStringSubmatchIndex(text); m != nil && wordBounded(text, m[0], m[1]) {
		dt := collapseSpaces(text[m[0]:m[1]])
		med.DurationText = &dt
		consumed = append(consumed, [2]int{m[0], m[1]})
	}

	if rest := cleanInstructionText(complement(text, consumed)); rest != "" {
		med.Instructions = []string{rest}
	}
	return med, true
}

// extractName takes the leading capitalized token run after the ordinal
// marker, stopping at the first digit-led token, lowercase token or
// separator. "Vitamin B1" keeps B1; "Paracetamol 500mg" stops before 500.
func extractName(text string) (string, int) {
	const maxNameTokens = 6
	pos := 0
	end := 0
	tokens := 0
	for pos < len(text) && tokens < maxNameTokens {
		for pos < len(text) {
			r, size := utf8.DecodeRuneInString(text[pos:])
			if r != ' ' {
				break
			}
			pos += size
		}
		start := pos
		for pos < len(text) {
			r, size := utf8.DecodeRuneInString(text[pos:])
			if r == ' ' || strings.ContainsRune(",;:()–-/", r) {
				break
			}
			pos += size
		}
		if pos == start {
			break
		}
		token := text[start:pos]
		first, _ := utf8.DecodeRuneInString(token)
		if !unicode.IsUpper(first) {
			break
		}
		end = pos
		tokens++
		if pos < len(text) {
			r, _ := utf8.DecodeRuneInString(text[pos:])
			if r != ' ' {
				break
			}
		}
	}
	name := strings.TrimSpace(text[:end])
	if name == "" {
		return "", 0
	}
	return name, end
}

func matchFrequency(text string) (string, int, [2]int) {
	if m := freqSlashRe.FindStringSubmatchIndex(text); m != nil {
		if n, err := strconv.Atoi(text[m[2]:m[3]]); err == nil && n > 0 {
			return collapseSpaces(text[m[0]:m[1]]), n, [2]int{m[0], m[1]}
		}
	}
	if m := freqDayFirstRe.FindStringSubmatchIndex(text); m != nil {
		if n, err := strconv.Atoi(text[m[2]:m[3]]); err == nil && n > 0 {
			return collapseSpaces(text[m[0]:m[1]]), n, [2]int{m[0], m[1]}
		}
	}
	if m := freqWordRe.FindStringSubmatchIndex(text); m != nil {
		word := foldText(text[m[2]:m[3]])
		if n, ok := numberWords[word]; ok {
			return collapseSpaces(text[m[0]:m[1]]), n, [2]int{m[0], m[1]}
		}
	}
	return "", 0, [2]int{}
}

// findTimings returns time-of-day and meal-modifier tokens in order of
// appearance. The list is independent of the frequency count on purpose:
// when the two disagree the validator flags it, nothing reconciles them.
func findTimings(text string) ([]string, [][2]int) {
	folded := foldText(text)
	type hit struct {
		pos   int
		end   int
		token string
	}
	var hits []hit
	for _, tok := range timingTokens {
		from := 0
		for {
			i := strings.Index(folded[from:], tok)
			if i < 0 {
				break
			}
			p := from + i
			if wordBounded(folded, p, p+len(tok)) {
				hits = append(hits, hit{pos: p, end: p + len(tok), token: tok})
			}
			from = p + len(tok)
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	var out []string
	var locs [][2]int
	lastEnd := -1
	for _, h := range hits {
		if h.pos < lastEnd {
			continue // overlapping token ("sau ăn" within "sau khi ăn")
		}
		out = append(out, h.token)
		locs = append(locs, [2]int{h.pos, h.end})
		lastEnd = h.end
	}
	return out, locs
}

// complement returns the parts of text not covered by consumed intervals.
func complement(text string, consumed [][2]int) string {
	if len(consumed) == 0 {
		return text
	}
	sort.Slice(consumed, func(i, j int) bool { return consumed[i][0] < consumed[j][0] })
	var b strings.Builder
	pos := 0
	for _, iv := range consumed {
		if iv[0] > pos {
			b.WriteString(text[pos:iv[0]])
			b.WriteString(" ")
		}
		if iv[1] > pos {
			pos = iv[1]
		}
	}
	if pos < len(text) {
		b.WriteString(text[pos:])
	}
	return b.String()
}

func cleanInstructionText(s string) string {
	s = collapseSpaces(s)
	s = strings.Trim(s, " .,;:–-/()")
	if utf8.RuneCountInString(s) < 2 {
		return ""
	}
	return s
}

// ---------------- appointment ----------------

func parseAppointment(sp types.Span) types.Appointment {
	text := collapseSpaces(sp.Text)
	folded := foldText(text)
	appt := types.Appointment{Type: "Khám", SourceSpanIndex: sp.Index}
	switch {
	case strings.Contains(folded, "tái khám"):
		appt.Type = "Tái khám"
	case strings.Contains(folded, "hẹn khám"):
		appt.Type = "Hẹn khám"
	case strings.Contains(folded, "khám lại"):
		appt.Type = "Khám lại"
	}

	if m := dateRe.FindStringSubmatch(text); m != nil {
		if iso, ok := normalizeDate(m[1], m[2], m[3]); ok {
			appt.Date = &iso
		}
	}
	if m := clockRe.FindStringSubmatch(text); m != nil {
		if hm, ok := normalizeClockParts(m[1], m[2]); ok {
			appt.Time = &hm
		}
	} else if m := hourOnlyRe.FindStringSubmatch(text); m != nil {
		if hm, ok := normalizeClockParts(m[1], "00"); ok {
			appt.Time = &hm
		}
	}

	if m := doctorRe.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			appt.Doctor = &v
		}
	}
	if m := locationRe.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			appt.Location = &v
		}
	}
	if m := notesRe.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			appt.Notes = &v
		}
	}
	return appt
}

// ---------------- instruction ----------------

var instructionLabelRe = regexp.MustCompile(`(?i)^(?:lời dặn|dặn dò|ghi chú)(?:\s+của\s+bác\s+sĩ)?\s*[:\-]?\s*`)

func parseInstruction(sp types.Span) types.Instruction {
	text := strings.TrimSpace(sp.Text)
	if body := strings.TrimSpace(instructionLabelRe.ReplaceAllString(text, "")); body != "" {
		text = body
	}
	return types.Instruction{Text: text, SourceSpanIndex: sp.Index}
}

// ---------------- calendar helpers ----------------

func normalizeDate(dayStr, monthStr, yearStr string) (string, bool) {
	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return "", false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return "", false
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return "", false
	}
	if year < 1900 || year > 2200 {
		return "", false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return "", false // e.g. 31-02-2025 rolled over
	}
	return t.Format("2006-01-02"), true
}

func normalizeClockParts(hourStr, minStr string) (string, bool) {
	hour, err := strconv.Atoi(hourStr)
	if err != nil {
		return "", false
	}
	minute, err := strconv.Atoi(minStr)
	if err != nil {
		return "", false
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", hour, minute), true
}
