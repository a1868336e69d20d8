package prescription

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/medremind/medremind-backend/internal/types"
)

// Segment splits one extraction blob into ordered per-entry spans.
//
// Medication boundaries are ordinal markers ("1. Paracetamol ..."); the
// marker pattern requires an uppercase letter on the candidate name so that
// figures like "120.000đ" never open a span. Appointment and instruction
// zones do not follow the numbered-list convention and are anchored by
// keyword instead. Extraction passes routinely join several logical lines
// into one physical line, so splitting works on marker positions in the whole
// blob, not on newlines.
//
// Segment never fails: with no recognizable boundary the whole blob comes
// back as a single unclassified span and uncertainty propagates downstream.
func Segment(text string) []types.Span {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	type boundary struct {
		pos  int
		kind types.SpanKind
	}
	var bounds []boundary

	for _, loc := range markerRe.FindAllStringIndex(trimmed, -1) {
		if !markerOpensEntry(trimmed, loc[0], loc[1]) {
			continue
		}
		bounds = append(bounds, boundary{pos: loc[0], kind: types.SpanMedication})
	}

	lastMarker := -1
	for _, b := range bounds {
		if b.pos > lastMarker {
			lastMarker = b.pos
		}
	}

	folded := foldText(trimmed)
	if idx := appointmentAnchorIndex(folded, lastMarker); idx >= 0 {
		bounds = append(bounds, boundary{pos: idx, kind: types.SpanAppointment})
	}
	if idx := findAnchor(folded, instructionAnchors); idx >= 0 {
		bounds = append(bounds, boundary{pos: idx, kind: types.SpanInstruction})
	}

	if len(bounds) == 0 {
		return []types.Span{{Index: 0, Kind: types.SpanUnknown, Text: trimmed}}
	}

	// Stable order by position; a marker and an anchor at the same offset
	// cannot happen (markers start with a digit, anchors with a letter).
	for i := 1; i < len(bounds); i++ {
		for j := i; j > 0 && bounds[j].pos < bounds[j-1].pos; j-- {
			bounds[j], bounds[j-1] = bounds[j-1], bounds[j]
		}
	}

	var spans []types.Span
	if head := strings.TrimSpace(trimmed[:bounds[0].pos]); head != "" {
		spans = append(spans, types.Span{Kind: types.SpanUnknown, Text: head})
	}
	for i, b := range bounds {
		end := len(trimmed)
		if i+1 < len(bounds) {
			end = bounds[i+1].pos
		}
		body := strings.TrimSpace(trimmed[b.pos:end])
		if body == "" {
			continue
		}
		spans = append(spans, types.Span{Kind: b.kind, Text: body})
	}
	for i := range spans {
		spans[i].Index = i
	}
	return spans
}

// markerOpensEntry verifies that an ordinal-marker match really opens a new
// entry: it must not sit inside a word or number, and the token after the
// separator must begin with an uppercase letter.
func markerOpensEntry(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ',' || r == '.' {
			return false
		}
	}
	r, size := utf8.DecodeRuneInString(text[end:])
	if size == 0 {
		return false
	}
	return unicode.IsUpper(r)
}

// appointmentAnchorIndex finds the start of the appointment zone: the
// earliest re-examination phrase, or, failing that, the earliest full date
// token (DD-MM-YYYY style). A bare date only counts when it appears after
// the last medication marker; a date in the document header (issue date,
// date of birth) must not open an appointment zone.
func appointmentAnchorIndex(folded string, lastMarker int) int {
	if idx := findAnchor(folded, appointmentAnchors); idx >= 0 {
		return idx
	}
	for _, loc := range dateRe.FindAllStringIndex(folded, -1) {
		if loc[0] > lastMarker {
			return loc[0]
		}
	}
	return -1
}
