package prescription

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Closed vocabularies for the rule-based extractor. Source prescriptions are
// Vietnamese outpatient printouts; extraction is purely syntactic against
// these lists, never inferential.

// Dosage-strength units (attached to the drug, e.g. "500mg").
var strengthUnits = map[string]bool{
	"mg":  true,
	"mcg": true,
	"g":   true,
	"ml":  true,
	"l":   true,
	"ui":  true,
	"iu":  true,
	"%":   true,
}

// Dispense/count units (how much to take or how the drug is packaged).
var countUnits = map[string]bool{
	"viên": true,
	"ống":  true,
	"gói":  true,
	"chai": true,
	"lọ":   true,
	"tuýp": true,
	"giọt": true,
	"vỉ":   true,
}

// Time-of-day tokens in canonical order of the day. Meal modifiers are part
// of the timing vocabulary but carry no clock time of their own.
var timingTokens = []string{
	"sáng",
	"trưa",
	"chiều",
	"tối",
	"trước khi ăn",
	"sau khi ăn",
	"trước ăn",
	"sau ăn",
	"trước khi ngủ",
}

// timingClock maps resolvable timing tokens to reminder clock times.
var timingClock = map[string]string{
	"sáng":  "07:00",
	"trưa":  "12:00",
	"chiều": "17:00",
	"tối":   "20:00",
}

// frequencyTimes maps a canonical times-per-day count to clock times.
var frequencyTimes = map[int][]string{
	1: {"08:00"},
	2: {"08:00", "20:00"},
	3: {"08:00", "13:00", "20:00"},
	4: {"08:00", "12:00", "16:00", "20:00"},
}

// defaultScheduleTimes is the documented fallback applied when a medication
// has neither extractable timing nor a recognized frequency.
var defaultScheduleTimes = []string{"07:00", "12:00", "20:00"}

var numberWords = map[string]int{
	"một":  1,
	"hai":  2,
	"ba":   3,
	"bốn":  4,
	"năm":  5,
	"sáu":  6,
}

var appointmentAnchors = []string{
	"tái khám",
	"hẹn khám",
	"khám lại",
}

var instructionAnchors = []string{
	"lời dặn",
	"dặn dò",
	"ghi chú",
}

var (
	markerRe       = regexp.MustCompile(`\d+\s*[.)]\s*`)
	numberedWordRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(\p{L}+|%)`)
	freqSlashRe    = regexp.MustCompile(`(?i)(\d+)\s*lần\s*/\s*ngày`)
	freqDayFirstRe = regexp.MustCompile(`(?i)ngày\s+(?:uống\s+)?(\d+)\s*lần`)
	freqWordRe     = regexp.MustCompile(`(?i)(một|hai|ba|bốn)\s+lần(?:\s*/\s*ngày|\s+mỗi\s+ngày)?`)
	durationRe     = regexp.MustCompile(`(?i)(\d{1,3})\s*(ngày|tuần|tháng)`)
	dateRe         = regexp.MustCompile(`(\d{1,2})\s*[-/.]\s*(\d{1,2})\s*[-/.]\s*(\d{4})`)
	clockRe        = regexp.MustCompile(`(\d{1,2})[:h](\d{2})`)
	hourOnlyRe     = regexp.MustCompile(`(\d{1,2})h(?:\D|$)`)
	namePrefixRe   = regexp.MustCompile(`^\s*\d+\s*[.)]\s*`)
	doctorRe       = regexp.MustCompile(`(?i)(?:bs\.?|bác sĩ)\s*[:.]?\s*([^,;.\n(]+)`)
	locationRe     = regexp.MustCompile(`(?i)(?:tại|địa điểm|phòng khám|khoa)\s*[:]?\s+([^,;.\n(]+)`)
	notesRe        = regexp.MustCompile(`(?i)(?:lưu ý|mang theo)\s*[:]?\s+([^;\n]+)`)
)

// wordBounded reports whether the match [start,end) in s sits on word
// boundaries. RE2 \b is ASCII-only, which mis-splits Vietnamese words like
// "gói" after the "g", so boundaries are checked on runes instead.
func wordBounded(s string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return false
		}
	}
	if end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// foldText lowercases for vocabulary matching while keeping every byte offset
// valid in the original string. ASCII and Vietnamese precomposed pairs keep
// their UTF-8 length under ToLower; the few runes that would change length
// (U+0130, U+212A) are left unfolded.
func foldText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		lr := unicode.ToLower(r)
		if utf8.RuneLen(lr) != utf8.RuneLen(r) {
			lr = r
		}
		b.WriteRune(lr)
	}
	return b.String()
}

// findAnchor returns the byte offset of the earliest occurrence of any of
// the given anchor phrases in folded, or -1.
func findAnchor(folded string, anchors []string) int {
	best := -1
	for _, a := range anchors {
		idx := strings.Index(folded, a)
		if idx < 0 {
			continue
		}
		if !wordBounded(folded, idx, idx+len(a)) {
			continue
		}
		if best < 0 || idx < best {
			best = idx
		}
	}
	return best
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
