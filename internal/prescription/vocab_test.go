package prescription

import (
	"strings"
	"testing"
)

func TestFoldTextPreservesByteLength(t *testing.T) {
	cases := []string{
		"Uống 2 viên SÁNG và TỐI",
		"Paracetamol 500MG x 5 NGÀY",
		"İstanbul",           // U+0130 lowercases to a longer sequence
		"nhiệt độ 300K",   // U+212A Kelvin sign lowercases to ASCII k
		"BỆNH VIỆN ĐA KHOA",
	}
	for _, in := range cases {
		out := foldText(in)
		if len(out) != len(in) {
			t.Errorf("foldText(%q) changed byte length: %d -> %d", in, len(in), len(out))
		}
	}
}

func TestFoldTextLowercasesVietnamese(t *testing.T) {
	if got := foldText("SÁNG Trưa CHIỀU Tối"); got != "sáng trưa chiều tối" {
		t.Fatalf("folded = %q", got)
	}
}

func TestFoldTextOffsetsSliceOriginal(t *testing.T) {
	// Anchors found in the folded string must slice the original at the same
	// byte offsets, even when the text carries a length-changing rune.
	text := "Phòng khám İstanbul TÁI KHÁM ngày 27/08/2025"
	folded := foldText(text)
	idx := strings.Index(folded, "tái khám")
	if idx < 0 {
		t.Fatalf("anchor not found in %q", folded)
	}
	if got := text[idx : idx+len("tái khám")]; got != "TÁI KHÁM" {
		t.Fatalf("offset mis-slices original: %q", got)
	}
}
