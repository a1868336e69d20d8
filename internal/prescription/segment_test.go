package prescription

import (
	"strings"
	"testing"

	"github.com/medremind/medremind-backend/internal/types"
)

func TestSegmentEmptyInput(t *testing.T) {
	if spans := Segment(""); spans != nil {
		t.Fatalf("expected nil spans for empty input, got %d", len(spans))
	}
	if spans := Segment("   \n\t  "); spans != nil {
		t.Fatalf("expected nil spans for whitespace input, got %d", len(spans))
	}
}

func TestSegmentNoBoundaries(t *testing.T) {
	spans := Segment("uống thuốc đều đặn theo chỉ định")
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Kind != types.SpanUnknown {
		t.Fatalf("expected unknown span, got %q", spans[0].Kind)
	}
}

func TestSegmentRecoversJoinedEntries(t *testing.T) {
	// Extraction passes collapse the medication table into one physical line.
	text := "1. Amoxicillin 500mg uống 2 viên 2. Betaloc 50mg uống 1 viên 3. Cefixim 200mg uống 1 viên"
	spans := Segment(text)
	if len(spans) != 3 {
		t.Fatalf("expected 3 spans, got %d: %+v", len(spans), spans)
	}
	for i, sp := range spans {
		if sp.Kind != types.SpanMedication {
			t.Errorf("span %d: expected medication kind, got %q", i, sp.Kind)
		}
		if sp.Index != i {
			t.Errorf("span %d: index = %d", i, sp.Index)
		}
	}
	if !strings.HasPrefix(spans[1].Text, "2.") {
		t.Errorf("span 1 should start at the second marker, got %q", spans[1].Text)
	}
}

func TestSegmentMarkerNeedsUppercaseName(t *testing.T) {
	// Price figures and decimals must not open medication spans.
	spans := Segment("Tổng tiền: 120.000đ cho toa thuốc")
	for _, sp := range spans {
		if sp.Kind == types.SpanMedication {
			t.Fatalf("price figure opened a medication span: %+v", spans)
		}
	}
}

func TestSegmentAppointmentKeywordAnchor(t *testing.T) {
	text := "1. Paracetamol 500mg uống 2 viên Tái khám ngày 27/08/2025"
	spans := Segment(text)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Kind != types.SpanMedication || spans[1].Kind != types.SpanAppointment {
		t.Fatalf("unexpected kinds: %q, %q", spans[0].Kind, spans[1].Kind)
	}
}

func TestSegmentHeaderDateIsNotAppointment(t *testing.T) {
	// A date before any medication marker is an issue date or birth date,
	// never a follow-up appointment.
	text := "Ngày kê đơn: 20-08-2025 1. Paracetamol 500mg uống 2 viên"
	spans := Segment(text)
	for _, sp := range spans {
		if sp.Kind == types.SpanAppointment {
			t.Fatalf("header date opened an appointment span: %+v", spans)
		}
	}
	if spans[0].Kind != types.SpanUnknown {
		t.Fatalf("expected unknown head span, got %q", spans[0].Kind)
	}
}

func TestSegmentTrailingBareDateIsAppointment(t *testing.T) {
	text := "1. Paracetamol 500mg uống 2 viên hẹn 27/08/2025"
	spans := Segment(text)
	last := spans[len(spans)-1]
	if last.Kind != types.SpanAppointment {
		t.Fatalf("trailing bare date should open an appointment span, got %+v", spans)
	}
}

func TestSegmentInstructionAnchor(t *testing.T) {
	text := "1. Paracetamol 500mg uống 2 viên Lời dặn: uống nhiều nước"
	spans := Segment(text)
	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[1].Kind != types.SpanInstruction {
		t.Fatalf("expected instruction span, got %q", spans[1].Kind)
	}
}
