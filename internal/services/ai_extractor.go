package services

import (
  "context"
  "encoding/json"
  "fmt"

  "github.com/medremind/medremind-backend/internal/logger"
  "github.com/medremind/medremind-backend/internal/prescription"
  "github.com/medremind/medremind-backend/internal/types"
)

const extractionSystemPrompt = `You are a medical transcription assistant. You receive the raw text of a Vietnamese outpatient prescription and return ONLY a JSON object with this shape:
{
  "medications": [{"name": "", "dosage_text": "", "frequency_text": "", "frequency_per_day": 0, "timing": [""], "duration_text": "", "quantity": 0, "unit": "", "instructions": [""]}],
  "appointments": [{"type": "", "date": "YYYY-MM-DD", "time": "HH:mm", "location": "", "doctor": "", "notes": ""}],
  "instructions": [{"text": ""}]
}
Copy values verbatim from the text. Leave a field empty or zero when the text does not state it. Never invent medications, doses or dates.`

// AIExtractor turns raw prescription text into an ExtractedDocument. It walks
// the configured providers in order and lands on the deterministic rule-based
// extractor, which cannot fail, so Extract always produces a document.
type AIExtractor interface {
  Extract(ctx context.Context, rawText string) (types.ExtractedDocument, string)
}

type aiExtractor struct {
  log       *logger.Logger
  providers []AIProvider
}

func NewAIExtractor(log *logger.Logger, providers []AIProvider) AIExtractor {
  return &aiExtractor{
    log:       log.With("service", "AIExtractor"),
    providers: providers,
  }
}

// Extract returns the document and the name of the source that produced it
// ("openai", "gemini", "groq" or "rule_based").
func (e *aiExtractor) Extract(ctx context.Context, rawText string) (types.ExtractedDocument, string) {
  for _, p := range e.providers {
    doc, err := e.extractWith(ctx, p, rawText)
    if err != nil {
      e.log.Warn("provider extraction failed, falling through", "provider", p.Name(), "error", err)
      continue
    }
    e.log.Info("extraction succeeded", "provider", p.Name(), "medications", len(doc.Medications))
    return doc, p.Name()
  }
  spans := prescription.Segment(rawText)
  doc := prescription.ExtractDocument(spans)
  e.log.Info("extraction fell back to rules", "medications", len(doc.Medications))
  return doc, "rule_based"
}

type aiMedication struct {
  Name            string   `json:"name"`
  DosageText      string   `json:"dosage_text"`
  FrequencyText   string   `json:"frequency_text"`
  FrequencyPerDay int      `json:"frequency_per_day"`
  Timing          []string `json:"timing"`
  DurationText    string   `json:"duration_text"`
  Quantity        float64  `json:"quantity"`
  Unit            string   `json:"unit"`
  Instructions    []string `json:"instructions"`
}

type aiAppointment struct {
  Type     string `json:"type"`
  Date     string `json:"date"`
  Time     string `json:"time"`
  Location string `json:"location"`
  Doctor   string `json:"doctor"`
  Notes    string `json:"notes"`
}

type aiInstruction struct {
  Text string `json:"text"`
}

type aiDocument struct {
  Medications  []aiMedication  `json:"medications"`
  Appointments []aiAppointment `json:"appointments"`
  Instructions []aiInstruction `json:"instructions"`
}

func (e *aiExtractor) extractWith(ctx context.Context, p AIProvider, rawText string) (types.ExtractedDocument, error) {
  var doc types.ExtractedDocument

  raw, err := p.GenerateJSON(ctx, extractionSystemPrompt, rawText)
  if err != nil {
    return doc, err
  }
  buf, err := json.Marshal(raw)
  if err != nil {
    return doc, err
  }
  var parsed aiDocument
  if err := json.Unmarshal(buf, &parsed); err != nil {
    return doc, fmt.Errorf("provider output shape: %w", err)
  }

  for _, m := range parsed.Medications {
    if m.Name == "" {
      continue
    }
    med := types.Medication{
      Name:            m.Name,
      Timing:          m.Timing,
      Instructions:    m.Instructions,
      SourceSpanIndex: -1,
    }
    if m.DosageText != "" {
      med.DosageText = optStr(m.DosageText)
    }
    if m.FrequencyText != "" {
      med.FrequencyText = optStr(m.FrequencyText)
    }
    if m.FrequencyPerDay > 0 {
      n := m.FrequencyPerDay
      med.FrequencyPerDay = &n
    }
    if m.DurationText != "" {
      med.DurationText = optStr(m.DurationText)
    }
    if m.Quantity > 0 {
      q := m.Quantity
      med.Quantity = &q
    }
    if m.Unit != "" {
      med.Unit = optStr(m.Unit)
    }
    doc.Medications = append(doc.Medications, med)
  }
  for _, a := range parsed.Appointments {
    appt := types.Appointment{Type: a.Type, SourceSpanIndex: -1}
    if appt.Type == "" {
      appt.Type = "Khám"
    }
    if a.Date != "" {
      appt.Date = optStr(a.Date)
    }
    if a.Time != "" {
      appt.Time = optStr(a.Time)
    }
    if a.Location != "" {
      appt.Location = optStr(a.Location)
    }
    if a.Doctor != "" {
      appt.Doctor = optStr(a.Doctor)
    }
    if a.Notes != "" {
      appt.Notes = optStr(a.Notes)
    }
    doc.Appointments = append(doc.Appointments, appt)
  }
  for _, ins := range parsed.Instructions {
    if ins.Text == "" {
      continue
    }
    doc.Instructions = append(doc.Instructions, types.Instruction{Text: ins.Text, SourceSpanIndex: -1})
  }

  if len(doc.Medications) == 0 {
    return doc, fmt.Errorf("provider returned no medications")
  }
  return doc, nil
}

func optStr(s string) *string { return &s }
