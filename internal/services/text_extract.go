package services

import (
  "archive/zip"
  "bytes"
  "encoding/xml"
  "fmt"
  "io"
  "path/filepath"
  "regexp"
  "strings"

  pdf "github.com/ledongthuc/pdf"
)

// ExtractText determines the true file type from bytes (sniffing), then
// extracts plain text accordingly.
// Supported: PDF, DOCX, TXT/MD, HTML (strip tags).
// Photos (JPEG/PNG) carry no extractable text layer and are rejected with a
// pointer at the OCR path.
func ExtractText(originalName string, mimeType string, data []byte) (string, error) {
  ext := strings.ToLower(filepath.Ext(originalName))
  mt := strings.ToLower(strings.TrimSpace(mimeType))

  if len(data) == 0 {
    return "", fmt.Errorf("empty file: name=%s mime=%s", originalName, mimeType)
  }

  // 1) Sniff by magic bytes first (most reliable)
  if isPDF(data) {
    return extractPDF(data)
  }
  if isZip(data) {
    // Could be docx/xlsx/other zip. Detect by entries.
    if hasZipEntryPrefix(data, "word/") {
      return extractDOCX(data)
    }
    return "", fmt.Errorf("unsupported zip container: name=%s mime=%s", originalName, mimeType)
  }
  if isJPEG(data) || isPNG(data) {
    return "", fmt.Errorf("image file has no text layer, OCR is required: name=%s mime=%s", originalName, mimeType)
  }

  // 2) Sniff as HTML
  if looksLikeHTML(data) || mt == "text/html" || ext == ".html" || ext == ".htm" {
    return extractHTML(string(data)), nil
  }

  // 3) Sniff as plaintext (very common for .md/.txt)
  if isProbablyText(data) || mt == "text/plain" || ext == ".txt" || ext == ".md" || ext == ".markdown" {
    return collapseWhitespace(string(data)), nil
  }

  // 4) If mime/ext claim something, attempt in a safe order (no blind PDF parse)
  // If it claims pdf but isn't actually pdf, return a helpful error.
  if mt == "application/pdf" || ext == ".pdf" {
    head := firstBytesHex(data, 16)
    return "", fmt.Errorf("file claims pdf but missing %%PDF header. name=%s mime=%s head=%s", originalName, mimeType, head)
  }
  if mt == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" || ext == ".docx" {
    // docx is a zip; if we got here, it's not zip => corrupted
    return "", fmt.Errorf("file claims docx but is not a valid zip container: name=%s mime=%s", originalName, mimeType)
  }

  // 5) Unknown binary
  return "", fmt.Errorf("unsupported file type: name=%s ext=%s mime=%s head=%s", originalName, ext, mimeType, firstBytesHex(data, 16))
}

// ------------------------
// Sniff helpers
// ------------------------

func isPDF(b []byte) bool {
  // PDF starts with "%PDF-"
  return len(b) >= 5 && string(b[:5]) == "%PDF-"
}

func isZip(b []byte) bool {
  // ZIP local file header: PK\x03\x04
  return len(b) >= 4 && b[0] == 'P' && b[1] == 'K' && b[2] == 3 && b[3] == 4
}

func isJPEG(b []byte) bool {
  return len(b) >= 3 && b[0] == 0xFF && b[1] == 0xD8 && b[2] == 0xFF
}

func isPNG(b []byte) bool {
  return len(b) >= 8 && bytes.Equal(b[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A})
}

func looksLikeHTML(b []byte) bool {
  // cheap heuristic: starts with "<" or contains "<html" in early bytes
  s := strings.ToLower(string(b[:min(len(b), 2048)]))
  if strings.HasPrefix(strings.TrimSpace(s), "<!doctype") {
    return true
  }
  if strings.HasPrefix(strings.TrimSpace(s), "<html") {
    return true
  }
  // also catch saved error pages
  if strings.Contains(s, "<html") && strings.Contains(s, "</html>") {
    return true
  }
  return false
}

func isProbablyText(b []byte) bool {
  // Heuristic: if most bytes are printable / whitespace and no NULs.
  sample := b[:min(len(b), 4096)]
  nul := 0
  good := 0
  for _, c := range sample {
    if c == 0x00 {
      nul++
      continue
    }
    if c == '\n' || c == '\r' || c == '\t' || (c >= 0x20 && c <= 0x7E) || c >= 0x80 {
      good++
    }
  }
  if nul > 0 {
    return false
  }
  // allow some binary noise
  return float64(good)/float64(len(sample)) > 0.9
}

func firstBytesHex(b []byte, n int) string {
  n = min(len(b), n)
  // minimal hex without importing encoding/hex
  const hexdigits = "0123456789abcdef"
  out := make([]byte, 0, n*2)
  for i := 0; i < n; i++ {
    out = append(out, hexdigits[b[i]>>4], hexdigits[b[i]&0x0f])
  }
  return string(out)
}

func min(a, b int) int {
  if a < b {
    return a
  }
  return b
}

// ------------------------
// Extractors
// ------------------------

func extractPDF(data []byte) (string, error) {
  r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
  if err != nil {
    return "", fmt.Errorf("pdf reader: %w", err)
  }
  plain, err := r.GetPlainText()
  if err != nil {
    return "", fmt.Errorf("pdf plaintext: %w", err)
  }
  b, err := io.ReadAll(plain)
  if err != nil {
    return "", fmt.Errorf("pdf read: %w", err)
  }
  return collapseWhitespace(string(b)), nil
}

func hasZipEntryPrefix(zipBytes []byte, prefix string) bool {
  zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
  if err != nil {
    return false
  }
  for _, f := range zr.File {
    if strings.HasPrefix(f.Name, prefix) {
      return true
    }
  }
  return false
}

func extractDOCX(zipBytes []byte) (string, error) {
  // DOCX: extract from word/document.xml, gather <w:t>
  zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
  if err != nil {
    return "", err
  }
  f := findZipFile(zr, "word/document.xml")
  if f == nil {
    return "", fmt.Errorf("docx missing word/document.xml")
  }
  rc, err := f.Open()
  if err != nil {
    return "", err
  }
  b, _ := io.ReadAll(rc)
  _ = rc.Close()
  s := collapseWhitespace(extractTextFromXML(b, "t"))
  if s == "" {
    return "", fmt.Errorf("no text extracted from docx")
  }
  return s, nil
}

func findZipFile(zr *zip.Reader, name string) *zip.File {
  for _, f := range zr.File {
    if f.Name == name {
      return f
    }
  }
  return nil
}

func extractTextFromXML(xmlBytes []byte, local string) string {
  dec := xml.NewDecoder(bytes.NewReader(xmlBytes))
  var out strings.Builder
  for {
    tok, err := dec.Token()
    if err != nil {
      break
    }
    se, ok := tok.(xml.StartElement)
    if !ok {
      continue
    }
    if se.Name.Local != local {
      continue
    }
    var v string
    _ = dec.DecodeElement(&v, &se)
    if v != "" {
      out.WriteString(v)
      out.WriteString(" ")
    }
  }
  return out.String()
}

func extractHTML(s string) string {
  re := regexp.MustCompile(`(?s)<[^>]*>`)
  s = re.ReplaceAllString(s, " ")
  s = strings.ReplaceAll(s, "&nbsp;", " ")
  s = strings.ReplaceAll(s, "&amp;", "&")
  return collapseWhitespace(s)
}

func collapseWhitespace(s string) string {
  s = strings.ReplaceAll(s, "\u00a0", " ")
  fields := strings.Fields(s)
  return strings.Join(fields, " ")
}
