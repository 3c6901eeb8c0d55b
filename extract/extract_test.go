package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"clausecheck-backend/models"
)

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("zip Create() error: %v", err)
	}
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body + `</w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("zip Write() error: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close() error: %v", err)
	}
	return buf.Bytes()
}

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t,
		`<w:p><w:r><w:t>1. Confidentiality.</w:t></w:r><w:r><w:t xml:space="preserve"> Each party keeps</w:t></w:r><w:r><w:t xml:space="preserve"> secrets.</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>2. Term.</w:t><w:br/><w:t>Five years.</w:t></w:r></w:p>`)

	got, err := NewDocumentExtractor().Extract(context.Background(), "nda.docx", data)
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	want := "1. Confidentiality. Each party keeps secrets.\n\n2. Term.\nFive years.\n\n"
	if got != want {
		t.Errorf("Extract() = %q, want %q", got, want)
	}
}

func TestExtract_Text(t *testing.T) {
	got, err := NewDocumentExtractor().Extract(context.Background(), "terms.TXT", []byte("\xef\xbb\xbfPayment is due in 30 days."))
	if err != nil {
		t.Fatalf("Extract() error: %v", err)
	}
	if got != "Payment is due in 30 days." {
		t.Errorf("Extract() = %q", got)
	}
}

func TestExtract_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     []byte
		want     error
	}{
		{name: "corrupt pdf", filename: "broken.pdf", data: []byte("%PDF-1.4\nthis is not really a pdf"), want: models.ErrExtraction},
		{name: "corrupt docx", filename: "broken.docx", data: []byte("PK not a zip"), want: models.ErrExtraction},
		{name: "docx without body", filename: "empty.docx", data: func() []byte {
			var buf bytes.Buffer
			zw := zip.NewWriter(&buf)
			zw.Create("word/styles.xml")
			zw.Close()
			return buf.Bytes()
		}(), want: models.ErrExtraction},
		{name: "invalid utf8", filename: "latin1.txt", data: []byte("Zahlung f\xe4llig"), want: models.ErrExtraction},
		{name: "legacy doc", filename: "old.doc", data: []byte{0xd0, 0xcf, 0x11, 0xe0}, want: models.ErrUnsupportedFormat},
		{name: "image", filename: "scan.png", data: []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), want: models.ErrUnsupportedFormat},
		{name: "empty", filename: "empty.txt", data: nil, want: models.ErrInvalidDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDocumentExtractor().Extract(context.Background(), tt.filename, tt.data)
			if !errors.Is(err, tt.want) {
				t.Errorf("Extract() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDetectFormat_SniffsContentWithoutExtension(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{data: []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n"), want: MimePDF},
		{data: []byte("The supplier shall deliver the goods."), want: MimeText},
	}
	for _, tt := range tests {
		if got := DetectFormat("upload", tt.data); got != tt.want {
			t.Errorf("DetectFormat(%q) = %q, want %q", tt.data[:8], got, tt.want)
		}
	}
}

func TestExtract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDocumentExtractor().Extract(ctx, "a.txt", []byte(strings.Repeat("a", 10)))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
