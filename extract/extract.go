// Package extract turns uploaded contract files into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"clausecheck-backend/models"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
	MimeText = "text/plain"
)

// Extractor turns file content into raw text
type Extractor interface {
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// DocumentExtractor handles PDF, DOCX and plain text
type DocumentExtractor struct{}

// NewDocumentExtractor creates a DocumentExtractor
func NewDocumentExtractor() *DocumentExtractor {
	return &DocumentExtractor{}
}

// DetectFormat returns the MIME type of a file, by extension first and by content otherwise
func DetectFormat(filename string, data []byte) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".doc":
		return MimeDOC
	case ".txt", ".text":
		return MimeText
	}

	mime := mimetype.Detect(data)
	for _, m := range []string{MimePDF, MimeDOCX, MimeDOC, MimeText} {
		if mime.Is(m) {
			return m
		}
	}
	return mime.String()
}

// Extract implements Extractor
func (e *DocumentExtractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", models.NewError(models.KindInvalidDocument, "%s is empty", filename)
	}

	switch format := DetectFormat(filename, data); format {
	case MimePDF:
		return extractPDF(filename, data)
	case MimeDOCX:
		return extractDOCX(filename, data)
	case MimeText:
		if !utf8.Valid(data) {
			return "", models.NewError(models.KindExtraction, "%s is not valid UTF-8 text", filename)
		}
		return string(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))), nil
	case MimeDOC:
		return "", models.NewError(models.KindUnsupportedFormat, "legacy .doc files are not supported, convert %s to .docx or .pdf", filename)
	default:
		return "", models.NewError(models.KindUnsupportedFormat, "unsupported file format %s for %s", format, filename)
	}
}

func extractPDF(filename string, data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			text, err = "", models.NewError(models.KindExtraction, "failed to read PDF %s: %v", filename, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", models.WrapError(models.KindExtraction, err, "failed to open PDF %s", filename)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", models.WrapError(models.KindExtraction, err, "failed to extract text from PDF %s", filename)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return "", models.WrapError(models.KindExtraction, err, "failed to extract text from PDF %s", filename)
	}
	return buf.String(), nil
}

func extractDOCX(filename string, data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", models.WrapError(models.KindExtraction, err, "failed to open DOCX %s", filename)
	}

	var body *zip.File
	for _, f := range archive.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		return "", models.NewError(models.KindExtraction, "%s has no word/document.xml", filename)
	}

	rc, err := body.Open()
	if err != nil {
		return "", models.WrapError(models.KindExtraction, err, "failed to open DOCX body of %s", filename)
	}
	defer rc.Close()

	text, err := documentText(rc)
	if err != nil {
		return "", models.WrapError(models.KindExtraction, err, "failed to parse DOCX %s", filename)
	}
	return text, nil
}

// documentText collects w:t runs, breaking lines at paragraphs and w:br/w:cr
func documentText(r io.Reader) (string, error) {
	const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteByte('\t')
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}
	return b.String(), nil
}

var _ Extractor = (*DocumentExtractor)(nil)
