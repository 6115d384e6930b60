package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/career-navigator/internal/types"
)

// MaxResumeBytes is the default upload limit
const MaxResumeBytes = 5 << 20

// Resume content types
const (
	TypePlainText = "text/plain"
	TypePDF       = "application/pdf"
	TypeDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeDOC       = "application/msword"
)

var extensionTypes = map[string]string{
	".txt":  TypePlainText,
	".md":   TypePlainText,
	".pdf":  TypePDF,
	".docx": TypeDOCX,
	".doc":  TypeDOC,
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>|<w:br/>|<w:cr/>`)
	docxTab          = regexp.MustCompile(`<w:tab/>`)
	xmlTag           = regexp.MustCompile(`<[^>]+>`)
)

// Extractor turns resume files into cleaned plain text
type Extractor struct {
	MaxBytes int
}

// NewExtractor creates an extractor with the default size limit
func NewExtractor() *Extractor {
	return &Extractor{MaxBytes: MaxResumeBytes}
}

// ExtractResumeText returns the cleaned text of the resume
func (e *Extractor) ExtractResumeText(ctx context.Context, file types.ResumeBlob) (string, error) {
	text, _, err := e.Extract(ctx, file)
	return text, err
}

// Extract validates the file, extracts and cleans its text, and describes it
func (e *Extractor) Extract(_ context.Context, file types.ResumeBlob) (string, *Metadata, error) {
	limit := e.MaxBytes
	if limit <= 0 {
		limit = MaxResumeBytes
	}
	if len(file.Data) > limit {
		return "", nil, &FileTooLargeError{Size: len(file.Data), Limit: limit}
	}

	contentType := DetectContentType(file)
	var (
		raw string
		err error
	)
	switch contentType {
	case TypePlainText:
		raw = string(file.Data)
	case TypePDF:
		raw, err = extractPDFText(file.Data)
	case TypeDOCX:
		raw, err = extractDocxText(file.Data)
	default:
		return "", nil, &UnsupportedTypeError{ContentType: contentType, Filename: file.Filename}
	}
	if err != nil {
		return "", nil, &ExtractionError{ContentType: contentType, Cause: err}
	}

	text := CleanText(raw)
	meta := NewMetadata(file.Filename, contentType, file.Data, text)
	log.Debug().
		Str("filename", file.Filename).
		Str("content_type", contentType).
		Int("bytes", meta.Bytes).
		Int("characters", meta.Characters).
		Str("sha256", meta.Hash).
		Msg("extracted resume text")
	return text, meta, nil
}

// DetectContentType resolves the file's type from its declared type, then its
// extension, then its leading bytes
func DetectContentType(file types.ResumeBlob) string {
	switch declared := normalizeContentType(file.ContentType); declared {
	case "", "application/octet-stream", "binary/octet-stream":
	default:
		return declared
	}
	if t, ok := extensionTypes[strings.ToLower(filepath.Ext(file.Filename))]; ok {
		return t
	}

	sniffed := normalizeContentType(http.DetectContentType(file.Data))
	switch sniffed {
	case "application/zip":
		// DOCX is a zip container
		return TypeDOCX
	}
	return sniffed
}

func normalizeContentType(ct string) string {
	ct, _, _ = strings.Cut(ct, ";")
	return strings.ToLower(strings.TrimSpace(ct))
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText flattens WordprocessingML into lines of text
func docxXMLToText(content string) string {
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTab.ReplaceAllString(content, " ")
	content = xmlTag.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}
