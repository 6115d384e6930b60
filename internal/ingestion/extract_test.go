package ingestion

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-navigator/internal/types"
)

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	files := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/_rels/document.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`,
		"word/document.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
			body + `</w:body></w:document>`,
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtract_PlainText(t *testing.T) {
	e := NewExtractor()
	text, meta, err := e.Extract(context.Background(), types.ResumeBlob{
		Filename: "resume.txt",
		Data:     []byte("Jane Doe\r\n\r\n\r\n\r\nSkills:   React,  TypeScript"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\n\nSkills: React, TypeScript", text)
	assert.Equal(t, TypePlainText, meta.ContentType)
}

func TestExtract_Docx(t *testing.T) {
	data := buildDocx(t,
		`<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>React &amp; GraphQL</w:t></w:r></w:p>`)

	e := NewExtractor()
	text, err := e.ExtractResumeText(context.Background(), types.ResumeBlob{Filename: "resume.docx", Data: data})
	require.NoError(t, err)
	assert.Contains(t, text, "Jane Doe\nReact & GraphQL")
}

func TestExtract_InvalidPDF(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractResumeText(context.Background(), types.ResumeBlob{
		Filename: "resume.pdf",
		Data:     []byte("%PDF-1.4 not really a pdf"),
	})
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr))
	assert.Equal(t, TypePDF, extractErr.ContentType)
}

func TestExtract_LegacyDocUnsupported(t *testing.T) {
	e := NewExtractor()
	_, err := e.ExtractResumeText(context.Background(), types.ResumeBlob{Filename: "resume.doc", Data: []byte{0xD0, 0xCF, 0x11, 0xE0}})
	var unsupported *UnsupportedTypeError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, TypeDOC, unsupported.ContentType)
}

func TestExtract_TooLarge(t *testing.T) {
	e := &Extractor{MaxBytes: 8}
	_, err := e.ExtractResumeText(context.Background(), types.ResumeBlob{Filename: "resume.txt", Data: []byte("123456789")})
	var tooLarge *FileTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, 9, tooLarge.Size)
	assert.Equal(t, 8, tooLarge.Limit)
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name     string
		blob     types.ResumeBlob
		expected string
	}{
		{"declared wins", types.ResumeBlob{Filename: "resume.bin", ContentType: "application/pdf"}, TypePDF},
		{"declared with params", types.ResumeBlob{ContentType: "text/plain; charset=utf-8"}, TypePlainText},
		{"octet stream falls back to extension", types.ResumeBlob{Filename: "CV.DOCX", ContentType: "application/octet-stream"}, TypeDOCX},
		{"markdown is text", types.ResumeBlob{Filename: "resume.md"}, TypePlainText},
		{"sniffed pdf", types.ResumeBlob{Data: []byte("%PDF-1.7\n")}, TypePDF},
		{"sniffed zip is docx", types.ResumeBlob{Data: []byte("PK\x03\x04rest")}, TypeDOCX},
		{"sniffed text", types.ResumeBlob{Data: []byte("Jane Doe")}, TypePlainText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectContentType(tt.blob))
		})
	}
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:p><w:r><w:t>A</w:t><w:tab/><w:t>B</w:t></w:r></w:p><w:p><w:r><w:t>C &lt; D</w:t></w:r></w:p>`
	assert.Equal(t, "A B\nC < D\n", docxXMLToText(xml))
}
