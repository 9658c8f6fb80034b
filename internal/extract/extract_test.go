package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"jobassist-backend/internal/shared/apperr"
)

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		if p == "" {
			body.WriteString(`<w:p/>`)
			continue
		}
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
		body.WriteString(p)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		body.String() +
		`</w:body></w:document>`

	return buildZip(t, map[string]string{
		"[Content_Types].xml":          `<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":            document,
		"word/_rels/document.xml.rels": documentRels,
	})
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// buildPDF writes a one-page PDF that shows text in Helvetica.
func buildPDF(t *testing.T, text string) []byte {
	t.Helper()
	stream := fmt.Sprintf("BT /F1 12 Tf 72 720 Td (%s) Tj ET", text)
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractPDFReturnsText(t *testing.T) {
	data := buildPDF(t, "Jane Doe Engineer")
	for _, mime := range []string{MimePDF, "application/octet-stream"} {
		got, err := ExtractTextFromBytes(context.Background(), data, mime, "cv.pdf")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", mime, err)
		}
		if !strings.Contains(got, "Jane Doe Engineer") {
			t.Fatalf("%s: got %q, want it to contain %q", mime, got, "Jane Doe Engineer")
		}
	}
}

func TestExtractDOCXJoinsParagraphs(t *testing.T) {
	data := buildDocx(t, "Jane Doe", "jane.doe@example.com", "", "Skills", "Python, SQL")

	text, err := ExtractTextFromBytes(context.Background(), data, MimeDOCX, "resume.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "Jane Doe\njane.doe@example.com\n\nSkills\nPython, SQL"
	if text != want {
		t.Fatalf("text = %q, want %q", text, want)
	}
}

func TestExtractTextFromBytes_ZipDocxNormalizes(t *testing.T) {
	data := buildDocx(t, "Hello")
	text, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "test.docx")
	if err != nil {
		t.Fatalf("expected docx to extract from zip mime, got error: %v", err)
	}
	if text != "Hello" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractTextFromBytes_RealZipRejected(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "hello"})

	_, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "notes.zip")
	if !errors.Is(err, apperr.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractUnsupportedTypes(t *testing.T) {
	tests := []struct {
		name     string
		mime     string
		fileName string
	}{
		{name: "plain text", mime: "text/plain", fileName: "resume.txt"},
		{name: "legacy word", mime: "application/msword", fileName: "resume.doc"},
		{name: "image", mime: "image/png", fileName: "resume.png"},
		{name: "octet stream without known extension", mime: "application/octet-stream", fileName: "resume.bin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Data that would break either parser: the type check must run first.
			_, err := ExtractTextFromBytes(context.Background(), []byte("%PDF-garbage"), tt.mime, tt.fileName)
			if !errors.Is(err, apperr.ErrUnsupportedFormat) {
				t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
			}
		})
	}
}

func TestExtractWhitespaceOnlyIsEmptyDocument(t *testing.T) {
	data := buildDocx(t, "   ", "", "\t")
	_, err := ExtractTextFromBytes(context.Background(), data, MimeDOCX, "blank.docx")
	if !errors.Is(err, apperr.ErrEmptyDocument) {
		t.Fatalf("expected ErrEmptyDocument, got %v", err)
	}
}

func TestExtractMalformedBinaries(t *testing.T) {
	tests := []struct {
		name string
		mime string
		data []byte
	}{
		{name: "pdf garbage", mime: MimePDF, data: []byte("not really a pdf")},
		{name: "pdf empty", mime: MimePDF, data: nil},
		{name: "docx garbage", mime: MimeDOCX, data: []byte("not a zip")},
		{name: "docx without document part", mime: MimeDOCX, data: buildZip(t, map[string]string{"other.xml": "<x/>"})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ExtractTextFromBytes(context.Background(), tt.data, tt.mime, "")
			if !errors.Is(err, apperr.ErrExtractionFailure) {
				t.Fatalf("expected ErrExtractionFailure, got %v", err)
			}
		})
	}
}

func TestExtractHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ExtractTextFromBytes(ctx, buildDocx(t, "x"), MimeDOCX, "x.docx")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNormalizeMimeTypeFallsBackToExtension(t *testing.T) {
	if got := NormalizeMimeType("application/octet-stream", "CV.PDF", nil); got != MimePDF {
		t.Fatalf("got %q, want pdf", got)
	}
	if got := NormalizeMimeType("", "cv.docx", nil); got != MimeDOCX {
		t.Fatalf("got %q, want docx", got)
	}
	if got := NormalizeMimeType("application/pdf; charset=binary", "", nil); got != MimePDF {
		t.Fatalf("got %q, want pdf", got)
	}
}

func TestParagraphTextHandlesBreaksAndTabs(t *testing.T) {
	raw := `<w:document xmlns:w="w"><w:body>` +
		`<w:p><w:r><w:t>Role</w:t><w:tab/><w:t>2020</w:t><w:br/><w:t>Acme</w:t></w:r></w:p>` +
		`<w:p><w:r><w:instrText>IGNORED</w:instrText><w:t>Next</w:t></w:r></w:p>` +
		`</w:body></w:document>`
	got, err := paragraphText(raw)
	if err != nil {
		t.Fatalf("paragraphText: %v", err)
	}
	if got != "Role\t2020\nAcme\nNext" {
		t.Fatalf("unexpected text: %q", got)
	}
}
