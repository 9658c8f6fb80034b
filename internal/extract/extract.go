package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"jobassist-backend/internal/shared/apperr"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// Upload is an uploaded document held in memory for one request.
type Upload struct {
	Data      []byte
	MediaType string
	FileName  string
}

// Extract pulls plain text out of an upload.
func Extract(ctx context.Context, up Upload) (string, error) {
	return ExtractTextFromBytes(ctx, up.Data, up.MediaType, up.FileName)
}

// ExtractTextFromBytes extracts text from an in-memory payload. Only PDF and
// DOCX are accepted; anything else fails with apperr.ErrUnsupportedFormat
// before any parser runs. Text that is only whitespace is reported as
// apperr.ErrEmptyDocument.
// Libraries used: github.com/ledongthuc/pdf (PDF) and github.com/nguyenthenguyen/docx (DOCX).
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := NormalizeMimeType(mimeType, fileName, data)

	var (
		text string
		err  error
	)
	switch normalized {
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDOCX:
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", apperr.ErrUnsupportedFormat, displayMime(normalized))
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", apperr.ErrExtractionFailure, normalized, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: %s", apperr.ErrEmptyDocument, displayName(fileName))
	}
	return text, nil
}

func extractPDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty pdf data")
	}
	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("pdf reader panic: %v", rec)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return paragraphText(doc.Editable().GetContent())
}

// paragraphText walks the w:p elements of document.xml and joins their text
// with newlines. Empty paragraphs are kept as blank lines so section breaks
// survive extraction.
func paragraphText(raw string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var (
		paragraphs []string
		current    strings.Builder
		inPara     int
		inText     bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if inPara == 0 {
					current.Reset()
				}
				inPara++
			case "t":
				inText = true
			case "tab":
				if inPara > 0 {
					current.WriteByte('\t')
				}
			case "br", "cr":
				if inPara > 0 {
					current.WriteByte('\n')
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inPara > 0 {
					inPara--
					if inPara == 0 {
						paragraphs = append(paragraphs, current.String())
					}
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && inPara > 0 {
				current.Write(t)
			}
		}
	}
	return strings.Join(paragraphs, "\n"), nil
}

// NormalizeMimeType maps the declared media type onto one of the supported
// types when possible. Zip archives that carry word/document.xml count as
// DOCX, and a missing or generic type falls back to the file extension.
func NormalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case "application/zip", "application/x-zip-compressed":
		if isDOCXArchive(data) {
			return MimeDOCX
		}
		return clean
	case "", "application/octet-stream", "binary/octet-stream":
		if byExt := MimeTypeForFile(fileName); byExt != "" {
			return byExt
		}
		return clean
	default:
		return clean
	}
}

// MimeTypeForFile guesses a supported media type from a file name.
func MimeTypeForFile(fileName string) string {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	default:
		return ""
	}
}

func isDOCXArchive(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}

func displayMime(m string) string {
	if m == "" {
		return "unknown media type"
	}
	return m
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "document"
	}
	return name
}
