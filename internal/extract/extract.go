// Package extract pulls plain text out of uploaded resume documents.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"pathpilot-backend/internal/shared/telemetry"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeDOC  = "application/msword"
)

var (
	// ErrUnsupportedType is returned for anything that is not PDF or Word.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoText is returned when a document parses but holds no text.
	ErrNoText = errors.New("no text found in document")
)

var allowedExtensions = map[string]string{
	".pdf":  MimePDF,
	".docx": MimeDOCX,
	".doc":  MimeDOC,
}

// Supported reports whether an upload with this declared MIME type or file
// name should be accepted. Either one matching is enough.
func Supported(mimeType, fileName string) bool {
	if _, ok := allowedExtensions[strings.ToLower(filepath.Ext(fileName))]; ok {
		return true
	}
	switch baseMime(mimeType) {
	case MimePDF, MimeDOCX, MimeDOC:
		return true
	}
	return false
}

// Opener is the read side of an object store.
type Opener interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ExtractText reads a stored object and returns its text.
func ExtractText(ctx context.Context, store Opener, key, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := store.Open(ctx, key)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: %w", key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("extract text key=%s: read: %w", key, err)
	}
	return ExtractTextFromBytes(ctx, raw, mimeType, fileName)
}

// ExtractTextFromBytes extracts text from an in-memory payload.
func ExtractTextFromBytes(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	kind := detect(mimeType, fileName, data)

	var (
		text string
		err  error
	)
	switch kind {
	case MimePDF:
		text, err = extractPDF(data)
	case MimeDOCX, MimeDOC:
		text, err = extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", kind, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrNoText
	}
	telemetry.Info("text_extraction_completed", map[string]any{
		"mime_type":   kind,
		"text_length": len(text),
	})
	return text, nil
}

func extractPDF(data []byte) (string, error) {
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
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
		return "", errors.New("empty docx data")
	}
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	defer doc.Close()
	return paragraphs(doc.Editable().GetContent()), nil
}

// paragraphs flattens WordprocessingML into one line per paragraph.
func paragraphs(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var (
		out  []string
		line strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(line.String()); s != "" {
			out = append(out, s)
		}
		line.Reset()
	}
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				line.WriteString("\t")
			}
		case xml.CharData:
			if inText {
				line.Write(t)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "br":
				flush()
			}
		}
	}
	flush()
	return strings.Join(out, "\n")
}

func detect(mimeType, fileName string, data []byte) string {
	clean := baseMime(mimeType)
	switch clean {
	case MimePDF, MimeDOCX:
		return clean
	}
	if bytes.HasPrefix(data, []byte("%PDF-")) {
		return MimePDF
	}
	if isWordZip(data) {
		return MimeDOCX
	}
	if clean == "application/zip" || clean == "application/octet-stream" || clean == "" {
		if mapped, ok := allowedExtensions[strings.ToLower(filepath.Ext(fileName))]; ok && mapped != MimePDF {
			return mapped
		}
	}
	if clean == MimeDOC {
		return MimeDOC
	}
	return clean
}

func isWordZip(data []byte) bool {
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

func baseMime(mimeType string) string {
	return strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
}
