package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
<w:p><w:r><w:t>Senior </w:t></w:r><w:r><w:t>Go Engineer</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>Skills: Go, Postgres</w:t></w:r></w:p>
</w:body>
</w:document>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func wordDoc(t *testing.T) []byte {
	return buildZip(t, map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": documentRels,
	})
}

func TestExtractTextFromBytesDocx(t *testing.T) {
	got, err := ExtractTextFromBytes(context.Background(), wordDoc(t), MimeDOCX, "cv.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "Jane Doe\nSenior Go Engineer\nSkills: Go, Postgres"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestExtractTextFromBytesZipMimeDetectsDocx(t *testing.T) {
	for _, mime := range []string{"application/zip", "application/octet-stream", ""} {
		if _, err := ExtractTextFromBytes(context.Background(), wordDoc(t), mime, "cv.docx"); err != nil {
			t.Fatalf("mime %q: expected docx extraction, got %v", mime, err)
		}
	}
}

func TestExtractTextFromBytesRealZipRejected(t *testing.T) {
	data := buildZip(t, map[string]string{"notes.txt": "hello"})
	_, err := ExtractTextFromBytes(context.Background(), data, "application/zip", "notes.zip")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
	if !strings.Contains(err.Error(), "application/zip") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExtractTextFromBytesEmptyDocument(t *testing.T) {
	data := buildZip(t, map[string]string{
		"word/document.xml":            `<w:document xmlns:w="x"><w:body><w:p/></w:body></w:document>`,
		"word/_rels/document.xml.rels": documentRels,
	})
	if _, err := ExtractTextFromBytes(context.Background(), data, MimeDOCX, "cv.docx"); !errors.Is(err, ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}
}

func TestExtractTextFromBytesCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ExtractTextFromBytes(ctx, wordDoc(t), MimeDOCX, "cv.docx"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		mime string
		name string
		want bool
	}{
		{mime: MimePDF, name: "a.bin", want: true},
		{mime: "application/octet-stream", name: "a.DOCX", want: true},
		{mime: "application/octet-stream", name: "a.doc", want: true},
		{mime: "text/plain", name: "resume.txt", want: false},
		{mime: "image/png", name: "photo.png", want: false},
	}
	for _, tt := range tests {
		if got := Supported(tt.mime, tt.name); got != tt.want {
			t.Fatalf("Supported(%q, %q) = %v, want %v", tt.mime, tt.name, got, tt.want)
		}
	}
}

type memStore struct{ data map[string][]byte }

func (m memStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	b, ok := m.data[key]
	if !ok {
		return nil, errors.New("missing")
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func TestExtractTextFromStore(t *testing.T) {
	store := memStore{data: map[string][]byte{"k/cv.docx": wordDoc(t)}}
	got, err := ExtractText(context.Background(), store, "k/cv.docx", MimeDOCX, "cv.docx")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(got, "Jane Doe") {
		t.Fatalf("unexpected text %q", got)
	}
	if _, err := ExtractText(context.Background(), store, "missing", MimeDOCX, "cv.docx"); err == nil {
		t.Fatalf("expected open error")
	}
}
