package object

import (
	"errors"
	"io"
	"strings"
	"testing"
)

func TestNewKeyKeepsOnlyExtension(t *testing.T) {
	key, err := NewKey(7, "Jane Doe CV.DOCX")
	if err != nil {
		t.Fatalf("NewKey: %v", err)
	}
	parts := strings.Split(key, "/")
	if len(parts) != 2 {
		t.Fatalf("expected owner/file, got %q", key)
	}
	if len(parts[0]) != 64 {
		t.Fatalf("expected hashed owner dir, got %q", parts[0])
	}
	if !strings.HasSuffix(parts[1], ".docx") || strings.Contains(key, "Jane") {
		t.Fatalf("unexpected file part %q", parts[1])
	}
}

func TestNewKeyRejectsTraversal(t *testing.T) {
	if _, err := NewKey(1, "../../etc/passwd"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "abc/file.pdf", want: "abc/file.pdf"},
		{key: "abc/./file.pdf", want: "abc/file.pdf"},
		{key: "../file.pdf", wantErr: true},
		{key: "/abs/file.pdf", wantErr: true},
		{key: "", wantErr: true},
		{key: "a\\..\\..\\b", wantErr: true},
	}
	for _, tt := range tests {
		got, err := CleanKey(tt.key)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidKey) {
				t.Fatalf("CleanKey(%q) expected ErrInvalidKey, got %v", tt.key, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("CleanKey(%q) = %q, %v; want %q", tt.key, got, err, tt.want)
		}
	}
}

func TestSniffReplaysPrefix(t *testing.T) {
	mime, body, err := Sniff(strings.NewReader("plain text body"))
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if !strings.HasPrefix(mime, "text/plain") {
		t.Fatalf("unexpected mime %q", mime)
	}
	data, _ := io.ReadAll(body)
	if string(data) != "plain text body" {
		t.Fatalf("body not replayed: %q", data)
	}
}
