package health

import (
	"context"
	"errors"
	"testing"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestStatus(t *testing.T) {
	tests := []struct {
		name   string
		db     Pinger
		wantOK bool
		wantDB string
	}{
		{name: "memory", db: nil, wantOK: true, wantDB: "memory"},
		{name: "database up", db: pingFunc(func(context.Context) error { return nil }), wantOK: true, wantDB: "up"},
		{name: "database down", db: pingFunc(func(context.Context) error { return errors.New("refused") }), wantOK: false, wantDB: "unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewService(tt.db, "local", "gemini", "gemini-2.5-flash").Status(context.Background())
			if r.OK != tt.wantOK || r.Database != tt.wantDB {
				t.Fatalf("unexpected report %+v", r)
			}
			if r.Provider != "gemini" || r.Storage != "local" {
				t.Fatalf("expected provider and storage echoed, got %+v", r)
			}
		})
	}
}
