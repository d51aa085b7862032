package health

import (
	"context"
	"time"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Report is the body of the health endpoint.
type Report struct {
	OK       bool   `json:"ok"`
	Storage  string `json:"storage"`
	Database string `json:"database"`
	Provider string `json:"llm_provider"`
	Model    string `json:"llm_model,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB       Pinger
	Storage  string
	Provider string
	Model    string
	Timeout  time.Duration
}

// NewService constructs a health service. A nil db reports in-memory storage.
func NewService(db Pinger, storage, provider, model string) *Service {
	return &Service{DB: db, Storage: storage, Provider: provider, Model: model, Timeout: 2 * time.Second}
}

// Status reports whether the service can reach its dependencies.
func (s *Service) Status(ctx context.Context) Report {
	r := Report{OK: true, Storage: s.Storage, Database: "memory", Provider: s.Provider, Model: s.Model}
	if s.DB == nil {
		return r
	}
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		r.OK = false
		r.Database = "unreachable"
		return r
	}
	r.Database = "up"
	return r
}
