package applications

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"pathpilot-backend/internal/shared/apperr"
	"pathpilot-backend/internal/shared/privacy"
	"pathpilot-backend/internal/shared/telemetry"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100

	recentCount   = 5
	upcomingCount = 3
)

// CreateInput describes a new application.
type CreateInput struct {
	CompanyName   string
	Position      string
	JobURL        string
	Location      string
	SalaryRange   string
	Status        string
	ResumeID      string
	CoverLetterID string
	JobID         string
	Notes         string
	Deadline      *time.Time
	ContactName   string
	ContactEmail  string
}

// Patch changes selected fields. Nil fields are left alone.
type Patch struct {
	CompanyName   *string
	Position      *string
	JobURL        *string
	Location      *string
	SalaryRange   *string
	ResumeID      *string
	CoverLetterID *string
	JobID         *string
	Notes         *string
	ContactName   *string
	ContactEmail  *string
	Deadline      *time.Time
	InterviewAt   *time.Time
}

// Service contains business logic for applications.
type Service struct {
	Repo Repo
	Now  func() time.Time

	// mu serializes read-modify-write cycles on the activity log.
	mu sync.Mutex
}

// NewService constructs a Service.
func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

// ParseStatus validates a status name.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		names := make([]string, len(Statuses))
		for i, st := range Statuses {
			names[i] = string(st)
		}
		return "", apperr.Invalid("status", "invalid status %q, valid statuses: %s", raw, strings.Join(names, ", "))
	}
	return s, nil
}

// Create records a new application with its first activity entry.
func (s *Service) Create(ctx context.Context, userID int64, in CreateInput) (Application, error) {
	status := StatusSaved
	if strings.TrimSpace(in.Status) != "" {
		var err error
		if status, err = ParseStatus(in.Status); err != nil {
			return Application{}, err
		}
	}
	now := s.Now()
	a := Application{
		ID:            uuid.NewString(),
		UserID:        userID,
		CompanyName:   strings.TrimSpace(in.CompanyName),
		Position:      strings.TrimSpace(in.Position),
		JobURL:        strings.TrimSpace(in.JobURL),
		Location:      strings.TrimSpace(in.Location),
		SalaryRange:   strings.TrimSpace(in.SalaryRange),
		Status:        status,
		ResumeID:      strings.TrimSpace(in.ResumeID),
		CoverLetterID: strings.TrimSpace(in.CoverLetterID),
		JobID:         strings.TrimSpace(in.JobID),
		Deadline:      in.Deadline,
		Notes:         strings.TrimSpace(in.Notes),
		ContactName:   strings.TrimSpace(in.ContactName),
		ContactEmail:  strings.TrimSpace(in.ContactEmail),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := validate(a); err != nil {
		return Application{}, err
	}
	a.addActivity("Application created with status: "+string(status), fmt.Sprintf("Position: %s at %s", a.Position, a.CompanyName), now)
	a.stampDates(now)

	if err := s.Repo.Create(ctx, a); err != nil {
		return Application{}, err
	}
	telemetry.Info("application_created", map[string]any{
		"user_id":        telemetry.OwnerField(userID),
		"application_id": a.ID,
		"company":        privacy.Scrub(a.CompanyName),
		"status":         string(status),
	})
	return a, nil
}

// Get returns one application.
func (s *Service) Get(ctx context.Context, userID int64, id string) (Application, error) {
	return s.Repo.Get(ctx, userID, id)
}

// List returns applications, optionally narrowed to one status.
func (s *Service) List(ctx context.Context, userID int64, status string, limit, offset int) ([]Application, error) {
	var filter Status
	if strings.TrimSpace(status) != "" {
		var err error
		if filter, err = ParseStatus(status); err != nil {
			return nil, err
		}
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.Repo.List(ctx, userID, filter, limit, offset)
}

// Update applies a patch and logs the fields that changed. A patch that
// changes nothing is not written.
func (s *Service) Update(ctx context.Context, userID int64, id string, p Patch) (Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return Application{}, err
	}

	var changes []string
	setText := func(name string, dst *string, v *string) {
		if v == nil {
			return
		}
		nv := strings.TrimSpace(*v)
		if nv == *dst {
			return
		}
		changes = append(changes, fmt.Sprintf("%s: %s -> %s", name, display(*dst), display(nv)))
		*dst = nv
	}
	setTime := func(name string, dst **time.Time, v *time.Time) {
		if v == nil || (*dst != nil && (*dst).Equal(*v)) {
			return
		}
		old := "none"
		if *dst != nil {
			old = (*dst).Format(time.RFC3339)
		}
		changes = append(changes, fmt.Sprintf("%s: %s -> %s", name, old, v.Format(time.RFC3339)))
		t := v.UTC()
		*dst = &t
	}
	setText("company_name", &a.CompanyName, p.CompanyName)
	setText("position", &a.Position, p.Position)
	setText("job_url", &a.JobURL, p.JobURL)
	setText("location", &a.Location, p.Location)
	setText("salary_range", &a.SalaryRange, p.SalaryRange)
	setText("resume_id", &a.ResumeID, p.ResumeID)
	setText("cover_letter_id", &a.CoverLetterID, p.CoverLetterID)
	setText("job_id", &a.JobID, p.JobID)
	setText("notes", &a.Notes, p.Notes)
	setText("contact_name", &a.ContactName, p.ContactName)
	setText("contact_email", &a.ContactEmail, p.ContactEmail)
	setTime("deadline", &a.Deadline, p.Deadline)
	setTime("interview_at", &a.InterviewAt, p.InterviewAt)

	if len(changes) == 0 {
		return a, nil
	}
	if err := validate(a); err != nil {
		return Application{}, err
	}
	now := s.Now()
	a.addActivity("Application updated", strings.Join(changes, "; "), now)
	a.UpdatedAt = now
	if err := s.Repo.Update(ctx, a); err != nil {
		return Application{}, err
	}
	telemetry.Info("application_updated", map[string]any{
		"user_id":        telemetry.OwnerField(userID),
		"application_id": id,
		"changes":        len(changes),
	})
	return a, nil
}

// UpdateStatus moves an application to a new status. Entering applied or
// offer stamps that milestone the first time.
func (s *Service) UpdateStatus(ctx context.Context, userID int64, id, status, notes string) (Application, error) {
	next, err := ParseStatus(status)
	if err != nil {
		return Application{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.Repo.Get(ctx, userID, id)
	if err != nil {
		return Application{}, err
	}
	prev := a.Status
	now := s.Now()
	a.Status = next
	a.addActivity(fmt.Sprintf("Status changed: %s -> %s", prev, next), strings.TrimSpace(notes), now)
	a.stampDates(now)
	a.UpdatedAt = now
	if err := s.Repo.Update(ctx, a); err != nil {
		return Application{}, err
	}
	telemetry.Info("application_status_updated", map[string]any{
		"user_id":        telemetry.OwnerField(userID),
		"application_id": id,
		"old_status":     string(prev),
		"new_status":     string(next),
	})
	return a, nil
}

// Delete removes an application.
func (s *Service) Delete(ctx context.Context, userID int64, id string) error {
	if err := s.Repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	telemetry.Info("application_deleted", map[string]any{
		"user_id":        telemetry.OwnerField(userID),
		"application_id": id,
	})
	return nil
}

// Stats summarizes the owner's pipeline.
func (s *Service) Stats(ctx context.Context, userID int64) (Stats, error) {
	all, err := s.Repo.All(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	now := s.Now()
	st := Stats{
		Total:              len(all),
		ByStatus:           make(map[string]int, len(Statuses)),
		Recent:             []StatsEntry{},
		UpcomingInterviews: []StatsEntry{},
	}
	for _, status := range Statuses {
		st.ByStatus[string(status)] = 0
	}

	var upcoming []Application
	for _, a := range all {
		st.ByStatus[string(a.Status)]++
		if a.Status.Active() {
			st.Active++
		}
		if a.InterviewAt != nil && a.InterviewAt.After(now) {
			upcoming = append(upcoming, a)
		}
	}

	sort.SliceStable(all, func(i, j int) bool { return all[i].UpdatedAt.After(all[j].UpdatedAt) })
	for i := 0; i < len(all) && i < recentCount; i++ {
		a := all[i]
		updated := a.UpdatedAt
		st.Recent = append(st.Recent, StatsEntry{
			ID:        a.ID,
			Company:   a.CompanyName,
			Position:  a.Position,
			Status:    string(a.Status),
			UpdatedAt: &updated,
		})
	}

	sort.Slice(upcoming, func(i, j int) bool { return upcoming[i].InterviewAt.Before(*upcoming[j].InterviewAt) })
	for i := 0; i < len(upcoming) && i < upcomingCount; i++ {
		a := upcoming[i]
		st.UpcomingInterviews = append(st.UpcomingInterviews, StatsEntry{
			ID:          a.ID,
			Company:     a.CompanyName,
			Position:    a.Position,
			InterviewAt: a.InterviewAt,
		})
	}
	return st, nil
}

func validate(a Application) error {
	limits := []struct {
		field    string
		value    string
		max      int
		required bool
	}{
		{"company_name", a.CompanyName, 255, true},
		{"position", a.Position, 255, true},
		{"job_url", a.JobURL, 500, false},
		{"location", a.Location, 255, false},
		{"salary_range", a.SalaryRange, 100, false},
		{"contact_name", a.ContactName, 255, false},
		{"contact_email", a.ContactEmail, 255, false},
	}
	for _, l := range limits {
		if l.required && l.value == "" {
			return apperr.Invalid(l.field, "%s is required", l.field)
		}
		if utf8.RuneCountInString(l.value) > l.max {
			return apperr.Invalid(l.field, "%s must be at most %d characters", l.field, l.max)
		}
	}
	if a.ContactEmail != "" {
		if _, err := mail.ParseAddress(a.ContactEmail); err != nil {
			return apperr.Invalid("contact_email", "contact_email is not a valid address")
		}
	}
	return nil
}

func display(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
