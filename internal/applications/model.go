package applications

import (
	"strings"
	"time"
)

// Status is where an application stands in the hiring process.
type Status string

const (
	StatusSaved     Status = "saved"
	StatusApplied   Status = "applied"
	StatusScreening Status = "screening"
	StatusInterview Status = "interview"
	StatusOffer     Status = "offer"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// Statuses lists every status in pipeline order.
var Statuses = []Status{
	StatusSaved,
	StatusApplied,
	StatusScreening,
	StatusInterview,
	StatusOffer,
	StatusAccepted,
	StatusRejected,
	StatusWithdrawn,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Active reports whether the application is still in progress.
func (s Status) Active() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusWithdrawn:
		return false
	}
	return true
}

// Label is the display name of the status.
func (s Status) Label() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Activity is one entry of an application's history.
type Activity struct {
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details,omitempty"`
}

// Application tracks one job application and the documents sent with it.
type Application struct {
	ID            string
	UserID        int64
	CompanyName   string
	Position      string
	JobURL        string
	Location      string
	SalaryRange   string
	Status        Status
	ResumeID      string
	CoverLetterID string
	JobID         string
	AppliedAt     *time.Time
	InterviewAt   *time.Time
	OfferAt       *time.Time
	Deadline      *time.Time
	Notes         string
	ContactName   string
	ContactEmail  string
	ActivityLog   []Activity
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (a *Application) addActivity(action, details string, now time.Time) {
	a.ActivityLog = append(a.ActivityLog, Activity{Action: action, Timestamp: now, Details: details})
}

// stampDates fills the milestone date for the current status once.
func (a *Application) stampDates(now time.Time) {
	switch a.Status {
	case StatusApplied:
		if a.AppliedAt == nil {
			a.AppliedAt = &now
		}
	case StatusOffer:
		if a.OfferAt == nil {
			a.OfferAt = &now
		}
	}
}

// Stats summarizes an owner's applications.
type Stats struct {
	Total              int            `json:"total"`
	ByStatus           map[string]int `json:"by_status"`
	Active             int            `json:"active"`
	Recent             []StatsEntry   `json:"recent_applications"`
	UpcomingInterviews []StatsEntry   `json:"upcoming_interviews"`
}

// StatsEntry is a compact application reference inside Stats.
type StatsEntry struct {
	ID          string     `json:"id"`
	Company     string     `json:"company"`
	Position    string     `json:"position"`
	Status      string     `json:"status,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	InterviewAt *time.Time `json:"interview_at,omitempty"`
}
