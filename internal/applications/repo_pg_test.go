package applications

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockRepo(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

var applicationColumnNames = []string{
	"id", "user_id", "company_name", "position", "job_url", "location", "salary_range", "status",
	"resume_id", "cover_letter_id", "job_id", "applied_at", "interview_at", "offer_at", "deadline",
	"notes", "contact_name", "contact_email", "activity_log", "created_at", "updated_at",
}

func TestPGRepoCreate(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO applications").
		WithArgs(
			"app-1", int64(1), "Acme", "Engineer", "", "", "", "applied",
			"resume-1", "", "", sql.NullTime{Time: now, Valid: true}, sql.NullTime{}, sql.NullTime{}, sql.NullTime{},
			"", "", "", []byte(`[{"action":"created","timestamp":"2026-03-02T09:00:00Z"}]`), now,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), Application{
		ID:          "app-1",
		UserID:      1,
		CompanyName: "Acme",
		Position:    "Engineer",
		Status:      StatusApplied,
		ResumeID:    "resume-1",
		AppliedAt:   &now,
		ActivityLog: []Activity{{Action: "created", Timestamp: now}},
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListDecodesRows(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	rows := sqlmock.NewRows(applicationColumnNames).AddRow(
		"app-1", int64(1), "Acme", "Engineer", nil, "Seoul", nil, "interview",
		nil, "cl-1", nil, now, now.Add(time.Hour), nil, nil,
		"referral", nil, nil, []byte(`[{"action":"created","timestamp":"2026-03-02T09:00:00Z"}]`), now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND ($2 = '' OR status = $2)")).
		WithArgs(int64(1), "interview", 50, 0).
		WillReturnRows(rows)

	apps, err := repo.List(context.Background(), 1, StatusInterview, 0, -1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("expected 1 application, got %d", len(apps))
	}
	a := apps[0]
	if a.Status != StatusInterview || a.CoverLetterID != "cl-1" || a.JobURL != "" || a.Notes != "referral" {
		t.Fatalf("unexpected application %+v", a)
	}
	if a.AppliedAt == nil || a.InterviewAt == nil || a.OfferAt != nil {
		t.Fatalf("unexpected dates %+v", a)
	}
	if len(a.ActivityLog) != 1 || a.ActivityLog[0].Action != "created" {
		t.Fatalf("unexpected activity log %+v", a.ActivityLog)
	}
}

func TestPGRepoUpdateNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE applications").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), Application{ID: "gone", UserID: 1, Status: StatusSaved})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoGetNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT (.+) FROM applications").WithArgs(int64(1), "missing").WillReturnError(sql.ErrNoRows)

	if _, err := repo.Get(context.Background(), 1, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
