package applications

import "time"

// CreateRequest is the body of POST /applications.
type CreateRequest struct {
	CompanyName   string     `json:"company_name"`
	Position      string     `json:"position"`
	JobURL        string     `json:"job_url"`
	Location      string     `json:"location"`
	SalaryRange   string     `json:"salary_range"`
	Status        string     `json:"status"`
	ResumeID      string     `json:"resume_id"`
	CoverLetterID string     `json:"cover_letter_id"`
	JobID         string     `json:"job_id"`
	Notes         string     `json:"notes"`
	Deadline      *time.Time `json:"deadline"`
	ContactName   string     `json:"contact_name"`
	ContactEmail  string     `json:"contact_email"`
}

// UpdateRequest is the body of PUT /applications/:id. Omitted fields are
// left unchanged.
type UpdateRequest struct {
	CompanyName   *string    `json:"company_name"`
	Position      *string    `json:"position"`
	JobURL        *string    `json:"job_url"`
	Location      *string    `json:"location"`
	SalaryRange   *string    `json:"salary_range"`
	ResumeID      *string    `json:"resume_id"`
	CoverLetterID *string    `json:"cover_letter_id"`
	JobID         *string    `json:"job_id"`
	Notes         *string    `json:"notes"`
	Deadline      *time.Time `json:"deadline"`
	ContactName   *string    `json:"contact_name"`
	ContactEmail  *string    `json:"contact_email"`
	InterviewAt   *time.Time `json:"interview_at"`
}

// StatusRequest is the body of PATCH /applications/:id/status.
type StatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// ApplicationResponse is the outward-facing representation of an application.
type ApplicationResponse struct {
	ID            string     `json:"id"`
	CompanyName   string     `json:"company_name"`
	Position      string     `json:"position"`
	Location      string     `json:"location,omitempty"`
	Status        string     `json:"status"`
	JobURL        string     `json:"job_url,omitempty"`
	SalaryRange   string     `json:"salary_range,omitempty"`
	ResumeID      string     `json:"resume_id,omitempty"`
	CoverLetterID string     `json:"cover_letter_id,omitempty"`
	JobID         string     `json:"job_id,omitempty"`
	AppliedAt     *time.Time `json:"applied_at"`
	InterviewAt   *time.Time `json:"interview_at"`
	OfferAt       *time.Time `json:"offer_at"`
	Deadline      *time.Time `json:"deadline"`
	Notes         string     `json:"notes,omitempty"`
	ContactName   string     `json:"contact_name,omitempty"`
	ContactEmail  string     `json:"contact_email,omitempty"`
	ActivityLog   []Activity `json:"activity_log,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ListResponse wraps a page of applications.
type ListResponse struct {
	Applications []ApplicationResponse `json:"applications"`
	Total        int                   `json:"total"`
	Limit        int                   `json:"limit"`
	Offset       int                   `json:"offset"`
}

// StatusOption is one entry of GET /applications/statuses.
type StatusOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (r CreateRequest) input() CreateInput {
	return CreateInput{
		CompanyName:   r.CompanyName,
		Position:      r.Position,
		JobURL:        r.JobURL,
		Location:      r.Location,
		SalaryRange:   r.SalaryRange,
		Status:        r.Status,
		ResumeID:      r.ResumeID,
		CoverLetterID: r.CoverLetterID,
		JobID:         r.JobID,
		Notes:         r.Notes,
		Deadline:      r.Deadline,
		ContactName:   r.ContactName,
		ContactEmail:  r.ContactEmail,
	}
}

func (r UpdateRequest) patch() Patch {
	return Patch{
		CompanyName:   r.CompanyName,
		Position:      r.Position,
		JobURL:        r.JobURL,
		Location:      r.Location,
		SalaryRange:   r.SalaryRange,
		ResumeID:      r.ResumeID,
		CoverLetterID: r.CoverLetterID,
		JobID:         r.JobID,
		Notes:         r.Notes,
		ContactName:   r.ContactName,
		ContactEmail:  r.ContactEmail,
		Deadline:      r.Deadline,
		InterviewAt:   r.InterviewAt,
	}
}

// toResponse renders an application. The activity log is only included
// in detail views.
func toResponse(a Application, withLog bool) ApplicationResponse {
	resp := ApplicationResponse{
		ID:            a.ID,
		CompanyName:   a.CompanyName,
		Position:      a.Position,
		Location:      a.Location,
		Status:        string(a.Status),
		JobURL:        a.JobURL,
		SalaryRange:   a.SalaryRange,
		ResumeID:      a.ResumeID,
		CoverLetterID: a.CoverLetterID,
		JobID:         a.JobID,
		AppliedAt:     a.AppliedAt,
		InterviewAt:   a.InterviewAt,
		OfferAt:       a.OfferAt,
		Deadline:      a.Deadline,
		Notes:         a.Notes,
		ContactName:   a.ContactName,
		ContactEmail:  a.ContactEmail,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
	if withLog {
		resp.ActivityLog = a.ActivityLog
	}
	return resp
}

func statusOptions() []StatusOption {
	out := make([]StatusOption, 0, len(Statuses))
	for _, s := range Statuses {
		out = append(out, StatusOption{Value: string(s), Label: s.Label()})
	}
	return out
}
