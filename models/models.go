package models

import "time"

// Report statuses accepted by the admin update endpoint.
const (
	StatusNew        = "new"
	StatusInProgress = "in_progress"
	StatusResolved   = "resolved"
)

// Admin roles.
const (
	RoleAdmin  = "admin"
	RoleViewer = "viewer"
)

const (
	DefaultUniversity = "not_specified"
	DefaultClientID   = "anonymous"
	DefaultType       = "other"
)

// ValidStatus reports whether s is one of the known report statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Report is a single anonymous incident submission.
type Report struct {
	ID               string    `json:"id"`
	Type             string    `json:"type"`
	University       string    `json:"university"`
	Description      string    `json:"description"`
	EvidenceURL      *string   `json:"evidenceUrl"`
	EvidenceURLs     []string  `json:"evidenceUrls"`
	Status           string    `json:"status"`
	ClientID         string    `json:"clientId"`
	Platform         string    `json:"platform"`
	PlatformProfile  string    `json:"platformProfile"`
	SuspectName      string    `json:"suspectName"`
	SuspectUsername  string    `json:"suspectUsername"`
	SuspectContact   string    `json:"suspectContact"`
	IncidentDate     string    `json:"incidentDate"`
	IncidentLocation string    `json:"incidentLocation"`
	Witnesses        string    `json:"witnesses"`
	VictimContact    string    `json:"victimContact"`
	AdminNotes       string    `json:"adminNotes"`
	Timestamp        time.Time `json:"timestamp"`
}

// EvidenceList returns the evidence references of the report, falling back
// to the legacy single-value field for records written before the list existed.
func (r *Report) EvidenceList() []string {
	if len(r.EvidenceURLs) > 0 {
		return r.EvidenceURLs
	}
	if r.EvidenceURL != nil && *r.EvidenceURL != "" {
		return []string{*r.EvidenceURL}
	}
	return nil
}

// ReportFilter narrows the admin report listing. Empty fields match everything.
type ReportFilter struct {
	Status     string
	University string
}

// ReportSummary is returned from a status/notes update.
type ReportSummary struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes"`
}

// AdminUser is an administrator credential record.
type AdminUser struct {
	ID           string
	Email        string
	PasswordHash string
	University   string
	Role         string
}

// AdminProfile is the public part of an admin returned on login.
type AdminProfile struct {
	Email      string `json:"email"`
	University string `json:"university"`
	Role       string `json:"role"`
}

// AdminIdentity is the authenticated admin attached to a request.
type AdminIdentity struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	University string `json:"university"`
	Role       string `json:"role"`
}

// NameValue is one bucket of a statistics grouping.
type NameValue struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Stats is the admin dashboard aggregate.
type Stats struct {
	TotalReports        int         `json:"totalReports"`
	ReportsThisWeek     int         `json:"reportsThisWeek"`
	ReportsByType       []NameValue `json:"reportsByType"`
	ReportsByUniversity []NameValue `json:"reportsByUniversity"`
	RecentReports       []Report    `json:"recentReports"`
}

// LoginRequest is the body of POST /api/admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Token string       `json:"token"`
	Admin AdminProfile `json:"admin"`
}

// UpdateReportRequest is the body of PATCH /api/reports/:id. Nil fields are left untouched.
type UpdateReportRequest struct {
	Status     *string `json:"status"`
	AdminNotes *string `json:"adminNotes"`
}

// CreateReportResponse is returned by POST /api/reports.
type CreateReportResponse struct {
	ID string `json:"id"`
}

// ReportsResponse wraps the admin report listing.
type ReportsResponse struct {
	Reports []Report `json:"reports"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ReportEvent is published to the message bus on report lifecycle changes.
// It never carries free text or contact details.
type ReportEvent struct {
	Event      string    `json:"event"`
	ID         string    `json:"id"`
	Type       string    `json:"type,omitempty"`
	University string    `json:"university,omitempty"`
	Status     string    `json:"status,omitempty"`
	Evidence   int       `json:"evidence"`
	Timestamp  time.Time `json:"timestamp"`
}
