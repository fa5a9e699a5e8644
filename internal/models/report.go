package models

import "time"

// ReportStatus is the resolution state of a persisted report.
// Clients only ever create pending reports; transitions to in_progress
// and resolved are performed by an administrator.
type ReportStatus string

const (
	StatusPending    ReportStatus = "pending"
	StatusInProgress ReportStatus = "in_progress"
	StatusResolved   ReportStatus = "resolved"
)

// Report is the persisted record for one citizen signal of an illegal
// waste dump.
type Report struct {
	ID          string            `json:"id"`
	Description string            `json:"description"`
	ImageRef    string            `json:"image_ref"`
	Location    LocationSelection `json:"location"`
	UserID      string            `json:"user_id"`
	Status      ReportStatus      `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
	AdminNotes  string            `json:"admin_notes,omitempty"`
	AssignedTo  string            `json:"assigned_to,omitempty"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
}

// UserStats is a best-effort aggregate incremented on each successful
// submission. It is eventually consistent with the set of reports, not
// derived from them.
type UserStats struct {
	TotalReports      int `json:"totalReports"`
	PendingReports    int `json:"pendingReports"`
	InProgressReports int `json:"inProgressReports"`
	ResolvedReports   int `json:"resolvedReports"`
}
