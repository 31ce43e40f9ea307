package models

import "time"

// Leaving certificate request statuses. PENDING transitions once to APPROVED
// or REJECTED. APPROVED is terminal. A REJECTED row is deleted when the same
// student is re-requested, after which a fresh PENDING row is created.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// Certificate is a leaving-certificate request. At most one row per student
// may hold an active status (PENDING or APPROVED); a partial unique index
// enforces this at the schema level.
type Certificate struct {
	ID              string
	StudentID       string
	SchoolID        string
	Status          string
	RequestedBy     string
	RequestedAt     time.Time
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
}

// CertificateRecord is a Certificate joined with the student fields the
// dashboards and the PDF layout need.
type CertificateRecord struct {
	Certificate
	StudentName string
	Standard    string
	SchoolName  string
}
