package models

import "time"

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

// Submission is a point claim backed by evidence (an opaque blob key from the
// transport layer; the engine stores it, never interprets it). Points are
// credited only on approval, and only the amount the reviewing admin awarded.
type Submission struct {
	ID             string           `gorm:"primaryKey;type:uuid" json:"id"`
	AccountID      string           `gorm:"index;not null" json:"account_id"`
	TestName       string           `gorm:"not null" json:"test_name"`
	ClaimedPoints  int64            `gorm:"not null" json:"claimed_points"`
	AwardedPoints  *int64           `json:"awarded_points,omitempty"` // set at review; authoritative
	EvidenceKey    string           `gorm:"not null" json:"evidence_key"`
	Status         SubmissionStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	ReviewerID     *string          `gorm:"index" json:"reviewer_id,omitempty"`
	ReviewedAt     *time.Time       `json:"reviewed_at,omitempty"`
	RejectedReason string           `json:"rejected_reason,omitempty"`

	Timestamps
}
