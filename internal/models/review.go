package models

import "time"

// ReviewStatus is the approval state of one audit assignment.
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Valid reports whether s is one of the known review statuses.
func (s ReviewStatus) Valid() bool {
	switch s {
	case ReviewPending, ReviewApproved, ReviewRejected:
		return true
	}
	return false
}

// AuditDocumentReview assigns one DocumentVersion to one Audit with
// one auditor. A given version may be assigned to a given audit at
// most once; the unique index is the backstop for concurrent writers.
type AuditDocumentReview struct {
	ID                uint         `gorm:"primaryKey" json:"id"`
	AuditID           uint         `gorm:"not null;uniqueIndex:uniq_audit_document_version" json:"audit_id"`
	DocumentVersionID uint         `gorm:"not null;uniqueIndex:uniq_audit_document_version" json:"document_version_id"`
	UserID            uint         `gorm:"not null;index" json:"user_id"`
	Status            ReviewStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Audit           Audit           `gorm:"foreignKey:AuditID" json:"audit,omitempty"`
	DocumentVersion DocumentVersion `gorm:"foreignKey:DocumentVersionID" json:"document_version,omitempty"`
	Auditor         User            `gorm:"foreignKey:UserID" json:"auditor,omitempty"`
	Findings        []AuditFinding  `gorm:"foreignKey:AuditDocumentReviewID;constraint:OnDelete:CASCADE" json:"findings,omitempty"`
}

// TableName specifies the table name for AuditDocumentReview model
func (AuditDocumentReview) TableName() string {
	return "audit_document_reviews"
}
