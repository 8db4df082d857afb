package models

import (
	"time"

	"gorm.io/datatypes"
)

// FindingType classifies findings, e.g. "No Conformidad" or
// "Observación".
type FindingType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Findings []AuditFinding `gorm:"foreignKey:FindingTypeID" json:"findings,omitempty"`
}

// TableName specifies the table name for FindingType model
func (FindingType) TableName() string {
	return "finding_types"
}

// FindingSeverity grades a finding.
type FindingSeverity string

const (
	SeverityMinor    FindingSeverity = "minor"
	SeverityMajor    FindingSeverity = "major"
	SeverityCritical FindingSeverity = "critical"
)

// Valid reports whether s is one of the known severities.
func (s FindingSeverity) Valid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// FindingStatus is the resolution state of a finding. There is no
// transition graph; any value may follow any other. The only side
// effect is CorrectedAt being stamped when a finding first moves
// into resolved.
type FindingStatus string

const (
	FindingPending       FindingStatus = "pending"
	FindingResolved      FindingStatus = "resolved"
	FindingNotApplicable FindingStatus = "not_applicable"
)

// Valid reports whether s is one of the known finding statuses.
func (s FindingStatus) Valid() bool {
	switch s {
	case FindingPending, FindingResolved, FindingNotApplicable:
		return true
	}
	return false
}

// AuditFinding (hallazgo) is a recorded non-conformity or observation
// tied to one reviewed document version.
type AuditFinding struct {
	ID                    uint            `gorm:"primaryKey" json:"id"`
	AuditDocumentReviewID uint            `gorm:"not null;index" json:"audit_document_review_id"`
	FindingTypeID         uint            `gorm:"not null;index" json:"finding_type_id"`
	Title                 string          `gorm:"type:varchar(255);not null" json:"title"`
	Description           string          `gorm:"type:text;not null" json:"description"`
	Severity              FindingSeverity `gorm:"type:varchar(20);not null" json:"severity"`
	ActionRequired        *string         `gorm:"type:text" json:"action_required"`
	Status                FindingStatus   `gorm:"type:varchar(20);default:'pending'" json:"status"`
	DueDate               *datatypes.Date `json:"due_date"`
	CorrectedAt           *time.Time      `json:"corrected_at"`
	CreatedBy             uint            `gorm:"not null" json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Review      AuditDocumentReview `gorm:"foreignKey:AuditDocumentReviewID" json:"review,omitempty"`
	FindingType FindingType         `gorm:"foreignKey:FindingTypeID" json:"finding_type,omitempty"`
	Creator     User                `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
}

// TableName specifies the table name for AuditFinding model
func (AuditFinding) TableName() string {
	return "audit_findings"
}
