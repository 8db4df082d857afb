package models

import "time"

// AuditType is a reusable classification for audits, e.g. "ISO 9001"
// or "Internal". Status marks whether the type is offered for new
// audits; existing audits keep their type when it is deactivated.
type AuditType struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Status      bool   `gorm:"default:true" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Audits []Audit `gorm:"foreignKey:AuditTypeID" json:"audits,omitempty"`
}

// TableName specifies the table name for AuditType model
func (AuditType) TableName() string {
	return "audit_types"
}

// Audit is one compliance review campaign. Document versions are
// attached to it through AuditDocumentReview assignments.
type Audit struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"type:varchar(100);not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	AuditTypeID uint   `gorm:"not null;index" json:"audit_type_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	AuditType       AuditType             `gorm:"foreignKey:AuditTypeID" json:"audit_type,omitempty"`
	DocumentReviews []AuditDocumentReview `gorm:"foreignKey:AuditID;constraint:OnDelete:CASCADE" json:"document_reviews,omitempty"`
}

// TableName specifies the table name for Audit model
func (Audit) TableName() string {
	return "audits"
}
