package models

import "time"

// Department belongs to a Company and groups Areas.
type Department struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	CompanyID uint   `gorm:"not null;index" json:"company_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Company Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Areas   []Area  `gorm:"foreignKey:DepartmentID;constraint:OnDelete:CASCADE" json:"areas,omitempty"`
}

// TableName specifies the table name for Department model
func (Department) TableName() string {
	return "departments"
}
