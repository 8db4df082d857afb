package models

import "time"

// Company is the root of the organizational hierarchy.
type Company struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Departments []Department `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE" json:"departments,omitempty"`
}

// TableName specifies the table name for Company model
func (Company) TableName() string {
	return "companies"
}
