package models

import "time"

// Area belongs to a Department. Its company is reachable only through
// the department, so CompanyID is a read-only projection filled in by
// a join at query time, never stored.
type Area struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"type:varchar(100);not null" json:"name"`
	DepartmentID uint   `gorm:"not null;index" json:"department_id"`

	// CompanyID is derived from the owning department
	CompanyID uint `gorm:"->;-:migration" json:"company_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Department Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	Folders    []Folder   `gorm:"foreignKey:AreaID" json:"folders,omitempty"`
}

// TableName specifies the table name for Area model
func (Area) TableName() string {
	return "areas"
}
