package models

import "time"

// Folder holds documents. Folders form a tree through ParentFolderID;
// both the area and the parent folder are optional so a folder can
// live at the root of an area or nest under another folder.
type Folder struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"type:varchar(100);not null" json:"name"`
	AreaID         *uint  `gorm:"index" json:"area_id"`
	ParentFolderID *uint  `gorm:"index" json:"parent_folder_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Area         *Area      `gorm:"foreignKey:AreaID" json:"area,omitempty"`
	ParentFolder *Folder    `gorm:"foreignKey:ParentFolderID" json:"parent_folder,omitempty"`
	ChildFolders []Folder   `gorm:"foreignKey:ParentFolderID" json:"child_folders,omitempty"`
	Documents    []Document `gorm:"foreignKey:FolderID" json:"documents,omitempty"`
}

// TableName specifies the table name for Folder model
func (Folder) TableName() string {
	return "folders"
}
