package models

import "time"

// Document is the logical concept; the actual file contents live in
// its append-only chain of DocumentVersions.
type Document struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"type:varchar(100);not null" json:"name"`
	FolderID uint   `gorm:"not null;index" json:"folder_id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Folder   Folder            `gorm:"foreignKey:FolderID" json:"folder,omitempty"`
	User     User              `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Versions []DocumentVersion `gorm:"foreignKey:DocumentID;constraint:OnDelete:CASCADE" json:"versions,omitempty"`
}

// TableName specifies the table name for Document model
func (Document) TableName() string {
	return "documents"
}

// DocumentVersion is one immutable upload of a document. FileName is
// the generated storage name under the documents/ blob prefix, not
// the name the user uploaded with.
type DocumentVersion struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	DocumentID uint    `gorm:"not null;index" json:"document_id"`
	FileName   string  `gorm:"type:varchar(255);not null" json:"file_name"`
	MimeType   string  `gorm:"type:varchar(127)" json:"mime_type"`
	Size       int64   `gorm:"not null" json:"size"`
	Notes      *string `gorm:"type:varchar(1000)" json:"notes"`
	UploadedBy uint    `gorm:"not null" json:"uploaded_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Document Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Uploader User     `gorm:"foreignKey:UploadedBy" json:"uploader,omitempty"`
}

// TableName specifies the table name for DocumentVersion model
func (DocumentVersion) TableName() string {
	return "document_versions"
}
