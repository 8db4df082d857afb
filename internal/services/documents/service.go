// Package documents manages Documents and their append-only version
// history, including the stored files behind each version.
package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/gestdoc-app/gestdocgo/internal/apperr"
	"github.com/gestdoc-app/gestdocgo/internal/models"
	"github.com/gestdoc-app/gestdocgo/internal/pagination"
	"github.com/gestdoc-app/gestdocgo/internal/storage"
)

// Service provides document and version operations.
type Service struct {
	db     *gorm.DB
	blobs  storage.BlobStore
	logger *slog.Logger
}

// NewService creates a documents service.
func NewService(db *gorm.DB, blobs storage.BlobStore, logger *slog.Logger) *Service {
	return &Service{db: db, blobs: blobs, logger: logger}
}

// Upload is an incoming file stream with its client-supplied metadata.
type Upload struct {
	Reader   io.Reader
	Filename string
	MimeType string
}

// CreateDocumentRequest carries the fields for creating a document
// together with its first version.
type CreateDocumentRequest struct {
	Name     string `json:"name"`
	FolderID uint   `json:"folder_id"`
}

// Validate checks the request fields.
func (r CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.FolderID, validation.Required),
	)
}

// UpdateDocumentRequest carries the metadata-only update fields.
type UpdateDocumentRequest struct {
	Name     string `json:"name"`
	FolderID uint   `json:"folder_id"`
}

// Validate checks the request fields.
func (r UpdateDocumentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.FolderID, validation.Required),
	)
}

// AddVersionRequest carries the fields for appending a version.
type AddVersionRequest struct {
	Notes *string `json:"notes"`
}

// Validate checks the request fields.
func (r AddVersionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Notes, validation.Length(0, 1000)),
	)
}

// CreateDocument validates the folder, stores the uploaded file and
// creates the Document with its first Version.
func (s *Service) CreateDocument(ctx context.Context, req CreateDocumentRequest, file Upload, uploaderID uint) (*models.Document, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	if file.Reader == nil {
		return nil, apperr.NewValidation("file", "a file is required")
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Folder{}).Where("id = ?", req.FolderID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.NewValidation("folder_id", "the selected folder does not exist")
	}

	stored, err := s.blobs.Store(file.Reader, file.Filename)
	if err != nil {
		return nil, &apperr.StorageError{Path: file.Filename, Err: err}
	}

	notes := "Initial version"
	doc := &models.Document{
		Name:     req.Name,
		FolderID: req.FolderID,
		UserID:   uploaderID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(doc).Error; err != nil {
			return err
		}
		version := &models.DocumentVersion{
			DocumentID: doc.ID,
			FileName:   stored.Name,
			MimeType:   file.MimeType,
			Size:       stored.Size,
			Notes:      &notes,
			UploadedBy: uploaderID,
		}
		return tx.Create(version).Error
	})
	if err != nil {
		// The row never landed; don't leave the blob orphaned
		if delErr := s.blobs.Delete(stored.Name); delErr != nil && !errors.Is(delErr, storage.ErrNotExist) {
			s.logger.Error("failed to clean up blob after rollback", "file", stored.Name, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("document created", "id", doc.ID, "name", doc.Name, "folder_id", doc.FolderID, "size", stored.Size)
	return doc, nil
}

// GetDocument fetches one document by id.
func (s *Service) GetDocument(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	if err := s.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "document"}
		}
		return nil, err
	}
	return &doc, nil
}

// UpdateDocument renames or moves a document; file contents are never
// touched here.
func (s *Service) UpdateDocument(ctx context.Context, id uint, req UpdateDocumentRequest) (*models.Document, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	doc, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.Folder{}).Where("id = ?", req.FolderID).Count(&n).Error; err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, apperr.NewValidation("folder_id", "the selected folder does not exist")
	}
	doc.Name = req.Name
	doc.FolderID = req.FolderID
	if err := s.db.WithContext(ctx).Save(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

// DeleteDocument removes a document with all its versions, audit
// assignments and stored files. Deletes are unconditional, matching
// the rest of the document surface.
func (s *Service) DeleteDocument(ctx context.Context, id uint) error {
	if _, err := s.GetDocument(ctx, id); err != nil {
		return err
	}

	var versions []models.DocumentVersion
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", id).Find(&versions).Error; err != nil {
			return err
		}
		if len(versions) > 0 {
			versionIDs := make([]uint, 0, len(versions))
			for _, v := range versions {
				versionIDs = append(versionIDs, v.ID)
			}
			var reviewIDs []uint
			if err := tx.Model(&models.AuditDocumentReview{}).Where("document_version_id IN ?", versionIDs).Pluck("id", &reviewIDs).Error; err != nil {
				return err
			}
			if len(reviewIDs) > 0 {
				if err := tx.Where("audit_document_review_id IN ?", reviewIDs).Delete(&models.AuditFinding{}).Error; err != nil {
					return err
				}
				if err := tx.Where("id IN ?", reviewIDs).Delete(&models.AuditDocumentReview{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("id IN ?", versionIDs).Delete(&models.DocumentVersion{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Document{}, id).Error
	})
	if err != nil {
		return err
	}

	for _, v := range versions {
		if err := s.blobs.Delete(v.FileName); err != nil && !errors.Is(err, storage.ErrNotExist) {
			s.logger.Error("failed to delete stored file", "file", v.FileName, "error", err)
		}
	}
	s.logger.Info("document deleted", "id", id, "versions", len(versions))
	return nil
}

// DocumentRow is a document flattened for table display, carrying the
// latest version's file info.
type DocumentRow struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	ParentFolderName string `json:"parent_folder_name"`
	UserName         string `json:"user_name"`
	FileName         string `json:"file_name"`
	Size             int64  `json:"size"`
	MimeType         string `json:"mime_type"`
	VersionCount     int    `json:"version_count"`
}

// ListDocuments returns one page of documents with parent folder,
// owner and latest-version info flattened in.
func (s *Service) ListDocuments(ctx context.Context, page int) (*pagination.Page, error) {
	perPage := pagination.DefaultPerPage
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Document{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var docs []models.Document
	if err := s.db.WithContext(ctx).
		Preload("Folder").
		Preload("User").
		Preload("Versions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Order("id").
		Offset(pagination.Offset(page, perPage)).
		Limit(perPage).
		Find(&docs).Error; err != nil {
		return nil, err
	}

	rows := make([]DocumentRow, 0, len(docs))
	for _, d := range docs {
		row := DocumentRow{
			ID:           d.ID,
			Name:         d.Name,
			UserName:     d.User.Name,
			VersionCount: len(d.Versions),
		}
		if row.UserName == "" {
			row.UserName = "N/A"
		}
		row.ParentFolderName = d.Folder.Name
		if row.ParentFolderName == "" {
			row.ParentFolderName = "Ninguno"
		}
		if len(d.Versions) > 0 {
			latest := d.Versions[0]
			row.FileName = latest.FileName
			row.Size = latest.Size
			row.MimeType = latest.MimeType
		}
		rows = append(rows, row)
	}
	p := pagination.New(rows, pagination.Clamp(page), perPage, total)
	return &p, nil
}

// ListVersions returns a document's versions, newest first, with the
// uploader preloaded.
func (s *Service) ListVersions(ctx context.Context, documentID uint) ([]models.DocumentVersion, error) {
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	var versions []models.DocumentVersion
	if err := s.db.WithContext(ctx).
		Preload("Uploader").
		Where("document_id = ?", documentID).
		Order("created_at DESC, id DESC").
		Find(&versions).Error; err != nil {
		return nil, err
	}
	return versions, nil
}

// AddVersion stores a new file and appends a version row. Earlier
// versions are never altered.
func (s *Service) AddVersion(ctx context.Context, documentID uint, req AddVersionRequest, file Upload, uploaderID uint) (*models.DocumentVersion, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	if file.Reader == nil {
		return nil, apperr.NewValidation("file_path", "a file is required")
	}
	if _, err := s.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}

	stored, err := s.blobs.Store(file.Reader, file.Filename)
	if err != nil {
		return nil, &apperr.StorageError{Path: file.Filename, Err: err}
	}

	version := &models.DocumentVersion{
		DocumentID: documentID,
		FileName:   stored.Name,
		MimeType:   file.MimeType,
		Size:       stored.Size,
		Notes:      req.Notes,
		UploadedBy: uploaderID,
	}
	if err := s.db.WithContext(ctx).Create(version).Error; err != nil {
		if delErr := s.blobs.Delete(stored.Name); delErr != nil && !errors.Is(delErr, storage.ErrNotExist) {
			s.logger.Error("failed to clean up blob after rollback", "file", stored.Name, "error", delErr)
		}
		return nil, err
	}

	s.logger.Info("version added", "document_id", documentID, "version_id", version.ID, "size", stored.Size)
	return version, nil
}

// GetVersion fetches one version by id.
func (s *Service) GetVersion(ctx context.Context, id uint) (*models.DocumentVersion, error) {
	var version models.DocumentVersion
	if err := s.db.WithContext(ctx).First(&version, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "document version"}
		}
		return nil, err
	}
	return &version, nil
}

// UpdateVersionNotes is a metadata-only edit; the file itself is
// immutable once uploaded.
func (s *Service) UpdateVersionNotes(ctx context.Context, id uint, req AddVersionRequest) (*models.DocumentVersion, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	version, err := s.GetVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	version.Notes = req.Notes
	if err := s.db.WithContext(ctx).Model(&models.DocumentVersion{}).Where("id = ?", id).
		Update("notes", req.Notes).Error; err != nil {
		return nil, err
	}
	return version, nil
}

// DeleteVersion removes the stored file, then the row. A missing file
// is logged and treated as non-fatal; the row is removed regardless.
func (s *Service) DeleteVersion(ctx context.Context, id uint) error {
	version, err := s.GetVersion(ctx, id)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(version.FileName); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			s.logger.Warn("stored file already missing", "file", version.FileName, "version_id", id)
		} else {
			return &apperr.StorageError{Path: version.FileName, Err: err}
		}
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reviewIDs []uint
		if err := tx.Model(&models.AuditDocumentReview{}).Where("document_version_id = ?", id).Pluck("id", &reviewIDs).Error; err != nil {
			return err
		}
		if len(reviewIDs) > 0 {
			if err := tx.Where("audit_document_review_id IN ?", reviewIDs).Delete(&models.AuditFinding{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", reviewIDs).Delete(&models.AuditDocumentReview{}).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.DocumentVersion{}, id).Error
	})
}

// Download describes an opened version stream ready to be sent to the
// client.
type Download struct {
	Reader   io.ReadCloser
	Filename string
	MimeType string
	Size     int64
}

// DownloadVersion opens the stored file and synthesizes the download
// name from the owning document's name and the version timestamp.
func (s *Service) DownloadVersion(ctx context.Context, id uint) (*Download, error) {
	var version models.DocumentVersion
	if err := s.db.WithContext(ctx).Preload("Document").First(&version, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "document version"}
		}
		return nil, err
	}

	reader, err := s.blobs.Open(version.FileName)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, &apperr.StorageError{Path: version.FileName, Err: storage.ErrNotExist}
		}
		return nil, &apperr.StorageError{Path: version.FileName, Err: err}
	}

	ext := strings.TrimPrefix(filepath.Ext(version.FileName), ".")
	name := fmt.Sprintf("%s_%s.%s", version.Document.Name, version.CreatedAt.Format("20060102_150405"), ext)

	return &Download{
		Reader:   reader,
		Filename: name,
		MimeType: version.MimeType,
		Size:     version.Size,
	}, nil
}
