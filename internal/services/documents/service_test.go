package documents

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/gestdoc-app/gestdocgo/internal/apperr"
	"github.com/gestdoc-app/gestdocgo/internal/models"
	"github.com/gestdoc-app/gestdocgo/internal/storage"
)

// memStore is an in-memory BlobStore for tests.
type memStore struct {
	files map[string][]byte
	seq   int
}

func newMemStore() *memStore {
	return &memStore{files: map[string][]byte{}}
}

func (m *memStore) Store(r io.Reader, originalName string) (*storage.StoredFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.seq++
	name := fmt.Sprintf("blob-%d%s", m.seq, ext(originalName))
	m.files[name] = data
	return &storage.StoredFile{Name: name, Size: int64(len(data))}, nil
}

func (m *memStore) Open(name string) (io.ReadCloser, error) {
	data, ok := m.files[name]
	if !ok {
		return nil, storage.ErrNotExist
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(name string) error {
	if _, ok := m.files[name]; !ok {
		return storage.ErrNotExist
	}
	delete(m.files, name)
	return nil
}

func (m *memStore) Exists(name string) bool {
	_, ok := m.files[name]
	return ok
}

func ext(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return strings.ToLower(name[i:])
	}
	return ""
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.Document{},
		&models.DocumentVersion{},
		&models.AuditType{},
		&models.Audit{},
		&models.AuditDocumentReview{},
		&models.FindingType{},
		&models.AuditFinding{},
	))
	return db
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *memStore) {
	t.Helper()
	db := newTestDB(t)
	blobs := newMemStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(db, blobs, logger), db, blobs
}

func seedFolderAndUser(t *testing.T, db *gorm.DB) (*models.Folder, *models.User) {
	t.Helper()
	user := &models.User{Name: "Uploader", Email: "uploader@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)
	folder := &models.Folder{Name: "Policies"}
	require.NoError(t, db.Create(folder).Error)
	return folder, user
}

func upload(content, filename, mime string) Upload {
	return Upload{Reader: strings.NewReader(content), Filename: filename, MimeType: mime}
}

func TestCreateDocumentCreatesFirstVersion(t *testing.T) {
	svc, db, blobs := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	doc, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Quality Policy", FolderID: folder.ID},
		upload("hello world", "policy.PDF", "application/pdf"), user.ID)
	require.NoError(t, err)
	require.NotZero(t, doc.ID)

	versions, err := svc.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	v := versions[0]
	assert.EqualValues(t, 11, v.Size)
	assert.Equal(t, "application/pdf", v.MimeType)
	require.NotNil(t, v.Notes)
	assert.Equal(t, "Initial version", *v.Notes)
	assert.Equal(t, user.ID, v.UploadedBy)
	assert.True(t, strings.HasSuffix(v.FileName, ".pdf"), "extension kept and lowercased: %s", v.FileName)
	assert.True(t, blobs.Exists(v.FileName))
}

func TestCreateDocumentMissingFolderPersistsNothing(t *testing.T) {
	svc, db, blobs := newTestService(t)
	ctx := context.Background()
	_, user := seedFolderAndUser(t, db)

	_, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Orphan", FolderID: 999},
		upload("data", "a.txt", "text/plain"), user.ID)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	var docs, versions int64
	require.NoError(t, db.Model(&models.Document{}).Count(&docs).Error)
	require.NoError(t, db.Model(&models.DocumentVersion{}).Count(&versions).Error)
	assert.Zero(t, docs)
	assert.Zero(t, versions)
	assert.Empty(t, blobs.files, "folder check runs before the file is stored")
}

func TestCreateDocumentRequiresFile(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	_, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "No file", FolderID: folder.ID}, Upload{}, user.ID)
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "file")
}

func TestAddVersionAppendsNewestFirst(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	doc, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Manual", FolderID: folder.ID},
		upload("v1", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)

	notes := "Second revision"
	v2, err := svc.AddVersion(ctx, doc.ID, AddVersionRequest{Notes: &notes},
		upload("v2 longer", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)

	versions, err := svc.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, v2.ID, versions[0].ID, "newest version listed first")
	require.NotNil(t, versions[0].Notes)
	assert.Equal(t, "Second revision", *versions[0].Notes)
}

func TestAddVersionUnknownDocument(t *testing.T) {
	svc, db, blobs := newTestService(t)
	ctx := context.Background()
	_, user := seedFolderAndUser(t, db)

	_, err := svc.AddVersion(ctx, 999, AddVersionRequest{}, upload("x", "a.txt", "text/plain"), user.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.Empty(t, blobs.files)
}

func TestUpdateVersionNotes(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	doc, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Manual", FolderID: folder.ID},
		upload("v1", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)
	versions, err := svc.ListVersions(ctx, doc.ID)
	require.NoError(t, err)

	notes := "Corrected typo in section 4"
	updated, err := svc.UpdateVersionNotes(ctx, versions[0].ID, AddVersionRequest{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)

	var stored models.DocumentVersion
	require.NoError(t, db.First(&stored, versions[0].ID).Error)
	require.NotNil(t, stored.Notes)
	assert.Equal(t, notes, *stored.Notes)
}

func TestDeleteVersionRemovesBlobAndRow(t *testing.T) {
	svc, db, blobs := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	doc, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Manual", FolderID: folder.ID},
		upload("v1", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)
	versions, err := svc.ListVersions(ctx, doc.ID)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVersion(ctx, versions[0].ID))
	assert.False(t, blobs.Exists(versions[0].FileName))

	err = svc.DeleteVersion(ctx, versions[0].ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestDeleteVersionMissingBlobStillDeletesRow(t *testing.T) {
	svc, db, blobs := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	doc, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Manual", FolderID: folder.ID},
		upload("v1", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)
	versions, err := svc.ListVersions(ctx, doc.ID)
	require.NoError(t, err)

	// Simulate a file lost outside the application
	require.NoError(t, blobs.Delete(versions[0].FileName))

	require.NoError(t, svc.DeleteVersion(ctx, versions[0].ID))

	var n int64
	require.NoError(t, db.Model(&models.DocumentVersion{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestDownloadVersion(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	doc, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Quality Manual", FolderID: folder.ID},
		upload("file contents", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)
	versions, err := svc.ListVersions(ctx, doc.ID)
	require.NoError(t, err)

	dl, err := svc.DownloadVersion(ctx, versions[0].ID)
	require.NoError(t, err)
	defer dl.Reader.Close()

	data, err := io.ReadAll(dl.Reader)
	require.NoError(t, err)
	assert.Equal(t, "file contents", string(data))
	assert.Equal(t, "application/pdf", dl.MimeType)
	assert.EqualValues(t, len(data), dl.Size)
	assert.True(t, strings.HasPrefix(dl.Filename, "Quality Manual_"), "download name starts with the document name: %s", dl.Filename)
	assert.True(t, strings.HasSuffix(dl.Filename, ".pdf"))
}

func TestDownloadVersionMissingBlob(t *testing.T) {
	svc, db, blobs := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	doc, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Manual", FolderID: folder.ID},
		upload("v1", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)
	versions, err := svc.ListVersions(ctx, doc.ID)
	require.NoError(t, err)

	require.NoError(t, blobs.Delete(versions[0].FileName))

	_, err = svc.DownloadVersion(ctx, versions[0].ID)
	var serr *apperr.StorageError
	require.ErrorAs(t, err, &serr)
}

func TestDeleteDocumentCascades(t *testing.T) {
	svc, db, blobs := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	doc, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Manual", FolderID: folder.ID},
		upload("v1", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)
	_, err = svc.AddVersion(ctx, doc.ID, AddVersionRequest{}, upload("v2", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)

	// Attach an audit review and a finding to the latest version
	at := &models.AuditType{Name: "Internal", Status: true}
	require.NoError(t, db.Create(at).Error)
	audit := &models.Audit{Title: "Review", AuditTypeID: at.ID}
	require.NoError(t, db.Create(audit).Error)
	versions, err := svc.ListVersions(ctx, doc.ID)
	require.NoError(t, err)
	review := &models.AuditDocumentReview{AuditID: audit.ID, DocumentVersionID: versions[0].ID, UserID: user.ID, Status: models.ReviewPending}
	require.NoError(t, db.Create(review).Error)
	ft := &models.FindingType{Name: "No Conformidad"}
	require.NoError(t, db.Create(ft).Error)
	finding := &models.AuditFinding{AuditDocumentReviewID: review.ID, FindingTypeID: ft.ID, Title: "x", Description: "y", Severity: models.SeverityMinor, Status: models.FindingPending, CreatedBy: user.ID}
	require.NoError(t, db.Create(finding).Error)

	require.NoError(t, svc.DeleteDocument(ctx, doc.ID))

	var docs, vers, reviews, findings int64
	require.NoError(t, db.Model(&models.Document{}).Count(&docs).Error)
	require.NoError(t, db.Model(&models.DocumentVersion{}).Count(&vers).Error)
	require.NoError(t, db.Model(&models.AuditDocumentReview{}).Count(&reviews).Error)
	require.NoError(t, db.Model(&models.AuditFinding{}).Count(&findings).Error)
	assert.Zero(t, docs)
	assert.Zero(t, vers)
	assert.Zero(t, reviews)
	assert.Zero(t, findings)
	assert.Empty(t, blobs.files, "all stored files removed")
}

func TestListDocumentsFlattensLatestVersion(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	folder, user := seedFolderAndUser(t, db)

	doc, err := svc.CreateDocument(ctx, CreateDocumentRequest{Name: "Manual", FolderID: folder.ID},
		upload("v1", "manual.pdf", "application/pdf"), user.ID)
	require.NoError(t, err)
	_, err = svc.AddVersion(ctx, doc.ID, AddVersionRequest{}, upload("v2 is longer", "manual.docx", "application/msword"), user.ID)
	require.NoError(t, err)

	page, err := svc.ListDocuments(ctx, 1)
	require.NoError(t, err)
	rows, ok := page.Data.([]DocumentRow)
	require.True(t, ok)
	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "Manual", row.Name)
	assert.Equal(t, "Policies", row.ParentFolderName)
	assert.Equal(t, "Uploader", row.UserName)
	assert.Equal(t, 2, row.VersionCount)
	assert.EqualValues(t, 12, row.Size, "latest version's size shown")
	assert.Equal(t, "application/msword", row.MimeType)
}
