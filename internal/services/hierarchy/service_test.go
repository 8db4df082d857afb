package hierarchy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
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
	name := fmt.Sprintf("blob-%d", m.seq)
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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Department{},
		&models.Area{},
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

func TestCompanyCRUD(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCompany(ctx, CompanyRequest{})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	company, err := svc.CreateCompany(ctx, CompanyRequest{Name: "Acme"})
	require.NoError(t, err)
	require.NotZero(t, company.ID)

	updated, err := svc.UpdateCompany(ctx, company.ID, CompanyRequest{Name: "Acme Corp"})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)

	require.NoError(t, svc.DeleteCompany(ctx, company.ID, false))
	_, err = svc.GetCompany(ctx, company.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListCompaniesPagination(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		_, err := svc.CreateCompany(ctx, CompanyRequest{Name: fmt.Sprintf("Company %02d", i)})
		require.NoError(t, err)
	}

	page1, err := svc.ListCompanies(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 9, page1.PerPage)
	assert.EqualValues(t, 12, page1.Total)
	assert.Equal(t, 2, page1.LastPage)
	require.Len(t, page1.Data.([]models.Company), 9)

	page2, err := svc.ListCompanies(ctx, 2)
	require.NoError(t, err)
	require.Len(t, page2.Data.([]models.Company), 3)

	// Out-of-range page numbers are clamped, not an error
	page0, err := svc.ListCompanies(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page0.Page)
}

func TestCreateDepartmentUnknownCompanyPersistsNothing(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDepartment(ctx, DepartmentRequest{Name: "HR", CompanyID: 999})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "company_id")

	var n int64
	require.NoError(t, db.Model(&models.Department{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestAreaCompanyProjection(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	company, err := svc.CreateCompany(ctx, CompanyRequest{Name: "Acme"})
	require.NoError(t, err)
	dept, err := svc.CreateDepartment(ctx, DepartmentRequest{Name: "Production", CompanyID: company.ID})
	require.NoError(t, err)

	area, err := svc.CreateArea(ctx, AreaRequest{Name: "Line A", DepartmentID: dept.ID})
	require.NoError(t, err)
	assert.Equal(t, company.ID, area.CompanyID, "company id derived through the department")

	other, err := svc.CreateCompany(ctx, CompanyRequest{Name: "Globex"})
	require.NoError(t, err)
	dept2, err := svc.CreateDepartment(ctx, DepartmentRequest{Name: "Logistics", CompanyID: other.ID})
	require.NoError(t, err)

	moved, err := svc.UpdateArea(ctx, area.ID, AreaRequest{Name: "Line A", DepartmentID: dept2.ID})
	require.NoError(t, err)
	assert.Equal(t, other.ID, moved.CompanyID, "projection follows the new department")
}

func TestListAreasPageSize(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	company, err := svc.CreateCompany(ctx, CompanyRequest{Name: "Acme"})
	require.NoError(t, err)
	dept, err := svc.CreateDepartment(ctx, DepartmentRequest{Name: "Production", CompanyID: company.ID})
	require.NoError(t, err)
	for i := 0; i < 11; i++ {
		_, err := svc.CreateArea(ctx, AreaRequest{Name: fmt.Sprintf("Area %02d", i), DepartmentID: dept.ID})
		require.NoError(t, err)
	}

	page, err := svc.ListAreas(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, page.PerPage, "areas page at 10, unlike the other tables")
	require.Len(t, page.Data.([]AreaRow), 10)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, company.ID, page.Data.([]AreaRow)[0].CompanyID)
}

func TestFolderSelfParentRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, FolderRequest{Name: "Root"})
	require.NoError(t, err)

	self := folder.ID
	_, err = svc.UpdateFolder(ctx, folder.ID, FolderRequest{Name: "Root", ParentFolderID: &self})
	var verr *apperr.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "parent_folder_id")
}

func TestFolderListNameFallbacks(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateFolder(ctx, FolderRequest{Name: "Detached"})
	require.NoError(t, err)

	page, err := svc.ListFolders(ctx, 1)
	require.NoError(t, err)
	rows := page.Data.([]FolderRow)
	require.Len(t, rows, 1)
	assert.Equal(t, "N/A", rows[0].AreaName)
	assert.Equal(t, "Ninguno", rows[0].ParentFolderName)
}

func TestDeleteCompanyGuardAndCascade(t *testing.T) {
	svc, db, blobs := newTestService(t)
	ctx := context.Background()

	company, err := svc.CreateCompany(ctx, CompanyRequest{Name: "Acme"})
	require.NoError(t, err)
	dept, err := svc.CreateDepartment(ctx, DepartmentRequest{Name: "Production", CompanyID: company.ID})
	require.NoError(t, err)
	area, err := svc.CreateArea(ctx, AreaRequest{Name: "Line A", DepartmentID: dept.ID})
	require.NoError(t, err)
	folder, err := svc.CreateFolder(ctx, FolderRequest{Name: "Docs", AreaID: &area.ID})
	require.NoError(t, err)

	user := &models.User{Name: "U", Email: "u@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)
	doc := &models.Document{Name: "Spec", FolderID: folder.ID, UserID: user.ID}
	require.NoError(t, db.Create(doc).Error)
	stored, err := blobs.Store(bytes.NewReader([]byte("contents")), "spec.pdf")
	require.NoError(t, err)
	version := &models.DocumentVersion{DocumentID: doc.ID, FileName: stored.Name, Size: stored.Size, UploadedBy: user.ID}
	require.NoError(t, db.Create(version).Error)

	// Unconfirmed delete is refused with the dependent counts
	err = svc.DeleteCompany(ctx, company.ID, false)
	var derr *apperr.DependencyError
	require.ErrorAs(t, err, &derr)
	assert.EqualValues(t, 1, derr.Counts["departments"])

	// Confirmed delete cascades all the way down
	require.NoError(t, svc.DeleteCompany(ctx, company.ID, true))

	for _, check := range []struct {
		name  string
		model interface{}
	}{
		{"companies", &models.Company{}},
		{"departments", &models.Department{}},
		{"areas", &models.Area{}},
		{"folders", &models.Folder{}},
		{"documents", &models.Document{}},
		{"versions", &models.DocumentVersion{}},
	} {
		var n int64
		require.NoError(t, db.Model(check.model).Count(&n).Error)
		assert.Zero(t, n, "%s should be gone", check.name)
	}
	assert.False(t, blobs.Exists(stored.Name), "stored file removed with the tree")
}

func TestDeleteFolderGuardAndSubtreeCascade(t *testing.T) {
	svc, db, blobs := newTestService(t)
	ctx := context.Background()

	root, err := svc.CreateFolder(ctx, FolderRequest{Name: "Root"})
	require.NoError(t, err)
	child, err := svc.CreateFolder(ctx, FolderRequest{Name: "Child", ParentFolderID: &root.ID})
	require.NoError(t, err)
	grandchild, err := svc.CreateFolder(ctx, FolderRequest{Name: "Grandchild", ParentFolderID: &child.ID})
	require.NoError(t, err)

	user := &models.User{Name: "U", Email: "u@example.com", Password: "x"}
	require.NoError(t, db.Create(user).Error)
	doc := &models.Document{Name: "Deep doc", FolderID: grandchild.ID, UserID: user.ID}
	require.NoError(t, db.Create(doc).Error)
	stored, err := blobs.Store(bytes.NewReader([]byte("deep")), "deep.txt")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.DocumentVersion{DocumentID: doc.ID, FileName: stored.Name, Size: stored.Size, UploadedBy: user.ID}).Error)

	err = svc.DeleteFolder(ctx, root.ID, false)
	var derr *apperr.DependencyError
	require.ErrorAs(t, err, &derr)
	assert.EqualValues(t, 1, derr.Counts["subfolders"])

	require.NoError(t, svc.DeleteFolder(ctx, root.ID, true))

	var folders, docs, versions int64
	require.NoError(t, db.Model(&models.Folder{}).Count(&folders).Error)
	require.NoError(t, db.Model(&models.Document{}).Count(&docs).Error)
	require.NoError(t, db.Model(&models.DocumentVersion{}).Count(&versions).Error)
	assert.Zero(t, folders)
	assert.Zero(t, docs)
	assert.Zero(t, versions)
	assert.Empty(t, blobs.files)
}

func TestDeleteAreaGuard(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	company, err := svc.CreateCompany(ctx, CompanyRequest{Name: "Acme"})
	require.NoError(t, err)
	dept, err := svc.CreateDepartment(ctx, DepartmentRequest{Name: "Production", CompanyID: company.ID})
	require.NoError(t, err)
	area, err := svc.CreateArea(ctx, AreaRequest{Name: "Line A", DepartmentID: dept.ID})
	require.NoError(t, err)
	_, err = svc.CreateFolder(ctx, FolderRequest{Name: "Docs", AreaID: &area.ID})
	require.NoError(t, err)

	err = svc.DeleteArea(ctx, area.ID, false)
	assert.ErrorAs(t, err, new(*apperr.DependencyError))

	// An area with no folders deletes without confirmation
	empty, err := svc.CreateArea(ctx, AreaRequest{Name: "Line B", DepartmentID: dept.ID})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteArea(ctx, empty.ID, false))
}

func TestDepartmentListFlattensCompanyName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	company, err := svc.CreateCompany(ctx, CompanyRequest{Name: "Acme"})
	require.NoError(t, err)
	_, err = svc.CreateDepartment(ctx, DepartmentRequest{Name: "HR", CompanyID: company.ID})
	require.NoError(t, err)

	page, err := svc.ListDepartments(ctx, 1)
	require.NoError(t, err)
	rows := page.Data.([]DepartmentRow)
	require.Len(t, rows, 1)
	assert.Equal(t, "Acme", rows[0].CompanyName)
}
