// Package hierarchy implements CRUD for the Company → Department →
// Area → Folder tree, including the guarded-delete policy shared by
// all four entities.
package hierarchy

import (
	"context"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/gorm"

	"github.com/gestdoc-app/gestdocgo/internal/apperr"
	"github.com/gestdoc-app/gestdocgo/internal/models"
	"github.com/gestdoc-app/gestdocgo/internal/pagination"
	"github.com/gestdoc-app/gestdocgo/internal/storage"
)

// Service provides hierarchy CRUD operations.
type Service struct {
	db     *gorm.DB
	blobs  storage.BlobStore
	logger *slog.Logger
}

// NewService creates a hierarchy service. The blob store is needed
// because confirmed folder deletes cascade down to stored files.
func NewService(db *gorm.DB, blobs storage.BlobStore, logger *slog.Logger) *Service {
	return &Service{db: db, blobs: blobs, logger: logger}
}

// CompanyRequest carries the writable fields of a company.
type CompanyRequest struct {
	Name string `json:"name"`
}

// Validate checks the request fields.
func (r CompanyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

// DepartmentRequest carries the writable fields of a department.
type DepartmentRequest struct {
	Name      string `json:"name"`
	CompanyID uint   `json:"company_id"`
}

// Validate checks the request fields.
func (r DepartmentRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.CompanyID, validation.Required),
	)
}

// AreaRequest carries the writable fields of an area.
type AreaRequest struct {
	Name         string `json:"name"`
	DepartmentID uint   `json:"department_id"`
}

// Validate checks the request fields.
func (r AreaRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.DepartmentID, validation.Required),
	)
}

// FolderRequest carries the writable fields of a folder. Both parents
// are optional; a folder may hang off an area, another folder, or
// neither.
type FolderRequest struct {
	Name           string `json:"name"`
	AreaID         *uint  `json:"area_id"`
	ParentFolderID *uint  `json:"parent_folder_id"`
}

// Validate checks the request fields.
func (r FolderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

// exists reports whether a row of the given model with this id exists.
func (s *Service) exists(ctx context.Context, model interface{}, id uint) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// guard implements the count-gated confirm policy: deleting a parent
// with live dependents requires an explicit confirmation; without one
// the delete is refused with the dependent counts.
func guard(resource string, confirm bool, counts map[string]int64) error {
	if confirm {
		return nil
	}
	total := int64(0)
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil
	}
	return &apperr.DependencyError{Resource: resource, Counts: counts}
}

// ---- Company ----

// CreateCompany persists a new company.
func (s *Service) CreateCompany(ctx context.Context, req CompanyRequest) (*models.Company, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	company := &models.Company{Name: req.Name}
	if err := s.db.WithContext(ctx).Create(company).Error; err != nil {
		return nil, err
	}
	s.logger.Info("company created", "id", company.ID, "name", company.Name)
	return company, nil
}

// GetCompany fetches one company by id.
func (s *Service) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	if err := s.db.WithContext(ctx).First(&company, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "company"}
		}
		return nil, err
	}
	return &company, nil
}

// UpdateCompany applies a validated update to an existing company.
func (s *Service) UpdateCompany(ctx context.Context, id uint, req CompanyRequest) (*models.Company, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	company.Name = req.Name
	if err := s.db.WithContext(ctx).Save(company).Error; err != nil {
		return nil, err
	}
	return company, nil
}

// DeleteCompany removes a company. Without confirmation the delete is
// refused while departments still exist; a confirmed delete cascades
// through departments, areas, folders and documents.
func (s *Service) DeleteCompany(ctx context.Context, id uint, confirm bool) error {
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return err
	}

	var deptCount int64
	if err := s.db.WithContext(ctx).Model(&models.Department{}).Where("company_id = ?", id).Count(&deptCount).Error; err != nil {
		return err
	}
	if err := guard("company", confirm, map[string]int64{"departments": deptCount}); err != nil {
		return err
	}

	var blobNames []string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var deptIDs []uint
		if err := tx.Model(&models.Department{}).Where("company_id = ?", id).Pluck("id", &deptIDs).Error; err != nil {
			return err
		}
		names, err := s.deleteDepartmentsTx(tx, deptIDs)
		if err != nil {
			return err
		}
		blobNames = names
		return tx.Delete(&models.Company{}, id).Error
	})
	if err != nil {
		return err
	}

	s.removeBlobs(blobNames)
	s.logger.Info("company deleted", "id", id, "name", company.Name, "departments", deptCount)
	return nil
}

// ListCompanies returns one page of companies.
func (s *Service) ListCompanies(ctx context.Context, page int) (*pagination.Page, error) {
	perPage := pagination.DefaultPerPage
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Company{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var companies []models.Company
	if err := s.db.WithContext(ctx).
		Order("id").
		Offset(pagination.Offset(page, perPage)).
		Limit(perPage).
		Find(&companies).Error; err != nil {
		return nil, err
	}
	p := pagination.New(companies, pagination.Clamp(page), perPage, total)
	return &p, nil
}

// ---- Department ----

// CreateDepartment persists a new department after checking the
// referenced company exists.
func (s *Service) CreateDepartment(ctx context.Context, req DepartmentRequest) (*models.Department, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	ok, err := s.exists(ctx, &models.Company{}, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewValidation("company_id", "the selected company does not exist")
	}
	dept := &models.Department{Name: req.Name, CompanyID: req.CompanyID}
	if err := s.db.WithContext(ctx).Create(dept).Error; err != nil {
		return nil, err
	}
	s.logger.Info("department created", "id", dept.ID, "name", dept.Name, "company_id", dept.CompanyID)
	return dept, nil
}

// GetDepartment fetches one department by id.
func (s *Service) GetDepartment(ctx context.Context, id uint) (*models.Department, error) {
	var dept models.Department
	if err := s.db.WithContext(ctx).First(&dept, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "department"}
		}
		return nil, err
	}
	return &dept, nil
}

// UpdateDepartment applies a validated update to an existing department.
func (s *Service) UpdateDepartment(ctx context.Context, id uint, req DepartmentRequest) (*models.Department, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	dept, err := s.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.exists(ctx, &models.Company{}, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewValidation("company_id", "the selected company does not exist")
	}
	dept.Name = req.Name
	dept.CompanyID = req.CompanyID
	if err := s.db.WithContext(ctx).Save(dept).Error; err != nil {
		return nil, err
	}
	return dept, nil
}

// DeleteDepartment removes a department, guarded on its area count.
func (s *Service) DeleteDepartment(ctx context.Context, id uint, confirm bool) error {
	if _, err := s.GetDepartment(ctx, id); err != nil {
		return err
	}

	var areaCount int64
	if err := s.db.WithContext(ctx).Model(&models.Area{}).Where("department_id = ?", id).Count(&areaCount).Error; err != nil {
		return err
	}
	if err := guard("department", confirm, map[string]int64{"areas": areaCount}); err != nil {
		return err
	}

	var blobNames []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		names, err := s.deleteDepartmentsTx(tx, []uint{id})
		if err != nil {
			return err
		}
		blobNames = names
		return nil
	})
	if err != nil {
		return err
	}

	s.removeBlobs(blobNames)
	s.logger.Info("department deleted", "id", id, "areas", areaCount)
	return nil
}

// DepartmentRow is a department flattened for table display.
type DepartmentRow struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	CompanyName string `json:"company_name"`
}

// ListDepartments returns one page of departments with the company
// name flattened in.
func (s *Service) ListDepartments(ctx context.Context, page int) (*pagination.Page, error) {
	perPage := pagination.DefaultPerPage
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Department{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var depts []models.Department
	if err := s.db.WithContext(ctx).
		Preload("Company").
		Order("id").
		Offset(pagination.Offset(page, perPage)).
		Limit(perPage).
		Find(&depts).Error; err != nil {
		return nil, err
	}
	rows := make([]DepartmentRow, 0, len(depts))
	for _, d := range depts {
		name := d.Company.Name
		if name == "" {
			name = "N/A"
		}
		rows = append(rows, DepartmentRow{ID: d.ID, Name: d.Name, CompanyName: name})
	}
	p := pagination.New(rows, pagination.Clamp(page), perPage, total)
	return &p, nil
}

// ---- Area ----

// CreateArea persists a new area after checking the referenced
// department exists.
func (s *Service) CreateArea(ctx context.Context, req AreaRequest) (*models.Area, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	ok, err := s.exists(ctx, &models.Department{}, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewValidation("department_id", "the selected department does not exist")
	}
	area := &models.Area{Name: req.Name, DepartmentID: req.DepartmentID}
	if err := s.db.WithContext(ctx).Create(area).Error; err != nil {
		return nil, err
	}
	s.logger.Info("area created", "id", area.ID, "name", area.Name, "department_id", area.DepartmentID)
	return s.GetArea(ctx, area.ID)
}

// GetArea fetches one area with its derived company id.
func (s *Service) GetArea(ctx context.Context, id uint) (*models.Area, error) {
	var area models.Area
	if err := s.db.WithContext(ctx).Preload("Department").First(&area, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "area"}
		}
		return nil, err
	}
	area.CompanyID = area.Department.CompanyID
	return &area, nil
}

// UpdateArea applies a validated update to an existing area.
func (s *Service) UpdateArea(ctx context.Context, id uint, req AreaRequest) (*models.Area, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	area, err := s.GetArea(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.exists(ctx, &models.Department{}, req.DepartmentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewValidation("department_id", "the selected department does not exist")
	}
	area.Name = req.Name
	area.DepartmentID = req.DepartmentID
	if err := s.db.WithContext(ctx).Model(&models.Area{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": req.Name, "department_id": req.DepartmentID}).Error; err != nil {
		return nil, err
	}
	return s.GetArea(ctx, id)
}

// DeleteArea removes an area, guarded on its folder count.
func (s *Service) DeleteArea(ctx context.Context, id uint, confirm bool) error {
	if _, err := s.GetArea(ctx, id); err != nil {
		return err
	}

	var folderCount int64
	if err := s.db.WithContext(ctx).Model(&models.Folder{}).Where("area_id = ?", id).Count(&folderCount).Error; err != nil {
		return err
	}
	if err := guard("area", confirm, map[string]int64{"folders": folderCount}); err != nil {
		return err
	}

	var blobNames []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		names, err := s.deleteAreasTx(tx, []uint{id})
		if err != nil {
			return err
		}
		blobNames = names
		return nil
	})
	if err != nil {
		return err
	}

	s.removeBlobs(blobNames)
	s.logger.Info("area deleted", "id", id, "folders", folderCount)
	return nil
}

// AreaRow is an area flattened for table display.
type AreaRow struct {
	ID             uint   `json:"id"`
	Name           string `json:"name"`
	DepartmentName string `json:"department_name"`
	CompanyID      uint   `json:"company_id"`
}

// ListAreas returns one page of areas with the department name
// flattened in and the company id projected through the department.
func (s *Service) ListAreas(ctx context.Context, page int) (*pagination.Page, error) {
	// Areas page at 10, unlike the other tables
	perPage := 10
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Area{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var areas []models.Area
	if err := s.db.WithContext(ctx).
		Preload("Department").
		Order("id").
		Offset(pagination.Offset(page, perPage)).
		Limit(perPage).
		Find(&areas).Error; err != nil {
		return nil, err
	}
	rows := make([]AreaRow, 0, len(areas))
	for _, a := range areas {
		name := a.Department.Name
		if name == "" {
			name = "N/A"
		}
		rows = append(rows, AreaRow{
			ID:             a.ID,
			Name:           a.Name,
			DepartmentName: name,
			CompanyID:      a.Department.CompanyID,
		})
	}
	p := pagination.New(rows, pagination.Clamp(page), perPage, total)
	return &p, nil
}

// ---- Folder ----

// CreateFolder persists a new folder after checking both optional
// parents exist.
func (s *Service) CreateFolder(ctx context.Context, req FolderRequest) (*models.Folder, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	if req.AreaID != nil {
		ok, err := s.exists(ctx, &models.Area{}, *req.AreaID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NewValidation("area_id", "the selected area does not exist")
		}
	}
	if req.ParentFolderID != nil {
		ok, err := s.exists(ctx, &models.Folder{}, *req.ParentFolderID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NewValidation("parent_folder_id", "the selected parent folder does not exist")
		}
	}
	folder := &models.Folder{Name: req.Name, AreaID: req.AreaID, ParentFolderID: req.ParentFolderID}
	if err := s.db.WithContext(ctx).Create(folder).Error; err != nil {
		return nil, err
	}
	s.logger.Info("folder created", "id", folder.ID, "name", folder.Name)
	return folder, nil
}

// GetFolder fetches one folder by id.
func (s *Service) GetFolder(ctx context.Context, id uint) (*models.Folder, error) {
	var folder models.Folder
	if err := s.db.WithContext(ctx).First(&folder, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "folder"}
		}
		return nil, err
	}
	return &folder, nil
}

// UpdateFolder applies a validated update. A folder may never become
// its own parent.
func (s *Service) UpdateFolder(ctx context.Context, id uint, req FolderRequest) (*models.Folder, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	folder, err := s.GetFolder(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.ParentFolderID != nil && *req.ParentFolderID == id {
		return nil, apperr.NewValidation("parent_folder_id", "a folder cannot be its own parent")
	}
	if req.AreaID != nil {
		ok, err := s.exists(ctx, &models.Area{}, *req.AreaID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NewValidation("area_id", "the selected area does not exist")
		}
	}
	if req.ParentFolderID != nil {
		ok, err := s.exists(ctx, &models.Folder{}, *req.ParentFolderID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NewValidation("parent_folder_id", "the selected parent folder does not exist")
		}
	}
	folder.Name = req.Name
	folder.AreaID = req.AreaID
	folder.ParentFolderID = req.ParentFolderID
	if err := s.db.WithContext(ctx).Model(&models.Folder{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":             req.Name,
			"area_id":          req.AreaID,
			"parent_folder_id": req.ParentFolderID,
		}).Error; err != nil {
		return nil, err
	}
	return folder, nil
}

// DeleteFolder removes a folder, guarded on its document and subfolder
// counts. A confirmed delete cascades through the whole subtree,
// removing documents, versions and their stored files.
func (s *Service) DeleteFolder(ctx context.Context, id uint, confirm bool) error {
	if _, err := s.GetFolder(ctx, id); err != nil {
		return err
	}

	var docCount, childCount int64
	if err := s.db.WithContext(ctx).Model(&models.Document{}).Where("folder_id = ?", id).Count(&docCount).Error; err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Model(&models.Folder{}).Where("parent_folder_id = ?", id).Count(&childCount).Error; err != nil {
		return err
	}
	if err := guard("folder", confirm, map[string]int64{"documents": docCount, "subfolders": childCount}); err != nil {
		return err
	}

	var blobNames []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		names, err := s.deleteFolderTreesTx(tx, []uint{id})
		if err != nil {
			return err
		}
		blobNames = names
		return nil
	})
	if err != nil {
		return err
	}

	s.removeBlobs(blobNames)
	s.logger.Info("folder deleted", "id", id, "documents", docCount, "subfolders", childCount)
	return nil
}

// FolderRow is a folder flattened for table display.
type FolderRow struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	AreaName         string `json:"area_name"`
	ParentFolderName string `json:"parent_folder_name"`
}

// ListFolders returns one page of folders with parent names flattened
// in.
func (s *Service) ListFolders(ctx context.Context, page int) (*pagination.Page, error) {
	perPage := pagination.DefaultPerPage
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Folder{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var folders []models.Folder
	if err := s.db.WithContext(ctx).
		Preload("Area").
		Preload("ParentFolder").
		Order("id").
		Offset(pagination.Offset(page, perPage)).
		Limit(perPage).
		Find(&folders).Error; err != nil {
		return nil, err
	}
	rows := make([]FolderRow, 0, len(folders))
	for _, f := range folders {
		areaName := "N/A"
		if f.Area != nil {
			areaName = f.Area.Name
		}
		parentName := "Ninguno"
		if f.ParentFolder != nil {
			parentName = f.ParentFolder.Name
		}
		rows = append(rows, FolderRow{ID: f.ID, Name: f.Name, AreaName: areaName, ParentFolderName: parentName})
	}
	p := pagination.New(rows, pagination.Clamp(page), perPage, total)
	return &p, nil
}
