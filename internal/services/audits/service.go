// Package audits manages Audits, their AuditType classification, the
// assignment of document versions to audits for review, and the
// findings (hallazgos) recorded against those assignments.
package audits

import (
	"context"
	"errors"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gestdoc-app/gestdocgo/internal/apperr"
	"github.com/gestdoc-app/gestdocgo/internal/models"
	"github.com/gestdoc-app/gestdocgo/internal/pagination"
)

// Service provides audit, review and finding operations.
type Service struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewService creates an audits service.
func NewService(db *gorm.DB, logger *slog.Logger) *Service {
	return &Service{db: db, logger: logger}
}

func (s *Service) exists(ctx context.Context, model interface{}, id uint) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// ---- AuditType ----

// AuditTypeRequest carries the writable fields of an audit type.
type AuditTypeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      bool   `json:"status"`
}

// Validate checks the request fields.
func (r AuditTypeRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
	)
}

// CreateAuditType persists a new audit type.
func (s *Service) CreateAuditType(ctx context.Context, req AuditTypeRequest) (*models.AuditType, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	at := &models.AuditType{Name: req.Name, Description: req.Description, Status: req.Status}
	if err := s.db.WithContext(ctx).Create(at).Error; err != nil {
		return nil, err
	}
	s.logger.Info("audit type created", "id", at.ID, "name", at.Name)
	return at, nil
}

// GetAuditType fetches one audit type by id.
func (s *Service) GetAuditType(ctx context.Context, id uint) (*models.AuditType, error) {
	var at models.AuditType
	if err := s.db.WithContext(ctx).First(&at, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "audit type"}
		}
		return nil, err
	}
	return &at, nil
}

// UpdateAuditType applies a validated update to an existing audit type.
func (s *Service) UpdateAuditType(ctx context.Context, id uint, req AuditTypeRequest) (*models.AuditType, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	at, err := s.GetAuditType(ctx, id)
	if err != nil {
		return nil, err
	}
	at.Name = req.Name
	at.Description = req.Description
	at.Status = req.Status
	if err := s.db.WithContext(ctx).Model(&models.AuditType{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"name":        req.Name,
			"description": req.Description,
			"status":      req.Status,
		}).Error; err != nil {
		return nil, err
	}
	return at, nil
}

// DeleteAuditType removes an audit type unconditionally.
func (s *Service) DeleteAuditType(ctx context.Context, id uint) error {
	if _, err := s.GetAuditType(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.AuditType{}, id).Error
}

// ListAuditTypes returns one page of audit types.
func (s *Service) ListAuditTypes(ctx context.Context, page int) (*pagination.Page, error) {
	perPage := pagination.DefaultPerPage
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AuditType{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var types []models.AuditType
	if err := s.db.WithContext(ctx).
		Order("id").
		Offset(pagination.Offset(page, perPage)).
		Limit(perPage).
		Find(&types).Error; err != nil {
		return nil, err
	}
	p := pagination.New(types, pagination.Clamp(page), perPage, total)
	return &p, nil
}

// ActiveAuditTypes returns the audit types offered for new audits.
func (s *Service) ActiveAuditTypes(ctx context.Context) ([]models.AuditType, error) {
	var types []models.AuditType
	if err := s.db.WithContext(ctx).Where("status = ?", true).Order("id").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// ---- Audit ----

// AuditRequest carries the writable fields of an audit.
type AuditRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	AuditTypeID uint   `json:"audit_type_id"`
}

// Validate checks the request fields.
func (r AuditRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.AuditTypeID, validation.Required),
	)
}

// CreateAudit persists a new audit after checking the referenced type
// exists.
func (s *Service) CreateAudit(ctx context.Context, req AuditRequest) (*models.Audit, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	ok, err := s.exists(ctx, &models.AuditType{}, req.AuditTypeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewValidation("audit_type_id", "the selected audit type does not exist")
	}
	audit := &models.Audit{Title: req.Title, Description: req.Description, AuditTypeID: req.AuditTypeID}
	if err := s.db.WithContext(ctx).Create(audit).Error; err != nil {
		return nil, err
	}
	s.logger.Info("audit created", "id", audit.ID, "title", audit.Title)
	return audit, nil
}

// GetAudit fetches one audit with its type, reviews and their
// documents and auditors preloaded, the shape the detail page needs.
func (s *Service) GetAudit(ctx context.Context, id uint) (*models.Audit, error) {
	var audit models.Audit
	if err := s.db.WithContext(ctx).
		Preload("AuditType").
		Preload("DocumentReviews").
		Preload("DocumentReviews.DocumentVersion").
		Preload("DocumentReviews.DocumentVersion.Document").
		Preload("DocumentReviews.Auditor").
		First(&audit, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "audit"}
		}
		return nil, err
	}
	return &audit, nil
}

// UpdateAudit applies a validated update to an existing audit.
func (s *Service) UpdateAudit(ctx context.Context, id uint, req AuditRequest) (*models.Audit, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	var audit models.Audit
	if err := s.db.WithContext(ctx).First(&audit, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "audit"}
		}
		return nil, err
	}
	ok, err := s.exists(ctx, &models.AuditType{}, req.AuditTypeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NewValidation("audit_type_id", "the selected audit type does not exist")
	}
	audit.Title = req.Title
	audit.Description = req.Description
	audit.AuditTypeID = req.AuditTypeID
	if err := s.db.WithContext(ctx).Save(&audit).Error; err != nil {
		return nil, err
	}
	return &audit, nil
}

// DeleteAudit removes an audit with its reviews and findings.
func (s *Service) DeleteAudit(ctx context.Context, id uint) error {
	var audit models.Audit
	if err := s.db.WithContext(ctx).First(&audit, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &apperr.NotFoundError{Resource: "audit"}
		}
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var reviewIDs []uint
		if err := tx.Model(&models.AuditDocumentReview{}).Where("audit_id = ?", id).Pluck("id", &reviewIDs).Error; err != nil {
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
		return tx.Delete(&models.Audit{}, id).Error
	})
}

// AuditRow is an audit flattened for table display.
type AuditRow struct {
	ID            uint      `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	AuditTypeName string    `json:"audit_type_name"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListAudits returns one page of audits with the type name flattened
// in.
func (s *Service) ListAudits(ctx context.Context, page int) (*pagination.Page, error) {
	perPage := pagination.DefaultPerPage
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Audit{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var audits []models.Audit
	if err := s.db.WithContext(ctx).
		Preload("AuditType").
		Order("id").
		Offset(pagination.Offset(page, perPage)).
		Limit(perPage).
		Find(&audits).Error; err != nil {
		return nil, err
	}
	rows := make([]AuditRow, 0, len(audits))
	for _, a := range audits {
		name := a.AuditType.Name
		if name == "" {
			name = "N/A"
		}
		rows = append(rows, AuditRow{
			ID:            a.ID,
			Title:         a.Title,
			Description:   a.Description,
			AuditTypeName: name,
			CreatedAt:     a.CreatedAt,
		})
	}
	p := pagination.New(rows, pagination.Clamp(page), perPage, total)
	return &p, nil
}

// ---- AuditDocumentReview ----

// AssignRequest carries the fields for assigning a document version
// to an audit.
type AssignRequest struct {
	AuditID           uint `json:"audit_id"`
	DocumentVersionID uint `json:"document_version_id"`
	UserID            uint `json:"user_id"`
}

// Validate checks the request fields.
func (r AssignRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AuditID, validation.Required),
		validation.Field(&r.DocumentVersionID, validation.Required),
		validation.Field(&r.UserID, validation.Required),
	)
}

// AssignDocumentVersion creates a pending review linking one document
// version to one audit and one auditor. Assigning the same pair twice
// fails with Conflict; the database unique index catches the race
// where two callers pass the pre-check simultaneously.
func (s *Service) AssignDocumentVersion(ctx context.Context, req AssignRequest) (*models.AuditDocumentReview, error) {
	if err := apperr.FromOzzo(req.Validate()); err != nil {
		return nil, err
	}
	for _, check := range []struct {
		model interface{}
		id    uint
		field string
		msg   string
	}{
		{&models.Audit{}, req.AuditID, "audit_id", "the selected audit does not exist"},
		{&models.DocumentVersion{}, req.DocumentVersionID, "document_version_id", "the selected document version does not exist"},
		{&models.User{}, req.UserID, "user_id", "the selected auditor does not exist"},
	} {
		ok, err := s.exists(ctx, check.model, check.id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NewValidation(check.field, check.msg)
		}
	}

	var n int64
	if err := s.db.WithContext(ctx).Model(&models.AuditDocumentReview{}).
		Where("audit_id = ? AND document_version_id = ?", req.AuditID, req.DocumentVersionID).
		Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, &apperr.ConflictError{
			Field:   "message",
			Message: "this document version is already assigned to this audit",
		}
	}

	review := &models.AuditDocumentReview{
		AuditID:           req.AuditID,
		DocumentVersionID: req.DocumentVersionID,
		UserID:            req.UserID,
		Status:            models.ReviewPending,
	}
	if err := s.db.WithContext(ctx).Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &apperr.ConflictError{
				Field:   "message",
				Message: "this document version is already assigned to this audit",
			}
		}
		return nil, err
	}
	s.logger.Info("document version assigned", "review_id", review.ID, "audit_id", req.AuditID, "document_version_id", req.DocumentVersionID)
	return review, nil
}

// UpdateReviewRequest carries the partial update fields of a review.
type UpdateReviewRequest struct {
	UserID *uint                `json:"user_id"`
	Status *models.ReviewStatus `json:"status"`
}

// UpdateReview applies a partial update of auditor assignment and/or
// status.
func (s *Service) UpdateReview(ctx context.Context, id uint, req UpdateReviewRequest) (*models.AuditDocumentReview, error) {
	var review models.AuditDocumentReview
	if err := s.db.WithContext(ctx).First(&review, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "audit document review"}
		}
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.UserID != nil {
		ok, err := s.exists(ctx, &models.User{}, *req.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.NewValidation("user_id", "the selected auditor does not exist")
		}
		review.UserID = *req.UserID
		updates["user_id"] = *req.UserID
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, apperr.NewValidation("status", "status must be one of pending, approved, rejected")
		}
		review.Status = *req.Status
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		return &review, nil
	}
	if err := s.db.WithContext(ctx).Model(&models.AuditDocumentReview{}).Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// Unassign deletes a review together with its findings.
func (s *Service) Unassign(ctx context.Context, id uint) error {
	var review models.AuditDocumentReview
	if err := s.db.WithContext(ctx).First(&review, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return &apperr.NotFoundError{Resource: "audit document review"}
		}
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("audit_document_review_id = ?", id).Delete(&models.AuditFinding{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.AuditDocumentReview{}, id).Error
	})
}

// ---- AuditFinding ----

// FindingRequest carries the writable fields of a finding.
type FindingRequest struct {
	AuditDocumentReviewID uint                   `json:"audit_document_review_id"`
	FindingTypeID         uint                   `json:"finding_type_id"`
	Title                 string                 `json:"title"`
	Description           string                 `json:"description"`
	Severity              models.FindingSeverity `json:"severity"`
	ActionRequired        *string                `json:"action_required"`
	Status                models.FindingStatus   `json:"status"`
	DueDate               *datatypes.Date        `json:"due_date"`
}

// Validate checks the request fields, including the closed enums.
func (r FindingRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.AuditDocumentReviewID, validation.Required),
		validation.Field(&r.FindingTypeID, validation.Required),
		validation.Field(&r.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&r.Description, validation.Required),
	)
	if err != nil {
		return err
	}
	fields := map[string][]string{}
	if !r.Severity.Valid() {
		fields["severity"] = []string{"severity must be one of minor, major, critical"}
	}
	if !r.Status.Valid() {
		fields["status"] = []string{"status must be one of pending, resolved, not_applicable"}
	}
	if len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) validateFindingRefs(ctx context.Context, req FindingRequest) error {
	ok, err := s.exists(ctx, &models.AuditDocumentReview{}, req.AuditDocumentReviewID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NewValidation("audit_document_review_id", "the selected review does not exist")
	}
	ok, err = s.exists(ctx, &models.FindingType{}, req.FindingTypeID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NewValidation("finding_type_id", "the selected finding type does not exist")
	}
	return nil
}

// CreateFinding persists a new finding against a review.
func (s *Service) CreateFinding(ctx context.Context, req FindingRequest, creatorID uint) (*models.AuditFinding, error) {
	if err := req.Validate(); err != nil {
		if verr, ok := err.(*apperr.ValidationError); ok {
			return nil, verr
		}
		return nil, apperr.FromOzzo(err)
	}
	if err := s.validateFindingRefs(ctx, req); err != nil {
		return nil, err
	}

	finding := &models.AuditFinding{
		AuditDocumentReviewID: req.AuditDocumentReviewID,
		FindingTypeID:         req.FindingTypeID,
		Title:                 req.Title,
		Description:           req.Description,
		Severity:              req.Severity,
		ActionRequired:        req.ActionRequired,
		Status:                req.Status,
		DueDate:               req.DueDate,
		CreatedBy:             creatorID,
	}
	if err := s.db.WithContext(ctx).Create(finding).Error; err != nil {
		return nil, err
	}
	s.logger.Info("finding created", "id", finding.ID, "severity", finding.Severity, "status", finding.Status)
	return finding, nil
}

// GetFinding fetches one finding by id.
func (s *Service) GetFinding(ctx context.Context, id uint) (*models.AuditFinding, error) {
	var finding models.AuditFinding
	if err := s.db.WithContext(ctx).First(&finding, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "finding"}
		}
		return nil, err
	}
	return &finding, nil
}

// UpdateFinding applies a validated update. When status moves from a
// non-resolved value into resolved, CorrectedAt is stamped with the
// current time; it is never cleared by any later transition.
func (s *Service) UpdateFinding(ctx context.Context, id uint, req FindingRequest) (*models.AuditFinding, error) {
	if err := req.Validate(); err != nil {
		if verr, ok := err.(*apperr.ValidationError); ok {
			return nil, verr
		}
		return nil, apperr.FromOzzo(err)
	}
	finding, err := s.GetFinding(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateFindingRefs(ctx, req); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"audit_document_review_id": req.AuditDocumentReviewID,
		"finding_type_id":          req.FindingTypeID,
		"title":                    req.Title,
		"description":              req.Description,
		"severity":                 req.Severity,
		"action_required":          req.ActionRequired,
		"status":                   req.Status,
		"due_date":                 req.DueDate,
	}
	if req.Status == models.FindingResolved && finding.Status != models.FindingResolved {
		now := time.Now()
		updates["corrected_at"] = &now
		finding.CorrectedAt = &now
	}

	if err := s.db.WithContext(ctx).Model(&models.AuditFinding{}).Where("id = ?", id).
		Updates(updates).Error; err != nil {
		return nil, err
	}

	finding.AuditDocumentReviewID = req.AuditDocumentReviewID
	finding.FindingTypeID = req.FindingTypeID
	finding.Title = req.Title
	finding.Description = req.Description
	finding.Severity = req.Severity
	finding.ActionRequired = req.ActionRequired
	finding.Status = req.Status
	finding.DueDate = req.DueDate
	return finding, nil
}

// DeleteFinding removes a finding unconditionally.
func (s *Service) DeleteFinding(ctx context.Context, id uint) error {
	if _, err := s.GetFinding(ctx, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&models.AuditFinding{}, id).Error
}

// FindingRow is a finding flattened for table display.
type FindingRow struct {
	ID              uint                   `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description"`
	Severity        models.FindingSeverity `json:"severity"`
	Status          models.FindingStatus   `json:"status"`
	DueDate         *datatypes.Date        `json:"due_date"`
	FindingTypeName string                 `json:"finding_type_name"`
	AuditTitle      string                 `json:"audit_title"`
	DocumentName    string                 `json:"document_name"`
	CreatedByName   string                 `json:"created_by_name"`
	CreatedAt       time.Time              `json:"created_at"`
}

// ListFindings returns one page of findings with their related names
// flattened in.
func (s *Service) ListFindings(ctx context.Context, page int) (*pagination.Page, error) {
	perPage := pagination.DefaultPerPage
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.AuditFinding{}).Count(&total).Error; err != nil {
		return nil, err
	}
	var findings []models.AuditFinding
	if err := s.db.WithContext(ctx).
		Preload("Review.Audit").
		Preload("Review.DocumentVersion.Document").
		Preload("FindingType").
		Preload("Creator").
		Order("id").
		Offset(pagination.Offset(page, perPage)).
		Limit(perPage).
		Find(&findings).Error; err != nil {
		return nil, err
	}
	rows := make([]FindingRow, 0, len(findings))
	for _, f := range findings {
		row := FindingRow{
			ID:              f.ID,
			Title:           f.Title,
			Description:     f.Description,
			Severity:        f.Severity,
			Status:          f.Status,
			DueDate:         f.DueDate,
			FindingTypeName: f.FindingType.Name,
			AuditTitle:      f.Review.Audit.Title,
			DocumentName:    f.Review.DocumentVersion.Document.Name,
			CreatedByName:   f.Creator.Name,
			CreatedAt:       f.CreatedAt,
		}
		if row.FindingTypeName == "" {
			row.FindingTypeName = "N/A"
		}
		if row.AuditTitle == "" {
			row.AuditTitle = "N/A"
		}
		if row.DocumentName == "" {
			row.DocumentName = "N/A"
		}
		if row.CreatedByName == "" {
			row.CreatedByName = "N/A"
		}
		rows = append(rows, row)
	}
	p := pagination.New(rows, pagination.Clamp(page), perPage, total)
	return &p, nil
}

// ListFindingTypes returns all finding types for selection lists.
func (s *Service) ListFindingTypes(ctx context.Context) ([]models.FindingType, error) {
	var types []models.FindingType
	if err := s.db.WithContext(ctx).Order("id").Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}
