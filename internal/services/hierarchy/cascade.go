package hierarchy

import (
	"errors"

	"gorm.io/gorm"

	"github.com/gestdoc-app/gestdocgo/internal/models"
	"github.com/gestdoc-app/gestdocgo/internal/storage"
)

// The cascade helpers delete rows explicitly rather than leaning on
// database-level ON DELETE CASCADE, because stored files have to be
// collected before their version rows disappear. Each helper returns
// the blob names to remove once the transaction has committed.

// deleteDepartmentsTx removes departments and everything under them.
func (s *Service) deleteDepartmentsTx(tx *gorm.DB, deptIDs []uint) ([]string, error) {
	if len(deptIDs) == 0 {
		return nil, nil
	}
	var areaIDs []uint
	if err := tx.Model(&models.Area{}).Where("department_id IN ?", deptIDs).Pluck("id", &areaIDs).Error; err != nil {
		return nil, err
	}
	blobNames, err := s.deleteAreasTx(tx, areaIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", deptIDs).Delete(&models.Department{}).Error; err != nil {
		return nil, err
	}
	return blobNames, nil
}

// deleteAreasTx removes areas and their folder trees.
func (s *Service) deleteAreasTx(tx *gorm.DB, areaIDs []uint) ([]string, error) {
	if len(areaIDs) == 0 {
		return nil, nil
	}
	var rootFolderIDs []uint
	if err := tx.Model(&models.Folder{}).Where("area_id IN ?", areaIDs).Pluck("id", &rootFolderIDs).Error; err != nil {
		return nil, err
	}
	blobNames, err := s.deleteFolderTreesTx(tx, rootFolderIDs)
	if err != nil {
		return nil, err
	}
	if err := tx.Where("id IN ?", areaIDs).Delete(&models.Area{}).Error; err != nil {
		return nil, err
	}
	return blobNames, nil
}

// deleteFolderTreesTx removes the given folders and all their
// descendants, leaves first so the self-referencing foreign key never
// sees a dangling parent.
func (s *Service) deleteFolderTreesTx(tx *gorm.DB, rootIDs []uint) ([]string, error) {
	if len(rootIDs) == 0 {
		return nil, nil
	}

	// Breadth-first walk of the subtree, level by level
	levels := [][]uint{rootIDs}
	seen := make(map[uint]bool)
	for _, id := range rootIDs {
		seen[id] = true
	}
	frontier := rootIDs
	for len(frontier) > 0 {
		var children []uint
		if err := tx.Model(&models.Folder{}).Where("parent_folder_id IN ?", frontier).Pluck("id", &children).Error; err != nil {
			return nil, err
		}
		next := children[:0]
		for _, id := range children {
			if !seen[id] {
				seen[id] = true
				next = append(next, id)
			}
		}
		if len(next) == 0 {
			break
		}
		levels = append(levels, next)
		frontier = next
	}

	all := make([]uint, 0, len(seen))
	for _, level := range levels {
		all = append(all, level...)
	}

	var docIDs []uint
	if err := tx.Model(&models.Document{}).Where("folder_id IN ?", all).Pluck("id", &docIDs).Error; err != nil {
		return nil, err
	}
	blobNames, err := deleteDocumentsTx(tx, docIDs)
	if err != nil {
		return nil, err
	}

	for i := len(levels) - 1; i >= 0; i-- {
		if err := tx.Where("id IN ?", levels[i]).Delete(&models.Folder{}).Error; err != nil {
			return nil, err
		}
	}
	return blobNames, nil
}

// deleteDocumentsTx removes documents, their versions and any audit
// assignments referencing those versions.
func deleteDocumentsTx(tx *gorm.DB, docIDs []uint) ([]string, error) {
	if len(docIDs) == 0 {
		return nil, nil
	}

	var versions []models.DocumentVersion
	if err := tx.Where("document_id IN ?", docIDs).Find(&versions).Error; err != nil {
		return nil, err
	}

	if len(versions) > 0 {
		versionIDs := make([]uint, 0, len(versions))
		for _, v := range versions {
			versionIDs = append(versionIDs, v.ID)
		}

		var reviewIDs []uint
		if err := tx.Model(&models.AuditDocumentReview{}).Where("document_version_id IN ?", versionIDs).Pluck("id", &reviewIDs).Error; err != nil {
			return nil, err
		}
		if len(reviewIDs) > 0 {
			if err := tx.Where("audit_document_review_id IN ?", reviewIDs).Delete(&models.AuditFinding{}).Error; err != nil {
				return nil, err
			}
			if err := tx.Where("id IN ?", reviewIDs).Delete(&models.AuditDocumentReview{}).Error; err != nil {
				return nil, err
			}
		}
		if err := tx.Where("id IN ?", versionIDs).Delete(&models.DocumentVersion{}).Error; err != nil {
			return nil, err
		}
	}

	if err := tx.Where("id IN ?", docIDs).Delete(&models.Document{}).Error; err != nil {
		return nil, err
	}

	blobNames := make([]string, 0, len(versions))
	for _, v := range versions {
		blobNames = append(blobNames, v.FileName)
	}
	return blobNames, nil
}

// removeBlobs deletes stored files after a committed cascade. A
// missing file is logged and skipped; the rows are already gone.
func (s *Service) removeBlobs(names []string) {
	for _, name := range names {
		if err := s.blobs.Delete(name); err != nil {
			if errors.Is(err, storage.ErrNotExist) {
				s.logger.Warn("stored file already missing", "file", name)
				continue
			}
			s.logger.Error("failed to delete stored file", "file", name, "error", err)
		}
	}
}
