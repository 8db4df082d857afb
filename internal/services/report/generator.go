// Package report renders audit reports as PDF for back-office export.
package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"

	"github.com/gestdoc-app/gestdocgo/internal/apperr"
	"github.com/gestdoc-app/gestdocgo/internal/models"
)

// Service renders PDF reports from audit data.
type Service struct {
	db *gorm.DB
	// BaseURL is embedded in the QR code so a printed report links
	// back to the live audit page.
	baseURL string
}

// NewService creates a report service.
func NewService(db *gorm.DB, baseURL string) *Service {
	return &Service{db: db, baseURL: baseURL}
}

// GenerateAuditReport renders one audit with its document reviews and
// findings as an A4 PDF.
func (s *Service) GenerateAuditReport(ctx context.Context, auditID uint) ([]byte, error) {
	var audit models.Audit
	if err := s.db.WithContext(ctx).
		Preload("AuditType").
		Preload("DocumentReviews").
		Preload("DocumentReviews.DocumentVersion.Document").
		Preload("DocumentReviews.Auditor").
		Preload("DocumentReviews.Findings").
		Preload("DocumentReviews.Findings.FindingType").
		First(&audit, auditID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, &apperr.NotFoundError{Resource: "audit"}
		}
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	// Header with QR code linking back to the audit page
	qrContent := fmt.Sprintf("%s/audits/%d", s.baseURL, audit.ID)
	qrPng, err := qrcode.Encode(qrContent, qrcode.Low, 256)
	if err != nil {
		return nil, err
	}
	imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
	_ = pdf.RegisterImageOptionsReader("audit_qr", imgOptions, bytes.NewReader(qrPng))
	pdf.ImageOptions("audit_qr", 170, 15, 25, 25, false, imgOptions, 0, "")

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(150, 10, audit.Title, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	typeName := audit.AuditType.Name
	if typeName == "" {
		typeName = "N/A"
	}
	pdf.CellFormat(150, 6, fmt.Sprintf("Type: %s", typeName), "", 1, "L", false, 0, "")
	pdf.CellFormat(150, 6, fmt.Sprintf("Created: %s", audit.CreatedAt.Format("2006-01-02")), "", 1, "L", false, 0, "")
	pdf.CellFormat(150, 6, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	if audit.Description != "" {
		pdf.Ln(2)
		pdf.MultiCell(180, 5, audit.Description, "", "L", false)
	}
	pdf.Ln(6)

	if len(audit.DocumentReviews) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.CellFormat(180, 8, "No documents assigned to this audit.", "", 1, "L", false, 0, "")
	}

	for _, review := range audit.DocumentReviews {
		pdf.SetFont("Arial", "B", 12)
		docName := review.DocumentVersion.Document.Name
		if docName == "" {
			docName = "N/A"
		}
		pdf.SetFillColor(235, 235, 235)
		pdf.CellFormat(180, 8, fmt.Sprintf("%s  (version of %s)", docName, review.DocumentVersion.CreatedAt.Format("2006-01-02")), "1", 1, "L", true, 0, "")

		pdf.SetFont("Arial", "", 9)
		pdf.CellFormat(90, 6, fmt.Sprintf("Auditor: %s", review.Auditor.Name), "LR", 0, "L", false, 0, "")
		pdf.CellFormat(90, 6, fmt.Sprintf("Review status: %s", review.Status), "R", 1, "L", false, 0, "")

		if len(review.Findings) == 0 {
			pdf.SetFont("Arial", "I", 9)
			pdf.CellFormat(180, 6, "No findings recorded.", "LRB", 1, "L", false, 0, "")
			pdf.Ln(3)
			continue
		}

		// Findings table
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(60, 6, "Finding", "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 6, "Type", "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, "Severity", "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, "Status", "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, "Due", "1", 1, "C", false, 0, "")

		pdf.SetFont("Arial", "", 9)
		for _, finding := range review.Findings {
			due := "-"
			if finding.DueDate != nil {
				due = time.Time(*finding.DueDate).Format("2006-01-02")
			}
			pdf.CellFormat(60, 6, truncate(finding.Title, 38), "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, truncate(finding.FindingType.Name, 24), "1", 0, "L", false, 0, "")
			pdf.CellFormat(25, 6, string(finding.Severity), "1", 0, "C", false, 0, "")
			pdf.CellFormat(30, 6, string(finding.Status), "1", 0, "C", false, 0, "")
			pdf.CellFormat(25, 6, due, "1", 1, "C", false, 0, "")
		}
		pdf.Ln(4)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// truncate shortens s to max runes. Cutting on runes keeps accented
// characters in Spanish titles intact.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
