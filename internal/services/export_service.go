package services

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
)

type exportService struct {
	logger *slog.Logger
}

func newExportService(deps Dependencies) *exportService {
	return &exportService{logger: deps.Logger}
}

var pendingDocumentHeader = []interface{}{
	"Submitted At", "School", "Student", "Email", "Document Type", "Revision", "File Name", "Document ID", "Enrollment ID",
}

// PendingDocumentsWorkbook renders the review queue as a single-sheet xlsx.
func (e *exportService) PendingDocumentsWorkbook(rows []PendingDocument) ([]byte, error) {
	table := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		doc := row.Document
		table = append(table, []interface{}{
			doc.CreatedAt.Format(time.RFC3339),
			row.SchoolName,
			row.StudentName,
			row.StudentEmail,
			string(doc.DocumentType),
			doc.Revision,
			doc.FileName,
			doc.ID,
			row.EnrollmentID,
		})
	}
	return writeWorkbook("Pending Documents", pendingDocumentHeader, table)
}

var findingHeader = []interface{}{
	"Kind", "Enrollment ID", "User ID", "Status", "Missing Documents", "Detail", "Corrected",
}

// ReconcileWorkbook renders audit findings for operators.
func (e *exportService) ReconcileWorkbook(report *ReconcileReport) ([]byte, error) {
	table := make([][]interface{}, 0, len(report.Findings))
	for _, f := range report.Findings {
		table = append(table, []interface{}{
			string(f.Kind),
			f.EnrollmentID,
			f.UserID,
			f.Status,
			joinDocumentTypes(f.Missing),
			f.Detail,
			f.Corrected,
		})
	}
	return writeWorkbook("Findings", findingHeader, table)
}

func writeWorkbook(sheet string, header []interface{}, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		last, _ := excelize.CoordinatesToCellName(len(header), 1)
		_ = f.SetCellStyle(sheet, "A1", last, style)
	}
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}
