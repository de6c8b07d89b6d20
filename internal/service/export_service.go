package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/signup-sheets-api/internal/models"
	appErrors "github.com/noah-isme/signup-sheets-api/pkg/errors"
	"github.com/noah-isme/signup-sheets-api/pkg/export"
)

type rosterRepository interface {
	ListBySheet(ctx context.Context, sheetID int64) ([]models.SignupDetail, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFormat selects the roster output encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportResult carries the rendered roster bytes.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders a sheet's signup roster for download.
type ExportService struct {
	signups rosterRepository
	sheets  sheetReader
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(signups rosterRepository, sheets sheetReader, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{signups: signups, sheets: sheets, csv: csv, pdf: pdf, logger: logger}
}

// Roster renders the sheet's full signup list in the requested format.
func (s *ExportService) Roster(ctx context.Context, sheetID int64, format ExportFormat) (*ExportResult, error) {
	sheet, err := s.sheets.GetByID(ctx, sheetID)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "sheet not found")
	}
	signups, err := s.signups.ListBySheet(ctx, sheetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	dataset := rosterDataset(signups)
	slug := slugify(sheet.Title)

	switch format {
	case ExportFormatCSV:
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{Filename: slug + ".csv", ContentType: "text/csv", Payload: payload}, nil
	case ExportFormatPDF:
		payload, err := s.pdf.Render(dataset, sheet.Title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{Filename: slug + ".pdf", ContentType: "application/pdf", Payload: payload}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

func rosterDataset(signups []models.SignupDetail) export.Dataset {
	headers := []string{"Date", "Task", "First Name", "Last Name", "Email", "Phone", "Item", "Qty", "Validated"}
	rows := make([]map[string]string, 0, len(signups))
	for _, s := range signups {
		date := s.Date
		if date == models.DateSentinel {
			date = ""
		}
		validated := "no"
		if s.Validated {
			validated = "yes"
		}
		rows = append(rows, map[string]string{
			"Date":       date,
			"Task":       s.TaskTitle,
			"First Name": s.FirstName,
			"Last Name":  s.LastName,
			"Email":      s.Email,
			"Phone":      s.Phone,
			"Item":       s.Item,
			"Qty":        fmt.Sprintf("%d", s.ItemQty),
			"Validated":  validated,
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	var b strings.Builder
	for _, r := range slug {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "roster"
	}
	return out
}
