package http

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	messageapp "bustrack/internal/messages/application"
	messages "bustrack/internal/messages/domain"
	"bustrack/internal/observability/metrics"
)

// Campus local time. Pakistan does not observe daylight saving.
var displayZone = time.FixedZone("PKT", 5*60*60)

const displayLayout = "2006-01-02 15:04:05"

// BuildMessagesXLSX renders the inbox as a spreadsheet.
func BuildMessagesXLSX(list []messages.Message) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "messages"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for col, title := range []string{"Received", "Full Name", "Email", "Message", "ID"} {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, title)
	}
	for i, msg := range list {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), msg.CreatedAt.In(displayZone).Format(displayLayout))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), msg.FullName)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), msg.Email)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), msg.Message)
		_ = f.SetCellValue(sheet, fmt.Sprintf("E%d", row), msg.ID)
	}
	_ = f.SetColWidth(sheet, "A", "C", 24)
	_ = f.SetColWidth(sheet, "D", "D", 60)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildMessagesPDF renders the inbox as a printable report.
func BuildMessagesPDF(list []messages.Message, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Contact Messages")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", generated.In(displayZone).Format(displayLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total: %d", len(list)))
	pdf.Ln(8)

	for _, msg := range list {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s <%s>", msg.FullName, msg.Email), "T", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 5, msg.CreatedAt.In(displayZone).Format(displayLayout), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.MultiCell(0, 5, msg.Message, "", "L", false)
		pdf.Ln(3)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportHandler serves GET /api/admin/messages/export.xlsx and export.pdf.
type ExportHandler struct {
	service *messageapp.Service
	logger  *log.Logger
}

// NewExportHandler constructs an export handler.
func NewExportHandler(service *messageapp.Service, logger *log.Logger) (*ExportHandler, error) {
	if service == nil {
		return nil, errors.New("messages export: nil service")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &ExportHandler{service: service, logger: logger}, nil
}

// ServeHTTP renders the requested format.
func (h *ExportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var format, contentType string
	switch r.URL.Path {
	case "/api/admin/messages/export.xlsx":
		format, contentType = "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case "/api/admin/messages/export.pdf":
		format, contentType = "pdf", "application/pdf"
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	start := time.Now()
	list, err := h.service.List(r.Context())
	var payload []byte
	if err == nil {
		if format == "xlsx" {
			payload, err = BuildMessagesXLSX(list)
		} else {
			payload, err = BuildMessagesPDF(list, start)
		}
	}
	if err != nil {
		metrics.ObserveMessageExport(format, metrics.ResultError, time.Since(start))
		h.logger.Printf("messages export: %s error: %v", format, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	metrics.ObserveMessageExport(format, metrics.ResultSuccess, time.Since(start))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=contact-messages-%s.%s", start.In(displayZone).Format("20060102"), format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
