package export

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"callops-api/internal/aggregate"
	"callops-api/internal/models"
)

const sheetName = "Call Logs"

var headers = []string{
	"Call ID", "Company", "Customer", "Phone", "Agent", "Date",
	"Duration", "Status", "Issue Type", "Department", "Channel",
	"VIN", "Summary",
}

// Exporter renders a filtered call collection as a spreadsheet download.
type Exporter struct {
	logger *logrus.Logger
}

func NewExporter(logger *logrus.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// WriteCalls builds an XLSX workbook with one row per record, in the order
// the filter produced them.
func (e *Exporter) WriteCalls(records []models.CallRecord) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}

	for row, record := range records {
		date := ""
		if record.HasDate() {
			date = record.DateOccurred.Format("2006-01-02")
		}
		values := []any{
			record.ID,
			record.CompanyName,
			record.CustomerName,
			record.PhoneNumber,
			record.AgentName,
			date,
			aggregate.FormatDuration(record.DurationMs),
			string(record.Status),
			string(record.IssueType),
			string(record.Department),
			string(record.Channel),
			record.VIN,
			record.Summary,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, fmt.Errorf("data cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row+1, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}

	e.logger.WithField("records", len(records)).Info("Exported call logs workbook")
	return buf, nil
}
