// Package export renders audit lists as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the audit rows.
const SheetName = "Audits"

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Row is one audit line in the workbook.
type Row struct {
	ID               string
	BusinessName     string
	Domain           string
	Location         string
	LeadScore        int
	PresenceScore    int
	SEOScore         int
	AdsScore         int
	EngagementScore  int
	OpportunityScore int
	Recommendations  []string
	FailedSources    []string
	CreatedAt        time.Time
}

var headers = []string{
	"ID",
	"Business",
	"Domain",
	"Location",
	"Lead Score",
	"Presence",
	"SEO",
	"Ads Activity",
	"Engagement",
	"Opportunity",
	"Top Recommendation",
	"Missing Sources",
	"Created At",
}

func (r Row) values() []interface{} {
	top := ""
	if len(r.Recommendations) > 0 {
		top = r.Recommendations[0]
	}
	return []interface{}{
		r.ID,
		r.BusinessName,
		r.Domain,
		r.Location,
		r.LeadScore,
		r.PresenceScore,
		r.SEOScore,
		r.AdsScore,
		r.EngagementScore,
		r.OpportunityScore,
		top,
		strings.Join(r.FailedSources, ", "),
		r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// WriteXLSX writes rows as a single-sheet workbook to w.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastCol, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastCol, headerStyle); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := row.values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(SheetName, "B", "D", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(SheetName, "K", "K", 60); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
