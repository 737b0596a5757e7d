// Package export turns Visualize results into spreadsheets.
package export

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/doc-assistant/internal/interpret"
)

// ErrNothingToExport is returned when a result has neither chart data nor a table.
var ErrNothingToExport = errors.New("result has no chart or table")

// Service produces XLSX bytes for Visualize results.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ResultXLSX writes a chart as Label/Value columns, or a Markdown table row
// for row.
func (s *Service) ResultXLSX(res interpret.Result) ([]byte, error) {
	start := time.Now()

	var rows [][]any
	sheet := "Table"
	if res.IsChart() {
		sheet = "Chart"
		rows = append(rows, []any{"Label", "Value"})
		for i, l := range res.Chart.Labels {
			rows = append(rows, []any{l, res.Chart.Values[i]})
		}
	} else {
		table, ok := ParseMarkdownTable(res.RawText)
		if !ok {
			return nil, ErrNothingToExport
		}
		for _, r := range table {
			row := make([]any, len(r))
			for i, c := range r {
				row[i] = c
			}
			rows = append(rows, row)
		}
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("xlsx close failed", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	for r, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+1, err)
		}
	}
	if res.IsChart() {
		for col, width := range map[string]float64{"A": 28, "B": 14} {
			if err := f.SetColWidth(sheet, col, col, width); err != nil {
				s.logger.Warn("xlsx set col width failed", "sheet", sheet, "col", col, "error", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"sheet", sheet,
		"rows", len(rows),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
