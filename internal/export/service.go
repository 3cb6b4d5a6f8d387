package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/scavenger/internal/common"
	"github.com/joseph-ayodele/scavenger/internal/entity"
	"github.com/joseph-ayodele/scavenger/internal/repository"
)

// Sheet is the worksheet holding one row per extraction record.
const Sheet = "Events"

// Headers are the export columns, in order.
var Headers = []string{
	"Date",
	"Start",
	"End",
	"Title",
	"Host",
	"Campus",
	"Place",
	"Food",
	"Category",
	"Details",
	"Source File",
	"Created At",
}

// Service produces XLSX bytes from stored extraction records.
type Service struct {
	records repository.ExtractionStore
	logger  *slog.Logger
}

func NewService(records repository.ExtractionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{records: records, logger: logger}
}

// ExtractionsXLSX returns a workbook with every record, newest first.
func (s *Service) ExtractionsXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.records.ListRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}

	b, err := Workbook(recs)
	if err != nil {
		s.logger.Error("export.xlsx.failed", "req_id", common.RequestIDFromContext(ctx), "error", err)
		return nil, err
	}

	s.logger.Info("export.xlsx.ok",
		"req_id", common.RequestIDFromContext(ctx),
		"rows", len(recs),
		"bytes", len(b),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return b, nil
}

// Workbook renders recs into the Events sheet. Null fields are empty cells.
func Workbook(recs []entity.ExtractionRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// The default workbook ships with Sheet1; rename it instead of adding a second sheet.
	if err := f.SetSheetName(f.GetSheetName(0), Sheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	for i, h := range Headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(Sheet, cell, h)
	}

	for i, r := range recs {
		row := i + 2
		write := func(col int, v string) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(Sheet, cell, v)
		}
		ev := r.Event
		category := ""
		if ev.FoodCategory != nil {
			category = string(*ev.FoodCategory)
		}

		write(1, deref(ev.Date))
		write(2, deref(ev.StartTime))
		write(3, deref(ev.EndTime))
		write(4, deref(ev.Title))
		write(5, deref(ev.Host))
		write(6, deref(ev.Campus))
		write(7, deref(ev.Place))
		write(8, deref(ev.Food))
		write(9, category)
		write(10, truncate(deref(ev.Details), 500))
		write(11, r.Source.OriginalFilename)
		write(12, r.CreatedAtISO)
	}

	_ = f.SetColWidth(Sheet, "A", "C", 12) // date, times
	_ = f.SetColWidth(Sheet, "D", "E", 28) // title, host
	_ = f.SetColWidth(Sheet, "F", "G", 22) // campus, place
	_ = f.SetColWidth(Sheet, "H", "I", 20) // food, category
	_ = f.SetColWidth(Sheet, "J", "J", 48) // details
	_ = f.SetColWidth(Sheet, "K", "L", 26)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
