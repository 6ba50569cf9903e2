package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/docs-analyzer/internal/pipeline"
)

const (
	sheetName = "Analysis"
	// excelize rejects cell text longer than 32767 characters.
	maxCellChars = 32000
)

// Service renders analysis results as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ResultXLSX returns a one-sheet workbook for a single document: the three
// stage outputs first, then the parsed metadata fields when there are any.
func (s *Service) ResultXLSX(ctx context.Context, document string, res pipeline.Result) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_error", "error", err)
		}
	}()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}

	row := 1
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		if str, ok := v.(string); ok {
			v = truncate(str, maxCellChars)
		}
		_ = f.SetCellValue(sheetName, cell, v)
	}

	summary := [][2]string{
		{"Document", document},
		{"Language", res.Language},
		{"Model", res.Model},
		{"Classification", res.Classification},
		{"Metadata", res.Metadata},
		{"Tests", res.Tests},
	}
	if res.Normalized != "" {
		summary = append(summary, [2]string{"Normalized Metadata", res.Normalized})
	}
	for _, kv := range summary {
		write(1, kv[0])
		write(2, kv[1])
		row++
	}

	if len(res.Fields) > 0 {
		row++
		write(1, "Field")
		write(2, "Value")
		row++
		for _, fld := range res.Fields {
			write(1, fld.Key)
			write(2, fld.Value)
			row++
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 22)
	_ = f.SetColWidth(sheetName, "B", "B", 80)
	if style, err := f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"}}); err == nil {
		_ = f.SetColStyle(sheetName, "B", style)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"document", document,
		"classification", res.Classification,
		"fields", len(res.Fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// truncate limits s to n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
