package roundexport

import (
	"fmt"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	"github.com/xuri/excelize/v2"
)

// ScorecardSheet is the sheet name of exported scorecards.
const ScorecardSheet = "Scorecard"

var scorecardHeader = []any{"Hole", "Course hole", "Par", "Index", "Strokes", "+/-"}

// ScorecardXLSX renders a scorecard as a workbook with one sheet.
func ScorecardXLSX(card rounddomain.Scorecard) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), ScorecardSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	meta := [][]any{
		{"Course", card.CourseName},
		{"Selection", card.Selection},
		{"Tee", card.TeeColor},
		{"Status", card.Status},
	}
	row := 1
	for _, m := range meta {
		if err := setRow(f, row, m); err != nil {
			return nil, err
		}
		row++
	}
	row++

	headerRow := row
	if err := setRow(f, row, scorecardHeader); err != nil {
		return nil, err
	}
	row++

	for _, h := range card.Rows {
		values := []any{h.LocalHole, h.CourseHole, optional(h.Par), optional(h.StrokeIndex), h.Strokes, ""}
		if h.Diff != nil {
			values[5] = *h.Diff
		}
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		row++
	}

	if card.Out != nil {
		if err := setRow(f, row, []any{"Out", "", card.Out.Par, "", card.Out.Strokes, ""}); err != nil {
			return nil, err
		}
		row++
	}
	if card.In != nil {
		if err := setRow(f, row, []any{"In", "", card.In.Par, "", card.In.Strokes, ""}); err != nil {
			return nil, err
		}
		row++
	}
	s := card.Summary
	if err := setRow(f, row, []any{"Total", "", s.ParForPlayed, "", s.TotalStrokes, s.VsPar}); err != nil {
		return nil, err
	}
	totalRow := row

	for _, r := range []int{headerRow, totalRow} {
		start, _ := excelize.CoordinatesToCellName(1, r)
		end, _ := excelize.CoordinatesToCellName(len(scorecardHeader), r)
		if err := f.SetCellStyle(ScorecardSheet, start, end, bold); err != nil {
			return nil, fmt.Errorf("failed to style row %d: %w", r, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, row int, values []any) error {
	axis, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(ScorecardSheet, axis, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// optional leaves unknown course data blank instead of writing zero.
func optional(v int) any {
	if v == 0 {
		return ""
	}
	return v
}
