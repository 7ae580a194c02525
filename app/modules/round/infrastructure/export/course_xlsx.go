package roundexport

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	rounddomain "github.com/Black-And-White-Club/caddie/app/modules/round/domain"
	"github.com/xuri/excelize/v2"
)

var (
	ErrNoParColumn = errors.New("no par column found")
	ErrEmptySheet  = errors.New("sheet has no holes")
)

// ParseCourseXLSX reads course reference data from the first sheet of a
// workbook. The sheet needs a header row with a "Par" column; a "Hole"
// column and an "Index", "SI" or "HCP" column are optional. Rows are read
// until the first one without a par or hole number.
func ParseCourseXLSX(data []byte, name string) (rounddomain.Course, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return rounddomain.Course{}, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return rounddomain.Course{}, fmt.Errorf("XLSX file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return rounddomain.Course{}, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	headerIdx, holeCol, parCol, indexCol := findCourseHeader(rows)
	if headerIdx < 0 {
		return rounddomain.Course{}, ErrNoParColumn
	}

	course := rounddomain.Course{Name: strings.TrimSpace(name)}
	for i := headerIdx + 1; i < len(rows); i++ {
		if holeCol >= 0 {
			if _, ok := intCell(rows[i], holeCol); !ok {
				break
			}
		}
		par, ok := intCell(rows[i], parCol)
		if !ok {
			break
		}
		course.Pars = append(course.Pars, par)
		if indexCol >= 0 {
			if si, ok := intCell(rows[i], indexCol); ok {
				course.StrokeIndexes = append(course.StrokeIndexes, si)
			}
		}
	}
	if len(course.Pars) == 0 {
		return rounddomain.Course{}, ErrEmptySheet
	}
	if len(course.StrokeIndexes) != len(course.Pars) {
		course.StrokeIndexes = nil
	}
	course.HoleCount = len(course.Pars)
	return course, nil
}

func findCourseHeader(rows [][]string) (headerIdx, holeCol, parCol, indexCol int) {
	for i, row := range rows {
		holeCol, parCol, indexCol = -1, -1, -1
		for j, cell := range row {
			switch strings.ToLower(strings.TrimSpace(cell)) {
			case "hole":
				holeCol = j
			case "par":
				parCol = j
			case "index", "si", "hcp", "stroke index":
				indexCol = j
			}
		}
		if parCol >= 0 {
			return i, holeCol, parCol, indexCol
		}
	}
	return -1, -1, -1, -1
}

func intCell(row []string, col int) (int, bool) {
	if col >= len(row) {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(row[col]))
	if err != nil {
		return 0, false
	}
	return v, true
}
