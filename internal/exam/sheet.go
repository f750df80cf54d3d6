package exam

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Accepted date layouts, tried in order; the first match wins.
var dateLayouts = []string{"01/02/2006", "02/01/2006", "2006-01-02"}

var validDays = map[string]bool{
	"Monday": true, "Tuesday": true, "Wednesday": true, "Thursday": true,
	"Friday": true, "Saturday": true, "Sunday": true,
}

// Sheet column positions. The first worksheet is read and the header row skipped.
const (
	colDate = iota
	colDay
	colShift
	colCourseCode
	colRoomNo
	colRollNoList
	colSubjectCode
)

// fallbackCell substitutes empty subject/shift/course cells.
const fallbackCell = "Unknown"

// ParseSheet reads an uploaded workbook and converts every data row into a
// Sitting. All rows are validated before anything is returned; errors from
// every bad row are collected so the caller sees them in one response.
func ParseSheet(r io.Reader) ([]Sitting, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty excel file")
	}

	var (
		sittings []Sitting
		rowErrs  []string
	)
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, after the header

		day := strings.TrimSpace(cell(row, colDay))
		if !validDays[day] {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: invalid day value: %q", rowNum, day))
		}

		rawDate := strings.TrimSpace(cell(row, colDate))
		date, dateOK := parseDate(rawDate)
		if !dateOK {
			rowErrs = append(rowErrs, fmt.Sprintf("row %d: invalid date format: %q", rowNum, rawDate))
		}

		if len(rowErrs) > 0 {
			continue
		}
		sittings = append(sittings, Sitting{
			SubjectCode: cellOr(row, colSubjectCode, fallbackCell),
			Date:        date,
			Day:         day,
			Shift:       cellOr(row, colShift, fallbackCell),
			CourseCode:  cellOr(row, colCourseCode, fallbackCell),
			RoomNo:      cell(row, colRoomNo),
			RollNoList:  cell(row, colRollNoList),
		})
	}
	if len(rowErrs) > 0 {
		return nil, errors.New(strings.Join(rowErrs, "; "))
	}
	return sittings, nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func cellOr(row []string, i int, fallback string) string {
	if v := cell(row, i); v != "" {
		return v
	}
	return fallback
}
