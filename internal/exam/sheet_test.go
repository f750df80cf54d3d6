package exam

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sheetHeader = []any{"Date", "Day", "Shift", "Course Code", "Room No", "Roll No List", "Subject Code"}

func buildSheet(t *testing.T, rows ...[]any) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func TestParseSheet(t *testing.T) {
	r := buildSheet(t,
		sheetHeader,
		[]any{"01/15/2025", "Wednesday", "Morning", "CS301", "R101", "21CS1023, 21CS1024", "CS3101"},
		[]any{"25/12/2025", "Thursday", "Evening", "EE201", "R204", "21EE1001", "EE2101"},
		[]any{"2025-03-01", "Saturday", "Morning", "MA101", "R305", "22MA1005", "MA1101"},
	)

	sittings, err := ParseSheet(r)
	require.NoError(t, err)
	require.Len(t, sittings, 3)

	assert.Equal(t, "CS3101", sittings[0].SubjectCode)
	assert.Equal(t, "Wednesday", sittings[0].Day)
	assert.Equal(t, time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC), sittings[0].Date)
	assert.Equal(t, "21CS1023, 21CS1024", sittings[0].RollNoList)

	// 25/12 cannot be a month, so the day-first layout wins.
	assert.Equal(t, time.Date(2025, time.December, 25, 0, 0, 0, 0, time.UTC), sittings[1].Date)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), sittings[2].Date)
}

func TestParseSheetAmbiguousDateIsMonthFirst(t *testing.T) {
	r := buildSheet(t,
		sheetHeader,
		[]any{"02/03/2025", "Monday", "Morning", "CS301", "R101", "21CS1023", "CS3101"},
	)
	sittings, err := ParseSheet(r)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC), sittings[0].Date)
}

func TestParseSheetFallbackCells(t *testing.T) {
	r := buildSheet(t,
		sheetHeader,
		[]any{"01/15/2025", "Wednesday", "", "", "R101", "21CS1023", ""},
	)
	sittings, err := ParseSheet(r)
	require.NoError(t, err)
	require.Len(t, sittings, 1)
	assert.Equal(t, "Unknown", sittings[0].Shift)
	assert.Equal(t, "Unknown", sittings[0].CourseCode)
	assert.Equal(t, "Unknown", sittings[0].SubjectCode)
	assert.Equal(t, "R101", sittings[0].RoomNo)
}

func TestParseSheetInvalidDay(t *testing.T) {
	r := buildSheet(t,
		sheetHeader,
		[]any{"01/15/2025", "Wednesday", "Morning", "CS301", "R101", "21CS1023", "CS3101"},
		[]any{"01/16/2025", "Funday", "Morning", "CS302", "R102", "21CS1024", "CS3102"},
	)
	sittings, err := ParseSheet(r)
	assert.Nil(t, sittings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid day value: "Funday"`)
	assert.Contains(t, err.Error(), "row 3")
}

func TestParseSheetInvalidDate(t *testing.T) {
	r := buildSheet(t,
		sheetHeader,
		[]any{"15/2025", "Monday", "Morning", "CS301", "R101", "21CS1023", "CS3101"},
	)
	_, err := ParseSheet(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid date format: "15/2025"`)
}

func TestParseSheetCollectsAllRowErrors(t *testing.T) {
	r := buildSheet(t,
		sheetHeader,
		[]any{"not-a-date", "Monday", "Morning", "CS301", "R101", "21CS1023", "CS3101"},
		[]any{"01/16/2025", "Someday", "Morning", "CS302", "R102", "21CS1024", "CS3102"},
	)
	_, err := ParseSheet(r)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Contains(t, err.Error(), "row 3")
}

func TestParseSheetEmptyWorkbook(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = ParseSheet(bytes.NewReader(buf.Bytes()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty excel file")
}

func TestParseSheetGarbageInput(t *testing.T) {
	_, err := ParseSheet(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}
