package exam

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/xuri/excelize/v2"

	"collegedesk/internal/metrics"
)

var (
	// ErrInvalid marks a validation failure; the wrapped message is caller-facing.
	ErrInvalid = errors.New("invalid input")
	// ErrNotFound signals no sitting matched a roll number.
	ErrNotFound = errors.New("not found")
)

// shiftUnavailable annotates a sitting whose shift has no timing record.
const shiftUnavailable = "N/A"

// SittingWithShift is a sitting joined with its shift's start/end time.
type SittingWithShift struct {
	Sitting
	ShiftStartTime string `json:"shiftStartTime"`
	ShiftEndTime   string `json:"shiftEndTime"`
}

// Store is the persistence boundary the service needs.
type Store interface {
	ReplaceSittings(ctx context.Context, sittings []Sitting) error
	ListSittings(ctx context.Context) ([]Sitting, error)
	ReplaceShiftTiming(ctx context.Context, st ShiftTiming) (*ShiftTiming, error)
	ListShiftTimings(ctx context.Context) ([]ShiftTiming, error)
}

// Service implements sheet ingestion, roll-number lookup and shift timings.
type Service struct {
	store Store
}

// NewService creates a service backed by a store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Ingest parses an uploaded workbook and, if every row is valid, replaces the
// whole sitting collection with the derived rows. Nothing is written when any
// row fails validation.
func (s *Service) Ingest(ctx context.Context, upload io.Reader) (int, error) {
	sittings, err := ParseSheet(upload)
	if err != nil {
		metrics.SheetsRejected.Inc()
		return 0, fmt.Errorf("%w: %s", ErrInvalid, err.Error())
	}
	if err := s.store.ReplaceSittings(ctx, sittings); err != nil {
		return 0, err
	}
	metrics.SittingsIngested.Add(float64(len(sittings)))
	return len(sittings), nil
}

// LookupByRollNo returns every sitting whose roll list contains rollNo as a
// case-insensitive whole word, each joined with its shift's start/end time.
func (s *Service) LookupByRollNo(ctx context.Context, rollNo string) ([]SittingWithShift, error) {
	if rollNo == "" {
		return nil, fmt.Errorf("%w: roll number is required", ErrInvalid)
	}
	sittings, err := s.store.ListSittings(ctx)
	if err != nil {
		return nil, err
	}
	pattern := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(rollNo) + `\b`)

	var matched []Sitting
	for _, sit := range sittings {
		if pattern.MatchString(sit.RollNoList) {
			matched = append(matched, sit)
		}
	}
	if len(matched) == 0 {
		return nil, ErrNotFound
	}

	timings, err := s.store.ListShiftTimings(ctx)
	if err != nil {
		return nil, err
	}
	byShift := make(map[string]ShiftTiming, len(timings))
	for _, st := range timings {
		byShift[st.Shift] = st
	}

	out := make([]SittingWithShift, 0, len(matched))
	for _, sit := range matched {
		enriched := SittingWithShift{Sitting: sit, ShiftStartTime: shiftUnavailable, ShiftEndTime: shiftUnavailable}
		if st, ok := byShift[sit.Shift]; ok {
			enriched.ShiftStartTime = st.StartTime
			enriched.ShiftEndTime = st.EndTime
		}
		out = append(out, enriched)
	}
	return out, nil
}

// CreateShift replaces the active shift timing. All fields are required; start
// and end are stored as given.
func (s *Service) CreateShift(ctx context.Context, shift, startTime, endTime string) (*ShiftTiming, error) {
	if shift == "" || startTime == "" || endTime == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrInvalid)
	}
	return s.store.ReplaceShiftTiming(ctx, ShiftTiming{Shift: shift, StartTime: startTime, EndTime: endTime})
}

// ExportSittings writes the current sitting collection to an xlsx workbook in
// the same column layout Ingest expects.
func (s *Service) ExportSittings(ctx context.Context) (*bytes.Buffer, error) {
	sittings, err := s.store.ListSittings(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := []any{"Date", "Day", "Shift", "Course Code", "Room No", "Roll No List", "Subject Code"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}
	for i, sit := range sittings {
		row := []any{
			sit.Date.Format("2006-01-02"),
			sit.Day,
			sit.Shift,
			sit.CourseCode,
			sit.RoomNo,
			sit.RollNoList,
			sit.SubjectCode,
		}
		cellRef, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cellRef, &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf, nil
}
