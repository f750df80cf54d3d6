package exam

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Sitting is one exam-seating row from the uploaded sheet.
type Sitting struct {
	ID          string    `json:"id"`
	SubjectCode string    `json:"subjectCode"`
	Date        time.Time `json:"date"`
	Day         string    `json:"day"`
	Shift       string    `json:"shift"`
	CourseCode  string    `json:"courseCode"`
	RoomNo      string    `json:"roomNo"`
	RollNoList  string    `json:"rollNoList"`
}

// ShiftTiming is the named exam time window. The set is a singleton: creating
// a new timing discards all prior ones.
type ShiftTiming struct {
	ID        string `json:"id"`
	Shift     string `json:"shift"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// Repository persists sittings and shift timings in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ReplaceSittings swaps the whole sitting collection for the given rows inside
// one transaction, so readers never observe the half-replaced state. Row order
// is preserved through the position column.
func (r *Repository) ReplaceSittings(ctx context.Context, sittings []Sitting) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sittings`); err != nil {
		return err
	}
	for i, s := range sittings {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sittings (id, subject_code, exam_date, day, shift, course_code, room_no, roll_no_list, position)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, s.ID, s.SubjectCode, s.Date, s.Day, s.Shift, s.CourseCode, s.RoomNo, s.RollNoList, i); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListSittings returns the current sitting collection in sheet order.
func (r *Repository) ListSittings(ctx context.Context) ([]Sitting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, subject_code, exam_date, day, shift, course_code, room_no, roll_no_list
		FROM sittings ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Sitting
	for rows.Next() {
		var s Sitting
		if err := rows.Scan(&s.ID, &s.SubjectCode, &s.Date, &s.Day, &s.Shift, &s.CourseCode, &s.RoomNo, &s.RollNoList); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// ReplaceShiftTiming replaces the singleton shift-timing set transactionally.
func (r *Repository) ReplaceShiftTiming(ctx context.Context, st ShiftTiming) (*ShiftTiming, error) {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM shift_timings`); err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO shift_timings (id, shift, start_time, end_time) VALUES ($1,$2,$3,$4)
	`, st.ID, st.Shift, st.StartTime, st.EndTime); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &st, nil
}

// ListShiftTimings returns the active shift-timing set.
func (r *Repository) ListShiftTimings(ctx context.Context) ([]ShiftTiming, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, shift, start_time, end_time FROM shift_timings`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []ShiftTiming
	for rows.Next() {
		var st ShiftTiming
		if err := rows.Scan(&st.ID, &st.Shift, &st.StartTime, &st.EndTime); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}
