package timetable

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Entry statuses. Regular entries start Scheduled and may flip to Cancelled
// and back; Extra Class entries are admin-added and are the only deletable kind.
const (
	StatusScheduled = "Scheduled"
	StatusCancelled = "Cancelled"
	StatusExtra     = "Extra Class"
)

// Entry is one class slot in a department/year timetable.
type Entry struct {
	ID          string `json:"id"`
	Department  string `json:"department"`
	Year        int    `json:"year"`
	SubjectCode string `json:"subjectCode"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	Day         string `json:"day"`
	Room        string `json:"room"`
	Status      string `json:"status"`
}

// Repository persists timetable entries in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const entryCols = `id, department, year, subject_code, start_time, end_time, day, room, status`

// InsertBulk writes a batch of entries in one transaction.
func (r *Repository) InsertBulk(ctx context.Context, entries []Entry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO timetable_entries (`+entryCols+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, e.ID, e.Department, e.Year, e.SubjectCode, e.StartTime, e.EndTime, e.Day, e.Room, e.Status); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Insert writes a single entry.
func (r *Repository) Insert(ctx context.Context, e Entry) (*Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO timetable_entries (`+entryCols+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, e.ID, e.Department, e.Year, e.SubjectCode, e.StartTime, e.EndTime, e.Day, e.Room, e.Status)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns every entry for a department and year.
func (r *Repository) List(ctx context.Context, department string, year int) ([]Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+entryCols+` FROM timetable_entries
		WHERE department = $1 AND year = $2
	`, department, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Department, &e.Year, &e.SubjectCode, &e.StartTime, &e.EndTime, &e.Day, &e.Room, &e.Status); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// UpdateStatus overwrites an entry's status in place, returning the updated
// row or nil when the id is unknown.
func (r *Repository) UpdateStatus(ctx context.Context, id, status string) (*Entry, error) {
	var e Entry
	err := r.db.QueryRowContext(ctx, `
		UPDATE timetable_entries SET status = $2 WHERE id = $1
		RETURNING `+entryCols, id, status).
		Scan(&e.ID, &e.Department, &e.Year, &e.SubjectCode, &e.StartTime, &e.EndTime, &e.Day, &e.Room, &e.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Delete removes an entry by id, reporting whether a row existed.
func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM timetable_entries WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// Get returns an entry by id, nil when absent.
func (r *Repository) Get(ctx context.Context, id string) (*Entry, error) {
	var e Entry
	err := r.db.QueryRowContext(ctx, `
		SELECT `+entryCols+` FROM timetable_entries WHERE id = $1
	`, id).Scan(&e.ID, &e.Department, &e.Year, &e.SubjectCode, &e.StartTime, &e.EndTime, &e.Day, &e.Room, &e.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
