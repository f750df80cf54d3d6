package registry

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// Account is a registered student or admin.
type Account struct {
	ID           string    `json:"id"`
	RollNo       string    `json:"rollNo"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Department   string    `json:"department"`
	Year         int       `json:"currentYear"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Department maps a roll-number code to a display name.
type Department struct {
	ID   string `json:"id"`
	Code string `json:"departmentCode"`
	Name string `json:"departmentName"`
}

// Repository persists accounts and departments in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const accountCols = `id, roll_no, name, email, password_hash, department, year, role, created_at`

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.RollNo, &a.Name, &a.Email, &a.PasswordHash, &a.Department, &a.Year, &a.Role, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount inserts a new account. Duplicate roll number or email maps to ErrConflict.
func (r *Repository) CreateAccount(ctx context.Context, a Account) (*Account, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.Role == "" {
		a.Role = RoleUser
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, roll_no, name, email, password_hash, department, year, role)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at
	`, a.ID, a.RollNo, a.Name, a.Email, a.PasswordHash, a.Department, a.Year, a.Role)
	if err := row.Scan(&a.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &a, nil
}

// GetByEmail returns the account for an email, or nil when absent.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// GetByRollNo returns the account for a roll number, or nil when absent.
func (r *Repository) GetByRollNo(ctx context.Context, rollNo string) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx,
		`SELECT `+accountCols+` FROM accounts WHERE roll_no = $1`, rollNo))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// ListAccounts returns every account ordered by roll number.
func (r *Repository) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountCols+` FROM accounts ORDER BY roll_no`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// UpdateRole overwrites an account's role by id.
func (r *Repository) UpdateRole(ctx context.Context, id, role string) (*Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, `
		UPDATE accounts SET role = $2 WHERE id = $1
		RETURNING `+accountCols, id, role))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

// CreateDepartment inserts a department code/name pair.
func (r *Repository) CreateDepartment(ctx context.Context, d Department) (*Department, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO departments (id, code, name) VALUES ($1,$2,$3)
	`, d.ID, d.Code, d.Name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrConflict
		}
		return nil, err
	}
	return &d, nil
}

// GetDepartmentByCode matches a department code case-insensitively, nil when absent.
func (r *Repository) GetDepartmentByCode(ctx context.Context, code string) (*Department, error) {
	var d Department
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, name FROM departments WHERE LOWER(code) = LOWER($1)
	`, code).Scan(&d.ID, &d.Code, &d.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDepartments returns all departments ordered by code.
func (r *Repository) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, code, name FROM departments ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Department
	for rows.Next() {
		var d Department
		if err := rows.Scan(&d.ID, &d.Code, &d.Name); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
