package registry

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"collegedesk/internal/crypto"
)

// Roles assignable to an account.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	// ErrInvalid marks a validation failure; the wrapped message is caller-facing.
	ErrInvalid = errors.New("invalid input")
	// ErrNotFound signals a missing account.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a duplicate roll number or email.
	ErrConflict = errors.New("already exists")
	// ErrBadCredentials signals a password mismatch on login.
	ErrBadCredentials = errors.New("invalid credentials")
)

// Store is the persistence boundary the service needs.
type Store interface {
	CreateAccount(ctx context.Context, a Account) (*Account, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByRollNo(ctx context.Context, rollNo string) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
	UpdateRole(ctx context.Context, id, role string) (*Account, error)
	CreateDepartment(ctx context.Context, d Department) (*Department, error)
	GetDepartmentByCode(ctx context.Context, code string) (*Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)
}

// Service implements registration, login and account administration.
type Service struct {
	store       Store
	emailDomain string
	now         func() time.Time
}

// NewService creates a service. emailDomain is the required institutional suffix.
func NewService(store Store, emailDomain string) *Service {
	return &Service{store: store, emailDomain: emailDomain, now: time.Now}
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	RollNo   string
}

// AcademicYear derives a student's year of study from the roll number's
// two-digit admission year. The academic year rolls over in July, so before
// July the student is still counted in the previous year; +1 makes freshers
// read as year 1.
func AcademicYear(rollNo string, now time.Time) (int, error) {
	if len(rollNo) < 6 {
		return 0, fmt.Errorf("%w: roll number too short", ErrInvalid)
	}
	frag, err := strconv.Atoi(rollNo[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: roll number must start with the admission year", ErrInvalid)
	}
	admissionYear := 2000 + frag
	year := now.Year() - admissionYear
	if int(now.Month()) < 7 {
		year--
	}
	year++
	if year < 1 {
		return 0, fmt.Errorf("%w: roll number admission year is in the future", ErrInvalid)
	}
	return year, nil
}

// DepartmentCode extracts the department fragment from a roll number.
func DepartmentCode(rollNo string) (string, error) {
	if len(rollNo) < 6 {
		return "", fmt.Errorf("%w: roll number too short", ErrInvalid)
	}
	return rollNo[4:6], nil
}

// Register validates the input, derives department and academic year, hashes
// the password and stores the account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if in.Name == "" || in.Email == "" || in.Password == "" || in.RollNo == "" {
		return nil, fmt.Errorf("%w: missing details", ErrInvalid)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil || !strings.HasSuffix(in.Email, s.emailDomain) {
		return nil, fmt.Errorf("%w: please enter a valid institute email (%s)", ErrInvalid, s.emailDomain)
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("%w: please enter a strong password", ErrInvalid)
	}

	year, err := AcademicYear(in.RollNo, s.now())
	if err != nil {
		return nil, err
	}
	code, err := DepartmentCode(in.RollNo)
	if err != nil {
		return nil, err
	}
	dept, err := s.store.GetDepartmentByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if dept == nil {
		return nil, fmt.Errorf("%w: unknown department code %q", ErrInvalid, code)
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	return s.store.CreateAccount(ctx, Account{
		RollNo:       in.RollNo,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Department:   dept.Name,
		Year:         year,
		Role:         RoleUser,
	})
}

// Login checks credentials and returns the account on success.
func (s *Service) Login(ctx context.Context, email, password string) (*Account, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: missing details", ErrInvalid)
	}
	account, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	if err := crypto.CheckPassword(account.PasswordHash, password); err != nil {
		return nil, ErrBadCredentials
	}
	return account, nil
}

// Profile returns the account for a roll number.
func (s *Service) Profile(ctx context.Context, rollNo string) (*Account, error) {
	account, err := s.store.GetByRollNo(ctx, rollNo)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// ListAccounts returns all accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]Account, error) {
	return s.store.ListAccounts(ctx)
}

// UpdateRole changes an account's role to user or admin.
func (s *Service) UpdateRole(ctx context.Context, id, role string) (*Account, error) {
	if role != RoleUser && role != RoleAdmin {
		return nil, fmt.Errorf("%w: role must be %q or %q", ErrInvalid, RoleUser, RoleAdmin)
	}
	account, err := s.store.UpdateRole(ctx, id, role)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrNotFound
	}
	return account, nil
}

// AddDepartment stores a new department code/name pair.
func (s *Service) AddDepartment(ctx context.Context, code, name string) (*Department, error) {
	if code == "" || name == "" {
		return nil, fmt.Errorf("%w: department code and name are required", ErrInvalid)
	}
	return s.store.CreateDepartment(ctx, Department{Code: code, Name: name})
}

// ListDepartments returns the reference data set.
func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.store.ListDepartments(ctx)
}
