package registry

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collegedesk/internal/crypto"
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	accounts    map[string]*Account // keyed by roll number
	departments []Department
}

func newFakeStore(depts ...Department) *fakeStore {
	return &fakeStore{accounts: map[string]*Account{}, departments: depts}
}

func (f *fakeStore) CreateAccount(_ context.Context, a Account) (*Account, error) {
	for _, existing := range f.accounts {
		if existing.RollNo == a.RollNo || existing.Email == a.Email {
			return nil, ErrConflict
		}
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	f.accounts[a.RollNo] = &a
	return &a, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (*Account, error) {
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetByRollNo(_ context.Context, rollNo string) (*Account, error) {
	return f.accounts[rollNo], nil
}

func (f *fakeStore) ListAccounts(_ context.Context) ([]Account, error) {
	var out []Account
	for _, a := range f.accounts {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeStore) UpdateRole(_ context.Context, id, role string) (*Account, error) {
	for _, a := range f.accounts {
		if a.ID == id {
			a.Role = role
			return a, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateDepartment(_ context.Context, d Department) (*Department, error) {
	f.departments = append(f.departments, d)
	return &d, nil
}

func (f *fakeStore) GetDepartmentByCode(_ context.Context, code string) (*Department, error) {
	for _, d := range f.departments {
		if strings.EqualFold(d.Code, code) {
			return &d, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListDepartments(_ context.Context) ([]Department, error) {
	return f.departments, nil
}

func newTestService(store Store) *Service {
	s := NewService(store, "@iitp.ac.in")
	s.now = func() time.Time { return time.Date(2025, time.August, 15, 10, 0, 0, 0, time.UTC) }
	return s
}

func TestAcademicYear(t *testing.T) {
	testCases := []struct {
		name   string
		rollNo string
		now    time.Time
		want   int
	}{
		{"fragment 22 before july", "22CS1001", time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), 3},
		{"fragment 22 after july", "22CS1001", time.Date(2025, time.August, 10, 0, 0, 0, 0, time.UTC), 4},
		{"fragment 21 after july", "21CS1023", time.Date(2025, time.August, 10, 0, 0, 0, 0, time.UTC), 5},
		{"fresher in admission autumn", "25CS1001", time.Date(2025, time.August, 10, 0, 0, 0, 0, time.UTC), 1},
		{"exactly july counts the new year", "24CS1001", time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC), 2},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := AcademicYear(tc.rollNo, tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAcademicYearRejectsMalformedRollNo(t *testing.T) {
	for _, rollNo := range []string{"", "21CS", "XXCS1023"} {
		_, err := AcademicYear(rollNo, time.Now())
		assert.ErrorIs(t, err, ErrInvalid, "rollNo %q", rollNo)
	}
}

func TestRegister(t *testing.T) {
	store := newFakeStore(Department{ID: "d1", Code: "CS", Name: "Computer Science"})
	svc := newTestService(store)

	account, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Asha",
		Email:    "asha_2101cs23@iitp.ac.in",
		Password: "long-enough-password",
		RollNo:   "21CS1023",
	})
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", account.Department)
	assert.Equal(t, 5, account.Year) // admitted 2021, looked up August 2025
	assert.Equal(t, RoleUser, account.Role)
	assert.NotEqual(t, "long-enough-password", account.PasswordHash)
	assert.NoError(t, crypto.CheckPassword(account.PasswordHash, "long-enough-password"))
}

func TestRegisterValidation(t *testing.T) {
	store := newFakeStore(Department{ID: "d1", Code: "CS", Name: "Computer Science"})
	svc := newTestService(store)

	testCases := []struct {
		name string
		in   RegisterInput
	}{
		{"missing name", RegisterInput{Email: "a@iitp.ac.in", Password: "password1", RollNo: "21CS1023"}},
		{"malformed email", RegisterInput{Name: "A", Email: "not-an-email", Password: "password1", RollNo: "21CS1023"}},
		{"outside domain", RegisterInput{Name: "A", Email: "a@gmail.com", Password: "password1", RollNo: "21CS1023"}},
		{"weak password", RegisterInput{Name: "A", Email: "a@iitp.ac.in", Password: "short", RollNo: "21CS1023"}},
		{"unknown department", RegisterInput{Name: "A", Email: "a@iitp.ac.in", Password: "password1", RollNo: "21EE1023"}},
		{"short roll number", RegisterInput{Name: "A", Email: "a@iitp.ac.in", Password: "password1", RollNo: "21C"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Empty(t, store.accounts, "no account may be written on validation failure")
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	store := newFakeStore(Department{ID: "d1", Code: "CS", Name: "Computer Science"})
	svc := newTestService(store)

	in := RegisterInput{Name: "Asha", Email: "asha@iitp.ac.in", Password: "password1", RollNo: "21CS1023"}
	_, err := svc.Register(context.Background(), in)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), in)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestRegisterDepartmentCodeIsCaseInsensitive(t *testing.T) {
	store := newFakeStore(Department{ID: "d1", Code: "cs", Name: "Computer Science"})
	svc := newTestService(store)

	account, err := svc.Register(context.Background(), RegisterInput{
		Name: "Asha", Email: "asha@iitp.ac.in", Password: "password1", RollNo: "21CS1023",
	})
	require.NoError(t, err)
	assert.Equal(t, "Computer Science", account.Department)
}

func TestLogin(t *testing.T) {
	store := newFakeStore(Department{ID: "d1", Code: "CS", Name: "Computer Science"})
	svc := newTestService(store)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name: "Asha", Email: "asha@iitp.ac.in", Password: "password1", RollNo: "21CS1023",
	})
	require.NoError(t, err)

	account, err := svc.Login(context.Background(), "asha@iitp.ac.in", "password1")
	require.NoError(t, err)
	assert.Equal(t, "21CS1023", account.RollNo)

	_, err = svc.Login(context.Background(), "asha@iitp.ac.in", "password2")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.Login(context.Background(), "nobody@iitp.ac.in", "password1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateRole(t *testing.T) {
	store := newFakeStore(Department{ID: "d1", Code: "CS", Name: "Computer Science"})
	svc := newTestService(store)

	account, err := svc.Register(context.Background(), RegisterInput{
		Name: "Asha", Email: "asha@iitp.ac.in", Password: "password1", RollNo: "21CS1023",
	})
	require.NoError(t, err)

	updated, err := svc.UpdateRole(context.Background(), account.ID, RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, updated.Role)

	_, err = svc.UpdateRole(context.Background(), account.ID, "superuser")
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = svc.UpdateRole(context.Background(), "missing-id", RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)
}
