package timetable

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalid marks a validation failure; the wrapped message is caller-facing.
	ErrInvalid = errors.New("invalid input")
	// ErrNotFound signals an unknown entry id.
	ErrNotFound = errors.New("not found")
)

// Store is the persistence boundary the service needs.
type Store interface {
	InsertBulk(ctx context.Context, entries []Entry) error
	Insert(ctx context.Context, e Entry) (*Entry, error)
	List(ctx context.Context, department string, year int) ([]Entry, error)
	Get(ctx context.Context, id string) (*Entry, error)
	UpdateStatus(ctx context.Context, id, status string) (*Entry, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Cache is a best-effort read cache for timetable queries. A nil Cache
// disables caching.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest any) bool
	SetJSON(ctx context.Context, key string, val any, ttl time.Duration)
	Delete(ctx context.Context, key string)
}

// ScheduleItem is one slot in a bulk timetable upload.
type ScheduleItem struct {
	Subject   string `json:"subject"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Day       string `json:"day"`
	Room      string `json:"room"`
}

// Service implements timetable creation, retrieval and the admin mutations.
type Service struct {
	store    Store
	cache    Cache
	cacheTTL time.Duration
}

// NewService creates a service. cache may be nil.
func NewService(store Store, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{store: store, cache: cache, cacheTTL: cacheTTL}
}

func cacheKey(department string, year int) string {
	return fmt.Sprintf("timetable:%s:%d", department, year)
}

// CreateBulk maps schedule items to Scheduled entries and inserts them as one
// transactional batch. Overlaps are not rejected.
func (s *Service) CreateBulk(ctx context.Context, department string, year int, schedule []ScheduleItem) ([]Entry, error) {
	if department == "" || year == 0 || len(schedule) == 0 {
		return nil, fmt.Errorf("%w: invalid data provided", ErrInvalid)
	}
	entries := make([]Entry, 0, len(schedule))
	for _, item := range schedule {
		entries = append(entries, Entry{
			ID:          uuid.NewString(),
			Department:  department,
			Year:        year,
			SubjectCode: item.Subject,
			StartTime:   item.StartTime,
			EndTime:     item.EndTime,
			Day:         item.Day,
			Room:        item.Room,
			Status:      StatusScheduled,
		})
	}
	if err := s.store.InsertBulk(ctx, entries); err != nil {
		return nil, err
	}
	s.invalidate(ctx, department, year)
	return entries, nil
}

// Get returns every entry for a department/year, served through the cache
// when one is configured. Grouping and sorting stay a client concern.
func (s *Service) Get(ctx context.Context, department string, year int) ([]Entry, error) {
	if department == "" || year == 0 {
		return nil, fmt.Errorf("%w: year and department are required", ErrInvalid)
	}
	key := cacheKey(department, year)
	if s.cache != nil {
		var cached []Entry
		if s.cache.GetJSON(ctx, key, &cached) {
			return cached, nil
		}
	}
	entries, err := s.store.List(ctx, department, year)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.SetJSON(ctx, key, entries, s.cacheTTL)
	}
	return entries, nil
}

// AddExtra creates a single ad-hoc entry with status fixed to Extra Class.
func (s *Service) AddExtra(ctx context.Context, department string, year int, item ScheduleItem) (*Entry, error) {
	if department == "" || year == 0 || item.Subject == "" || item.StartTime == "" ||
		item.EndTime == "" || item.Day == "" || item.Room == "" {
		return nil, fmt.Errorf("%w: all fields are required", ErrInvalid)
	}
	entry, err := s.store.Insert(ctx, Entry{
		Department:  department,
		Year:        year,
		SubjectCode: item.Subject,
		StartTime:   item.StartTime,
		EndTime:     item.EndTime,
		Day:         item.Day,
		Room:        item.Room,
		Status:      StatusExtra,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, department, year)
	return entry, nil
}

// SetStatus flips an entry between Scheduled and Cancelled. Other fields are
// untouched, so the toggle is reversible and idempotent.
func (s *Service) SetStatus(ctx context.Context, id, status string) (*Entry, error) {
	if status != StatusScheduled && status != StatusCancelled {
		return nil, fmt.Errorf("%w: status must be %q or %q", ErrInvalid, StatusScheduled, StatusCancelled)
	}
	entry, err := s.store.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, ErrNotFound
	}
	s.invalidate(ctx, entry.Department, entry.Year)
	return entry, nil
}

// DeleteExtra removes an entry by id. The caller is trusted to target an
// Extra Class row, matching the source behaviour.
func (s *Service) DeleteExtra(ctx context.Context, id string) error {
	entry, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrNotFound
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	s.invalidate(ctx, entry.Department, entry.Year)
	return nil
}

func (s *Service) invalidate(ctx context.Context, department string, year int) {
	if s.cache != nil {
		s.cache.Delete(ctx, cacheKey(department, year))
	}
}
