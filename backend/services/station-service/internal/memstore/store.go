// Package memstore is an in-process implementation of the station, history,
// fault cause and user stores. Each station has its own row lock; a unit of
// work buffers its writes and applies them atomically on commit, so a failed
// unit of work leaves nothing behind.
package memstore

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"cdm/backend/services/station-service/internal/models"
	"cdm/backend/services/station-service/internal/service"
)

type stationRecord struct {
	id             int64
	addressID      int64
	name           string
	address        string
	detailLocation string
	status         models.Status
	faultCauses    models.FaultCauseSet
}

func (r stationRecord) summary() models.StationSummary {
	return models.StationSummary{
		ID:             r.id,
		Name:           r.name,
		Address:        r.address,
		DetailLocation: r.detailLocation,
		Status:         r.status,
		FaultCauses:    r.faultCauses,
	}
}

// Store keeps all state in memory. The zero value is not usable; call New.
type Store struct {
	mu            sync.RWMutex
	stations      map[int64]stationRecord
	addressIndex  map[int64]int64
	history       []models.HistoryEntry
	faultCauses   []models.FaultCause
	users         map[string]models.User
	nextAddressID int64
	nextHistoryID int64
	nextUserID    int64

	locksMu  sync.Mutex
	rowLocks map[int64]*rowLock

	now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		stations:     make(map[int64]stationRecord),
		addressIndex: make(map[int64]int64),
		users:        make(map[string]models.User),
		rowLocks:     make(map[int64]*rowLock),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// rowLock is a station's lock plus the number of units of work holding or
// waiting on it. The entry is dropped once nobody references it.
type rowLock struct {
	ch   chan struct{}
	refs int
}

func (s *Store) refRowLock(stationID int64) *rowLock {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.rowLocks[stationID]
	if !ok {
		lock = &rowLock{ch: make(chan struct{}, 1)}
		s.rowLocks[stationID] = lock
	}
	lock.refs++
	return lock
}

func (s *Store) unrefRowLock(stationID int64, lock *rowLock) {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.rowLocks, stationID)
	}
}

func (s *Store) rowLockCount() int {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	return len(s.rowLocks)
}

// WithinTx runs fn as one unit of work.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow service.UnitOfWork) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u := newUnitOfWork(s)
	defer u.release()

	if err := fn(ctx, u); err != nil {
		return err
	}
	// A request abandoned mid-flight must not commit.
	if err := ctx.Err(); err != nil {
		return err
	}
	u.commit()
	return nil
}

// ListAll returns committed station summaries ordered by id.
func (s *Store) ListAll(ctx context.Context) ([]models.StationSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.StationSummary, 0, len(s.stations))
	for _, rec := range s.stations {
		out = append(out, rec.summary())
	}
	slices.SortFunc(out, func(a, b models.StationSummary) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// DistinctStationsTouchedBy lists stations the actor changed, most recent first.
func (s *Store) DistinctStationsTouchedBy(ctx context.Context, actorID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[int64]struct{})
	var ids []int64
	// history is in commit order, so walking it backwards yields latest touches first.
	for i := len(s.history) - 1; i >= 0; i-- {
		entry := s.history[i]
		if entry.ActorID != actorID {
			continue
		}
		if _, dup := seen[entry.StationID]; dup {
			continue
		}
		seen[entry.StationID] = struct{}{}
		ids = append(ids, entry.StationID)
	}
	return ids, nil
}

// ListByStation returns the newest entries for a station.
func (s *Store) ListByStation(ctx context.Context, stationID int64, limit int) ([]models.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var entries []models.HistoryEntry
	for i := len(s.history) - 1; i >= 0 && (limit <= 0 || len(entries) < limit); i-- {
		if s.history[i].StationID == stationID {
			entries = append(entries, s.history[i])
		}
	}
	return entries, nil
}

// HistoryLen reports the number of ledger rows.
func (s *Store) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// List returns the fault cause catalog ordered by id.
func (s *Store) List(ctx context.Context) ([]models.FaultCause, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.faultCauses), nil
}

// Create appends a fault cause to the catalog.
func (s *Store) Create(ctx context.Context, text string) (*models.FaultCause, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cause := models.FaultCause{
		ID:        int64(len(s.faultCauses) + 1),
		Text:      text,
		CreatedAt: s.now(),
	}
	s.faultCauses = append(s.faultCauses, cause)
	return &cause, nil
}

// CreateUser inserts a staff account; emails are unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := s.users[email]; exists {
		return fmt.Errorf("memstore: user %s already exists", email)
	}
	s.nextUserID++
	user.ID = s.nextUserID
	user.Email = email
	user.CreatedAt = s.now()
	s.users[email] = *user
	return nil
}

// GetByEmail fetches a user by email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &user, nil
}
