package memstore

import (
	"context"
	"fmt"

	"cdm/backend/services/station-service/internal/models"
	"cdm/backend/services/station-service/internal/service"
)

// unitOfWork holds the row locks it acquired and the writes it staged.
// staged maps station id to its new record; a nil record stages a delete.
type unitOfWork struct {
	store   *Store
	held    map[int64]*rowLock
	staged  map[int64]*stationRecord
	history []*models.HistoryEntry
}

func newUnitOfWork(store *Store) *unitOfWork {
	return &unitOfWork{
		store:  store,
		held:   make(map[int64]*rowLock),
		staged: make(map[int64]*stationRecord),
	}
}

func (u *unitOfWork) Stations() service.StationStore        { return u }
func (u *unitOfWork) History() service.HistoryLedger        { return u }
func (u *unitOfWork) FaultCauses() service.FaultCauseLookup { return u }

// lock blocks until the station's row lock is free or ctx is done.
func (u *unitOfWork) lock(ctx context.Context, stationID int64) error {
	if _, ok := u.held[stationID]; ok {
		return nil
	}
	lock := u.store.refRowLock(stationID)
	select {
	case lock.ch <- struct{}{}:
		u.held[stationID] = lock
		return nil
	case <-ctx.Done():
		u.store.unrefRowLock(stationID, lock)
		return ctx.Err()
	}
}

func (u *unitOfWork) release() {
	for id, lock := range u.held {
		<-lock.ch
		u.store.unrefRowLock(id, lock)
		delete(u.held, id)
	}
}

func (u *unitOfWork) current(stationID int64) (stationRecord, bool) {
	if rec, ok := u.staged[stationID]; ok {
		if rec == nil {
			return stationRecord{}, false
		}
		return *rec, true
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	rec, ok := u.store.stations[stationID]
	return rec, ok
}

func (u *unitOfWork) stationByAddress(addressID int64) (int64, bool) {
	for id, rec := range u.staged {
		if rec != nil && rec.addressID == addressID {
			return id, true
		}
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	id, ok := u.store.addressIndex[addressID]
	return id, ok
}

func (u *unitOfWork) GetForUpdate(ctx context.Context, stationID int64) (*models.LockedStation, error) {
	if err := u.lock(ctx, stationID); err != nil {
		return nil, err
	}
	rec, ok := u.current(stationID)
	if !ok {
		return nil, models.ErrStationNotFound
	}
	return &models.LockedStation{
		StationID:   rec.id,
		AddressID:   rec.addressID,
		Status:      rec.status,
		FaultCauses: rec.faultCauses,
	}, nil
}

func (u *unitOfWork) WriteStatus(ctx context.Context, addressID int64, status models.Status, causes models.FaultCauseSet) error {
	stationID, ok := u.stationByAddress(addressID)
	if !ok {
		return fmt.Errorf("station address %d: %w", addressID, models.ErrStationNotFound)
	}
	if err := u.lock(ctx, stationID); err != nil {
		return err
	}
	rec, ok := u.current(stationID)
	if !ok {
		return fmt.Errorf("station address %d: %w", addressID, models.ErrStationNotFound)
	}
	rec.status = status
	rec.faultCauses = causes
	u.staged[stationID] = &rec
	return nil
}

func (u *unitOfWork) Insert(ctx context.Context, station models.NewStation) error {
	if err := u.lock(ctx, station.ID); err != nil {
		return err
	}
	if _, exists := u.current(station.ID); exists {
		return fmt.Errorf("station %d: %w", station.ID, models.ErrStationExists)
	}
	u.staged[station.ID] = &stationRecord{
		id:             station.ID,
		name:           station.Name,
		address:        station.Address,
		detailLocation: station.DetailLocation,
		status:         station.Status,
		faultCauses:    station.FaultCauses,
	}
	return nil
}

func (u *unitOfWork) Delete(ctx context.Context, stationID int64) error {
	if err := u.lock(ctx, stationID); err != nil {
		return err
	}
	if _, exists := u.current(stationID); !exists {
		return models.ErrStationNotFound
	}
	u.staged[stationID] = nil
	return nil
}

func (u *unitOfWork) Append(ctx context.Context, entry *models.HistoryEntry) error {
	u.history = append(u.history, entry)
	return nil
}

func (u *unitOfWork) Missing(ctx context.Context, causes models.FaultCauseSet) ([]int64, error) {
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()

	var missing []int64
	for _, id := range causes.IDs() {
		if id <= 0 || id > int64(len(u.store.faultCauses)) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (u *unitOfWork) commit() {
	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, rec := range u.staged {
		if rec == nil {
			if old, ok := s.stations[id]; ok {
				delete(s.addressIndex, old.addressID)
				delete(s.stations, id)
			}
			continue
		}
		if rec.addressID == 0 {
			s.nextAddressID++
			rec.addressID = s.nextAddressID
			s.addressIndex[rec.addressID] = id
		}
		s.stations[id] = *rec
	}

	for _, entry := range u.history {
		s.nextHistoryID++
		entry.ID = s.nextHistoryID
		if entry.ChangedAt.IsZero() {
			entry.ChangedAt = s.now()
		}
		s.history = append(s.history, *entry)
	}
}
