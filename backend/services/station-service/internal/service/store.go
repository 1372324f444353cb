package service

import (
	"context"

	"cdm/backend/services/station-service/internal/models"
)

// StationStore is the locked, transactional view of stations used by writers.
type StationStore interface {
	// GetForUpdate reads the station and holds an exclusive lock on it until
	// the enclosing unit of work ends. Returns models.ErrStationNotFound.
	GetForUpdate(ctx context.Context, stationID int64) (*models.LockedStation, error)
	WriteStatus(ctx context.Context, addressID int64, status models.Status, causes models.FaultCauseSet) error
	// Insert creates the address and station records. Returns models.ErrStationExists.
	Insert(ctx context.Context, station models.NewStation) error
	// Delete removes the station and its address record. Returns models.ErrStationNotFound.
	Delete(ctx context.Context, stationID int64) error
}

// HistoryLedger appends maintenance history inside a unit of work.
type HistoryLedger interface {
	Append(ctx context.Context, entry *models.HistoryEntry) error
}

// FaultCauseLookup reports which of the given fault causes are not in the catalog.
type FaultCauseLookup interface {
	Missing(ctx context.Context, causes models.FaultCauseSet) ([]int64, error)
}

// UnitOfWork groups the stores bound to one transaction.
type UnitOfWork interface {
	Stations() StationStore
	History() HistoryLedger
	FaultCauses() FaultCauseLookup
}

// Transactor runs fn in a single transaction. The transaction commits when fn
// returns nil and rolls back on error, panic, or context cancellation.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}

// StationLister is the unlocked read path for station summaries.
type StationLister interface {
	ListAll(ctx context.Context) ([]models.StationSummary, error)
}

// HistoryReader answers audit queries over the ledger.
type HistoryReader interface {
	DistinctStationsTouchedBy(ctx context.Context, actorID int64) ([]int64, error)
	ListByStation(ctx context.Context, stationID int64, limit int) ([]models.HistoryEntry, error)
}

// FaultCauseCatalog is the append-only fault cause catalog.
type FaultCauseCatalog interface {
	List(ctx context.Context) ([]models.FaultCause, error)
	Create(ctx context.Context, text string) (*models.FaultCause, error)
}
