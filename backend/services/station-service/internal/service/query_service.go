package service

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/models"
)

const (
	stationListKey      = "stations:all"
	defaultHistoryLimit = 100
	maxHistoryLimit     = 1000
)

// QueryService serves the read-only endpoints: station listing, audit queries
// and the fault cause catalog. The listing is cached for a short TTL and
// dropped whenever a writer commits.
type QueryService struct {
	stations StationLister
	history  HistoryReader
	catalog  FaultCauseCatalog
	cache    *cache.Cache
	logger   *zap.Logger

	// generation counts invalidations. A listing read under an older
	// generation is returned but not cached.
	mu         sync.Mutex
	generation uint64
}

// NewQueryService builds QueryService. A non-positive ttl disables caching.
func NewQueryService(stations StationLister, history HistoryReader, catalog FaultCauseCatalog, ttl time.Duration, logger *zap.Logger) *QueryService {
	var c *cache.Cache
	if ttl > 0 {
		c = cache.New(ttl, 2*ttl)
	}
	return &QueryService{
		stations: stations,
		history:  history,
		catalog:  catalog,
		cache:    c,
		logger:   logger,
	}
}

// ListStations returns all stations ordered by id.
func (s *QueryService) ListStations(ctx context.Context) ([]models.StationSummary, error) {
	if s.cache != nil {
		if cached, ok := s.cache.Get(stationListKey); ok {
			return slices.Clone(cached.([]models.StationSummary)), nil
		}
	}

	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	stations, err := s.stations.ListAll(ctx)
	if err != nil {
		return nil, classify("list stations", err)
	}
	if stations == nil {
		stations = []models.StationSummary{}
	}
	if s.cache != nil {
		s.mu.Lock()
		if s.generation == generation {
			s.cache.SetDefault(stationListKey, slices.Clone(stations))
		}
		s.mu.Unlock()
	}
	return stations, nil
}

// Invalidate drops the cached listing.
func (s *QueryService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	if s.cache != nil {
		s.cache.Delete(stationListKey)
	}
}

// StationsTouchedBy returns the distinct stations an actor has transitioned,
// most recently touched first.
func (s *QueryService) StationsTouchedBy(ctx context.Context, actorID int64) ([]int64, error) {
	if actorID <= 0 {
		return nil, invalidInput("actor id must be positive")
	}
	ids, err := s.history.DistinctStationsTouchedBy(ctx, actorID)
	if err != nil {
		return nil, classify("stations touched by actor", err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// StationHistory returns the newest history entries of one station.
func (s *QueryService) StationHistory(ctx context.Context, stationID int64, limit int) ([]models.HistoryEntry, error) {
	if stationID <= 0 {
		return nil, invalidInput("station id must be positive")
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	entries, err := s.history.ListByStation(ctx, stationID, limit)
	if err != nil {
		return nil, classify("station history", err)
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	return entries, nil
}

// ListFaultCauses returns the catalog ordered by id.
func (s *QueryService) ListFaultCauses(ctx context.Context) ([]models.FaultCause, error) {
	causes, err := s.catalog.List(ctx)
	if err != nil {
		return nil, classify("list fault causes", err)
	}
	if causes == nil {
		causes = []models.FaultCause{}
	}
	return causes, nil
}

// CreateFaultCause appends a new catalog entry.
func (s *QueryService) CreateFaultCause(ctx context.Context, text string) (*models.FaultCause, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalidInput("fault cause text is required")
	}
	cause, err := s.catalog.Create(ctx, text)
	if err != nil {
		return nil, classify("create fault cause", err)
	}
	s.logger.Info("fault cause created", zap.Int64("fault_cause_id", cause.ID))
	return cause, nil
}
