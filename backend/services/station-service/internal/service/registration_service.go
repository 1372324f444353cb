package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/metrics"
	"cdm/backend/services/station-service/internal/models"
)

// RegistrationService creates and deletes stations together with their address records.
type RegistrationService struct {
	tx      Transactor
	listing ListingInvalidator
	logger  *zap.Logger
}

// NewRegistrationService builds RegistrationService.
func NewRegistrationService(tx Transactor, listing ListingInvalidator, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		tx:      tx,
		listing: listing,
		logger:  logger,
	}
}

// CreateStation registers a station under a caller-assigned id.
func (s *RegistrationService) CreateStation(ctx context.Context, station models.NewStation) error {
	err := s.create(ctx, station)
	metrics.ObserveRegistration("create", resultLabel(err))
	if err != nil {
		return err
	}

	s.invalidate()
	s.logger.Info("station created", zap.Int64("station_id", station.ID), zap.Stringer("status", station.Status))
	return nil
}

func (s *RegistrationService) create(ctx context.Context, station models.NewStation) error {
	station.Name = strings.TrimSpace(station.Name)
	station.Address = strings.TrimSpace(station.Address)
	station.DetailLocation = strings.TrimSpace(station.DetailLocation)

	if station.ID <= 0 {
		return invalidInput("station id must be positive")
	}
	if station.Name == "" {
		return invalidInput("station name is required")
	}
	if station.Status == 0 {
		station.Status = models.StatusAvailable
	}
	if !station.Status.Valid() {
		return invalidInput("unknown status %d", int16(station.Status))
	}
	station.FaultCauses = NormalizeFaultCauses(station.Status, station.FaultCauses)
	if err := station.FaultCauses.Validate(); err != nil {
		return invalidInput("%v", err)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		if err := requireFaultCauses(ctx, uow.FaultCauses(), station.FaultCauses); err != nil {
			return err
		}
		return uow.Stations().Insert(ctx, station)
	})
	return classify("create station", err)
}

// DeleteStation removes a station and its address record. History rows are kept.
func (s *RegistrationService) DeleteStation(ctx context.Context, stationID int64) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		return uow.Stations().Delete(ctx, stationID)
	})
	err = classify("delete station", err)
	metrics.ObserveRegistration("delete", resultLabel(err))
	if err != nil {
		return err
	}

	s.invalidate()
	s.logger.Info("station deleted", zap.Int64("station_id", stationID))
	return nil
}

func (s *RegistrationService) invalidate() {
	if s.listing != nil {
		s.listing.Invalidate()
	}
}
