package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cdm/backend/services/station-service/internal/metrics"
	"cdm/backend/services/station-service/internal/models"
)

// TransitionRequest is one request to change a station's status and fault causes.
type TransitionRequest struct {
	ActorID     int64
	StationID   int64
	Status      models.Status
	FaultCauses models.FaultCauseSet
}

// TransitionResult reports what ApplyTransition did.
type TransitionResult struct {
	Applied         bool `json:"applied"`
	HistoryRecorded bool `json:"history_recorded"`
}

// ListingInvalidator is notified after committed writes so cached listings can be dropped.
type ListingInvalidator interface {
	Invalidate()
}

// TransitionService applies status transitions and keeps the maintenance history in step.
type TransitionService struct {
	tx      Transactor
	listing ListingInvalidator
	timeout time.Duration
	logger  *zap.Logger
}

// NewTransitionService builds TransitionService. listing may be nil; a zero
// timeout leaves the caller's deadline as the only bound.
func NewTransitionService(tx Transactor, listing ListingInvalidator, timeout time.Duration, logger *zap.Logger) *TransitionService {
	return &TransitionService{
		tx:      tx,
		listing: listing,
		timeout: timeout,
		logger:  logger,
	}
}

// ApplyTransition writes the requested state to the station and appends a
// history entry when the state differs from the one held under the row lock.
// Concurrent calls on the same station serialize on that lock; the later one
// sees the earlier one's result as its previous state.
func (s *TransitionService) ApplyTransition(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	start := time.Now()
	result, err := s.apply(ctx, req)
	metrics.ObserveTransition(resultLabel(err), result.HistoryRecorded, time.Since(start))

	if err != nil {
		if errors.Is(err, ErrStorage) {
			s.logger.Error("station transition failed",
				zap.Int64("station_id", req.StationID),
				zap.Int64("actor_id", req.ActorID),
				zap.Error(err),
			)
		}
		return TransitionResult{}, err
	}

	s.logger.Info("station transition applied",
		zap.Int64("station_id", req.StationID),
		zap.Int64("actor_id", req.ActorID),
		zap.Stringer("status", req.Status),
		zap.Bool("history_recorded", result.HistoryRecorded),
	)
	return result, nil
}

func (s *TransitionService) apply(ctx context.Context, req TransitionRequest) (TransitionResult, error) {
	if req.ActorID <= 0 {
		return TransitionResult{}, invalidInput("actor id is required")
	}
	if req.StationID <= 0 {
		return TransitionResult{}, invalidInput("station id must be positive")
	}
	if !req.Status.Valid() {
		return TransitionResult{}, invalidInput("unknown status %d", int16(req.Status))
	}
	// Client-supplied causes are never trusted for non-faulted states.
	causes := NormalizeFaultCauses(req.Status, req.FaultCauses)
	if err := causes.Validate(); err != nil {
		return TransitionResult{}, invalidInput("%v", err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var recorded bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		recorded = false

		current, err := uow.Stations().GetForUpdate(ctx, req.StationID)
		if err != nil {
			return err
		}
		if err := requireFaultCauses(ctx, uow.FaultCauses(), causes); err != nil {
			return err
		}

		changed := current.Status != req.Status || !current.FaultCauses.Equal(causes)

		if err := uow.Stations().WriteStatus(ctx, current.AddressID, req.Status, causes); err != nil {
			return err
		}
		if !changed {
			return nil
		}

		entry := &models.HistoryEntry{
			ActorID:     req.ActorID,
			StationID:   req.StationID,
			Status:      req.Status,
			FaultCauses: causes,
		}
		if err := uow.History().Append(ctx, entry); err != nil {
			return err
		}
		recorded = true
		return nil
	})
	if err != nil {
		return TransitionResult{}, classify("apply transition", err)
	}

	if s.listing != nil {
		s.listing.Invalidate()
	}
	return TransitionResult{Applied: true, HistoryRecorded: recorded}, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultSuccess
	case errors.Is(err, models.ErrStationNotFound), errors.Is(err, models.ErrFaultCauseNotFound):
		return metrics.ResultNotFound
	case errors.Is(err, models.ErrStationExists):
		return metrics.ResultConflict
	case errors.Is(err, ErrInvalidInput):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
