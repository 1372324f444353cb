package service

import (
	"context"
	"errors"
	"fmt"

	"cdm/backend/services/station-service/internal/models"
)

var (
	// ErrInvalidInput marks requests rejected before any storage access.
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage wraps transactional I/O failures. The whole operation was rolled back.
	ErrStorage = errors.New("storage failure")
)

func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// classify passes domain errors through and marks everything else as a storage failure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, models.ErrStationNotFound),
		errors.Is(err, models.ErrStationExists),
		errors.Is(err, models.ErrFaultCauseNotFound),
		errors.Is(err, ErrInvalidInput):
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

// NormalizeFaultCauses drops fault causes for every status except Faulted.
func NormalizeFaultCauses(status models.Status, causes models.FaultCauseSet) models.FaultCauseSet {
	if status != models.StatusFaulted {
		return models.FaultCauseSet{}
	}
	return causes
}

func requireFaultCauses(ctx context.Context, lookup FaultCauseLookup, causes models.FaultCauseSet) error {
	if causes.IsEmpty() {
		return nil
	}
	missing, err := lookup.Missing(ctx, causes)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", models.ErrFaultCauseNotFound, missing)
	}
	return nil
}
