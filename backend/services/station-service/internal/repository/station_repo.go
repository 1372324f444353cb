package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cdm/backend/services/station-service/internal/models"
)

// StationRepository handles the stations / stations_address pair.
type StationRepository struct {
	db DBTX
}

// NewStationRepository returns repository. Pass a *sql.Tx for the locking methods.
func NewStationRepository(db DBTX) *StationRepository {
	return &StationRepository{db: db}
}

// GetForUpdate reads the station and locks both of its rows until the transaction ends.
func (r *StationRepository) GetForUpdate(ctx context.Context, stationID int64) (*models.LockedStation, error) {
	const query = `
		SELECT s.id, s.stations_address_id, a.status_id, a.fault_cause_ids::text
		FROM stations s
		JOIN stations_address a ON s.stations_address_id = a.id
		WHERE s.id = $1
		FOR UPDATE
	`
	var locked models.LockedStation
	err := r.db.QueryRowContext(ctx, query, stationID).
		Scan(&locked.StationID, &locked.AddressID, &locked.Status, scanCauses(&locked.FaultCauses))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrStationNotFound
		}
		return nil, err
	}
	return &locked, nil
}

// WriteStatus overwrites the current status and fault causes of an address row.
func (r *StationRepository) WriteStatus(ctx context.Context, addressID int64, status models.Status, causes models.FaultCauseSet) error {
	const query = `
		UPDATE stations_address
		SET status_id = $2,
		    fault_cause_ids = $3::bigint[]
		WHERE id = $1
	`
	ids, err := causeArray(causes)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, query, addressID, int16(status), ids)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("station address %d: %w", addressID, models.ErrStationNotFound)
	}
	return nil
}

// Insert creates the address row and the station row pointing at it.
func (r *StationRepository) Insert(ctx context.Context, station models.NewStation) error {
	const insertAddress = `
		INSERT INTO stations_address (name, address, detail_location, status_id, fault_cause_ids)
		VALUES ($1, $2, $3, $4, $5::bigint[])
		RETURNING id
	`
	const insertStation = `
		INSERT INTO stations (id, stations_address_id)
		VALUES ($1, $2)
	`

	causes, err := causeArray(station.FaultCauses)
	if err != nil {
		return err
	}
	var addressID int64
	err = r.db.QueryRowContext(ctx, insertAddress,
		station.Name,
		station.Address,
		station.DetailLocation,
		int16(station.Status),
		causes,
	).Scan(&addressID)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, insertStation, station.ID, addressID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("station %d: %w", station.ID, models.ErrStationExists)
		}
		return err
	}
	return nil
}

// Delete removes the station and its address row.
func (r *StationRepository) Delete(ctx context.Context, stationID int64) error {
	const deleteStation = `
		DELETE FROM stations
		WHERE id = $1
		RETURNING stations_address_id
	`
	const deleteAddress = `
		DELETE FROM stations_address
		WHERE id = $1
	`

	var addressID int64
	if err := r.db.QueryRowContext(ctx, deleteStation, stationID).Scan(&addressID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ErrStationNotFound
		}
		return err
	}
	_, err := r.db.ExecContext(ctx, deleteAddress, addressID)
	return err
}

// ListAll returns station summaries ordered by station id. No locks are taken.
func (r *StationRepository) ListAll(ctx context.Context) ([]models.StationSummary, error) {
	const query = `
		SELECT s.id, a.name, a.address, a.detail_location, a.status_id, a.fault_cause_ids::text
		FROM stations s
		JOIN stations_address a ON s.stations_address_id = a.id
		ORDER BY s.id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []models.StationSummary
	for rows.Next() {
		var st models.StationSummary
		if err := rows.Scan(
			&st.ID,
			&st.Name,
			&st.Address,
			&st.DetailLocation,
			&st.Status,
			scanCauses(&st.FaultCauses),
		); err != nil {
			return nil, err
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stations, nil
}
