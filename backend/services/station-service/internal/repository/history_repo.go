package repository

import (
	"context"

	"cdm/backend/services/station-service/internal/models"
)

// HistoryRepository is the append-only maintenance_history ledger.
type HistoryRepository struct {
	db DBTX
}

// NewHistoryRepository returns repository.
func NewHistoryRepository(db DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Append inserts one entry and fills in its id and timestamp.
func (r *HistoryRepository) Append(ctx context.Context, entry *models.HistoryEntry) error {
	const query = `
		INSERT INTO maintenance_history (user_id, station_id, new_status_id, new_fault_cause_ids)
		VALUES ($1, $2, $3, $4::bigint[])
		RETURNING id, updated_at
	`
	causes, err := causeArray(entry.FaultCauses)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, query,
		entry.ActorID,
		entry.StationID,
		int16(entry.Status),
		causes,
	).Scan(&entry.ID, &entry.ChangedAt)
}

// DistinctStationsTouchedBy lists each station the actor changed once, most recent first.
func (r *HistoryRepository) DistinctStationsTouchedBy(ctx context.Context, actorID int64) ([]int64, error) {
	const query = `
		SELECT station_id
		FROM maintenance_history
		WHERE user_id = $1
		GROUP BY station_id
		ORDER BY MAX(updated_at) DESC, MAX(id) DESC
	`
	rows, err := r.db.QueryContext(ctx, query, actorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}

// ListByStation returns the newest entries for a station.
func (r *HistoryRepository) ListByStation(ctx context.Context, stationID int64, limit int) ([]models.HistoryEntry, error) {
	const query = `
		SELECT id, user_id, station_id, new_status_id, new_fault_cause_ids::text, updated_at
		FROM maintenance_history
		WHERE station_id = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, stationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.HistoryEntry
	for rows.Next() {
		var e models.HistoryEntry
		if err := rows.Scan(
			&e.ID,
			&e.ActorID,
			&e.StationID,
			&e.Status,
			scanCauses(&e.FaultCauses),
			&e.ChangedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
