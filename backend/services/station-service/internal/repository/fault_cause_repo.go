package repository

import (
	"context"

	"cdm/backend/services/station-service/internal/models"
)

// FaultCauseRepository stores the fault cause catalog.
type FaultCauseRepository struct {
	db DBTX
}

// NewFaultCauseRepository returns repository.
func NewFaultCauseRepository(db DBTX) *FaultCauseRepository {
	return &FaultCauseRepository{db: db}
}

// List returns the catalog ordered by id.
func (r *FaultCauseRepository) List(ctx context.Context) ([]models.FaultCause, error) {
	const query = `
		SELECT id, reason_text, created_at
		FROM fault_causes
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var causes []models.FaultCause
	for rows.Next() {
		var c models.FaultCause
		if err := rows.Scan(&c.ID, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		causes = append(causes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return causes, nil
}

// Create inserts a new catalog entry.
func (r *FaultCauseRepository) Create(ctx context.Context, text string) (*models.FaultCause, error) {
	const query = `
		INSERT INTO fault_causes (reason_text)
		VALUES ($1)
		RETURNING id, created_at
	`
	cause := &models.FaultCause{Text: text}
	if err := r.db.QueryRowContext(ctx, query, text).Scan(&cause.ID, &cause.CreatedAt); err != nil {
		return nil, err
	}
	return cause, nil
}

// Missing returns the ids of causes that are not in the catalog.
func (r *FaultCauseRepository) Missing(ctx context.Context, causes models.FaultCauseSet) ([]int64, error) {
	if causes.IsEmpty() {
		return nil, nil
	}
	const query = `
		SELECT id
		FROM fault_causes
		WHERE id = ANY($1::bigint[])
	`
	ids, err := causeArray(causes)
	if err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found := make(map[int64]struct{}, causes.Len())
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var missing []int64
	for _, id := range causes.IDs() {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}
