package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cdm/backend/services/station-service/internal/models"
	"cdm/backend/services/station-service/internal/service"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestTransactor_CommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM stations s`)).
		WithArgs(101).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stations_address_id", "status_id", "fault_cause_ids"}).
			AddRow(int64(101), int64(7), int64(1), "{}"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE stations_address`)).
		WithArgs(7, 3, "{2}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO maintenance_history`)).
		WithArgs(42, 101, 3, "{2}").
		WillReturnRows(sqlmock.NewRows([]string{"id", "updated_at"}).AddRow(int64(1), time.Now()))
	mock.ExpectCommit()

	err := NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context, uow service.UnitOfWork) error {
		locked, err := uow.Stations().GetForUpdate(ctx, 101)
		if err != nil {
			return err
		}
		causes := models.NewFaultCauseSet(2)
		if err := uow.Stations().WriteStatus(ctx, locked.AddressID, models.StatusFaulted, causes); err != nil {
			return err
		}
		return uow.History().Append(ctx, &models.HistoryEntry{
			ActorID:     42,
			StationID:   101,
			Status:      models.StatusFaulted,
			FaultCauses: causes,
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FOR UPDATE`)).
		WithArgs(404).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context, uow service.UnitOfWork) error {
		_, err := uow.Stations().GetForUpdate(ctx, 404)
		return err
	})
	assert.ErrorIs(t, err, models.ErrStationNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_RollsBackWhenHistoryAppendFails(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM stations s`)).
		WithArgs(101).
		WillReturnRows(sqlmock.NewRows([]string{"id", "stations_address_id", "status_id", "fault_cause_ids"}).
			AddRow(int64(101), int64(7), int64(1), "{}"))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE stations_address`)).
		WithArgs(7, 2, "{}").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO maintenance_history`)).
		WithArgs(42, 101, 2, "{}").
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context, uow service.UnitOfWork) error {
		locked, err := uow.Stations().GetForUpdate(ctx, 101)
		if err != nil {
			return err
		}
		if err := uow.Stations().WriteStatus(ctx, locked.AddressID, models.StatusUnderMaintenance, models.FaultCauseSet{}); err != nil {
			return err
		}
		return uow.History().Append(ctx, &models.HistoryEntry{
			ActorID:   42,
			StationID: 101,
			Status:    models.StatusUnderMaintenance,
		})
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	// ExpectationsWereMet fails if a commit was attempted instead of the rollback.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_RollsBackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context, uow service.UnitOfWork) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactor_BeginFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	called := false
	err := NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context, uow service.UnitOfWork) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestTransactor_CommitFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	err := NewTransactor(db).WithinTx(context.Background(), func(ctx context.Context, uow service.UnitOfWork) error {
		return nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit tx")
}

func TestStationRepository_WriteStatusMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE stations_address`)).
		WithArgs(9, 1, "{}").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewStationRepository(db).WriteStatus(context.Background(), 9, models.StatusAvailable, models.FaultCauseSet{})
	assert.ErrorIs(t, err, models.ErrStationNotFound)
}

func TestStationRepository_Insert(t *testing.T) {
	station := models.NewStation{
		ID:             101,
		Name:           "Main lot",
		Address:        "1 Harbor Rd",
		DetailLocation: "B2 pillar 4",
		Status:         models.StatusFaulted,
		FaultCauses:    models.NewFaultCauseSet(3, 1),
	}

	t.Run("inserts address then station", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO stations_address`)).
			WithArgs("Main lot", "1 Harbor Rd", "B2 pillar 4", 3, "{1,3}").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(55)))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO stations (id, stations_address_id)`)).
			WithArgs(101, 55).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewStationRepository(db).Insert(context.Background(), station))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate id maps to conflict", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO stations_address`)).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(56)))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO stations (id, stations_address_id)`)).
			WillReturnError(&pgconn.PgError{Code: uniqueViolation, Message: "duplicate key"})

		err := NewStationRepository(db).Insert(context.Background(), station)
		assert.ErrorIs(t, err, models.ErrStationExists)
	})
}

func TestStationRepository_Delete(t *testing.T) {
	t.Run("removes both rows", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM stations`)).
			WithArgs(101).
			WillReturnRows(sqlmock.NewRows([]string{"stations_address_id"}).AddRow(int64(55)))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM stations_address`)).
			WithArgs(55).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, NewStationRepository(db).Delete(context.Background(), 101))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing station", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta(`DELETE FROM stations`)).
			WithArgs(5).
			WillReturnRows(sqlmock.NewRows([]string{"stations_address_id"}))

		err := NewStationRepository(db).Delete(context.Background(), 5)
		assert.ErrorIs(t, err, models.ErrStationNotFound)
	})
}

func TestStationRepository_ListAll(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY s.id ASC`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "address", "detail_location", "status_id", "fault_cause_ids"}).
			AddRow(int64(1), "North", "1 North St", "", int64(1), "{}").
			AddRow(int64(2), "South", "2 South St", "gate", int64(3), "{4,2}"))

	stations, err := NewStationRepository(db).ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, stations, 2)
	assert.Equal(t, models.StatusAvailable, stations[0].Status)
	assert.True(t, stations[0].FaultCauses.IsEmpty())
	assert.Equal(t, models.StatusFaulted, stations[1].Status)
	assert.Equal(t, []int64{2, 4}, stations[1].FaultCauses.IDs())
}

func TestHistoryRepository_DistinctStationsTouchedBy(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`GROUP BY station_id`)).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"station_id"}).AddRow(int64(12)).AddRow(int64(3)))

	ids, err := NewHistoryRepository(db).DistinctStationsTouchedBy(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{12, 3}, ids)
}

func TestHistoryRepository_ListByStation(t *testing.T) {
	db, mock := newMockDB(t)
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE station_id = $1`)).
		WithArgs(101, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "station_id", "new_status_id", "new_fault_cause_ids", "updated_at"}).
			AddRow(int64(2), int64(7), int64(101), int64(3), "{2,5}", at))

	entries, err := NewHistoryRepository(db).ListByStation(context.Background(), 101, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, int64(7), entries[0].ActorID)
	assert.Equal(t, models.StatusFaulted, entries[0].Status)
	assert.Equal(t, []int64{2, 5}, entries[0].FaultCauses.IDs())
	assert.Equal(t, at, entries[0].ChangedAt)
}

func TestFaultCauseRepository_Missing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ANY($1::bigint[])`)).
		WithArgs("{1,2,9}").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(2)))

	missing, err := NewFaultCauseRepository(db).Missing(context.Background(), models.NewFaultCauseSet(9, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, missing)

	none, err := NewFaultCauseRepository(db).Missing(context.Background(), models.FaultCauseSet{})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultCauseRepository_MissingBeyondInt32(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE id = ANY($1::bigint[])`)).
		WithArgs("{2,3000000000}").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))

	missing, err := NewFaultCauseRepository(db).Missing(context.Background(), models.NewFaultCauseSet(3000000000, 2))
	require.NoError(t, err)
	assert.Equal(t, []int64{3000000000}, missing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFaultCauseRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO fault_causes`)).
		WithArgs("Cable damaged").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(4), time.Now()))

	cause, err := NewFaultCauseRepository(db).Create(context.Background(), "Cable damaged")
	require.NoError(t, err)
	assert.Equal(t, int64(4), cause.ID)
	assert.Equal(t, "Cable damaged", cause.Text)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users`)).
		WithArgs("ops@cdm.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "name", "role", "created_at"}).
			AddRow(int64(1), "ops@cdm.com", "hash", "Ops", "admin", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM users`)).
		WithArgs("nobody@cdm.com").
		WillReturnError(sql.ErrNoRows)

	repo := NewUserRepository(db)
	user, err := repo.GetByEmail(context.Background(), " OPS@cdm.com ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)

	_, err = repo.GetByEmail(context.Background(), "nobody@cdm.com")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}
