package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"cdm/backend/services/station-service/internal/service"
)

const uniqueViolation = "23505"

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Transactor opens database transactions for the service layer.
type Transactor struct {
	db *sql.DB
}

// NewTransactor returns Transactor.
func NewTransactor(db *sql.DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn inside one transaction. The transaction is bound to ctx, so
// a cancelled request rolls back and releases its row locks.
func (t *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context, uow service.UnitOfWork) error) (err error) {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, unitOfWork{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type unitOfWork struct {
	tx *sql.Tx
}

func (u unitOfWork) Stations() service.StationStore {
	return NewStationRepository(u.tx)
}

func (u unitOfWork) History() service.HistoryLedger {
	return NewHistoryRepository(u.tx)
}

func (u unitOfWork) FaultCauses() service.FaultCauseLookup {
	return NewFaultCauseRepository(u.tx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
