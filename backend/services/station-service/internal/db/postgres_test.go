package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(schema).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, Migrate(context.Background(), db))

	mock.ExpectExec(schema).WillReturnError(errors.New("permission denied"))
	assert.Error(t, Migrate(context.Background(), db))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{"users", "fault_causes", "stations_address", "stations", "maintenance_history"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (")
	}
}
