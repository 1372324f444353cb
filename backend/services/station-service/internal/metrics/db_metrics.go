package metrics

import (
	"context"
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const gaugeQueryTimeout = 2 * time.Second

const (
	// The ledger only grows, so the planner's row estimate stands in for a
	// full COUNT(*). reltuples is -1 until the table is first analyzed.
	historyEntriesQuery = `
		SELECT GREATEST(reltuples, 0)::bigint
		FROM pg_class
		WHERE oid = 'maintenance_history'::regclass
	`
	faultedStationsQuery = `SELECT COUNT(*) FROM stations_address WHERE status_id = 3`
)

func registerDBMetrics(reg prometheus.Registerer, db *sql.DB, logger *zap.Logger) {
	reg.MustRegister(newDBGauges(db, logger)...)
}

func newDBGauges(db *sql.DB, logger *zap.Logger) []prometheus.Collector {
	return []prometheus.Collector{
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + "history_entries",
				Help: "Estimated rows in the maintenance history ledger",
			},
			func() float64 {
				return queryCount(db, logger, historyEntriesQuery)
			},
		),
		prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: metricPrefix + "faulted_stations",
				Help: "Stations currently in the faulted state",
			},
			func() float64 {
				return queryCount(db, logger, faultedStationsQuery)
			},
		),
	}
}

func queryCount(db *sql.DB, logger *zap.Logger, query string) float64 {
	ctx, cancel := context.WithTimeout(context.Background(), gaugeQueryTimeout)
	defer cancel()

	var count int64
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		if logger != nil {
			logger.Warn("metrics query failed", zap.String("query", query), zap.Error(err))
		}
		return 0
	}
	if count < 0 {
		return 0
	}
	return float64(count)
}
