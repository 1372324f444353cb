package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestObserveBeforeInitIsNoop(t *testing.T) {
	if transitionsTotal != nil {
		t.Skip("metrics already initialised")
	}
	ObserveTransition(ResultSuccess, true, time.Millisecond)
	ObserveRegistration("create", ResultSuccess)
	ObserveLogin(ResultSuccess)
	ObserveHTTPRequest("GET", "200")
}

func TestObserveTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	Init(reg, nil, zap.NewNop())

	before := testutil.ToFloat64(historyRecords)
	ObserveTransition(ResultSuccess, true, 5*time.Millisecond)
	ObserveTransition(ResultSuccess, false, 5*time.Millisecond)
	ObserveTransition(ResultNotFound, false, time.Millisecond)

	assert.Equal(t, before+1, testutil.ToFloat64(historyRecords))
	assert.GreaterOrEqual(t, testutil.ToFloat64(transitionsTotal.WithLabelValues(ResultSuccess)), 2.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(transitionsTotal.WithLabelValues(ResultNotFound)), 1.0)

	ObserveRegistration("delete", ResultNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(registrationsTotal.WithLabelValues("delete", ResultNotFound)))
}
