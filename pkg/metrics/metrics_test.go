package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Observers(t *testing.T) {
	m := NewWithRegisterer("test", prometheus.NewRegistry())

	m.ObserveRequest("GET", 429, "rate_limited", time.Millisecond)
	m.ObserveRequest("GET", 200, "ok", time.Millisecond)
	m.ObserveRetry("rate_limited")
	m.ObservePage(7)
	m.ObservePage(3)
	m.ObserveDroppedIndicator("CTR")
	m.ObserveCoercionFailures(2)
	m.ObserveCoercionFailures(0)
	m.ObserveExport("popular", "completed", time.Second)
	m.ObserveQuery("select", time.Millisecond, errors.New("boom"))
	m.SetDBStats(4, 1, 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequestsTotal.WithLabelValues("GET", "429", "rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRetriesTotal.WithLabelValues("rate_limited")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchPagesTotal))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.FetchRecordsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DroppedIndicatorsTotal.WithLabelValues("CTR")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CoercionFailuresTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues("popular", "completed")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DBIdle))
}
