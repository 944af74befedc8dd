package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор Prometheus-метрик сервиса
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	UpstreamRetriesTotal    *prometheus.CounterVec

	FetchPagesTotal        prometheus.Counter
	FetchRecordsTotal      prometheus.Counter
	DroppedIndicatorsTotal *prometheus.CounterVec
	CoercionFailuresTotal  prometheus.Counter

	ExportsTotal   *prometheus.CounterVec
	ExportDuration *prometheus.HistogramVec

	DBQueryDuration   *prometheus.HistogramVec
	DBOpenConnections prometheus.Gauge
	DBInUse           prometheus.Gauge
	DBIdle            prometheus.Gauge
}

// New создаёт метрики и регистрирует их в глобальном реестре Prometheus
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создаёт метрики и регистрирует их в переданном реестре
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	labels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests served",
			ConstLabels: labels,
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "path"}),

		UpstreamRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "webmaster_requests_total",
			Help:        "Requests to the Webmaster API by outcome",
			ConstLabels: labels,
		}, []string{"method", "status", "outcome"}),
		UpstreamRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "webmaster_request_duration_seconds",
			Help:        "Webmaster API call latency per attempt",
			ConstLabels: labels,
			Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"method"}),
		UpstreamRetriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "webmaster_retries_total",
			Help:        "Retries of Webmaster API calls by reason",
			ConstLabels: labels,
		}, []string{"reason"}),

		FetchPagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fetch_pages_total",
			Help:        "Pages processed by the fetch loop",
			ConstLabels: labels,
		}),
		FetchRecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "fetch_records_total",
			Help:        "Records produced by the fetch loop",
			ConstLabels: labels,
		}),
		DroppedIndicatorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "fetch_dropped_indicators_total",
			Help:        "Indicator sub-requests dropped after exhausting retries",
			ConstLabels: labels,
		}, []string{"indicator"}),
		CoercionFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "normalize_coercion_failures_total",
			Help:        "Metric values that could not be converted to numbers",
			ConstLabels: labels,
		}),

		ExportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "exports_total",
			Help:        "Finished exports by kind and status",
			ConstLabels: labels,
		}, []string{"kind", "status"}),
		ExportDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "export_duration_seconds",
			Help:        "Export duration",
			ConstLabels: labels,
			Buckets:     []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}, []string{"kind"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query latency",
			ConstLabels: labels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"operation", "status"}),
		DBOpenConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Open database connections",
			ConstLabels: labels,
		}),
		DBInUse: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Database connections in use",
			ConstLabels: labels,
		}),
		DBIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Idle database connections",
			ConstLabels: labels,
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.UpstreamRequestsTotal,
		m.UpstreamRequestDuration,
		m.UpstreamRetriesTotal,
		m.FetchPagesTotal,
		m.FetchRecordsTotal,
		m.DroppedIndicatorsTotal,
		m.CoercionFailuresTotal,
		m.ExportsTotal,
		m.ExportDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUse,
		m.DBIdle,
	)

	return m
}

// ObserveHTTP учитывает обработанный HTTP запрос
func (m *Metrics) ObserveHTTP(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveRequest учитывает одну попытку запроса к Webmaster API
// status = 0 для сетевых ошибок
func (m *Metrics) ObserveRequest(method string, status int, outcome string, duration time.Duration) {
	m.UpstreamRequestsTotal.WithLabelValues(method, strconv.Itoa(status), outcome).Inc()
	m.UpstreamRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// ObserveRetry учитывает повтор запроса
func (m *Metrics) ObserveRetry(reason string) {
	m.UpstreamRetriesTotal.WithLabelValues(reason).Inc()
}

// ObservePage учитывает страницу, обработанную циклом выгрузки
func (m *Metrics) ObservePage(records int) {
	m.FetchPagesTotal.Inc()
	m.FetchRecordsTotal.Add(float64(records))
}

// ObserveDroppedIndicator учитывает потерянный под-запрос по индикатору
func (m *Metrics) ObserveDroppedIndicator(indicator string) {
	m.DroppedIndicatorsTotal.WithLabelValues(indicator).Inc()
}

// ObserveCoercionFailures учитывает значения метрик, которые не удалось привести к числу
func (m *Metrics) ObserveCoercionFailures(n int) {
	if n <= 0 {
		return
	}
	m.CoercionFailuresTotal.Add(float64(n))
}

// ObserveExport учитывает завершённую выгрузку
func (m *Metrics) ObserveExport(kind, status string, duration time.Duration) {
	m.ExportsTotal.WithLabelValues(kind, status).Inc()
	m.ExportDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// ObserveQuery учитывает SQL запрос
func (m *Metrics) ObserveQuery(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.DBQueryDuration.WithLabelValues(operation, status).Observe(duration.Seconds())
}

// SetDBStats обновляет метрики пула соединений
func (m *Metrics) SetDBStats(open, inUse, idle int) {
	m.DBOpenConnections.Set(float64(open))
	m.DBInUse.Set(float64(inUse))
	m.DBIdle.Set(float64(idle))
}
