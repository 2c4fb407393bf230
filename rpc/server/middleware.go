package server

import (
	"fmt"
	"github.com/VictoriaMetrics/metrics"
	"github.com/sfdaemon/dapi/rpc/transport/base"
	"net/http"
	"time"
)

// responseWriter is a custom ResponseWriter that captures status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// loggerMiddleware is a middleware that logs HTTP requests
func loggerMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		Logger.Debugf("%s %s => %d took %s", r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	}
}

// metricsMiddleware counts requests per route and status and records their duration
func metricsMiddleware(set *metrics.Set, route string, next http.HandlerFunc) http.HandlerFunc {
	duration := set.GetOrCreateSummary(fmt.Sprintf(`dapi_api_request_duration_seconds{route=%q}`, route))
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration.UpdateDuration(start)
		set.GetOrCreateCounter(fmt.Sprintf(`dapi_api_requests_total{route=%q,code="%d"}`, route, rw.statusCode)).Inc()
	}
}

// registerPoolMetrics exports the pool bookkeeping and its go-metrics counters as gauges
func registerPoolMetrics(set *metrics.Set, pool IPoolInfo) {
	stat := func(get func(base.PoolStats) int) func() float64 {
		return func() float64 { return float64(get(pool.Stats())) }
	}
	set.NewGauge("dapi_pool_connections", stat(func(s base.PoolStats) int { return s.Total }))
	set.NewGauge("dapi_pool_idle_connections", stat(func(s base.PoolStats) int { return s.Idle }))
	set.NewGauge("dapi_pool_connecting", stat(func(s base.PoolStats) int { return s.Connecting }))
	set.NewGauge("dapi_pool_max_connections", stat(func(s base.PoolStats) int { return s.Max }))

	counter := func(name string) func() float64 {
		return func() float64 {
			if c, ok := pool.Metrics().Get(name).(interface{ Count() int64 }); ok {
				return float64(c.Count())
			}
			return 0
		}
	}
	set.NewGauge("dapi_pool_connections_created_total", counter(base.MetricConnectionsCreated))
	set.NewGauge("dapi_pool_connections_evicted_total", counter(base.MetricConnectionsEvicted))
	set.NewGauge("dapi_pool_exhausted_total", counter(base.MetricPoolExhausted))
	set.NewGauge("dapi_pool_exchanges_total", counter(base.MetricExchange))
}
