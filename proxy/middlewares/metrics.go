package middlewares

import (
	"net/http"
	"time"

	"github.com/hookscope/hookscope/pkg/metrics"
)

type MetricsMiddleware struct {
	metrics *metrics.Metrics
}

func NewMetricsMiddleware(metrics *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{
		metrics: metrics,
	}
}

func (m *MetricsMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.metrics.RequestCounter.With("method", r.Method).Add(1)
		start := time.Now()
		next.ServeHTTP(w, r)
		m.metrics.RequestDurationHistogram.Observe(time.Since(start).Seconds())
	})
}
