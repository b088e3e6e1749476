package handlers

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/valyala/fasthttp"

	dbpkg "salesinsight/internal/db"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salesinsight",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served.",
		},
		[]string{"route", "method", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salesinsight",
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of HTTP request durations in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)
	factsRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "salesinsight",
			Name:      "facts_recorded_total",
			Help:      "Total number of sale and view facts recorded.",
		},
		[]string{"kind"},
	)
	dashboardQuerySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "salesinsight",
			Name:      "dashboard_query_seconds",
			Help:      "Histogram of dashboard sub-query durations in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"component"},
	)

	registerOnce sync.Once
)

// InitPrometheusMetrics registers the service collectors with the default
// registry. It is safe to call more than once.
func InitPrometheusMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(httpRequestsTotal, httpRequestDuration, factsRecordedTotal, dashboardQuerySeconds)
	})
}

type dashboardObserver struct{}

func (dashboardObserver) ObserveQuery(component string, elapsed time.Duration) {
	dashboardQuerySeconds.WithLabelValues(component).Observe(elapsed.Seconds())
}

// DashboardObserver feeds dashboard sub-query timings into
// salesinsight_dashboard_query_seconds.
func DashboardObserver() dbpkg.QueryObserver {
	return dashboardObserver{}
}

// MetricsHandler serves the default registry in the text exposition format.
// An optional ?prefix= keeps only metric families whose name starts with it.
func MetricsHandler() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		prefix := queryString(ctx, "prefix")

		metricFamilies, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			ctx.SetStatusCode(fasthttp.StatusInternalServerError)
			ctx.SetBodyString("failed to gather metrics")
			return
		}

		filtered := make([]*dto.MetricFamily, 0, len(metricFamilies))
		for _, mf := range metricFamilies {
			if prefix == "" || strings.HasPrefix(mf.GetName(), prefix) {
				filtered = append(filtered, mf)
			}
		}

		var buf bytes.Buffer
		encoder := expfmt.NewEncoder(&buf, expfmt.FmtText)
		for _, mf := range filtered {
			if err := encoder.Encode(mf); err != nil {
				ctx.SetStatusCode(fasthttp.StatusInternalServerError)
				ctx.SetBodyString("failed to encode metrics")
				return
			}
		}

		ctx.SetContentType(string(expfmt.FmtText))
		ctx.Response.Header.Set("Cache-Control", "no-store")
		ctx.SetBody(buf.Bytes())
	}
}
