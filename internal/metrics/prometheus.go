// internal/metrics/prometheus.go
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeHit   = "hit"
	OutcomeEmpty = "empty"
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Collectors groups the Prometheus series exported by nabin. All methods are
// safe on a nil receiver so callers can run with metrics disabled.
type Collectors struct {
	registry *prometheus.Registry

	queries           *prometheus.CounterVec
	retrievalHits     prometheus.Histogram
	reindexRuns       *prometheus.CounterVec
	reindexRecords    prometheus.Counter
	generations       *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	generationTokens  *prometheus.CounterVec
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

var (
	defaultCollectors *Collectors
	defaultOnce       sync.Once
)

// Default returns the process-wide collectors.
func Default() *Collectors {
	defaultOnce.Do(func() {
		defaultCollectors = NewCollectors()
		defaultCollectors.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return defaultCollectors
}

// NewCollectors builds a fresh set of collectors on their own registry.
func NewCollectors() *Collectors {
	c := &Collectors{
		registry: prometheus.NewRegistry(),
		queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nabin_queries_total",
				Help: "Total number of retrieval queries by outcome",
			},
			[]string{"outcome"},
		),
		retrievalHits: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "nabin_retrieval_hits",
				Help:    "Number of venues returned per retrieval",
				Buckets: []float64{0, 1, 2, 3, 5, 10},
			},
		),
		reindexRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nabin_reindex_runs_total",
				Help: "Total number of reindex runs by outcome",
			},
			[]string{"outcome"},
		),
		reindexRecords: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "nabin_reindex_records_total",
				Help: "Total number of catalog records indexed",
			},
		),
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nabin_generation_requests_total",
				Help: "Total number of answer generations by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),
		generationLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nabin_generation_duration_seconds",
				Help:    "Duration of answer generations in seconds",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
			},
			[]string{"provider"},
		),
		generationTokens: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nabin_generation_tokens_total",
				Help: "Total tokens reported by generation backends",
			},
			[]string{"provider", "type"}, // type: input or output
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nabin_http_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nabin_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
	c.registry.MustRegister(
		c.queries,
		c.retrievalHits,
		c.reindexRuns,
		c.reindexRecords,
		c.generations,
		c.generationLatency,
		c.generationTokens,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collectors) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveQuery records one retrieval.
func (c *Collectors) ObserveQuery(hits int, err error) {
	if c == nil {
		return
	}
	switch {
	case err != nil:
		c.queries.WithLabelValues(OutcomeError).Inc()
		return
	case hits == 0:
		c.queries.WithLabelValues(OutcomeEmpty).Inc()
	default:
		c.queries.WithLabelValues(OutcomeHit).Inc()
	}
	c.retrievalHits.Observe(float64(hits))
}

// ObserveReindex records one reindex run.
func (c *Collectors) ObserveReindex(records int, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.reindexRuns.WithLabelValues(OutcomeError).Inc()
		return
	}
	c.reindexRuns.WithLabelValues(OutcomeOK).Inc()
	c.reindexRecords.Add(float64(records))
}

// ObserveGeneration records one call to a generation backend.
func (c *Collectors) ObserveGeneration(provider string, elapsed time.Duration, inputTokens, outputTokens int, err error) {
	if c == nil {
		return
	}
	c.generationLatency.WithLabelValues(provider).Observe(elapsed.Seconds())
	if err != nil {
		c.generations.WithLabelValues(provider, OutcomeError).Inc()
		return
	}
	c.generations.WithLabelValues(provider, OutcomeOK).Inc()
	c.generationTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	c.generationTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
}

// GinMiddleware records request counts and durations per route template.
func (c *Collectors) GinMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}
		start := time.Now()
		ctx.Next()

		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := ctx.Request.Method
		c.httpRequests.WithLabelValues(method, path, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collectors) Handler() http.Handler {
	if c == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// GinHandler adapts Handler for a gin route.
func (c *Collectors) GinHandler() gin.HandlerFunc {
	h := c.Handler()
	return func(ctx *gin.Context) {
		h.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
