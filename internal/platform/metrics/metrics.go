package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private registry so several instances can coexist in tests.
type Collector struct {
	registry     *prometheus.Registry
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	calculations prometheus.Counter
	imports      *prometheus.CounterVec
	quotes       *prometheus.CounterVec
	jobRuns      *prometheus.CounterVec
}

func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewdesk_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crewdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		calculations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crewdesk_salary_calculations_generated_total",
			Help: "Salary calculations produced by period generation.",
		}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewdesk_imports_total",
			Help: "Salary snapshot and calendar imports by kind and outcome.",
		}, []string{"kind", "outcome"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewdesk_mission_quotes_total",
			Help: "Mission quotes served by the source of the displayed amount.",
		}, []string{"source"}),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crewdesk_job_runs_total",
			Help: "Background job runs by job and status.",
		}, []string{"job", "status"}),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.requests, c.duration, c.calculations, c.imports, c.quotes, c.jobRuns,
	)
	return c
}

// Record counts one served request. route is the chi route pattern, never
// the raw path.
func (c *Collector) Record(method, route string, status int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	c.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.duration.WithLabelValues(route).Observe(duration.Seconds())
}

func (c *Collector) CalculationsGenerated(n int) {
	c.calculations.Add(float64(n))
}

func (c *Collector) Import(kind, outcome string) {
	c.imports.WithLabelValues(kind, outcome).Inc()
}

func (c *Collector) Quote(source string) {
	c.quotes.WithLabelValues(source).Inc()
}

func (c *Collector) JobRun(job, status string) {
	c.jobRuns.WithLabelValues(job, status).Inc()
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
