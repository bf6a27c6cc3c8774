// Package metrics exposes ticker activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ticker_backend/internal/feature/ticker/usecase"
)

const namespace = "ticker"

// Recorder implements usecase.Metrics on its own registry so tests can build
// as many as they like without colliding on the global one.
type Recorder struct {
	registry      *prometheus.Registry
	price         prometheus.Gauge
	volume        prometheus.Gauge
	ticks         prometheus.Counter
	news          *prometheus.CounterVec
	candles       prometheus.Counter
	persistErrors prometheus.Counter
	imageFailures prometheus.Counter
}

var _ usecase.Metrics = (*Recorder)(nil)

// New creates a Recorder with Go runtime and process collectors registered.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		price: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "price",
			Help:      "Current simulated price.",
		}),
		volume: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "day_volume",
			Help:      "Volume accumulated in the current trading day.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "The total number of automatic price ticks.",
		}),
		news: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "news_total",
			Help:      "News items created, by source.",
		}, []string{"source"}),
		candles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candles_finalized_total",
			Help:      "Daily candles finalized by rollover.",
		}),
		persistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persistence_errors_total",
			Help:      "Snapshot writes that failed.",
		}),
		imageFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_fetch_failures_total",
			Help:      "Image searches that failed or timed out.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.price, r.volume, r.ticks, r.news, r.candles, r.persistErrors, r.imageFailures,
	)
	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ObservePrice(price float64, volume int64) {
	r.price.Set(price)
	r.volume.Set(float64(volume))
}

func (r *Recorder) CountTick()              { r.ticks.Inc() }
func (r *Recorder) CountNews(source string) { r.news.WithLabelValues(source).Inc() }
func (r *Recorder) CountCandle()            { r.candles.Inc() }
func (r *Recorder) CountPersistenceError()  { r.persistErrors.Inc() }
func (r *Recorder) CountImageFailure()      { r.imageFailures.Inc() }
