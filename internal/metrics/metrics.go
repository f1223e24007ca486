// Package metrics exposes Prometheus collectors for the store, the effect
// runtime and the remote client.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/julook/internal/store"
)

const namespace = "julook"

// Collector owns a private registry and every Julook collector.
type Collector struct {
	Registry *prometheus.Registry

	actions        *prometheus.CounterVec
	dropped        *prometheus.CounterVec
	reduceDuration *prometheus.HistogramVec
	reducerPanics  *prometheus.CounterVec

	effectsStarted   *prometheus.CounterVec
	effectsCancelled prometheus.Counter
	effectPanics     prometheus.Counter

	remoteRequests *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
}

// New creates a collector with all metrics registered.
func New() *Collector {
	c := &Collector{
		Registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "actions_total",
			Help:      "Actions applied by a store.",
		}, []string{"store", "action", "source"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "actions_dropped_total",
			Help:      "Actions discarded because their work was cancelled or the store was closed.",
		}, []string{"store", "action"}),
		reduceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "send_duration_seconds",
			Help:      "Time spent applying an action, including effect scheduling.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
		}, []string{"store"}),
		reducerPanics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "reducer_panics_total",
			Help:      "Reducer panics recovered by a store.",
		}, []string{"store", "action"}),
		effectsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "effects",
			Name:      "started_total",
			Help:      "Effects started, by shape.",
		}, []string{"kind"}),
		effectsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "effects",
			Name:      "cancelled_total",
			Help:      "In-flight effects cancelled.",
		}),
		effectPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "effects",
			Name:      "panics_total",
			Help:      "Effect bodies that panicked.",
		}),
		remoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Requests sent to the remote catalog.",
		}, []string{"method", "table", "status"}),
		remoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Duration of remote catalog requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "table"}),
	}

	c.Registry.MustRegister(
		c.actions, c.dropped, c.reduceDuration, c.reducerPanics,
		c.effectsStarted, c.effectsCancelled, c.effectPanics,
		c.remoteRequests, c.remoteDuration,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}

// PostSend implements store.PostSendHook.
func (c *Collector) PostSend(info store.SendInfo) {
	switch {
	case info.Panicked:
		c.reducerPanics.WithLabelValues(info.Store, info.Action).Inc()
	case info.Dropped:
		c.dropped.WithLabelValues(info.Store, info.Action).Inc()
	default:
		source := "send"
		if info.FromEffect {
			source = "effect"
		}
		c.actions.WithLabelValues(info.Store, info.Action, source).Inc()
		c.reduceDuration.WithLabelValues(info.Store).Observe(info.Duration.Seconds())
	}
}

// EffectStarted implements effect.Observer.
func (c *Collector) EffectStarted(kind string) {
	c.effectsStarted.WithLabelValues(kind).Inc()
}

// EffectCancelled implements effect.Observer.
func (c *Collector) EffectCancelled(_ string, count int) {
	c.effectsCancelled.Add(float64(count))
}

// EffectPanicked implements effect.Observer.
func (c *Collector) EffectPanicked() {
	c.effectPanics.Inc()
}

// ObserveRemote records one remote request.
func (c *Collector) ObserveRemote(method, table string, status int, d time.Duration) {
	c.remoteRequests.WithLabelValues(method, table, strconv.Itoa(status)).Inc()
	c.remoteDuration.WithLabelValues(method, table).Observe(d.Seconds())
}
