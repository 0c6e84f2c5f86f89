package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dogwalk"

// Collector owns the service metrics on a private registry so several
// instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	LocationsAccepted prometheus.Counter
	LocationsRejected *prometheus.CounterVec
	PhotosAccepted    prometheus.Counter
	PhotosRejected    *prometheus.CounterVec
	Transitions       *prometheus.CounterVec
	Assignments       *prometheus.CounterVec
	ActiveSessions    prometheus.Gauge
	GeofenceExits     prometheus.Counter
	PersistErrors     *prometheus.CounterVec
	PublishErrors     prometheus.Counter
}

func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		LocationsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "locations_accepted_total",
			Help:      "Location samples appended to a walk",
		}),
		LocationsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "locations_rejected_total",
			Help:      "Location samples rejected, by error code",
		}, []string{"code"}),
		PhotosAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "photos_accepted_total",
			Help:      "Photos attached to a walk",
		}),
		PhotosRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "photos_rejected_total",
			Help:      "Photos rejected, by error code",
		}, []string{"code"}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "transitions_total",
			Help:      "Audit log entries recorded, by kind and target status",
		}, []string{"kind", "to"}),
		Assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "assignment",
			Name:      "assignments_total",
			Help:      "Assignment attempts, by result code",
		}, []string{"result"}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "live_sessions",
			Help:      "Walk sessions held in memory",
		}),
		GeofenceExits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracking",
			Name:      "geofence_exits_total",
			Help:      "Samples recorded outside the walk geofence",
		}),
		PersistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "persist_errors_total",
			Help:      "Failed writes to the persistence layer, by table",
		}, []string{"table"}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "publish_errors_total",
			Help:      "Walk events that could not be published",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		c.LocationsAccepted, c.LocationsRejected,
		c.PhotosAccepted, c.PhotosRejected,
		c.Transitions, c.Assignments, c.ActiveSessions,
		c.GeofenceExits, c.PersistErrors, c.PublishErrors,
	)
	return c
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
