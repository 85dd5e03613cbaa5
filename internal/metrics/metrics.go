package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	reg *prometheus.Registry

	Layouts      *prometheus.CounterVec // source label: http|nats|replay
	LayoutErrors *prometheus.CounterVec // source label

	PolylineDecodeErrors prometheus.Counter
	PolylineCacheHits    prometheus.Counter
	PolylineCacheMisses  prometheus.Counter

	SkippedElevationSamples  prometheus.Counter
	ProfilesWithoutElevation prometheus.Counter
	DegenerateTimelines      prometheus.Counter

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	PlansReplayed prometheus.Counter

	LayoutDuration  prometheus.Histogram
	PublishDuration prometheus.Histogram

	PolylineCacheSize prometheus.Gauge
}

func NewCollector(polylineCacheSize int) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		Layouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itinerary_layout_layouts_total",
			Help: "Trip plans laid out.",
		}, []string{"source"}),
		LayoutErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "itinerary_layout_errors_total",
			Help: "Trip plans that could not be laid out or delivered.",
		}, []string{"source"}),
		PolylineDecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_layout_polyline_decode_errors_total",
			Help: "Leg geometries rejected as malformed polylines.",
		}),
		PolylineCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_layout_polyline_cache_hits_total",
			Help: "Polyline decodes served from cache.",
		}),
		PolylineCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_layout_polyline_cache_misses_total",
			Help: "Polyline decodes that had to run the decoder.",
		}),
		SkippedElevationSamples: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_layout_skipped_elevation_samples_total",
			Help: "Malformed elevation pairs skipped while building profiles.",
		}),
		ProfilesWithoutElevation: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_layout_profiles_without_elevation_total",
			Help: "Itineraries whose elevation profile had no valid sample.",
		}),
		DegenerateTimelines: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_layout_degenerate_timelines_total",
			Help: "Trip plans whose shared time axis had zero length.",
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_layout_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_layout_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "itinerary_layout_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PlansReplayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "itinerary_layout_plans_replayed_total",
			Help: "Stored plans laid out again at startup.",
		}),
		LayoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "itinerary_layout_duration_seconds",
			Help:    "Duration of laying out one trip plan.",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 15),
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "itinerary_layout_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		PolylineCacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "itinerary_layout_polyline_cache_capacity",
			Help: "Configured polyline cache capacity.",
		}),
	}

	reg.MustRegister(
		c.Layouts, c.LayoutErrors,
		c.PolylineDecodeErrors, c.PolylineCacheHits, c.PolylineCacheMisses,
		c.SkippedElevationSamples, c.ProfilesWithoutElevation, c.DegenerateTimelines,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.PlansReplayed, c.LayoutDuration, c.PublishDuration,
		c.PolylineCacheSize,
	)

	c.PolylineCacheSize.Set(float64(polylineCacheSize))

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()
	log.Printf("metrics listening on %s", addr)
	return srv
}

// The methods below let the collector be handed straight to the layout
// service and the polyline cache.

func (c *Collector) LayoutDone(source string, d time.Duration) {
	c.Layouts.WithLabelValues(source).Inc()
	c.LayoutDuration.Observe(d.Seconds())
}

func (c *Collector) LayoutFailed(source string) { c.LayoutErrors.WithLabelValues(source).Inc() }

func (c *Collector) PolylineDecodeFailed() { c.PolylineDecodeErrors.Inc() }

func (c *Collector) PolylineCacheHit() { c.PolylineCacheHits.Inc() }

func (c *Collector) PolylineCacheMiss() { c.PolylineCacheMisses.Inc() }

func (c *Collector) ElevationSamplesSkipped(n int) { c.SkippedElevationSamples.Add(float64(n)) }

func (c *Collector) ProfileWithoutElevation() { c.ProfilesWithoutElevation.Inc() }

func (c *Collector) DegenerateTimeline() { c.DegenerateTimelines.Inc() }

func (c *Collector) PlanReplayed() { c.PlansReplayed.Inc() }
