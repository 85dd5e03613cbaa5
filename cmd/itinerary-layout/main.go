package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"itinerary-layout/internal/config"
	"itinerary-layout/internal/db"
	"itinerary-layout/internal/httpapi"
	"itinerary-layout/internal/layout"
	"itinerary-layout/internal/metrics"
	"itinerary-layout/internal/pipeline"
	"itinerary-layout/internal/plan"
	"itinerary-layout/internal/polyline"
	"itinerary-layout/internal/publisher"
)

const (
	layoutWorkers = 8
	replayLimit   = 1000
)

func main() {
	// Load configuration from .env and environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Root context with cancellation on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mcol := metrics.NewCollector(cfg.PolylineCacheSize)
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		metricsSrv = mcol.Serve(cfg.MetricsAddr)
	}

	cache := polyline.NewCache(cfg.PolylineCacheSize, mcol)
	svc := layout.NewService(cfg.Dimensions.Elevation, cfg.Dimensions.Timeline, cache, mcol)

	// Optional plan store
	var sqlDB *sql.DB
	var store pipeline.Store
	if cfg.DatabaseURL != "" {
		redacted, err := db.Redact(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("invalid DSN: %v", err)
		}
		sqlDB, err = db.Open(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db open error: %v", err)
		}
		defer sqlDB.Close()
		if err := db.Ping(ctx, sqlDB); err != nil {
			log.Fatalf("db ping error: %v", err)
		}
		if err := db.EnsureSchema(ctx, sqlDB); err != nil {
			log.Fatalf("db schema error: %v", err)
		}
		store = layoutStore{db: sqlDB}
		log.Printf("Using plan store %s", redacted)
	} else {
		log.Printf("DATABASE_URL not set, layouts are not persisted")
	}

	// Optional NATS bus
	var pub *publisher.NATSPublisher
	var sink pipeline.Publisher
	if cfg.NATSURL != "" {
		pub, err = publisher.NewNATSPublisher(cfg.NATSURL, cfg.LogNATSSubjects, wrapPublisherMetrics(mcol))
		if err != nil {
			log.Fatalf("nats error: %v", err)
		}
		defer pub.Close()
		sink = pub
	}

	mgr := pipeline.NewManager(svc, store, sink, cfg.NATSLayoutSubjectPrefix, layoutWorkers, mcol)

	if sqlDB != nil && cfg.ReplayWindow > 0 {
		replayStored(ctx, sqlDB, mgr, cfg.ReplayWindow)
	}

	if pub != nil {
		if _, err := pub.SubscribePlans(cfg.NATSPlanSubject, func(p plan.TripPlan) {
			mgr.Submit(ctx, "nats", p)
		}); err != nil {
			log.Fatalf("nats subscribe error: %v", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewRouter(svc, mcol.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()
	log.Printf("layout API listening on %s", cfg.HTTPAddr)

	// Block until context cancelled
	<-ctx.Done()

	// Shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	mgr.Stop()
	log.Println("shutdown complete")
}

func replayStored(ctx context.Context, sqlDB *sql.DB, mgr *pipeline.Manager, window time.Duration) {
	since := time.Now().Add(-window)
	stored, err := db.FetchRecentPlans(ctx, sqlDB, since, replayLimit)
	if err != nil {
		log.Printf("replay fetch error: %v", err)
		return
	}
	plans := make([]plan.TripPlan, len(stored))
	for i, sp := range stored {
		plans[i] = sp.Plan
	}
	n := mgr.Replay(ctx, plans)
	log.Printf("replayed %d/%d plans stored since %s", n, len(plans), since.Format(time.RFC3339))
}

// layoutStore adapts the db package functions to pipeline.Store.
type layoutStore struct{ db *sql.DB }

func (s layoutStore) SaveLayout(ctx context.Context, planID string, res layout.Result) error {
	return db.SaveLayout(ctx, s.db, planID, res)
}

// wrapPublisherMetrics adapts our Collector to the PublisherMetrics interface.
func wrapPublisherMetrics(c *metrics.Collector) publisher.PublisherMetrics {
	if c == nil {
		return nil
	}
	return &pubMetrics{c: c}
}

type pubMetrics struct{ c *metrics.Collector }

func (p *pubMetrics) NATSPublishedInc()              { p.c.NATSPublished.Inc() }
func (p *pubMetrics) NATSPublishErrInc()             { p.c.NATSPublishErrs.Inc() }
func (p *pubMetrics) PublishObserve(d time.Duration) { p.c.PublishDuration.Observe(d.Seconds()) }
func (p *pubMetrics) NATSSetConnected(b bool) {
	if b {
		p.c.NATSConnected.Set(1)
	} else {
		p.c.NATSConnected.Set(0)
	}
}
