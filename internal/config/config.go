package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"itinerary-layout/internal/elevation"
	"itinerary-layout/internal/timeline"
)

type Config struct {
	DatabaseURL             string
	NATSURL                 string
	NATSPlanSubject         string
	NATSLayoutSubjectPrefix string
	LogNATSSubjects         bool
	HTTPAddr                string
	MetricsAddr             string
	ReplayWindow            time.Duration
	PolylineCacheSize       int
	LayoutConfigPath        string
	Dimensions              Dimensions
}

// Dimensions are the widget sizes layouts are computed for. They can be
// overridden by the YAML file named in LAYOUT_CONFIG.
type Dimensions struct {
	Elevation elevation.Options `yaml:"elevation"`
	Timeline  timeline.Options  `yaml:"timeline"`
}

func DefaultDimensions() Dimensions {
	return Dimensions{
		Elevation: elevation.Options{
			GraphWidthPx:   600,
			GraphHeightPx:  120,
			LabelWidthPx:   40,
			IconWidthPx:    24,
			EndPaddingPx:   10,
			TopMarginPx:    10,
			BottomMarginPx: 14,
		},
		Timeline: timeline.Options{
			BarWidthPx:      400,
			ReservedStartPx: 60,
			ReservedEndPx:   60,
		},
	}
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{Dimensions: DefaultDimensions()}

	// Plan store DSN: DATABASE_URL / PG_DSN, else built from PG* vars when PGDATABASE is set.
	// No DSN disables the store.
	dsn := firstNonEmpty(
		os.Getenv("DATABASE_URL"),
		os.Getenv("PG_DSN"),
	)
	if dsn == "" {
		if db := os.Getenv("PGDATABASE"); db != "" {
			host := getenvDefault("PGHOST", "127.0.0.1")
			port := getenvDefault("PGPORT", "5432")
			user := getenvDefault("PGUSER", "postgres")
			pass := os.Getenv("PGPASSWORD")
			sslmode := getenvDefault("PGSSLMODE", "disable")
			if pass != "" {
				dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
			} else {
				dsn = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
			}
		}
	}
	cfg.DatabaseURL = dsn

	// Empty NATS_URL disables the bus.
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.NATSPlanSubject = getenvDefault("NATS_PLAN_SUBJECT", "plans.computed")
	cfg.NATSLayoutSubjectPrefix = getenvDefault("NATS_LAYOUT_SUBJECT_PREFIX", "layouts")
	if strings.ContainsAny(cfg.NATSLayoutSubjectPrefix, " *>") {
		return nil, fmt.Errorf("invalid NATS_LAYOUT_SUBJECT_PREFIX: %q", cfg.NATSLayoutSubjectPrefix)
	}

	if v := os.Getenv("LOG_NATS_SUBJECTS"); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "t", "yes", "y", "on":
			cfg.LogNATSSubjects = true
		default:
			cfg.LogNATSSubjects = false
		}
	}

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")
	// Separate metrics listener (e.g. ":9102"). Empty serves /metrics on HTTP_ADDR only.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")

	// Replay window (minutes) for plans already in the store at startup
	if v := os.Getenv("REPLAY_WINDOW_MINUTES"); v != "" {
		min, err := strconv.Atoi(v)
		if err != nil || min < 0 {
			return nil, fmt.Errorf("invalid REPLAY_WINDOW_MINUTES: %q", v)
		}
		cfg.ReplayWindow = time.Duration(min) * time.Minute
	}

	if v := os.Getenv("POLYLINE_CACHE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid POLYLINE_CACHE_SIZE: %q", v)
		}
		cfg.PolylineCacheSize = n
	} else {
		cfg.PolylineCacheSize = 4096
	}

	cfg.LayoutConfigPath = os.Getenv("LAYOUT_CONFIG")
	if cfg.LayoutConfigPath != "" {
		dims, err := LoadDimensions(cfg.LayoutConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.Dimensions = dims
	}

	return cfg, nil
}

// LoadDimensions reads a YAML dimensions file on top of the defaults.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadDimensions(path string) (Dimensions, error) {
	dims := DefaultDimensions()
	b, err := os.ReadFile(path)
	if err != nil {
		return dims, fmt.Errorf("read layout config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&dims); err != nil && !errors.Is(err, io.EOF) {
		return dims, fmt.Errorf("parse layout config %s: %w", path, err)
	}
	if err := dims.Validate(); err != nil {
		return dims, fmt.Errorf("layout config %s: %w", path, err)
	}
	return dims, nil
}

func (d Dimensions) Validate() error {
	e, t := d.Elevation, d.Timeline
	if e.GraphWidthPx <= 0 || e.GraphHeightPx <= 0 {
		return errors.New("elevation graph_width and graph_height must be positive")
	}
	if e.LabelWidthPx < 0 || e.IconWidthPx < 0 || e.EndPaddingPx < 0 || e.TopMarginPx < 0 || e.BottomMarginPx < 0 {
		return errors.New("elevation widths and margins must not be negative")
	}
	if t.BarWidthPx <= 0 {
		return errors.New("timeline bar_width must be positive")
	}
	if t.ReservedStartPx < 0 || t.ReservedEndPx < 0 {
		return errors.New("timeline reserved widths must not be negative")
	}
	return nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
