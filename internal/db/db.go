package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"itinerary-layout/internal/layout"
	"itinerary-layout/internal/plan"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

func Ping(ctx context.Context, db *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.PingContext(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS trip_plans (
	plan_id    text PRIMARY KEY,
	created_at timestamptz NOT NULL DEFAULT now(),
	body       jsonb NOT NULL
);
CREATE TABLE IF NOT EXISTS trip_plan_layouts (
	plan_id     text PRIMARY KEY,
	computed_at timestamptz NOT NULL,
	body        jsonb NOT NULL
);`

// EnsureSchema creates the plan and layout tables when missing and checks
// that an existing trip_plans table carries the columns read by
// FetchRecentPlans.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	cols, err := hasColumns(ctx, db, "public", "trip_plans", "plan_id", "created_at", "body")
	if err != nil {
		return fmt.Errorf("inspect trip_plans: %w", err)
	}
	for name, ok := range cols {
		if !ok {
			return fmt.Errorf("trip_plans is missing column %q", name)
		}
	}
	return nil
}

// StoredPlan is a trip plan as persisted by the planner.
type StoredPlan struct {
	ID        string
	CreatedAt time.Time
	Plan      plan.TripPlan
}

// FetchRecentPlans returns up to limit plans created at or after since,
// oldest first. Rows whose body does not decode are logged and skipped.
func FetchRecentPlans(ctx context.Context, db *sql.DB, since time.Time, limit int) ([]StoredPlan, error) {
	q := `SELECT plan_id, created_at, body FROM trip_plans
          WHERE created_at >= $1
          ORDER BY created_at ASC
          LIMIT $2`
	rows, err := db.QueryContext(ctx, q, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query trip_plans: %w", err)
	}
	defer rows.Close()

	var out []StoredPlan
	for rows.Next() {
		var (
			id      string
			created time.Time
			body    []byte
		)
		if err := rows.Scan(&id, &created, &body); err != nil {
			return nil, err
		}
		sp, err := decodeStoredPlan(id, created, body)
		if err != nil {
			log.Printf("skip stored plan %s: %v", id, err)
			continue
		}
		out = append(out, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// decodeStoredPlan parses a plan body. The row's plan_id wins over any id in
// the body.
func decodeStoredPlan(id string, created time.Time, body []byte) (StoredPlan, error) {
	var p plan.TripPlan
	if err := json.Unmarshal(body, &p); err != nil {
		return StoredPlan{}, fmt.Errorf("decode body: %w", err)
	}
	if len(p.Itineraries) == 0 {
		return StoredPlan{}, fmt.Errorf("no itineraries")
	}
	p.ID = id
	return StoredPlan{ID: id, CreatedAt: created, Plan: p}, nil
}

// SaveLayout stores the latest layout computed for planID.
func SaveLayout(ctx context.Context, db *sql.DB, planID string, res layout.Result) error {
	body, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode layout %s: %w", planID, err)
	}
	q := `INSERT INTO trip_plan_layouts (plan_id, computed_at, body)
          VALUES ($1, $2, $3)
          ON CONFLICT (plan_id) DO UPDATE
          SET computed_at = EXCLUDED.computed_at, body = EXCLUDED.body`
	if _, err := db.ExecContext(ctx, q, planID, res.ComputedAt, body); err != nil {
		return fmt.Errorf("save layout %s: %w", planID, err)
	}
	return nil
}

// hasColumns returns a map of requested column names to existence for the given table.
func hasColumns(ctx context.Context, db *sql.DB, schema, table string, cols ...string) (map[string]bool, error) {
	res := make(map[string]bool, len(cols))
	if len(cols) == 0 {
		return res, nil
	}
	for _, c := range cols {
		res[c] = false
	}
	q := `SELECT column_name FROM information_schema.columns
          WHERE table_schema = $1 AND table_name = $2 AND column_name = ANY($3)`
	rows, err := db.QueryContext(ctx, q, schema, table, cols)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res[name] = true
	}
	return res, rows.Err()
}
