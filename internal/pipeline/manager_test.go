package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"itinerary-layout/internal/elevation"
	"itinerary-layout/internal/layout"
	"itinerary-layout/internal/plan"
	"itinerary-layout/internal/publisher"
	"itinerary-layout/internal/timeline"
)

func newService() *layout.Service {
	return layout.NewService(
		elevation.Options{GraphWidthPx: 600, GraphHeightPx: 120, LabelWidthPx: 40, IconWidthPx: 20, EndPaddingPx: 10, TopMarginPx: 10, BottomMarginPx: 10},
		timeline.Options{BarWidthPx: 500, ReservedStartPx: 50, ReservedEndPx: 50},
		nil, nil,
	)
}

func tripPlan(id string, itineraries int) plan.TripPlan {
	p := plan.TripPlan{ID: id}
	for i := 0; i < itineraries; i++ {
		p.Itineraries = append(p.Itineraries, plan.Itinerary{Legs: []plan.Leg{
			{Mode: plan.Walk, Distance: 300, StartTime: int64(i) * 1000, EndTime: int64(i)*1000 + 60000},
		}})
	}
	return p
}

type recorder struct {
	mu       sync.Mutex
	saved    []string
	subjects []string
	failed   []string
	replayed int
	pubErr   error
	saveBlock func(ctx context.Context) error
}

func (r *recorder) SaveLayout(ctx context.Context, planID string, _ layout.Result) error {
	if r.saveBlock != nil {
		if err := r.saveBlock(ctx); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, planID)
	return nil
}

func (r *recorder) savedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func (r *recorder) PublishLayout(prefix, planID string, index int, _ publisher.LayoutMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pubErr != nil {
		return r.pubErr
	}
	r.subjects = append(r.subjects, publisher.LayoutSubject(prefix, planID, index))
	return nil
}

func (r *recorder) LayoutFailed(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, source)
}

func (r *recorder) PlanReplayed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replayed++
}

func TestProcessDeliversEveryItinerary(t *testing.T) {
	rec := &recorder{}
	m := NewManager(newService(), rec, rec, "layouts", 2, rec)

	if err := m.Process(context.Background(), "nats", tripPlan("p1", 2)); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(rec.saved) != 1 || rec.saved[0] != "p1" {
		t.Errorf("saved = %v", rec.saved)
	}
	want := []string{"layouts.p1.0", "layouts.p1.1"}
	if len(rec.subjects) != len(want) {
		t.Fatalf("subjects = %v, want %v", rec.subjects, want)
	}
	for i := range want {
		if rec.subjects[i] != want[i] {
			t.Errorf("subject %d = %q, want %q", i, rec.subjects[i], want[i])
		}
	}
}

func TestProcessWithoutSinks(t *testing.T) {
	m := NewManager(newService(), nil, nil, "layouts", 1, nil)
	if err := m.Process(context.Background(), "http", tripPlan("p", 1)); err != nil {
		t.Errorf("Process: %v", err)
	}
	if err := m.Process(context.Background(), "http", plan.TripPlan{ID: "empty"}); !errors.Is(err, layout.ErrNoItineraries) {
		t.Errorf("empty plan err = %v", err)
	}
}

func TestProcessPublishError(t *testing.T) {
	rec := &recorder{pubErr: errors.New("bus down")}
	m := NewManager(newService(), nil, rec, "layouts", 1, rec)
	if err := m.Process(context.Background(), "nats", tripPlan("p", 1)); err == nil {
		t.Fatal("expected publish error")
	}
	if len(rec.failed) != 1 || rec.failed[0] != "nats" {
		t.Errorf("failed = %v", rec.failed)
	}
}

func TestSubmitDropsDuplicatesAndStops(t *testing.T) {
	release := make(chan struct{})
	rec := &recorder{saveBlock: func(ctx context.Context) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}}
	m := NewManager(newService(), rec, nil, "layouts", 4, rec)
	ctx := context.Background()

	if !m.Submit(ctx, "nats", tripPlan("dup", 1)) {
		t.Fatal("first submit rejected")
	}
	if m.Submit(ctx, "nats", tripPlan("dup", 1)) {
		t.Error("duplicate in-flight plan accepted")
	}
	if !m.Submit(ctx, "nats", tripPlan("other", 1)) {
		t.Error("distinct plan rejected")
	}
	close(release)
	deadline := time.Now().Add(5 * time.Second)
	for rec.savedCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("saved = %d plans, want 2", rec.savedCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()

	if m.Submit(ctx, "nats", tripPlan("late", 1)) {
		t.Error("submit after Stop accepted")
	}
}

func TestStopCancelsInFlight(t *testing.T) {
	started := make(chan struct{})
	rec := &recorder{saveBlock: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}
	m := NewManager(newService(), rec, nil, "layouts", 1, rec)
	m.Submit(context.Background(), "nats", tripPlan("slow", 1))
	<-started

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not cancel the in-flight plan")
	}
	if len(rec.saved) != 0 {
		t.Errorf("cancelled plan was saved: %v", rec.saved)
	}
}

func TestStopCancelsPlanWithoutID(t *testing.T) {
	started := make(chan struct{})
	rec := &recorder{saveBlock: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}
	m := NewManager(newService(), rec, nil, "layouts", 1, rec)
	if !m.Submit(context.Background(), "nats", tripPlan("", 1)) {
		t.Fatal("plan without id rejected")
	}
	<-started

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop waited on a plan without id instead of cancelling it")
	}
	if n := rec.savedCount(); n != 0 {
		t.Errorf("cancelled plan was saved %d times", n)
	}
}

func TestSubmitAcceptsPlansWithoutIDConcurrently(t *testing.T) {
	release := make(chan struct{})
	rec := &recorder{saveBlock: func(ctx context.Context) error {
		<-release
		return nil
	}}
	m := NewManager(newService(), rec, nil, "layouts", 2, rec)
	for i := 0; i < 2; i++ {
		if !m.Submit(context.Background(), "nats", tripPlan("", 1)) {
			t.Fatalf("plan %d without id rejected", i)
		}
	}
	close(release)
	deadline := time.Now().Add(5 * time.Second)
	for rec.savedCount() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("saved = %d plans, want 2", rec.savedCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
	m.Stop()
}

func TestReplay(t *testing.T) {
	rec := &recorder{}
	m := NewManager(newService(), rec, nil, "layouts", 1, rec)
	plans := []plan.TripPlan{tripPlan("a", 1), {ID: "broken"}, tripPlan("b", 3)}

	if n := m.Replay(context.Background(), plans); n != 2 {
		t.Errorf("Replay = %d, want 2", n)
	}
	if rec.replayed != 2 || len(rec.saved) != 2 {
		t.Errorf("replayed %d, saved %v", rec.replayed, rec.saved)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if n := m.Replay(ctx, plans); n != 0 {
		t.Errorf("Replay after cancel = %d, want 0", n)
	}
}
