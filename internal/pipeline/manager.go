// Package pipeline runs trip plans received from the bus or the store
// through the layout service and delivers the results.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"sync"

	"itinerary-layout/internal/layout"
	"itinerary-layout/internal/plan"
	"itinerary-layout/internal/publisher"
)

// Store persists the latest layout of a plan.
type Store interface {
	SaveLayout(ctx context.Context, planID string, res layout.Result) error
}

// Publisher delivers one message per itinerary.
type Publisher interface {
	PublishLayout(prefix, planID string, index int, msg publisher.LayoutMessage) error
}

type Metrics interface {
	LayoutFailed(source string)
	PlanReplayed()
}

type Manager struct {
	svc           *layout.Service
	store         Store
	pub           Publisher
	subjectPrefix string
	metrics       Metrics

	sem chan struct{} // bounds concurrent layouts

	mu       sync.Mutex
	seq      uint64
	running  map[uint64]context.CancelFunc // submission -> cancel
	inFlight map[string]struct{}           // plan IDs being processed
	stopped  bool
	wg       sync.WaitGroup
}

// NewManager builds a manager running at most workers layouts at a time.
// store, pub and m may be nil.
func NewManager(svc *layout.Service, store Store, pub Publisher, subjectPrefix string, workers int, m Metrics) *Manager {
	if workers <= 0 {
		workers = 1
	}
	return &Manager{
		svc:           svc,
		store:         store,
		pub:           pub,
		subjectPrefix: subjectPrefix,
		metrics:       m,
		sem:           make(chan struct{}, workers),
		running:       make(map[uint64]context.CancelFunc),
		inFlight:      make(map[string]struct{}),
	}
}

// Submit lays out p in the background. A plan whose ID is already in flight
// is dropped, as is anything submitted after Stop. It reports whether p was
// accepted.
func (m *Manager) Submit(parent context.Context, source string, p plan.TripPlan) bool {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return false
	}
	if _, exists := m.inFlight[p.ID]; exists && p.ID != "" {
		m.mu.Unlock()
		log.Printf("plan %s already in flight, dropping duplicate from %s", p.ID, source)
		return false
	}
	ctx, cancel := context.WithCancel(parent)
	m.seq++
	key := m.seq
	m.running[key] = cancel
	if p.ID != "" {
		m.inFlight[p.ID] = struct{}{}
	}
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()
		defer func() {
			cancel()
			m.mu.Lock()
			delete(m.running, key)
			if p.ID != "" {
				delete(m.inFlight, p.ID)
			}
			m.mu.Unlock()
		}()
		select {
		case m.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-m.sem }()
		if err := m.Process(ctx, source, p); err != nil {
			log.Printf("plan %s error: %v", p.ID, err)
		}
	}()
	return true
}

// Process lays out p and delivers the result synchronously.
func (m *Manager) Process(ctx context.Context, source string, p plan.TripPlan) error {
	res, err := m.svc.LayoutWith(p, layout.Request{Source: source})
	if err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.store != nil {
		if err := m.store.SaveLayout(ctx, res.PlanID, res); err != nil {
			m.failed(source)
			return err
		}
	}
	if m.pub != nil {
		for i, msg := range publisher.MessagesFor(res) {
			if err := m.pub.PublishLayout(m.subjectPrefix, res.PlanID, i, msg); err != nil {
				m.failed(source)
				return fmt.Errorf("publish itinerary %d: %w", i, err)
			}
		}
	}
	return nil
}

// Replay processes stored plans in order and returns how many succeeded.
// It stops early when ctx is cancelled.
func (m *Manager) Replay(ctx context.Context, plans []plan.TripPlan) int {
	ok := 0
	for _, p := range plans {
		if ctx.Err() != nil {
			break
		}
		if err := m.Process(ctx, "replay", p); err != nil {
			log.Printf("replay plan %s: %v", p.ID, err)
			continue
		}
		ok++
		if m.metrics != nil {
			m.metrics.PlanReplayed()
		}
	}
	return ok
}

// Stop refuses new plans, cancels the ones in flight and waits for them.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.stopped = true
	for _, cancel := range m.running {
		cancel()
	}
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *Manager) failed(source string) {
	if m.metrics != nil {
		m.metrics.LayoutFailed(source)
	}
}
