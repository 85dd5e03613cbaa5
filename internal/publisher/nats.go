package publisher

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"itinerary-layout/internal/layout"
	"itinerary-layout/internal/plan"
)

type NATSPublisher struct {
	nc          *nats.Conn
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("itinerary-layout"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Printf("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Printf("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, logSubjects: logSubjects, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

// PlanHandler is called for every trip plan received on the plan subject.
type PlanHandler func(p plan.TripPlan)

// SubscribePlans decodes plan.TripPlan JSON messages on subject and hands
// them to h. Undecodable messages are logged and dropped. Handlers run on
// the subscription's goroutine, one message at a time.
func (p *NATSPublisher) SubscribePlans(subject string, h PlanHandler) (*nats.Subscription, error) {
	sub, err := p.nc.Subscribe(subject, func(msg *nats.Msg) {
		tp, err := decodePlan(msg.Data)
		if err != nil {
			log.Printf("nats drop message on %s: %v", msg.Subject, err)
			return
		}
		h(tp)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	log.Printf("nats subscribed subject=%s", subject)
	return sub, nil
}

func decodePlan(data []byte) (plan.TripPlan, error) {
	var tp plan.TripPlan
	if err := json.Unmarshal(data, &tp); err != nil {
		return plan.TripPlan{}, fmt.Errorf("decode trip plan: %w", err)
	}
	return tp, nil
}

// LayoutMessage is the per-itinerary document published for renderers.
type LayoutMessage struct {
	PlanID     string                 `json:"planId"`
	Count      int                    `json:"count"` // itineraries in the plan
	ComputedAt time.Time              `json:"computedAt"`
	Bounds     plan.TripPlanBounds    `json:"bounds"`
	Itinerary  layout.ItineraryLayout `json:"itinerary"`
}

// MessagesFor splits a layout result into one message per itinerary.
func MessagesFor(res layout.Result) []LayoutMessage {
	out := make([]LayoutMessage, len(res.Itineraries))
	for i, it := range res.Itineraries {
		out[i] = LayoutMessage{
			PlanID:     res.PlanID,
			Count:      len(res.Itineraries),
			ComputedAt: res.ComputedAt,
			Bounds:     res.Bounds,
			Itinerary:  it,
		}
	}
	return out
}

// PublishLayout publishes msg on <prefix>.<planID>.<index>.
func (p *NATSPublisher) PublishLayout(prefix, planID string, index int, msg LayoutMessage) error {
	subject := LayoutSubject(prefix, planID, index)
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Printf("nats publish subject=%s", subject)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// LayoutSubject builds the subject for one itinerary layout.
func LayoutSubject(prefix, planID string, index int) string {
	return fmt.Sprintf("%s.%s.%d", prefix, subjectToken(planID), index)
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
