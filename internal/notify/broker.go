// Package notify provides the in-process publish/subscribe fan-out used to
// push workflow progress updates to observers without ever blocking the
// pipeline.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Update is one progress event for a workflow run.
type Update struct {
	RunID     string    `json:"workflow_id"`
	Status    string    `json:"status"`
	Stage     string    `json:"current_stage"`
	Progress  float64   `json:"progress"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls this far behind is dropped rather than allowed to stall publishing.
const subscriberBuffer = 16

type subscriber struct {
	runID string
	ch    chan Update
}

// Broker fans out updates to subscribers keyed by run id. Publishing never
// blocks: slow subscribers are unsubscribed and their channels closed.
type Broker struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

// NewBroker creates an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[*subscriber]struct{})}
}

// Subscribe registers an observer for one run's updates. The returned cancel
// function removes the subscription and closes the channel; it is safe to
// call more than once.
func (b *Broker) Subscribe(runID string) (<-chan Update, func()) {
	sub := &subscriber{runID: runID, ch: make(chan Update, subscriberBuffer)}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.remove(sub)
		})
	}
	return sub.ch, cancel
}

// Publish delivers an update to every subscriber of the run. Delivery is
// best-effort per observer; a full buffer drops that observer only.
func (b *Broker) Publish(u Update) {
	if u.Timestamp.IsZero() {
		u.Timestamp = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		if sub.runID != u.RunID {
			continue
		}
		select {
		case sub.ch <- u:
		default:
			zap.L().Warn("notify: dropping slow subscriber",
				zap.String("run_id", u.RunID),
			)
			delete(b.subs, sub)
			close(sub.ch)
		}
	}
}

// SubscriberCount returns the number of live subscriptions for a run.
func (b *Broker) SubscriberCount(runID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for sub := range b.subs {
		if sub.runID == runID {
			n++
		}
	}
	return n
}

func (b *Broker) remove(sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}
