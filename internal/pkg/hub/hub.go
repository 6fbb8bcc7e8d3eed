package hub

import (
	"sync"

	"github.com/grihenrik/videotranscribe/internal/pkg/cmdapp"
	"github.com/grihenrik/videotranscribe/internal/pkg/job"
)

const subscriberBuffer = 16

// Listener gets every published event, used for side wiring
// like amqp forwarding, emails or batch roll-up
type Listener func(sn job.Snapshot)

// Subscription delivers events for one job id until the job ends
type Subscription struct {
	// C yields state change events in publish order
	C     chan job.Snapshot
	jobID string
}

// Hub broadcasts job state changes to per job subscribers.
// Delivery is best effort: a slow subscriber loses events, the publisher
// never blocks. Late subscribers get no past events.
type Hub struct {
	lock        sync.Mutex
	subscribers map[string][]*Subscription
	listeners   []Listener
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{subscribers: make(map[string][]*Subscription)}
}

// AddListener registers a process wide event listener.
// Listeners are invoked on their own goroutine per event.
func (h *Hub) AddListener(l Listener) {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.listeners = append(h.listeners, l)
}

// Subscribe attaches an observer to a job id
func (h *Hub) Subscribe(jobID string) *Subscription {
	h.lock.Lock()
	defer h.lock.Unlock()
	s := &Subscription{C: make(chan job.Snapshot, subscriberBuffer), jobID: jobID}
	h.subscribers[jobID] = append(h.subscribers[jobID], s)
	return s
}

// Unsubscribe detaches the observer. Safe to call after the job ended.
func (h *Hub) Unsubscribe(s *Subscription) {
	if s == nil {
		return
	}
	h.lock.Lock()
	defer h.lock.Unlock()
	subs, found := h.subscribers[s.jobID]
	if !found {
		return
	}
	for i, cs := range subs {
		if cs == s {
			h.subscribers[s.jobID] = append(subs[:i], subs[i+1:]...)
			close(cs.C)
			break
		}
	}
	if len(h.subscribers[s.jobID]) == 0 {
		delete(h.subscribers, s.jobID)
	}
}

// Publish broadcasts one state change to every subscriber of the job.
// A terminal event also closes and releases the job's subscriber list.
// Deliveries never block, so the whole fan-out stays a short critical section.
func (h *Hub) Publish(sn job.Snapshot) {
	h.lock.Lock()
	terminal := job.Terminal(sn.Status)
	for _, s := range h.subscribers[sn.ID] {
		select {
		case s.C <- sn:
		default:
			cmdapp.Log.Warnf("Dropped event %s for slow subscriber", sn.ID)
		}
		if terminal {
			close(s.C)
		}
	}
	if terminal {
		delete(h.subscribers, sn.ID)
	}
	listeners := h.listeners
	h.lock.Unlock()

	for _, l := range listeners {
		go l(sn)
	}
}
