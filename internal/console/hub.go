package console

import (
	"sync"

	"github.com/threefoldtech/cloud-console/internal/buffer"
)

// DefaultHistorySize is the default history capacity in bytes. 80 columns
// by 2000 rows, with the columns halved because most lines are only
// partially filled. The history tracks raw bytes, not lines, so this is a
// heuristic, not a row count.
const DefaultHistorySize = 80 / 2 * 2000

// Hub is the broadcast hub: sole owner of the history buffer and of the
// set of active subscribers. Ingest, Subscribe and Unsubscribe are
// serialized by one mutex, so a chunk ingested concurrently with a
// subscription is either part of the new subscriber's history preload or
// delivered to its queue live, never both and never neither.
type Hub struct {
	mu          sync.Mutex
	history     *buffer.History
	subscribers map[*Subscriber]struct{}
}

// NewHub creates a Hub whose history buffer holds historySize bytes.
// A historySize of zero or less uses DefaultHistorySize.
func NewHub(historySize int) *Hub {
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}
	return &Hub{
		history:     buffer.NewHistory(historySize),
		subscribers: make(map[*Subscriber]struct{}),
	}
}

// Ingest records one chunk of console output in the history buffer and
// offers it to every active subscriber. Offers never block: a subscriber
// whose queue is full loses this chunk, and only this subscriber is
// affected. Ingest completes in bounded time regardless of how slowly
// any subscriber drains.
func (h *Hub) Ingest(p []byte) {
	if len(p) == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history.Append(p)

	if len(h.subscribers) == 0 {
		return
	}

	// One copy shared by all subscribers; the caller may reuse p.
	chunk := make([]byte, len(p))
	copy(chunk, p)

	for s := range h.subscribers {
		s.offer(chunk)
	}
}

// Subscribe registers a new subscriber with the default queue size.
func (h *Hub) Subscribe() *Subscriber {
	return h.SubscribeQueue(DefaultQueueSize)
}

// SubscribeQueue registers a new subscriber whose queue holds queueSize
// messages. The queue is pre-loaded with the current history snapshot as
// its first message, so the subscriber receives the recent past followed
// seamlessly by live output.
func (h *Hub) SubscribeQueue(queueSize int) *Subscriber {
	s := newSubscriber(queueSize)

	h.mu.Lock()
	defer h.mu.Unlock()

	// The queue is freshly created and holds at least one message, so the
	// snapshot preload cannot overflow it.
	if snapshot := h.history.Snapshot(); len(snapshot) > 0 {
		s.out <- snapshot
	}
	h.subscribers[s] = struct{}{}

	return s
}

// Unsubscribe removes s from the active set and closes its queue.
// It is idempotent; unsubscribing an unknown subscriber is harmless.
func (h *Hub) Unsubscribe(s *Subscriber) {
	if s == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subscribers[s]; !ok {
		return
	}
	delete(h.subscribers, s)
	s.close()
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// HistoryLen returns the number of bytes currently buffered.
func (h *Hub) HistoryLen() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.history.Len()
}
