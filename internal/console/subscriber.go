package console

import "sync"

// DefaultQueueSize is the default per-subscriber outbound queue capacity,
// counted in messages.
const DefaultQueueSize = 256

// Subscriber is one sink of broadcast console output: a connected client
// or the log sink. The hub offers output chunks to its bounded queue
// without blocking; a chunk offered while the queue is full is dropped
// for this subscriber only and counted.
//
// A subscriber is owned jointly by the hub, which broadcasts into the
// queue, and by exactly one drain task consuming Out.
type Subscriber struct {
	out chan []byte

	mu      sync.Mutex
	closed  bool
	dropped int64
}

func newSubscriber(queueSize int) *Subscriber {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Subscriber{
		out: make(chan []byte, queueSize),
	}
}

// Out returns the receive side of the outbound queue. The channel is
// closed when the subscriber is removed from the hub.
func (s *Subscriber) Out() <-chan []byte {
	return s.out
}

// offer enqueues p without blocking. Callers must not mutate p after the
// call: the same chunk is shared by every subscriber.
func (s *Subscriber) offer(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	select {
	case s.out <- p:
	default:
		s.dropped++
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}

// Closed reports whether the subscriber has been removed from the hub.
func (s *Subscriber) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Dropped returns the number of chunks discarded because the queue was
// full at the moment of the offer.
func (s *Subscriber) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
