package console

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Sink drains a hub subscription into an io.WriteCloser, typically the
// optional append-only log file. A sink is an ordinary subscriber: the
// same drop-on-full policy applies when it falls behind. Unlike the pty,
// a failed sink write is not fatal; the sink detaches and the rest of the
// system keeps running.
type Sink struct {
	name string
	dst  io.WriteCloser
	hub  *Hub
	sub  *Subscriber
	done chan struct{}
}

// AttachFileSink opens path in append/create mode and registers it as a
// subscriber of hub. An open failure here is a startup failure; the
// caller treats it as fatal.
func AttachFileSink(hub *Hub, path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return AttachSink(hub, path, f), nil
}

// AttachSink registers dst as a subscriber of hub and starts the drain
// task writing every received chunk to it verbatim.
func AttachSink(hub *Hub, name string, dst io.WriteCloser) *Sink {
	s := &Sink{
		name: name,
		dst:  dst,
		hub:  hub,
		sub:  hub.Subscribe(),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Sink) run() {
	defer close(s.done)
	defer s.dst.Close()

	for data := range s.sub.Out() {
		if _, err := s.dst.Write(data); err != nil {
			log.Printf("Log sink %s failed, detaching: %v", s.name, err)
			s.hub.Unsubscribe(s.sub)
			return
		}
	}
}

// Detach unsubscribes the sink from the hub. The drain task writes out
// anything still queued, then closes the destination.
func (s *Sink) Detach() {
	s.hub.Unsubscribe(s.sub)
}

// Done returns a channel closed once the drain task has exited and the
// destination is closed.
func (s *Sink) Done() <-chan struct{} {
	return s.done
}

// Dropped returns the number of chunks this sink lost to backpressure.
func (s *Sink) Dropped() int64 {
	return s.sub.Dropped()
}
