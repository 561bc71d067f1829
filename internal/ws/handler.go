package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/threefoldtech/cloud-console/internal/audit"
	"github.com/threefoldtech/cloud-console/internal/console"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8192

	// Deadline for writing the final audit record during teardown.
	auditTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The console carries no credentials; origin filtering is left to
		// whatever fronts this process.
		return true
	},
}

// Handler accepts websocket upgrades and runs one client session per
// connection.
type Handler struct {
	hub       *console.Hub
	input     *console.Writer
	queueSize int
	audit     *audit.ConnectionRepository // nil when the audit store is not configured
}

// NewHandler creates a Handler attaching clients to hub with per-client
// queues of queueSize messages, forwarding their input to input.
// auditRepo may be nil.
func NewHandler(hub *console.Hub, input *console.Writer, queueSize int, auditRepo *audit.ConnectionRepository) *Handler {
	return &Handler{
		hub:       hub,
		input:     input,
		queueSize: queueSize,
		audit:     auditRepo,
	}
}

// HandleConnection upgrades the request to a websocket and runs the
// session's pumps for the connection lifetime. It returns immediately
// after starting them.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	sess := &session{
		handler: h,
		conn:    conn,
		sub:     h.hub.SubscribeQueue(h.queueSize),
	}

	if h.audit != nil {
		record, err := h.audit.Begin(r.Context(), conn.RemoteAddr().String())
		if err != nil {
			log.Printf("Failed to record connection: %v", err)
		} else {
			sess.auditID = record.ID
		}
	}

	go sess.writePump()
	go sess.readPump()

	return nil
}

// session is one connected client: a hub subscription drained to the
// websocket and the websocket's frames forwarded to the input writer.
type session struct {
	handler *Handler
	conn    *websocket.Conn
	sub     *console.Subscriber
	auditID string

	bytesSent     atomic.Int64
	bytesReceived atomic.Int64
	teardownOnce  sync.Once
}

// teardown cancels both pumps and unsubscribes from the hub. Closing the
// connection unblocks the read pump; unsubscribing closes the
// subscription queue, which unblocks the write pump.
func (s *session) teardown() {
	s.teardownOnce.Do(func() {
		s.handler.hub.Unsubscribe(s.sub)
		s.conn.Close()

		if s.handler.audit != nil && s.auditID != "" {
			ctx, cancel := context.WithTimeout(context.Background(), auditTimeout)
			defer cancel()
			err := s.handler.audit.Finish(ctx, s.auditID,
				s.bytesSent.Load(), s.bytesReceived.Load(), s.sub.Dropped())
			if err != nil {
				log.Printf("Failed to finish connection record: %v", err)
			}
		}
	})
}

// writePump drains the subscription queue to the websocket as binary
// frames. Chunk boundaries carry no meaning on the wire; each queued
// chunk simply becomes one frame.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.teardown()
	}()

	for {
		select {
		case data, ok := <-s.sub.Out():
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the subscription
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
			s.bytesSent.Add(int64(len(data)))
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump forwards every received frame payload to the input writer as
// one whole input message.
func (s *session) readPump() {
	defer s.teardown()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, payload, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}

		switch msgType {
		case websocket.BinaryMessage, websocket.TextMessage:
			// Text frames are tolerated; their payload is forwarded to the
			// pty verbatim, same as binary.
			if len(payload) == 0 {
				continue
			}
			s.bytesReceived.Add(int64(len(payload)))
			s.handler.input.Send(payload)
		}
	}
}

// SetCheckOrigin sets a custom origin checker for the WebSocket upgrader.
func SetCheckOrigin(fn func(r *http.Request) bool) {
	upgrader.CheckOrigin = fn
}
