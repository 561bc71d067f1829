package model

import "time"

// Connection is the audit record for one websocket client connection.
// Records are written when the audit store is configured and are purely
// observational: the data path never depends on them.
type Connection struct {
	ID             string     `json:"id"`
	RemoteAddr     string     `json:"remoteAddr"`
	ConnectedAt    time.Time  `json:"connectedAt"`
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty"`
	BytesSent      int64      `json:"bytesSent"`
	BytesReceived  int64      `json:"bytesReceived"`
	DroppedChunks  int64      `json:"droppedChunks"`
}

// Duration returns how long the connection has been (or was) open.
func (c *Connection) Duration() time.Duration {
	if c.DisconnectedAt != nil {
		return c.DisconnectedAt.Sub(c.ConnectedAt)
	}
	return time.Since(c.ConnectedAt)
}
