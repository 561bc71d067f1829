// Package buffer provides the bounded history store for console output.
package buffer

// History is a bounded FIFO byte store holding the most recent console
// output. When an append would exceed the capacity, the oldest bytes are
// discarded so that exactly the most recent bytes are retained.
//
// History carries no locking of its own: the broadcast hub holds the only
// reference and serializes every access under its own lock.
type History struct {
	data     []byte
	capacity int
}

// NewHistory creates a History with the given capacity in bytes.
// A capacity of zero or less defaults to 1.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Append adds p to the buffer, evicting the oldest bytes when the
// capacity would be exceeded. Append is the only mutation.
func (h *History) Append(p []byte) {
	if len(p) == 0 {
		return
	}

	// Incoming chunk alone exceeds capacity: keep only its tail.
	if len(p) >= h.capacity {
		h.data = h.data[:h.capacity]
		copy(h.data, p[len(p)-h.capacity:])
		return
	}

	newLen := len(h.data) + len(p)
	if newLen <= h.capacity {
		h.data = append(h.data, p...)
		return
	}

	// Evict just enough of the oldest bytes to fit the new chunk.
	discard := newLen - h.capacity
	kept := copy(h.data, h.data[discard:])
	h.data = append(h.data[:kept], p...)
}

// Snapshot returns a copy of the current contents in emission order.
// The returned slice is independent of the buffer.
func (h *History) Snapshot() []byte {
	if len(h.data) == 0 {
		return nil
	}
	out := make([]byte, len(h.data))
	copy(out, h.data)
	return out
}

// Len returns the current number of buffered bytes.
func (h *History) Len() int {
	return len(h.data)
}

// Cap returns the capacity of the buffer.
func (h *History) Cap() int {
	return h.capacity
}
