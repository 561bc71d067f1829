package console

import (
	"fmt"
	"io"

	"github.com/threefoldtech/cloud-console/internal/model"
)

// readBufferSize is the chunk size for pty reads.
const readBufferSize = 4096

// Reader owns the read half of the pty for the process lifetime. It pumps
// output chunks into the hub until the device fails. There is no recovery
// from a failed pty: it is the sole reason the process exists, so the
// failure is reported through the fatal callback and ends the process.
type Reader struct {
	pty   io.Reader
	hub   *Hub
	fatal func(error)
}

// NewReader creates a Reader pumping from pty into hub. The fatal
// callback is invoked exactly once, with an error wrapping
// model.ErrConsoleUnusable, when the pty read half fails.
func NewReader(pty io.Reader, hub *Hub, fatal func(error)) *Reader {
	return &Reader{pty: pty, hub: hub, fatal: fatal}
}

// Run blocks reading the pty until it fails or reaches EOF, then reports
// the terminal condition and returns.
func (r *Reader) Run() {
	buf := make([]byte, readBufferSize)
	for {
		n, err := r.pty.Read(buf)
		if n > 0 {
			r.hub.Ingest(buf[:n])
		}
		if err != nil {
			r.fatal(fmt.Errorf("%w: read failed: %v", model.ErrConsoleUnusable, err))
			return
		}
		if n == 0 {
			// A zero-byte read means the guest closed its end.
			r.fatal(fmt.Errorf("%w: read returned no data", model.ErrConsoleUnusable))
			return
		}
	}
}
