package console

import (
	"fmt"
	"io"

	"github.com/threefoldtech/cloud-console/internal/model"
)

// inputBacklog bounds the channel feeding the input writer. Client input
// is low-rate, so a sender blocks briefly when the backlog fills rather
// than dropping keystrokes. The output path makes the opposite trade.
const inputBacklog = 100

// Writer owns the write half of the pty for the process lifetime. Input
// from all client sessions funnels through its channel and is written one
// whole message at a time, so bytes from different clients never
// interleave within a message.
type Writer struct {
	pty   io.Writer
	input chan []byte
	fatal func(error)
}

// NewWriter creates a Writer for the pty write half. The fatal callback
// is invoked, with an error wrapping model.ErrConsoleUnusable, when a pty
// write fails.
func NewWriter(pty io.Writer, fatal func(error)) *Writer {
	return &Writer{
		pty:   pty,
		input: make(chan []byte, inputBacklog),
		fatal: fatal,
	}
}

// Send queues one input message for the pty. The message is copied, is
// never split, and is serialized with messages from other senders in
// arrival order. Send blocks while the backlog is full.
func (w *Writer) Send(p []byte) {
	if len(p) == 0 {
		return
	}
	msg := make([]byte, len(p))
	copy(msg, p)
	w.input <- msg
}

// Run drains the input channel, writing each message to the pty in full
// before receiving the next. It returns after reporting a failed write.
func (w *Writer) Run() {
	for msg := range w.input {
		if err := writeFull(w.pty, msg); err != nil {
			w.fatal(fmt.Errorf("%w: write failed: %v", model.ErrConsoleUnusable, err))
			return
		}
	}
}

// writeFull writes all of p, retrying on short writes.
func writeFull(w io.Writer, p []byte) error {
	for len(p) > 0 {
		n, err := w.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}
