// Package console implements the session multiplexer: the broadcast hub
// that owns the history buffer and fans console output out to every
// subscriber, the reader loop that owns the pty read half, the input
// writer that owns the pty write half, and the optional log sink.
//
// Output path: pty -> Reader -> Hub -> {History, every Subscriber}.
// Input path: client session -> Writer -> pty.
//
// The hub is the only shared mutable state. Its operations complete in
// bounded time: offers to subscriber queues never block, a saturated
// subscriber simply loses the chunk.
package console
