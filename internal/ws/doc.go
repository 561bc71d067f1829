// Package ws pairs websocket client connections with the console
// multiplexer. Each accepted connection becomes one client session: a
// drain pump sending the session's hub subscription as binary frames,
// and a read pump forwarding received frame payloads to the input
// writer. Either pump failing tears both down and unsubscribes from the
// hub exactly once; nothing outside the session is affected.
package ws
