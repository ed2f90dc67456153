// Package natsline is a client for a text-line-framed pub/sub broker: one
// socket, one session, four primitives (publish, subscribe, request/reply,
// and durable stream consumption via the stream subpackage). Dispatch is
// single-threaded and cooperative — Process must be called to pump the
// socket; there is no background reader, so a Subscribe handler runs only
// on whichever goroutine calls Process.
package natsline
