// Package transport connects UI processes to a running engine over
// socket.io.
//
// Clients emit "command" events whose payload is a CBOR-encoded command
// (binary) or the same structure as a plain JSON object. The server forwards
// every decoded command, in arrival order, into the engine's command pipe
// and broadcasts each engine notification as a binary "notification" event.
// A "sync" event is answered with "synced" carrying the number of commands
// the connection has delivered so far.
package transport

const (
	eventCommand      = "command"
	eventNotification = "notification"
	eventSync         = "sync"
	eventSynced       = "synced"
)
