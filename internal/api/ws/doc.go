// Package ws streams registry changes to the host UI over a WebSocket.
//
// On connect the server sends the full state, then one message per change.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - snapshot: Ask for the full state again
//   - refresh: Ask for a manifest refresh
//
// Message Types (Server → Client):
//   - snapshot: Full registry state
//   - event: One registry change
//   - pong: Reply to ping
//   - error: Error occurred
//
// Example Usage:
//
//	handler := ws.NewHandler(reg, logger, metrics)
//	router.GET("/stream", handler.HandleConnection)
package ws
