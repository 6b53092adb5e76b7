// Package server wires the shell backend together.
//
// It builds every component from configuration:
//   - zap logger and Prometheus metrics
//   - fetch client shared by the manifest fetcher and the bundle loader
//   - registry manager with its periodic refresher
//   - gin router with the middleware stack, the JSON API and the event stream
//
// Server Lifecycle:
//  1. Load configuration from environment, overlay file and flags
//  2. Build components and routes
//  3. Start the refresher and the HTTP listener
//  4. Shut down gracefully when the context ends
//
// Example Usage:
//
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer srv.Close()
//	err = srv.Run(ctx)
package server
