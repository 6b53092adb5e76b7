// Package main is the entry point for the super-app shell backend.
//
// The shell discovers micro-apps through a published manifest, loads their
// bundles into sandboxed JavaScript runtimes and serves the reconciled
// registry state to the host UI.
//
//	Host UI → Shell Backend → Manifest + bundle host (primary or fallback)
//
// The server provides:
//   - REST API for the app grid, loading, props and rendering
//   - WebSocket stream of registry changes
//   - Prometheus metrics
//
// Configuration:
//   - Defaults for development
//   - Optional YAML file (--config or SHELL_CONFIG_FILE)
//   - Environment variables
//   - CLI flags (override everything else)
//
// Usage:
//
//	# Production mode
//	./server --port 8000 --manifest-url https://cdn.example.com/apps
//
//	# Development mode (colored logs, debug level)
//	./server --dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
