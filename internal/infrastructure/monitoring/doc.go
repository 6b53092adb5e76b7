/*
Package monitoring provides Prometheus metrics for the micro-app shell.

Tracked:
  - HTTP requests (by route template and status)
  - Manifest refreshes (outcome, served variant, duration)
  - Micro-app loads, degraded relative imports, renders
  - Registry resets and discarded stale results
  - Open event streams

Usage:

	metrics := monitoring.NewMetrics(nil)
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))
*/
package monitoring
