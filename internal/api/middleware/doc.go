// Package middleware holds the gin middleware stack of the shell API:
// CORS, per-client rate limiting, request ids and request logging.
package middleware
