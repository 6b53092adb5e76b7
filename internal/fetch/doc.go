// Package fetch retrieves manifest documents and bundle source text over HTTP(S).
//
// Every request carries explicit no-cache directives because both manifests
// and bundles are mutable and polled. The client stacks, from the outside in:
//
//   - a token-bucket limiter (golang.org/x/time/rate)
//   - a circuit breaker per host (internal/infrastructure/resilience)
//   - resty with retries on transport errors, 429 and 5xx
//   - a pooled transport from hashicorp/go-retryablehttp
//
// Bundle bodies are sniffed with mimetype so that an HTML error page served
// with status 200 is rejected before it ever reaches the sandbox.
package fetch
