/*
Package resilience provides circuit breakers for outbound fetches.

The shell polls manifests every few seconds and fetches bundles on demand. When a
bundle host is down, repeated attempts only add latency to the fallback path, so
each host gets its own breaker through a Group:

	breakers := resilience.NewGroup("fetch", resilience.Settings{
		Timeout: 30 * time.Second,
	})
	body, err := resilience.Do(breakers.Get(host), func() (string, error) {
		return get(url)
	}, isServerFailure)

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open

Results that arrive after a state change belong to an older generation and are
ignored.
*/
package resilience
