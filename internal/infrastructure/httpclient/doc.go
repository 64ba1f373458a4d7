// Package httpclient is the outbound HTTP stack shared by the provider
// adapters: resty for request building, retryablehttp for transport-level
// retries, a token bucket limiter, and one circuit breaker per upstream.
// Every call is timed into the upstream metrics.
package httpclient
