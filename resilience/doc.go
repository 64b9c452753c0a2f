// Package resilience provides the typed error taxonomy and the guard
// primitives (retry with backoff, timeout racing, circuit breaking,
// fallback) used to protect calls made through the server.
//
// Every primitive owns its own state: a breaker returned by
// CircuitBreaker is safe for concurrent use but must not be shared
// between unrelated operations.
package resilience
