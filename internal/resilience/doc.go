// Package resilience shields upstream data fetches from unreliable
// services: jittered exponential-backoff retry, a three-state circuit
// breaker, a sliding-window rate limiter, and a TTL fallback cache, plus a
// [Shield] that composes all four in front of a fetch function.
//
// Every component is an explicitly constructed instance taking its own
// clock and logger; there are no package-level singletons, so tests run
// against isolated instances and production can scope lifetimes per
// jurisdiction. Instances serialize their own internal state with a mutex
// but callers should still treat one instance as guarding one upstream.
package resilience
