// Package mock provides a test double implementation of registry.Client.
//
// MockRegistry is a full in-memory registry: it keeps real per-chunk
// acknowledgment state, treats re-sent chunks as idempotent duplicates,
// and recomputes the content digest at finalization exactly as a remote
// registry would. Tests can additionally inject transient failures per
// chunk index to exercise the orchestrator's retry path.
package mock
