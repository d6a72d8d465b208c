// Package upload drives the end-to-end model upload session: hash the
// packaged artifact, register it with the registry, upload every chunk
// with bounded retries, then finalize and verify.
//
// The session is an explicit state machine (Init -> Hashing ->
// Registering -> Uploading -> Finalizing -> Done, with Failed reachable
// after retries are exhausted). Chunk uploads run either as a strictly
// ordered loop or with bounded parallelism over a worker pool; either
// way acknowledgment bookkeeping is per index, and finalization is
// attempted only once every index has a positive acknowledgment.
// Sessions persisted through a storage.SessionRepository can resume an
// interrupted upload against the same model identifier.
package upload
