// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package storage provides the local session-store abstraction for
// modelship.
//
// Upload sessions record which chunk indices the registry has
// acknowledged, keyed by the model's name and version. Persisting them
// lets an interrupted upload resume against the same model identifier
// instead of starting over.
//
// # Constructor Return Type Pattern
//
// Public constructors return interfaces to enforce abstraction and
// enable multiple storage backend implementations:
//
//	sessions, err := badger.NewSessionRepository(backend)  // returns storage.SessionRepository
//
// Internal package constructors may return concrete types since
// they're only used within the implementation package.
//
// # Thread Safety
//
// All repository implementations must be thread-safe: with parallel
// chunk uploads enabled, acknowledgments are persisted from multiple
// goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
