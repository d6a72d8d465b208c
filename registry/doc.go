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


// Package registry defines the client interface to a cluster's model
// registry.
//
// The registry owns the model registration record: metadata, the
// registered digest, the expected chunk count, and per-chunk
// acknowledgment state. This package defines the operations the upload
// protocol needs; concrete implementations live in subpackages
// (opensearch for the HTTP client, mock for tests).
//
// All operations are idempotent where the protocol requires it:
// re-sending an already-acknowledged chunk returns the prior
// acknowledgment rather than erroring, which makes retries safe.
package registry
