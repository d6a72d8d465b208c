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


// Package opensearch implements registry.Client against the
// OpenSearch ML commons model upload API.
//
// It maps the client operations onto three endpoints:
//
//	POST /_plugins/_ml/models/meta          registration
//	POST /_plugins/_ml/models/{id}/chunk/{n}  chunk upload (raw bytes)
//	GET  /_plugins/_ml/models/{id}          status
//
// Finalization has no dedicated endpoint; the registry verifies the
// content hash after the last chunk arrives, so Finalize polls the
// status endpoint until the model reaches a terminal state.
//
// The HTTP client is injected by the caller, which keeps
// authentication and TLS configuration outside this package.
//
//	client, err := opensearch.New("http://localhost:9200", nil)
package opensearch
