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


// Package verify probes a published model through its serving endpoint.
//
// A successful registry upload proves the artifact arrived intact; it
// does not prove the cluster can actually run the model. The verifier
// closes that gap by embedding a small set of probe texts through the
// endpoint the model is served behind and checking the returned
// vectors against the registered model configuration: every probe must
// come back with the declared embedding dimension and finite values.
package verify
