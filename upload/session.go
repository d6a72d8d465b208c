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


package upload

// Phase is the state of an upload session's state machine.
//
//	Init -> Hashing -> Registering -> Uploading -> Finalizing -> Done
//	                                      |
//	                                      v (fatal after exhausting retries)
//	                                   Failed
type Phase int

const (
	// PhaseInit is the state before Run is called.
	PhaseInit Phase = iota
	// PhaseHashing computes the artifact digest.
	PhaseHashing
	// PhaseRegistering registers metadata and obtains the model ID.
	PhaseRegistering
	// PhaseUploading is the per-index chunk upload loop.
	PhaseUploading
	// PhaseFinalizing waits for the registry's digest verification.
	PhaseFinalizing
	// PhaseDone is the successful terminal state.
	PhaseDone
	// PhaseFailed is the fatal terminal state.
	PhaseFailed
)

var phaseNames = map[Phase]string{
	PhaseInit:        "INIT",
	PhaseHashing:     "HASHING",
	PhaseRegistering: "REGISTERING",
	PhaseUploading:   "UPLOADING",
	PhaseFinalizing:  "FINALIZING",
	PhaseDone:        "DONE",
	PhaseFailed:      "FAILED",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "UNKNOWN"
}

// Terminal reports whether the session has reached a final state.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}
