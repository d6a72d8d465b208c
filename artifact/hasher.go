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


package artifact

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/poiesic/modelship/core"
)

// DigestBytes computes the SHA-256 content digest of artifact bytes.
// The registry's content-hash field is SHA-256, so the digest algorithm
// is fixed by the wire contract.
func DigestBytes(data []byte) core.Digest {
	return core.Digest(sha256.Sum256(data))
}

// Digest computes the SHA-256 content digest by streaming from r.
// Read failures wrap core.ErrArtifactRead.
func Digest(r io.Reader) (core.Digest, error) {
	var d core.Digest
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return d, fmt.Errorf("%w: %v", core.ErrArtifactRead, err)
	}
	copy(d[:], h.Sum(nil))
	return d, nil
}

// DigestFile computes the SHA-256 content digest of the file at path.
func DigestFile(path string) (core.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Digest{}, fmt.Errorf("%w: %v", core.ErrArtifactRead, err)
	}
	defer f.Close()
	return Digest(f)
}
