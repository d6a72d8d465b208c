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


package storage

import (
	"fmt"

	"github.com/poiesic/modelship/core"
)

// MarshalSessionKey serializes a SessionKey to bytes.
func MarshalSessionKey(key core.SessionKey) []byte {
	buf := make([]byte, core.SessionKeyMUS.Size(key))
	core.SessionKeyMUS.Marshal(key, buf)
	return buf
}

// UnmarshalSessionKey deserializes a SessionKey from bytes.
func UnmarshalSessionKey(data []byte) (core.SessionKey, error) {
	key, _, err := core.SessionKeyMUS.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return key, nil
}

// MarshalSession serializes an UploadSession to bytes.
func MarshalSession(session *core.UploadSession) []byte {
	buf := make([]byte, core.UploadSessionMUS.Size(*session))
	core.UploadSessionMUS.Marshal(*session, buf)
	return buf
}

// UnmarshalSession deserializes an UploadSession from bytes.
func UnmarshalSession(data []byte) (*core.UploadSession, error) {
	session, _, err := core.UploadSessionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return &session, nil
}
