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


package core

import (
	"errors"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for types persisted in the local session store.
// Written by hand against the mus-go primitives; field order is the
// wire format and must not change between releases.

var errShortBuffer = errors.New("buffer too small for digest")

// SessionKeyMUS serializes SessionKey values.
var SessionKeyMUS = sessionKeyMUS{}

type sessionKeyMUS struct{}

func (sessionKeyMUS) Marshal(k SessionKey, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(k), bs)
}

func (sessionKeyMUS) Unmarshal(bs []byte) (k SessionKey, n int, err error) {
	v, n, err := varint.Uint64.Unmarshal(bs)
	return SessionKey(v), n, err
}

func (sessionKeyMUS) Size(k SessionKey) (size int) {
	return varint.Uint64.Size(uint64(k))
}

// UploadSessionMUS serializes UploadSession records.
var UploadSessionMUS = uploadSessionMUS{}

type uploadSessionMUS struct{}

func (uploadSessionMUS) Marshal(s UploadSession, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(s.Key), bs)
	n += ord.String.Marshal(string(s.ModelID), bs[n:])
	n += ord.String.Marshal(s.Name, bs[n:])
	n += varint.Int.Marshal(s.Version, bs[n:])
	n += copy(bs[n:], s.Digest[:])
	n += varint.Int.Marshal(s.ChunkSize, bs[n:])
	n += varint.Int.Marshal(s.ChunkCount, bs[n:])
	n += varint.Int.Marshal(len(s.Acked), bs[n:])
	for _, a := range s.Acked {
		n += ord.Bool.Marshal(a, bs[n:])
	}
	n += ord.String.Marshal(string(s.State), bs[n:])
	n += varint.Int64.Marshal(s.CreatedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(s.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (uploadSessionMUS) Unmarshal(bs []byte) (s UploadSession, n int, err error) {
	var m int

	key, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return s, n, err
	}
	s.Key = SessionKey(key)

	modelID, m, err := ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}
	s.ModelID = ModelID(modelID)

	s.Name, m, err = ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}

	s.Version, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}

	if len(bs[n:]) < DigestSize {
		return s, n, errShortBuffer
	}
	copy(s.Digest[:], bs[n:n+DigestSize])
	n += DigestSize

	s.ChunkSize, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}

	s.ChunkCount, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}

	var ackedLen int
	ackedLen, m, err = varint.Int.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}
	if ackedLen > 0 {
		s.Acked = make([]bool, ackedLen)
		for i := 0; i < ackedLen; i++ {
			s.Acked[i], m, err = ord.Bool.Unmarshal(bs[n:])
			n += m
			if err != nil {
				return s, n, err
			}
		}
	}

	state, m, err := ord.String.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}
	s.State = ModelState(state)

	var createdAt, updatedAt int64
	createdAt, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}
	updatedAt, m, err = varint.Int64.Unmarshal(bs[n:])
	n += m
	if err != nil {
		return s, n, err
	}
	s.CreatedAt = time.UnixMicro(createdAt).UTC()
	s.UpdatedAt = time.UnixMicro(updatedAt).UTC()

	return s, n, nil
}

func (uploadSessionMUS) Size(s UploadSession) (size int) {
	size = varint.Uint64.Size(uint64(s.Key))
	size += ord.String.Size(string(s.ModelID))
	size += ord.String.Size(s.Name)
	size += varint.Int.Size(s.Version)
	size += DigestSize
	size += varint.Int.Size(s.ChunkSize)
	size += varint.Int.Size(s.ChunkCount)
	size += varint.Int.Size(len(s.Acked))
	for _, a := range s.Acked {
		size += ord.Bool.Size(a)
	}
	size += ord.String.Size(string(s.State))
	size += varint.Int64.Size(s.CreatedAt.UnixMicro())
	size += varint.Int64.Size(s.UpdatedAt.UnixMicro())
	return size
}
