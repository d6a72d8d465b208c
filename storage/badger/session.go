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


package badger

import (
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/modelship/core"
	"github.com/poiesic/modelship/storage"
)

// sessionRepository implements storage.SessionRepository for BadgerDB.
type sessionRepository struct {
	backend *Backend
}

var _ storage.SessionRepository = (*sessionRepository)(nil)

// NewSessionRepository creates a session repository on top of backend.
//
// Returns storage.SessionRepository interface to enforce abstraction.
func NewSessionRepository(backend *Backend) (storage.SessionRepository, error) {
	if backend == nil || backend.IsClosed() {
		return nil, storage.ErrStorageClosed
	}
	return &sessionRepository{backend: backend}, nil
}

// SaveSession persists a session, overwriting any prior record.
func (r *sessionRepository) SaveSession(ctx context.Context, session *core.UploadSession) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		session.UpdatedAt = time.Now().UTC()
		key := makeSessionKey(session.Key)
		value := storage.MarshalSession(session)
		if err := tx.Set(key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// LoadSession retrieves the session for a key.
// Returns nil, nil if no session exists.
func (r *sessionRepository) LoadSession(ctx context.Context, key core.SessionKey) (*core.UploadSession, error) {
	var session *core.UploadSession
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeSessionKey(key))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}

		return item.Value(func(val []byte) error {
			var unmarshalErr error
			session, unmarshalErr = storage.UnmarshalSession(val)
			return unmarshalErr
		})
	}, false)

	return session, err
}

// DeleteSession removes the session for a key.
func (r *sessionRepository) DeleteSession(ctx context.Context, key core.SessionKey) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeSessionKey(key)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// ListSessions returns all persisted sessions.
func (r *sessionRepository) ListSessions(ctx context.Context) ([]*core.UploadSession, error) {
	var sessions []*core.UploadSession
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sessionPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				session, unmarshalErr := storage.UnmarshalSession(val)
				if unmarshalErr != nil {
					return unmarshalErr
				}
				sessions = append(sessions, session)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// Close is a no-op; the underlying backend is shared and closed by its
// owner.
func (r *sessionRepository) Close() error {
	return nil
}
