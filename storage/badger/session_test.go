package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/modelship/core"
	"github.com/poiesic/modelship/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (repo storage.SessionRepository, cleanup func()) {
	sessions, backend, err := NewMemorySessionRepository()
	require.NoError(t, err)
	return sessions, func() {
		sessions.Close()
		backend.Close()
	}
}

func testSession(name string, version int) *core.UploadSession {
	session := &core.UploadSession{
		Key:        core.SessionKeyFor(name, version),
		ModelID:    "reg-7",
		Name:       name,
		Version:    version,
		ChunkSize:  4096,
		ChunkCount: 3,
		Acked:      []bool{true, false, false},
		State:      core.StateUploading,
		CreatedAt:  time.Now().UTC(),
	}
	for i := range session.Digest {
		session.Digest[i] = byte(i)
	}
	return session
}

func TestSessionRepository_SaveAndLoad(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	session := testSession("embed-model", 1)
	require.NoError(t, repo.SaveSession(ctx, session))

	loaded, err := repo.LoadSession(ctx, session.Key)
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, session.ModelID, loaded.ModelID)
	assert.Equal(t, session.Digest, loaded.Digest)
	assert.Equal(t, session.Acked, loaded.Acked)
	assert.Equal(t, core.StateUploading, loaded.State)
	assert.False(t, loaded.UpdatedAt.IsZero(), "SaveSession should stamp UpdatedAt")
}

func TestSessionRepository_LoadMissing(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	loaded, err := repo.LoadSession(context.Background(), core.SessionKeyFor("never-saved", 1))
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSessionRepository_Overwrite(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	session := testSession("embed-model", 1)
	require.NoError(t, repo.SaveSession(ctx, session))

	session.Acked[1] = true
	session.State = core.StateUploaded
	require.NoError(t, repo.SaveSession(ctx, session))

	loaded, err := repo.LoadSession(ctx, session.Key)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, []bool{true, true, false}, loaded.Acked)
	assert.Equal(t, core.StateUploaded, loaded.State)
}

func TestSessionRepository_Delete(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	session := testSession("embed-model", 1)
	require.NoError(t, repo.SaveSession(ctx, session))
	require.NoError(t, repo.DeleteSession(ctx, session.Key))

	loaded, err := repo.LoadSession(ctx, session.Key)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting a missing session is not an error.
	require.NoError(t, repo.DeleteSession(ctx, session.Key))
}

func TestSessionRepository_List(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.SaveSession(ctx, testSession("model-a", 1)))
	require.NoError(t, repo.SaveSession(ctx, testSession("model-b", 2)))

	sessions, err := repo.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)

	names := map[string]bool{}
	for _, s := range sessions {
		names[s.Name] = true
	}
	assert.True(t, names["model-a"])
	assert.True(t, names["model-b"])
}
