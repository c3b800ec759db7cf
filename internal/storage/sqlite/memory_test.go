package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexyujiuqiao/IM/internal/core"
)

func newTestRepo(t *testing.T) *MemoryRepo {
	t.Helper()

	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "im.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewMemoryRepo(db)
}

func TestMemoryRepoRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	rec := &core.MemoryRecord{
		Profile: core.UserProfile{
			UserID:            "u1",
			Name:              "Dana",
			Hobbies:           []string{"hiking"},
			InteractionCount:  3,
			LastInteractionAt: time.Now().UTC().Truncate(time.Second),
		},
		RecentBuffer: []core.Turn{
			{Role: core.RoleUser, Content: "hi", CreatedAt: time.Now().UTC().Truncate(time.Second)},
		},
		RollingSummary: "short history",
	}

	require.NoError(t, repo.Put(ctx, "u1", rec))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Dana", got.Profile.Name)
	assert.Equal(t, 3, got.Profile.InteractionCount)
	assert.Equal(t, []string{"hiking"}, got.Profile.Hobbies)
	require.Len(t, got.RecentBuffer, 1)
	assert.Equal(t, "hi", got.RecentBuffer[0].Content)
	assert.Equal(t, "short history", got.RollingSummary)
}

func TestMemoryRepoGetMissingUser(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Get(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryRepoPutOverwrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "u1", &core.MemoryRecord{
		Profile:        core.UserProfile{UserID: "u1", InteractionCount: 1},
		RollingSummary: "v1",
	}))
	require.NoError(t, repo.Put(ctx, "u1", &core.MemoryRecord{
		Profile:        core.UserProfile{UserID: "u1", InteractionCount: 2},
		RollingSummary: "v2",
	}))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Profile.InteractionCount)
	assert.Equal(t, "v2", got.RollingSummary)
}

func TestMemoryRepoDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, "u1", &core.MemoryRecord{
		Profile: core.UserProfile{UserID: "u1"},
	}))
	require.NoError(t, repo.Delete(ctx, "u1"))

	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.NoError(t, repo.Delete(ctx, "u1"), "deleting an absent user is not an error")
}
