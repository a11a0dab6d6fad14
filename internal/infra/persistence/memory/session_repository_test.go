package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"recipes/internal/domain/entity"
	"recipes/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &entity.Session{TokenHash: "h1", UserID: 7, ExpiresAt: now.Add(time.Hour)}))

	found, err := repo.FindByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), found.UserID)

	// Returned sessions are copies.
	found.UserID = 99
	again, err := repo.FindByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), again.UserID)

	require.NoError(t, repo.Renew(ctx, "h1", now.Add(2*time.Hour)))
	again, err = repo.FindByTokenHash(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, again.ExpiresAt.Equal(now.Add(2*time.Hour)))

	require.NoError(t, repo.Delete(ctx, "h1"))
	_, err = repo.FindByTokenHash(ctx, "h1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "h1"), repository.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Renew(ctx, "h1", now), repository.ErrSessionNotFound)
}

func TestSessionRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	now := time.Now().UTC()

	require.NoError(t, repo.Create(ctx, &entity.Session{TokenHash: "old", ExpiresAt: now.Add(-time.Second)}))
	require.NoError(t, repo.Create(ctx, &entity.Session{TokenHash: "edge", ExpiresAt: now}))
	require.NoError(t, repo.Create(ctx, &entity.Session{TokenHash: "live", ExpiresAt: now.Add(time.Hour)}))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	_, err = repo.FindByTokenHash(ctx, "live")
	assert.NoError(t, err)
}

func TestSessionRepository_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository()
	expiresAt := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			hash := fmt.Sprintf("h%d", i)
			assert.NoError(t, repo.Create(ctx, &entity.Session{TokenHash: hash, UserID: int64(i), ExpiresAt: expiresAt}))
			_, err := repo.FindByTokenHash(ctx, hash)
			assert.NoError(t, err)
			assert.NoError(t, repo.Delete(ctx, hash))
		}(i)
	}
	wg.Wait()

	removed, err := repo.DeleteExpired(ctx, expiresAt.Add(time.Second))
	require.NoError(t, err)
	assert.Zero(t, removed)
}
