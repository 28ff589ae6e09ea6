package book

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRepositoryContract runs the behaviour every backend must share.
// unknownID must be well formed for the backend but name no record.
func testRepositoryContract(t *testing.T, repo Repository, unknownID string) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		b, err := repo.Create(ctx, Fields{Title: "Dune", Author: "Herbert", PublishYear: 1965})
		require.NoError(t, err)
		assert.NotEmpty(t, b.ID)
		assert.Nil(t, b.ImageURL)
		assert.False(t, b.CreatedAt.IsZero())

		got, err := repo.Get(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune", got.Title)
		assert.Equal(t, 1965, got.PublishYear)
		assert.Nil(t, got.ImageURL)
	})

	t.Run("rejects empty image url", func(t *testing.T) {
		empty := ""
		_, err := repo.Create(ctx, Fields{Title: "Dune", Author: "Herbert", PublishYear: 1965, ImageURL: &empty})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("partial update keeps image", func(t *testing.T) {
		url := "https://covers.example.com/a.png"
		b, err := repo.Create(ctx, Fields{Title: "Emma", Author: "Austen", PublishYear: 1815, ImageURL: &url})
		require.NoError(t, err)

		title := "Persuasion"
		updated, err := repo.Update(ctx, b.ID, Patch{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "Persuasion", updated.Title)
		assert.Equal(t, "Austen", updated.Author)
		require.NotNil(t, updated.ImageURL)
		assert.Equal(t, url, *updated.ImageURL)
		assert.False(t, updated.UpdatedAt.Before(b.UpdatedAt))
	})

	t.Run("delete returns the record", func(t *testing.T) {
		b, err := repo.Create(ctx, Fields{Title: "Ulysses", Author: "Joyce", PublishYear: 1922})
		require.NoError(t, err)

		deleted, err := repo.Delete(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, b.ID, deleted.ID)

		_, err = repo.Get(ctx, b.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = repo.Delete(ctx, b.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		books, err := repo.List(ctx)
		require.NoError(t, err)
		for _, got := range books {
			assert.NotEqual(t, b.ID, got.ID)
		}
	})

	t.Run("list includes created records", func(t *testing.T) {
		b, err := repo.Create(ctx, Fields{Title: "Beloved", Author: "Morrison", PublishYear: 1987})
		require.NoError(t, err)

		books, err := repo.List(ctx)
		require.NoError(t, err)
		var found bool
		for _, got := range books {
			if got.ID == b.ID {
				found = true
			}
		}
		assert.True(t, found)
	})

	t.Run("unknown ids", func(t *testing.T) {
		for _, id := range []string{unknownID, "not-an-id"} {
			_, err := repo.Get(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound, id)
			title := "x"
			_, err = repo.Update(ctx, id, Patch{Title: &title})
			assert.ErrorIs(t, err, ErrNotFound, id)
			_, err = repo.Delete(ctx, id)
			assert.ErrorIs(t, err, ErrNotFound, id)
		}
	})

	t.Run("ping", func(t *testing.T) {
		assert.NoError(t, repo.Ping(ctx))
	})
}
