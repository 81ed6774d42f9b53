package docstore

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ghibli-explorer/internal/config"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func setupTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.RedisConnection{
		AddressRedis: mr.Addr(),
	}

	store, err := New(context.Background(), cfg, newNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func testReview(id, filmID, author string, at time.Time) models.Review {
	return models.Review{
		ID:      id,
		FilmID:  filmID,
		Author:  author,
		Rating:  4.5,
		Comment: "beautiful",
		Date:    at.UTC(),
	}
}

func TestStore_Users(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	satsuki := models.User{ID: "u1", Email: "satsuki@ghibli.jp", Password: "h1", Name: "Satsuki", Role: models.RoleUser}
	kanta := models.User{ID: "u2", Email: "kanta@ghibli.jp", Password: "h2", Name: "Kanta", Role: models.RoleAdmin}

	require.NoError(t, store.CreateUser(ctx, satsuki))
	require.NoError(t, store.CreateUser(ctx, kanta))

	err := store.CreateUser(ctx, models.User{ID: "u3", Email: "satsuki@ghibli.jp", Password: "other"})
	assert.ErrorIs(t, err, models.ErrAlreadyExists)

	got, err := store.GetUserByEmail(ctx, "satsuki@ghibli.jp")
	require.NoError(t, err)
	assert.Equal(t, satsuki, *got, "existing document is not overwritten")

	role, err := store.GetUserRole(ctx, "kanta@ghibli.jp")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	users, err := store.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "kanta@ghibli.jp", users[0].Email)
	assert.Equal(t, "satsuki@ghibli.jp", users[1].Email)

	_, err = store.GetUserByEmail(ctx, "nobody@ghibli.jp")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = store.GetUserRole(ctx, "nobody@ghibli.jp")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_GetUserByEmail_Malformed(t *testing.T) {
	store, mr := setupTestStore(t)

	require.NoError(t, mr.Set("users:broken@ghibli.jp", "{not json"))

	_, err := store.GetUserByEmail(context.Background(), "broken@ghibli.jp")
	assert.ErrorIs(t, err, models.ErrMalformedResponse)
}

func TestStore_Reviews_QueriesAndIndexes(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.PutReview(ctx, testReview("r2", "totoro", "mei@ghibli.jp", base.Add(time.Hour))))
	require.NoError(t, store.PutReview(ctx, testReview("r1", "totoro", "satsuki@ghibli.jp", base)))
	require.NoError(t, store.PutReview(ctx, testReview("r3", "ponyo", "mei@ghibli.jp", base.Add(2*time.Hour))))

	byFilm, err := store.ListReviewsByFilm(ctx, "totoro")
	require.NoError(t, err)
	require.Len(t, byFilm, 2)
	assert.Equal(t, "r1", byFilm[0].ID, "ordered by date")
	assert.Equal(t, "r2", byFilm[1].ID)

	byAuthor, err := store.ListReviewsByAuthor(ctx, "mei@ghibli.jp")
	require.NoError(t, err)
	assert.Len(t, byAuthor, 2)

	all, err := store.ListReviews(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := store.FindReview(ctx, "totoro", "mei@ghibli.jp")
	require.NoError(t, err)
	assert.Equal(t, "r2", found.ID)

	_, err = store.FindReview(ctx, "ponyo", "satsuki@ghibli.jp")
	assert.ErrorIs(t, err, models.ErrNotFound)

	empty, err := store.ListReviewsByFilm(ctx, "unknown")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestStore_PutReview_OverwriteMovesIndexes(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.PutReview(ctx, testReview("r1", "totoro", "mei@ghibli.jp", at)))
	require.NoError(t, store.PutReview(ctx, testReview("r1", "ponyo", "mei@ghibli.jp", at)))

	assert.Empty(t, mustMembers(t, mr, "reviews:film:totoro"))

	byFilm, err := store.ListReviewsByFilm(ctx, "ponyo")
	require.NoError(t, err)
	require.Len(t, byFilm, 1)
	assert.Equal(t, "r1", byFilm[0].ID)
}

func TestStore_UpdateReview(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	original := testReview("r1", "totoro", "mei@ghibli.jp", at)
	require.NoError(t, store.PutReview(ctx, original))

	edited := original
	edited.Rating = 5
	edited.Comment = "even better the second time"
	require.NoError(t, store.UpdateReview(ctx, edited))

	got, err := store.FindReview(ctx, "totoro", "mei@ghibli.jp")
	require.NoError(t, err)
	assert.Equal(t, edited, *got)

	t.Run("vanished target leaves state unchanged", func(t *testing.T) {
		keysBefore := mr.Keys()
		dumpBefore := mr.Dump()

		ghost := testReview("ghost", "totoro", "mei@ghibli.jp", at)
		err := store.UpdateReview(ctx, ghost)
		assert.ErrorIs(t, err, models.ErrUpdateTargetMissing)

		assert.Equal(t, keysBefore, mr.Keys())
		assert.Equal(t, dumpBefore, mr.Dump())
		assert.False(t, mr.Exists("reviews:ghost"))
	})
}

func TestStore_DeleteReview(t *testing.T) {
	store, mr := setupTestStore(t)
	ctx := context.Background()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.PutReview(ctx, testReview("r1", "totoro", "mei@ghibli.jp", at)))
	got, err := store.GetReview(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, "totoro", got.FilmID)

	require.NoError(t, store.DeleteReview(ctx, "r1"))
	_, err = store.GetReview(ctx, "r1")
	assert.ErrorIs(t, err, models.ErrNotFound)
	require.NoError(t, store.DeleteReview(ctx, "r1"), "deleting twice is not an error")

	assert.False(t, mr.Exists("reviews:r1"))
	all, err := store.ListReviews(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	byAuthor, err := store.ListReviewsByAuthor(ctx, "mei@ghibli.jp")
	require.NoError(t, err)
	assert.Empty(t, byAuthor)
}

func TestStore_NetworkFailure(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	store, err := New(context.Background(), config.RedisConnection{AddressRedis: mr.Addr()}, newNoopLogger())
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	mr.Close()

	_, err = store.GetUserByEmail(context.Background(), "mei@ghibli.jp")
	assert.ErrorIs(t, err, models.ErrNetwork)

	_, err = store.ListReviewsByFilm(context.Background(), "totoro")
	assert.ErrorIs(t, err, models.ErrNetwork)

	assert.ErrorIs(t, store.Ping(context.Background()), models.ErrNetwork)
}

func mustMembers(t *testing.T, mr *miniredis.Miniredis, key string) []string {
	t.Helper()
	members, err := mr.Members(key)
	if err != nil {
		return nil
	}
	return members
}
