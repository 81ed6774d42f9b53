package reviews

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ghibli-explorer/internal/events"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

type OnlineReviewsMock struct {
	mock.Mock
}

func (m *OnlineReviewsMock) reviews(args mock.Arguments) ([]models.Review, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *OnlineReviewsMock) review(args mock.Arguments) (*models.Review, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *OnlineReviewsMock) GetReviewsForFilm(ctx context.Context, filmID string) ([]models.Review, error) {
	return m.reviews(m.Called(ctx, filmID))
}

func (m *OnlineReviewsMock) GetReviewsForAllFilms(ctx context.Context) ([]models.Review, error) {
	return m.reviews(m.Called(ctx))
}

func (m *OnlineReviewsMock) GetReviewsByAuthor(ctx context.Context, email string) ([]models.Review, error) {
	return m.reviews(m.Called(ctx, email))
}

func (m *OnlineReviewsMock) GetReviewByID(ctx context.Context, id string) (*models.Review, error) {
	return m.review(m.Called(ctx, id))
}

func (m *OnlineReviewsMock) GetReviewAndAuthorForFilm(ctx context.Context, filmID, author string) (*models.Review, error) {
	return m.review(m.Called(ctx, filmID, author))
}

func (m *OnlineReviewsMock) AddReview(ctx context.Context, review models.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *OnlineReviewsMock) EditReview(ctx context.Context, review models.Review) error {
	return m.Called(ctx, review).Error(0)
}

func (m *OnlineReviewsMock) DeleteReview(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, key string, payload any) error {
	return m.Called(ctx, key, payload).Error(0)
}

var fixedNow = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func setup() (*Service, *OnlineReviewsMock, *PublisherMock) {
	remote := new(OnlineReviewsMock)
	pub := new(PublisherMock)
	svc := New(newNoopLogger(), remote, pub)
	svc.now = func() time.Time { return fixedNow }
	return svc, remote, pub
}

func review(id, filmID, author string) models.Review {
	return models.Review{ID: id, FilmID: filmID, Author: author, Rating: 4, Comment: "lovely", Date: fixedNow.Add(-time.Hour)}
}

func TestService_GetReviewsForFilm(t *testing.T) {
	svc, remote, _ := setup()
	list := []models.Review{review("r1", "totoro", "mei@ghibli.jp"), review("r2", "totoro", "satsuki@ghibli.jp")}
	remote.On("GetReviewsForFilm", mock.Anything, "totoro").Return(list, nil).Once()

	state := svc.GetReviewsForFilm(context.Background(), "totoro")

	assert.Equal(t, viewstate.Success, state.Kind)
	assert.Equal(t, list, state.Data)
	assert.Equal(t, state, svc.Reviews.Current())

	got, ok := svc.GetUserReviewForFilm("totoro", "satsuki@ghibli.jp")
	require.True(t, ok)
	assert.Equal(t, "r2", got.ID)
	_, ok = svc.GetUserReviewForFilm("totoro", "kanta@ghibli.jp")
	assert.False(t, ok)
}

func TestService_GetAllReviews_Empty(t *testing.T) {
	svc, remote, _ := setup()
	remote.On("GetReviewsForAllFilms", mock.Anything).Return(nil, nil).Once()

	state := svc.GetAllReviews(context.Background())

	assert.Equal(t, viewstate.Success, state.Kind)
	assert.NotNil(t, state.Data)
	assert.Empty(t, state.Data)
}

func TestService_GetUserReviews_NetworkError(t *testing.T) {
	svc, remote, _ := setup()
	remote.On("GetReviewsByAuthor", mock.Anything, "mei@ghibli.jp").Return(nil, models.ErrNetwork).Once()

	state := svc.GetUserReviews(context.Background(), "mei@ghibli.jp")

	assert.Equal(t, viewstate.Error, state.Kind)
	assert.ErrorIs(t, state.Err, models.ErrNetwork)
	assert.Equal(t, "network", state.Category())
	_, ok := svc.GetUserReviewForFilm("totoro", "mei@ghibli.jp")
	assert.False(t, ok)
}

func TestService_AddReview(t *testing.T) {
	svc, remote, pub := setup()
	actor := Actor{Email: "mei@ghibli.jp"}

	var stored models.Review
	remote.On("AddReview", mock.Anything, mock.AnythingOfType("models.Review")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(models.Review) }).
		Return(nil).Once()
	pub.On("Publish", mock.Anything, events.ReviewCreated, mock.Anything).Return(nil).Once()
	remote.On("GetReviewsForFilm", mock.Anything, "totoro").Return([]models.Review{}, nil).Once()

	created, err := svc.AddReview(context.Background(), actor, "totoro", 5, "  the catbus!  ")

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "mei@ghibli.jp", created.Author)
	assert.Equal(t, "the catbus!", created.Comment)
	assert.Equal(t, fixedNow, created.Date)
	assert.Equal(t, *created, stored)
	remote.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestService_AddReview_Validation(t *testing.T) {
	tests := []struct {
		name   string
		filmID string
		rating float32
	}{
		{"empty film", "", 3},
		{"negative rating", "totoro", -1},
		{"rating too high", "totoro", 5.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, remote, _ := setup()

			_, err := svc.AddReview(context.Background(), Actor{Email: "mei@ghibli.jp"}, tt.filmID, tt.rating, "x")

			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Equal(t, viewstate.Error, svc.Reviews.Current().Kind)
			remote.AssertNotCalled(t, "AddReview", mock.Anything, mock.Anything)
		})
	}
}

func TestService_EditReview(t *testing.T) {
	svc, remote, pub := setup()
	original := review("r1", "totoro", "mei@ghibli.jp")
	remote.On("GetReviewByID", mock.Anything, "r1").Return(&original, nil).Once()
	remote.On("EditReview", mock.Anything, mock.MatchedBy(func(r models.Review) bool {
		return r.ID == "r1" && r.FilmID == "totoro" && r.Author == "mei@ghibli.jp" && r.Rating == 2 && r.Comment == "rainy"
	})).Return(nil).Once()
	pub.On("Publish", mock.Anything, events.ReviewEdited, mock.Anything).Return(nil).Once()
	remote.On("GetReviewsForFilm", mock.Anything, "totoro").Return([]models.Review{original}, nil).Once()

	updated, err := svc.EditReview(context.Background(), Actor{Email: "mei@ghibli.jp"}, "r1", 2, "rainy")

	require.NoError(t, err)
	assert.Equal(t, float32(2), updated.Rating)
	assert.Equal(t, viewstate.Success, svc.Reviews.Current().Kind)
	remote.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestService_EditReview_Vanished(t *testing.T) {
	t.Run("gone before edit", func(t *testing.T) {
		svc, remote, pub := setup()
		remote.On("GetReviewByID", mock.Anything, "r1").Return(nil, models.ErrNotFound).Once()

		_, err := svc.EditReview(context.Background(), Actor{Email: "mei@ghibli.jp"}, "r1", 3, "x")

		assert.ErrorIs(t, err, models.ErrUpdateTargetMissing)
		state := svc.Reviews.Current()
		assert.Equal(t, viewstate.Error, state.Kind)
		assert.Equal(t, "update_target_missing", state.Category())
		remote.AssertNotCalled(t, "EditReview", mock.Anything, mock.Anything)
		remote.AssertNotCalled(t, "AddReview", mock.Anything, mock.Anything)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("gone during edit", func(t *testing.T) {
		svc, remote, pub := setup()
		original := review("r1", "totoro", "mei@ghibli.jp")
		remote.On("GetReviewByID", mock.Anything, "r1").Return(&original, nil).Once()
		remote.On("EditReview", mock.Anything, mock.Anything).Return(models.ErrUpdateTargetMissing).Once()

		_, err := svc.EditReview(context.Background(), Actor{Email: "mei@ghibli.jp"}, "r1", 3, "x")

		assert.ErrorIs(t, err, models.ErrUpdateTargetMissing)
		assert.Equal(t, viewstate.Error, svc.Reviews.Current().Kind)
		remote.AssertNotCalled(t, "AddReview", mock.Anything, mock.Anything)
		remote.AssertNotCalled(t, "GetReviewsForFilm", mock.Anything, mock.Anything)
		pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestService_EditReview_Forbidden(t *testing.T) {
	svc, remote, _ := setup()
	original := review("r1", "totoro", "mei@ghibli.jp")
	remote.On("GetReviewByID", mock.Anything, "r1").Return(&original, nil).Once()

	_, err := svc.EditReview(context.Background(), Actor{Email: "kanta@ghibli.jp"}, "r1", 1, "x")

	assert.ErrorIs(t, err, models.ErrForbidden)
	remote.AssertNotCalled(t, "EditReview", mock.Anything, mock.Anything)
}

func TestService_DeleteReview(t *testing.T) {
	t.Run("admin deletes and last query is repeated", func(t *testing.T) {
		svc, remote, pub := setup()
		original := review("r1", "totoro", "mei@ghibli.jp")
		remote.On("GetReviewsForAllFilms", mock.Anything).Return([]models.Review{original}, nil).Once()
		svc.GetAllReviews(context.Background())

		remote.On("GetReviewByID", mock.Anything, "r1").Return(&original, nil).Once()
		remote.On("DeleteReview", mock.Anything, "r1").Return(nil).Once()
		pub.On("Publish", mock.Anything, events.ReviewDeleted, mock.Anything).Return(nil).Once()
		remote.On("GetReviewsForAllFilms", mock.Anything).Return([]models.Review{}, nil).Once()

		err := svc.DeleteReview(context.Background(), Actor{Email: "admin@ghibli.jp", Admin: true}, "r1")

		require.NoError(t, err)
		state := svc.Reviews.Current()
		assert.Equal(t, viewstate.Success, state.Kind)
		assert.Empty(t, state.Data)
		remote.AssertExpectations(t)
		remote.AssertNotCalled(t, "GetReviewsForFilm", mock.Anything, mock.Anything)
	})

	t.Run("missing review is not an error", func(t *testing.T) {
		svc, remote, _ := setup()
		remote.On("GetReviewByID", mock.Anything, "r9").Return(nil, models.ErrNotFound).Once()

		err := svc.DeleteReview(context.Background(), Actor{Email: "mei@ghibli.jp"}, "r9")

		require.NoError(t, err)
		remote.AssertNotCalled(t, "DeleteReview", mock.Anything, mock.Anything)
	})

	t.Run("other author is rejected", func(t *testing.T) {
		svc, remote, _ := setup()
		original := review("r1", "totoro", "mei@ghibli.jp")
		remote.On("GetReviewByID", mock.Anything, "r1").Return(&original, nil).Once()

		err := svc.DeleteReview(context.Background(), Actor{Email: "kanta@ghibli.jp"}, "r1")

		assert.ErrorIs(t, err, models.ErrForbidden)
		remote.AssertNotCalled(t, "DeleteReview", mock.Anything, mock.Anything)
	})
}

func TestService_FindUserReviewForFilm(t *testing.T) {
	svc, remote, _ := setup()
	found := review("r1", "totoro", "mei@ghibli.jp")
	remote.On("GetReviewAndAuthorForFilm", mock.Anything, "totoro", "mei@ghibli.jp").Return(&found, nil).Once()
	remote.On("GetReviewAndAuthorForFilm", mock.Anything, "totoro", "kanta@ghibli.jp").Return(nil, models.ErrNotFound).Once()

	got, err := svc.FindUserReviewForFilm(context.Background(), "totoro", "mei@ghibli.jp")
	require.NoError(t, err)
	assert.Equal(t, "r1", got.ID)

	_, err = svc.FindUserReviewForFilm(context.Background(), "totoro", "kanta@ghibli.jp")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
