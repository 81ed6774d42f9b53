package films

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
	"github.com/magabrotheeeer/ghibli-explorer/internal/viewstate"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) GetFilms(ctx context.Context) viewstate.State[[]models.Film] {
	return m.Called(ctx).Get(0).(viewstate.State[[]models.Film])
}

func (m *ServiceMock) GetFilmByID(ctx context.Context, id string) (*models.Film, error) {
	args := m.Called(ctx, id)
	if res := args.Get(0); res != nil {
		return res.(*models.Film), args.Error(1)
	}
	return nil, args.Error(1)
}

func newRouter(svc Service) http.Handler {
	h := New(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})), svc)
	r := chi.NewRouter()
	r.Get("/films", h.List)
	r.Get("/films/{id}", h.Get)
	return r
}

func TestHandler_List(t *testing.T) {
	tests := []struct {
		name         string
		state        viewstate.State[[]models.Film]
		wantStatus   int
		wantState    string
		wantCategory string
	}{
		{
			name:       "success",
			state:      viewstate.NewSuccess([]models.Film{{ID: "f1", Title: "Castle in the Sky"}}),
			wantStatus: http.StatusOK,
			wantState:  "success",
		},
		{
			name:         "no session",
			state:        viewstate.NewError[[]models.Film](fmt.Errorf("films.GetFilms: %w", models.ErrNoSession)),
			wantStatus:   http.StatusUnauthorized,
			wantState:    "error",
			wantCategory: "no_session",
		},
		{
			name:         "empty catalogue",
			state:        viewstate.NewError[[]models.Film](models.ErrEmptyCatalogue),
			wantStatus:   http.StatusBadGateway,
			wantState:    "error",
			wantCategory: "empty_catalogue",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			svc.On("GetFilms", mock.Anything).Return(tt.state).Once()

			rec := httptest.NewRecorder()
			newRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/films", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.wantState, got["state"])
			if tt.wantCategory != "" {
				assert.Equal(t, tt.wantCategory, got["category"])
			} else {
				assert.Len(t, got["data"], 1)
			}
		})
	}
}

func TestHandler_Get(t *testing.T) {
	svc := new(ServiceMock)
	svc.On("GetFilmByID", mock.Anything, "f1").Return(&models.Film{ID: "f1", Title: "Castle in the Sky"}, nil).Once()
	svc.On("GetFilmByID", mock.Anything, "nope").Return(nil, fmt.Errorf("filmapi: %w", models.ErrNotFound)).Once()
	router := newRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/films/f1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"title":"Castle in the Sky"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/films/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"status":"Error","error":"could not get film"}`, rec.Body.String())
}
