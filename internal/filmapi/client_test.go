package filmapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const filmsBody = `[
	{
		"id": "2baf70d1-42bb-4437-b551-e5fed5a87abe",
		"title": "Castle in the Sky",
		"original_title": "天空の城ラピュタ",
		"original_title_romanised": "Tenkū no shiro Rapyuta",
		"image": "https://image.tmdb.org/t/p/w600_and_h900_bestv2/npOnzAbLh6VOIu3naU5QaEcTepo.jpg",
		"description": "The orphan Sheeta inherited a mysterious crystal.",
		"director": "Hayao Miyazaki",
		"producer": "Isao Takahata",
		"release_date": "1986",
		"running_time": "124",
		"rt_score": "95"
	},
	{
		"id": "12cfb892-aac0-4c5b-94af-521852e46d6a",
		"title": "Grave of the Fireflies",
		"release_date": "1988",
		"running_time": "89"
	}
]`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL+"/", time.Second, newNoopLogger())
	require.NoError(t, err)
	return c
}

func TestClient_GetFilms(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/films", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, filmsBody)
	})

	films, err := c.GetFilms(context.Background())
	require.NoError(t, err)
	require.Len(t, films, 2)

	assert.Equal(t, "Castle in the Sky", films[0].Title)
	assert.Equal(t, "Tenkū no shiro Rapyuta", films[0].OriginalTitleRomanised)
	assert.Equal(t, models.Minutes(124), films[0].RunningTime)
	assert.Equal(t, "Grave of the Fireflies", films[1].Title)
}

func TestClient_GetFilms_EmptyList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	films, err := c.GetFilms(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, films)
	assert.Empty(t, films)
}

func TestClient_GetFilmByID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/films/58611129-2dbc-4a81-a72f-77ddfc1b1b49" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"id":"58611129-2dbc-4a81-a72f-77ddfc1b1b49","title":"My Neighbor Totoro","running_time":"86"}`)
	})

	film, err := c.GetFilmByID(context.Background(), "58611129-2dbc-4a81-a72f-77ddfc1b1b49")
	require.NoError(t, err)
	assert.Equal(t, "My Neighbor Totoro", film.Title)
	assert.Equal(t, models.Minutes(86), film.RunningTime)

	_, err = c.GetFilmByID(context.Background(), "unknown")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
			wantErr: models.ErrUnexpectedStatus,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"id": oops`)
			},
			wantErr: models.ErrMalformedResponse,
		},
		{
			name: "wrong shape",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = io.WriteString(w, `{"id":"not-a-list"}`)
			},
			wantErr: models.ErrMalformedResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, tt.handler)
			_, err := c.GetFilms(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := New(addr, time.Second, newNoopLogger())
	require.NoError(t, err)

	_, err = c.GetFilms(context.Background())
	assert.ErrorIs(t, err, models.ErrNetwork)
}

func TestNew_DefaultsAndValidation(t *testing.T) {
	c, err := New("", 0, newNoopLogger())
	require.NoError(t, err)
	assert.Equal(t, "https://ghibliapi.vercel.app", c.baseURL)
	assert.Equal(t, time.Duration(0), c.httpClient.Timeout)

	_, err = New("not a url", 0, newNoopLogger())
	assert.Error(t, err)
}
