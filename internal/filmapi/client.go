// Package filmapi содержит HTTP-клиент публичного API фильмов студии Ghibli.
//
// Клиент не кэширует ответы и не повторяет запросы: повтором считается повторный вызов операции.
package filmapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// DefaultBaseURL адрес публичного API.
const DefaultBaseURL = "https://ghibliapi.vercel.app/"

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "ghibli_film_api_requests_total",
	Help: "Запросы к API фильмов по эндпоинту и результату.",
}, []string{"endpoint", "outcome"})

// Client HTTP-клиент API фильмов.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// New создаёт клиент. Пустой baseURL заменяется на DefaultBaseURL, timeout 0 отключает таймаут.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("filmapi.New: invalid base url %q: %w", baseURL, err)
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger.With(slog.String("component", "film_api")),
	}, nil
}

// GetFilms запрашивает полный каталог фильмов.
// GET /films
func (c *Client) GetFilms(ctx context.Context) ([]models.Film, error) {
	const op = "filmapi.GetFilms"

	var films []models.Film
	if err := c.get(ctx, op, "films", "/films", &films); err != nil {
		return nil, err
	}
	if films == nil {
		films = []models.Film{}
	}
	return films, nil
}

// GetFilmByID запрашивает один фильм. Ответ 404 возвращается как models.ErrNotFound.
// GET /films/{id}
func (c *Client) GetFilmByID(ctx context.Context, id string) (*models.Film, error) {
	const op = "filmapi.GetFilmByID"

	var film models.Film
	if err := c.get(ctx, op, "film", "/films/"+url.PathEscape(id), &film); err != nil {
		return nil, err
	}
	return &film, nil
}

func (c *Client) get(ctx context.Context, op, endpoint, path string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
		if errors.Is(err, context.Canceled) {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: %w: %w", op, models.ErrNetwork, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		requestsTotal.WithLabelValues(endpoint, "not_found").Inc()
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("film api returned unexpected status",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("%s: %w: %d", op, models.ErrUnexpectedStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		requestsTotal.WithLabelValues(endpoint, "malformed").Inc()
		return fmt.Errorf("%s: %w: %w", op, models.ErrMalformedResponse, err)
	}
	requestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return nil
}
