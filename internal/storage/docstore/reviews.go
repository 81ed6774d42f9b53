package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// ListReviewsByFilm возвращает отзывы к фильму.
func (s *Store) ListReviewsByFilm(ctx context.Context, filmID string) ([]models.Review, error) {
	const op = "docstore.ListReviewsByFilm"
	return s.listByIndex(ctx, op, filmIndexKey(filmID))
}

// ListReviewsByAuthor возвращает отзывы автора.
func (s *Store) ListReviewsByAuthor(ctx context.Context, email string) ([]models.Review, error) {
	const op = "docstore.ListReviewsByAuthor"
	return s.listByIndex(ctx, op, authorIndexKey(email))
}

// ListReviews возвращает все отзывы.
func (s *Store) ListReviews(ctx context.Context) ([]models.Review, error) {
	const op = "docstore.ListReviews"
	return s.listByIndex(ctx, op, reviewsCollection)
}

// GetReview возвращает отзыв по id или models.ErrNotFound.
func (s *Store) GetReview(ctx context.Context, id string) (*models.Review, error) {
	const op = "docstore.GetReview"
	return s.getReview(ctx, op, id)
}

// FindReview возвращает самый ранний отзыв автора к фильму или models.ErrNotFound.
func (s *Store) FindReview(ctx context.Context, filmID, author string) (*models.Review, error) {
	const op = "docstore.FindReview"

	ids, err := s.Db.SInter(ctx, filmIndexKey(filmID), authorIndexKey(author)).Result()
	if err != nil {
		return nil, remoteErr(op, err)
	}
	reviews, err := s.loadReviews(ctx, op, ids)
	if err != nil {
		return nil, err
	}
	if len(reviews) == 0 {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return &reviews[0], nil
}

// PutReview создаёт или перезаписывает отзыв по id и обновляет индексы.
func (s *Store) PutReview(ctx context.Context, review models.Review) error {
	const op = "docstore.PutReview"

	body, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	previous, err := s.getReview(ctx, op, review.ID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return err
	}

	_, err = s.Db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		writeReview(ctx, pipe, review, previous, body)
		return nil
	})
	if err != nil {
		return remoteErr(op, err)
	}
	return nil
}

// UpdateReview перезаписывает существующий отзыв. Если документа с таким id нет,
// ничего не создаётся и возвращается models.ErrUpdateTargetMissing.
func (s *Store) UpdateReview(ctx context.Context, review models.Review) error {
	const op = "docstore.UpdateReview"
	log := s.log.With(sl.Op(op), slog.String("review_id", review.ID))

	body, err := json.Marshal(review)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	key := reviewKey(review.ID)
	err = s.Db.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			return models.ErrUpdateTargetMissing
		}
		if err != nil {
			return err
		}
		previous, err := decode[models.Review](op, raw)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			writeReview(ctx, pipe, review, &previous, body)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrUpdateTargetMissing):
		log.Warn("review not found, nothing updated")
		return fmt.Errorf("%s: %w", op, err)
	case errors.Is(err, models.ErrMalformedResponse):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return fmt.Errorf("%s: concurrent modification: %w", op, err)
	default:
		return remoteErr(op, err)
	}
}

// DeleteReview удаляет отзыв и его записи в индексах. Отсутствующий отзыв не считается ошибкой.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	const op = "docstore.DeleteReview"

	previous, err := s.getReview(ctx, op, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	_, err = s.Db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, reviewKey(id))
		pipe.SRem(ctx, reviewsCollection, id)
		pipe.SRem(ctx, filmIndexKey(previous.FilmID), id)
		pipe.SRem(ctx, authorIndexKey(previous.Author), id)
		return nil
	})
	if err != nil {
		return remoteErr(op, err)
	}
	return nil
}

func writeReview(ctx context.Context, pipe redis.Pipeliner, review models.Review, previous *models.Review, body []byte) {
	if previous != nil {
		if previous.FilmID != review.FilmID {
			pipe.SRem(ctx, filmIndexKey(previous.FilmID), review.ID)
		}
		if previous.Author != review.Author {
			pipe.SRem(ctx, authorIndexKey(previous.Author), review.ID)
		}
	}
	pipe.Set(ctx, reviewKey(review.ID), body, 0)
	pipe.SAdd(ctx, reviewsCollection, review.ID)
	pipe.SAdd(ctx, filmIndexKey(review.FilmID), review.ID)
	pipe.SAdd(ctx, authorIndexKey(review.Author), review.ID)
}

func (s *Store) getReview(ctx context.Context, op, id string) (*models.Review, error) {
	raw, err := s.Db.Get(ctx, reviewKey(id)).Result()
	if err != nil {
		return nil, remoteErr(op, err)
	}
	review, err := decode[models.Review](op, raw)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *Store) listByIndex(ctx context.Context, op, index string) ([]models.Review, error) {
	ids, err := s.Db.SMembers(ctx, index).Result()
	if err != nil {
		return nil, remoteErr(op, err)
	}
	return s.loadReviews(ctx, op, ids)
}

// loadReviews читает документы отзывов и сортирует их по дате, затем по id.
func (s *Store) loadReviews(ctx context.Context, op string, ids []string) ([]models.Review, error) {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = reviewKey(id)
	}
	docs, err := s.mget(ctx, op, keys)
	if err != nil {
		return nil, err
	}

	reviews := make([]models.Review, 0, len(docs))
	for _, raw := range docs {
		review, err := decode[models.Review](op, raw)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	sort.Slice(reviews, func(i, j int) bool {
		if reviews[i].Date.Equal(reviews[j].Date) {
			return reviews[i].ID < reviews[j].ID
		}
		return reviews[i].Date.Before(reviews[j].Date)
	})
	return reviews, nil
}
