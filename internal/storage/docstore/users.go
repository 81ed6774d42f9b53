package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// GetUserByEmail читает документ пользователя.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "docstore.GetUserByEmail"

	raw, err := s.Db.Get(ctx, userKey(email)).Result()
	if err != nil {
		return nil, remoteErr(op, err)
	}
	user, err := decode[models.User](op, raw)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserRole возвращает только роль пользователя.
func (s *Store) GetUserRole(ctx context.Context, email string) (string, error) {
	const op = "docstore.GetUserRole"

	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return user.Role, nil
}

// ListUsers возвращает всех пользователей, отсортированных по email.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	const op = "docstore.ListUsers"

	emails, err := s.Db.SMembers(ctx, usersCollection).Result()
	if err != nil {
		return nil, remoteErr(op, err)
	}
	sort.Strings(emails)

	keys := make([]string, len(emails))
	for i, email := range emails {
		keys[i] = userKey(email)
	}
	docs, err := s.mget(ctx, op, keys)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, len(docs))
	for _, raw := range docs {
		user, err := decode[models.User](op, raw)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, nil
}

// CreateUser создаёт документ пользователя. Существующий email не перезаписывается:
// в этом случае возвращается models.ErrAlreadyExists.
func (s *Store) CreateUser(ctx context.Context, user models.User) error {
	const op = "docstore.CreateUser"

	body, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	created, err := s.Db.SetNX(ctx, userKey(user.Email), body, 0).Result()
	if err != nil {
		return remoteErr(op, err)
	}
	if !created {
		return fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
	}
	if err = s.Db.SAdd(ctx, usersCollection, user.Email).Err(); err != nil {
		return remoteErr(op, err)
	}
	return nil
}

// mget читает документы по ключам, пропуская исчезнувшие между чтением индекса и документов.
func (s *Store) mget(ctx context.Context, op string, keys []string) ([]string, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	values, err := s.Db.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, remoteErr(op, err)
	}
	docs := make([]string, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		docs = append(docs, raw)
	}
	return docs, nil
}
