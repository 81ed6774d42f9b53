// Package session хранит маркер сессии в локальном файле настроек устройства.
//
// Файл хранит JSON-объект "ключ → строка". Маркер сессии лежит под ключом user_email,
// остальные ключи сохраняются без изменений. Запись атомарна: временный файл и rename.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// KeyUserEmail ключ маркера сессии.
const KeyUserEmail = "user_email"

// Store файловое хранилище настроек.
type Store struct {
	mu   sync.Mutex
	path string
}

// New создаёт хранилище; каталог файла создаётся при первой записи.
func New(path string) *Store {
	return &Store{path: path}
}

// SaveUserEmail сохраняет email пользователя как маркер сессии.
func (s *Store) SaveUserEmail(email string) error {
	const op = "session.SaveUserEmail"
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	values[KeyUserEmail] = email
	if err = s.write(values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetUserEmail возвращает маркер сессии; ok=false, если его нет.
// Нечитаемый файл считается отсутствием сессии.
func (s *Store) GetUserEmail() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		return "", false
	}
	email, ok := values[KeyUserEmail]
	if !ok || email == "" {
		return "", false
	}
	return email, true
}

// Clear удаляет маркер сессии.
func (s *Store) Clear() error {
	const op = "session.Clear"
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.read()
	if err != nil {
		values = map[string]string{}
	}
	if _, ok := values[KeyUserEmail]; !ok && err == nil {
		return nil
	}
	delete(values, KeyUserEmail)
	if err = s.write(values); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Store) read() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err = json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func (s *Store) write(values map[string]string) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}
