// Package password реализует хэширование и проверку паролей.
//
// По умолчанию используется SHA-512 без соли с шестнадцатеричной записью результата:
// в этом формате хранятся пароли уже зарегистрированных пользователей.
// Для новых установок можно включить bcrypt (password.algorithm: bcrypt).
package password

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// Algorithm names.
const (
	AlgorithmSHA512 = "sha512"
	AlgorithmBcrypt = "bcrypt"
)

// Hasher хэширует пароль и сверяет его с сохранённым хэшем.
type Hasher interface {
	GetHash(password string) (string, error)
	CompareHash(originalHash, externalPassword string) error
}

// New возвращает Hasher для указанного алгоритма.
func New(algorithm string) (Hasher, error) {
	switch algorithm {
	case AlgorithmSHA512, "":
		return SHA512{}, nil
	case AlgorithmBcrypt:
		return Bcrypt{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("password.New: unknown algorithm %q", algorithm)
	}
}

// SHA512Hex возвращает SHA-512 дайджест UTF-8 байтов пароля строчными hex-символами (128 знаков).
func SHA512Hex(password string) string {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:])
}

// SHA512 детерминированный хэшер без соли.
type SHA512 struct{}

// GetHash возвращает SHA-512 hex-дайджест пароля.
func (SHA512) GetHash(password string) (string, error) {
	return SHA512Hex(password), nil
}

// CompareHash сравнивает hex-дайджест с введённым паролем.
func (SHA512) CompareHash(originalHash, externalPassword string) error {
	const op = "password.SHA512.CompareHash"
	got := SHA512Hex(externalPassword)
	if subtle.ConstantTimeCompare([]byte(got), []byte(originalHash)) != 1 {
		return fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	return nil
}

// Bcrypt хэшер на основе bcrypt.
type Bcrypt struct {
	Cost int
}

// GetHash принимает пароль пользователя и возвращает его bcrypt‑хэш.
func (b Bcrypt) GetHash(password string) (string, error) {
	const op = "password.Bcrypt.GetHash"
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), b.Cost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashedPassword), nil
}

// CompareHash сравнивает bcrypt‑хэш с введённым паролем.
//
// Несовпадение и повреждённый хэш возвращаются как models.ErrInvalidCredentials.
func (Bcrypt) CompareHash(originalHash, externalPassword string) error {
	const op = "password.Bcrypt.CompareHash"
	err := bcrypt.CompareHashAndPassword([]byte(originalHash), []byte(externalPassword))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrHashTooShort):
		return fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	default:
		return fmt.Errorf("%s: %w: %v", op, models.ErrInvalidCredentials, err)
	}
}
