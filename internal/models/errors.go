package models

import "errors"

// Категории ошибок. Слои ниже оборачивают их через %w, слой состояний хранит их без потери категории.
var (
	ErrNetwork             = errors.New("network failure")
	ErrMalformedResponse   = errors.New("malformed response")
	ErrUnexpectedStatus    = errors.New("unexpected status")
	ErrNotFound            = errors.New("not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUpdateTargetMissing = errors.New("update target missing")
	ErrAlreadyExists       = errors.New("already exists")
	ErrNoSession           = errors.New("no active session")
	ErrEmptyCatalogue      = errors.New("empty film catalogue")
	ErrValidation          = errors.New("validation failed")
	ErrForbidden           = errors.New("forbidden")
)

var categories = []struct {
	err  error
	name string
}{
	{ErrNetwork, "network"},
	{ErrMalformedResponse, "malformed_response"},
	{ErrUnexpectedStatus, "unexpected_status"},
	{ErrNotFound, "not_found"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrUpdateTargetMissing, "update_target_missing"},
	{ErrAlreadyExists, "already_exists"},
	{ErrNoSession, "no_session"},
	{ErrEmptyCatalogue, "empty_catalogue"},
	{ErrValidation, "validation"},
	{ErrForbidden, "forbidden"},
}

// Category возвращает имя категории ошибки: "" для nil и "internal" для неизвестных ошибок.
func Category(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range categories {
		if errors.Is(err, c.err) {
			return c.name
		}
	}
	return "internal"
}
