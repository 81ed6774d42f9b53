// Package middlewarectx содержит HTTP middleware локального API.
//
// JWTMiddleware проверяет bearer-токен из заголовка Authorization и сверяет его с активной
// сессией устройства: токен, выданный до выхода или другому пользователю, отклоняется.
// В контекст кладутся email, роль и id пользователя сессии. AdminOnly пропускает только роль Admin.
// В случае ошибки проверки возвращается HTTP 401 или 403 с сообщением об ошибке.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/ghibli-explorer/internal/http/response"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/jwt"
	"github.com/magabrotheeeer/ghibli-explorer/internal/lib/sl"
	"github.com/magabrotheeeer/ghibli-explorer/internal/models"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

const (
	// Email — ключ для email пользователя в контексте
	Email Key = "email"
	// Role — ключ для роли пользователя в контексте
	Role Key = "role"
	// UserID — ключ для id пользователя в контексте
	UserID Key = "user_id"
)

// TokenParser разбирает bearer-токены.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// SessionResolver возвращает пользователя активной сессии устройства.
type SessionResolver interface {
	ActiveUser(ctx context.Context) (*models.User, error)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
func JWTMiddleware(parser TokenParser, sessions SessionResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Error("missing or invalid authorization header")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing or invalid authorization header"))
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Error("invalid or expired token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired token"))
				return
			}

			user, err := sessions.ActiveUser(r.Context())
			if errors.Is(err, models.ErrNoSession) {
				log.Warn("token used without active session", slog.String("email", claims.Email))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("session is not active"))
				return
			}
			if err != nil {
				log.Error("failed to resolve session", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("failed to check session"))
				return
			}
			if user.Email != claims.Email {
				log.Warn("token does not match session",
					slog.String("email", claims.Email),
					slog.String("session_email", user.Email),
				)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("token does not match active session"))
				return
			}

			userID := user.ID
			if userID == "" {
				userID = claims.UserID
			}
			ctx := context.WithValue(r.Context(), Email, user.Email)
			ctx = context.WithValue(ctx, Role, user.Role)
			ctx = context.WithValue(ctx, UserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly пропускает запросы, у которых в контексте роль Admin.
func AdminOnly(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFrom(r.Context()) != models.RoleAdmin {
				log.Warn("admin route denied",
					slog.String("email", EmailFrom(r.Context())),
					slog.String("request_id", middleware.GetReqID(r.Context())),
				)
				render.Status(r, http.StatusForbidden)
				render.JSON(w, r, response.Error("admin role required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// EmailFrom возвращает email из контекста запроса.
func EmailFrom(ctx context.Context) string {
	v, _ := ctx.Value(Email).(string)
	return v
}

// RoleFrom возвращает роль из контекста запроса.
func RoleFrom(ctx context.Context) string {
	v, _ := ctx.Value(Role).(string)
	return v
}
