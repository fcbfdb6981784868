package auth

import (
	"context"
	"fmt"
	"net/http"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/utils"
)

type contextKey string

const userKey contextKey = "user"

// UserLoader resolves the account behind a verified token.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Middleware verifies the bearer token and attaches the current user to the request context.
// cache may be nil.
func Middleware(tokens *TokenManager, users UserLoader, cache IdentityCache, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractTokenFromRequest(r)
			if err != nil {
				utils.WriteError(w, apperr.Authentication("not authorized, no token"))
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				log.LogSecurity("INVALID_TOKEN", fmt.Sprintf("%s %s: %v", r.Method, r.URL.Path, err))
				utils.WriteError(w, apperr.Authentication("not authorized, invalid token"))
				return
			}

			user, err := resolveUser(r.Context(), claims.UserID, users, cache, log)
			if err != nil {
				utils.WriteError(w, err)
				return
			}

			ctx := WithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveUser(ctx context.Context, id string, users UserLoader, cache IdentityCache, log *logger.Logger) (*models.User, error) {
	if cache != nil {
		cached, err := cache.Get(ctx, id)
		if err != nil {
			log.Warn("AUTH", fmt.Sprintf("Identity cache read failed: %v", err))
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := users.GetUserByID(ctx, id)
	if err != nil {
		if apperr.StatusCode(err) == http.StatusNotFound {
			return nil, apperr.Authentication("not authorized, user no longer exists")
		}
		return nil, err
	}

	if cache != nil {
		if err := cache.Set(ctx, user); err != nil {
			log.Warn("AUTH", fmt.Sprintf("Identity cache write failed: %v", err))
		}
	}
	return user, nil
}

// RequireRoles rejects users whose role is not listed. Admins always pass.
func RequireRoles(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := CurrentUser(r.Context())
			if user == nil {
				utils.WriteError(w, apperr.Authentication("not authorized"))
				return
			}
			if user.IsAdmin() {
				next.ServeHTTP(w, r)
				return
			}
			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			utils.WriteError(w, apperr.Authorization("role %s is not allowed to access this resource", user.Role))
		})
	}
}

// AdminOnly is RequireRoles with no extra roles.
func AdminOnly(next http.Handler) http.Handler {
	return RequireRoles()(next)
}

func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// CurrentUser returns the authenticated user, or nil outside the gate.
func CurrentUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userKey).(*models.User); ok {
		return user
	}
	return nil
}
