// Package middleware содержит HTTP middleware API магазина орхидей.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/orchidshop/internal/auth"
	"github.com/mmeshcher/orchidshop/internal/response"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenParser проверяет токен доступа.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// RevocationChecker сообщает, отозван ли токен.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, id string) (bool, error)
}

// AuthMiddleware проверяет bearer-токен из заголовка Authorization.
type AuthMiddleware struct {
	tokens  TokenParser
	revoked RevocationChecker
	logger  *zap.Logger
}

// NewAuthMiddleware создаёт middleware аутентификации. revoked может быть nil.
func NewAuthMiddleware(tokens TokenParser, revoked RevocationChecker, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:  tokens,
		revoked: revoked,
		logger:  logger,
	}
}

// Middleware отклоняет запросы без действительного токена и кладёт claims в контекст запроса.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r)
		if !ok {
			response.Unauthorized(w, "Missing or malformed Authorization header")
			return
		}

		claims, err := a.tokens.Parse(raw)
		if err != nil {
			response.Unauthorized(w, "Invalid or expired token")
			return
		}

		if a.revoked != nil {
			revoked, err := a.revoked.IsRevoked(r.Context(), claims.ID)
			if err != nil {
				a.logger.Error("check token revocation", zap.Error(err))
				response.InternalError(w)
				return
			}
			if revoked {
				response.Unauthorized(w, "Token has been revoked")
				return
			}
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// GetClaimsFromContext извлекает claims токена из контекста запроса.
func GetClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// GetAccountIDFromContext извлекает идентификатор учётной записи из контекста запроса.
func GetAccountIDFromContext(ctx context.Context) (int64, bool) {
	claims, ok := GetClaimsFromContext(ctx)
	if !ok {
		return 0, false
	}
	id, err := claims.AccountID()
	if err != nil {
		return 0, false
	}
	return id, true
}

// WithClaims возвращает контекст с claims. Используется в тестах обработчиков.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
