package common

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const authUserContextKey contextKey = "authUser"

// AuthenticatedUser represents the JWT-derived principal.
type AuthenticatedUser struct {
	ID        string `json:"id"`
	Anonymous bool   `json:"anonymous"`
	// TokenID is the jti of the presented token. Not exposed.
	TokenID string `json:"-"`
	// Token is the raw bearer token, kept for sign-out.
	Token string `json:"-"`
}

// ContextWithUser stores the authenticated user into context.
func ContextWithUser(ctx context.Context, user AuthenticatedUser) context.Context {
	return context.WithValue(ctx, authUserContextKey, user)
}

// UserFromContext extracts the authenticated user from context.
func UserFromContext(ctx context.Context) (AuthenticatedUser, bool) {
	user, ok := ctx.Value(authUserContextKey).(AuthenticatedUser)
	return user, ok
}

// BearerToken は Authorization ヘッダーからトークンを取り出す。取り出せない場合は理由を返す。
func BearerToken(r *http.Request) (string, string) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if authHeader == "" {
		return "", "Authorization ヘッダーがありません"
	}

	const bearerPrefix = "Bearer "
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", "Bearer トークンを指定してください"
	}

	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if token == "" {
		return "", "アクセストークンが空です"
	}
	return token, ""
}
