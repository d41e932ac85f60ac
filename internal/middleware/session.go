// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/model"
)

// SessionCookieName はセッションIDを保持するCookieの名前。
const SessionCookieName = "session_id"

// PrincipalFinder はセッションIDから認証主体を解決するインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type PrincipalFinder interface {
	FindPrincipal(ctx context.Context, sessionID string) (*model.Principal, error)
}

// NewSessionMiddleware はHTTP Only Cookieからセッションを読み取り、
// ユーザーIDとロールを Principal としてリクエストコンテキストに注入する。
// ロールやユーザーIDをリクエスト本文・クエリから受け取ることはない。
// セッションがない、無効、期限切れの場合は401、ストア障害の場合は503を返す。
func NewSessionMiddleware(finder PrincipalFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteAPIError(w, model.NewUnauthenticatedError())
				return
			}

			principal, err := finder.FindPrincipal(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("failed to find session",
					slog.String("error", err.Error()),
				)
				WriteAPIError(w, model.NewUnavailableError())
				return
			}
			if principal == nil || principal.UserID == "" {
				WriteAPIError(w, model.NewUnauthenticatedError())
				return
			}

			annotateUserID(r.Context(), principal.UserID)
			ctx := access.WithPrincipal(r.Context(), *principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	p, ok := access.PrincipalFrom(ctx)
	if !ok {
		return "", fmt.Errorf("user ID not found in context")
	}
	return p.UserID, nil
}
