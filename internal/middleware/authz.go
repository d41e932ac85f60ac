package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/metrics"
	"github.com/hitoshi/internhub/internal/model"
)

// IdentityResolver は Principal から所有プロフィールでスコープされた Identity を解決する。
type IdentityResolver interface {
	Resolve(ctx context.Context, principal model.Principal) (access.Identity, error)
}

// Authorizer はエンドポイントごとのロール・プロフィール要件を検査するミドルウェアを生成する。
type Authorizer struct {
	resolver IdentityResolver
	recorder metrics.Recorder
}

// NewAuthorizer はAuthorizerを生成する。
func NewAuthorizer(resolver IdentityResolver, recorder metrics.Recorder) *Authorizer {
	return &Authorizer{resolver: resolver, recorder: metrics.OrNop(recorder)}
}

// Require は認証、ロール適格性、プロフィール登録の順に検査し、
// 通過したリクエストにスコープ済み Identity を付与するミドルウェアを返す。
// 所有者の検査は対象リソースを読み込むサービス層で行う。
// SessionMiddleware の後に配置する。
func (a *Authorizer) Require(req access.Requirement) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			principal, ok := access.PrincipalFrom(ctx)
			if !ok {
				a.deny(w, r, model.NewUnauthenticatedError())
				return
			}

			id, err := a.resolver.Resolve(ctx, principal)
			if err != nil {
				WriteError(w, r, err)
				return
			}

			if err := access.Check(&principal, id, req); err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) {
					a.deny(w, r, apiErr)
					return
				}
				WriteError(w, r, err)
				return
			}

			if id != nil {
				ctx = access.WithIdentity(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Authorizer) deny(w http.ResponseWriter, r *http.Request, apiErr *model.APIError) {
	a.recorder.RecordAuthzDenied(apiErr.Code)
	slog.Warn("authorization denied",
		slog.String("code", apiErr.Code),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)
	WriteAPIError(w, apiErr)
}
