package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/metrics"
	"github.com/hitoshi/internhub/internal/middleware"
	"github.com/hitoshi/internhub/internal/model"
)

// HealthChecker はヘルスチェックで疎通を確認する依存先。*sql.DB が満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	Recorder          metrics.Recorder
	MetricsHandler    http.Handler
	HealthChecker     HealthChecker
	SessionFinder     middleware.PrincipalFinder
	IdentityResolver  middleware.IdentityResolver
	CORSAllowedOrigin string
	CSRFConfig        middleware.CSRFConfig
	RateLimiter       *middleware.RateLimiter
	RequestTimeout    time.Duration

	// アップロード
	UploadDir         string
	ImageUploadLimit  int64
	ResumeUploadLimit int64

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメイン
	JobService         JobServiceInterface
	ApplicationService ApplicationServiceInterface
	InterviewService   InterviewServiceInterface
	ProfileService     ProfileServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Timeout
//	  → Session → RateLimit(General) → CSRF → Authz(ルートごと)
//
// /health、/metrics、OAuthフロー、アップロードファイルの配信はセッション不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger, deps.Recorder))
	r.Use(middleware.NewTimeoutMiddleware(deps.RequestTimeout))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	jobHandler := NewJobHandler(deps.JobService)
	appHandler := NewApplicationHandler(deps.ApplicationService, deps.ResumeUploadLimit)
	ivHandler := NewInterviewHandler(deps.InterviewService)
	profileHandler := NewProfileHandler(deps.ProfileService, deps.ImageUploadLimit+deps.ResumeUploadLimit)

	authz := middleware.NewAuthorizer(deps.IdentityResolver, deps.Recorder)
	companyProfile := authz.Require(access.CompanyProfile)
	internProfile := authz.Require(access.InternProfile)
	anyProfile := authz.Require(access.AnyProfile)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}
	if deps.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", uploadFileServer(deps.UploadDir)))
	}
	r.Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.With(middleware.NewSessionMiddleware(deps.SessionFinder)).Get("/me", authHandler.Me)
	})

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))

		// 求人（閲覧はロール不問、作成・更新は所有企業のみ）
		r.Route("/api/jobs", func(r chi.Router) {
			r.Get("/", jobHandler.ListOpen)
			r.With(companyProfile).Post("/", jobHandler.Create)
			r.Get("/{id}", jobHandler.Get)
			r.With(companyProfile).Put("/{id}", jobHandler.Update)
			r.With(internProfile, deps.RateLimiter.ApplyMiddleware()).Post("/{id}/apply", appHandler.Apply)
		})

		// 応募
		r.Route("/api/applications", func(r chi.Router) {
			r.With(internProfile).Get("/precheck/{jobId}", appHandler.Precheck)

			r.Group(func(r chi.Router) {
				r.Use(companyProfile)
				r.Get("/", appHandler.ListForCompany)
				r.Get("/{id}", appHandler.Get)
				r.Put("/{id}/status", appHandler.UpdateStatus)
			})
		})

		// 面接
		r.Route("/api/interviews", func(r chi.Router) {
			r.With(anyProfile).Get("/", ivHandler.List)
			r.With(internProfile).Get("/intern", ivHandler.ListForIntern)
			r.With(internProfile).Put("/{id}/confirm", ivHandler.Confirm)

			r.Group(func(r chi.Router) {
				r.Use(companyProfile)
				r.Post("/interns/{internId}/jobs/{jobId}", ivHandler.Schedule)
				r.Get("/job/{jobId}", ivHandler.ListForJob)
				r.Get("/{id}", ivHandler.Get)
				r.Put("/{id}", ivHandler.Update)
				r.Delete("/{id}", ivHandler.Delete)
			})
		})

		// 企業プロフィール
		r.Route("/api/company", func(r chi.Router) {
			r.With(authz.Require(access.CompanyRole)).Post("/register", profileHandler.RegisterCompany)
			r.Group(func(r chi.Router) {
				r.Use(companyProfile)
				r.Post("/update", profileHandler.UpdateCompany)
				r.Get("/me", profileHandler.CompanyMe)
				r.Get("/jobs", jobHandler.ListForCompany)
			})
		})

		// インターンプロフィール
		r.Route("/api/intern", func(r chi.Router) {
			r.With(authz.Require(access.InternRole)).Post("/register", profileHandler.RegisterIntern)
			r.Group(func(r chi.Router) {
				r.Use(internProfile)
				r.Post("/update", profileHandler.UpdateIntern)
				r.Get("/me", profileHandler.InternMe)
				r.Get("/applications", appHandler.ListForIntern)
			})
		})
	})

	return r
}

// healthHandler はDBへの疎通を確認する。依存先がない場合は常に200を返す。
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				slog.Error("health check failed", slog.String("error", err.Error()))
				middleware.WriteAPIError(w, model.NewUnavailableError())
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// uploadFileServer はアップロードディレクトリのファイルを配信する。
// ディレクトリ一覧は返さない。
func uploadFileServer(dir string) http.Handler {
	fs := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || r.URL.Path[len(r.URL.Path)-1] == '/' {
			http.NotFound(w, r)
			return
		}
		fs.ServeHTTP(w, r)
	})
}
