package handler

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/internhub/internal/auth"
	"github.com/hitoshi/internhub/internal/middleware"
	"github.com/hitoshi/internhub/internal/model"
)

const (
	oauthStateCookie = "oauth_state"
	oauthRoleCookie  = "oauth_role"
	oauthCookieAge   = 600
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	GetLoginURL(state string) string
	HandleCallback(ctx context.Context, code string, requestedRole model.Role) (*model.Session, *model.User, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, principal model.Principal) (*model.User, error)
}

var _ AuthServiceInterface = (*auth.Service)(nil)

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	BaseURL       string
	CookieDomain  string
	CookieSecure  bool
	SessionMaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はOAuth認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		config:  config,
	}
}

// Login はGoogle OAuthフローを開始する。
// GET /auth/google/login?role=company|intern
// role は新規ユーザー作成時にのみ使用し、短命のCookieでコールバックまで引き継ぐ。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	http.SetCookie(w, h.shortCookie(oauthStateCookie, state, oauthCookieAge))

	if role := model.Role(r.URL.Query().Get("role")); role.Valid() {
		http.SetCookie(w, h.shortCookie(oauthRoleCookie, string(role), oauthCookieAge))
	} else {
		http.SetCookie(w, h.shortCookie(oauthRoleCookie, "", -1))
	}

	http.Redirect(w, r, h.service.GetLoginURL(state), http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /auth/google/callback?code=xxx&state=yyy
// 成功時はオンボーディング未完了ならロール別の登録画面、完了済みならトップへリダイレクトする。
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(stateCookie.Value), []byte(state)) != 1 {
		slog.Warn("oauth state mismatch")
		handleServiceError(w, r, model.NewInvalidRequestError("state が一致しません"))
		return
	}
	http.SetCookie(w, h.shortCookie(oauthStateCookie, "", -1))

	var role model.Role
	if c, err := r.Cookie(oauthRoleCookie); err == nil {
		role = model.Role(c.Value)
	}
	http.SetCookie(w, h.shortCookie(oauthRoleCookie, "", -1))

	code := r.URL.Query().Get("code")
	if code == "" {
		handleServiceError(w, r, model.NewInvalidRequestError("認可コードがありません"))
		return
	}

	session, user, err := h.service.HandleCallback(r.Context(), code, role)
	if err != nil {
		h.redirectWithError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.SessionMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.landingURL(user), http.StatusTemporaryRedirect)
}

// Logout はセッションを破棄する。ストア側の削除に失敗してもCookieはクリアする。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
		if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
			slog.Error("failed to logout", slog.String("error", err.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// Me は現在のログインユーザー情報を返す。SessionMiddleware の後に配置する。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.CurrentUser(r.Context(), principalFrom(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// landingURL はログイン後の遷移先を返す。
func (h *AuthHandler) landingURL(user *model.User) string {
	base := strings.TrimRight(h.config.BaseURL, "/")
	if user == nil || user.Completed {
		return base + "/"
	}
	return base + "/onboarding/" + string(user.Role)
}

// redirectWithError は認証失敗をフロントエンドのログイン画面へエラーコード付きで伝える。
func (h *AuthHandler) redirectWithError(w http.ResponseWriter, r *http.Request, err error) {
	code := model.ErrCodeUnavailable
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	} else {
		slog.Error("oauth callback failed", slog.String("error", err.Error()))
	}
	target := strings.TrimRight(h.config.BaseURL, "/") + "/login?error=" + url.QueryEscape(code)
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

func (h *AuthHandler) shortCookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// generateState はCSRF対策用のランダムなstate値を生成する。
func generateState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
