// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/middleware"
	"github.com/hitoshi/internhub/internal/model"
)

const (
	// maxJSONBodySize はJSONリクエストボディの上限バイト数。
	maxJSONBodySize = 1 << 20
	// multipartOverhead はファイル上限に加算するフォームフィールドとヘッダーの余裕分。
	multipartOverhead = 1 << 20
	// multipartMemory はメモリに保持するマルチパートの上限。超過分は一時ファイルに書き出される。
	multipartMemory = 8 << 20
)

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to encode response", slog.String("error", err.Error()))
	}
}

// handleServiceError はサービス層から返されたエラーを統一フォーマットで書き込む。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	middleware.WriteError(w, r, err)
}

// decodeJSON はJSONボディを読み取る。不正なJSONや上限超過はバリデーションエラーとする。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return model.NewFileTooLargeError(maxErr.Limit)
		}
		return model.NewInvalidRequestError("JSONを解析できません")
	}
	return nil
}

// parseMultipart はボディサイズを制限してマルチパートフォームを読み取る。
// limit はフォーム全体で受け付けるファイルの合計上限。
func parseMultipart(w http.ResponseWriter, r *http.Request, limit int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return model.NewFileTooLargeError(limit)
		}
		return model.NewInvalidRequestError("マルチパートフォームを解析できません")
	}
	return nil
}

// formFile はフォームのファイルを返す。未添付の場合は nil。
func formFile(r *http.Request, key string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[key]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

// formString はフォームに値がある場合のみポインタを返す。部分更新に使用する。
func formString(r *http.Request, key string) *string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// formInt は整数のフォーム値を読み取る。
func formInt(r *http.Request, key string) (*int, error) {
	s := formString(r, key)
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(*s))
	if err != nil {
		return nil, model.NewInvalidRequestError(key + " は整数で指定してください")
	}
	return &n, nil
}

// formList はカンマ区切りまたは複数指定のフォーム値をスライスとして返す。
// フィールド自体がない場合は nil を返し、空文字列は空スライスとして扱う。
func formList(r *http.Request, key string) []string {
	if r.MultipartForm == nil {
		return nil
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok {
		return nil
	}
	out := []string{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// requestBaseURL はリクエスト自身のスキームとホストから "scheme://host" を組み立てる。
// TLS終端プロキシ配下では X-Forwarded-Proto を優先する。
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// companyFrom はAuthorizerが付与した企業Identityを取り出す。
// ガードを通らない経路では空の Company が返り、サービス層で未認証として扱われる。
func companyFrom(r *http.Request) access.Company {
	c, _ := access.CompanyFrom(r.Context())
	return c
}

// internFrom はAuthorizerが付与したインターンIdentityを取り出す。
func internFrom(r *http.Request) access.Intern {
	in, _ := access.InternFrom(r.Context())
	return in
}

// principalFrom はセッションミドルウェアが付与したPrincipalを取り出す。
func principalFrom(r *http.Request) model.Principal {
	p, _ := access.PrincipalFrom(r.Context())
	return p
}
