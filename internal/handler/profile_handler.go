package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/model"
	"github.com/hitoshi/internhub/internal/profile"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	RegisterCompany(ctx context.Context, principal model.Principal, fields model.CompanyPatch, files profile.Files) (*model.Company, error)
	UpdateCompany(ctx context.Context, caller access.Company, patch model.CompanyPatch, files profile.Files) (*model.Company, error)
	CompanyMe(ctx context.Context, caller access.Company) (*model.Company, error)
	RegisterIntern(ctx context.Context, principal model.Principal, fields model.InternPatch, files profile.Files) (*model.Intern, error)
	UpdateIntern(ctx context.Context, caller access.Intern, patch model.InternPatch, files profile.Files) (*model.Intern, error)
	InternMe(ctx context.Context, caller access.Intern) (*model.Intern, error)
}

var _ ProfileServiceInterface = (*profile.Service)(nil)

// ProfileHandler は企業・インターンのプロフィールのHTTPハンドラー。
type ProfileHandler struct {
	service     ProfileServiceInterface
	uploadLimit int64
}

// NewProfileHandler はProfileHandlerを生成する。
// uploadLimit はプロフィールフォームに添付できるファイルの合計上限バイト数。
func NewProfileHandler(service ProfileServiceInterface, uploadLimit int64) *ProfileHandler {
	return &ProfileHandler{service: service, uploadLimit: uploadLimit}
}

// RegisterCompany は企業プロフィールを登録する。
// POST /api/company/register （multipart: name, industry, ..., image?）
func (h *ProfileHandler) RegisterCompany(w http.ResponseWriter, r *http.Request) {
	fields, files, ok := h.companyForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	c, err := h.service.RegisterCompany(r.Context(), principalFrom(r), fields, files)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCompanyResponse(c))
}

// UpdateCompany は企業プロフィールを部分更新する。
// POST /api/company/update
func (h *ProfileHandler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	patch, files, ok := h.companyForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	c, err := h.service.UpdateCompany(r.Context(), companyFrom(r), patch, files)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCompanyResponse(c))
}

// CompanyMe は自社の企業プロフィールを返す。
// GET /api/company/me
func (h *ProfileHandler) CompanyMe(w http.ResponseWriter, r *http.Request) {
	c, err := h.service.CompanyMe(r.Context(), companyFrom(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toCompanyResponse(c))
}

// RegisterIntern はインターンプロフィールを登録する。
// POST /api/intern/register （multipart: name, university, ..., image?, resume?）
func (h *ProfileHandler) RegisterIntern(w http.ResponseWriter, r *http.Request) {
	fields, files, ok := h.internForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, err := h.service.RegisterIntern(r.Context(), principalFrom(r), fields, files)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInternResponse(in))
}

// UpdateIntern はインターンプロフィールを部分更新する。
// POST /api/intern/update
func (h *ProfileHandler) UpdateIntern(w http.ResponseWriter, r *http.Request) {
	patch, files, ok := h.internForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	in, err := h.service.UpdateIntern(r.Context(), internFrom(r), patch, files)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInternResponse(in))
}

// InternMe は自身のインターンプロフィールを返す。
// GET /api/intern/me
func (h *ProfileHandler) InternMe(w http.ResponseWriter, r *http.Request) {
	in, err := h.service.InternMe(r.Context(), internFrom(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInternResponse(in))
}

// companyForm は企業プロフィールのフォームを読み取る。
// ロゴURLはアップロード経由でのみ設定するため、フォームからは受け取らない。
func (h *ProfileHandler) companyForm(w http.ResponseWriter, r *http.Request) (model.CompanyPatch, profile.Files, bool) {
	if err := parseMultipart(w, r, h.uploadLimit); err != nil {
		handleServiceError(w, r, err)
		return model.CompanyPatch{}, profile.Files{}, false
	}

	patch := model.CompanyPatch{
		Name:        formString(r, "name"),
		Industry:    formString(r, "industry"),
		Website:     formString(r, "website"),
		Email:       formString(r, "email"),
		Phone:       formString(r, "phone"),
		Location:    formString(r, "location"),
		Description: formString(r, "description"),
	}
	files := profile.Files{
		Image:   formFile(r, "image"),
		BaseURL: requestBaseURL(r),
	}
	return patch, files, true
}

// internForm はインターンプロフィールのフォームを読み取る。
func (h *ProfileHandler) internForm(w http.ResponseWriter, r *http.Request) (model.InternPatch, profile.Files, bool) {
	if err := parseMultipart(w, r, h.uploadLimit); err != nil {
		handleServiceError(w, r, err)
		return model.InternPatch{}, profile.Files{}, false
	}

	year, err := formInt(r, "graduationYear")
	if err != nil {
		r.MultipartForm.RemoveAll()
		handleServiceError(w, r, err)
		return model.InternPatch{}, profile.Files{}, false
	}

	patch := model.InternPatch{
		Name:           formString(r, "name"),
		University:     formString(r, "university"),
		Major:          formString(r, "major"),
		GraduationYear: year,
		Skills:         formList(r, "skills"),
		Bio:            formString(r, "bio"),
		Phone:          formString(r, "phone"),
		Location:       formString(r, "location"),
	}
	files := profile.Files{
		Image:   formFile(r, "image"),
		Resume:  formFile(r, "resume"),
		BaseURL: requestBaseURL(r),
	}
	return patch, files, true
}
