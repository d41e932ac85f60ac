package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/application"
	"github.com/hitoshi/internhub/internal/model"
)

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Apply(ctx context.Context, intern access.Intern, in application.ApplyInput) (*model.Application, error)
	Transition(ctx context.Context, company access.Company, applicationID, status string) (*model.Application, error)
	Precheck(ctx context.Context, intern access.Intern, jobID string) (*application.PrecheckResult, error)
	ListForCompany(ctx context.Context, company access.Company) ([]model.ApplicationDetail, error)
	Get(ctx context.Context, company access.Company, applicationID string) (*model.ApplicationDetail, error)
	ListForIntern(ctx context.Context, intern access.Intern) ([]model.ApplicationDetail, error)
}

var _ ApplicationServiceInterface = (*application.Service)(nil)

// ApplicationHandler は応募のHTTPハンドラー。
type ApplicationHandler struct {
	service     ApplicationServiceInterface
	uploadLimit int64
}

// NewApplicationHandler はApplicationHandlerを生成する。
// uploadLimit は応募フォームで受け付ける履歴書の上限バイト数。
func NewApplicationHandler(service ApplicationServiceInterface, uploadLimit int64) *ApplicationHandler {
	return &ApplicationHandler{service: service, uploadLimit: uploadLimit}
}

// transitionRequest はステータス更新リクエストのボディ。
type transitionRequest struct {
	Status string `json:"status"`
}

// Apply は求人に応募する。
// POST /api/jobs/{id}/apply （multipart: coverLetter, resume?）
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.uploadLimit); err != nil {
		handleServiceError(w, r, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := application.ApplyInput{
		JobID:       chi.URLParam(r, "id"),
		CoverLetter: r.FormValue("coverLetter"),
		Resume:      formFile(r, "resume"),
		BaseURL:     requestBaseURL(r),
	}

	app, err := h.service.Apply(r.Context(), internFrom(r), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toApplicationResponse(app))
}

// UpdateStatus は応募のステータスを変更する。
// PUT /api/applications/{id}/status
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	app, err := h.service.Transition(r.Context(), companyFrom(r), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationResponse(app))
}

// Precheck は求人への応募済みかどうかを返す。
// GET /api/applications/precheck/{jobId}
func (h *ApplicationHandler) Precheck(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Precheck(r.Context(), internFrom(r), chi.URLParam(r, "jobId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toPrecheckResponse(res))
}

// ListForCompany は企業の求人への応募一覧を返す。
// GET /api/applications
func (h *ApplicationHandler) ListForCompany(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.ListForCompany(r.Context(), companyFrom(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationDetailResponses(details))
}

// Get は応募の詳細を返す。
// GET /api/applications/{id}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), companyFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationDetailResponse(detail))
}

// ListForIntern はインターン自身の応募一覧を返す。
// GET /api/intern/applications
func (h *ApplicationHandler) ListForIntern(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.ListForIntern(r.Context(), internFrom(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toApplicationDetailResponses(details))
}
