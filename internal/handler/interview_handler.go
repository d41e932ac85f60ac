package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/interview"
	"github.com/hitoshi/internhub/internal/model"
)

// InterviewServiceInterface は面接ハンドラーが必要とするサービスインターフェース。
type InterviewServiceInterface interface {
	Schedule(ctx context.Context, company access.Company, in interview.ScheduleInput) (*model.Interview, error)
	Get(ctx context.Context, company access.Company, interviewID string) (*model.Interview, error)
	Update(ctx context.Context, company access.Company, interviewID string, patch model.InterviewPatch) (*model.Interview, error)
	Delete(ctx context.Context, company access.Company, interviewID string) error
	Confirm(ctx context.Context, intern access.Intern, interviewID string, confirmed bool) (*model.Interview, error)
	ListForCompany(ctx context.Context, company access.Company) ([]model.InterviewDetail, error)
	ListForJob(ctx context.Context, company access.Company, jobID string) ([]model.InterviewDetail, error)
	ListForIntern(ctx context.Context, intern access.Intern) ([]model.InterviewDetail, error)
}

var _ InterviewServiceInterface = (*interview.Service)(nil)

// InterviewHandler は面接のHTTPハンドラー。
type InterviewHandler struct {
	service InterviewServiceInterface
}

// NewInterviewHandler はInterviewHandlerを生成する。
func NewInterviewHandler(service InterviewServiceInterface) *InterviewHandler {
	return &InterviewHandler{service: service}
}

// interviewRequest は面接登録・更新リクエストのボディ。
// 更新では省略したフィールドは変更しない。
type interviewRequest struct {
	Date     *string `json:"date"`
	Type     *string `json:"type"`
	Location *string `json:"location"`
	Platform *string `json:"platform"`
	Link     *string `json:"link"`
}

// confirmRequest は出席確認リクエストのボディ。
type confirmRequest struct {
	Confirmed *bool `json:"confirmed"`
}

// dateLayouts は受け付ける日時の書式。タイムゾーン省略時はUTCとみなす。
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate は面接日時を解析する。
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, model.NewInvalidRequestError("date の形式が不正です")
}

// Schedule は面接を登録する。
// POST /api/interviews/interns/{internId}/jobs/{jobId}
func (h *InterviewHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	var req interviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if req.Date == nil || strings.TrimSpace(*req.Date) == "" {
		handleServiceError(w, r, model.NewInvalidRequestError("date は必須です"))
		return
	}
	date, err := parseDate(*req.Date)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	in := interview.ScheduleInput{
		JobID:    chi.URLParam(r, "jobId"),
		InternID: chi.URLParam(r, "internId"),
		Date:     date,
		Type:     deref(req.Type),
		Location: deref(req.Location),
		Platform: deref(req.Platform),
		Link:     deref(req.Link),
	}

	iv, err := h.service.Schedule(r.Context(), companyFrom(r), in)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toInterviewResponse(iv))
}

// Get は面接を返す。
// GET /api/interviews/{id}
func (h *InterviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	iv, err := h.service.Get(r.Context(), companyFrom(r), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInterviewResponse(iv))
}

// Update は面接を部分更新する。
// PUT /api/interviews/{id}
func (h *InterviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req interviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	patch := model.InterviewPatch{
		Type:     req.Type,
		Location: req.Location,
		Platform: req.Platform,
		Link:     req.Link,
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		patch.Date = &date
	}

	iv, err := h.service.Update(r.Context(), companyFrom(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInterviewResponse(iv))
}

// Delete は面接を削除する。
// DELETE /api/interviews/{id}
func (h *InterviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), companyFrom(r), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Confirm はインターンが面接への出席を確認または取り消す。
// PUT /api/interviews/{id}/confirm
func (h *InterviewHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if req.Confirmed == nil {
		handleServiceError(w, r, model.NewInvalidRequestError("confirmed は必須です"))
		return
	}

	iv, err := h.service.Confirm(r.Context(), internFrom(r), chi.URLParam(r, "id"), *req.Confirmed)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInterviewResponse(iv))
}

// List はロールに応じた面接一覧を日時の昇順で返す。
// GET /api/interviews
func (h *InterviewHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := access.IdentityFrom(r.Context())

	var (
		details []model.InterviewDetail
		err     error
	)
	switch caller := id.(type) {
	case access.Company:
		details, err = h.service.ListForCompany(r.Context(), caller)
	case access.Intern:
		details, err = h.service.ListForIntern(r.Context(), caller)
	default:
		err = model.NewUnauthenticatedError()
	}
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInterviewDetailResponses(details))
}

// ListForJob は求人ごとの面接一覧を返す。
// GET /api/interviews/job/{jobId}
func (h *InterviewHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.ListForJob(r.Context(), companyFrom(r), chi.URLParam(r, "jobId"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInterviewDetailResponses(details))
}

// ListForIntern はインターン自身の面接一覧を返す。
// GET /api/interviews/intern
func (h *InterviewHandler) ListForIntern(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.ListForIntern(r.Context(), internFrom(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toInterviewDetailResponses(details))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
