package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/job"
	"github.com/hitoshi/internhub/internal/model"
)

// JobServiceInterface は求人ハンドラーが必要とするサービスインターフェース。
type JobServiceInterface interface {
	Create(ctx context.Context, company access.Company, fields model.JobPatch) (*model.Job, error)
	Update(ctx context.Context, company access.Company, jobID string, patch model.JobPatch) (*model.Job, error)
	Get(ctx context.Context, jobID string) (*model.Job, error)
	ListForCompany(ctx context.Context, company access.Company) ([]*model.Job, error)
	ListOpen(ctx context.Context) ([]*model.Job, error)
}

var _ JobServiceInterface = (*job.Service)(nil)

// JobHandler は求人のHTTPハンドラー。
type JobHandler struct {
	service JobServiceInterface
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

// jobRequest は求人の作成・更新リクエストのボディ。
type jobRequest struct {
	Title            *string `json:"title"`
	Type             *string `json:"type"`
	Location         *string `json:"location"`
	Salary           *string `json:"salary"`
	Duration         *string `json:"duration"`
	StartDate        *string `json:"startDate"`
	Deadline         *string `json:"deadline"`
	Description      *string `json:"description"`
	Responsibilities *string `json:"responsibilities"`
	Requirements     *string `json:"requirements"`
	Benefits         *string `json:"benefits"`
	Status           *string `json:"status"`
}

// toPatch はリクエストを部分更新内容に変換する。
func (req jobRequest) toPatch() (model.JobPatch, error) {
	patch := model.JobPatch{
		Title:            req.Title,
		Type:             req.Type,
		Location:         req.Location,
		Salary:           req.Salary,
		Duration:         req.Duration,
		Description:      req.Description,
		Responsibilities: req.Responsibilities,
		Requirements:     req.Requirements,
		Benefits:         req.Benefits,
	}
	if req.StartDate != nil {
		t, err := parseDate(*req.StartDate)
		if err != nil {
			return patch, model.NewInvalidRequestError("startDate の形式が不正です")
		}
		patch.StartDate = &t
	}
	if req.Deadline != nil {
		t, err := parseDate(*req.Deadline)
		if err != nil {
			return patch, model.NewInvalidRequestError("deadline の形式が不正です")
		}
		patch.Deadline = &t
	}
	if req.Status != nil {
		status := model.JobStatus(*req.Status)
		patch.Status = &status
	}
	return patch, nil
}

// Create は求人を作成する。
// POST /api/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	patch, ok := h.decodePatch(w, r)
	if !ok {
		return
	}

	j, err := h.service.Create(r.Context(), companyFrom(r), patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toJobResponse(j))
}

// Update は自社の求人を部分更新する。
// PUT /api/jobs/{id}
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	patch, ok := h.decodePatch(w, r)
	if !ok {
		return
	}

	j, err := h.service.Update(r.Context(), companyFrom(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(j))
}

// Get は求人を返す。
// GET /api/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	j, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponse(j))
}

// ListOpen は募集中の求人一覧を返す。
// GET /api/jobs
func (h *JobHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListOpen(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponses(jobs))
}

// ListForCompany は自社の求人一覧を返す。
// GET /api/company/jobs
func (h *JobHandler) ListForCompany(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.service.ListForCompany(r.Context(), companyFrom(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toJobResponses(jobs))
}

func (h *JobHandler) decodePatch(w http.ResponseWriter, r *http.Request) (model.JobPatch, bool) {
	var req jobRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleServiceError(w, r, err)
		return model.JobPatch{}, false
	}
	patch, err := req.toPatch()
	if err != nil {
		handleServiceError(w, r, err)
		return model.JobPatch{}, false
	}
	return patch, true
}
