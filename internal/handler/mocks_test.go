package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/application"
	"github.com/hitoshi/internhub/internal/interview"
	"github.com/hitoshi/internhub/internal/middleware"
	"github.com/hitoshi/internhub/internal/model"
	"github.com/hitoshi/internhub/internal/profile"
)

// --- サービスのモック ---

type mockAuthService struct {
	getLoginURLFn    func(state string) string
	handleCallbackFn func(ctx context.Context, code string, role model.Role) (*model.Session, *model.User, error)
	logoutFn         func(ctx context.Context, sessionID string) error
	currentUserFn    func(ctx context.Context, p model.Principal) (*model.User, error)
}

func (m *mockAuthService) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return "https://accounts.google.com/o/oauth2/v2/auth?state=" + state
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string, role model.Role) (*model.Session, *model.User, error) {
	return m.handleCallbackFn(ctx, code, role)
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID string) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

func (m *mockAuthService) CurrentUser(ctx context.Context, p model.Principal) (*model.User, error) {
	return m.currentUserFn(ctx, p)
}

type mockJobService struct {
	createFn         func(ctx context.Context, company access.Company, fields model.JobPatch) (*model.Job, error)
	updateFn         func(ctx context.Context, company access.Company, jobID string, patch model.JobPatch) (*model.Job, error)
	getFn            func(ctx context.Context, jobID string) (*model.Job, error)
	listForCompanyFn func(ctx context.Context, company access.Company) ([]*model.Job, error)
	listOpenFn       func(ctx context.Context) ([]*model.Job, error)
}

func (m *mockJobService) Create(ctx context.Context, company access.Company, fields model.JobPatch) (*model.Job, error) {
	return m.createFn(ctx, company, fields)
}

func (m *mockJobService) Update(ctx context.Context, company access.Company, jobID string, patch model.JobPatch) (*model.Job, error) {
	return m.updateFn(ctx, company, jobID, patch)
}

func (m *mockJobService) Get(ctx context.Context, jobID string) (*model.Job, error) {
	return m.getFn(ctx, jobID)
}

func (m *mockJobService) ListForCompany(ctx context.Context, company access.Company) ([]*model.Job, error) {
	return m.listForCompanyFn(ctx, company)
}

func (m *mockJobService) ListOpen(ctx context.Context) ([]*model.Job, error) {
	if m.listOpenFn != nil {
		return m.listOpenFn(ctx)
	}
	return nil, nil
}

type mockApplicationService struct {
	applyFn          func(ctx context.Context, intern access.Intern, in application.ApplyInput) (*model.Application, error)
	transitionFn     func(ctx context.Context, company access.Company, id, status string) (*model.Application, error)
	precheckFn       func(ctx context.Context, intern access.Intern, jobID string) (*application.PrecheckResult, error)
	listForCompanyFn func(ctx context.Context, company access.Company) ([]model.ApplicationDetail, error)
	getFn            func(ctx context.Context, company access.Company, id string) (*model.ApplicationDetail, error)
	listForInternFn  func(ctx context.Context, intern access.Intern) ([]model.ApplicationDetail, error)
}

func (m *mockApplicationService) Apply(ctx context.Context, intern access.Intern, in application.ApplyInput) (*model.Application, error) {
	return m.applyFn(ctx, intern, in)
}

func (m *mockApplicationService) Transition(ctx context.Context, company access.Company, id, status string) (*model.Application, error) {
	return m.transitionFn(ctx, company, id, status)
}

func (m *mockApplicationService) Precheck(ctx context.Context, intern access.Intern, jobID string) (*application.PrecheckResult, error) {
	return m.precheckFn(ctx, intern, jobID)
}

func (m *mockApplicationService) ListForCompany(ctx context.Context, company access.Company) ([]model.ApplicationDetail, error) {
	return m.listForCompanyFn(ctx, company)
}

func (m *mockApplicationService) Get(ctx context.Context, company access.Company, id string) (*model.ApplicationDetail, error) {
	return m.getFn(ctx, company, id)
}

func (m *mockApplicationService) ListForIntern(ctx context.Context, intern access.Intern) ([]model.ApplicationDetail, error) {
	return m.listForInternFn(ctx, intern)
}

type mockInterviewService struct {
	scheduleFn       func(ctx context.Context, company access.Company, in interview.ScheduleInput) (*model.Interview, error)
	getFn            func(ctx context.Context, company access.Company, id string) (*model.Interview, error)
	updateFn         func(ctx context.Context, company access.Company, id string, patch model.InterviewPatch) (*model.Interview, error)
	deleteFn         func(ctx context.Context, company access.Company, id string) error
	confirmFn        func(ctx context.Context, intern access.Intern, id string, confirmed bool) (*model.Interview, error)
	listForCompanyFn func(ctx context.Context, company access.Company) ([]model.InterviewDetail, error)
	listForJobFn     func(ctx context.Context, company access.Company, jobID string) ([]model.InterviewDetail, error)
	listForInternFn  func(ctx context.Context, intern access.Intern) ([]model.InterviewDetail, error)
}

func (m *mockInterviewService) Schedule(ctx context.Context, company access.Company, in interview.ScheduleInput) (*model.Interview, error) {
	return m.scheduleFn(ctx, company, in)
}

func (m *mockInterviewService) Get(ctx context.Context, company access.Company, id string) (*model.Interview, error) {
	return m.getFn(ctx, company, id)
}

func (m *mockInterviewService) Update(ctx context.Context, company access.Company, id string, patch model.InterviewPatch) (*model.Interview, error) {
	return m.updateFn(ctx, company, id, patch)
}

func (m *mockInterviewService) Delete(ctx context.Context, company access.Company, id string) error {
	return m.deleteFn(ctx, company, id)
}

func (m *mockInterviewService) Confirm(ctx context.Context, intern access.Intern, id string, confirmed bool) (*model.Interview, error) {
	return m.confirmFn(ctx, intern, id, confirmed)
}

func (m *mockInterviewService) ListForCompany(ctx context.Context, company access.Company) ([]model.InterviewDetail, error) {
	return m.listForCompanyFn(ctx, company)
}

func (m *mockInterviewService) ListForJob(ctx context.Context, company access.Company, jobID string) ([]model.InterviewDetail, error) {
	return m.listForJobFn(ctx, company, jobID)
}

func (m *mockInterviewService) ListForIntern(ctx context.Context, intern access.Intern) ([]model.InterviewDetail, error) {
	return m.listForInternFn(ctx, intern)
}

type mockProfileService struct {
	registerCompanyFn func(ctx context.Context, p model.Principal, fields model.CompanyPatch, files profile.Files) (*model.Company, error)
	updateCompanyFn   func(ctx context.Context, caller access.Company, patch model.CompanyPatch, files profile.Files) (*model.Company, error)
	companyMeFn       func(ctx context.Context, caller access.Company) (*model.Company, error)
	registerInternFn  func(ctx context.Context, p model.Principal, fields model.InternPatch, files profile.Files) (*model.Intern, error)
	updateInternFn    func(ctx context.Context, caller access.Intern, patch model.InternPatch, files profile.Files) (*model.Intern, error)
	internMeFn        func(ctx context.Context, caller access.Intern) (*model.Intern, error)
}

func (m *mockProfileService) RegisterCompany(ctx context.Context, p model.Principal, fields model.CompanyPatch, files profile.Files) (*model.Company, error) {
	return m.registerCompanyFn(ctx, p, fields, files)
}

func (m *mockProfileService) UpdateCompany(ctx context.Context, caller access.Company, patch model.CompanyPatch, files profile.Files) (*model.Company, error) {
	return m.updateCompanyFn(ctx, caller, patch, files)
}

func (m *mockProfileService) CompanyMe(ctx context.Context, caller access.Company) (*model.Company, error) {
	return m.companyMeFn(ctx, caller)
}

func (m *mockProfileService) RegisterIntern(ctx context.Context, p model.Principal, fields model.InternPatch, files profile.Files) (*model.Intern, error) {
	return m.registerInternFn(ctx, p, fields, files)
}

func (m *mockProfileService) UpdateIntern(ctx context.Context, caller access.Intern, patch model.InternPatch, files profile.Files) (*model.Intern, error) {
	return m.updateInternFn(ctx, caller, patch, files)
}

func (m *mockProfileService) InternMe(ctx context.Context, caller access.Intern) (*model.Intern, error) {
	return m.internMeFn(ctx, caller)
}

var (
	_ AuthServiceInterface        = (*mockAuthService)(nil)
	_ JobServiceInterface         = (*mockJobService)(nil)
	_ ApplicationServiceInterface = (*mockApplicationService)(nil)
	_ InterviewServiceInterface   = (*mockInterviewService)(nil)
	_ ProfileServiceInterface     = (*mockProfileService)(nil)
)

// --- リクエスト組み立てヘルパー ---

// withURLParams はchiのURLパラメータをリクエストに設定する。
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// asCompany はAuthorizer通過後の企業リクエストを再現する。
func asCompany(r *http.Request, companyID string) *http.Request {
	ctx := access.WithPrincipal(r.Context(), model.Principal{UserID: "user-" + companyID, Role: model.RoleCompany})
	ctx = access.WithIdentity(ctx, access.Company{ID: companyID})
	return r.WithContext(ctx)
}

// asIntern はAuthorizer通過後のインターンリクエストを再現する。
func asIntern(r *http.Request, internID string) *http.Request {
	ctx := access.WithPrincipal(r.Context(), model.Principal{UserID: "user-" + internID, Role: model.RoleIntern})
	ctx = access.WithIdentity(ctx, access.Intern{ID: internID})
	return r.WithContext(ctx)
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// testFile はマルチパートに添付するファイル。
type testFile struct {
	field    string
	filename string
	content  []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...testFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.field, f.filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(f.content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) middleware.ErrorResponseBody {
	t.Helper()
	var body middleware.ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v (raw: %s)", err, w.Body.String())
	}
	return body
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode body: %v (raw: %s)", err, w.Body.String())
	}
}
