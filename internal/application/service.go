// Package application はインターンの応募と選考ステータスのドメインロジックを提供する。
package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/metrics"
	"github.com/hitoshi/internhub/internal/model"
	"github.com/hitoshi/internhub/internal/repository"
	"github.com/hitoshi/internhub/internal/security"
	"github.com/hitoshi/internhub/internal/upload"
)

// Options はサービスの動作設定。
type Options struct {
	// ResumeMaxSize は応募時に添付する履歴書の上限バイト数。
	ResumeMaxSize int64
	// StrictTransitions が true の場合、ステータスは選考の進行方向にのみ変更できる。
	StrictTransitions bool
}

// ApplyInput は応募の入力内容。
type ApplyInput struct {
	JobID       string
	CoverLetter string
	Resume      *multipart.FileHeader
	// BaseURL は保存ファイルのURL組み立てに使うリクエストの "scheme://host"。
	BaseURL string
}

// PrecheckResult は応募済み確認の結果。
type PrecheckResult struct {
	Applied bool
	Status  *model.ApplicationStatus
}

// Service は応募管理のサービス層。
type Service struct {
	apps         repository.ApplicationRepository
	jobs         repository.JobRepository
	files        upload.FileStore
	sanitizer    security.TextSanitizer
	recorder     metrics.Recorder
	resumePolicy upload.Policy
	strict       bool
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	apps repository.ApplicationRepository,
	jobs repository.JobRepository,
	files upload.FileStore,
	sanitizer security.TextSanitizer,
	recorder metrics.Recorder,
	opts Options,
) *Service {
	return &Service{
		apps:         apps,
		jobs:         jobs,
		files:        files,
		sanitizer:    sanitizer,
		recorder:     metrics.OrNop(recorder),
		resumePolicy: upload.ApplicationResumePolicy(opts.ResumeMaxSize),
		strict:       opts.StrictTransitions,
		now:          time.Now,
	}
}

// Apply はインターンとして求人に応募する。作成された応募のステータスは new。
// 同一求人への応募は1件のみで、同時に送信された場合もストレージの一意制約で1件に絞られる。
func (s *Service) Apply(ctx context.Context, intern access.Intern, in ApplyInput) (*model.Application, error) {
	if intern.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	coverLetter := s.sanitizer.RichText(in.CoverLetter)
	if strings.TrimSpace(s.sanitizer.PlainText(coverLetter)) == "" {
		return nil, model.NewMissingCoverLetterError()
	}

	job, err := s.jobs.FindByID(ctx, in.JobID)
	if err != nil {
		return nil, fmt.Errorf("応募先の求人を確認できませんでした: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError()
	}

	existing, err := s.apps.FindByJobAndIntern(ctx, job.ID, intern.ID)
	if err != nil {
		return nil, fmt.Errorf("応募の確認に失敗しました: %w", err)
	}
	if existing != nil {
		s.recorder.RecordConflict("application")
		return nil, model.NewDuplicateApplicationError()
	}

	var stored *upload.Stored
	if in.Resume != nil {
		stored, err = s.files.Save(ctx, s.resumePolicy, in.Resume, in.BaseURL)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	app := &model.Application{
		ID:          uuid.New().String(),
		JobID:       job.ID,
		CompanyID:   job.CompanyID,
		InternID:    intern.ID,
		Status:      model.StatusNew,
		CoverLetter: coverLetter,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if stored != nil {
		app.Resume = &stored.URL
	}

	if err := s.apps.Create(ctx, app); err != nil {
		s.discard(stored)
		if errors.Is(err, repository.ErrDuplicate) {
			s.recorder.RecordConflict("application")
			return nil, model.NewDuplicateApplicationError()
		}
		return nil, fmt.Errorf("応募を登録できませんでした: %w", err)
	}

	s.recorder.RecordApplicationCreated()
	slog.Info("応募を受け付けました",
		slog.String("application_id", app.ID),
		slog.String("job_id", app.JobID),
		slog.String("intern_id", app.InternID),
	)
	return app, nil
}

// discard は永続化に失敗した応募の履歴書ファイルを削除する。
func (s *Service) discard(stored *upload.Stored) {
	if stored == nil {
		return
	}
	if err := s.files.Discard(stored); err != nil {
		slog.Warn("履歴書ファイルの削除に失敗しました", "path", stored.Path, "error", err)
	}
}

// Transition は企業が自社求人への応募のステータスを変更する。
func (s *Service) Transition(ctx context.Context, company access.Company, applicationID, status string) (*model.Application, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	next, ok := model.ParseApplicationStatus(status)
	if !ok {
		return nil, model.NewInvalidStatusError(status)
	}

	app, err := s.apps.FindByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("ステータス変更対象の応募を確認できませんでした: %w", err)
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError()
	}
	if err := access.RequireOwner(company, access.Company{ID: app.CompanyID}); err != nil {
		return nil, err
	}

	if !s.allowed(app.Status, next) {
		return nil, model.NewInvalidTransitionError(app.Status, next)
	}

	updatedAt := s.now()
	if !updatedAt.After(app.UpdatedAt) {
		updatedAt = app.UpdatedAt.Add(time.Microsecond)
	}

	if err := s.apps.UpdateStatus(ctx, app.ID, next, updatedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewApplicationNotFoundError()
		}
		return nil, fmt.Errorf("ステータスの更新に失敗しました: %w", err)
	}

	s.recorder.RecordStatusTransition(string(app.Status), string(next))
	app.Status = next
	app.UpdatedAt = updatedAt
	return app, nil
}

// allowed はステータス遷移がポリシー上許可されているかを返す。
// 既定では任意の遷移を許可し、厳格モードでは終端からの変更と後戻りを拒否する。
func (s *Service) allowed(from, to model.ApplicationStatus) bool {
	if !s.strict || from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	return from.Precedes(to)
}

// Precheck はインターンが求人に応募済みかどうかを返す。
func (s *Service) Precheck(ctx context.Context, intern access.Intern, jobID string) (*PrecheckResult, error) {
	if intern.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	app, err := s.apps.FindByJobAndIntern(ctx, jobID, intern.ID)
	if err != nil {
		return nil, fmt.Errorf("応募の確認に失敗しました: %w", err)
	}
	if app == nil {
		return &PrecheckResult{Applied: false}, nil
	}
	status := app.Status
	return &PrecheckResult{Applied: true, Status: &status}, nil
}

// ListForCompany は企業宛ての応募一覧を求人・インターン情報付きで返す。
func (s *Service) ListForCompany(ctx context.Context, company access.Company) ([]model.ApplicationDetail, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	list, err := s.apps.ListByCompanyID(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("企業宛ての応募一覧を取得できませんでした: %w", err)
	}
	return list, nil
}

// Get は企業宛ての応募1件を求人・インターン情報付きで返す。
func (s *Service) Get(ctx context.Context, company access.Company, applicationID string) (*model.ApplicationDetail, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	detail, err := s.apps.FindDetailByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("企業宛ての応募を取得できませんでした: %w", err)
	}
	if detail == nil {
		return nil, model.NewApplicationNotFoundError()
	}
	if err := access.RequireOwner(company, access.Company{ID: detail.CompanyID}); err != nil {
		return nil, err
	}
	return detail, nil
}

// ListForIntern はインターン自身の応募一覧を求人情報付きで返す。
func (s *Service) ListForIntern(ctx context.Context, intern access.Intern) ([]model.ApplicationDetail, error) {
	if intern.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	list, err := s.apps.ListByInternID(ctx, intern.ID)
	if err != nil {
		return nil, fmt.Errorf("インターンの応募一覧を取得できませんでした: %w", err)
	}
	return list, nil
}
