// Package job は企業の求人掲載のドメインロジックを提供する。
package job

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/model"
	"github.com/hitoshi/internhub/internal/repository"
	"github.com/hitoshi/internhub/internal/security"
)

// Service は求人管理のサービス層。
// 求人の作成・更新は所有企業のみ、参照は認証済みの全ユーザーに許可する。
type Service struct {
	jobs      repository.JobRepository
	sanitizer security.TextSanitizer
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(jobs repository.JobRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{
		jobs:      jobs,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Create は企業の求人を作成する。Status 未指定の場合は open で掲載する。
func (s *Service) Create(ctx context.Context, company access.Company, fields model.JobPatch) (*model.Job, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	fields, err := s.clean(fields)
	if err != nil {
		return nil, err
	}
	if fields.Title == nil || *fields.Title == "" {
		return nil, model.NewInvalidRequestError("title は必須です")
	}

	now := s.now()
	job := &model.Job{
		ID:        uuid.New().String(),
		CompanyID: company.ID,
		Status:    model.JobStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(job)

	if err := validDates(job); err != nil {
		return nil, err
	}

	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("求人を掲載できませんでした: %w", err)
	}
	return job, nil
}

// Update は自社の求人を部分更新する。閲覧数と所有企業は変更しない。
func (s *Service) Update(ctx context.Context, company access.Company, jobID string, patch model.JobPatch) (*model.Job, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	job, err := s.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(company, access.Company{ID: job.CompanyID}); err != nil {
		return nil, err
	}

	patch, err = s.clean(patch)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil && *patch.Title == "" {
		return nil, model.NewInvalidRequestError("title は空にできません")
	}

	patch.Apply(job)
	if err := validDates(job); err != nil {
		return nil, err
	}
	job.UpdatedAt = s.now()

	if err := s.jobs.Update(ctx, job); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewJobNotFoundError()
		}
		return nil, fmt.Errorf("求人の変更内容を保存できませんでした: %w", err)
	}
	return job, nil
}

// Get は求人を1件返す。
func (s *Service) Get(ctx context.Context, jobID string) (*model.Job, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("求人詳細を取得できませんでした: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError()
	}
	return job, nil
}

// ListForCompany は自社の求人一覧を返す。募集終了の求人も含む。
func (s *Service) ListForCompany(ctx context.Context, company access.Company) ([]*model.Job, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	jobs, err := s.jobs.ListByCompanyID(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("自社求人の一覧を取得できませんでした: %w", err)
	}
	return jobs, nil
}

// ListOpen は受付中の求人一覧を返す。
func (s *Service) ListOpen(ctx context.Context) ([]*model.Job, error) {
	jobs, err := s.jobs.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("公開中の求人一覧を取得できませんでした: %w", err)
	}
	return jobs, nil
}

func (s *Service) clean(p model.JobPatch) (model.JobPatch, error) {
	p.Title = s.plain(p.Title)
	p.Type = s.plain(p.Type)
	p.Location = s.plain(p.Location)
	p.Salary = s.plain(p.Salary)
	p.Duration = s.plain(p.Duration)
	p.Description = s.rich(p.Description)
	p.Responsibilities = s.rich(p.Responsibilities)
	p.Requirements = s.rich(p.Requirements)
	p.Benefits = s.rich(p.Benefits)

	if p.Status != nil && *p.Status != model.JobStatusOpen && *p.Status != model.JobStatusClosed {
		return p, model.NewInvalidRequestError(fmt.Sprintf("status は %s か %s を指定してください", model.JobStatusOpen, model.JobStatusClosed))
	}
	return p, nil
}

func validDates(job *model.Job) error {
	if job.StartDate != nil && job.Deadline != nil && job.StartDate.Before(*job.Deadline) {
		return model.NewInvalidRequestError("startDate は deadline 以降の日付を指定してください")
	}
	return nil
}

func (s *Service) plain(v *string) *string {
	if v == nil {
		return nil
	}
	out := s.sanitizer.PlainText(*v)
	return &out
}

func (s *Service) rich(v *string) *string {
	if v == nil {
		return nil
	}
	out := s.sanitizer.RichText(*v)
	return &out
}
