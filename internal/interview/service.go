// Package interview は面接日程の登録・変更・参加確認のドメインロジックを提供する。
package interview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/internhub/internal/access"
	"github.com/hitoshi/internhub/internal/metrics"
	"github.com/hitoshi/internhub/internal/model"
	"github.com/hitoshi/internhub/internal/repository"
	"github.com/hitoshi/internhub/internal/security"
)

// LinkChecker はオンライン面接URLの検証インターフェース。
type LinkChecker interface {
	Validate(rawURL string) error
}

// ScheduleInput は面接登録の入力内容。Date のみ必須。
type ScheduleInput struct {
	JobID    string
	InternID string
	Date     time.Time
	Type     string
	Location string
	Platform string
	Link     string
}

// Service は面接管理のサービス層。
type Service struct {
	interviews repository.InterviewRepository
	jobs       repository.JobRepository
	interns    repository.InternRepository
	links      LinkChecker
	sanitizer  security.TextSanitizer
	recorder   metrics.Recorder
	now        func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	interviews repository.InterviewRepository,
	jobs repository.JobRepository,
	interns repository.InternRepository,
	links LinkChecker,
	sanitizer security.TextSanitizer,
	recorder metrics.Recorder,
) *Service {
	return &Service{
		interviews: interviews,
		jobs:       jobs,
		interns:    interns,
		links:      links,
		sanitizer:  sanitizer,
		recorder:   metrics.OrNop(recorder),
		now:        time.Now,
	}
}

// Schedule は自社求人に対してインターンとの面接を登録する。
// 同じ求人・インターンの応募が未終端であれば interview_scheduled に進める。
func (s *Service) Schedule(ctx context.Context, company access.Company, in ScheduleInput) (*model.Interview, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	if in.Date.IsZero() {
		return nil, model.NewInvalidRequestError("date は必須です")
	}

	job, err := s.ownedJob(ctx, company, in.JobID)
	if err != nil {
		return nil, err
	}

	intern, err := s.interns.FindByID(ctx, in.InternID)
	if err != nil {
		return nil, fmt.Errorf("面接対象のインターンを確認できませんでした: %w", err)
	}
	if intern == nil {
		return nil, model.NewInternNotFoundError()
	}

	if err := s.checkLink(in.Link); err != nil {
		return nil, err
	}

	now := s.now()
	iv := &model.Interview{
		ID:        uuid.New().String(),
		JobID:     job.ID,
		CompanyID: job.CompanyID,
		InternID:  intern.ID,
		Date:      in.Date.UTC(),
		Type:      s.sanitizer.PlainText(in.Type),
		Location:  s.sanitizer.PlainText(in.Location),
		Platform:  s.sanitizer.PlainText(in.Platform),
		Link:      in.Link,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.interviews.CreateAndAdvanceApplication(ctx, iv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.recorder.RecordConflict("interview")
			return nil, model.NewDuplicateInterviewError()
		}
		return nil, fmt.Errorf("面接の登録に失敗しました: %w", err)
	}

	s.recorder.RecordInterviewScheduled()
	slog.Info("面接を登録しました",
		slog.String("interview_id", iv.ID),
		slog.String("job_id", iv.JobID),
		slog.String("intern_id", iv.InternID),
	)
	return iv, nil
}

// Get は自社求人の面接を1件返す。
func (s *Service) Get(ctx context.Context, company access.Company, interviewID string) (*model.Interview, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	return s.ownedInterview(ctx, company, interviewID)
}

// Update は面接の日時・形式・場所・リンクを部分更新する。参加確認フラグは変更しない。
func (s *Service) Update(ctx context.Context, company access.Company, interviewID string, patch model.InterviewPatch) (*model.Interview, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	iv, err := s.ownedInterview(ctx, company, interviewID)
	if err != nil {
		return nil, err
	}

	if patch.Link != nil {
		if err := s.checkLink(*patch.Link); err != nil {
			return nil, err
		}
	}
	if patch.Date != nil {
		if patch.Date.IsZero() {
			return nil, model.NewInvalidRequestError("date は必須です")
		}
		utc := patch.Date.UTC()
		patch.Date = &utc
	}
	patch.Type = s.plain(patch.Type)
	patch.Location = s.plain(patch.Location)
	patch.Platform = s.plain(patch.Platform)

	patch.Apply(iv)
	iv.UpdatedAt = s.advance(iv.UpdatedAt)

	if err := s.interviews.Update(ctx, iv); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewInterviewNotFoundError()
		}
		return nil, fmt.Errorf("面接の変更内容を保存できませんでした: %w", err)
	}
	return iv, nil
}

// Delete は自社求人の面接を削除する。応募のステータスは変更しない。
func (s *Service) Delete(ctx context.Context, company access.Company, interviewID string) error {
	if company.ID == "" {
		return model.NewUnauthenticatedError()
	}

	iv, err := s.ownedInterview(ctx, company, interviewID)
	if err != nil {
		return err
	}

	if err := s.interviews.Delete(ctx, iv.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.NewInterviewNotFoundError()
		}
		return fmt.Errorf("面接を取り消せませんでした: %w", err)
	}
	return nil
}

// Confirm は面接の対象インターンが参加確認フラグを設定する。
func (s *Service) Confirm(ctx context.Context, intern access.Intern, interviewID string, confirmed bool) (*model.Interview, error) {
	if intern.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}

	iv, err := s.find(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(intern, access.Intern{ID: iv.InternID}); err != nil {
		return nil, err
	}

	updatedAt := s.advance(iv.UpdatedAt)
	if err := s.interviews.SetConfirmed(ctx, iv.ID, confirmed, updatedAt); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewInterviewNotFoundError()
		}
		return nil, fmt.Errorf("参加確認の更新に失敗しました: %w", err)
	}

	iv.Confirmed = confirmed
	iv.UpdatedAt = updatedAt
	return iv, nil
}

// ListForCompany は企業の全求人の面接を日時の昇順で返す。
func (s *Service) ListForCompany(ctx context.Context, company access.Company) ([]model.InterviewDetail, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	list, err := s.interviews.ListByCompanyID(ctx, company.ID)
	if err != nil {
		return nil, fmt.Errorf("企業の面接一覧を取得できませんでした: %w", err)
	}
	return list, nil
}

// ListForJob は自社求人の面接を日時の昇順で返す。
func (s *Service) ListForJob(ctx context.Context, company access.Company, jobID string) ([]model.InterviewDetail, error) {
	if company.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	if _, err := s.ownedJob(ctx, company, jobID); err != nil {
		return nil, err
	}
	list, err := s.interviews.ListByJobID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("求人別の面接一覧を取得できませんでした: %w", err)
	}
	return list, nil
}

// ListForIntern はインターン自身の面接を日時の昇順で返す。
func (s *Service) ListForIntern(ctx context.Context, intern access.Intern) ([]model.InterviewDetail, error) {
	if intern.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	list, err := s.interviews.ListByInternID(ctx, intern.ID)
	if err != nil {
		return nil, fmt.Errorf("インターンの面接一覧を取得できませんでした: %w", err)
	}
	return list, nil
}

func (s *Service) ownedJob(ctx context.Context, company access.Company, jobID string) (*model.Job, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("面接対象の求人を確認できませんでした: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError()
	}
	if err := access.RequireOwner(company, access.Company{ID: job.CompanyID}); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *Service) ownedInterview(ctx context.Context, company access.Company, interviewID string) (*model.Interview, error) {
	iv, err := s.find(ctx, interviewID)
	if err != nil {
		return nil, err
	}
	if err := access.RequireOwner(company, access.Company{ID: iv.CompanyID}); err != nil {
		return nil, err
	}
	return iv, nil
}

func (s *Service) find(ctx context.Context, interviewID string) (*model.Interview, error) {
	iv, err := s.interviews.FindByID(ctx, interviewID)
	if err != nil {
		return nil, fmt.Errorf("面接を確認できませんでした: %w", err)
	}
	if iv == nil {
		return nil, model.NewInterviewNotFoundError()
	}
	return iv, nil
}

func (s *Service) checkLink(link string) error {
	if err := s.links.Validate(link); err != nil {
		return model.NewInvalidRequestError("link: " + err.Error())
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

// advance は更新日時が必ず前回より後になるように現在時刻を返す。
func (s *Service) advance(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		return prev.Add(time.Microsecond)
	}
	return now
}
