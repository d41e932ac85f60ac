// Package profile は企業・インターンのプロフィール登録と更新のドメインロジックを提供する。
package profile

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

const (
	minGraduationYear = 1950
	maxGraduationYear = 2100
)

// LinkChecker はWebサイトURLの検証インターフェース。
type LinkChecker interface {
	Validate(rawURL string) error
}

// Files はプロフィールに添付するアップロードファイル。いずれも省略可能。
type Files struct {
	Image  *multipart.FileHeader
	Resume *multipart.FileHeader
	// BaseURL は保存ファイルのURL組み立てに使うリクエストの "scheme://host"。
	BaseURL string
}

// Options はサービスの動作設定。
type Options struct {
	MaxImageSize  int64
	MaxResumeSize int64
}

// Service はプロフィール管理のサービス層。
type Service struct {
	companies    repository.CompanyRepository
	interns      repository.InternRepository
	files        upload.FileStore
	sanitizer    security.TextSanitizer
	links        LinkChecker
	recorder     metrics.Recorder
	imagePolicy  upload.Policy
	resumePolicy upload.Policy
	now          func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	companies repository.CompanyRepository,
	interns repository.InternRepository,
	files upload.FileStore,
	sanitizer security.TextSanitizer,
	links LinkChecker,
	recorder metrics.Recorder,
	opts Options,
) *Service {
	return &Service{
		companies:    companies,
		interns:      interns,
		files:        files,
		sanitizer:    sanitizer,
		links:        links,
		recorder:     metrics.OrNop(recorder),
		imagePolicy:  upload.ImagePolicy(opts.MaxImageSize),
		resumePolicy: upload.ResumePolicy(opts.MaxResumeSize),
		now:          time.Now,
	}
}

// RegisterCompany は企業ロールのユーザーの企業プロフィールを登録し、オンボーディングを完了する。
func (s *Service) RegisterCompany(ctx context.Context, principal model.Principal, fields model.CompanyPatch, files Files) (*model.Company, error) {
	if err := requireRole(principal, model.RoleCompany); err != nil {
		return nil, err
	}

	existing, err := s.companies.FindByUserID(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("企業プロフィールの取得に失敗しました: %w", err)
	}
	if existing != nil {
		s.recorder.RecordConflict("profile")
		return nil, model.NewProfileAlreadyExistsError()
	}

	fields, err = s.cleanCompany(fields)
	if err != nil {
		return nil, err
	}
	if fields.Name == nil || *fields.Name == "" {
		return nil, model.NewInvalidRequestError("name は必須です")
	}

	logo, err := s.save(ctx, s.imagePolicy, files.Image, files.BaseURL)
	if err != nil {
		return nil, err
	}
	if logo != nil {
		fields.LogoURL = &logo.URL
	}

	now := s.now()
	company := &model.Company{
		ID:        uuid.New().String(),
		UserID:    principal.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(company)

	if err := s.companies.CreateForUser(ctx, company); err != nil {
		s.discard(logo)
		if errors.Is(err, repository.ErrDuplicate) {
			s.recorder.RecordConflict("profile")
			return nil, model.NewProfileAlreadyExistsError()
		}
		return nil, fmt.Errorf("企業プロフィールの登録に失敗しました: %w", err)
	}

	slog.Info("企業プロフィールを登録しました",
		slog.String("user_id", principal.UserID),
		slog.String("company_id", company.ID),
	)
	return company, nil
}

// UpdateCompany は自社プロフィールを部分更新する。ロゴを添付した場合は新しいURLに置き換える。
func (s *Service) UpdateCompany(ctx context.Context, caller access.Company, patch model.CompanyPatch, files Files) (*model.Company, error) {
	company, err := s.CompanyMe(ctx, caller)
	if err != nil {
		return nil, err
	}

	patch, err = s.cleanCompany(patch)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, model.NewInvalidRequestError("name は空にできません")
	}

	logo, err := s.save(ctx, s.imagePolicy, files.Image, files.BaseURL)
	if err != nil {
		return nil, err
	}
	if logo != nil {
		patch.LogoURL = &logo.URL
	}

	patch.Apply(company)
	company.UpdatedAt = s.now()

	if err := s.companies.Update(ctx, company); err != nil {
		s.discard(logo)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewProfileNotFoundError()
		}
		return nil, fmt.Errorf("企業プロフィールの更新に失敗しました: %w", err)
	}
	return company, nil
}

// CompanyMe は呼び出し元の企業プロフィールを返す。
func (s *Service) CompanyMe(ctx context.Context, caller access.Company) (*model.Company, error) {
	if caller.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	company, err := s.companies.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("企業プロフィールの取得に失敗しました: %w", err)
	}
	if company == nil {
		return nil, model.NewProfileNotFoundError()
	}
	if err := access.RequireOwner(caller, access.Company{ID: company.ID}); err != nil {
		return nil, err
	}
	return company, nil
}

// RegisterIntern はインターンロールのユーザーのプロフィールを登録し、オンボーディングを完了する。
func (s *Service) RegisterIntern(ctx context.Context, principal model.Principal, fields model.InternPatch, files Files) (*model.Intern, error) {
	if err := requireRole(principal, model.RoleIntern); err != nil {
		return nil, err
	}

	existing, err := s.interns.FindByUserID(ctx, principal.UserID)
	if err != nil {
		return nil, fmt.Errorf("インターンプロフィールの取得に失敗しました: %w", err)
	}
	if existing != nil {
		s.recorder.RecordConflict("profile")
		return nil, model.NewProfileAlreadyExistsError()
	}

	fields, err = s.cleanIntern(fields)
	if err != nil {
		return nil, err
	}
	if fields.Name == nil || *fields.Name == "" {
		return nil, model.NewInvalidRequestError("name は必須です")
	}

	stored, err := s.saveInternFiles(ctx, &fields, files)
	if err != nil {
		return nil, err
	}

	now := s.now()
	intern := &model.Intern{
		ID:        uuid.New().String(),
		UserID:    principal.UserID,
		Skills:    []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	fields.Apply(intern)

	if err := s.interns.CreateForUser(ctx, intern); err != nil {
		s.discard(stored...)
		if errors.Is(err, repository.ErrDuplicate) {
			s.recorder.RecordConflict("profile")
			return nil, model.NewProfileAlreadyExistsError()
		}
		return nil, fmt.Errorf("インターンプロフィールの登録に失敗しました: %w", err)
	}

	slog.Info("インターンプロフィールを登録しました",
		slog.String("user_id", principal.UserID),
		slog.String("intern_id", intern.ID),
	)
	return intern, nil
}

// UpdateIntern は自身のプロフィールを部分更新する。
func (s *Service) UpdateIntern(ctx context.Context, caller access.Intern, patch model.InternPatch, files Files) (*model.Intern, error) {
	intern, err := s.InternMe(ctx, caller)
	if err != nil {
		return nil, err
	}

	patch, err = s.cleanIntern(patch)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil && *patch.Name == "" {
		return nil, model.NewInvalidRequestError("name は空にできません")
	}

	stored, err := s.saveInternFiles(ctx, &patch, files)
	if err != nil {
		return nil, err
	}

	patch.Apply(intern)
	intern.UpdatedAt = s.now()

	if err := s.interns.Update(ctx, intern); err != nil {
		s.discard(stored...)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NewProfileNotFoundError()
		}
		return nil, fmt.Errorf("インターンプロフィールの更新に失敗しました: %w", err)
	}
	return intern, nil
}

// InternMe は呼び出し元のインターンプロフィールを返す。
func (s *Service) InternMe(ctx context.Context, caller access.Intern) (*model.Intern, error) {
	if caller.ID == "" {
		return nil, model.NewUnauthenticatedError()
	}
	intern, err := s.interns.FindByID(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("インターンプロフィールの取得に失敗しました: %w", err)
	}
	if intern == nil {
		return nil, model.NewProfileNotFoundError()
	}
	if err := access.RequireOwner(caller, access.Intern{ID: intern.ID}); err != nil {
		return nil, err
	}
	return intern, nil
}

func requireRole(principal model.Principal, role model.Role) error {
	if principal.UserID == "" {
		return model.NewUnauthenticatedError()
	}
	if principal.Role != role {
		return model.NewWrongRoleError(role)
	}
	return nil
}

// cleanCompany は自由記述を無害化し、WebサイトURLを検証する。
func (s *Service) cleanCompany(p model.CompanyPatch) (model.CompanyPatch, error) {
	p.Name = s.plain(p.Name)
	p.Industry = s.plain(p.Industry)
	p.Email = s.plain(p.Email)
	p.Phone = s.plain(p.Phone)
	p.Location = s.plain(p.Location)
	p.Description = s.rich(p.Description)
	// ロゴURLはアップロード経由でのみ設定する
	p.LogoURL = nil

	if p.Website != nil {
		website := strings.TrimSpace(*p.Website)
		if err := s.links.Validate(website); err != nil {
			return p, model.NewInvalidRequestError("website: " + err.Error())
		}
		p.Website = &website
	}
	return p, nil
}

// cleanIntern は自由記述を無害化し、スキルと卒業年を正規化する。
func (s *Service) cleanIntern(p model.InternPatch) (model.InternPatch, error) {
	p.Name = s.plain(p.Name)
	p.University = s.plain(p.University)
	p.Major = s.plain(p.Major)
	p.Phone = s.plain(p.Phone)
	p.Location = s.plain(p.Location)
	p.Bio = s.rich(p.Bio)
	p.ImageURL = nil
	p.ResumeURL = nil

	if p.GraduationYear != nil {
		year := *p.GraduationYear
		if year < minGraduationYear || year > maxGraduationYear {
			return p, model.NewInvalidRequestError(fmt.Sprintf("graduationYear は %d から %d の範囲で指定してください", minGraduationYear, maxGraduationYear))
		}
	}

	if p.Skills != nil {
		skills := make([]string, 0, len(p.Skills))
		seen := make(map[string]struct{}, len(p.Skills))
		for _, raw := range p.Skills {
			skill := s.sanitizer.PlainText(raw)
			if skill == "" {
				continue
			}
			if _, dup := seen[strings.ToLower(skill)]; dup {
				continue
			}
			seen[strings.ToLower(skill)] = struct{}{}
			skills = append(skills, skill)
		}
		p.Skills = skills
	}
	return p, nil
}

// saveInternFiles はプロフィール画像と履歴書を保存し、URLをパッチに設定する。
// 片方の保存に失敗した場合は保存済みのもう片方を破棄する。
func (s *Service) saveInternFiles(ctx context.Context, p *model.InternPatch, files Files) ([]*upload.Stored, error) {
	image, err := s.save(ctx, s.imagePolicy, files.Image, files.BaseURL)
	if err != nil {
		return nil, err
	}
	resume, err := s.save(ctx, s.resumePolicy, files.Resume, files.BaseURL)
	if err != nil {
		s.discard(image)
		return nil, err
	}

	var stored []*upload.Stored
	if image != nil {
		p.ImageURL = &image.URL
		stored = append(stored, image)
	}
	if resume != nil {
		p.ResumeURL = &resume.URL
		stored = append(stored, resume)
	}
	return stored, nil
}

func (s *Service) save(ctx context.Context, policy upload.Policy, fh *multipart.FileHeader, baseURL string) (*upload.Stored, error) {
	if fh == nil {
		return nil, nil
	}
	return s.files.Save(ctx, policy, fh, baseURL)
}

func (s *Service) discard(stored ...*upload.Stored) {
	for _, st := range stored {
		if st == nil {
			continue
		}
		if err := s.files.Discard(st); err != nil {
			slog.Warn("アップロードファイルの削除に失敗しました", "path", st.Path, "error", err)
		}
	}
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
