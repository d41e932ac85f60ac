// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/internhub/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByProviderIdentity は外部IdPのidentityに紐づくユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindByProviderIdentity(ctx context.Context, provider, providerUserID string) (*model.User, error)

	// CreateWithIdentity はユーザーとidentityを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// FindPrincipal は有効なセッションに紐づくユーザーIDとロールを返す。
	// セッションが存在しないか期限切れの場合はnilを返す。
	FindPrincipal(ctx context.Context, sessionID string) (*model.Principal, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}

// CompanyRepository は企業プロフィールの永続化インターフェース。
type CompanyRepository interface {
	// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Company, error)
	// FindByUserID はユーザーが所有する企業を取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Company, error)
	// CreateForUser は企業を作成し、ユーザーのオンボーディング完了フラグを立てる。
	// 既に完了済み、または企業が存在する場合は ErrDuplicate を返す。
	CreateForUser(ctx context.Context, company *model.Company) error
	// Update は企業プロフィールを上書き保存する。
	Update(ctx context.Context, company *model.Company) error
}

// InternRepository はインターンプロフィールの永続化インターフェース。
type InternRepository interface {
	// FindByID は指定IDのインターンを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Intern, error)
	// FindByUserID はユーザーが所有するインターンを取得する。見つからない場合はnilを返す。
	FindByUserID(ctx context.Context, userID string) (*model.Intern, error)
	// CreateForUser はインターンを作成し、ユーザーのオンボーディング完了フラグを立てる。
	// 既に完了済み、またはインターンが存在する場合は ErrDuplicate を返す。
	CreateForUser(ctx context.Context, intern *model.Intern) error
	// Update はインターンプロフィールを上書き保存する。
	Update(ctx context.Context, intern *model.Intern) error
}

// JobRepository は求人データの永続化インターフェース。
type JobRepository interface {
	// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Job, error)
	// Create は求人を作成する。
	Create(ctx context.Context, job *model.Job) error
	// Update は求人を上書き保存する。
	Update(ctx context.Context, job *model.Job) error
	// ListByCompanyID は企業の求人一覧を作成日時の降順で返す。
	ListByCompanyID(ctx context.Context, companyID string) ([]*model.Job, error)
	// ListOpen は受付中の求人一覧を作成日時の降順で返す。
	ListOpen(ctx context.Context) ([]*model.Job, error)
}

// ApplicationRepository は応募データの永続化インターフェース。
// (job_id, intern_id) の一意性はストレージの UNIQUE 制約で保証する。
type ApplicationRepository interface {
	// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Application, error)
	// FindByJobAndIntern は求人IDとインターンIDで応募を検索する。見つからない場合はnilを返す。
	FindByJobAndIntern(ctx context.Context, jobID, internID string) (*model.Application, error)
	// FindDetailByID は応募を求人・インターン情報付きで取得する。見つからない場合はnilを返す。
	FindDetailByID(ctx context.Context, id string) (*model.ApplicationDetail, error)
	// Create は応募を作成する。一意制約違反の場合は ErrDuplicate を返す。
	Create(ctx context.Context, app *model.Application) error
	// UpdateStatus はステータスと更新日時を上書きする。
	UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus, updatedAt time.Time) error
	// ListByCompanyID は企業宛ての応募一覧を求人・インターン情報付きで返す。
	ListByCompanyID(ctx context.Context, companyID string) ([]model.ApplicationDetail, error)
	// ListByInternID はインターンの応募一覧を求人情報付きで返す。
	ListByInternID(ctx context.Context, internID string) ([]model.ApplicationDetail, error)
}

// InterviewRepository は面接データの永続化インターフェース。
// (job_id, intern_id) の一意性はストレージの UNIQUE 制約で保証する。
type InterviewRepository interface {
	// FindByID は指定IDの面接を取得する（CompanyIDは親求人から解決）。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Interview, error)
	// CreateAndAdvanceApplication は面接を作成し、同じ組の未終端の応募を
	// interview_scheduled に進める。両者は同一トランザクションで行う。
	// 一意制約違反の場合は ErrDuplicate を返す。
	CreateAndAdvanceApplication(ctx context.Context, iv *model.Interview) error
	// Update は企業側が変更可能なフィールドを上書きする。
	Update(ctx context.Context, iv *model.Interview) error
	// SetConfirmed はインターンの参加確認フラグを更新する。
	SetConfirmed(ctx context.Context, id string, confirmed bool, updatedAt time.Time) error
	// Delete は指定IDの面接を削除する。
	Delete(ctx context.Context, id string) error
	// ListByCompanyID は企業の全求人の面接を日時の昇順で返す。
	ListByCompanyID(ctx context.Context, companyID string) ([]model.InterviewDetail, error)
	// ListByJobID は求人の面接を日時の昇順で返す。
	ListByJobID(ctx context.Context, jobID string) ([]model.InterviewDetail, error)
	// ListByInternID はインターンの面接を日時の昇順で返す。
	ListByInternID(ctx context.Context, internID string) ([]model.InterviewDetail, error)
}
