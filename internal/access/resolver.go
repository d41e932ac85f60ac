package access

import (
	"context"
	"fmt"

	"github.com/hitoshi/internhub/internal/model"
)

// CompanyFinder はユーザーIDから企業プロフィールを検索する。
type CompanyFinder interface {
	FindByUserID(ctx context.Context, userID string) (*model.Company, error)
}

// InternFinder はユーザーIDからインターンプロフィールを検索する。
type InternFinder interface {
	FindByUserID(ctx context.Context, userID string) (*model.Intern, error)
}

// Resolver は Principal から所有プロフィールを解決する。読み取りのみを行う。
type Resolver struct {
	companies CompanyFinder
	interns   InternFinder
}

// NewResolver はResolverを生成する。
func NewResolver(companies CompanyFinder, interns InternFinder) *Resolver {
	return &Resolver{companies: companies, interns: interns}
}

// Resolve は Principal のロールに対応するプロフィールを検索し Identity を返す。
// オンボーディング未完了でプロフィールが存在しない場合は nil, nil を返す。
func (r *Resolver) Resolve(ctx context.Context, p model.Principal) (Identity, error) {
	switch p.Role {
	case model.RoleCompany:
		c, err := r.companies.FindByUserID(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("企業プロフィールの解決に失敗しました: %w", err)
		}
		if c == nil {
			return nil, nil
		}
		return Company{ID: c.ID}, nil
	case model.RoleIntern:
		in, err := r.interns.FindByUserID(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("インターンプロフィールの解決に失敗しました: %w", err)
		}
		if in == nil {
			return nil, nil
		}
		return Intern{ID: in.ID}, nil
	}
	return nil, nil
}
