package access

import (
	"github.com/hitoshi/internhub/internal/model"
)

// Requirement はエンドポイントが要求するロールとプロフィールの条件。
type Requirement struct {
	// Role が空の場合はどちらのロールでも許可する。
	Role model.Role
	// Profile が true の場合、所有プロフィールの登録済みを要求する。
	Profile bool
}

var (
	// AnyProfile はロールを問わずプロフィール登録済みを要求する。
	AnyProfile = Requirement{Profile: true}
	// CompanyProfile は企業プロフィール登録済みを要求する。
	CompanyProfile = Requirement{Role: model.RoleCompany, Profile: true}
	// InternProfile はインターンプロフィール登録済みを要求する。
	InternProfile = Requirement{Role: model.RoleIntern, Profile: true}
	// CompanyRole は企業ロールのみを要求する（オンボーディング用）。
	CompanyRole = Requirement{Role: model.RoleCompany}
	// InternRole はインターンロールのみを要求する（オンボーディング用）。
	InternRole = Requirement{Role: model.RoleIntern}
	// Authenticated は認証済みであることのみを要求する。
	Authenticated = Requirement{}
)

// Check は認証とロール適格性を順に検査し、最初に失敗した条件のエラーを返す。
// principal が nil の場合は未認証、id が nil の場合はプロフィール未登録として扱う。
func Check(principal *model.Principal, id Identity, req Requirement) error {
	if principal == nil || principal.UserID == "" {
		return model.NewUnauthenticatedError()
	}
	if req.Role != "" && principal.Role != req.Role {
		return model.NewWrongRoleError(req.Role)
	}
	if req.Profile && id == nil {
		return model.NewNoProfileError(principal.Role)
	}
	return nil
}

// RequireOwner は呼び出し元が owner と同一のプロフィールであるかを検査する。
// owner には対象リソース（または親の求人）の所有者を Company{ID} か Intern{ID} で渡す。
// 型が異なる場合（企業の資源にインターンがアクセスした場合など）も不一致として扱う。
func RequireOwner(caller Identity, owner Identity) error {
	if caller == nil {
		return model.NewUnauthenticatedError()
	}
	if owner == nil || owner.OwnerID() == "" || caller != owner {
		return model.NewNotOwnerError()
	}
	return nil
}
