// Package access はリクエスト境界での認可（ロール判定と所有者スコープ）を提供する。
//
// 認証済みのリクエストには Company か Intern のいずれかの Identity が付与される。
// Identity が付与されていないことは未認証（またはプロフィール未登録）を意味する。
package access

import (
	"context"

	"github.com/hitoshi/internhub/internal/model"
)

// Identity は所有プロフィールでスコープされた呼び出し元。
// 実装は Company と Intern のみで、利用側は型スイッチで分岐する。
type Identity interface {
	// OwnerID はスコープ対象のプロフィールIDを返す。
	OwnerID() string
	// Role は Identity に対応するロールを返す。
	Role() model.Role

	sealed()
}

// Company は企業プロフィールでスコープされた呼び出し元。
type Company struct {
	ID string
}

// OwnerID は企業IDを返す。
func (c Company) OwnerID() string { return c.ID }

// Role は RoleCompany を返す。
func (Company) Role() model.Role { return model.RoleCompany }

func (Company) sealed() {}

// Intern はインターンプロフィールでスコープされた呼び出し元。
type Intern struct {
	ID string
}

// OwnerID はインターンIDを返す。
func (i Intern) OwnerID() string { return i.ID }

// Role は RoleIntern を返す。
func (Intern) Role() model.Role { return model.RoleIntern }

func (Intern) sealed() {}

type contextKey string

const (
	principalContextKey = contextKey("principal")
	identityContextKey  = contextKey("identity")
)

// WithPrincipal は検証済みの Principal をコンテキストに格納する。
func WithPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFrom はコンテキストから Principal を取得する。
func PrincipalFrom(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(model.Principal)
	return p, ok && p.UserID != ""
}

// WithIdentity はスコープ済み Identity をコンテキストに格納する。
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFrom はコンテキストから Identity を取得する。
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok && id != nil
}

// CompanyFrom はコンテキストの Identity が企業であればそれを返す。
func CompanyFrom(ctx context.Context) (Company, bool) {
	id, _ := IdentityFrom(ctx)
	c, ok := id.(Company)
	return c, ok
}

// InternFrom はコンテキストの Identity がインターンであればそれを返す。
func InternFrom(ctx context.Context) (Intern, bool) {
	id, _ := IdentityFrom(ctx)
	i, ok := id.(Intern)
	return i, ok
}
