// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す。サインアップ時に決定し、以後変更しない。
type Role string

const (
	// RoleCompany は求人を掲載する企業ユーザー。
	RoleCompany Role = "company"
	// RoleIntern はインターンに応募する学生ユーザー。
	RoleIntern Role = "intern"
)

// Valid はロールが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	return r == RoleCompany || r == RoleIntern
}

// User はサービス利用ユーザーを表す。
// Completed はオンボーディング（プロフィール登録）が完了しているかを示す。
type User struct {
	ID        string
	Email     string
	Name      string
	Image     string
	Role      Role
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Identity は外部IdPとの紐付け情報を表す。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Principal は検証済みセッションから導出した認証主体。
// ロールと所有プロフィールの解決前の段階を表す。
type Principal struct {
	UserID string
	Role   Role
}
