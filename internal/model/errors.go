// Package model はドメインモデルを定義する。
package model

import "fmt"

// ErrorKind はエラーの分類。HTTPステータスへの変換に使用する。
type ErrorKind string

const (
	KindUnauthenticated ErrorKind = "unauthenticated"
	KindForbidden       ErrorKind = "forbidden"
	KindNotFound        ErrorKind = "not_found"
	KindValidation      ErrorKind = "validation"
	KindConflict        ErrorKind = "conflict"
	KindUnavailable     ErrorKind = "unavailable"
	KindRateLimited     ErrorKind = "rate_limited"
	KindInternal        ErrorKind = "internal"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Kind     ErrorKind // エラー分類
	Code     string    // エラーコード
	Message  string    // エラーメッセージ
	Category string    // カテゴリ: auth, validation, application, interview, upload, system
	Action   string    // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated      = "UNAUTHENTICATED"
	ErrCodeWrongRole            = "WRONG_ROLE"
	ErrCodeNoProfile            = "NO_PROFILE"
	ErrCodeNotOwner             = "NOT_OWNER"
	ErrCodeJobNotFound          = "JOB_NOT_FOUND"
	ErrCodeApplicationNotFound  = "APPLICATION_NOT_FOUND"
	ErrCodeInterviewNotFound    = "INTERVIEW_NOT_FOUND"
	ErrCodeInternNotFound       = "INTERN_NOT_FOUND"
	ErrCodeProfileNotFound      = "PROFILE_NOT_FOUND"
	ErrCodeMissingCoverLetter   = "MISSING_COVER_LETTER"
	ErrCodeInvalidStatus        = "INVALID_STATUS"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeInvalidRequest       = "INVALID_REQUEST"
	ErrCodeUnsupportedFileType  = "UNSUPPORTED_FILE_TYPE"
	ErrCodeFileTooLarge         = "FILE_TOO_LARGE"
	ErrCodeDuplicateApplication = "DUPLICATE_APPLICATION"
	ErrCodeDuplicateInterview   = "DUPLICATE_INTERVIEW"
	ErrCodeProfileAlreadyExists = "PROFILE_ALREADY_REGISTERED"
	ErrCodeUnavailable          = "UNAVAILABLE"
	ErrCodeRateLimited          = "RATE_LIMIT_EXCEEDED"
	ErrCodeCSRFTokenInvalid     = "CSRF_TOKEN_INVALID"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// ownershipMessage は所有者でない場合と存在しない場合で共通の文言。
// 他社リソースの存在有無を応答本文から推測できないようにする。
const ownershipMessage = "指定されたリソースが見つからないか、アクセス権がありません。"

// NewUnauthenticatedError は未認証エラーを生成する。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Kind:     KindUnauthenticated,
		Code:     ErrCodeUnauthenticated,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewWrongRoleError はロール不一致エラーを生成する。
func NewWrongRoleError(required Role) *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     ErrCodeWrongRole,
		Message:  fmt.Sprintf("この操作は %s アカウントでのみ実行できます。", required),
		Category: "auth",
		Action:   "適切なアカウントでログインし直してください。",
	}
}

// NewNoProfileError はプロフィール未登録エラーを生成する。
func NewNoProfileError(role Role) *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     ErrCodeNoProfile,
		Message:  fmt.Sprintf("%s プロフィールが登録されていません。", role),
		Category: "auth",
		Action:   "オンボーディングを完了してください。",
	}
}

// NewNotOwnerError は所有者不一致エラーを生成する。
func NewNotOwnerError() *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     ErrCodeNotOwner,
		Message:  ownershipMessage,
		Category: "auth",
		Action:   "IDを確認してください。",
	}
}

// NewJobNotFoundError は求人未検出エラーを生成する。
func NewJobNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeJobNotFound,
		Message:  ownershipMessage,
		Category: "job",
		Action:   "求人IDを確認してください。",
	}
}

// NewApplicationNotFoundError は応募未検出エラーを生成する。
func NewApplicationNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeApplicationNotFound,
		Message:  ownershipMessage,
		Category: "application",
		Action:   "応募IDを確認してください。",
	}
}

// NewInterviewNotFoundError は面接未検出エラーを生成する。
func NewInterviewNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeInterviewNotFound,
		Message:  ownershipMessage,
		Category: "interview",
		Action:   "面接IDを確認してください。",
	}
}

// NewInternNotFoundError はインターン未検出エラーを生成する。
func NewInternNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeInternNotFound,
		Message:  "指定されたインターンが見つかりません。",
		Category: "interview",
		Action:   "インターンIDを確認してください。",
	}
}

// NewProfileNotFoundError はプロフィール未検出エラーを生成する。
func NewProfileNotFoundError() *APIError {
	return &APIError{
		Kind:     KindNotFound,
		Code:     ErrCodeProfileNotFound,
		Message:  "プロフィールが見つかりません。",
		Category: "profile",
		Action:   "オンボーディングを完了してください。",
	}
}

// NewMissingCoverLetterError はカバーレター未入力エラーを生成する。
func NewMissingCoverLetterError() *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeMissingCoverLetter,
		Message:  "カバーレターは必須です。",
		Category: "validation",
		Action:   "カバーレターを入力してください。",
	}
}

// NewInvalidStatusError は無効なステータス値エラーを生成する。
func NewInvalidStatusError(status string) *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeInvalidStatus,
		Message:  fmt.Sprintf("無効なステータスです: %s", status),
		Category: "validation",
		Action:   "new、under_review、interview_scheduled、accepted、rejected のいずれかを指定してください。",
	}
}

// NewInvalidTransitionError は許可されていないステータス遷移エラーを生成する。
func NewInvalidTransitionError(from, to ApplicationStatus) *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeInvalidTransition,
		Message:  fmt.Sprintf("ステータスを %s から %s に変更できません。", from, to),
		Category: "application",
		Action:   "選考の進行順にステータスを変更してください。",
	}
}

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewUnsupportedFileTypeError は許可されていないファイル形式エラーを生成する。
func NewUnsupportedFileTypeError(allowed []string) *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeUnsupportedFileType,
		Message:  "このファイル形式はアップロードできません。",
		Category: "upload",
		Action:   fmt.Sprintf("次の形式のファイルを選択してください: %v", allowed),
	}
}

// NewFileTooLargeError はファイルサイズ超過エラーを生成する。
func NewFileTooLargeError(limit int64) *APIError {
	return &APIError{
		Kind:     KindValidation,
		Code:     ErrCodeFileTooLarge,
		Message:  fmt.Sprintf("ファイルサイズが上限（%d バイト）を超えています。", limit),
		Category: "upload",
		Action:   "より小さいファイルを選択してください。",
	}
}

// NewDuplicateApplicationError は同一求人への重複応募エラーを生成する。
func NewDuplicateApplicationError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeDuplicateApplication,
		Message:  "この求人には既に応募しています。",
		Category: "application",
		Action:   "応募一覧から状況を確認してください。",
	}
}

// NewDuplicateInterviewError は同一インターン・求人の重複面接エラーを生成する。
func NewDuplicateInterviewError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeDuplicateInterview,
		Message:  "このインターンとの面接は既に登録されています。",
		Category: "interview",
		Action:   "既存の面接を編集してください。",
	}
}

// NewProfileAlreadyExistsError はプロフィール二重登録エラーを生成する。
func NewProfileAlreadyExistsError() *APIError {
	return &APIError{
		Kind:     KindConflict,
		Code:     ErrCodeProfileAlreadyExists,
		Message:  "プロフィールは既に登録されています。",
		Category: "profile",
		Action:   "プロフィールの更新を利用してください。",
	}
}

// NewUnavailableError は下流のストアやファイルシステムの障害を表す再試行可能エラーを生成する。
func NewUnavailableError() *APIError {
	return &APIError{
		Kind:     KindUnavailable,
		Code:     ErrCodeUnavailable,
		Message:  "現在サービスを利用できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Kind:     KindRateLimited,
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-After ヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewCSRFTokenInvalidError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFTokenInvalidError() *APIError {
	return &APIError{
		Kind:     KindForbidden,
		Code:     ErrCodeCSRFTokenInvalid,
		Message:  "CSRFトークンが無効です。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Kind:     KindInternal,
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
