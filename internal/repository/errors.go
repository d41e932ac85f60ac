package repository

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate は一意制約に違反した書き込みを表す。
// サービス層で Conflict 系の APIError に変換する。
var ErrDuplicate = errors.New("duplicate record")

// ErrNotFound は更新・削除対象の行が存在しなかったことを表す。
var ErrNotFound = errors.New("record not found")

const (
	// uniqueViolation はPostgreSQLの unique_violation SQLSTATE。
	uniqueViolation = "23505"
	// invalidTextRepresentation はUUID列にUUIDとして解釈できない値を渡した場合の SQLSTATE。
	invalidTextRepresentation = "22P02"
)

// isUniqueViolation はエラーが一意制約違反かどうかを判定する。
func isUniqueViolation(err error) bool {
	return hasCode(err, uniqueViolation)
}

// noRow は該当行が存在しないことを表すエラーかどうかを判定する。
// パスから受け取ったIDがUUID形式でない場合も、存在しない行として扱う。
func noRow(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || hasCode(err, invalidTextRepresentation)
}

func hasCode(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == code
}
