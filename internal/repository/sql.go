package repository

import (
	"database/sql"
	"fmt"
	"strings"
)

// qualify はカンマ区切りの列リストの各列にテーブル別名を付与する。
func qualify(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// expectOneRow は更新・削除で対象行が存在したことを確認する。
func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
