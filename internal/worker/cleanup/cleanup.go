// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// セッションの検証は有効期限を都度確認するため、削除は容量の回収のみを目的とする。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CleanupJob は期限切れセッションを削除するジョブ。
// 削除は冪等で、対象がない場合もエラーにならない。
type CleanupJob struct {
	db     Executor
	logger *slog.Logger
	now    func() time.Time

	// Grace は有効期限を過ぎてから削除するまでの猶予期間（デフォルト: 0）。
	Grace time.Duration
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// Run は expires_at が基準時刻より前のセッションを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.Add(-j.Grace).UTC()

	query := `DELETE FROM sessions WHERE expires_at < $1`
	result, err := j.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Time("cutoff", cutoff),
		)
		return fmt.Errorf("セッションクリーンアップの実行に失敗: %w", err)
	}

	deletedCount, err := result.RowsAffected()
	if err != nil {
		j.logger.Error("削除件数の取得に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	duration := time.Since(start)
	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deletedCount),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// initialRetryDelay は失敗直後の再実行までの遅延。連続失敗ごとに2倍にする。
const initialRetryDelay = time.Minute

// nextDelay は次回実行までの待ち時間を返す。
// 失敗が続く場合は initialRetryDelay から指数的に延ばし、interval を上限とする。
func nextDelay(interval time.Duration, consecutiveFailures int) time.Duration {
	if consecutiveFailures == 0 {
		return interval
	}
	delay := initialRetryDelay
	for i := 1; i < consecutiveFailures; i++ {
		delay *= 2
		if delay >= interval {
			return interval
		}
	}
	return min(delay, interval)
}

// Start は起動直後に1回実行し、以後 interval ごとに Run を繰り返す。
// ctx がキャンセルされるまでブロックする。interval が0以下の場合は1回だけ実行して返る。
// 失敗した場合は次回の定期実行を待たず、間隔を延ばしながら再試行する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	failures := 0
	if err := j.Run(ctx); err != nil {
		failures++
	}
	if interval <= 0 {
		return
	}

	timer := time.NewTimer(nextDelay(interval, failures))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			if err := j.Run(ctx); err != nil {
				failures++
			} else {
				failures = 0
			}
			timer.Reset(nextDelay(interval, failures))
		}
	}
}
