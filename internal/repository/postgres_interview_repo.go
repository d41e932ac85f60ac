package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/internhub/internal/model"
)

// PostgresInterviewRepo はPostgreSQLを使用した面接リポジトリ。
// interviews は company_id を持たず、親求人から解決する。
type PostgresInterviewRepo struct {
	db *sql.DB
}

// NewPostgresInterviewRepo はPostgresInterviewRepoを生成する。
func NewPostgresInterviewRepo(db *sql.DB) *PostgresInterviewRepo {
	return &PostgresInterviewRepo{db: db}
}

const interviewSelect = `SELECT v.id, v.job_id, j.company_id, v.intern_id, v.date, v.type, v.location,
	v.platform, v.link, v.confirmed, v.created_at, v.updated_at, j.title, i.name
	FROM interviews v
	JOIN jobs j ON j.id = v.job_id
	JOIN interns i ON i.id = v.intern_id`

func scanInterviewDetail(row interface{ Scan(...any) error }) (*model.InterviewDetail, error) {
	d := &model.InterviewDetail{}
	iv := &d.Interview
	err := row.Scan(&iv.ID, &iv.JobID, &iv.CompanyID, &iv.InternID, &iv.Date, &iv.Type, &iv.Location,
		&iv.Platform, &iv.Link, &iv.Confirmed, &iv.CreatedAt, &iv.UpdatedAt, &d.JobTitle, &d.InternName)
	return d, err
}

// FindByID は指定IDの面接を取得する。見つからない場合はnilを返す。
func (r *PostgresInterviewRepo) FindByID(ctx context.Context, id string) (*model.Interview, error) {
	d, err := scanInterviewDetail(r.db.QueryRowContext(ctx, interviewSelect+` WHERE v.id = $1`, id))
	if noRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("面接の取得に失敗しました: %w", err)
	}
	return &d.Interview, nil
}

// CreateAndAdvanceApplication は面接を作成し、同じ組の未終端の応募を interview_scheduled に進める。
func (r *PostgresInterviewRepo) CreateAndAdvanceApplication(ctx context.Context, iv *model.Interview) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO interviews (id, job_id, intern_id, date, type, location, platform, link, confirmed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		iv.ID, iv.JobID, iv.InternID, iv.Date, iv.Type, iv.Location, iv.Platform, iv.Link,
		iv.Confirmed, iv.CreatedAt, iv.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("面接の作成に失敗しました: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE applications SET status = $3, updated_at = $4
		 WHERE job_id = $1 AND intern_id = $2 AND status NOT IN ($5, $6)`,
		iv.JobID, iv.InternID, model.StatusInterviewScheduled, iv.CreatedAt,
		model.StatusAccepted, model.StatusRejected,
	)
	if err != nil {
		return fmt.Errorf("応募ステータスの更新に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update は企業側が変更可能なフィールドを上書きする。
func (r *PostgresInterviewRepo) Update(ctx context.Context, iv *model.Interview) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE interviews
		 SET date = $2, type = $3, location = $4, platform = $5, link = $6, updated_at = $7
		 WHERE id = $1`,
		iv.ID, iv.Date, iv.Type, iv.Location, iv.Platform, iv.Link, iv.UpdatedAt,
	)
	if noRow(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("面接の更新に失敗しました: %w", err)
	}
	return expectOneRow(result)
}

// SetConfirmed はインターンの参加確認フラグを更新する。
func (r *PostgresInterviewRepo) SetConfirmed(ctx context.Context, id string, confirmed bool, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE interviews SET confirmed = $2, updated_at = $3 WHERE id = $1`,
		id, confirmed, updatedAt,
	)
	if noRow(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("面接の確認状態の更新に失敗しました: %w", err)
	}
	return expectOneRow(result)
}

// Delete は指定IDの面接を削除する。
func (r *PostgresInterviewRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM interviews WHERE id = $1`, id)
	if noRow(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("面接の削除に失敗しました: %w", err)
	}
	return expectOneRow(result)
}

// ListByCompanyID は企業の全求人の面接を日時の昇順で返す。
func (r *PostgresInterviewRepo) ListByCompanyID(ctx context.Context, companyID string) ([]model.InterviewDetail, error) {
	return r.list(ctx, interviewSelect+` WHERE j.company_id = $1 ORDER BY v.date ASC`, companyID)
}

// ListByJobID は求人の面接を日時の昇順で返す。
func (r *PostgresInterviewRepo) ListByJobID(ctx context.Context, jobID string) ([]model.InterviewDetail, error) {
	return r.list(ctx, interviewSelect+` WHERE v.job_id = $1 ORDER BY v.date ASC`, jobID)
}

// ListByInternID はインターンの面接を日時の昇順で返す。
func (r *PostgresInterviewRepo) ListByInternID(ctx context.Context, internID string) ([]model.InterviewDetail, error) {
	return r.list(ctx, interviewSelect+` WHERE v.intern_id = $1 ORDER BY v.date ASC`, internID)
}

func (r *PostgresInterviewRepo) list(ctx context.Context, query string, args ...any) ([]model.InterviewDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("面接一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	details := []model.InterviewDetail{}
	for rows.Next() {
		d, err := scanInterviewDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("面接のスキャンに失敗しました: %w", err)
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("面接一覧の走査に失敗しました: %w", err)
	}
	return details, nil
}

// compile-time interface check
var _ InterviewRepository = (*PostgresInterviewRepo)(nil)
