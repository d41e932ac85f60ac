package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/internhub/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

const applicationColumns = `id, job_id, company_id, intern_id, status, resume, cover_letter, created_at, updated_at`

var applicationDetailSelect = `SELECT ` + qualify("a", applicationColumns) + `, ` +
	qualify("j", jobColumns) + `, ` + qualify("i", internColumns) + `
	FROM applications a
	JOIN jobs j ON j.id = a.job_id
	JOIN interns i ON i.id = a.intern_id`

func applicationTargets(a *model.Application) []any {
	return []any{&a.ID, &a.JobID, &a.CompanyID, &a.InternID, &a.Status, &a.Resume,
		&a.CoverLetter, &a.CreatedAt, &a.UpdatedAt}
}

func scanApplication(row interface{ Scan(...any) error }) (*model.Application, error) {
	a := &model.Application{}
	err := row.Scan(applicationTargets(a)...)
	return a, err
}

func scanApplicationDetail(row interface{ Scan(...any) error }) (*model.ApplicationDetail, error) {
	d := &model.ApplicationDetail{}
	var js jobScan
	targets := applicationTargets(&d.Application)
	targets = append(targets, js.targets()...)
	targets = append(targets, internTargets(&d.Intern)...)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}
	d.Job = js.result()
	return d, nil
}

// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id))
	if noRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	return a, nil
}

// FindByJobAndIntern は求人IDとインターンIDで応募を検索する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByJobAndIntern(ctx context.Context, jobID, internID string) (*model.Application, error) {
	a, err := scanApplication(r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE job_id = $1 AND intern_id = $2`,
		jobID, internID))
	if noRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("応募の検索に失敗しました: %w", err)
	}
	return a, nil
}

// FindDetailByID は応募を求人・インターン情報付きで取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindDetailByID(ctx context.Context, id string) (*model.ApplicationDetail, error) {
	d, err := scanApplicationDetail(r.db.QueryRowContext(ctx, applicationDetailSelect+` WHERE a.id = $1`, id))
	if noRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("応募詳細の取得に失敗しました: %w", err)
	}
	return d, nil
}

// Create は応募を作成する。(job_id, intern_id) の一意制約違反は ErrDuplicate を返す。
func (r *PostgresApplicationRepo) Create(ctx context.Context, a *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (`+applicationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.JobID, a.CompanyID, a.InternID, a.Status, a.Resume, a.CoverLetter, a.CreatedAt, a.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("応募の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateStatus はステータスと更新日時を上書きする。
func (r *PostgresApplicationRepo) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus, updatedAt time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, updatedAt,
	)
	if noRow(err) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("応募ステータスの更新に失敗しました: %w", err)
	}
	return expectOneRow(result)
}

// ListByCompanyID は企業宛ての応募一覧を新しい順に返す。
func (r *PostgresApplicationRepo) ListByCompanyID(ctx context.Context, companyID string) ([]model.ApplicationDetail, error) {
	return r.listDetails(ctx, applicationDetailSelect+` WHERE a.company_id = $1 ORDER BY a.created_at DESC`, companyID)
}

// ListByInternID はインターンの応募一覧を新しい順に返す。
func (r *PostgresApplicationRepo) ListByInternID(ctx context.Context, internID string) ([]model.ApplicationDetail, error) {
	return r.listDetails(ctx, applicationDetailSelect+` WHERE a.intern_id = $1 ORDER BY a.created_at DESC`, internID)
}

func (r *PostgresApplicationRepo) listDetails(ctx context.Context, query string, args ...any) ([]model.ApplicationDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	details := []model.ApplicationDetail{}
	for rows.Next() {
		d, err := scanApplicationDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("応募のスキャンに失敗しました: %w", err)
		}
		details = append(details, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("応募一覧の走査に失敗しました: %w", err)
	}
	return details, nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
