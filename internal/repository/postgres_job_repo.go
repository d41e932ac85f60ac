package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/internhub/internal/model"
)

// PostgresJobRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresJobRepo struct {
	db *sql.DB
}

// NewPostgresJobRepo はPostgresJobRepoを生成する。
func NewPostgresJobRepo(db *sql.DB) *PostgresJobRepo {
	return &PostgresJobRepo{db: db}
}

const jobColumns = `id, company_id, title, type, location, salary, duration, start_date, deadline,
	description, responsibilities, requirements, benefits, views, status, created_at, updated_at`

// jobScan は NULL 許容の日付列を受け取るための中間バッファ。
type jobScan struct {
	job       model.Job
	startDate sql.NullTime
	deadline  sql.NullTime
}

func (s *jobScan) targets() []any {
	j := &s.job
	return []any{&j.ID, &j.CompanyID, &j.Title, &j.Type, &j.Location, &j.Salary, &j.Duration,
		&s.startDate, &s.deadline, &j.Description, &j.Responsibilities, &j.Requirements, &j.Benefits,
		&j.Views, &j.Status, &j.CreatedAt, &j.UpdatedAt}
}

func (s *jobScan) result() model.Job {
	j := s.job
	if s.startDate.Valid {
		t := s.startDate.Time
		j.StartDate = &t
	}
	if s.deadline.Valid {
		t := s.deadline.Time
		j.Deadline = &t
	}
	return j
}

func scanJob(row interface{ Scan(...any) error }) (*model.Job, error) {
	var s jobScan
	if err := row.Scan(s.targets()...); err != nil {
		return nil, err
	}
	j := s.result()
	return &j, nil
}

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
func (r *PostgresJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	j, err := scanJob(r.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id))
	if noRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	return j, nil
}

// Create は求人を作成する。
func (r *PostgresJobRepo) Create(ctx context.Context, j *model.Job) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		j.ID, j.CompanyID, j.Title, j.Type, j.Location, j.Salary, j.Duration, j.StartDate, j.Deadline,
		j.Description, j.Responsibilities, j.Requirements, j.Benefits, j.Views, j.Status, j.CreatedAt, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("求人の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は求人を上書き保存する。views と company_id は変更しない。
func (r *PostgresJobRepo) Update(ctx context.Context, j *model.Job) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs
		 SET title = $2, type = $3, location = $4, salary = $5, duration = $6, start_date = $7,
		     deadline = $8, description = $9, responsibilities = $10, requirements = $11,
		     benefits = $12, status = $13, updated_at = $14
		 WHERE id = $1`,
		j.ID, j.Title, j.Type, j.Location, j.Salary, j.Duration, j.StartDate,
		j.Deadline, j.Description, j.Responsibilities, j.Requirements,
		j.Benefits, j.Status, j.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("求人の更新に失敗しました: %w", err)
	}
	return expectOneRow(result)
}

// ListByCompanyID は企業の求人一覧を作成日時の降順で返す。
func (r *PostgresJobRepo) ListByCompanyID(ctx context.Context, companyID string) ([]*model.Job, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE company_id = $1 ORDER BY created_at DESC`, companyID)
}

// ListOpen は受付中の求人一覧を作成日時の降順で返す。
func (r *PostgresJobRepo) ListOpen(ctx context.Context) ([]*model.Job, error) {
	return r.list(ctx, `SELECT `+jobColumns+` FROM jobs WHERE status = $1 ORDER BY created_at DESC`, model.JobStatusOpen)
}

func (r *PostgresJobRepo) list(ctx context.Context, query string, args ...any) ([]*model.Job, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("求人のスキャンに失敗しました: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("求人一覧の走査に失敗しました: %w", err)
	}
	return jobs, nil
}

// compile-time interface check
var _ JobRepository = (*PostgresJobRepo)(nil)
