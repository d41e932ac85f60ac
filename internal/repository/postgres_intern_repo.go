package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/internhub/internal/model"
	"github.com/lib/pq"
)

// PostgresInternRepo はPostgreSQLを使用したインターンプロフィールリポジトリ。
type PostgresInternRepo struct {
	db *sql.DB
}

// NewPostgresInternRepo はPostgresInternRepoを生成する。
func NewPostgresInternRepo(db *sql.DB) *PostgresInternRepo {
	return &PostgresInternRepo{db: db}
}

const internColumns = `id, user_id, name, university, major, graduation_year, skills,
	bio, phone, location, image_url, resume_url, created_at, updated_at`

var internSelect = `SELECT ` + qualify("i", internColumns) + ` FROM interns i`

func internTargets(in *model.Intern) []any {
	return []any{&in.ID, &in.UserID, &in.Name, &in.University, &in.Major, &in.GraduationYear,
		pq.Array(&in.Skills), &in.Bio, &in.Phone, &in.Location, &in.ImageURL, &in.ResumeURL,
		&in.CreatedAt, &in.UpdatedAt}
}

func scanIntern(row interface{ Scan(...any) error }) (*model.Intern, error) {
	in := &model.Intern{}
	err := row.Scan(internTargets(in)...)
	return in, err
}

// FindByID は指定IDのインターンを取得する。見つからない場合はnilを返す。
func (r *PostgresInternRepo) FindByID(ctx context.Context, id string) (*model.Intern, error) {
	in, err := scanIntern(r.db.QueryRowContext(ctx, internSelect+` WHERE i.id = $1`, id))
	if noRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("インターンの取得に失敗しました: %w", err)
	}
	return in, nil
}

// FindByUserID はユーザーが所有するインターンを取得する。見つからない場合はnilを返す。
func (r *PostgresInternRepo) FindByUserID(ctx context.Context, userID string) (*model.Intern, error) {
	in, err := scanIntern(r.db.QueryRowContext(ctx, internSelect+` WHERE i.user_id = $1`, userID))
	if noRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーによるインターンの検索に失敗しました: %w", err)
	}
	return in, nil
}

// CreateForUser はインターンを作成し、同一トランザクションでユーザーのオンボーディングを完了させる。
func (r *PostgresInternRepo) CreateForUser(ctx context.Context, in *model.Intern) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := markCompleted(ctx, tx, in.UserID, in.ImageURL); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO interns (id, user_id, name, university, major, graduation_year, skills,
		     bio, phone, location, image_url, resume_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		in.ID, in.UserID, in.Name, in.University, in.Major, in.GraduationYear, pq.Array(in.Skills),
		in.Bio, in.Phone, in.Location, in.ImageURL, in.ResumeURL, in.CreatedAt, in.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("インターンの作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update はインターンプロフィールを上書き保存する。
func (r *PostgresInternRepo) Update(ctx context.Context, in *model.Intern) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE interns
		 SET name = $2, university = $3, major = $4, graduation_year = $5, skills = $6, bio = $7,
		     phone = $8, location = $9, image_url = $10, resume_url = $11, updated_at = $12
		 WHERE id = $1`,
		in.ID, in.Name, in.University, in.Major, in.GraduationYear, pq.Array(in.Skills), in.Bio,
		in.Phone, in.Location, in.ImageURL, in.ResumeURL, in.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("インターンの更新に失敗しました: %w", err)
	}
	return expectOneRow(result)
}

// compile-time interface check
var _ InternRepository = (*PostgresInternRepo)(nil)
