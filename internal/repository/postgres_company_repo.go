package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/internhub/internal/model"
)

// PostgresCompanyRepo はPostgreSQLを使用した企業プロフィールリポジトリ。
type PostgresCompanyRepo struct {
	db *sql.DB
}

// NewPostgresCompanyRepo はPostgresCompanyRepoを生成する。
func NewPostgresCompanyRepo(db *sql.DB) *PostgresCompanyRepo {
	return &PostgresCompanyRepo{db: db}
}

const companyColumns = `id, user_id, name, industry, website, email, phone, location, description, logo_url, created_at, updated_at`

func scanCompany(row interface{ Scan(...any) error }) (*model.Company, error) {
	c := &model.Company{}
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Industry, &c.Website, &c.Email, &c.Phone,
		&c.Location, &c.Description, &c.LogoURL, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// FindByID は指定IDの企業を取得する。見つからない場合はnilを返す。
func (r *PostgresCompanyRepo) FindByID(ctx context.Context, id string) (*model.Company, error) {
	c, err := scanCompany(r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE id = $1`, id))
	if noRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("企業の取得に失敗しました: %w", err)
	}
	return c, nil
}

// FindByUserID はユーザーが所有する企業を取得する。見つからない場合はnilを返す。
func (r *PostgresCompanyRepo) FindByUserID(ctx context.Context, userID string) (*model.Company, error) {
	c, err := scanCompany(r.db.QueryRowContext(ctx,
		`SELECT `+companyColumns+` FROM companies WHERE user_id = $1`, userID))
	if noRow(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーによる企業の検索に失敗しました: %w", err)
	}
	return c, nil
}

// CreateForUser は企業を作成し、同一トランザクションでユーザーのオンボーディングを完了させる。
func (r *PostgresCompanyRepo) CreateForUser(ctx context.Context, c *model.Company) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if err := markCompleted(ctx, tx, c.UserID, c.LogoURL); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO companies (`+companyColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		c.ID, c.UserID, c.Name, c.Industry, c.Website, c.Email, c.Phone,
		c.Location, c.Description, c.LogoURL, c.CreatedAt, c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("企業の作成に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// Update は企業プロフィールを上書き保存する。
func (r *PostgresCompanyRepo) Update(ctx context.Context, c *model.Company) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE companies
		 SET name = $2, industry = $3, website = $4, email = $5, phone = $6,
		     location = $7, description = $8, logo_url = $9, updated_at = $10
		 WHERE id = $1`,
		c.ID, c.Name, c.Industry, c.Website, c.Email, c.Phone,
		c.Location, c.Description, c.LogoURL, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("企業の更新に失敗しました: %w", err)
	}
	return expectOneRow(result)
}

// compile-time interface check
var _ CompanyRepository = (*PostgresCompanyRepo)(nil)
