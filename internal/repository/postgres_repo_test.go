package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/hitoshi/internhub/internal/model"
	"github.com/lib/pq"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func assertExpectations(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

// 各Postgresリポジトリがインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
	var _ CompanyRepository = (*PostgresCompanyRepo)(nil)
	var _ InternRepository = (*PostgresInternRepo)(nil)
	var _ JobRepository = (*PostgresJobRepo)(nil)
	var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
	var _ InterviewRepository = (*PostgresInterviewRepo)(nil)
}

func TestQualify(t *testing.T) {
	got := qualify("a", "id, job_id,\n\tstatus")
	want := "a.id, a.job_id, a.status"
	if got != want {
		t.Errorf("qualify = %q, want %q", got, want)
	}
}

func TestPostgresUserRepo_CreateWithIdentity_Commits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)
	now := time.Now()

	user := &model.User{ID: "user-1", Email: "a@example.com", Name: "A", Role: model.RoleIntern, CreatedAt: now, UpdatedAt: now}
	identity := &model.Identity{ID: "identity-1", UserID: "user-1", Provider: "google", ProviderUserID: "g-1", CreatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO identities").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.CreateWithIdentity(context.Background(), user, identity); err != nil {
		t.Fatalf("CreateWithIdentity: %v", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresUserRepo_FindByID_NotFoundReturnsNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresUserRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "image", "role", "completed", "created_at", "updated_at"}))

	user, err := repo.FindByID(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user != nil {
		t.Errorf("user = %+v, want nil", user)
	}
	assertExpectations(t, mock)
}

func TestPostgresSessionRepo_FindPrincipal_ReadsRoleFromUsers(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresSessionRepo(db)

	mock.ExpectQuery("FROM sessions s\\s+JOIN users u").
		WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "role"}).AddRow("user-1", "company"))

	p, err := repo.FindPrincipal(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p == nil || p.UserID != "user-1" || p.Role != model.RoleCompany {
		t.Errorf("principal = %+v, want user-1/company", p)
	}
	assertExpectations(t, mock)
}

func TestPostgresCompanyRepo_CreateForUser_AlreadyCompleted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCompanyRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WithArgs("user-1", "").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.CreateForUser(context.Background(), &model.Company{ID: "c-1", UserID: "user-1", Name: "Acme"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresCompanyRepo_CreateForUser_Commits(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresCompanyRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WithArgs("user-1", "https://cdn/logo.png").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO companies").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateForUser(context.Background(), &model.Company{ID: "c-1", UserID: "user-1", Name: "Acme", LogoURL: "https://cdn/logo.png"})
	if err != nil {
		t.Fatalf("CreateForUser: %v", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresInternRepo_FindByUserID_ScansSkills(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresInternRepo(db)
	now := time.Now()

	cols := []string{"id", "user_id", "name", "university", "major", "graduation_year", "skills",
		"bio", "phone", "location", "image_url", "resume_url", "created_at", "updated_at"}
	mock.ExpectQuery("FROM interns i WHERE i.user_id").
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"in-1", "user-2", "Hanako", "Tokyo", "CS", 2027, "{go,sql}",
			"", "", "", "", "", now, now))

	in, err := repo.FindByUserID(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in == nil || len(in.Skills) != 2 || in.Skills[0] != "go" || in.Skills[1] != "sql" {
		t.Errorf("intern = %+v, want skills [go sql]", in)
	}
	assertExpectations(t, mock)
}

func TestPostgresApplicationRepo_Create_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresApplicationRepo(db)

	mock.ExpectExec("INSERT INTO applications").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &model.Application{ID: "a-1", JobID: "j-1", InternID: "in-1", Status: model.StatusNew})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresApplicationRepo_Create_OtherErrorIsWrapped(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresApplicationRepo(db)

	cause := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO applications").WillReturnError(cause)

	err := repo.Create(context.Background(), &model.Application{ID: "a-1"})
	if errors.Is(err, ErrDuplicate) || !errors.Is(err, cause) {
		t.Fatalf("err = %v, want wrapped cause", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresApplicationRepo_UpdateStatus_NoRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresApplicationRepo(db)
	now := time.Now()

	mock.ExpectExec("UPDATE applications SET status").
		WithArgs("missing", model.StatusAccepted, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "missing", model.StatusAccepted, now)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresInterviewRepo_CreateAndAdvanceApplication(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresInterviewRepo(db)
	now := time.Now()

	iv := &model.Interview{ID: "iv-1", JobID: "j-1", InternID: "in-1", Date: now.Add(48 * time.Hour), Type: "online", CreatedAt: now, UpdatedAt: now}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO interviews").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE applications SET status").
		WithArgs("j-1", "in-1", model.StatusInterviewScheduled, now, model.StatusAccepted, model.StatusRejected).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.CreateAndAdvanceApplication(context.Background(), iv); err != nil {
		t.Fatalf("CreateAndAdvanceApplication: %v", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresInterviewRepo_CreateAndAdvanceApplication_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresInterviewRepo(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO interviews").WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.CreateAndAdvanceApplication(context.Background(), &model.Interview{ID: "iv-1", JobID: "j-1", InternID: "in-1"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresInterviewRepo_Delete_NoRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresInterviewRepo(db)

	mock.ExpectExec("DELETE FROM interviews").WithArgs("iv-x").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Delete(context.Background(), "iv-x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	assertExpectations(t, mock)
}

func TestPostgresJobRepo_FindByID_NullDates(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPostgresJobRepo(db)
	now := time.Now()

	cols := []string{"id", "company_id", "title", "type", "location", "salary", "duration", "start_date", "deadline",
		"description", "responsibilities", "requirements", "benefits", "views", "status", "created_at", "updated_at"}
	mock.ExpectQuery("FROM jobs WHERE id").
		WithArgs("j-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"j-1", "c-1", "Backend Intern", "full-time", "Tokyo", "", "3 months", nil, now,
			"desc", "", "", "", 0, "open", now, now))

	job, err := repo.FindByID(context.Background(), "j-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.StartDate != nil {
		t.Errorf("StartDate = %v, want nil", job.StartDate)
	}
	if job.Deadline == nil || !job.Deadline.Equal(now) {
		t.Errorf("Deadline = %v, want %v", job.Deadline, now)
	}
	if job.Status != model.JobStatusOpen {
		t.Errorf("Status = %q, want open", job.Status)
	}
	assertExpectations(t, mock)
}

// UUID列に対して不正な形式のIDで検索した場合は、該当なしとして扱うことを検証する。
func TestPostgresRepos_MalformedIDIsNotFound(t *testing.T) {
	invalidUUID := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "not-a-uuid"`}

	tests := []struct {
		name  string
		query string
		find  func(db *sql.DB) (bool, error)
	}{
		{"応募", "FROM applications WHERE id", func(db *sql.DB) (bool, error) {
			a, err := NewPostgresApplicationRepo(db).FindByID(context.Background(), "not-a-uuid")
			return a == nil, err
		}},
		{"応募詳細", "FROM applications a", func(db *sql.DB) (bool, error) {
			d, err := NewPostgresApplicationRepo(db).FindDetailByID(context.Background(), "not-a-uuid")
			return d == nil, err
		}},
		{"応募済み確認", "WHERE job_id = (.+) AND intern_id", func(db *sql.DB) (bool, error) {
			a, err := NewPostgresApplicationRepo(db).FindByJobAndIntern(context.Background(), "not-a-uuid", "not-a-uuid")
			return a == nil, err
		}},
		{"求人", "FROM jobs WHERE id", func(db *sql.DB) (bool, error) {
			j, err := NewPostgresJobRepo(db).FindByID(context.Background(), "not-a-uuid")
			return j == nil, err
		}},
		{"インターン", "FROM interns i WHERE i.id", func(db *sql.DB) (bool, error) {
			in, err := NewPostgresInternRepo(db).FindByID(context.Background(), "not-a-uuid")
			return in == nil, err
		}},
		{"企業", "FROM companies WHERE id", func(db *sql.DB) (bool, error) {
			c, err := NewPostgresCompanyRepo(db).FindByID(context.Background(), "not-a-uuid")
			return c == nil, err
		}},
		{"面接", "FROM interviews", func(db *sql.DB) (bool, error) {
			iv, err := NewPostgresInterviewRepo(db).FindByID(context.Background(), "not-a-uuid")
			return iv == nil, err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			mock.ExpectQuery(tt.query).WillReturnError(invalidUUID)

			isNil, err := tt.find(db)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !isNil {
				t.Error("結果がnilではない")
			}
			assertExpectations(t, mock)
		})
	}
}

func TestPostgresRepos_MalformedIDOnWriteIsErrNotFound(t *testing.T) {
	invalidUUID := &pq.Error{Code: "22P02"}
	now := time.Now()

	t.Run("応募ステータス更新", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("UPDATE applications SET status").WillReturnError(invalidUUID)

		err := NewPostgresApplicationRepo(db).UpdateStatus(context.Background(), "not-a-uuid", model.StatusAccepted, now)
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("面接削除", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("DELETE FROM interviews").WillReturnError(invalidUUID)

		if err := NewPostgresInterviewRepo(db).Delete(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

// 接続断など他のSQLSTATEは該当なしに丸めず、エラーとして返すことを検証する。
func TestPostgresApplicationRepo_FindByID_OtherPQErrorIsReturned(t *testing.T) {
	db, mock := newMockDB(t)
	cause := &pq.Error{Code: "08006"}
	mock.ExpectQuery("FROM applications WHERE id").WillReturnError(cause)

	a, err := NewPostgresApplicationRepo(db).FindByID(context.Background(), "6f1c2e7a-0000-4000-8000-000000000001")
	if a != nil || !errors.Is(err, cause) {
		t.Fatalf("got (%v, %v), want wrapped cause", a, err)
	}
	assertExpectations(t, mock)
}
