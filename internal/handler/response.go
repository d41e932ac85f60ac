package handler

import (
	"time"

	"github.com/hitoshi/internhub/internal/application"
	"github.com/hitoshi/internhub/internal/model"
)

// jobResponse は求人のAPIレスポンス。
type jobResponse struct {
	ID               string     `json:"id"`
	CompanyID        string     `json:"companyId"`
	Title            string     `json:"title"`
	Type             string     `json:"type"`
	Location         string     `json:"location"`
	Salary           string     `json:"salary"`
	Duration         string     `json:"duration"`
	StartDate        *time.Time `json:"startDate"`
	Deadline         *time.Time `json:"deadline"`
	Description      string     `json:"description"`
	Responsibilities string     `json:"responsibilities"`
	Requirements     string     `json:"requirements"`
	Benefits         string     `json:"benefits"`
	Views            int        `json:"views"`
	Status           string     `json:"status"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

func toJobResponse(j *model.Job) jobResponse {
	return jobResponse{
		ID:               j.ID,
		CompanyID:        j.CompanyID,
		Title:            j.Title,
		Type:             j.Type,
		Location:         j.Location,
		Salary:           j.Salary,
		Duration:         j.Duration,
		StartDate:        j.StartDate,
		Deadline:         j.Deadline,
		Description:      j.Description,
		Responsibilities: j.Responsibilities,
		Requirements:     j.Requirements,
		Benefits:         j.Benefits,
		Views:            j.Views,
		Status:           string(j.Status),
		CreatedAt:        j.CreatedAt,
		UpdatedAt:        j.UpdatedAt,
	}
}

func toJobResponses(jobs []*model.Job) []jobResponse {
	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	return out
}

// companyResponse は企業プロフィールのAPIレスポンス。
type companyResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Industry    string    `json:"industry"`
	Website     string    `json:"website"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Location    string    `json:"location"`
	Description string    `json:"description"`
	LogoURL     string    `json:"logo"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toCompanyResponse(c *model.Company) companyResponse {
	return companyResponse{
		ID:          c.ID,
		Name:        c.Name,
		Industry:    c.Industry,
		Website:     c.Website,
		Email:       c.Email,
		Phone:       c.Phone,
		Location:    c.Location,
		Description: c.Description,
		LogoURL:     c.LogoURL,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// internResponse はインターンプロフィールのAPIレスポンス。
type internResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	University     string    `json:"university"`
	Major          string    `json:"major"`
	GraduationYear int       `json:"graduationYear,omitempty"`
	Skills         []string  `json:"skills"`
	Bio            string    `json:"bio"`
	Phone          string    `json:"phone"`
	Location       string    `json:"location"`
	ImageURL       string    `json:"image"`
	ResumeURL      string    `json:"resume"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toInternResponse(in *model.Intern) internResponse {
	skills := in.Skills
	if skills == nil {
		skills = []string{}
	}
	return internResponse{
		ID:             in.ID,
		Name:           in.Name,
		University:     in.University,
		Major:          in.Major,
		GraduationYear: in.GraduationYear,
		Skills:         skills,
		Bio:            in.Bio,
		Phone:          in.Phone,
		Location:       in.Location,
		ImageURL:       in.ImageURL,
		ResumeURL:      in.ResumeURL,
		CreatedAt:      in.CreatedAt,
		UpdatedAt:      in.UpdatedAt,
	}
}

// applicationResponse は応募のAPIレスポンス。
// 一覧・詳細では求人とインターンのプロフィールを含む。
type applicationResponse struct {
	ID          string          `json:"id"`
	JobID       string          `json:"jobId"`
	CompanyID   string          `json:"companyId"`
	InternID    string          `json:"internId"`
	Status      string          `json:"status"`
	Resume      *string         `json:"resume"`
	CoverLetter string          `json:"coverLetter"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Job         *jobResponse    `json:"job,omitempty"`
	Intern      *internResponse `json:"intern,omitempty"`
}

func toApplicationResponse(a *model.Application) applicationResponse {
	return applicationResponse{
		ID:          a.ID,
		JobID:       a.JobID,
		CompanyID:   a.CompanyID,
		InternID:    a.InternID,
		Status:      string(a.Status),
		Resume:      a.Resume,
		CoverLetter: a.CoverLetter,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toApplicationDetailResponse(d *model.ApplicationDetail) applicationResponse {
	resp := toApplicationResponse(&d.Application)
	job := toJobResponse(&d.Job)
	intern := toInternResponse(&d.Intern)
	resp.Job = &job
	resp.Intern = &intern
	return resp
}

func toApplicationDetailResponses(details []model.ApplicationDetail) []applicationResponse {
	out := make([]applicationResponse, 0, len(details))
	for i := range details {
		out = append(out, toApplicationDetailResponse(&details[i]))
	}
	return out
}

// precheckResponse は応募済み確認のAPIレスポンス。
type precheckResponse struct {
	Applied bool    `json:"applied"`
	Status  *string `json:"status,omitempty"`
}

func toPrecheckResponse(res *application.PrecheckResult) precheckResponse {
	resp := precheckResponse{Applied: res.Applied}
	if res.Status != nil {
		s := string(*res.Status)
		resp.Status = &s
	}
	return resp
}

// interviewResponse は面接のAPIレスポンス。
type interviewResponse struct {
	ID         string    `json:"id"`
	JobID      string    `json:"jobId"`
	CompanyID  string    `json:"companyId"`
	InternID   string    `json:"internId"`
	Date       time.Time `json:"date"`
	Type       string    `json:"type"`
	Location   string    `json:"location"`
	Platform   string    `json:"platform"`
	Link       string    `json:"link"`
	Confirmed  bool      `json:"confirmed"`
	JobTitle   string    `json:"jobTitle,omitempty"`
	InternName string    `json:"internName,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func toInterviewResponse(iv *model.Interview) interviewResponse {
	return interviewResponse{
		ID:        iv.ID,
		JobID:     iv.JobID,
		CompanyID: iv.CompanyID,
		InternID:  iv.InternID,
		Date:      iv.Date,
		Type:      iv.Type,
		Location:  iv.Location,
		Platform:  iv.Platform,
		Link:      iv.Link,
		Confirmed: iv.Confirmed,
		CreatedAt: iv.CreatedAt,
		UpdatedAt: iv.UpdatedAt,
	}
}

func toInterviewDetailResponses(details []model.InterviewDetail) []interviewResponse {
	out := make([]interviewResponse, 0, len(details))
	for i := range details {
		resp := toInterviewResponse(&details[i].Interview)
		resp.JobTitle = details[i].JobTitle
		resp.InternName = details[i].InternName
		out = append(out, resp)
	}
	return out
}

// userResponse はログインユーザーのAPIレスポンス。
type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Role      string `json:"role"`
	Completed bool   `json:"completed"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Image:     u.Image,
		Role:      string(u.Role),
		Completed: u.Completed,
	}
}
