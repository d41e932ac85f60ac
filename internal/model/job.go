package model

import "time"

// JobStatus は求人の掲載状態を表す。
type JobStatus string

const (
	// JobStatusOpen は応募受付中。
	JobStatusOpen JobStatus = "open"
	// JobStatusClosed は募集終了。
	JobStatusClosed JobStatus = "closed"
)

// Job は企業が掲載するインターン求人。所有者は CompanyID の企業のみ。
type Job struct {
	ID               string
	CompanyID        string
	Title            string
	Type             string
	Location         string
	Salary           string
	Duration         string
	StartDate        *time.Time
	Deadline         *time.Time
	Description      string
	Responsibilities string
	Requirements     string
	Benefits         string
	Views            int
	Status           JobStatus
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// JobPatch は求人の部分更新内容。
type JobPatch struct {
	Title            *string
	Type             *string
	Location         *string
	Salary           *string
	Duration         *string
	StartDate        *time.Time
	Deadline         *time.Time
	Description      *string
	Responsibilities *string
	Requirements     *string
	Benefits         *string
	Status           *JobStatus
}

// Apply はパッチを求人にマージする。
func (p JobPatch) Apply(j *Job) {
	mergeString(&j.Title, p.Title)
	mergeString(&j.Type, p.Type)
	mergeString(&j.Location, p.Location)
	mergeString(&j.Salary, p.Salary)
	mergeString(&j.Duration, p.Duration)
	if p.StartDate != nil {
		j.StartDate = p.StartDate
	}
	if p.Deadline != nil {
		j.Deadline = p.Deadline
	}
	mergeString(&j.Description, p.Description)
	mergeString(&j.Responsibilities, p.Responsibilities)
	mergeString(&j.Requirements, p.Requirements)
	mergeString(&j.Benefits, p.Benefits)
	if p.Status != nil {
		j.Status = *p.Status
	}
}
