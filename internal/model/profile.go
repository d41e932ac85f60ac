package model

import "time"

// Company は企業プロフィール。1ユーザーにつき高々1件。
type Company struct {
	ID          string
	UserID      string
	Name        string
	Industry    string
	Website     string
	Email       string
	Phone       string
	Location    string
	Description string
	LogoURL     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Intern はインターン（学生）プロフィール。1ユーザーにつき高々1件。
type Intern struct {
	ID             string
	UserID         string
	Name           string
	University     string
	Major          string
	GraduationYear int
	Skills         []string
	Bio            string
	Phone          string
	Location       string
	ImageURL       string
	ResumeURL      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CompanyPatch は企業プロフィールの部分更新内容。nilのフィールドは変更しない。
type CompanyPatch struct {
	Name        *string
	Industry    *string
	Website     *string
	Email       *string
	Phone       *string
	Location    *string
	Description *string
	LogoURL     *string
}

// Apply はパッチをプロフィールにマージする。
func (p CompanyPatch) Apply(c *Company) {
	mergeString(&c.Name, p.Name)
	mergeString(&c.Industry, p.Industry)
	mergeString(&c.Website, p.Website)
	mergeString(&c.Email, p.Email)
	mergeString(&c.Phone, p.Phone)
	mergeString(&c.Location, p.Location)
	mergeString(&c.Description, p.Description)
	mergeString(&c.LogoURL, p.LogoURL)
}

// InternPatch はインターンプロフィールの部分更新内容。
type InternPatch struct {
	Name           *string
	University     *string
	Major          *string
	GraduationYear *int
	Skills         []string
	Bio            *string
	Phone          *string
	Location       *string
	ImageURL       *string
	ResumeURL      *string
}

// Apply はパッチをプロフィールにマージする。
// Skills は nil の場合のみ据え置き、空スライスはクリアとして扱う。
func (p InternPatch) Apply(i *Intern) {
	mergeString(&i.Name, p.Name)
	mergeString(&i.University, p.University)
	mergeString(&i.Major, p.Major)
	if p.GraduationYear != nil {
		i.GraduationYear = *p.GraduationYear
	}
	if p.Skills != nil {
		i.Skills = p.Skills
	}
	mergeString(&i.Bio, p.Bio)
	mergeString(&i.Phone, p.Phone)
	mergeString(&i.Location, p.Location)
	mergeString(&i.ImageURL, p.ImageURL)
	mergeString(&i.ResumeURL, p.ResumeURL)
}

func mergeString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
