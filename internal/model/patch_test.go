package model

import (
	"reflect"
	"testing"
	"time"
)

func ptr[T any](v T) *T { return &v }

func TestJobPatch_Apply(t *testing.T) {
	start := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	job := Job{
		Title:    "Backend",
		Location: "Tokyo",
		Salary:   "2000/h",
		Status:   JobStatusOpen,
	}

	JobPatch{
		Title:     ptr("Backend Intern"),
		Salary:    ptr(""),
		StartDate: &start,
		Status:    ptr(JobStatusClosed),
	}.Apply(&job)

	if job.Title != "Backend Intern" {
		t.Errorf("Title = %q", job.Title)
	}
	if job.Location != "Tokyo" {
		t.Errorf("未指定のLocationが変更された: %q", job.Location)
	}
	if job.Salary != "" {
		t.Errorf("空文字のパッチでSalaryがクリアされていない: %q", job.Salary)
	}
	if job.StartDate == nil || !job.StartDate.Equal(start) {
		t.Errorf("StartDate = %v, want %v", job.StartDate, start)
	}
	if job.Deadline != nil {
		t.Errorf("Deadline = %v, want nil", job.Deadline)
	}
	if job.Status != JobStatusClosed {
		t.Errorf("Status = %q, want closed", job.Status)
	}
}

func TestInternPatch_Apply_Skills(t *testing.T) {
	tests := []struct {
		name  string
		patch []string
		want  []string
	}{
		{"nilは据え置き", nil, []string{"Go"}},
		{"空スライスはクリア", []string{}, []string{}},
		{"値があれば置き換え", []string{"SQL", "Docker"}, []string{"SQL", "Docker"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intern := Intern{Name: "Hanako", Skills: []string{"Go"}, GraduationYear: 2026}
			InternPatch{Skills: tt.patch}.Apply(&intern)

			if !reflect.DeepEqual(intern.Skills, tt.want) {
				t.Errorf("Skills = %#v, want %#v", intern.Skills, tt.want)
			}
			if intern.Name != "Hanako" || intern.GraduationYear != 2026 {
				t.Errorf("未指定フィールドが変更された: %+v", intern)
			}
		})
	}
}

func TestInternPatch_Apply_Fields(t *testing.T) {
	intern := Intern{Bio: "hello", University: "Tokyo Univ"}
	InternPatch{Bio: ptr(""), GraduationYear: ptr(2027), ResumeURL: ptr("/uploads/r.pdf")}.Apply(&intern)

	if intern.Bio != "" {
		t.Errorf("Bio = %q, want empty", intern.Bio)
	}
	if intern.GraduationYear != 2027 {
		t.Errorf("GraduationYear = %d", intern.GraduationYear)
	}
	if intern.ResumeURL != "/uploads/r.pdf" {
		t.Errorf("ResumeURL = %q", intern.ResumeURL)
	}
	if intern.University != "Tokyo Univ" {
		t.Errorf("University = %q", intern.University)
	}
}

func TestCompanyPatch_Apply(t *testing.T) {
	c := Company{Name: "Acme", LogoURL: "/uploads/old.png"}
	CompanyPatch{LogoURL: ptr("/uploads/new.png"), Website: ptr("https://acme.example")}.Apply(&c)

	want := Company{Name: "Acme", LogoURL: "/uploads/new.png", Website: "https://acme.example"}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}

func TestInterviewPatch_Apply(t *testing.T) {
	date := time.Date(2026, 5, 10, 14, 0, 0, 0, time.UTC)
	iv := Interview{Type: "online", Platform: "Zoom", Confirmed: true}
	InterviewPatch{Date: &date, Platform: ptr("Meet")}.Apply(&iv)

	if !iv.Date.Equal(date) {
		t.Errorf("Date = %v, want %v", iv.Date, date)
	}
	if iv.Platform != "Meet" || iv.Type != "online" {
		t.Errorf("Platform=%q Type=%q", iv.Platform, iv.Type)
	}
	if !iv.Confirmed {
		t.Error("パッチでConfirmedが変更された")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewInvalidTransitionError(StatusAccepted, StatusNew)
	if err.Kind != KindValidation {
		t.Errorf("Kind = %q", err.Kind)
	}
	want := "[INVALID_TRANSITION] ステータスを accepted から new に変更できません。"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if NewNotOwnerError().Message != NewJobNotFoundError().Message {
		t.Error("所有者不一致と未検出のメッセージが異なる")
	}
}
