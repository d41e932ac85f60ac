package model

import (
	"strings"
	"time"
)

// ApplicationStatus は応募の選考ステータスを表す。
type ApplicationStatus string

const (
	// StatusNew は応募直後の初期状態。
	StatusNew ApplicationStatus = "new"
	// StatusUnderReview は書類選考中。
	StatusUnderReview ApplicationStatus = "under_review"
	// StatusInterviewScheduled は面接日程が確定した状態。
	StatusInterviewScheduled ApplicationStatus = "interview_scheduled"
	// StatusAccepted は採用（終端）。
	StatusAccepted ApplicationStatus = "accepted"
	// StatusRejected は不採用（終端）。
	StatusRejected ApplicationStatus = "rejected"
)

// ParseApplicationStatus は入力文字列をステータスに変換する。
// "interview" は interview_scheduled の別名として受け付ける。
func ParseApplicationStatus(s string) (ApplicationStatus, bool) {
	switch ApplicationStatus(strings.TrimSpace(s)) {
	case StatusNew:
		return StatusNew, true
	case StatusUnderReview:
		return StatusUnderReview, true
	case StatusInterviewScheduled, "interview":
		return StatusInterviewScheduled, true
	case StatusAccepted:
		return StatusAccepted, true
	case StatusRejected:
		return StatusRejected, true
	}
	return "", false
}

// Terminal は終端ステータス（accepted / rejected）かどうかを返す。
func (s ApplicationStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// rank は選考の進行度。単調遷移ポリシーで使用する。
func (s ApplicationStatus) rank() int {
	switch s {
	case StatusNew:
		return 0
	case StatusUnderReview:
		return 1
	case StatusInterviewScheduled:
		return 2
	case StatusAccepted, StatusRejected:
		return 3
	}
	return -1
}

// Precedes は s から next への遷移が前進（または同一段階）であるかを返す。
func (s ApplicationStatus) Precedes(next ApplicationStatus) bool {
	return s.rank() <= next.rank()
}

// Application は求人への応募。(JobID, InternID) の組につき高々1件。
type Application struct {
	ID          string
	JobID       string
	CompanyID   string
	InternID    string
	Status      ApplicationStatus
	Resume      *string
	CoverLetter string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ApplicationDetail は応募に求人とインターンのプロフィールを結合した表示用構造体。
type ApplicationDetail struct {
	Application
	Job    Job
	Intern Intern
}
