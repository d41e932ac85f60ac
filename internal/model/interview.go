package model

import "time"

// Interview は面接予定。(JobID, InternID) の組につき高々1件。
// Confirmed はインターン側のみが変更できる。
type Interview struct {
	ID        string
	JobID     string
	CompanyID string
	InternID  string
	Date      time.Time
	Type      string
	Location  string
	Platform  string
	Link      string
	Confirmed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// InterviewPatch は面接の部分更新内容（企業側）。Confirmed は含まない。
type InterviewPatch struct {
	Date     *time.Time
	Type     *string
	Location *string
	Platform *string
	Link     *string
}

// Apply はパッチを面接にマージする。
func (p InterviewPatch) Apply(iv *Interview) {
	if p.Date != nil {
		iv.Date = *p.Date
	}
	mergeString(&iv.Type, p.Type)
	mergeString(&iv.Location, p.Location)
	mergeString(&iv.Platform, p.Platform)
	mergeString(&iv.Link, p.Link)
}

// InterviewDetail は面接に求人タイトルとインターン名を結合した表示用構造体。
type InterviewDetail struct {
	Interview
	JobTitle   string
	InternName string
}
