package models

import (
	"strings"
	"time"
)

// YesNo is the canonical string flag used by the signup tables.
type YesNo string

const (
	Yes YesNo = "YES"
	No  YesNo = "NO"
)

// Bool converts the flag for arithmetic branches.
func (y YesNo) Bool() bool { return y == Yes }

// Task is a capacity-bounded slot definition belonging to one sheet.
type Task struct {
	ID          int64  `db:"id" json:"id"`
	SheetID     int64  `db:"sheet_id" json:"sheet_id"`
	Title       string `db:"title" json:"title"`
	Description string `db:"description" json:"description"`

	// Dates is a comma-separated list of the dates this task occurs on.
	Dates     string  `db:"dates" json:"dates"`
	TimeStart *string `db:"time_start" json:"time_start,omitempty"`
	TimeEnd   *string `db:"time_end" json:"time_end,omitempty"`

	Qty int `db:"qty" json:"qty"`

	NeedDetails     YesNo  `db:"need_details" json:"need_details"`
	DetailsRequired YesNo  `db:"details_required" json:"details_required"`
	DetailsText     string `db:"details_text" json:"details_text"`

	AllowDuplicates  YesNo `db:"allow_duplicates" json:"allow_duplicates"`
	EnableQuantities YesNo `db:"enable_quantities" json:"enable_quantities"`

	Position int `db:"position" json:"position"`

	ConfirmationTemplateID int64 `db:"confirmation_template_id" json:"confirmation_template_id"`
	Reminder1TemplateID    int64 `db:"reminder1_template_id" json:"reminder1_template_id"`
	Reminder2TemplateID    int64 `db:"reminder2_template_id" json:"reminder2_template_id"`
	ClearTemplateID        int64 `db:"clear_template_id" json:"clear_template_id"`
	RescheduleTemplateID   int64 `db:"reschedule_template_id" json:"reschedule_template_id"`

	Extra ExtraFields `db:"extra" json:"extra,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// DateList splits the stored comma list into individual dates.
func (t *Task) DateList() []string {
	if strings.TrimSpace(t.Dates) == "" {
		return nil
	}
	parts := strings.Split(t.Dates, ",")
	dates := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			dates = append(dates, trimmed)
		}
	}
	return dates
}

// OccursOn reports whether the given date is one of the task's valid dates.
func (t *Task) OccursOn(date string) bool {
	for _, d := range t.DateList() {
		if d == date {
			return true
		}
	}
	return false
}

// TaskFilter narrows down task listings.
type TaskFilter struct {
	SheetID int64
	Date    string
}
