package models

import "time"

// Signup is one volunteer's claim on one unit of a task's capacity on one date.
type Signup struct {
	ID     int64  `db:"id" json:"id"`
	TaskID int64  `db:"task_id" json:"task_id"`
	Date   string `db:"date" json:"date"`

	// UserID is 0 when the signup is not tied to a site account.
	UserID int64 `db:"user_id" json:"user_id"`

	Item      string `db:"item" json:"item"`
	FirstName string `db:"firstname" json:"firstname"`
	LastName  string `db:"lastname" json:"lastname"`
	Email     string `db:"email" json:"email"`
	Phone     string `db:"phone" json:"phone"`

	// ItemQty is the number of capacity units consumed; meaningful only
	// when the task has quantities enabled, otherwise treated as 1.
	ItemQty int `db:"item_qty" json:"item_qty"`

	Reminder1Sent bool `db:"reminder1_sent" json:"reminder1_sent"`
	Reminder2Sent bool `db:"reminder2_sent" json:"reminder2_sent"`

	Validated bool `db:"validated" json:"validated"`

	Extra ExtraFields `db:"extra" json:"extra,omitempty"`

	TS time.Time `db:"ts" json:"ts"`
}

// SignupIdentity is the matching key for the duplicate-signup rule.
type SignupIdentity struct {
	UserID    int64
	FirstName string
	LastName  string
	Email     string
}

// SignupFilter narrows down signup listings.
type SignupFilter struct {
	TaskID   int64
	SheetID  int64
	Date     string
	Email    string
	Page     int
	PageSize int
}

// SignupDetail joins a signup with its task and sheet for listings and exports.
type SignupDetail struct {
	Signup
	TaskTitle  string    `db:"task_title" json:"task_title"`
	TaskDates  string    `db:"task_dates" json:"-"`
	TimeStart  *string   `db:"time_start" json:"time_start,omitempty"`
	TimeEnd    *string   `db:"time_end" json:"time_end,omitempty"`
	SheetID    int64     `db:"sheet_id" json:"sheet_id"`
	SheetTitle string    `db:"sheet_title" json:"sheet_title"`
	SheetType  SheetType `db:"sheet_type" json:"sheet_type"`
}
